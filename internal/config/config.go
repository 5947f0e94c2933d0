// Package config loads application configuration and workspace ignore files.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/repoctx/internal/utils"
)

const (
	commentLinePrefix  = "#"
	negationLinePrefix = "!"
)

// LoadGitignorePatterns reads the .gitignore file at the root of the given
// directory and returns its patterns. A missing file yields no patterns.
// Comment lines and negation lines are skipped; negations are not supported
// by the traversal matcher.
//
// #nosec G304
func LoadGitignorePatterns(rootDirectory string) ([]string, error) {
	gitIgnoreFilePath := filepath.Join(rootDirectory, utils.GitIgnoreFileName)
	fileHandle, openFileError := os.Open(gitIgnoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", gitIgnoreFilePath, closeError)
		}
	}()

	var ignorePatterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentLinePrefix) {
			continue
		}
		if strings.HasPrefix(trimmedLine, negationLinePrefix) {
			continue
		}
		ignorePatterns = append(ignorePatterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return utils.DeduplicatePatterns(ignorePatterns), nil
}
