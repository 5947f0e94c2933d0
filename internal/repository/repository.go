// Package repository acquires the local working copy of the source being
// bundled: a clone of a remote repository in a temporary directory, or an
// existing directory used in place.
package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
)

const (
	// temporaryDirectoryPrefix prefixes every clone directory created under the system temp root.
	temporaryDirectoryPrefix = "repoctx-"
	// FallbackRepositoryName is used when no display name can be derived from a URL.
	FallbackRepositoryName = "repository"
	// gitRepositorySuffix is stripped from the final URL segment when deriving a display name.
	gitRepositorySuffix = ".git"

	errorCreateTemporaryFormat = "create temporary clone directory %s: %w"
	errorCloneFormat           = "clone %s: %w"
	errorResolvePathFormat     = "resolve path %s: %w"
	errorPathMissingFormat     = "path %s does not exist"
	errorStatPathFormat        = "stat %s: %w"
	errorNotDirectoryFormat    = "path %s is not a directory"
)

// remoteSchemePrefixes lists URL schemes treated as clone sources.
var remoteSchemePrefixes = []string{"http://", "https://", "ssh://", "git://"}

// Workspace is the traversal root for one run. Temporary workspaces own a
// clone directory that Release removes; local workspaces leave the
// filesystem untouched.
type Workspace struct {
	Root        string
	Source      string
	DisplayName string
	Temporary   bool
}

// Release removes a temporary clone directory recursively, tolerating
// partial or missing state. Local workspaces are left untouched.
func (workspace Workspace) Release() error {
	if !workspace.Temporary || workspace.Root == "" {
		return nil
	}
	return os.RemoveAll(workspace.Root)
}

// LooksLikeRemote reports whether the argument should be treated as a clone
// URL rather than a local directory. It recognizes the usual URL schemes and
// the scp-like user@host:path form.
func LooksLikeRemote(argument string) bool {
	trimmed := strings.TrimSpace(argument)
	for _, schemePrefix := range remoteSchemePrefixes {
		if strings.HasPrefix(trimmed, schemePrefix) {
			return true
		}
	}
	atIndex := strings.Index(trimmed, "@")
	colonIndex := strings.Index(trimmed, ":")
	if atIndex > 0 && colonIndex > atIndex && !strings.Contains(trimmed, "://") {
		return true
	}
	return false
}

// DeriveRepositoryName extracts the display name from a repository URL: the
// final slash-separated segment with a trailing .git suffix stripped. URLs
// without a usable segment fall back to FallbackRepositoryName.
func DeriveRepositoryName(repositoryURL string) string {
	trimmed := strings.TrimSpace(repositoryURL)
	trimmed = strings.TrimRight(trimmed, "/")
	separatorIndex := strings.LastIndex(trimmed, "/")
	if separatorIndex < 0 {
		return FallbackRepositoryName
	}
	segment := strings.TrimSuffix(trimmed[separatorIndex+1:], gitRepositorySuffix)
	if segment == "" {
		return FallbackRepositoryName
	}
	return segment
}

// Acquire prepares the workspace for the given source argument. Remote
// sources are cloned into a uniquely named temporary directory; local
// sources are validated and used in place. The caller must invoke Release
// on the returned workspace on every exit path.
func Acquire(ctx context.Context, source string, progress io.Writer) (Workspace, error) {
	if LooksLikeRemote(source) {
		return cloneRemote(ctx, source, progress)
	}
	return validateLocal(source)
}

// cloneRemote clones the repository into a fresh directory named from the
// current time. A failed clone removes whatever was created before the
// error is returned, so no half-cloned directory survives.
func cloneRemote(ctx context.Context, source string, progress io.Writer) (Workspace, error) {
	cloneDirectory := filepath.Join(os.TempDir(), fmt.Sprintf("%s%d", temporaryDirectoryPrefix, time.Now().UnixNano()))
	if makeDirectoryError := os.MkdirAll(cloneDirectory, 0o755); makeDirectoryError != nil {
		return Workspace{}, fmt.Errorf(errorCreateTemporaryFormat, cloneDirectory, makeDirectoryError)
	}

	_, cloneError := git.PlainCloneContext(ctx, cloneDirectory, false, &git.CloneOptions{
		URL:      source,
		Progress: progress,
	})
	if cloneError != nil {
		_ = os.RemoveAll(cloneDirectory)
		return Workspace{}, fmt.Errorf(errorCloneFormat, source, cloneError)
	}

	return Workspace{
		Root:        cloneDirectory,
		Source:      source,
		DisplayName: DeriveRepositoryName(source),
		Temporary:   true,
	}, nil
}

// validateLocal resolves a local directory argument into a workspace rooted
// at its absolute path, named after its basename.
func validateLocal(source string) (Workspace, error) {
	absolutePath, absolutePathError := filepath.Abs(source)
	if absolutePathError != nil {
		return Workspace{}, fmt.Errorf(errorResolvePathFormat, source, absolutePathError)
	}
	cleanPath := filepath.Clean(absolutePath)
	info, statError := os.Stat(cleanPath)
	if statError != nil {
		if os.IsNotExist(statError) {
			return Workspace{}, fmt.Errorf(errorPathMissingFormat, source)
		}
		return Workspace{}, fmt.Errorf(errorStatPathFormat, source, statError)
	}
	if !info.IsDir() {
		return Workspace{}, fmt.Errorf(errorNotDirectoryFormat, source)
	}
	return Workspace{
		Root:        cleanPath,
		Source:      source,
		DisplayName: filepath.Base(cleanPath),
		Temporary:   false,
	}, nil
}
