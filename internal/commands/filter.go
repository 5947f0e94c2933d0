package commands

import (
	"path/filepath"
	"strings"

	"github.com/temirov/repoctx/internal/utils"
)

const extensionSeparator = "."

// textFileExtensions is the built-in set of extensions merged when no
// allow-list is configured (the unfiltered variant). Tree building is not
// restricted by this set.
var textFileExtensions = map[string]struct{}{
	".bash":       {},
	".c":          {},
	".cfg":        {},
	".conf":       {},
	".cpp":        {},
	".cs":         {},
	".css":        {},
	".csv":        {},
	".dockerfile": {},
	".go":         {},
	".gradle":     {},
	".h":          {},
	".hpp":        {},
	".html":       {},
	".ini":        {},
	".java":       {},
	".js":         {},
	".json":       {},
	".jsx":        {},
	".kt":         {},
	".lua":        {},
	".md":         {},
	".php":        {},
	".proto":      {},
	".py":         {},
	".rb":         {},
	".rs":         {},
	".scala":      {},
	".sh":         {},
	".sql":        {},
	".swift":      {},
	".toml":       {},
	".ts":         {},
	".tsx":        {},
	".txt":        {},
	".xml":        {},
	".yaml":       {},
	".yml":        {},
	".zsh":        {},
}

// Rules captures the inclusion and exclusion configuration applied during a
// traversal. Directory and file exclusion match exact basenames; the
// extension allow-list matches case-insensitively. An empty allow-list
// selects the unfiltered variant: every file appears in the tree and only
// built-in text extensions are merged.
type Rules struct {
	excludedDirectories map[string]struct{}
	excludedFiles       map[string]struct{}
	allowedExtensions   map[string]struct{}
	ignorePatterns      []string
}

// NewRules assembles traversal rules from raw configuration values. Allowed
// extensions are normalized; excluded names are used verbatim.
func NewRules(excludedDirectories []string, excludedFiles []string, allowedExtensions []string, ignorePatterns []string) Rules {
	rules := Rules{
		excludedDirectories: make(map[string]struct{}, len(excludedDirectories)),
		excludedFiles:       make(map[string]struct{}, len(excludedFiles)),
		ignorePatterns:      utils.DeduplicatePatterns(ignorePatterns),
	}
	for _, directoryName := range excludedDirectories {
		rules.excludedDirectories[directoryName] = struct{}{}
	}
	for _, fileName := range excludedFiles {
		rules.excludedFiles[fileName] = struct{}{}
	}
	if len(allowedExtensions) > 0 {
		rules.allowedExtensions = make(map[string]struct{}, len(allowedExtensions))
		for _, extension := range allowedExtensions {
			normalized := NormalizeExtension(extension)
			if normalized == utils.EmptyString {
				continue
			}
			rules.allowedExtensions[normalized] = struct{}{}
		}
	}
	return rules
}

// NormalizeExtension lower-cases an extension value and guarantees a leading
// dot, so "MD", ".md" and "md" all refer to the same allow-list entry.
func NormalizeExtension(extension string) string {
	trimmed := strings.ToLower(strings.TrimSpace(extension))
	if trimmed == utils.EmptyString || trimmed == extensionSeparator {
		return utils.EmptyString
	}
	if !strings.HasPrefix(trimmed, extensionSeparator) {
		trimmed = extensionSeparator + trimmed
	}
	return trimmed
}

// Filtered reports whether an extension allow-list is in effect.
func (rules Rules) Filtered() bool {
	return len(rules.allowedExtensions) > 0
}

// ExcludesDirectory reports whether a directory basename is excluded from
// traversal entirely.
func (rules Rules) ExcludesDirectory(directoryName string) bool {
	_, excluded := rules.excludedDirectories[directoryName]
	return excluded
}

// ExcludesFile reports whether a file basename is excluded from content
// merging. Tree building never consults this set.
func (rules Rules) ExcludesFile(fileName string) bool {
	_, excluded := rules.excludedFiles[fileName]
	return excluded
}

// AllowsExtension reports whether the file's extension is a member of the
// configured allow-list.
func (rules Rules) AllowsExtension(fileName string) bool {
	extension := strings.ToLower(filepath.Ext(fileName))
	_, allowed := rules.allowedExtensions[extension]
	return allowed
}

// IncludesInTree reports whether a file becomes a tree leaf: every file in
// the unfiltered variant, allow-listed extensions in the filtered variant.
func (rules Rules) IncludesInTree(fileName string) bool {
	if !rules.Filtered() {
		return true
	}
	return rules.AllowsExtension(fileName)
}

// MergesContent reports whether a file's content is captured for the merged
// document.
func (rules Rules) MergesContent(fileName string) bool {
	if rules.ExcludesFile(fileName) {
		return false
	}
	if rules.Filtered() {
		return rules.AllowsExtension(fileName)
	}
	extension := strings.ToLower(filepath.Ext(fileName))
	_, known := textFileExtensions[extension]
	return known
}

// IgnoresPath reports whether a workspace-relative path matches one of the
// optional ignore-file patterns.
func (rules Rules) IgnoresPath(relativePath string) bool {
	return utils.MatchesAnyPattern(relativePath, rules.ignorePatterns)
}
