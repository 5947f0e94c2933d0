package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	errorListDirectoryFormat = "list directory %s: %w"
	errorStatEntryFormat     = "stat %s: %w"
	errorReadFileFormat      = "read file %s: %w"

	relativePathSeparator = "/"
)

// WalkOptions configures one repository traversal.
type WalkOptions struct {
	// Root is the absolute workspace directory to walk.
	Root string
	// DisplayName names the synthesized root node and prefixes record paths.
	DisplayName string
	// Rules controls inclusion, exclusion, and the allow-list variant.
	Rules Rules
	// CaptureContent toggles reading of qualifying file contents; the tree
	// command walks with capture disabled.
	CaptureContent bool
}

// WalkResult carries the tree and the ordered content records produced by a
// single traversal.
type WalkResult struct {
	Tree  *types.TreeNode
	Files []types.FileRecord
}

type repositoryWalker struct {
	options WalkOptions
	files   []types.FileRecord
}

// WalkRepository traverses the workspace exactly once, producing the
// filtered tree and the content records in the same pass. Within every
// directory, subdirectories precede files and each group is ordered
// case-insensitively; the record order is the traversal order. Any listing,
// stat, or read failure aborts the whole walk.
func WalkRepository(options WalkOptions) (WalkResult, error) {
	rootNode := &types.TreeNode{
		Name:     options.DisplayName,
		Type:     types.NodeTypeDirectory,
		Children: []*types.TreeNode{},
	}
	walker := &repositoryWalker{options: options}
	if walkError := walker.walkDirectory(options.Root, "", rootNode); walkError != nil {
		return WalkResult{}, walkError
	}
	return WalkResult{Tree: rootNode, Files: walker.files}, nil
}

// walkDirectory fills parentNode with the children of directoryPath.
// relativePath is the slash-separated path of directoryPath below the
// workspace root, empty for the root itself.
func (walker *repositoryWalker) walkDirectory(directoryPath string, relativePath string, parentNode *types.TreeNode) error {
	entries, readDirectoryError := os.ReadDir(directoryPath)
	if readDirectoryError != nil {
		return fmt.Errorf(errorListDirectoryFormat, directoryPath, readDirectoryError)
	}
	sortDirEntries(entries)

	rules := walker.options.Rules
	for _, entry := range entries {
		entryName := entry.Name()
		childAbsolutePath := filepath.Join(directoryPath, entryName)
		childRelativePath := entryName
		if relativePath != "" {
			childRelativePath = relativePath + relativePathSeparator + entryName
		}

		if entry.IsDir() {
			if rules.ExcludesDirectory(entryName) || rules.IgnoresPath(childRelativePath) {
				continue
			}
			childNode := &types.TreeNode{
				Name:     entryName,
				Type:     types.NodeTypeDirectory,
				Children: []*types.TreeNode{},
			}
			if walkError := walker.walkDirectory(childAbsolutePath, childRelativePath, childNode); walkError != nil {
				return walkError
			}
			if rules.Filtered() && len(childNode.Children) == 0 {
				continue
			}
			parentNode.Children = append(parentNode.Children, childNode)
			continue
		}

		if rules.IgnoresPath(childRelativePath) {
			continue
		}
		if rules.IncludesInTree(entryName) {
			parentNode.Children = append(parentNode.Children, &types.TreeNode{
				Name: entryName,
				Type: types.NodeTypeFile,
			})
		}
		if !walker.options.CaptureContent || !rules.MergesContent(entryName) {
			continue
		}

		entryInfo, entryInfoError := entry.Info()
		if entryInfoError != nil {
			return fmt.Errorf(errorStatEntryFormat, childAbsolutePath, entryInfoError)
		}
		content, readFileError := os.ReadFile(childAbsolutePath)
		if readFileError != nil {
			return fmt.Errorf(errorReadFileFormat, childAbsolutePath, readFileError)
		}
		walker.files = append(walker.files, types.FileRecord{
			Path:      walker.options.DisplayName + relativePathSeparator + childRelativePath,
			Content:   string(content),
			SizeBytes: entryInfo.Size(),
		})
	}
	return nil
}

// sortDirEntries orders directories before files; within each group, names
// compare case-insensitively with byte order as the tiebreak.
func sortDirEntries(entries []os.DirEntry) {
	sort.SliceStable(entries, func(firstIndex, secondIndex int) bool {
		first, second := entries[firstIndex], entries[secondIndex]
		if first.IsDir() != second.IsDir() {
			return first.IsDir()
		}
		firstName := strings.ToLower(first.Name())
		secondName := strings.ToLower(second.Name())
		if firstName == secondName {
			return first.Name() < second.Name()
		}
		return firstName < secondName
	})
}
