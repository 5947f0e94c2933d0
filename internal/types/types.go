// Package types defines every cross-package data structure used by the repoctx CLI.
package types

import "encoding/xml"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	CommandBundle = "bundle"
	CommandTree   = "tree"

	FormatRaw  = "raw"
	FormatJSON = "json"
	FormatXML  = "xml"
)

// TreeNode represents one entry of a repository tree. Leaf nodes never carry
// children; directory nodes always do, even when the sequence is empty.
type TreeNode struct {
	XMLName  xml.Name    `json:"-" xml:"node"`
	Name     string      `json:"name" xml:"name"`
	Type     string      `json:"type" xml:"type"`
	Children []*TreeNode `json:"children,omitempty" xml:"children>node,omitempty"`
}

// IsDirectory reports whether the node represents a directory.
func (node *TreeNode) IsDirectory() bool {
	return node != nil && node.Type == NodeTypeDirectory
}

// FileRecord is one merged file of a bundle, in traversal order. Path is
// rooted at the repository display name and uses forward slashes.
type FileRecord struct {
	Path      string `json:"path" xml:"path"`
	Content   string `json:"content" xml:"content"`
	Size      string `json:"size,omitempty" xml:"size,omitempty"`
	SizeBytes int64  `json:"-" xml:"-"`
	MimeType  string `json:"mimeType,omitempty" xml:"mimeType,omitempty"`
	Tokens    int    `json:"tokens,omitempty" xml:"tokens,omitempty"`
}

// BundleSummary captures aggregate information about one bundle run.
type BundleSummary struct {
	TotalFiles  int    `json:"totalFiles" xml:"totalFiles"`
	TotalSize   string `json:"totalSize" xml:"totalSize"`
	TotalBytes  int64  `json:"-" xml:"-"`
	TotalTokens int    `json:"totalTokens,omitempty" xml:"totalTokens,omitempty"`
	Model       string `json:"model,omitempty" xml:"model,omitempty"`
}

// BundleManifest is the structured result of one bundle run. The raw format
// renders it as the merged document; json and xml marshal it directly.
type BundleManifest struct {
	XMLName     xml.Name      `json:"-" xml:"bundle"`
	Source      string        `json:"source" xml:"source"`
	Repository  string        `json:"repository" xml:"repository"`
	GeneratedAt string        `json:"generatedAt" xml:"generatedAt"`
	Tree        *TreeNode     `json:"tree" xml:"tree>node"`
	Files       []FileRecord  `json:"files" xml:"files>file"`
	Summary     BundleSummary `json:"summary" xml:"summary"`
}
