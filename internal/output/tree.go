// Package output renders bundle manifests: the tree diagram, the raw merged
// document, and the JSON and XML encodings.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "
	treeRootSuffix      = "/"
	treeLineBreak       = "\n"
)

// RenderTree renders the node hierarchy as a connector diagram and returns
// it as a string. The root is printed with a trailing path separator and
// every descendant contributes exactly one line.
func RenderTree(rootNode *types.TreeNode) string {
	builder := &strings.Builder{}
	WriteTree(builder, rootNode)
	return builder.String()
}

// WriteTree streams the connector diagram for the node hierarchy to the
// writer.
func WriteTree(writer io.Writer, rootNode *types.TreeNode) {
	renderTreeNode(writer, rootNode, "", true, true)
}

func renderTreeNode(writer io.Writer, node *types.TreeNode, prefix string, isRoot bool, isLast bool) {
	if isRoot {
		fmt.Fprintf(writer, "%s%s%s", node.Name, treeRootSuffix, treeLineBreak)
	} else {
		connector := treeBranchConnector
		if isLast {
			connector = treeLastConnector
		}
		fmt.Fprintf(writer, "%s%s%s%s", prefix, connector, node.Name, treeLineBreak)
	}

	childPrefix := treeNodeLinePrefix(prefix, isRoot, isLast)
	for childIndex, childNode := range node.Children {
		renderTreeNode(writer, childNode, childPrefix, false, childIndex == len(node.Children)-1)
	}
}

// treeNodeLinePrefix computes the prefix inherited by the children of the
// node rendered with the given placement.
func treeNodeLinePrefix(prefix string, isRoot bool, isLast bool) string {
	if isRoot {
		return prefix
	}
	if isLast {
		return prefix + treeLastPadding
	}
	return prefix + treeBranchPadding
}
