package output

import (
	"fmt"
	"strings"

	"github.com/temirov/repoctx/internal/types"
)

const (
	documentSourcePrefix     = "# Repository: "
	documentGeneratedPrefix  = "# Generated: "
	documentCommentBar       = "#"
	documentCommentPrefix    = "# "
	documentFileHeaderPrefix = "# File: "
	documentLineBreak        = "\n"

	summaryLineFormat       = "%d files, %s"
	summaryTokensPartFormat = ", %d tokens (%s)"
)

// ComposeDocument renders the raw merged document: a commented preamble with
// the source and generation timestamp, the tree diagram as a comment block,
// and every merged file's content preceded by its path header. Contents are
// reproduced byte for byte; a line break is appended only when the content
// does not already end with one.
func ComposeDocument(manifest types.BundleManifest) string {
	builder := &strings.Builder{}

	builder.WriteString(documentSourcePrefix)
	builder.WriteString(manifest.Source)
	builder.WriteString(documentLineBreak)
	builder.WriteString(documentGeneratedPrefix)
	builder.WriteString(manifest.GeneratedAt)
	builder.WriteString(documentLineBreak)
	builder.WriteString(documentCommentBar)
	builder.WriteString(documentLineBreak)

	treeDiagram := RenderTree(manifest.Tree)
	for _, treeLine := range strings.Split(strings.TrimRight(treeDiagram, documentLineBreak), documentLineBreak) {
		builder.WriteString(documentCommentPrefix)
		builder.WriteString(treeLine)
		builder.WriteString(documentLineBreak)
	}

	for _, record := range manifest.Files {
		builder.WriteString(documentLineBreak)
		builder.WriteString(documentFileHeaderPrefix)
		builder.WriteString(record.Path)
		builder.WriteString(documentLineBreak)
		builder.WriteString(documentLineBreak)
		builder.WriteString(record.Content)
		if !strings.HasSuffix(record.Content, documentLineBreak) {
			builder.WriteString(documentLineBreak)
		}
	}

	return builder.String()
}

// FormatSummaryLine renders the bundle totals as a single human-readable
// line: file count, merged size, and token totals when counting ran.
func FormatSummaryLine(summary types.BundleSummary) string {
	line := fmt.Sprintf(summaryLineFormat, summary.TotalFiles, summary.TotalSize)
	if summary.Model != "" {
		line += fmt.Sprintf(summaryTokensPartFormat, summary.TotalTokens, summary.Model)
	}
	return line
}
