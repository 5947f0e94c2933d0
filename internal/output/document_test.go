package output_test

import (
	"testing"

	"github.com/temirov/repoctx/internal/output"
	"github.com/temirov/repoctx/internal/types"
)

// sampleSource defines the repository argument recorded in the sample
// manifest.
const sampleSource = "https://example.com/demo.git"

// sampleGeneratedAt defines the fixed generation timestamp of the sample
// manifest.
const sampleGeneratedAt = "2024-01-02T03:04:05Z"

// documentExpected defines the full raw document for the sample manifest:
// the commented preamble, the commented tree block, and both file sections.
// The second file's content carries no trailing line break, so the composer
// appends one.
const documentExpected = "# Repository: " + sampleSource + "\n" +
	"# Generated: " + sampleGeneratedAt + "\n" +
	"#\n" +
	"# demo/\n" +
	"# ├── main.go\n" +
	"# └── README.md\n" +
	"\n" +
	"# File: demo/main.go\n" +
	"\n" +
	"package main\n" +
	"\n" +
	"# File: demo/README.md\n" +
	"\n" +
	"# demo\n"

func sampleManifest() types.BundleManifest {
	return types.BundleManifest{
		Source:      sampleSource,
		Repository:  "demo",
		GeneratedAt: sampleGeneratedAt,
		Tree: directoryNode("demo",
			fileNode("main.go"),
			fileNode("README.md"),
		),
		Files: []types.FileRecord{
			{Path: "demo/main.go", Content: "package main\n"},
			{Path: "demo/README.md", Content: "# demo"},
		},
		Summary: types.BundleSummary{TotalFiles: 2, TotalSize: "19b"},
	}
}

// TestComposeDocument verifies the raw document rendering of a manifest.
func TestComposeDocument(testingInstance *testing.T) {
	actualDocument := output.ComposeDocument(sampleManifest())
	if actualDocument != documentExpected {
		testingInstance.Errorf("unexpected document:\n%s", actualDocument)
	}
}

// TestFormatSummaryLine verifies the human-readable totals line with and
// without token accounting.
func TestFormatSummaryLine(testingInstance *testing.T) {
	testCases := []struct {
		name     string
		summary  types.BundleSummary
		expected string
	}{
		{
			name:     "without_tokens",
			summary:  types.BundleSummary{TotalFiles: 2, TotalSize: "19b"},
			expected: "2 files, 19b",
		},
		{
			name:     "with_tokens",
			summary:  types.BundleSummary{TotalFiles: 2, TotalSize: "19b", TotalTokens: 19, Model: "gpt-4o"},
			expected: "2 files, 19b, 19 tokens (gpt-4o)",
		},
	}

	for _, testCase := range testCases {
		testingInstance.Run(testCase.name, func(subtestInstance *testing.T) {
			actualLine := output.FormatSummaryLine(testCase.summary)
			if actualLine != testCase.expected {
				subtestInstance.Errorf("expected %q, got %q", testCase.expected, actualLine)
			}
		})
	}
}
