package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/temirov/repoctx/internal/types"
)

const stubCounterName = "stub"

type stubCounter struct {
	countErr error
}

func (counter stubCounter) Name() string {
	return stubCounterName
}

func (counter stubCounter) CountString(input string) (int, error) {
	if counter.countErr != nil {
		return 0, counter.countErr
	}
	return len(input), nil
}

func newBundleFixture(t *testing.T) string {
	t.Helper()
	rootDirectory := filepath.Join(t.TempDir(), "demo")
	if err := os.MkdirAll(rootDirectory, 0o755); err != nil {
		t.Fatalf("create fixture root: %v", err)
	}
	writeFixtureFile(t, rootDirectory, "main.go", "package main\n")
	writeFixtureFile(t, rootDirectory, "README.md", "# demo")
	return rootDirectory
}

func TestRunComposesRawDocument(t *testing.T) {
	t.Parallel()

	sourceDirectory := newBundleFixture(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")

	result, runErr := Run(context.Background(), BundleOptions{
		Source: sourceDirectory,
		Output: outputPath,
		Format: types.FormatRaw,
	})
	if runErr != nil {
		t.Fatalf("run bundle: %v", runErr)
	}

	manifest := result.Manifest
	if manifest.Source != sourceDirectory {
		t.Fatalf("unexpected manifest source %s", manifest.Source)
	}
	if manifest.Repository != "demo" {
		t.Fatalf("unexpected repository name %s", manifest.Repository)
	}
	if _, parseErr := time.Parse(time.RFC3339, manifest.GeneratedAt); parseErr != nil {
		t.Fatalf("generated timestamp %q is not RFC 3339: %v", manifest.GeneratedAt, parseErr)
	}
	if manifest.Tree == nil || manifest.Tree.Name != "demo" {
		t.Fatalf("unexpected tree root %+v", manifest.Tree)
	}
	if len(manifest.Files) != 2 {
		t.Fatalf("expected two merged records, got %d", len(manifest.Files))
	}
	if manifest.Files[0].Path != "demo/main.go" || manifest.Files[1].Path != "demo/README.md" {
		t.Fatalf("unexpected record order %s, %s", manifest.Files[0].Path, manifest.Files[1].Path)
	}
	if manifest.Summary.TotalFiles != 2 {
		t.Fatalf("unexpected total files %d", manifest.Summary.TotalFiles)
	}
	if manifest.Summary.TotalSize != "19b" {
		t.Fatalf("unexpected total size %s", manifest.Summary.TotalSize)
	}
	if manifest.Summary.Model != "" {
		t.Fatalf("expected no model without a counter, got %s", manifest.Summary.Model)
	}

	document := result.Document
	if !strings.HasPrefix(document, "# Repository: "+sourceDirectory+"\n# Generated: ") {
		t.Fatalf("unexpected document preamble:\n%s", document)
	}
	if !strings.Contains(document, "\n# File: demo/main.go\n\npackage main\n") {
		t.Fatalf("main.go content missing from document:\n%s", document)
	}
	if !strings.HasSuffix(document, "\n# File: demo/README.md\n\n# demo\n") {
		t.Fatalf("expected trailing line break after unterminated content:\n%s", document)
	}

	written, readErr := os.ReadFile(outputPath)
	if readErr != nil {
		t.Fatalf("read output file: %v", readErr)
	}
	if string(written) != document {
		t.Fatalf("output file differs from rendered document")
	}
}

func TestRunIsDeterministicApartFromTimestamp(t *testing.T) {
	t.Parallel()

	sourceDirectory := newBundleFixture(t)
	options := BundleOptions{Source: sourceDirectory, SkipWrite: true}

	firstResult, firstErr := Run(context.Background(), options)
	if firstErr != nil {
		t.Fatalf("first run: %v", firstErr)
	}
	secondResult, secondErr := Run(context.Background(), options)
	if secondErr != nil {
		t.Fatalf("second run: %v", secondErr)
	}

	if stripGeneratedLine(firstResult.Document) != stripGeneratedLine(secondResult.Document) {
		t.Fatalf("documents differ beyond the generation timestamp")
	}
}

func stripGeneratedLine(document string) string {
	lines := strings.Split(document, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "# Generated: ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func TestRunSkipWriteLeavesOutputUntouched(t *testing.T) {
	t.Parallel()

	sourceDirectory := newBundleFixture(t)
	outputPath := filepath.Join(t.TempDir(), "context.md")

	if _, runErr := Run(context.Background(), BundleOptions{
		Source:    sourceDirectory,
		Output:    outputPath,
		SkipWrite: true,
	}); runErr != nil {
		t.Fatalf("run bundle: %v", runErr)
	}

	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat returned %v", statErr)
	}
}

func TestRunWrapsCloneFailures(t *testing.T) {
	t.Parallel()

	_, runErr := Run(context.Background(), BundleOptions{
		Source: filepath.Join(t.TempDir(), "missing"),
		Output: filepath.Join(t.TempDir(), "context.md"),
	})
	if !errors.Is(runErr, ErrClone) {
		t.Fatalf("expected clone stage error, got %v", runErr)
	}
}

func TestRunWrapsIgnoreLoaderFailures(t *testing.T) {
	t.Parallel()

	_, runErr := Run(context.Background(), BundleOptions{
		Source:    newBundleFixture(t),
		SkipWrite: true,
		IgnoreLoader: func(string) ([]string, error) {
			return nil, errors.New("unreadable ignore file")
		},
	})
	if !errors.Is(runErr, ErrTraversal) {
		t.Fatalf("expected traversal stage error, got %v", runErr)
	}
}

func TestRunWrapsWriteFailures(t *testing.T) {
	t.Parallel()

	_, runErr := Run(context.Background(), BundleOptions{
		Source: newBundleFixture(t),
		Output: filepath.Join(t.TempDir(), "missing", "context.md"),
	})
	if !errors.Is(runErr, ErrWrite) {
		t.Fatalf("expected write stage error, got %v", runErr)
	}
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, runErr := Run(context.Background(), BundleOptions{
		Source:    newBundleFixture(t),
		SkipWrite: true,
		Format:    "toml",
	})
	if !errors.Is(runErr, ErrWrite) {
		t.Fatalf("expected write stage error, got %v", runErr)
	}
	if !strings.Contains(runErr.Error(), "unsupported output format") {
		t.Fatalf("unexpected error message %v", runErr)
	}
}

func TestRunCountsTokensWithCounter(t *testing.T) {
	t.Parallel()

	sourceDirectory := newBundleFixture(t)
	writeFixtureFile(t, sourceDirectory, "blob.json", "\x00\x01\x02")

	result, runErr := Run(context.Background(), BundleOptions{
		Source:       sourceDirectory,
		SkipWrite:    true,
		TokenCounter: stubCounter{},
		TokenModel:   "stub-model",
	})
	if runErr != nil {
		t.Fatalf("run bundle: %v", runErr)
	}

	manifest := result.Manifest
	if len(manifest.Files) != 3 {
		t.Fatalf("expected three merged records, got %d", len(manifest.Files))
	}
	if manifest.Files[0].Path != "demo/blob.json" || manifest.Files[0].Tokens != 0 {
		t.Fatalf("expected binary record to stay uncounted, got %+v", manifest.Files[0])
	}
	if manifest.Files[1].Path != "demo/main.go" || manifest.Files[1].Tokens != len("package main\n") {
		t.Fatalf("unexpected token count %+v", manifest.Files[1])
	}
	expectedTotal := len("package main\n") + len("# demo")
	if manifest.Summary.TotalTokens != expectedTotal {
		t.Fatalf("expected %d total tokens, got %d", expectedTotal, manifest.Summary.TotalTokens)
	}
	if manifest.Summary.Model != "stub-model" {
		t.Fatalf("unexpected summary model %s", manifest.Summary.Model)
	}
}

func TestRunCollectsCounterWarnings(t *testing.T) {
	t.Parallel()

	var warnings []string
	result, runErr := Run(context.Background(), BundleOptions{
		Source:       newBundleFixture(t),
		SkipWrite:    true,
		TokenCounter: stubCounter{countErr: errors.New("encoder unavailable")},
		TokenModel:   "stub-model",
		Warn: func(message string) {
			warnings = append(warnings, message)
		},
	})
	if runErr != nil {
		t.Fatalf("run bundle: %v", runErr)
	}

	if len(warnings) != 2 {
		t.Fatalf("expected a warning per merged record, got %v", warnings)
	}
	if !strings.Contains(warnings[0], "token count failed") {
		t.Fatalf("unexpected warning %s", warnings[0])
	}
	if result.Manifest.Summary.TotalTokens != 0 {
		t.Fatalf("expected no counted tokens, got %d", result.Manifest.Summary.TotalTokens)
	}
	if result.Manifest.Summary.Model != "stub-model" {
		t.Fatalf("expected model to be reported even when counting fails, got %s", result.Manifest.Summary.Model)
	}
}

func TestCollectTreeOmitsContents(t *testing.T) {
	t.Parallel()

	manifest, collectErr := CollectTree(context.Background(), BundleOptions{
		Source: newBundleFixture(t),
	})
	if collectErr != nil {
		t.Fatalf("collect tree: %v", collectErr)
	}

	if manifest.Tree == nil || len(manifest.Tree.Children) != 2 {
		t.Fatalf("unexpected tree %+v", manifest.Tree)
	}
	if len(manifest.Files) != 0 {
		t.Fatalf("expected no merged records, got %d", len(manifest.Files))
	}
	if manifest.Summary.TotalFiles != 0 {
		t.Fatalf("expected zero total files, got %d", manifest.Summary.TotalFiles)
	}
}
