// Package commands implements the bundle and tree engines: workspace
// traversal, content merging, and document assembly.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/temirov/repoctx/internal/output"
	"github.com/temirov/repoctx/internal/repository"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

// Stage sentinels classify pipeline failures. Every error returned by Run
// wraps exactly one of them, so callers dispatch with errors.Is.
var (
	// ErrClone marks failures while obtaining the repository working copy.
	ErrClone = errors.New("clone repository")
	// ErrTraversal marks failures while walking or reading the working copy.
	ErrTraversal = errors.New("traverse repository")
	// ErrWrite marks failures while rendering or writing the merged document.
	ErrWrite = errors.New("write bundle")
)

const (
	generatedAtLayout = time.RFC3339

	errorUnsupportedFormatFormat = "unsupported output format %q"
	warningTokenCountFormat      = "token count failed for %s: %v"
	warningReleaseFormat         = "remove temporary clone: %v"

	outputFileMode = 0o644
)

// BundleOptions configures one bundle or tree run.
type BundleOptions struct {
	// Source is the repository URL or local directory argument as given.
	Source string
	// Output is the file the rendered document is written to.
	Output string
	// Format selects raw, json, or xml rendering.
	Format string
	// SkipWrite renders the document without touching the output path; the
	// stdout flag and the command server use it.
	SkipWrite bool

	ExcludedDirectories []string
	ExcludedFiles       []string
	AllowedExtensions   []string

	// IgnoreLoader, when set, supplies extra ignore patterns read from the
	// acquired workspace root (e.g. its .gitignore).
	IgnoreLoader func(workspaceRoot string) ([]string, error)

	// TokenCounter enables token accounting for merged records when set.
	TokenCounter tokenizer.Counter
	TokenModel   string

	// CloneProgress receives transfer output from the clone operation.
	CloneProgress io.Writer
	// Warn receives non-fatal diagnostics; nil discards them.
	Warn func(message string)
}

// Result carries the manifest and the rendered document produced by one run.
type Result struct {
	Manifest types.BundleManifest
	Document string
}

// Run executes the full pipeline: acquire the workspace, walk it once,
// assemble the manifest, render the document, and write it to the output
// path in a single operation. The temporary clone directory is released on
// every exit path. No partial output reaches disk: the write happens only
// after the whole traversal has succeeded.
func Run(ctx context.Context, options BundleOptions) (Result, error) {
	warn := options.Warn
	if warn == nil {
		warn = func(string) {}
	}

	workspace, acquireError := repository.Acquire(ctx, options.Source, options.CloneProgress)
	if acquireError != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrClone, acquireError)
	}
	defer releaseWorkspace(workspace, warn)

	manifest, buildError := buildManifest(workspace, options, true, warn)
	if buildError != nil {
		return Result{}, buildError
	}

	document, renderError := renderDocument(manifest, options.Format)
	if renderError != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrWrite, renderError)
	}

	if !options.SkipWrite {
		if writeError := os.WriteFile(options.Output, []byte(document), outputFileMode); writeError != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrWrite, writeError)
		}
	}

	return Result{Manifest: manifest, Document: document}, nil
}

// CollectTree acquires the workspace and produces the manifest without
// merging any file contents. The tree command uses it.
func CollectTree(ctx context.Context, options BundleOptions) (types.BundleManifest, error) {
	warn := options.Warn
	if warn == nil {
		warn = func(string) {}
	}

	workspace, acquireError := repository.Acquire(ctx, options.Source, options.CloneProgress)
	if acquireError != nil {
		return types.BundleManifest{}, fmt.Errorf("%w: %v", ErrClone, acquireError)
	}
	defer releaseWorkspace(workspace, warn)

	return buildManifest(workspace, options, false, warn)
}

// releaseWorkspace removes a temporary clone on a best-effort basis; a
// removal failure is reported as a warning, never escalated.
func releaseWorkspace(workspace repository.Workspace, warn func(string)) {
	if releaseError := workspace.Release(); releaseError != nil {
		warn(fmt.Sprintf(warningReleaseFormat, releaseError))
	}
}

// buildManifest walks the acquired workspace and assembles the structured
// result shared by the bundle and tree commands.
func buildManifest(workspace repository.Workspace, options BundleOptions, captureContent bool, warn func(string)) (types.BundleManifest, error) {
	var ignorePatterns []string
	if options.IgnoreLoader != nil {
		loadedPatterns, loadError := options.IgnoreLoader(workspace.Root)
		if loadError != nil {
			return types.BundleManifest{}, fmt.Errorf("%w: %v", ErrTraversal, loadError)
		}
		ignorePatterns = loadedPatterns
	}

	walkResult, walkError := WalkRepository(WalkOptions{
		Root:        workspace.Root,
		DisplayName: workspace.DisplayName,
		Rules: NewRules(
			options.ExcludedDirectories,
			options.ExcludedFiles,
			options.AllowedExtensions,
			ignorePatterns,
		),
		CaptureContent: captureContent,
	})
	if walkError != nil {
		return types.BundleManifest{}, fmt.Errorf("%w: %v", ErrTraversal, walkError)
	}

	summary := types.BundleSummary{}
	for recordIndex := range walkResult.Files {
		record := &walkResult.Files[recordIndex]
		record.Size = utils.FormatFileSize(record.SizeBytes)
		record.MimeType = utils.DetectMimeType([]byte(record.Content))
		summary.TotalFiles++
		summary.TotalBytes += record.SizeBytes

		if options.TokenCounter == nil {
			continue
		}
		countResult, countError := tokenizer.CountBytes(options.TokenCounter, []byte(record.Content))
		if countError != nil {
			warn(fmt.Sprintf(warningTokenCountFormat, record.Path, countError))
			continue
		}
		if countResult.Counted {
			record.Tokens = countResult.Tokens
			summary.TotalTokens += countResult.Tokens
		}
	}
	summary.TotalSize = utils.FormatFileSize(summary.TotalBytes)
	if options.TokenCounter != nil {
		summary.Model = options.TokenModel
	}

	return types.BundleManifest{
		Source:      workspace.Source,
		Repository:  workspace.DisplayName,
		GeneratedAt: time.Now().UTC().Format(generatedAtLayout),
		Tree:        walkResult.Tree,
		Files:       walkResult.Files,
		Summary:     summary,
	}, nil
}

// renderDocument produces the final artifact for the requested format.
func renderDocument(manifest types.BundleManifest, format string) (string, error) {
	switch format {
	case types.FormatRaw, utils.EmptyString:
		return output.ComposeDocument(manifest), nil
	case types.FormatJSON:
		return output.RenderManifestJSON(manifest)
	case types.FormatXML:
		return output.RenderManifestXML(manifest)
	default:
		return utils.EmptyString, fmt.Errorf(errorUnsupportedFormatFormat, format)
	}
}
