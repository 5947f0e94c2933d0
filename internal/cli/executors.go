package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/temirov/repoctx/internal/commands"
	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/services/mcp"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	commandPathPrefix           = "/commands/"
	bundleCapabilityDescription = "merge a repository into one document"
	treeCapabilityDescription   = "render a repository directory tree"
	errorSourceRequired         = "source is required"
)

// serveCommandRequest holds the JSON payload accepted by the bundle and tree
// command endpoints.
type serveCommandRequest struct {
	Source              string              `json:"source"`
	Extensions          []string            `json:"extensions"`
	ExcludedDirectories []string            `json:"excludedDirectories"`
	ExcludedFiles       []string            `json:"excludedFiles"`
	UseGitignore        *bool               `json:"useGitignore"`
	Format              string              `json:"format"`
	Tokens              *serveTokensRequest `json:"tokens"`
}

type serveTokensRequest struct {
	Enabled *bool  `json:"enabled"`
	Model   string `json:"model"`
}

type serveExecutionParameters struct {
	options commands.BundleOptions
	format  string
}

func serveCapabilities() []mcp.Capability {
	return []mcp.Capability{
		{Name: types.CommandBundle, Description: bundleCapabilityDescription, Path: commandPathPrefix + types.CommandBundle},
		{Name: types.CommandTree, Description: treeCapabilityDescription, Path: commandPathPrefix + types.CommandTree},
	}
}

func serveCommandExecutors() map[string]mcp.CommandExecutor {
	return map[string]mcp.CommandExecutor{
		types.CommandBundle: mcp.CommandExecutorFunc(executeBundleServeCommand),
		types.CommandTree:   mcp.CommandExecutorFunc(executeTreeServeCommand),
	}
}

func executeBundleServeCommand(commandContext context.Context, request mcp.CommandRequest) (mcp.CommandResponse, error) {
	parameters, parseErr := parseServeRequest(request.Payload, true)
	if parseErr != nil {
		return mcp.CommandResponse{}, mcp.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode bundle request: %w", parseErr))
	}
	var warnings []string
	parameters.options.Warn = func(message string) {
		warnings = append(warnings, message)
	}
	result, runErr := commands.Run(commandContext, parameters.options)
	if runErr != nil {
		return mcp.CommandResponse{}, mcp.NewCommandExecutionError(statusCodeForRunError(runErr), fmt.Errorf("execute bundle: %w", runErr))
	}
	return mcp.CommandResponse{
		Output:   result.Document,
		Format:   parameters.format,
		Warnings: warnings,
	}, nil
}

func executeTreeServeCommand(commandContext context.Context, request mcp.CommandRequest) (mcp.CommandResponse, error) {
	parameters, parseErr := parseServeRequest(request.Payload, false)
	if parseErr != nil {
		return mcp.CommandResponse{}, mcp.NewCommandExecutionError(http.StatusBadRequest, fmt.Errorf("decode tree request: %w", parseErr))
	}
	var warnings []string
	parameters.options.Warn = func(message string) {
		warnings = append(warnings, message)
	}
	manifest, collectErr := commands.CollectTree(commandContext, parameters.options)
	if collectErr != nil {
		return mcp.CommandResponse{}, mcp.NewCommandExecutionError(statusCodeForRunError(collectErr), fmt.Errorf("execute tree: %w", collectErr))
	}
	rendered, renderErr := renderTreeByFormat(manifest.Tree, parameters.format)
	if renderErr != nil {
		return mcp.CommandResponse{}, mcp.NewCommandExecutionError(http.StatusInternalServerError, fmt.Errorf("render tree: %w", renderErr))
	}
	return mcp.CommandResponse{
		Output:   rendered,
		Format:   parameters.format,
		Warnings: warnings,
	}, nil
}

func parseServeRequest(payload json.RawMessage, allowTokens bool) (serveExecutionParameters, error) {
	var requestBody serveCommandRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &requestBody); err != nil {
			return serveExecutionParameters{}, err
		}
	}
	source := strings.TrimSpace(requestBody.Source)
	if source == "" {
		return serveExecutionParameters{}, errors.New(errorSourceRequired)
	}
	format := strings.ToLower(strings.TrimSpace(requestBody.Format))
	if format == "" {
		format = types.FormatRaw
	}
	if !isSupportedFormat(format) {
		return serveExecutionParameters{}, fmt.Errorf(invalidFormatMessage, format)
	}

	bundleOptions := commands.BundleOptions{
		Source:              source,
		Format:              format,
		SkipWrite:           true,
		ExcludedDirectories: appendToDefaults(config.DefaultExcludedDirectories, requestBody.ExcludedDirectories),
		ExcludedFiles:       appendToDefaults(config.DefaultExcludedFiles, requestBody.ExcludedFiles),
		AllowedExtensions:   append([]string{}, requestBody.Extensions...),
	}
	if resolveBoolean(requestBody.UseGitignore, false) {
		bundleOptions.IgnoreLoader = config.LoadGitignorePatterns
	}

	if allowTokens && requestBody.Tokens != nil && resolveBoolean(requestBody.Tokens.Enabled, false) {
		counter, effectiveModel, counterErr := tokenizer.NewCounter(tokenizer.Config{Model: requestBody.Tokens.Model})
		if counterErr != nil {
			return serveExecutionParameters{}, counterErr
		}
		bundleOptions.TokenCounter = counter
		bundleOptions.TokenModel = effectiveModel
	}

	return serveExecutionParameters{options: bundleOptions, format: format}, nil
}

// statusCodeForRunError maps pipeline failures to HTTP status codes: an
// unreachable or invalid upstream repository is a bad gateway, everything
// else is a server error.
func statusCodeForRunError(err error) int {
	if errors.Is(err, commands.ErrClone) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func appendToDefaults(defaults []string, additional []string) []string {
	combined := append(append([]string{}, defaults...), additional...)
	return utils.DeduplicatePatterns(combined)
}

func resolveBoolean(value *bool, defaultValue bool) bool {
	if value == nil {
		return defaultValue
	}
	return *value
}
