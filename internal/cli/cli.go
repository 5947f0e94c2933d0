// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/temirov/repoctx/internal/commands"
	"github.com/temirov/repoctx/internal/config"
	"github.com/temirov/repoctx/internal/output"
	"github.com/temirov/repoctx/internal/services/clipboard"
	"github.com/temirov/repoctx/internal/services/mcp"
	"github.com/temirov/repoctx/internal/tokenizer"
	"github.com/temirov/repoctx/internal/types"
	"github.com/temirov/repoctx/internal/utils"
)

const (
	outputFlagName          = "output"
	outputFlagShorthand     = "o"
	formatFlagName          = "format"
	formatFlagShorthand     = "f"
	extensionsFlagName      = "extensions"
	extensionsFlagShorthand = "e"
	excludeDirFlagName      = "exclude-dir"
	excludeFileFlagName     = "exclude-file"
	useGitignoreFlagName    = "use-gitignore"
	copyFlagName            = "copy"
	copyFlagShorthand       = "c"
	tokensFlagName          = "tokens"
	tokensFlagShorthand     = "t"
	modelFlagName           = "model"
	stdoutFlagName          = "stdout"
	addressFlagName         = "address"
	globalFlagName          = "global"
	forceFlagName           = "force"

	outputFlagDescription       = "output file path"
	formatFlagDescription       = "output format"
	extensionsFlagDescription   = "only merge files with these extensions"
	excludeDirFlagDescription   = "additional directory basename to exclude"
	excludeFileFlagDescription  = "additional file basename to exclude from merging"
	useGitignoreFlagDescription = "apply root .gitignore patterns to the traversal"
	copyFlagDescription         = "copy the rendered document to the clipboard"
	tokensFlagDescription       = "include token counts"
	modelFlagDescription        = "tokenizer model to use for token counting"
	stdoutFlagDescription       = "print the document to stdout instead of writing a file"
	addressFlagDescription      = "listen address for the command server"
	globalFlagDescription       = "write the configuration to the global directory"
	forceFlagDescription        = "overwrite an existing configuration file"

	defaultTokenizerModelName = "gpt-4o"

	rootUse              = "repoctx"
	rootShortDescription = "repoctx command line interface"
	rootLongDescription  = `repoctx merges a repository into a single reviewable document.
It clones remote repositories, renders their directory tree, and concatenates
text file contents under one preamble. Use --format to select raw, json, or
xml output.`
	rootVersionTemplate = "repoctx version: {{.Version}}\n"

	bundleUse              = "bundle <repository>"
	bundleAlias            = "b"
	bundleShortDescription = "merge a repository into one document (" + bundleAlias + ")"
	bundleLongDescription  = `Clone or open the repository, walk its tree once, and write the tree
diagram plus every merged file into a single output document.`
	bundleUsageExample = `  # Bundle a remote repository into context.md
  repoctx bundle https://github.com/user/project.git

  # Only merge Go and Markdown files, print to stdout
  repoctx bundle -e go -e md --stdout .

  # Count tokens while bundling
  repoctx bundle --tokens --model gpt-4o git@github.com:user/project`

	treeUse              = "tree <repository>"
	treeAlias            = "t"
	treeShortDescription = "display the repository tree (" + treeAlias + ")"
	treeLongDescription  = `Clone or open the repository and render its directory tree without
merging any file contents.`
	treeUsageExample = `  # Render the tree of a remote repository
  repoctx tree https://github.com/user/project.git

  # Render the tree of the current directory as JSON
  repoctx tree --format json .`

	configUse              = "config"
	configShortDescription = "manage repoctx configuration"
	configInitUse          = "init"
	configInitShort        = "write a default configuration file"

	serveUse              = "serve"
	serveShortDescription = "serve repoctx commands over HTTP"
	serveLongDescription  = `Start an HTTP server that exposes the bundle and tree commands to
model-context clients. The bound address is printed once the listener is
active.`

	invalidFormatMessage         = "Invalid format value '%s'"
	warningMessageFormat         = "Warning: %s\n"
	configurationWrittenFormat   = "Configuration written to %s\n"
	documentWrittenMessageFormat = "Wrote %s: %s\n"
	documentCopiedMessageFormat  = "Copied document to clipboard: %s\n"
	serverListeningMessageFormat = "command server listening on %s\n"
	errorCopyDocumentFormat      = "copy document to clipboard: %w"
	errorInitializeCounterFormat = "initialize token counter: %w"
	errorLoadConfigurationFormat = "load configuration: %w"
)

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return true
	default:
		return false
	}
}

// Execute runs the repoctx application.
func Execute() error {
	rootCommand := createRootCommand()
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Version:      utils.GetApplicationVersion(),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetVersionTemplate(rootVersionTemplate)
	rootCommand.AddCommand(
		createBundleCommand(),
		createTreeCommand(),
		createConfigCommand(),
		createServeCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// pathOptions stores configuration for traversal-related flags.
type pathOptions struct {
	extensions          []string
	excludedDirectories []string
	excludedFiles       []string
	useGitignore        bool
}

// addPathFlags registers traversal-related flags on the command. Extensions
// accept both repeated flags and comma-separated values; exclusion names are
// taken verbatim, one per flag.
func addPathFlags(command *cobra.Command, options *pathOptions) {
	command.Flags().StringSliceVarP(&options.extensions, extensionsFlagName, extensionsFlagShorthand, nil, extensionsFlagDescription)
	command.Flags().StringArrayVar(&options.excludedDirectories, excludeDirFlagName, nil, excludeDirFlagDescription)
	command.Flags().StringArrayVar(&options.excludedFiles, excludeFileFlagName, nil, excludeFileFlagDescription)
	registerBooleanFlag(command.Flags(), &options.useGitignore, useGitignoreFlagName, false, useGitignoreFlagDescription)
}

// createBundleCommand returns the bundle subcommand.
func createBundleCommand() *cobra.Command {
	var pathConfiguration pathOptions
	var outputPath string
	var outputFormat string = types.FormatRaw
	var copyEnabled bool
	var tokensEnabled bool
	var tokenizerModel string = defaultTokenizerModelName
	var stdoutEnabled bool

	bundleCommand := &cobra.Command{
		Use:     bundleUse,
		Aliases: []string{bundleAlias},
		Short:   bundleShortDescription,
		Long:    bundleLongDescription,
		Example: bundleUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{})
			if configurationError != nil {
				return fmt.Errorf(errorLoadConfigurationFormat, configurationError)
			}
			bundleConfiguration := applicationConfiguration.Bundle

			outputFormatLower := strings.ToLower(resolveStringSetting(command, formatFlagName, outputFormat, bundleConfiguration.Format, types.FormatRaw))
			if !isSupportedFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			resolvedOutputPath := resolveStringSetting(command, outputFlagName, outputPath, bundleConfiguration.Output, config.DefaultOutputFileName)
			resolvedCopy := resolveBooleanSetting(command, copyFlagName, copyEnabled, bundleConfiguration.Clipboard, false)
			resolvedTokens := resolveBooleanSetting(command, tokensFlagName, tokensEnabled, bundleConfiguration.Tokens.Enabled, false)
			resolvedModel := resolveStringSetting(command, modelFlagName, tokenizerModel, bundleConfiguration.Tokens.Model, defaultTokenizerModelName)

			var tokenCounter tokenizer.Counter
			var tokenModel string
			if resolvedTokens {
				createdCounter, effectiveModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: resolvedModel})
				if counterError != nil {
					return fmt.Errorf(errorInitializeCounterFormat, counterError)
				}
				tokenCounter = createdCounter
				tokenModel = effectiveModel
			}

			bundleOptions := commands.BundleOptions{
				Source:              arguments[0],
				Output:              resolvedOutputPath,
				Format:              outputFormatLower,
				SkipWrite:           stdoutEnabled,
				ExcludedDirectories: resolveExcludedDirectories(bundleConfiguration.Paths, pathConfiguration.excludedDirectories),
				ExcludedFiles:       resolveExcludedFiles(bundleConfiguration.Paths, pathConfiguration.excludedFiles),
				AllowedExtensions:   resolveListSetting(command, extensionsFlagName, pathConfiguration.extensions, bundleConfiguration.Paths.Extensions),
				TokenCounter:        tokenCounter,
				TokenModel:          tokenModel,
				CloneProgress:       command.ErrOrStderr(),
				Warn: func(message string) {
					fmt.Fprintf(command.ErrOrStderr(), warningMessageFormat, message)
				},
			}
			if resolveBooleanSetting(command, useGitignoreFlagName, pathConfiguration.useGitignore, bundleConfiguration.Paths.UseGitignore, false) {
				bundleOptions.IgnoreLoader = config.LoadGitignorePatterns
			}

			executionContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			result, runError := commands.Run(executionContext, bundleOptions)
			if runError != nil {
				return runError
			}

			if resolvedCopy {
				if copyError := clipboard.NewService().CopyDocument(result.Document); copyError != nil {
					return fmt.Errorf(errorCopyDocumentFormat, copyError)
				}
				fmt.Fprintf(command.ErrOrStderr(), documentCopiedMessageFormat, output.FormatSummaryLine(result.Manifest.Summary))
			}
			if stdoutEnabled {
				fmt.Fprint(command.OutOrStdout(), result.Document)
				return nil
			}
			fmt.Fprintf(command.OutOrStdout(), documentWrittenMessageFormat, resolvedOutputPath, output.FormatSummaryLine(result.Manifest.Summary))
			return nil
		},
	}

	addPathFlags(bundleCommand, &pathConfiguration)
	bundleCommand.Flags().StringVarP(&outputPath, outputFlagName, outputFlagShorthand, config.DefaultOutputFileName, outputFlagDescription)
	bundleCommand.Flags().StringVarP(&outputFormat, formatFlagName, formatFlagShorthand, types.FormatRaw, formatFlagDescription)
	registerBooleanFlagP(bundleCommand.Flags(), &copyEnabled, copyFlagName, copyFlagShorthand, false, copyFlagDescription)
	registerBooleanFlagP(bundleCommand.Flags(), &tokensEnabled, tokensFlagName, tokensFlagShorthand, false, tokensFlagDescription)
	bundleCommand.Flags().StringVar(&tokenizerModel, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	registerBooleanFlag(bundleCommand.Flags(), &stdoutEnabled, stdoutFlagName, false, stdoutFlagDescription)
	return bundleCommand
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand() *cobra.Command {
	var pathConfiguration pathOptions
	var outputFormat string = types.FormatRaw

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{})
			if configurationError != nil {
				return fmt.Errorf(errorLoadConfigurationFormat, configurationError)
			}
			treeConfiguration := applicationConfiguration.Tree

			outputFormatLower := strings.ToLower(resolveStringSetting(command, formatFlagName, outputFormat, treeConfiguration.Format, types.FormatRaw))
			if !isSupportedFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}

			treeOptions := commands.BundleOptions{
				Source:              arguments[0],
				ExcludedDirectories: resolveExcludedDirectories(treeConfiguration.Paths, pathConfiguration.excludedDirectories),
				ExcludedFiles:       resolveExcludedFiles(treeConfiguration.Paths, pathConfiguration.excludedFiles),
				AllowedExtensions:   resolveListSetting(command, extensionsFlagName, pathConfiguration.extensions, treeConfiguration.Paths.Extensions),
				CloneProgress:       command.ErrOrStderr(),
				Warn: func(message string) {
					fmt.Fprintf(command.ErrOrStderr(), warningMessageFormat, message)
				},
			}
			if resolveBooleanSetting(command, useGitignoreFlagName, pathConfiguration.useGitignore, treeConfiguration.Paths.UseGitignore, false) {
				treeOptions.IgnoreLoader = config.LoadGitignorePatterns
			}

			executionContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			manifest, collectError := commands.CollectTree(executionContext, treeOptions)
			if collectError != nil {
				return collectError
			}

			rendered, renderError := renderTreeByFormat(manifest.Tree, outputFormatLower)
			if renderError != nil {
				return renderError
			}
			fmt.Fprint(command.OutOrStdout(), rendered)
			return nil
		},
	}

	addPathFlags(treeCommand, &pathConfiguration)
	treeCommand.Flags().StringVarP(&outputFormat, formatFlagName, formatFlagShorthand, types.FormatRaw, formatFlagDescription)
	return treeCommand
}

// renderTreeByFormat renders a tree node hierarchy in the requested format.
func renderTreeByFormat(rootNode *types.TreeNode, format string) (string, error) {
	switch format {
	case types.FormatJSON:
		return output.RenderNodeJSON(rootNode)
	case types.FormatXML:
		return output.RenderNodeXML(rootNode)
	default:
		return output.RenderTree(rootNode), nil
	}
}

// createConfigCommand returns the config subcommand with its init child.
func createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	var globalTarget bool
	var forceOverwrite bool
	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShort,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if globalTarget {
				target = config.InitTargetGlobal
			}
			writtenPath, initializeError := config.InitializeConfiguration(config.InitOptions{
				Target: target,
				Force:  forceOverwrite,
			})
			if initializeError != nil {
				return initializeError
			}
			fmt.Fprintf(command.OutOrStdout(), configurationWrittenFormat, writtenPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &globalTarget, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &forceOverwrite, forceFlagName, false, forceFlagDescription)

	configCommand.AddCommand(initCommand)
	return configCommand
}

// createServeCommand returns the serve subcommand.
func createServeCommand() *cobra.Command {
	var listenAddress string

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{})
			if configurationError != nil {
				return fmt.Errorf(errorLoadConfigurationFormat, configurationError)
			}
			resolvedAddress := resolveStringSetting(command, addressFlagName, listenAddress, applicationConfiguration.Serve.Address, "")

			executionContext, stopSignals := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			return startCommandServer(executionContext, resolvedAddress, command.OutOrStdout())
		},
	}

	serveCommand.Flags().StringVar(&listenAddress, addressFlagName, "", addressFlagDescription)
	return serveCommand
}

// resolveStringSetting picks the effective string value: a changed flag wins,
// then the configuration file, then the built-in default.
func resolveStringSetting(command *cobra.Command, flagName string, flagValue string, configuredValue string, defaultValue string) string {
	if command.Flags().Changed(flagName) {
		return flagValue
	}
	if configuredValue != "" {
		return configuredValue
	}
	return defaultValue
}

// resolveBooleanSetting picks the effective boolean value: a changed flag
// wins, then the configuration file, then the built-in default.
func resolveBooleanSetting(command *cobra.Command, flagName string, flagValue bool, configuredValue *bool, defaultValue bool) bool {
	if command.Flags().Changed(flagName) {
		return flagValue
	}
	if configuredValue != nil {
		return *configuredValue
	}
	return defaultValue
}

// resolveListSetting picks the effective list value: a changed flag replaces
// the configuration file list.
func resolveListSetting(command *cobra.Command, flagName string, flagValues []string, configuredValues []string) []string {
	if command.Flags().Changed(flagName) {
		return append([]string{}, flagValues...)
	}
	return append([]string{}, configuredValues...)
}

// resolveExcludedDirectories combines the default directory exclusions (or
// the configured replacement) with any exclusions added on the command line.
func resolveExcludedDirectories(pathConfiguration config.PathConfiguration, additional []string) []string {
	base := config.DefaultExcludedDirectories
	if len(pathConfiguration.ExcludedDirectories) > 0 {
		base = pathConfiguration.ExcludedDirectories
	}
	combined := append(append([]string{}, base...), additional...)
	return utils.DeduplicatePatterns(combined)
}

// resolveExcludedFiles combines the default file exclusions (or the
// configured replacement) with any exclusions added on the command line.
func resolveExcludedFiles(pathConfiguration config.PathConfiguration, additional []string) []string {
	base := config.DefaultExcludedFiles
	if len(pathConfiguration.ExcludedFiles) > 0 {
		base = pathConfiguration.ExcludedFiles
	}
	combined := append(append([]string{}, base...), additional...)
	return utils.DeduplicatePatterns(combined)
}

// startCommandServer runs the HTTP command server until the context is
// canceled, reporting the bound address on infoWriter.
func startCommandServer(executionContext context.Context, address string, infoWriter io.Writer) error {
	server := mcp.NewServer(mcp.Config{
		Address:      address,
		Capabilities: serveCapabilities(),
		Executors:    serveCommandExecutors(),
	})
	return server.Run(executionContext, func(boundAddress string) {
		fmt.Fprintf(infoWriter, serverListeningMessageFormat, boundAddress)
	})
}
