package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/repoctx/internal/utils"
)

// DefaultOutputFileName is the file the bundle command writes when no
// output override is configured.
const DefaultOutputFileName = "context.md"

// DefaultExcludedDirectories lists directory basenames skipped by every
// traversal unless overridden: version control metadata, dependency
// caches, build products, and editor state.
var DefaultExcludedDirectories = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"dist",
	"build",
	"target",
	"__pycache__",
	".idea",
	".vscode",
}

// DefaultExcludedFiles lists file basenames whose contents are never merged:
// secret carriers and machine-generated lock files.
var DefaultExcludedFiles = []string{
	".env",
	".env.local",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Cargo.lock",
	"composer.lock",
	"go.sum",
	".DS_Store",
}

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Bundle BundleCommandConfiguration `mapstructure:"bundle"`
	Tree   TreeCommandConfiguration   `mapstructure:"tree"`
	Serve  ServeConfiguration         `mapstructure:"serve"`
}

// BundleCommandConfiguration defines defaults for the bundle command.
type BundleCommandConfiguration struct {
	Output    string             `mapstructure:"output"`
	Format    string             `mapstructure:"format"`
	Clipboard *bool              `mapstructure:"clipboard"`
	Tokens    TokenConfiguration `mapstructure:"tokens"`
	Paths     PathConfiguration  `mapstructure:"paths"`
}

// TreeCommandConfiguration defines defaults for the tree command.
type TreeCommandConfiguration struct {
	Format string            `mapstructure:"format"`
	Paths  PathConfiguration `mapstructure:"paths"`
}

// ServeConfiguration defines defaults for the command server.
type ServeConfiguration struct {
	Address string `mapstructure:"address"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// PathConfiguration configures traversal exclusion and extension filtering.
type PathConfiguration struct {
	ExcludedDirectories []string `mapstructure:"excluded_directories"`
	ExcludedFiles       []string `mapstructure:"excluded_files"`
	Extensions          []string `mapstructure:"extensions"`
	UseGitignore        *bool    `mapstructure:"use_gitignore"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Bundle.Paths = merged.Bundle.Paths.deduplicated()
	merged.Tree.Paths = merged.Tree.Paths.deduplicated()

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Bundle = result.Bundle.merge(override.Bundle)
	result.Tree = result.Tree.merge(override.Tree)
	result.Serve = result.Serve.merge(override.Serve)
	return result
}

func (config BundleCommandConfiguration) merge(override BundleCommandConfiguration) BundleCommandConfiguration {
	result := config
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	result.Paths = result.Paths.merge(override.Paths)
	return result
}

func (config TreeCommandConfiguration) merge(override TreeCommandConfiguration) TreeCommandConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	result.Paths = result.Paths.merge(override.Paths)
	return result
}

func (config ServeConfiguration) merge(override ServeConfiguration) ServeConfiguration {
	result := config
	if override.Address != "" {
		result.Address = override.Address
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.ExcludedDirectories) > 0 {
		result.ExcludedDirectories = append([]string{}, utils.DeduplicatePatterns(override.ExcludedDirectories)...)
	}
	if len(override.ExcludedFiles) > 0 {
		result.ExcludedFiles = append([]string{}, utils.DeduplicatePatterns(override.ExcludedFiles)...)
	}
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string{}, utils.DeduplicatePatterns(override.Extensions)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	return result
}

func (config PathConfiguration) deduplicated() PathConfiguration {
	result := config
	result.ExcludedDirectories = utils.DeduplicatePatterns(result.ExcludedDirectories)
	result.ExcludedFiles = utils.DeduplicatePatterns(result.ExcludedFiles)
	result.Extensions = utils.DeduplicatePatterns(result.Extensions)
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
