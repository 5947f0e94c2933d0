package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/temirov/repoctx/internal/utils"
)

type configTestCase struct {
	name          string
	globalContent string
	localContent  string
	explicitPath  string
	expectOutput  string
	expectFormat  string
	expectCopy    *bool
	expectTokens  *bool
	expectModel   string
	expectAddress string
}

func boolPointer(value bool) *bool {
	pointer := value
	return &pointer
}

func writeConfigFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write configuration file %s: %v", path, err)
	}
}

func TestLoadApplicationConfigurationMergesSources(t *testing.T) {
	testCases := []configTestCase{
		{
			name: "local_overrides_global",
			globalContent: "bundle:\n  output: global.md\n  format: json\n  clipboard: true\n" +
				"  tokens:\n    enabled: false\n    model: gpt-4o\nserve:\n  address: 127.0.0.1:9000\n",
			localContent: "bundle:\n  format: xml\n  tokens:\n    enabled: true\n    model: custom\n" +
				"tree:\n  format: json\n",
			expectOutput:  "global.md",
			expectFormat:  "xml",
			expectCopy:    boolPointer(true),
			expectTokens:  boolPointer(true),
			expectModel:   "custom",
			expectAddress: "127.0.0.1:9000",
		},
		{
			name:          "explicit_path_replaces_local",
			localContent:  "bundle:\n  format: xml\n",
			explicitPath:  "custom.yaml",
			expectFormat:  "raw",
			expectOutput:  "",
			expectCopy:    nil,
			expectTokens:  nil,
			expectModel:   "",
			expectAddress: "",
		},
		{
			name:          "missing_files_yield_zero_values",
			expectOutput:  "",
			expectFormat:  "",
			expectCopy:    nil,
			expectTokens:  nil,
			expectModel:   "",
			expectAddress: "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			homeDir := t.TempDir()
			workingDir := t.TempDir()
			configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
			if err := os.MkdirAll(configDir, 0o755); err != nil {
				t.Fatalf("create config dir: %v", err)
			}
			if testCase.globalContent != "" {
				writeConfigFile(t, filepath.Join(configDir, utils.GlobalConfigFileName), testCase.globalContent)
			}
			if testCase.localContent != "" {
				writeConfigFile(t, filepath.Join(workingDir, utils.LocalConfigFileName), testCase.localContent)
			}
			if testCase.explicitPath != "" {
				writeConfigFile(t, filepath.Join(workingDir, testCase.explicitPath), "bundle:\n  format: raw\n")
			}

			t.Setenv("HOME", homeDir)
			t.Setenv("USERPROFILE", homeDir)

			loadedConfig, err := LoadApplicationConfiguration(LoadOptions{
				WorkingDirectory: workingDir,
				ExplicitFilePath: testCase.explicitPath,
			})
			if err != nil {
				t.Fatalf("LoadApplicationConfiguration error: %v", err)
			}

			if loadedConfig.Bundle.Output != testCase.expectOutput {
				t.Fatalf("expected output %q, got %q", testCase.expectOutput, loadedConfig.Bundle.Output)
			}
			if loadedConfig.Bundle.Format != testCase.expectFormat {
				t.Fatalf("expected format %q, got %q", testCase.expectFormat, loadedConfig.Bundle.Format)
			}
			if testCase.expectCopy == nil {
				if loadedConfig.Bundle.Clipboard != nil {
					t.Fatalf("expected no clipboard override")
				}
			} else {
				if loadedConfig.Bundle.Clipboard == nil || *loadedConfig.Bundle.Clipboard != *testCase.expectCopy {
					t.Fatalf("unexpected clipboard value")
				}
			}
			if testCase.expectTokens == nil {
				if loadedConfig.Bundle.Tokens.Enabled != nil {
					t.Fatalf("expected no tokens override")
				}
			} else {
				if loadedConfig.Bundle.Tokens.Enabled == nil || *loadedConfig.Bundle.Tokens.Enabled != *testCase.expectTokens {
					t.Fatalf("unexpected tokens enabled value")
				}
			}
			if loadedConfig.Bundle.Tokens.Model != testCase.expectModel {
				t.Fatalf("expected model %q, got %q", testCase.expectModel, loadedConfig.Bundle.Tokens.Model)
			}
			if loadedConfig.Serve.Address != testCase.expectAddress {
				t.Fatalf("expected address %q, got %q", testCase.expectAddress, loadedConfig.Serve.Address)
			}
		})
	}
}

func TestLoadApplicationConfigurationReplacesPathLists(t *testing.T) {
	homeDir := t.TempDir()
	workingDir := t.TempDir()
	configDir := filepath.Join(homeDir, utils.GlobalConfigDirectoryName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	globalContent := "bundle:\n  paths:\n    excluded_directories:\n      - logs\n      - cache\n      - logs\n" +
		"    extensions:\n      - md\n"
	localContent := "bundle:\n  paths:\n    excluded_directories:\n      - tmp\n    use_gitignore: true\n"
	writeConfigFile(t, filepath.Join(configDir, utils.GlobalConfigFileName), globalContent)
	writeConfigFile(t, filepath.Join(workingDir, utils.LocalConfigFileName), localContent)

	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)

	loadedConfig, err := LoadApplicationConfiguration(LoadOptions{WorkingDirectory: workingDir})
	if err != nil {
		t.Fatalf("LoadApplicationConfiguration error: %v", err)
	}

	paths := loadedConfig.Bundle.Paths
	if len(paths.ExcludedDirectories) != 1 || paths.ExcludedDirectories[0] != "tmp" {
		t.Fatalf("expected local list to replace global, got %v", paths.ExcludedDirectories)
	}
	if len(paths.Extensions) != 1 || paths.Extensions[0] != "md" {
		t.Fatalf("expected global extensions to survive, got %v", paths.Extensions)
	}
	if paths.UseGitignore == nil || !*paths.UseGitignore {
		t.Fatalf("expected use_gitignore override to apply")
	}
}

func TestMergeClonesBooleanOverrides(t *testing.T) {
	overrideValue := true
	base := ApplicationConfiguration{}
	override := ApplicationConfiguration{
		Bundle: BundleCommandConfiguration{Clipboard: &overrideValue},
	}

	merged := base.Merge(override)
	overrideValue = false

	if merged.Bundle.Clipboard == nil || !*merged.Bundle.Clipboard {
		t.Fatalf("expected merged configuration to keep its own boolean copy")
	}
}
