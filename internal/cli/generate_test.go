package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func resolveFromArgs(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	var cfg *GenerateConfig
	var resolveErr error
	root := NewRootCmd()
	for _, c := range root.Commands() {
		if c.Name() == "generate" {
			c.RunE = func(cmd *cobra.Command, _ []string) error {
				cfg, resolveErr = resolveGenerateConfig(cmd)
				return resolveErr
			}
		}
	}
	root.SetArgs(append([]string{"generate"}, args...))
	_ = root.Execute()
	return cfg, resolveErr
}

func TestResolveGenerateConfig_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := resolveFromArgs(t, "--input", "./specs")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Branch != "main" {
		t.Fatalf("branch = %q, want default main", cfg.Branch)
	}
	if cfg.Out != "generated" {
		t.Fatalf("out = %q, want default generated", cfg.Out)
	}
	if cfg.DryRun || cfg.Force {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestResolveGenerateConfig_RequiresInput(t *testing.T) {
	t.Parallel()
	_, err := resolveFromArgs(t)
	if err == nil {
		t.Fatalf("expected usage error for missing input")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestResolveGenerateConfig_ConfigFileMerge(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec2client.yaml")
	content := "input: ./specs\nbranch: 7.x\npackageName: esapi\ndryRun: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := resolveFromArgs(t, "--config", path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Input != "./specs" || cfg.Branch != "7.x" || cfg.PackageName != "esapi" || !cfg.DryRun {
		t.Fatalf("config file not applied: %+v", cfg)
	}
}

func TestResolveGenerateConfig_FlagsOverrideConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec2client.yaml")
	if err := os.WriteFile(path, []byte("input: ./specs\nbranch: 7.x\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := resolveFromArgs(t, "--config", path, "--branch", "8.0", "--input", "./other")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Branch != "8.0" || cfg.Input != "./other" {
		t.Fatalf("flags should override config values: %+v", cfg)
	}
}

func TestResolveGenerateConfig_UnknownConfigField(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "spec2client.yaml")
	if err := os.WriteFile(path, []byte("input: ./specs\nlang: go\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := resolveFromArgs(t, "--config", path)
	if err == nil {
		t.Fatalf("expected error for unknown config field")
	}
	if !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}
