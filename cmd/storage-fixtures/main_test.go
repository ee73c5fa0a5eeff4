package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/mainbong/storage_fixtures/internal/config"
	"github.com/mainbong/storage_fixtures/internal/logger"
	"github.com/mainbong/storage_fixtures/internal/manifest"
	"github.com/mainbong/storage_fixtures/internal/verify"
)

// writeBrokenConfig writes a config file that parses but fails validation
func writeBrokenConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, `"file_count":{"min":5,"max":3},`)
}

// writeConfig writes a config file with the given leading JSON fields and a
// log_dir inside the test's temp dir
func writeConfig(t *testing.T, fields string) string {
	t.Helper()
	for _, env := range []string{config.EnvBaseDir, config.EnvSeed, config.EnvLogLevel} {
		t.Setenv(env, "")
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	data := `{` + fields + `"log_dir":"` + filepath.ToSlash(filepath.Join(dir, "logs")) + `"}`
	if err := os.WriteFile(file, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Cleanup(func() {
		logger.Close()
		forceInit = false
		configPath = ""
		baseDir = ""
		manifestPath = ""
		verbose = false
		for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), generateCmd.Flags(), configInitCmd.Flags()} {
			fs.VisitAll(func(f *pflag.Flag) { f.Changed = false })
		}
		rootCmd.SetArgs(nil)
	})
	return file
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func loadFile(t *testing.T, file string) *config.Config {
	t.Helper()
	loaded, err := config.LoadWithFS(osFS, filepath.Dir(file), file)
	if err != nil {
		t.Fatalf("LoadWithFS() failed: %v", err)
	}
	return loaded
}

func TestGenerate_RejectsInvalidConfig(t *testing.T) {
	file := writeBrokenConfig(t)

	err := execute("generate", "--config", file, "--base-dir", t.TempDir())
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfigSet_RepairsInvalidFile(t *testing.T) {
	file := writeBrokenConfig(t)

	if err := execute("config", "set", "file_count.min", "1", "--config", file); err != nil {
		t.Fatalf("config set failed: %v", err)
	}

	repaired := loadFile(t, file)
	if repaired.FileCount.Min != 1 || repaired.FileCount.Max != 3 {
		t.Errorf("Expected file_count [1, 3], got %+v", repaired.FileCount)
	}
	if err := repaired.Validate(); err != nil {
		t.Errorf("Expected repaired config to validate, got %v", err)
	}
}

func TestConfigSet_StillRejectsInvalidResult(t *testing.T) {
	file := writeBrokenConfig(t)

	// min 4 is still greater than max 3
	err := execute("config", "set", "file_count.min", "4", "--config", file)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if got := loadFile(t, file).FileCount.Min; got != 5 {
		t.Errorf("Expected file to be left unchanged, got min %d", got)
	}
}

func TestConfigInit_ForceRepairsInvalidFile(t *testing.T) {
	file := writeBrokenConfig(t)

	if err := execute("config", "init", "--config", file); err == nil {
		t.Error("Expected init without --force to refuse an existing file")
	}

	if err := execute("config", "init", "--force", "--config", file); err != nil {
		t.Fatalf("config init --force failed: %v", err)
	}

	restored := loadFile(t, file)
	if restored.FileCount.Min != config.DefaultMinFiles || restored.FileCount.Max != config.DefaultMaxFiles {
		t.Errorf("Expected default file_count, got %+v", restored.FileCount)
	}
	if err := restored.Validate(); err != nil {
		t.Errorf("Expected restored config to validate, got %v", err)
	}
}

func TestConfigShow_LoadsInvalidFile(t *testing.T) {
	file := writeBrokenConfig(t)

	if err := execute("config", "show", "--config", file); err != nil {
		t.Errorf("config show failed: %v", err)
	}
}

func TestGenerate_WritesManifest(t *testing.T) {
	file := writeConfig(t, `"seed":7,`)
	base := t.TempDir()
	manifestFile := filepath.Join(t.TempDir(), "manifest.yaml")

	if err := execute("generate", "--config", file, "--base-dir", base, "--manifest", manifestFile, "-v"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	report, err := manifest.NewManager().Read(manifestFile)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if report.Seed != 7 || report.BaseDir != base {
		t.Errorf("Unexpected manifest header: seed %d, base %s", report.Seed, report.BaseDir)
	}
	if len(report.Groups) != len(config.DefaultGroups) {
		t.Errorf("Expected %d groups, got %d", len(config.DefaultGroups), len(report.Groups))
	}

	result, err := verify.NewVerifier(osFS, cfg).Verify(report)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if !result.OK() {
		t.Errorf("Expected a clean tree, got %d issue(s)", result.IssueCount())
	}
}

func TestGenerate_RejectsManifestInsideGroup(t *testing.T) {
	file := writeConfig(t, "")
	base := t.TempDir()

	err := execute("generate", "--config", file, "--base-dir", base,
		"--manifest", filepath.Join(base, "group1", "manifest.json"))
	if err == nil {
		t.Fatal("Expected manifest inside a group directory to be rejected")
	}
	if _, statErr := os.Stat(filepath.Join(base, "group1")); !os.IsNotExist(statErr) {
		t.Error("Expected no files to be generated")
	}
}
