package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default extensions are .html and .htm", func(t *testing.T) {
		t.Parallel()
		if diff := cmp.Diff([]string{".html", ".htm"}, cfg.Extensions); diff != "" {
			t.Errorf("extensions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("default concurrency is the number of CPUs", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != runtime.NumCPU() {
			t.Errorf("expected Concurrency to be %d, got %d", runtime.NumCPU(), cfg.Concurrency)
		}
	})

	t.Run("default MaxFileSize is 10MB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxFileSize != 10*1024*1024 {
			t.Errorf("expected MaxFileSize to be 10MB, got %d", cfg.MaxFileSize)
		}
	})

	t.Run("default Debounce is 300ms", func(t *testing.T) {
		t.Parallel()
		if cfg.Debounce != 300*time.Millisecond {
			t.Errorf("expected Debounce to be 300ms, got %v", cfg.Debounce)
		}
	})

	t.Run("default DryRun is false", func(t *testing.T) {
		t.Parallel()
		if cfg.DryRun {
			t.Error("expected DryRun to be false")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Paths = []string{"site"}
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "valid config returns nil", modify: func(*Config) {}},
		{name: "multiple paths is valid", modify: func(c *Config) { c.Paths = []string{"a", "b.html"} }},
		{name: "empty paths", modify: func(c *Config) { c.Paths = nil }, wantErr: ErrNoPaths},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "negative concurrency", modify: func(c *Config) { c.Concurrency = -1 }, wantErr: ErrInvalidConcurrency},
		{
			name:    "json and markdown both enabled",
			modify:  func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			wantErr: ErrConflictingReportFormats,
		},
		{name: "json only is valid", modify: func(c *Config) { c.JSONReport = true }},
		{name: "markdown only is valid", modify: func(c *Config) { c.MarkdownReport = true }},
		{name: "zero max file size", modify: func(c *Config) { c.MaxFileSize = 0 }, wantErr: ErrInvalidMaxFileSize},
		{name: "no extensions", modify: func(c *Config) { c.Extensions = nil }, wantErr: ErrNoExtensions},
		{name: "extension without dot", modify: func(c *Config) { c.Extensions = []string{"html"} }, wantErr: ErrInvalidExtension},
		{name: "bare dot extension", modify: func(c *Config) { c.Extensions = []string{"."} }, wantErr: ErrInvalidExtension},
		{name: "valid exclude pattern", modify: func(c *Config) { c.Exclude = []string{"assets/**", "**/404.html"} }},
		{name: "invalid exclude pattern", modify: func(c *Config) { c.Exclude = []string{"[unclosed"} }, wantErr: ErrInvalidPattern},
		{name: "negative debounce", modify: func(c *Config) { c.Debounce = -time.Second }, wantErr: ErrInvalidDebounce},
		{name: "zero debounce is valid", modify: func(c *Config) { c.Debounce = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestApplyFile tests merging of file settings onto a Config.
func TestApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("nil file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if diff := cmp.Diff(NewConfig(), cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-zero values override defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(&File{
			Extensions:  []string{".xhtml"},
			Exclude:     []string{"api/**"},
			Concurrency: 2,
			MaxFileSize: 1024,
			Debounce:    time.Second,
		})

		if diff := cmp.Diff([]string{".xhtml"}, cfg.Extensions); diff != "" {
			t.Errorf("extensions mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{"api/**"}, cfg.Exclude); diff != "" {
			t.Errorf("exclude mismatch (-want +got):\n%s", diff)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", cfg.Concurrency)
		}
		if cfg.MaxFileSize != 1024 {
			t.Errorf("expected max file size 1024, got %d", cfg.MaxFileSize)
		}
		if cfg.Debounce != time.Second {
			t.Errorf("expected debounce 1s, got %v", cfg.Debounce)
		}
	})

	t.Run("zero values keep defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(&File{Exclude: []string{"x"}})

		if cfg.Concurrency != DefaultConcurrency() {
			t.Errorf("expected default concurrency, got %d", cfg.Concurrency)
		}
		if diff := cmp.Diff(DefaultExtensions(), cfg.Extensions); diff != "" {
			t.Errorf("extensions mismatch (-want +got):\n%s", diff)
		}
	})
}

// TestNormalizedExtensions tests that extensions are lowercased.
func TestNormalizedExtensions(t *testing.T) {
	t.Parallel()

	cfg := &Config{Extensions: []string{".HTML", ".Htm"}}
	if diff := cmp.Diff([]string{".html", ".htm"}, cfg.NormalizedExtensions()); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.extlink")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".extlink")
		content := `extensions:
  - ".html"
exclude:
  - "assets/**"
  - "**/404.html"
concurrency: 4
maxFileSize: 2048
debounce: 500ms
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := &File{
			Extensions:  []string{".html"},
			Exclude:     []string{"assets/**", "**/404.html"},
			Concurrency: 4,
			MaxFileSize: 2048,
			Debounce:    500 * time.Millisecond,
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".extlink")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("concurrency: 1"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGConfigDir tests the XDG config directory.
func TestXDGConfigDir(t *testing.T) {
	t.Parallel()

	dir := XDGConfigDir()
	if dir == "" {
		t.Fatal("expected non-empty XDG config dir")
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("expected directory to end with %q, got %q", AppName, dir)
	}
}
