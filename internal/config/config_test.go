package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional: these tests fail when they drift.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default BlockSize is 256", func(t *testing.T) {
		t.Parallel()
		if cfg.BlockSize != 256 {
			t.Errorf("expected BlockSize to be 256, got %d", cfg.BlockSize)
		}
	})

	t.Run("default MinStringLength is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.MinStringLength != 4 {
			t.Errorf("expected MinStringLength to be 4, got %d", cfg.MinStringLength)
		}
	})

	t.Run("default MaxStrings is 1000", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxStrings != 1000 {
			t.Errorf("expected MaxStrings to be 1000, got %d", cfg.MaxStrings)
		}
	})

	t.Run("default EntropyThreshold is 7.5", func(t *testing.T) {
		t.Parallel()
		if cfg.EntropyThreshold != 7.5 {
			t.Errorf("expected EntropyThreshold to be 7.5, got %v", cfg.EntropyThreshold)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default MaxFileSize is 512 MiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxFileSize != 512<<20 {
			t.Errorf("expected MaxFileSize to be 512 MiB, got %d", cfg.MaxFileSize)
		}
	})

	t.Run("LSB and metadata are enabled by default", func(t *testing.T) {
		t.Parallel()
		if cfg.SkipLSB || cfg.SkipMetadata || cfg.SkipCompression {
			t.Error("expected all analyses to be enabled")
		}
	})

	t.Run("history is saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to be set")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"sample.bin"}
		return cfg
	}

	testCases := []struct {
		name     string
		mutate   func(*Config)
		expected error
	}{
		{"valid config returns nil", func(*Config) {}, nil},
		{"multiple targets is valid", func(c *Config) { c.Targets = []string{"a", "b", "-"} }, nil},
		{"empty targets returns ErrNoTarget", func(c *Config) { c.Targets = []string{} }, ErrNoTarget},
		{"nil targets returns ErrNoTarget", func(c *Config) { c.Targets = nil }, ErrNoTarget},
		{"zero block size returns ErrInvalidBlockSize", func(c *Config) { c.BlockSize = 0 }, ErrInvalidBlockSize},
		{"negative block size returns ErrInvalidBlockSize", func(c *Config) { c.BlockSize = -1 }, ErrInvalidBlockSize},
		{"zero min string length returns ErrInvalidMinStringLength", func(c *Config) { c.MinStringLength = 0 }, ErrInvalidMinStringLength},
		{"zero max strings returns ErrInvalidMaxStrings", func(c *Config) { c.MaxStrings = 0 }, ErrInvalidMaxStrings},
		{"threshold above 8 returns ErrInvalidEntropyThreshold", func(c *Config) { c.EntropyThreshold = 8.1 }, ErrInvalidEntropyThreshold},
		{"negative threshold returns ErrInvalidEntropyThreshold", func(c *Config) { c.EntropyThreshold = -0.5 }, ErrInvalidEntropyThreshold},
		{"threshold of exactly 8 is valid", func(c *Config) { c.EntropyThreshold = 8 }, nil},
		{"zero batch size returns ErrInvalidBatchSize", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"negative max file size returns ErrInvalidMaxFileSize", func(c *Config) { c.MaxFileSize = -1 }, ErrInvalidMaxFileSize},
		{"zero max file size means unlimited", func(c *Config) { c.MaxFileSize = 0 }, nil},
		{"negative max pixels returns ErrInvalidMaxImagePixels", func(c *Config) { c.MaxImagePixels = -1 }, ErrInvalidMaxImagePixels},
		{"json and markdown both enabled returns ErrConflictingReportFormats", func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, ErrConflictingReportFormats},
		{"json only is valid", func(c *Config) { c.JSONReport = true }, nil},
		{"markdown only is valid", func(c *Config) { c.MarkdownReport = true }, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.expected == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool { return &v }

// TestFileRuleFor tests per-file rule selection and merging.
func TestFileRuleFor(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when no rule matches", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: Rule{BlockSize: intPtr(512)},
			Rules:    map[string]Rule{"*.png": {SkipLSB: boolPtr(false)}},
		}
		rule := cf.RuleFor("/tmp/dump.bin")
		if rule.BlockSize == nil || *rule.BlockSize != 512 {
			t.Errorf("expected default block size 512, got %v", rule.BlockSize)
		}
		if rule.SkipLSB != nil {
			t.Error("expected SkipLSB to stay unset")
		}
	})

	t.Run("matching rule overrides defaults", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Defaults: Rule{BlockSize: intPtr(512), MaxStrings: intPtr(50)},
			Rules:    map[string]Rule{"*.bin": {BlockSize: intPtr(4096)}},
		}
		rule := cf.RuleFor("images/firmware.bin")
		if *rule.BlockSize != 4096 {
			t.Errorf("expected block size 4096, got %d", *rule.BlockSize)
		}
		if *rule.MaxStrings != 50 {
			t.Errorf("expected default max strings to survive, got %d", *rule.MaxStrings)
		}
	})

	t.Run("patterns match the base name only", func(t *testing.T) {
		t.Parallel()

		cf := &File{Rules: map[string]Rule{"dump-*": {SkipMetadata: boolPtr(true)}}}
		rule := cf.RuleFor("/var/evidence/dump-01")
		if rule.SkipMetadata == nil || !*rule.SkipMetadata {
			t.Error("expected dump-* to match the base name")
		}
	})

	t.Run("first pattern in sorted order wins", func(t *testing.T) {
		t.Parallel()

		cf := &File{Rules: map[string]Rule{
			"z*.bin":  {BlockSize: intPtr(2)},
			"*.bin":   {BlockSize: intPtr(1)},
			"zip.bin": {BlockSize: intPtr(3)},
		}}
		rule := cf.RuleFor("zip.bin")
		if *rule.BlockSize != 1 {
			t.Errorf("expected *.bin to win, got %d", *rule.BlockSize)
		}
	})

	t.Run("nil rules map", func(t *testing.T) {
		t.Parallel()

		cf := &File{Defaults: Rule{EntropyThreshold: floatPtr(7.9)}}
		rule := cf.RuleFor("x")
		if *rule.EntropyThreshold != 7.9 {
			t.Errorf("expected 7.9, got %v", *rule.EntropyThreshold)
		}
	})
}

// TestConfigAnalysisFor tests that rules layer on top of CLI settings.
func TestConfigAnalysisFor(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Rules = &File{Rules: map[string]Rule{
		"*.jpg": {SkipLSB: boolPtr(true), MinStringLength: intPtr(8)},
	}}

	jpg := cfg.AnalysisFor("photo.jpg")
	if !jpg.SkipLSB || jpg.MinStringLength != 8 {
		t.Errorf("expected rule to apply, got %+v", jpg)
	}
	if jpg.BlockSize != DefaultBlockSize {
		t.Errorf("expected CLI block size to survive, got %d", jpg.BlockSize)
	}

	png := cfg.AnalysisFor("photo.png")
	if png != cfg.Analysis() {
		t.Errorf("expected unchanged settings, got %+v", png)
	}

	cfg.Rules = nil
	if cfg.AnalysisFor("photo.jpg") != cfg.Analysis() {
		t.Error("expected settings unchanged without a rules file")
	}
}

// TestLoadConfigFile tests loading the YAML rules file.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  blockSize: 1024
  maxStrings: 200
rules:
  "*.png":
    minStringLength: 6
  "*.iso":
    skipLSB: true
    skipCompression: true
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cf.Defaults.BlockSize == nil || *cf.Defaults.BlockSize != 1024 {
			t.Errorf("expected default block size 1024, got %v", cf.Defaults.BlockSize)
		}
		if len(cf.Rules) != 2 {
			t.Fatalf("expected 2 rules, got %d", len(cf.Rules))
		}
		iso := cf.RuleFor("disk.iso")
		if iso.SkipLSB == nil || !*iso.SkipLSB {
			t.Error("expected skipLSB for *.iso")
		}
		if *iso.MaxStrings != 200 {
			t.Errorf("expected default maxStrings 200, got %d", *iso.MaxStrings)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults: [unclosed"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for malformed pattern", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("rules:\n  \"[abc\":\n    skipLSB: true\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); !errors.Is(err, filepath.ErrBadPattern) {
			t.Errorf("expected ErrBadPattern, got %v", err)
		}
	})

	t.Run("initializes nil Rules map", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults:\n  skipLSB: true\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cf.Rules == nil {
			t.Error("expected Rules map to be initialized")
		}
	})
}

// TestFindConfigFile tests config file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("expected empty path, got %s", got)
		}
	})
}

// TestXDGDirs tests the XDG directory helpers.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"XDGDataDir":   XDGDataDir(),
		"XDGConfigDir": XDGConfigDir(),
	} {
		t.Run(name+" ends with the app name", func(t *testing.T) {
			t.Parallel()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s to end with %s", dir, AppName)
			}
		})
	}
}
