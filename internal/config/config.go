package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBlockSize is the block length for the entropy series.
	// 256 bytes is small enough to localize embedded blobs and large
	// enough that a block of random data scores close to 8.0.
	DefaultBlockSize = 256

	// DefaultMinStringLength is the shortest printable run reported.
	DefaultMinStringLength = 4

	// DefaultMaxStrings caps the number of extracted strings per file.
	DefaultMaxStrings = 1000

	// DefaultEntropyThreshold is the score at or above which data is
	// treated as compressed or encrypted.
	DefaultEntropyThreshold = 7.5

	// DefaultBatchSize is the number of files analyzed concurrently.
	DefaultBatchSize = 4

	// DefaultMaxFileSize is the largest file read into memory (512 MiB).
	DefaultMaxFileSize int64 = 512 << 20

	// DefaultMaxImagePixels bounds the images decoded for LSB extraction
	// (64 Mi pixels, about 8192x8192).
	DefaultMaxImagePixels = 64 << 20

	// DefaultLSBStrings is the number of strings kept from an LSB payload.
	DefaultLSBStrings = 20

	// AppName is the application name used for XDG directory paths.
	AppName = "blobscan"
)

// Config holds all configuration options for blobscan.
// It is populated from CLI flags and the configuration file and passed
// down explicitly; nothing reads configuration from global state.
type Config struct {
	// BlockSize is the entropy series block length in bytes.
	BlockSize int

	// MinStringLength is the minimum printable run length.
	MinStringLength int

	// MaxStrings caps the number of strings kept per file.
	MaxStrings int

	// EntropyThreshold is the high-entropy cut-off in bits per byte.
	EntropyThreshold float64

	// SkipLSB disables LSB payload extraction.
	SkipLSB bool

	// SkipMetadata disables image and PDF metadata extraction.
	SkipMetadata bool

	// SkipCompression disables the zstd/LZ4 compressibility measurement,
	// which is the slowest part of the entropy step on large files.
	SkipCompression bool

	// MaxFileSize is the largest file read into memory, in bytes.
	MaxFileSize int64

	// MaxImagePixels bounds the images decoded for LSB extraction.
	MaxImagePixels int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of files analyzed concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .blobscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Rules holds per-file overrides loaded from the config file.
	Rules *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// Targets is the list of files to analyze. "-" means standard input.
	Targets []string

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/blobscan on Linux).
	DBDir string

	// SaveToDB stores each report in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BlockSize:        DefaultBlockSize,
		MinStringLength:  DefaultMinStringLength,
		MaxStrings:       DefaultMaxStrings,
		EntropyThreshold: DefaultEntropyThreshold,
		MaxFileSize:      DefaultMaxFileSize,
		MaxImagePixels:   DefaultMaxImagePixels,
		BatchSize:        DefaultBatchSize,
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for blobscan.
// On Linux: ~/.local/share/blobscan
// On macOS: ~/Library/Application Support/blobscan
// On Windows: %LOCALAPPDATA%\blobscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for blobscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if err := c.Analysis().Validate(); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}
	if c.MaxImagePixels < 0 {
		return ErrInvalidMaxImagePixels
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// Analysis returns the analysis settings of c.
func (c *Config) Analysis() Analysis {
	return Analysis{
		BlockSize:        c.BlockSize,
		MinStringLength:  c.MinStringLength,
		MaxStrings:       c.MaxStrings,
		EntropyThreshold: c.EntropyThreshold,
		SkipLSB:          c.SkipLSB,
		SkipMetadata:     c.SkipMetadata,
		SkipCompression:  c.SkipCompression,
		MaxImagePixels:   c.MaxImagePixels,
	}
}

// AnalysisFor returns the analysis settings for one target: the CLI
// settings with the matching rule from the config file applied on top.
func (c *Config) AnalysisFor(target string) Analysis {
	a := c.Analysis()
	if c.Rules == nil {
		return a
	}
	return c.Rules.RuleFor(target).ApplyTo(a)
}

// Analysis holds the settings that drive one file's analysis.
type Analysis struct {
	BlockSize        int
	MinStringLength  int
	MaxStrings       int
	EntropyThreshold float64
	SkipLSB          bool
	SkipMetadata     bool
	SkipCompression  bool
	MaxImagePixels   int
}

// Validate checks the analysis settings.
func (a Analysis) Validate() error {
	if a.BlockSize <= 0 {
		return ErrInvalidBlockSize
	}
	if a.MinStringLength <= 0 {
		return ErrInvalidMinStringLength
	}
	if a.MaxStrings <= 0 {
		return ErrInvalidMaxStrings
	}
	if a.EntropyThreshold < 0 || a.EntropyThreshold > 8 {
		return ErrInvalidEntropyThreshold
	}
	return nil
}
