package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/blobscan/internal/config"
	"github.com/nao1215/blobscan/internal/database"
	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/blobscan/internal/pipeline"
	"github.com/nao1215/blobscan/internal/report"
	"github.com/spf13/cobra"
)

// errStdinTwice is returned when "-" is given more than once.
var errStdinTwice = errors.New("standard input (-) can only be analyzed once per run")

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]...",
		Short: "Run every analysis over one or more files",
		Long: `Analyze runs the full analysis over each file:
- File information: size, hashes (MD5, SHA-1, SHA-256, SHA3-256, BLAKE2b, XXH64)
- Entropy: global score, per-block series, high-entropy regions, compressibility
- Signatures: every known magic number at every offset
- Strings: printable ASCII and UTF-16LE runs
- LSB: data hidden in the least-significant bits of image pixels
- Metadata: image properties, EXIF tags, PDF document properties

Findings are assessed and ranked by severity. Each report is stored in the
history database unless --no-history is given.

Examples:
  # Analyze a single file
  blobscan analyze suspicious.png

  # Analyze several files, four at a time
  blobscan analyze --batch 4 evidence/*

  # Analyze data from a pipe
  cat dump.bin | blobscan analyze -

  # Write a Markdown report to a file
  blobscan analyze --markdown -o reports/holiday.md holiday.jpg

  # Use a custom configuration file
  blobscan analyze -c rules.yaml disk.img

Configuration file (.blobscan) example:
  defaults:
    minStringLength: 6
  rules:
    "*.img":
      blockSize: 4096
      skipLSB: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Analysis flags
	cmd.Flags().IntP("block-size", "B", config.DefaultBlockSize,
		"Entropy series block length in bytes")
	cmd.Flags().IntP("min-length", "n", config.DefaultMinStringLength,
		"Shortest printable run reported as a string")
	cmd.Flags().Int("max-strings", config.DefaultMaxStrings,
		"Maximum number of strings kept per file")
	cmd.Flags().Float64P("threshold", "t", config.DefaultEntropyThreshold,
		"High-entropy cut-off in bits per byte (0-8)")
	cmd.Flags().Bool("skip-lsb", false, "Skip LSB payload extraction")
	cmd.Flags().Bool("skip-metadata", false, "Skip image and PDF metadata extraction")
	cmd.Flags().Bool("skip-compression", false, "Skip the zstd/LZ4 compressibility measurement")
	cmd.Flags().Int64("max-size", config.DefaultMaxFileSize,
		"Largest file read into memory in bytes (0 for no limit)")
	cmd.Flags().Int("max-pixels", config.DefaultMaxImagePixels,
		"Largest image, in pixels, decoded for LSB extraction (0 for no limit)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of files analyzed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .blobscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("tee", false,
		"Also print the text report to stdout when writing to a file")
	cmd.Flags().BoolP("summary", "s", false,
		"Only output the severity summary and findings")
	cmd.Flags().Bool("no-history", false,
		"Do not store reports in the history database")

	return cmd
}

// analyzeOptions holds output choices that are not part of config.Config.
type analyzeOptions struct {
	tee     bool
	summary bool
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var opts analyzeOptions
	if opts.tee, err = cmd.Flags().GetBool("tee"); err != nil {
		return err
	}
	if opts.summary, err = cmd.Flags().GetBool("summary"); err != nil {
		return err
	}

	logger := newLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAnalyze(ctx, cmd, cfg, opts, logger)
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.BlockSize, err = flags.GetInt("block-size"); err != nil {
		return nil, err
	}
	if cfg.MinStringLength, err = flags.GetInt("min-length"); err != nil {
		return nil, err
	}
	if cfg.MaxStrings, err = flags.GetInt("max-strings"); err != nil {
		return nil, err
	}
	if cfg.EntropyThreshold, err = flags.GetFloat64("threshold"); err != nil {
		return nil, err
	}
	if cfg.SkipLSB, err = flags.GetBool("skip-lsb"); err != nil {
		return nil, err
	}
	if cfg.SkipMetadata, err = flags.GetBool("skip-metadata"); err != nil {
		return nil, err
	}
	if cfg.SkipCompression, err = flags.GetBool("skip-compression"); err != nil {
		return nil, err
	}
	if cfg.MaxFileSize, err = flags.GetInt64("max-size"); err != nil {
		return nil, err
	}
	if cfg.MaxImagePixels, err = flags.GetInt("max-pixels"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.DBDir = getDBDir(cmd)
	cfg.Verbose = getVerboseFlag(cmd)

	// An explicit config path must exist; otherwise a missing file just
	// means no rules.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Rules, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.Rules = &config.File{Rules: make(map[string]config.Rule)}
	}

	cfg.Targets = args
	return cfg, nil
}

// runAnalyze analyzes every target and writes the reports in target order.
// It returns an error if any target failed, after all reports are written.
func runAnalyze(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts analyzeOptions, logger *slog.Logger) error {
	stdinCount := 0
	for _, t := range cfg.Targets {
		if t == pipeline.StdinTarget {
			stdinCount++
		}
	}
	if stdinCount > 1 {
		return errStdinTwice
	}

	logger.Info("starting analysis",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	load := pipeline.NewLoadStep(
		pipeline.WithMaxFileSize(cfg.MaxFileSize),
		pipeline.WithStdin(cmd.InOrStdin()),
	)
	factory := func(target string) (*pipeline.Pipeline, error) {
		return pipeline.DefaultPipeline(cfg.AnalysisFor(target), load, pipeline.WithLogger(logger))
	}
	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	startTime := time.Now()
	reports, batchErr := bp.ProcessBatch(ctx, cfg.Targets)
	logger.Info("analysis finished", "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReports(cmd.OutOrStdout(), cfg, opts, reports); err != nil {
		return err
	}

	failed := 0
	for _, r := range reports {
		if r.Error != nil {
			failed++
			logger.Error("analysis failed", "target", r.Target, "error", r.Error)
		}
		if err := saveReport(ctx, db, r, logger); err != nil {
			logger.Error("failed to save report", "target", r.Target, "error", err)
		}
	}

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d targets could not be analyzed", failed, len(reports))
	}
	return nil
}

// newReportWriter returns the writer for the format selected in cfg.
func newReportWriter(w io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// outputReports writes every report to the report file or stdout.
func outputReports(stdout io.Writer, cfg *config.Config, opts analyzeOptions, reports []*model.Report) error {
	var writer report.Writer
	if cfg.ReportFile != "" {
		f, err := createOutputFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()

		writer = newReportWriter(f, cfg)
		if opts.tee {
			writer = report.NewMultiWriter(writer, report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose)))
		}
	} else {
		writer = newReportWriter(stdout, cfg)
	}

	for _, r := range reports {
		var err error
		if opts.summary {
			_, err = writer.WriteSimple(model.NewSimpleReport(r))
		} else {
			_, err = writer.Write(r)
		}
		if err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.Target, err)
		}
	}
	return nil
}

// saveReport saves the report to the database if enabled.
// If db is nil, this function is a no-op.
func saveReport(ctx context.Context, db *database.HistoryDB, r *model.Report, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveReport(ctx, r)
	if err != nil {
		return err
	}
	logger.Info("report saved to database", "target", r.Target, "id", id)
	return nil
}
