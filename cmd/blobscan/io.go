package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/blobscan/internal/config"
	"github.com/nao1215/blobscan/internal/fileinfo"
	blog "github.com/nao1215/blobscan/internal/log"
	"github.com/nao1215/blobscan/internal/pipeline"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getDBDir returns the history database directory.
func getDBDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("db-dir")
	if err != nil || dir == "" {
		return config.XDGDataDir()
	}
	return dir
}

// newLogger creates the logger for a command. Logs go to stderr so that
// reports on stdout stay machine-readable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	return blog.NewSafeLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

// addMaxSizeFlag registers --max-size on a command that reads whole files.
func addMaxSizeFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("max-size", config.DefaultMaxFileSize,
		"Largest file read into memory in bytes (0 for no limit)")
}

// getMaxSize returns the --max-size limit, or the default when the command
// has no such flag.
func getMaxSize(cmd *cobra.Command) (int64, error) {
	maxSize, err := cmd.Flags().GetInt64("max-size")
	if err != nil {
		return config.DefaultMaxFileSize, nil //nolint:nilerr // flag not registered
	}
	if maxSize < 0 {
		return 0, config.ErrInvalidMaxFileSize
	}
	return maxSize, nil
}

// readTarget reads a file, or standard input for "-", honoring --max-size.
func readTarget(cmd *cobra.Command, target string) ([]byte, error) {
	maxSize, err := getMaxSize(cmd)
	if err != nil {
		return nil, err
	}
	if target == pipeline.StdinTarget {
		return fileinfo.ReadAll(cmd.InOrStdin(), "stdin", maxSize)
	}
	return fileinfo.ReadFile(target, maxSize)
}

// createOutputFile creates path and its parent directories.
// The file is created with 0600 permissions since reports and payloads
// may contain sensitive material.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-supplied output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}

	f, err := createOutputFile(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
