package main

import (
	"fmt"
	"os"

	"github.com/nao1215/blobscan/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for blobscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobscan",
		Short: "Forensic analyzer for binary files",
		Long: `blobscan is a forensic analyzer for binary files.
It measures Shannon entropy, finds embedded file signatures, extracts
printable ASCII and UTF-16LE strings, and recovers data hidden in the
least-significant bits of image pixels.

Use "-" as a file name to read from standard input.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewEntropyCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewStringsCmd())
	cmd.AddCommand(NewLSBCmd())
	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
