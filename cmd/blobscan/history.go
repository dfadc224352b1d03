package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/blobscan/internal/database"
	"github.com/spf13/cobra"
)

const noFindingsMessage = "No findings"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [file]",
		Short: "List analyses stored in the history database",
		Long: `History lists the analyses stored by 'blobscan analyze'.

Without arguments it lists every analyzed file. With a file it lists each
analysis of that file, newest first. With --sha256 it lists every analysis
of content with that digest, whatever its path was.

Examples:
  # Every analyzed file
  blobscan history

  # Analyses of one file
  blobscan history evidence/holiday.jpg

  # Where else has this content been seen?
  blobscan history --sha256 9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("sha256", "", "List analyses of content with this SHA-256 digest")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	sha, err := cmd.Flags().GetString("sha256")
	if err != nil {
		return err
	}
	if sha != "" && len(args) > 0 {
		return errors.New("give either a file or --sha256, not both")
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No analyses found in the database.")
		return nil
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case sha != "":
		return listBySHA256(ctx, out, db, strings.ToLower(sha))
	case len(args) == 1:
		return listHistory(ctx, out, db, args[0])
	default:
		return listTargets(ctx, out, db)
	}
}

// openHistoryDB opens the existing history database. It returns nil
// without error when no database has been created yet.
func openHistoryDB(cmd *cobra.Command) (*database.HistoryDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(getDBDir(cmd), opts)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// listTargets lists every file that has analyses in the database.
func listTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No analyses found in the database.")
		fmt.Fprintln(out, "\nUse 'blobscan analyze <file>' to analyze a file.")
		return nil
	}

	fmt.Fprintf(out, "Analyzed files (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'blobscan history <file>' to see the analyses of a file.")
	return nil
}

// listHistory lists every analysis of target.
func listHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, target string) error {
	history, err := db.GetHistoryWithMetadata(ctx, target)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", target)
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d analyses):\n\n", target, len(history))
	writeMetadataTable(out, history, false)
	fmt.Fprintln(out, "\nUse 'blobscan compare <file>' to compare the latest two analyses.")
	fmt.Fprintln(out, "Use 'blobscan compare --with-id <id> <file>' to compare with a specific analysis.")
	return nil
}

// listBySHA256 lists every analysis of content with the given digest.
func listBySHA256(ctx context.Context, out io.Writer, db *database.HistoryDB, sha string) error {
	history, err := db.FindBySHA256(ctx, sha)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No analyses found for SHA-256 %s\n", sha)
		return nil
	}

	fmt.Fprintf(out, "Analyses of %s (%d):\n\n", sha, len(history))
	writeMetadataTable(out, history, true)
	return nil
}

func writeMetadataTable(out io.Writer, history []database.ReportMetadata, withTarget bool) {
	if withTarget {
		fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %s\n", "ID", "Date", "Entropy", "Target")
	} else {
		fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-12s  %s\n", "ID", "Date", "Entropy", "SHA-256", "Risk Summary")
	}
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, meta := range history {
		date := meta.Timestamp.Local().Format("2006-01-02 15:04:05")
		if withTarget {
			fmt.Fprintf(out, "  %-6d  %-20s  %-8.4f  %s\n", meta.ID, date, meta.GlobalEntropy, meta.Target)
			continue
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-8.4f  %-12s  %s\n",
			meta.ID, date, meta.GlobalEntropy, shortDigest(meta.SHA256), formatRiskSummary(meta.RiskSummary))
	}
}

// shortDigest returns the first 12 hex digits of a digest.
func shortDigest(digest string) string {
	if digest == "" {
		return "-"
	}
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// formatRiskSummary formats the risk summary map into a human-readable string.
func formatRiskSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["high"]; v > 0 {
		parts = append(parts, fmt.Sprintf("H:%d", v))
	}
	if v := summary["medium"]; v > 0 {
		parts = append(parts, fmt.Sprintf("M:%d", v))
	}
	if v := summary["low"]; v > 0 {
		parts = append(parts, fmt.Sprintf("L:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}
