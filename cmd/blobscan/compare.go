package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/blobscan/internal/database"
	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"
)

// Constants for risk direction.
const (
	riskDirectionWorsened  = "worsened"
	riskDirectionImproved  = "improved"
	riskDirectionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
// This command compares analysis results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Compare the latest analysis of a file with an earlier one",
		Long: `Compare displays differences between the latest and an earlier analysis of
the same file.

It shows:
- Whether the content changed (SHA-256, size, entropy)
- New findings that appeared since the earlier analysis
- Resolved findings that are no longer present
- Changes in severity counts

The comparison requires at least two analyses of the file in the database.
Use 'blobscan analyze' to analyze files and 'blobscan history' to list IDs.

Examples:
  # Compare the latest two analyses
  blobscan compare evidence/holiday.jpg

  # Compare with a specific analysis by ID
  blobscan compare --with-id 5 evidence/holiday.jpg

  # Compare with the first analysis since a date
  blobscan compare --since 2026-01-01 evidence/holiday.jpg

  # JSON output
  blobscan compare --json evidence/holiday.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	// Comparison target flags
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific analysis by ID (see 'blobscan history <file>')")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first analysis on or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// compareOptions selects the earlier analysis and the output format.
type compareOptions struct {
	withID   int64
	since    string
	json     bool
	markdown bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	var opts compareOptions
	var err error
	if opts.withID, err = cmd.Flags().GetInt64("with-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return errors.New("--json and --markdown are mutually exclusive")
	}
	if opts.withID != 0 && opts.since != "" {
		return errors.New("--with-id and --since are mutually exclusive")
	}

	// Validate the date before opening the database
	var sinceDate time.Time
	if opts.since != "" {
		sinceDate, err = time.ParseInLocation("2006-01-02", opts.since, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	db, err := openHistoryDB(cmd)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no history found for %s", args[0])
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	previous, current, err := selectReports(ctx, db, args[0], opts.withID, sinceDate)
	if err != nil {
		return err
	}

	comparison := compareReports(previous, current)

	out := cmd.OutOrStdout()
	switch {
	case opts.json:
		return outputComparisonJSON(out, comparison)
	case opts.markdown:
		return outputComparisonMarkdown(out, comparison)
	default:
		return outputComparisonText(out, comparison)
	}
}

// selectReports picks the latest analysis of target and the one to
// compare it with. A zero withID and zero since select the previous analysis.
func selectReports(ctx context.Context, db *database.HistoryDB, target string, withID int64, since time.Time) (previous, current *model.Report, err error) {
	reports, err := db.GetHistory(ctx, target)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get history: %w", err)
	}

	if len(reports) == 0 {
		return nil, nil, fmt.Errorf("no history found for %s", target)
	}

	if len(reports) < 2 && withID == 0 && since.IsZero() {
		return nil, nil, fmt.Errorf("at least 2 analyses are required for comparison (found %d)", len(reports))
	}

	// Latest report is always the current one
	current = reports[0]

	switch {
	case withID > 0:
		previous, err = db.GetReportByID(ctx, withID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get analysis with ID %d: %w", withID, err)
		}
		if previous == nil {
			return nil, nil, fmt.Errorf("analysis with ID %d not found", withID)
		}
		if previous.Target != target {
			return nil, nil, fmt.Errorf("analysis ID %d belongs to %s, not %s", withID, previous.Target, target)
		}
	case !since.IsZero():
		// Reports are newest first, so walk backwards to find the oldest
		// one on or after the date.
		for i := len(reports) - 1; i >= 0; i-- {
			if !reports[i].DateAnalyzed.Before(since) {
				previous = reports[i]
				break
			}
		}
		if previous == nil {
			return nil, nil, fmt.Errorf("no analyses found since %s", since.Format("2006-01-02"))
		}
		if previous == current {
			return nil, nil, fmt.Errorf("only one analysis found since %s; at least 2 are required for comparison",
				since.Format("2006-01-02"))
		}
	default:
		previous = reports[1]
	}

	return previous, current, nil
}

// ComparisonResult holds the result of comparing two analysis reports.
type ComparisonResult struct {
	// Target is the analyzed file.
	Target string `json:"target"`

	// Previous contains metadata about the earlier analysis.
	Previous AnalysisMetadata `json:"previous"`

	// Current contains metadata about the latest analysis.
	Current AnalysisMetadata `json:"current"`

	// ContentChanged is true when the SHA-256 digests differ.
	ContentChanged bool `json:"content_changed"`

	// EntropyDelta is the change in global entropy.
	EntropyDelta float64 `json:"entropy_delta"`

	// NewFindings contains findings that are new in the current analysis.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous analysis but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// RiskChange describes the overall change in risk level.
	RiskChange RiskChange `json:"risk_change"`
}

// AnalysisMetadata contains metadata about an analysis for comparison display.
type AnalysisMetadata struct {
	DateAnalyzed  time.Time `json:"date_analyzed"`
	SHA256        string    `json:"sha256"`
	Size          int64     `json:"size"`
	GlobalEntropy float64   `json:"global_entropy"`
	TotalFindings int       `json:"total_findings"`
	CriticalCount int       `json:"critical_count"`
	HighCount     int       `json:"high_count"`
	MediumCount   int       `json:"medium_count"`
	LowCount      int       `json:"low_count"`
	InfoCount     int       `json:"info_count"`
}

// RiskChange describes the change in risk level between analyses.
type RiskChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	CriticalDelta int `json:"critical_delta"`
	HighDelta     int `json:"high_delta"`
	MediumDelta   int `json:"medium_delta"`
	LowDelta      int `json:"low_delta"`
	InfoDelta     int `json:"info_delta"`
}

// newAnalysisMetadata summarizes a report for comparison.
func newAnalysisMetadata(simple *model.SimpleReport) AnalysisMetadata {
	return AnalysisMetadata{
		DateAnalyzed:  simple.DateAnalyzed,
		SHA256:        simple.SHA256,
		Size:          simple.Size,
		GlobalEntropy: simple.GlobalEntropy,
		TotalFindings: simple.TotalFindings(),
		CriticalCount: simple.CriticalCount,
		HighCount:     simple.HighCount,
		MediumCount:   simple.MediumCount,
		LowCount:      simple.LowCount,
		InfoCount:     simple.InfoCount,
	}
}

// compareReports compares two analysis reports and generates a comparison result.
// New and resolved findings keep the severity order of their reports.
func compareReports(previous, current *model.Report) *ComparisonResult {
	prevSimple := model.NewSimpleReport(previous)
	currSimple := model.NewSimpleReport(current)

	result := &ComparisonResult{
		Target:   current.Target,
		Previous: newAnalysisMetadata(prevSimple),
		Current:  newAnalysisMetadata(currSimple),
	}
	result.ContentChanged = result.Previous.SHA256 != result.Current.SHA256
	result.EntropyDelta = result.Current.GlobalEntropy - result.Previous.GlobalEntropy

	previousKeys := make(map[string]struct{}, len(prevSimple.Findings))
	for _, f := range prevSimple.Findings {
		previousKeys[findingKey(f)] = struct{}{}
	}
	currentKeys := make(map[string]struct{}, len(currSimple.Findings))
	for _, f := range currSimple.Findings {
		currentKeys[findingKey(f)] = struct{}{}
	}

	for _, f := range currSimple.Findings {
		if _, exists := previousKeys[findingKey(f)]; !exists {
			result.NewFindings = append(result.NewFindings, f)
		}
	}
	for _, f := range prevSimple.Findings {
		if _, exists := currentKeys[findingKey(f)]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		} else {
			result.UnchangedCount++
		}
	}

	result.RiskChange = calculateRiskChange(result.Previous, result.Current)
	return result
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.Value + "|" + f.Location
}

// calculateRiskChange calculates the change in risk between two analyses.
func calculateRiskChange(previous, current AnalysisMetadata) RiskChange {
	change := RiskChange{
		CriticalDelta: current.CriticalCount - previous.CriticalCount,
		HighDelta:     current.HighCount - previous.HighCount,
		MediumDelta:   current.MediumCount - previous.MediumCount,
		LowDelta:      current.LowCount - previous.LowCount,
		InfoDelta:     current.InfoCount - previous.InfoCount,
	}

	// Critical and High severity changes have more weight
	previousScore := riskScore(previous)
	currentScore := riskScore(current)

	switch {
	case currentScore < previousScore:
		change.Direction = riskDirectionImproved
	case currentScore > previousScore:
		change.Direction = riskDirectionWorsened
	default:
		change.Direction = riskDirectionUnchanged
	}

	return change
}

func riskScore(m AnalysisMetadata) int {
	return m.CriticalCount*100 + m.HighCount*50 + m.MediumCount*10 + m.LowCount*5 + m.InfoCount
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// severityRows returns the per-severity count rows shared by the
// Markdown and text outputs.
func severityRows(result *ComparisonResult) [][]string {
	p, c, d := result.Previous, result.Current, result.RiskChange
	return [][]string{
		{"Critical", strconv.Itoa(p.CriticalCount), strconv.Itoa(c.CriticalCount), formatDelta(d.CriticalDelta)},
		{"High", strconv.Itoa(p.HighCount), strconv.Itoa(c.HighCount), formatDelta(d.HighDelta)},
		{"Medium", strconv.Itoa(p.MediumCount), strconv.Itoa(c.MediumCount), formatDelta(d.MediumDelta)},
		{"Low", strconv.Itoa(p.LowCount), strconv.Itoa(c.LowCount), formatDelta(d.LowDelta)},
		{"Info", strconv.Itoa(p.InfoCount), strconv.Itoa(c.InfoCount), formatDelta(d.InfoDelta)},
	}
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(w)

	md.H1("Analysis Comparison: " + result.Target)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainText("**Risk Status:** " + formatRiskDirection(result.RiskChange.Direction))
	md.PlainText("")
	if result.ContentChanged {
		md.Warningf("Content changed: SHA-256 %s -> %s.",
			shortDigest(result.Previous.SHA256), shortDigest(result.Current.SHA256))
	} else {
		md.Note("Content unchanged: same SHA-256 digest.")
	}
	md.PlainText("")

	rows := [][]string{
		{"Date",
			result.Previous.DateAnalyzed.Format("2006-01-02 15:04"),
			result.Current.DateAnalyzed.Format("2006-01-02 15:04"),
			"-"},
		{"Size",
			strconv.FormatInt(result.Previous.Size, 10),
			strconv.FormatInt(result.Current.Size, 10),
			formatDelta(int(result.Current.Size - result.Previous.Size))},
		{"Global Entropy",
			strconv.FormatFloat(result.Previous.GlobalEntropy, 'f', 4, 64),
			strconv.FormatFloat(result.Current.GlobalEntropy, 'f', 4, 64),
			strconv.FormatFloat(result.EntropyDelta, 'f', 4, 64)},
	}
	rows = append(rows, severityRows(result)...)
	rows = append(rows, []string{"**Total**",
		"**" + strconv.Itoa(result.Previous.TotalFindings) + "**",
		"**" + strconv.Itoa(result.Current.TotalFindings) + "**",
		"**" + formatDelta(result.Current.TotalFindings-result.Previous.TotalFindings) + "**",
	})
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(result.NewFindings) > 0 {
		md.H2(fmt.Sprintf("New Findings (%d)", len(result.NewFindings)))
		md.PlainText("")
		md.BulletList(findingLines(result.NewFindings, "", "")...)
		md.PlainText("")
	}

	if len(result.ResolvedFindings) > 0 {
		md.H2(fmt.Sprintf("Resolved Findings (%d)", len(result.ResolvedFindings)))
		md.PlainText("")
		md.BulletList(findingLines(result.ResolvedFindings, "~~", "~~")...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainText(fmt.Sprintf("*%d findings unchanged*", result.UnchangedCount))
	}

	return md.Build()
}

// findingLines renders findings as Markdown list items wrapped in
// prefix and suffix.
func findingLines(findings []model.Finding, prefix, suffix string) []string {
	lines := make([]string, 0, len(findings))
	for _, f := range findings {
		line := fmt.Sprintf("%s**[%s]** %s: %s%s", prefix, f.SeverityText, f.Title, f.Value, suffix)
		if f.Location != "" {
			line += " (`" + f.Location + "`)"
		}
		lines = append(lines, line)
	}
	return lines
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis Comparison: %s\n", result.Target)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	fmt.Fprintf(&b, "\nRisk Status: %s\n", formatRiskDirection(result.RiskChange.Direction))

	fmt.Fprintf(&b, "\nPrevious analysis: %s  sha256 %s\n",
		result.Previous.DateAnalyzed.Format("2006-01-02 15:04:05"), shortDigest(result.Previous.SHA256))
	fmt.Fprintf(&b, "Current analysis:  %s  sha256 %s\n",
		result.Current.DateAnalyzed.Format("2006-01-02 15:04:05"), shortDigest(result.Current.SHA256))
	if result.ContentChanged {
		fmt.Fprintf(&b, "Content changed: size %s bytes, entropy %+.4f\n",
			formatDelta(int(result.Current.Size-result.Previous.Size)), result.EntropyDelta)
	} else {
		b.WriteString("Content unchanged\n")
	}

	b.WriteString("\nFindings Summary:\n")
	fmt.Fprintf(&b, "  %-10s  %-10s  %-10s  %-10s\n", "Severity", "Previous", "Current", "Change")
	b.WriteString("  " + strings.Repeat("-", 45) + "\n")
	for _, row := range severityRows(result) {
		fmt.Fprintf(&b, "  %-10s  %-10s  %-10s  %-10s\n", row[0], row[1], row[2], row[3])
	}
	b.WriteString("  " + strings.Repeat("-", 45) + "\n")
	fmt.Fprintf(&b, "  %-10s  %-10d  %-10d  %-10s\n", "Total",
		result.Previous.TotalFindings, result.Current.TotalFindings,
		formatDelta(result.Current.TotalFindings-result.Previous.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(&b, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(&b, "  [+] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
			if f.Location != "" {
				fmt.Fprintf(&b, "      Location: %s\n", f.Location)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(&b, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(&b, "  [-] [%s] %s: %s\n", f.SeverityText, f.Title, f.Value)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(&b, "\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// formatRiskDirection formats the risk change direction for display.
func formatRiskDirection(direction string) string {
	switch direction {
	case riskDirectionImproved:
		return "IMPROVED (risk decreased)"
	case riskDirectionWorsened:
		return "WORSENED (risk increased)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

