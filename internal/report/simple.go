package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/nao1215/blobscan/internal/model"
)

// defaultStringsShown is the number of strings printed unless verbose.
const defaultStringsShown = 20

// SimpleWriter outputs human-readable text reports for terminal display.
// It uses plain ASCII formatting so that output can be piped to files.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables finding descriptions and the full string list.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report: every analysis section followed by the
// severity summary and findings.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	simple := model.NewSimpleReport(report)

	var sb strings.Builder
	w.writeHeader(&sb, simple)
	w.writeFileInfo(&sb, report)
	w.writeEntropy(&sb, report)
	w.writeSignatures(&sb, report)
	w.writeStrings(&sb, report)
	w.writeLSB(&sb, report)
	w.writeMetadata(&sb, report)
	w.writeSummary(&sb, simple)
	w.writeFindings(&sb, simple)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSimple outputs the header, severity summary and findings only.
func (w *SimpleWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func writeSectionTitle(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with target information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          BLOBSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:         %s\n", report.Target)
	fmt.Fprintf(sb, "Analyzed:       %s\n", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Size:           %d bytes\n", report.Size)

	if len(report.DetectedTypes) > 0 {
		fmt.Fprintf(sb, "Detected Type:  %s\n", strings.Join(report.DetectedTypes, ", "))
	} else {
		sb.WriteString("Detected Type:  unknown\n")
	}

	if report.Error != "" {
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", report.Error)
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

// writeFileInfo writes hashes, preview and timestamps.
func (w *SimpleWriter) writeFileInfo(sb *strings.Builder, report *model.Report) {
	fi := report.FileInfo
	if fi == nil {
		return
	}

	writeSectionTitle(sb, "FILE INFORMATION")
	fmt.Fprintf(sb, "  Preview:      %s\n", fi.HexPreview)
	fmt.Fprintf(sb, "  MD5:          %s\n", fi.Hashes.MD5)
	fmt.Fprintf(sb, "  SHA-1:        %s\n", fi.Hashes.SHA1)
	fmt.Fprintf(sb, "  SHA-256:      %s\n", fi.Hashes.SHA256)
	fmt.Fprintf(sb, "  SHA3-256:     %s\n", fi.Hashes.SHA3256)
	fmt.Fprintf(sb, "  BLAKE2b-256:  %s\n", fi.Hashes.BLAKE2b256)
	fmt.Fprintf(sb, "  XXH64:        %s\n", fi.Hashes.XXH64)
	if ts := fi.Timestamps; ts != nil {
		fmt.Fprintf(sb, "  Modified:     %s\n", ts.Modified.Format("2006-01-02 15:04:05 MST"))
		if ts.Accessed != nil {
			fmt.Fprintf(sb, "  Accessed:     %s\n", ts.Accessed.Format("2006-01-02 15:04:05 MST"))
		}
		if ts.Changed != nil {
			fmt.Fprintf(sb, "  Changed:      %s\n", ts.Changed.Format("2006-01-02 15:04:05 MST"))
		}
	}
	sb.WriteString("\n")
}

// writeEntropy writes the entropy section.
func (w *SimpleWriter) writeEntropy(sb *strings.Builder, report *model.Report) {
	e := report.Entropy
	if e == nil {
		return
	}

	writeSectionTitle(sb, "ENTROPY")
	fmt.Fprintf(sb, "  Global:       %.4f bits/byte\n", e.Global)
	fmt.Fprintf(sb, "  Blocks:       %d x %d bytes\n", len(e.Series), e.BlockSize)
	if len(e.Series) > 0 {
		fmt.Fprintf(sb, "  Block range:  %.4f - %.4f (mean %.4f, median %.4f, stddev %.4f)\n",
			e.Min, e.Max, e.Mean, e.Median, e.StdDev)
	}
	if e.ZstdRatio > 0 || e.LZ4Ratio > 0 {
		fmt.Fprintf(sb, "  Compression:  zstd %.2fx, lz4 %.2fx\n", e.ZstdRatio, e.LZ4Ratio)
	}
	if len(e.HighRegions) > 0 {
		sb.WriteString("  High-entropy regions:\n")
		for _, r := range e.HighRegions {
			fmt.Fprintf(sb, "    0x%08X - 0x%08X  (%d bytes, %.4f)\n", r.Start, r.End, r.End-r.Start, r.Score)
		}
	}
	sb.WriteString("\n")
}

// writeSignatures writes every signature hit.
func (w *SimpleWriter) writeSignatures(sb *strings.Builder, report *model.Report) {
	if len(report.Signatures) == 0 && !w.showEmpty {
		return
	}

	writeSectionTitle(sb, fmt.Sprintf("SIGNATURES (%d)", len(report.Signatures)))
	if len(report.Signatures) == 0 {
		sb.WriteString("  No signatures found\n")
	}
	for _, hit := range report.Signatures {
		fmt.Fprintf(sb, "  %s  %-22s %s\n", hit.OffsetHex, hit.Name, hit.Description)
	}
	sb.WriteString("\n")
}

// writeStrings writes extracted strings, truncated unless verbose.
func (w *SimpleWriter) writeStrings(sb *strings.Builder, report *model.Report) {
	if len(report.Strings) == 0 && !w.showEmpty {
		return
	}

	writeSectionTitle(sb, fmt.Sprintf("STRINGS (%d)", len(report.Strings)))
	shown := report.Strings
	if !w.verbose && len(shown) > defaultStringsShown {
		shown = shown[:defaultStringsShown]
	}
	for _, s := range shown {
		fmt.Fprintf(sb, "  0x%08X  %-8s %s\n", s.Offset, s.Encoding, truncateString(s.Value, 80))
	}
	if len(shown) < len(report.Strings) {
		fmt.Fprintf(sb, "  ... %d more (use --verbose to show all)\n", len(report.Strings)-len(shown))
	}
	if len(report.Strings) == 0 {
		sb.WriteString("  No strings found\n")
	}
	sb.WriteString("\n")
}

// writeLSB writes the pixel LSB payload section.
func (w *SimpleWriter) writeLSB(sb *strings.Builder, report *model.Report) {
	lsb := report.LSB
	if lsb == nil {
		return
	}

	writeSectionTitle(sb, "LSB PAYLOAD")
	fmt.Fprintf(sb, "  Image:        %dx%d\n", lsb.Width, lsb.Height)
	fmt.Fprintf(sb, "  Payload:      %d bytes\n", lsb.PayloadSize)
	fmt.Fprintf(sb, "  Preview:      %s\n", lsb.PreviewHex)
	fmt.Fprintf(sb, "  Printable:    %d leading bytes\n", lsb.PrintablePrefix)
	fmt.Fprintf(sb, "  Entropy:      %.4f bits/byte\n", lsb.Entropy)
	for _, hit := range lsb.Signatures {
		fmt.Fprintf(sb, "  Signature:    %s (%s)\n", hit.Name, hit.Description)
	}
	for _, s := range lsb.Strings {
		fmt.Fprintf(sb, "  String:       %s\n", truncateString(s.Value, 80))
	}
	sb.WriteString("\n")
}

// writeMetadata writes format metadata.
func (w *SimpleWriter) writeMetadata(sb *strings.Builder, report *model.Report) {
	meta := report.Metadata
	if meta == nil {
		return
	}

	writeSectionTitle(sb, "METADATA")
	fmt.Fprintf(sb, "  Format:       %s\n", meta.Format)
	if meta.Width > 0 {
		fmt.Fprintf(sb, "  Dimensions:   %dx%d %s\n", meta.Width, meta.Height, meta.ColorModel)
	}
	if meta.PageCount > 0 {
		fmt.Fprintf(sb, "  Pages:        %d\n", meta.PageCount)
	}
	for _, key := range slices.Sorted(maps.Keys(meta.Document)) {
		fmt.Fprintf(sb, "  %-13s %s\n", key+":", meta.Document[key])
	}
	if len(meta.EXIF) > 0 {
		fmt.Fprintf(sb, "  EXIF tags:    %d\n", len(meta.EXIF))
		for _, tag := range slices.Sorted(maps.Keys(meta.EXIF)) {
			fmt.Fprintf(sb, "    %-24s %s\n", tag, truncateString(meta.EXIF[tag], 60))
		}
	}
	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SimpleReport) {
	writeSectionTitle(sb, "SEVERITY SUMMARY")
	fmt.Fprintf(sb, "  CRITICAL: %d\n", report.CriticalCount)
	fmt.Fprintf(sb, "  HIGH:     %d\n", report.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", report.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", report.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n", report.InfoCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d findings\n", report.TotalFindings())
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SimpleReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	writeSectionTitle(sb, "FINDINGS")
	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityInfo,
	}
	for _, severity := range severities {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", w.getSeverityIndicator(severity), severity.String())

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		fmt.Fprintf(sb, "  * %s\n", finding.Title)
		if finding.Value != "" {
			fmt.Fprintf(sb, "    Value: %s\n", truncateString(finding.Value, 100))
		}
		if finding.Location != "" {
			fmt.Fprintf(sb, "    Location: %s\n", finding.Location)
		}
		if w.verbose && finding.Description != "" {
			fmt.Fprintf(sb, "    Description: %s\n", finding.Description)
		}
		if w.verbose && finding.Recommendation != "" {
			fmt.Fprintf(sb, "    Recommendation: %s\n", finding.Recommendation)
		}
	}
	sb.WriteString("\n")
}

// getSeverityIndicator returns a visual indicator for the severity level.
func (w *SimpleWriter) getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by blobscan\n")
	sb.WriteString("https://github.com/nao1215/blobscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
