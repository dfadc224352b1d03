package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// maxChartPoints bounds the number of points in the entropy chart.
// Longer series are averaged into this many buckets.
const maxChartPoints = 64

// MarkdownWriter outputs reports in Markdown format for case notes and
// sharing. Severity distribution and the entropy series are rendered as
// mermaid charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	simple := model.NewSimpleReport(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, simple)
	w.writeSummary(md, simple)
	w.writeFileInfo(md, report)
	w.writeEntropy(md, report)
	w.writeSignatures(md, report)
	w.writeStrings(md, report)
	w.writeLSB(md, report)
	w.writeMetadata(md, report)
	w.writeFindings(md, simple)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSimple outputs the simple report in Markdown format.
func (w *MarkdownWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeFindings(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with target information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SimpleReport) {
	md.H1("blobscan Report")
	md.PlainText("")

	detected := "unknown"
	if len(report.DetectedTypes) > 0 {
		detected = strings.Join(report.DetectedTypes, ", ")
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Target", "`" + report.Target + "`"},
			{"Analyzed", report.DateAnalyzed.Format("2006-01-02 15:04:05 MST")},
			{"Size", strconv.FormatInt(report.Size, 10) + " bytes"},
			{"SHA-256", "`" + report.SHA256 + "`"},
			{"Detected Type", detected},
			{"Global Entropy", strconv.FormatFloat(report.GlobalEntropy, 'f', 4, 64)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.SimpleReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

// writeSummary writes the severity summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(report.CriticalCount)},
			{"🟠 High", strconv.Itoa(report.HighCount)},
			{"🟡 Medium", strconv.Itoa(report.MediumCount)},
			{"🔵 Low", strconv.Itoa(report.LowCount)},
			{"⚪ Info", strconv.Itoa(report.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(report.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if report.HasFindings() {
		w.writePieChart(md, report)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for severity distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.SimpleReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Severity Distribution"),
		piechart.WithShowData(true),
	)

	counts := []struct {
		label string
		n     int
	}{
		{"Critical", report.CriticalCount},
		{"High", report.HighCount},
		{"Medium", report.MediumCount},
		{"Low", report.LowCount},
		{"Info", report.InfoCount},
	}
	for _, c := range counts {
		if c.n > 0 {
			chart.LabelAndIntValue(c.label, uint64(c.n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the highest severity found.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.SimpleReport) {
	switch {
	case report.CriticalCount > 0:
		md.Cautionf(
			"Concealed or secret content detected. %d critical finding(s) need immediate review.",
			report.CriticalCount,
		)
	case report.HighCount > 0:
		md.Warningf(
			"Likely hidden or identifying content. %d high severity finding(s) should be reviewed.",
			report.HighCount,
		)
	case report.MediumCount > 0:
		md.Importantf(
			"%d finding(s) are worth a manual look.",
			report.MediumCount,
		)
	case report.TotalFindings() > 0:
		md.Note("Only low severity and informational findings detected.")
	default:
		md.Tip("Nothing suggests hidden content in this file.")
	}
	md.PlainText("")
}

// writeFileInfo writes the digest table.
func (w *MarkdownWriter) writeFileInfo(md *markdown.Markdown, report *model.Report) {
	fi := report.FileInfo
	if fi == nil {
		return
	}

	md.H2("File Information")
	md.PlainText("")
	rows := [][]string{
		{"Preview", "`" + fi.HexPreview + "`"},
		{"MD5", "`" + fi.Hashes.MD5 + "`"},
		{"SHA-1", "`" + fi.Hashes.SHA1 + "`"},
		{"SHA-256", "`" + fi.Hashes.SHA256 + "`"},
		{"SHA3-256", "`" + fi.Hashes.SHA3256 + "`"},
		{"BLAKE2b-256", "`" + fi.Hashes.BLAKE2b256 + "`"},
		{"XXH64", "`" + fi.Hashes.XXH64 + "`"},
	}
	if ts := fi.Timestamps; ts != nil {
		rows = append(rows, []string{"Modified", ts.Modified.Format("2006-01-02 15:04:05 MST")})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

// writeEntropy writes the entropy statistics and chart.
func (w *MarkdownWriter) writeEntropy(md *markdown.Markdown, report *model.Report) {
	e := report.Entropy
	if e == nil {
		return
	}

	md.H2("Entropy")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Measure", "Value"},
		Rows: [][]string{
			{"Global", formatFloat(e.Global)},
			{"Blocks", fmt.Sprintf("%d x %d bytes", len(e.Series), e.BlockSize)},
			{"Min / Max", formatFloat(e.Min) + " / " + formatFloat(e.Max)},
			{"Mean / Median", formatFloat(e.Mean) + " / " + formatFloat(e.Median)},
			{"Std. deviation", formatFloat(e.StdDev)},
			{"zstd ratio", formatFloat(e.ZstdRatio)},
			{"LZ4 ratio", formatFloat(e.LZ4Ratio)},
		},
	})
	md.PlainText("")

	if len(e.Series) > 1 {
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, entropyChart(e))
		md.PlainText("")
	}

	if len(e.HighRegions) > 0 {
		rows := make([][]string, len(e.HighRegions))
		for i, r := range e.HighRegions {
			rows[i] = []string{
				fmt.Sprintf("0x%08X", r.Start),
				fmt.Sprintf("0x%08X", r.End),
				strconv.Itoa(r.End - r.Start),
				formatFloat(r.Score),
			}
		}
		md.PlainText("### High-Entropy Regions")
		md.PlainText("")
		md.Table(markdown.TableSet{Header: []string{"Start", "End", "Bytes", "Mean"}, Rows: rows})
		md.PlainText("")
	}
}

// entropyChart renders the series as a mermaid xychart, averaging
// consecutive blocks when the series is longer than maxChartPoints.
func entropyChart(e *model.EntropySection) string {
	points, perPoint := downsample(e.Series, maxChartPoints)

	values := make([]string, len(points))
	for i, v := range points {
		values[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	fmt.Fprintf(&sb, "    title \"Entropy per %d-byte block\"\n", e.BlockSize*perPoint)
	fmt.Fprintf(&sb, "    x-axis \"Block\" 0 --> %d\n", len(points)-1)
	sb.WriteString("    y-axis \"Bits per byte\" 0 --> 8\n")
	fmt.Fprintf(&sb, "    line [%s]\n", strings.Join(values, ", "))
	return sb.String()
}

// downsample averages series into at most n buckets of equal width. It
// returns the buckets and the number of series points per bucket.
func downsample(series []float64, n int) ([]float64, int) {
	if len(series) <= n {
		return series, 1
	}
	per := (len(series) + n - 1) / n
	out := make([]float64, 0, n)
	for start := 0; start < len(series); start += per {
		end := min(start+per, len(series))
		var sum float64
		for _, v := range series[start:end] {
			sum += v
		}
		out = append(out, sum/float64(end-start))
	}
	return out, per
}

// writeSignatures writes the signature table.
func (w *MarkdownWriter) writeSignatures(md *markdown.Markdown, report *model.Report) {
	md.H2("Signatures")
	md.PlainText("")
	if len(report.Signatures) == 0 {
		md.PlainText("No signatures found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Signatures))
	for i, hit := range report.Signatures {
		rows[i] = []string{"`" + hit.OffsetHex + "`", hit.Name, hit.Description, hit.Family}
	}
	md.Table(markdown.TableSet{Header: []string{"Offset", "Name", "Description", "Family"}, Rows: rows})
	md.PlainText("")
}

// writeStrings writes the first strings.
func (w *MarkdownWriter) writeStrings(md *markdown.Markdown, report *model.Report) {
	if len(report.Strings) == 0 {
		return
	}

	shown := report.Strings
	if len(shown) > defaultStringsShown {
		shown = shown[:defaultStringsShown]
	}
	rows := make([][]string, len(shown))
	for i, s := range shown {
		rows[i] = []string{
			fmt.Sprintf("`0x%08X`", s.Offset),
			s.Encoding,
			"`" + escapeCell(truncateString(s.Value, 60)) + "`",
		}
	}

	md.H2(fmt.Sprintf("Strings (%d)", len(report.Strings)))
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Offset", "Encoding", "Value"}, Rows: rows})
	md.PlainText("")
}

// writeLSB writes the pixel LSB section.
func (w *MarkdownWriter) writeLSB(md *markdown.Markdown, report *model.Report) {
	lsb := report.LSB
	if lsb == nil {
		return
	}

	rows := [][]string{
		{"Image", fmt.Sprintf("%dx%d", lsb.Width, lsb.Height)},
		{"Payload", strconv.Itoa(lsb.PayloadSize) + " bytes"},
		{"Preview", "`" + lsb.PreviewHex + "`"},
		{"Printable prefix", strconv.Itoa(lsb.PrintablePrefix) + " bytes"},
		{"Entropy", formatFloat(lsb.Entropy)},
	}
	for _, hit := range lsb.Signatures {
		rows = append(rows, []string{"Signature", hit.Name + " (" + hit.Description + ")"})
	}

	md.H2("LSB Payload")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

// writeMetadata writes format metadata.
func (w *MarkdownWriter) writeMetadata(md *markdown.Markdown, report *model.Report) {
	meta := report.Metadata
	if meta == nil {
		return
	}

	rows := [][]string{{"Format", meta.Format}}
	if meta.Width > 0 {
		rows = append(rows, []string{"Dimensions", fmt.Sprintf("%dx%d", meta.Width, meta.Height)})
		rows = append(rows, []string{"Color model", meta.ColorModel})
	}
	if meta.PageCount > 0 {
		rows = append(rows, []string{"Pages", strconv.Itoa(meta.PageCount)})
	}
	for _, key := range slices.Sorted(maps.Keys(meta.Document)) {
		rows = append(rows, []string{key, escapeCell(meta.Document[key])})
	}
	for _, tag := range slices.Sorted(maps.Keys(meta.EXIF)) {
		rows = append(rows, []string{"EXIF " + tag, escapeCell(truncateString(meta.EXIF[tag], 60))})
	}

	md.H2("Metadata")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")
}

// writeFindings writes all findings grouped by severity.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, report *model.SimpleReport) {
	md.H2("Findings")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	severities := []struct {
		level  model.Severity
		header string
	}{
		{model.SeverityCritical, "### 🔴 Critical"},
		{model.SeverityHigh, "### 🟠 High"},
		{model.SeverityMedium, "### 🟡 Medium"},
		{model.SeverityLow, "### 🔵 Low"},
		{model.SeverityInfo, "### ⚪ Info"},
	}
	for _, sev := range severities {
		findings := report.GetFindingsBySeverity(sev.level)
		if len(findings) == 0 {
			continue
		}
		md.PlainText(sev.header)
		md.PlainText("")
		w.writeFindingsTable(md, findings)
	}
}

// writeFindingsTable writes a table of findings with details.
func (w *MarkdownWriter) writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	for i, f := range findings {
		rows[i] = []string{
			f.Title,
			escapeCell(truncateString(orDash(f.Value), 50)),
			truncateString(orDash(f.Location), 40),
			truncateString(orDash(f.Recommendation), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "Value", "Location", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range findings {
		if f.Description != "" {
			md.Details(f.Title, f.Description)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [blobscan](https://github.com/nao1215/blobscan)*")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escapeCell keeps extracted text from breaking the table layout.
func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "`", "'", "\n", " ").Replace(s)
}
