package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/blobscan/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport("evidence/holiday.png", nil)
	report.DateAnalyzed = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report.FileInfo = &model.FileInfo{
		Size:          4096,
		HexPreview:    "89 50 4E 47 0D 0A 1A 0A",
		Hashes:        model.Hashes{SHA256: "deadbeef"},
		DetectedTypes: []string{"PNG Header"},
	}
	report.Entropy = &model.EntropySection{
		Global:    7.91,
		BlockSize: 256,
		Series:    []float64{7.5, 7.9, 8.0, 7.95},
		Min:       7.5,
		Max:       8.0,
		Mean:      7.8375,
		Median:    7.925,
		HighRegions: []model.ByteRange{
			{Start: 0x100, End: 0x400, Score: 7.95},
		},
	}
	report.Signatures = []model.SignatureHit{
		{Offset: 0, OffsetHex: "0x00000000", Name: "png", Description: "PNG Header", Family: "image"},
		{Offset: 0x800, OffsetHex: "0x00000800", Name: "zip", Description: "ZIP Archive", Family: "archive"},
	}
	report.Strings = []model.ExtractedString{
		{Value: "IHDR", Encoding: "ascii", Offset: 12},
		{Value: "secret plan", Encoding: "utf-16le", Offset: 0x900},
	}
	report.LSB = &model.LSBSection{
		Width:           32,
		Height:          32,
		PayloadSize:     384,
		PreviewHex:      "50 4B 03 04",
		PrintablePrefix: 2,
		Signatures: []model.SignatureHit{
			{Offset: 0, OffsetHex: "0x00000000", Name: "zip", Description: "ZIP Archive", Family: "archive"},
		},
	}
	report.Metadata = &model.Metadata{
		Format:     "png",
		Width:      32,
		Height:     32,
		ColorModel: "NRGBA",
		EXIF:       map[string]string{"Model": "Pixel 7"},
	}

	report.AddFinding(model.NewFinding(model.FindingLSBEmbeddedFile,
		"File hidden in pixel LSBs", "The LSB payload starts with a ZIP header.", "zip", "lsb payload"))
	report.AddFinding(model.NewFinding(model.FindingEmbeddedFile,
		"Embedded file", "ZIP Archive found at 0x00000800.", "zip", "0x00000800"))
	report.AddFinding(model.NewFinding(model.FindingEXIFDevice,
		"Capture device in EXIF", "Model identifies the capture device.", "Pixel 7", "exif:Model"))

	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "BLOBSCAN REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "evidence/holiday.png") {
			t.Error("expected output to contain target")
		}
		if !strings.Contains(output, "Detected Type:  PNG Header") {
			t.Error("expected output to contain detected type")
		}
	})

	t.Run("writes analysis sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"FILE INFORMATION",
			"Global:       7.9100 bits/byte",
			"0x00000100 - 0x00000400  (768 bytes, 7.9500)",
			"SIGNATURES (2)",
			"0x00000800",
			"STRINGS (2)",
			"secret plan",
			"LSB PAYLOAD",
			"Signature:    zip (ZIP Archive)",
			"METADATA",
			"Pixel 7",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes severity summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SEVERITY SUMMARY") {
			t.Error("expected output to contain severity summary")
		}
		if !strings.Contains(output, "CRITICAL: 1") {
			t.Error("expected one critical finding")
		}
		if !strings.Contains(output, "TOTAL:    3 findings") {
			t.Error("expected three findings in total")
		}
	})

	t.Run("writes findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "File hidden in pixel LSBs") {
			t.Error("expected output to contain LSB finding")
		}
		if !strings.Contains(output, "Location: exif:Model") {
			t.Error("expected output to contain finding location")
		}
		if strings.Contains(output, "Recommendation:") {
			t.Error("recommendations should only be shown in verbose mode")
		}
	})

	t.Run("hides empty sections by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		report := model.NewReport("empty.bin", nil)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "SIGNATURES") {
			t.Error("expected empty signatures section to be hidden")
		}
		if strings.Contains(output, "FINDINGS") {
			t.Error("expected empty findings section to be hidden")
		}
	})

	t.Run("shows empty sections when enabled", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		report := model.NewReport("empty.bin", nil)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No signatures found") {
			t.Error("expected empty signatures message")
		}
		if !strings.Contains(output, "No strings found") {
			t.Error("expected empty strings message")
		}
		if !strings.Contains(output, "No findings") {
			t.Error("expected empty findings message")
		}
	})
}

// TestSimpleWriterStringsLimit tests that long string lists are cut unless verbose.
func TestSimpleWriterStringsLimit(t *testing.T) {
	t.Parallel()

	newReport := func() *model.Report {
		report := model.NewReport("strings.bin", nil)
		for i := range defaultStringsShown + 5 {
			report.Strings = append(report.Strings, model.ExtractedString{
				Value:    fmt.Sprintf("string-%02d", i),
				Encoding: "ascii",
				Offset:   i * 16,
			})
		}
		return report
	}

	t.Run("truncates by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "... 5 more") {
			t.Error("expected remaining count line")
		}
		if strings.Contains(output, "string-24") {
			t.Error("expected last string to be hidden")
		}
	})

	t.Run("shows everything in verbose mode", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(newReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "string-24") {
			t.Error("expected last string in verbose mode")
		}
		if strings.Contains(output, "more (use --verbose") {
			t.Error("expected no remaining count line in verbose mode")
		}
	})
}

// TestSimpleWriterSeverityIndicators tests severity indicator output.
func TestSimpleWriterSeverityIndicators(t *testing.T) {
	t.Parallel()

	w := &SimpleWriter{}
	tests := []struct {
		severity model.Severity
		expected string
	}{
		{model.SeverityCritical, "!!!"},
		{model.SeverityHigh, "!!"},
		{model.SeverityMedium, "!"},
		{model.SeverityLow, "-"},
		{model.SeverityInfo, "i"},
		{model.Severity(99), "?"},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			t.Parallel()
			if got := w.getSeverityIndicator(tt.severity); got != tt.expected {
				t.Errorf("getSeverityIndicator(%v) = %q, want %q", tt.severity, got, tt.expected)
			}
		})
	}
}

// TestSimpleWriterWithError tests report with error status.
func TestSimpleWriterWithError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf)
	report := model.NewReport("missing.bin", nil)
	report.SetError(errors.New("open missing.bin: no such file or directory"))

	if _, err := w.Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Status:         ERROR - open missing.bin") {
		t.Errorf("expected error status, got:\n%s", output)
	}
}

// TestSimpleWriterWriteSimple tests the summary-only output.
func TestSimpleWriterWriteSimple(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf, WithVerbose(true))
	simple := model.NewSimpleReport(createTestReport())

	if _, err := w.WriteSimple(simple); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "SEVERITY SUMMARY") {
		t.Error("expected severity summary")
	}
	if !strings.Contains(output, "Recommendation:") {
		t.Error("expected recommendations in verbose mode")
	}
	if strings.Contains(output, "LSB PAYLOAD") {
		t.Error("summary output should not contain analysis sections")
	}
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes compact json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Count(output, "\n") != 1 {
			t.Errorf("expected a single line of output, got %q", output)
		}

		var decoded map[string]any
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded["target"] != "evidence/holiday.png" {
			t.Errorf("target = %v, want evidence/holiday.png", decoded["target"])
		}
		if _, ok := decoded["entropy"]; !ok {
			t.Error("expected entropy section")
		}
	})

	t.Run("never serializes raw data", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		report := createTestReport()
		report.Data = []byte("raw-file-bytes")

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "raw-file-bytes") {
			t.Error("expected Data to be omitted")
		}
	})

	t.Run("writes simple report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.WriteSimple(model.NewSimpleReport(createTestReport())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.SimpleReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.CriticalCount != 1 {
			t.Errorf("CriticalCount = %d, want 1", decoded.CriticalCount)
		}
		if len(decoded.Findings) != 3 {
			t.Errorf("len(Findings) = %d, want 3", len(decoded.Findings))
		}
	})
}

// TestWithIndent tests indented JSON output.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("pretty print uses two spaces", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"target\"") {
			t.Errorf("expected two-space indentation, got:\n%s", buf.String())
		}
	})

	t.Run("custom indent is applied", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent("", "\t"))

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n\t\"target\"") {
			t.Errorf("expected tab indentation, got:\n%s", buf.String())
		}
	})
}

// TestFullJSONWriter tests the versioned JSON wrapper.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewFullJSONWriter(&buf, "v1.2.3")

	if _, err := w.Write(createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Version string             `json:"version"`
		Report  map[string]any     `json:"report"`
		Summary model.SimpleReport `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Version != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3", decoded.Version)
	}
	if decoded.Report["target"] != "evidence/holiday.png" {
		t.Errorf("report target = %v", decoded.Report["target"])
	}
	if decoded.Summary.TotalFindings() != 3 {
		t.Errorf("summary findings = %d, want 3", decoded.Summary.TotalFindings())
	}
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to every writer", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		n, err := m.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
		if !strings.Contains(text.String(), "BLOBSCAN REPORT") {
			t.Error("expected text output")
		}
		if !json.Valid(js.Bytes()) {
			t.Error("expected valid JSON output")
		}
	})

	t.Run("writes simple report to every writer", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

		if _, err := m.WriteSimple(model.NewSimpleReport(createTestReport())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected output from both writers")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var js bytes.Buffer
		m := NewMultiWriter(NewSimpleWriter(failingWriter{}), NewJSONWriter(&js))

		if _, err := m.Write(createTestReport()); err == nil {
			t.Fatal("expected error")
		}
		if js.Len() != 0 {
			t.Error("expected second writer not to run")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# blobscan Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "evidence/holiday.png") {
			t.Error("expected output to contain target")
		}
		if !strings.Contains(output, "✅ Complete") {
			t.Error("expected complete status")
		}
	})

	t.Run("writes severity summary with chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Severity Summary") {
			t.Error("expected output to contain severity summary header")
		}
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected mermaid code block")
		}
		if !strings.Contains(output, "Finding Severity Distribution") {
			t.Error("expected pie chart title")
		}
	})

	t.Run("writes entropy chart and regions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "xychart-beta") {
			t.Error("expected entropy xychart")
		}
		if !strings.Contains(output, "line [7.500, 7.900, 8.000, 7.950]") {
			t.Error("expected entropy series in chart")
		}
		if !strings.Contains(output, "### High-Entropy Regions") {
			t.Error("expected regions table")
		}
	})

	t.Run("writes analysis sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"## Signatures",
			"ZIP Archive",
			"## Strings (2)",
			"## LSB Payload",
			"## Metadata",
			"EXIF Model",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("writes findings and footer", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Findings") {
			t.Error("expected output to contain findings header")
		}
		if !strings.Contains(output, "### 🔴 Critical") {
			t.Error("expected critical findings group")
		}
		if !strings.Contains(output, "https://github.com/nao1215/blobscan") {
			t.Error("expected footer with repository link")
		}
	})

	t.Run("writes simple report without sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.WriteSimple(model.NewSimpleReport(createTestReport())); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "## LSB Payload") {
			t.Error("summary output should not contain analysis sections")
		}
		if !strings.Contains(output, "## Findings") {
			t.Error("expected findings")
		}
	})

	t.Run("reports no findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(model.NewReport("plain.txt", nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No findings.") {
			t.Error("expected no findings message")
		}
	})
}

// TestMarkdownWriterWithError tests report with error status.
func TestMarkdownWriterWithError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)
	report := model.NewReport("missing.bin", nil)
	report.SetError(errors.New("permission denied"))

	if _, err := w.Write(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Error") {
		t.Error("expected Error in status")
	}
	if !strings.Contains(output, "permission denied") {
		t.Error("expected error message in output")
	}
}

// TestDownsample tests bucket averaging of the entropy series.
func TestDownsample(t *testing.T) {
	t.Parallel()

	t.Run("short series is unchanged", func(t *testing.T) {
		t.Parallel()

		series := []float64{1, 2, 3}
		got, per := downsample(series, 4)
		if per != 1 || len(got) != 3 {
			t.Errorf("downsample() = %v, %d; want unchanged series", got, per)
		}
	})

	t.Run("long series is averaged", func(t *testing.T) {
		t.Parallel()

		series := []float64{0, 2, 4, 6, 8}
		got, per := downsample(series, 2)
		if per != 3 {
			t.Errorf("per = %d, want 3", per)
		}
		want := []float64{2, 7}
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})
}

// TestEscapeCell tests table cell escaping.
func TestEscapeCell(t *testing.T) {
	t.Parallel()

	got := escapeCell("a|b`c\nd")
	if got != `a\|b'c d` {
		t.Errorf("escapeCell() = %q", got)
	}
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
		{"日本語のテキスト", 5, "日本..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
