package model

import (
	"cmp"
	"slices"
	"time"
)

// SimpleReport is a summarized, human-readable report.
// It extracts key facts and findings from the full analysis report for
// quick review.
type SimpleReport struct {
	// Target is the analyzed file.
	Target string `json:"target"`

	// DateAnalyzed is when the analysis was performed.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// === File Summary ===

	// Size is the file length in bytes.
	Size int64 `json:"size"`

	// SHA256 is the file digest.
	SHA256 string `json:"sha256,omitempty"`

	// DetectedTypes names the signatures at offset 0.
	DetectedTypes []string `json:"detected_types,omitempty"`

	// GlobalEntropy is the whole-file entropy in bits per byte.
	GlobalEntropy float64 `json:"global_entropy"`

	// SignatureCount is the number of signature occurrences.
	SignatureCount int `json:"signature_count"`

	// StringCount is the number of extracted strings.
	StringCount int `json:"string_count"`

	// LSBPayloadSize is the size of the pixel LSB payload, 0 when the
	// file is not an image.
	LSBPayloadSize int `json:"lsb_payload_size"`

	// === Severity Summary ===

	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
	MediumCount   int `json:"medium_count"`
	LowCount      int `json:"low_count"`
	InfoCount     int `json:"info_count"`

	// === Findings ===

	// Findings are ordered from most to least severe.
	Findings []Finding `json:"findings,omitempty"`

	// Error contains any error message if the analysis failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single assessed observation.
type Finding struct {
	// Type is the finding type identifier.
	// This maps to findingInfoMapping in severity.go.
	Type string `json:"type"`

	// Severity is the risk level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Title is a short description of the finding.
	Title string `json:"title"`

	// Description provides more detail about the finding.
	Description string `json:"description,omitempty"`

	// Impact explains what the finding means for the investigation.
	Impact string `json:"impact,omitempty"`

	// Recommendation suggests the next step.
	Recommendation string `json:"recommendation,omitempty"`

	// Value is the specific value found (signature name, tag value, ...).
	Value string `json:"value,omitempty"`

	// Location is where the finding was observed, usually a byte offset.
	Location string `json:"location,omitempty"`
}

// NewSimpleReport creates a SimpleReport from a Report.
func NewSimpleReport(report *Report) *SimpleReport {
	simple := &SimpleReport{
		Target:         report.Target,
		DateAnalyzed:   report.DateAnalyzed,
		SignatureCount: len(report.Signatures),
		StringCount:    len(report.Strings),
		Error:          report.ErrorMessage,
	}

	if report.FileInfo != nil {
		simple.Size = report.FileInfo.Size
		simple.SHA256 = report.FileInfo.Hashes.SHA256
		simple.DetectedTypes = report.FileInfo.DetectedTypes
	}
	if report.Entropy != nil {
		simple.GlobalEntropy = report.Entropy.Global
	}
	if report.LSB != nil {
		simple.LSBPayloadSize = report.LSB.PayloadSize
	}

	simple.Findings = slices.Clone(report.Findings)
	slices.SortStableFunc(simple.Findings, func(a, b Finding) int {
		return cmp.Compare(b.Severity, a.Severity)
	})
	simple.countBySeverity()

	return simple
}

// countBySeverity counts findings by severity level.
func (s *SimpleReport) countBySeverity() {
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}

// TotalFindings returns the total number of findings.
func (s *SimpleReport) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings returns true if there are any findings.
func (s *SimpleReport) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsBySeverity returns findings filtered by severity.
func (s *SimpleReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// HighestSeverity returns the most severe finding level, or SeverityInfo
// when there are no findings.
func (s *SimpleReport) HighestSeverity() Severity {
	if len(s.Findings) == 0 {
		return SeverityInfo
	}
	return s.Findings[0].Severity
}
