package model

import "time"

// Report is the result of analyzing one file.
// Sections are nil when the corresponding step was disabled or did not run.
type Report struct {
	// === Basic Information ===

	// Target is the path of the analyzed file ("-" for stdin).
	Target string `json:"target"`

	// DateAnalyzed is when the analysis started.
	DateAnalyzed time.Time `json:"date_analyzed"`

	// Data holds the raw bytes under analysis. It is never serialized
	// and is released by the pipeline after the last step.
	Data []byte `json:"-"`

	// === Sections ===

	// FileInfo holds size, hashes, preview and detected types.
	FileInfo *FileInfo `json:"file_info,omitempty"`

	// Entropy holds the global score and the block series.
	Entropy *EntropySection `json:"entropy,omitempty"`

	// Signatures lists every catalog signature found in the file,
	// ordered by offset.
	Signatures []SignatureHit `json:"signatures,omitempty"`

	// Strings lists extracted printable strings.
	Strings []ExtractedString `json:"strings,omitempty"`

	// LSB holds the pixel least-significant-bit payload, if the file
	// decoded as an image.
	LSB *LSBSection `json:"lsb,omitempty"`

	// Metadata holds format-specific metadata (image, EXIF, PDF).
	Metadata *Metadata `json:"metadata,omitempty"`

	// === Assessment ===

	// Findings are the assessed observations, ordered by severity.
	Findings []Finding `json:"findings,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// StepErrors records soft failures by step name, e.g. a file that did
	// not decode as an image for the LSB step.
	StepErrors map[string]string `json:"step_errors,omitempty"`

	// Error is the hard failure that stopped the analysis, if any.
	Error error `json:"-"`

	// ErrorMessage is Error's text for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// FileInfo describes the file as a whole.
type FileInfo struct {
	// Size is the file length in bytes.
	Size int64 `json:"size"`

	// HexPreview is the first 16 bytes as upper-case hex pairs.
	HexPreview string `json:"hex_preview"`

	// Hashes holds the digests of the whole file.
	Hashes Hashes `json:"hashes"`

	// DetectedTypes names the signatures that match at offset 0.
	DetectedTypes []string `json:"detected_types,omitempty"`

	// Timestamps holds file system times when the file came from disk.
	Timestamps *Timestamps `json:"timestamps,omitempty"`
}

// Hashes holds hex-encoded digests.
type Hashes struct {
	MD5        string `json:"md5"`
	SHA1       string `json:"sha1"`
	SHA256     string `json:"sha256"`
	SHA3256    string `json:"sha3_256"`
	BLAKE2b256 string `json:"blake2b_256"`
	XXH64      string `json:"xxh64"`
}

// Timestamps holds file system times.
// Accessed and Changed are nil on platforms that do not expose them.
type Timestamps struct {
	Modified time.Time  `json:"modified"`
	Accessed *time.Time `json:"accessed,omitempty"`
	Changed  *time.Time `json:"changed,omitempty"`
}

// EntropySection holds entropy measurements.
type EntropySection struct {
	// Global is the Shannon entropy of the whole file in bits per byte.
	Global float64 `json:"global"`

	// BlockSize is the block length used for Series.
	BlockSize int `json:"block_size"`

	// Series holds one score per block, in file order.
	Series []float64 `json:"series"`

	// Min, Max, Mean, Median and StdDev summarize Series.
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`

	// HighRegions are runs of blocks at or above the threshold.
	HighRegions []ByteRange `json:"high_regions,omitempty"`

	// ZstdRatio and LZ4Ratio are original size divided by compressed size.
	ZstdRatio float64 `json:"zstd_ratio,omitempty"`
	LZ4Ratio  float64 `json:"lz4_ratio,omitempty"`
}

// ByteRange is a half-open byte range [Start, End).
type ByteRange struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// SignatureHit is one signature occurrence.
type SignatureHit struct {
	Offset      int    `json:"offset"`
	OffsetHex   string `json:"offset_hex"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Family      string `json:"family"`
}

// ExtractedString is one printable string.
type ExtractedString struct {
	Value    string `json:"value"`
	Encoding string `json:"encoding"`
	Offset   int    `json:"offset"`
}

// LSBSection describes the pixel least-significant-bit payload.
type LSBSection struct {
	// Width and Height are the image dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// PayloadSize is the number of recovered bytes.
	PayloadSize int `json:"payload_size"`

	// PreviewHex is the first bytes of the payload as hex pairs.
	PreviewHex string `json:"preview_hex"`

	// PrintablePrefix is the length of the leading run of printable
	// ASCII bytes in the payload.
	PrintablePrefix int `json:"printable_prefix"`

	// Entropy is the Shannon entropy of the payload.
	Entropy float64 `json:"entropy"`

	// Signatures lists signatures found at offset 0 of the payload.
	Signatures []SignatureHit `json:"signatures,omitempty"`

	// Strings lists printable strings found in the payload.
	Strings []ExtractedString `json:"strings,omitempty"`
}

// Metadata holds format-specific properties.
type Metadata struct {
	// Extractor names the extractor that recognized the data.
	Extractor string `json:"extractor"`

	// Format is the detected format name ("png", "jpeg", "pdf").
	Format string `json:"format"`

	// Width and Height are image dimensions in pixels.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// ColorModel names the decoded colour model ("RGBA", "Gray", ...).
	ColorModel string `json:"color_model,omitempty"`

	// EXIF maps EXIF tag names to their formatted values.
	EXIF map[string]string `json:"exif,omitempty"`

	// HasGPS is true when EXIF carries GPS coordinates.
	HasGPS bool `json:"has_gps,omitempty"`

	// Document maps document properties (Title, Author, ...) to values.
	Document map[string]string `json:"document,omitempty"`

	// PageCount is the number of pages of a document.
	PageCount int `json:"page_count,omitempty"`
}

// NewReport creates a Report for target holding data.
func NewReport(target string, data []byte) *Report {
	return &Report{
		Target:       target,
		DateAnalyzed: time.Now(),
		Data:         data,
		StepErrors:   make(map[string]string),
	}
}

// SetError records a hard failure.
func (r *Report) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddStepError records a soft failure for step.
func (r *Report) AddStepError(step string, err error) {
	if err == nil {
		return
	}
	if r.StepErrors == nil {
		r.StepErrors = make(map[string]string)
	}
	r.StepErrors[step] = err.Error()
}

// AddFinding appends a finding unless an identical one (type, value and
// location) is already present.
func (r *Report) AddFinding(finding Finding) {
	for _, f := range r.Findings {
		if f.Type == finding.Type && f.Value == finding.Value && f.Location == finding.Location {
			return
		}
	}
	r.Findings = append(r.Findings, finding)
}

// SHA256 returns the file's SHA-256 digest, or "" if FileInfo is missing.
func (r *Report) SHA256() string {
	if r.FileInfo == nil {
		return ""
	}
	return r.FileInfo.Hashes.SHA256
}
