package printable

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/nao1215/blobscan/internal/model"
)

const (
	// DefaultMinLength is the shortest run reported, in characters.
	DefaultMinLength = 4

	// DefaultMaxResults caps the number of strings returned.
	DefaultMaxResults = 1000
)

// Encoding names the byte encoding a string was found in.
type Encoding string

const (
	// ASCII strings are runs of bytes 0x20-0x7E.
	ASCII Encoding = "ascii"

	// UTF16LE strings are runs of (0x20-0x7E, 0x00) byte pairs.
	UTF16LE Encoding = "utf-16le"
)

// String is one extracted string.
type String struct {
	// Value is the decoded text.
	Value string

	// Encoding is the encoding of the run it was decoded from.
	Encoding Encoding

	// Offset is the byte position where the run starts.
	Offset int
}

// Extractor extracts printable strings from byte buffers.
// An Extractor is immutable and safe for concurrent use.
type Extractor struct {
	minLength  int
	maxResults int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinLength sets the minimum run length in characters.
func WithMinLength(n int) Option {
	return func(e *Extractor) {
		e.minLength = n
	}
}

// WithMaxResults sets the maximum number of strings returned.
func WithMaxResults(n int) Option {
	return func(e *Extractor) {
		e.maxResults = n
	}
}

// NewExtractor creates an Extractor. Non-positive limits are rejected with
// a *model.ValidationError.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		minLength:  DefaultMinLength,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.minLength <= 0 {
		return nil, model.NewValidationError("min_length", e.minLength, "must be positive")
	}
	if e.maxResults <= 0 {
		return nil, model.NewValidationError("max_results", e.maxResults, "must be positive")
	}
	return e, nil
}

// MinLength returns the configured minimum run length.
func (e *Extractor) MinLength() int {
	return e.minLength
}

// MaxResults returns the configured result cap.
func (e *Extractor) MaxResults() int {
	return e.maxResults
}

// Extract returns the printable strings in data: every ASCII run in
// buffer order, then every UTF-16LE run in buffer order, with exact
// duplicates removed (the first occurrence is kept) and the result
// truncated to the configured cap.
//
// The two passes read the same bytes independently, so a region may
// contribute to both.
func (e *Extractor) Extract(data []byte) ([]String, error) {
	found := e.asciiRuns(data)
	wide, err := e.utf16Runs(data)
	if err != nil {
		return nil, err
	}
	found = append(found, wide...)

	seen := make(map[string]struct{}, len(found))
	result := make([]String, 0, min(len(found), e.maxResults))
	for _, s := range found {
		if len(result) == e.maxResults {
			break
		}
		if _, dup := seen[s.Value]; dup {
			continue
		}
		seen[s.Value] = struct{}{}
		result = append(result, s)
	}
	return result, nil
}

// asciiRuns returns maximal runs of printable ASCII of at least minLength bytes.
func (e *Extractor) asciiRuns(data []byte) []String {
	var out []String
	start := -1
	for i, b := range data {
		if isPrintable(b) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 && i-start >= e.minLength {
			out = append(out, String{Value: string(data[start:i]), Encoding: ASCII, Offset: start})
		}
		start = -1
	}
	if start >= 0 && len(data)-start >= e.minLength {
		out = append(out, String{Value: string(data[start:]), Encoding: ASCII, Offset: start})
	}
	return out
}

// utf16Runs returns leftmost, maximal runs of at least minLength
// (printable, 0x00) pairs. A run may start at any byte alignment; scanning
// resumes after the end of each reported run.
func (e *Extractor) utf16Runs(data []byte) ([]String, error) {
	var (
		out []String
		dec *encoding.Decoder
	)
	for i := 0; i+1 < len(data); {
		pairs := 0
		for j := i; j+1 < len(data) && isPrintable(data[j]) && data[j+1] == 0x00; j += 2 {
			pairs++
		}
		if pairs < e.minLength {
			i++
			continue
		}

		if dec == nil {
			dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		}
		end := i + 2*pairs
		text, err := dec.Bytes(data[i:end])
		if err != nil {
			return nil, fmt.Errorf("failed to decode UTF-16LE run at offset %d: %w", i, err)
		}
		out = append(out, String{Value: string(text), Encoding: UTF16LE, Offset: i})
		i = end
	}
	return out, nil
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

// Values returns the text of each string.
func Values(strs []String) []string {
	out := make([]string, len(strs))
	for i, s := range strs {
		out[i] = s.Value
	}
	return out
}

var defaultExtractor = &Extractor{minLength: DefaultMinLength, maxResults: DefaultMaxResults}

// Extract runs an Extractor with the default limits over data.
func Extract(data []byte) ([]String, error) {
	return defaultExtractor.Extract(data)
}
