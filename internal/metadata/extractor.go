package metadata

import (
	"errors"
	"fmt"

	"github.com/nao1215/blobscan/internal/model"
)

// ErrNotThisFormat is returned by an Extractor when the data is not in the
// format it handles. It is not a failure: the next extractor may match.
var ErrNotThisFormat = errors.New("not this format")

// Extractor reads format-specific metadata from raw file bytes.
type Extractor interface {
	// Name returns the extractor name for logging and reporting.
	Name() string

	// Extract returns the metadata of data, ErrNotThisFormat when data is
	// in another format, or a *model.DecodeError when data claims to be in
	// this format but cannot be parsed.
	Extract(data []byte) (*model.Metadata, error)
}

// Registry runs extractors in registration order.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates a Registry with the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry returns a Registry with the PDF and image extractors.
func DefaultRegistry() *Registry {
	return NewRegistry(NewPDFExtractor(), NewImageExtractor())
}

// Register adds an extractor.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// Names returns the names of the registered extractors.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// Extract returns the metadata from the first extractor that recognizes
// data. ErrNotThisFormat is returned when none does.
func (r *Registry) Extract(data []byte) (*model.Metadata, error) {
	for _, e := range r.extractors {
		meta, err := e.Extract(data)
		if errors.Is(err, ErrNotThisFormat) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		meta.Extractor = e.Name()
		return meta, nil
	}
	return nil, ErrNotThisFormat
}
