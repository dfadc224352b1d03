package metadata

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/digitorus/pdf"

	"github.com/nao1215/blobscan/internal/model"
)

// pdfInfoKeys are the document information dictionary entries reported.
var pdfInfoKeys = []string{"Title", "Author", "Subject", "Producer", "Creator", "CreationDate", "ModDate"}

// PDFExtractor reads the document information dictionary and page count
// of PDF files.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Name implements Extractor.
func (e *PDFExtractor) Name() string {
	return "pdf"
}

// Extract implements Extractor. Data that does not start with "%PDF-" is
// not parsed.
func (e *PDFExtractor) Extract(data []byte) (meta *model.Metadata, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotThisFormat
	}

	// the parser indexes into the file without bounds checks on some
	// malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = model.NewDecodeError("pdf", fmt.Errorf("parser panic: %v", r))
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, model.NewDecodeError("pdf", err)
	}

	meta = &model.Metadata{
		Format:   "pdf",
		Document: make(map[string]string),
	}

	info := rdr.Trailer().Key("Info")
	if !info.IsNull() {
		for _, key := range pdfInfoKeys {
			v := info.Key(key)
			if v.IsNull() {
				continue
			}
			text := strings.TrimSpace(v.Text())
			if text == "" {
				text = strings.TrimSpace(v.RawString())
			}
			if text != "" {
				meta.Document[key] = text
			}
		}
	}
	meta.PageCount = rdr.NumPage()

	return meta, nil
}
