package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"slices"
	"testing"

	"github.com/nao1215/blobscan/internal/model"
)

// buildPDF assembles a one-page PDF with a correct cross-reference table.
func buildPDF(info string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		info,
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// TestPDFExtractor tests document property extraction.
func TestPDFExtractor(t *testing.T) {
	t.Parallel()

	e := NewPDFExtractor()

	t.Run("reads info dictionary and page count", func(t *testing.T) {
		t.Parallel()

		data := buildPDF("<< /Title (Quarterly Report) /Author (Jane Doe) /Producer (blobscan test) >>")
		meta, err := e.Extract(data)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if meta.Format != "pdf" {
			t.Errorf("got format %q", meta.Format)
		}
		want := map[string]string{
			"Title":    "Quarterly Report",
			"Author":   "Jane Doe",
			"Producer": "blobscan test",
		}
		for k, v := range want {
			if meta.Document[k] != v {
				t.Errorf("%s: got %q, expected %q", k, meta.Document[k], v)
			}
		}
		if _, ok := meta.Document["Subject"]; ok {
			t.Error("absent keys must not be reported")
		}
		if meta.PageCount != 1 {
			t.Errorf("got %d pages, expected 1", meta.PageCount)
		}
	})

	t.Run("non-PDF data is not this format", func(t *testing.T) {
		t.Parallel()

		_, err := e.Extract([]byte("PK\x03\x04"))
		if !errors.Is(err, ErrNotThisFormat) {
			t.Errorf("expected ErrNotThisFormat, got %v", err)
		}
	})

	t.Run("broken PDF is a decode error", func(t *testing.T) {
		t.Parallel()

		_, err := e.Extract([]byte("%PDF-1.4\nthis is not a pdf body"))
		if !errors.Is(err, model.ErrDecode) {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

// TestImageExtractor tests image property extraction.
func TestImageExtractor(t *testing.T) {
	t.Parallel()

	e := NewImageExtractor()

	t.Run("reads format and dimensions", func(t *testing.T) {
		t.Parallel()

		img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
		img.SetNRGBA(0, 0, color.NRGBA{A: 0x10})
		meta, err := e.Extract(pngBytes(t, img))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if meta.Format != "png" || meta.Width != 4 || meta.Height != 3 {
			t.Errorf("got %s %dx%d, expected png 4x3", meta.Format, meta.Width, meta.Height)
		}
		if meta.ColorModel != "NRGBA" {
			t.Errorf("got colour model %q, expected NRGBA", meta.ColorModel)
		}
		if len(meta.EXIF) != 0 || meta.HasGPS {
			t.Errorf("expected no EXIF, got %v", meta.EXIF)
		}
	})

	t.Run("grayscale colour model", func(t *testing.T) {
		t.Parallel()

		meta, err := e.Extract(pngBytes(t, image.NewGray(image.Rect(0, 0, 2, 2))))
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if meta.ColorModel != "Gray" {
			t.Errorf("got colour model %q, expected Gray", meta.ColorModel)
		}
	})

	t.Run("unknown data is not this format", func(t *testing.T) {
		t.Parallel()

		_, err := e.Extract([]byte("plain text"))
		if !errors.Is(err, ErrNotThisFormat) {
			t.Errorf("expected ErrNotThisFormat, got %v", err)
		}
	})

	t.Run("truncated image is a decode error", func(t *testing.T) {
		t.Parallel()

		_, err := e.Extract([]byte("\x89PNG\r\n\x1a\n"))
		if !errors.Is(err, model.ErrDecode) {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

// TestCategorizeEXIFTag tests EXIF tag classification.
func TestCategorizeEXIFTag(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		tag      string
		expected EXIFCategory
	}{
		{"GPSLatitude", EXIFGPS},
		{"GPSLongitudeRef", EXIFGPS},
		{"Make", EXIFDevice},
		{"BodySerialNumber", EXIFDevice},
		{"Artist", EXIFAuthor},
		{"Copyright", EXIFAuthor},
		{"Software", EXIFSoftware},
		{"DateTimeOriginal", EXIFTime},
		{"ExposureTime", EXIFOther},
	}
	for _, tc := range testCases {
		if got := CategorizeEXIFTag(tc.tag); got != tc.expected {
			t.Errorf("CategorizeEXIFTag(%q) = %q, expected %q", tc.tag, got, tc.expected)
		}
	}
}

// stubExtractor returns a fixed result.
type stubExtractor struct {
	name string
	meta *model.Metadata
	err  error
}

func (s stubExtractor) Name() string { return s.name }
func (s stubExtractor) Extract([]byte) (*model.Metadata, error) {
	return s.meta, s.err
}

// TestRegistry tests extractor dispatch.
func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("first recognizing extractor wins", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(
			stubExtractor{name: "a", err: ErrNotThisFormat},
			stubExtractor{name: "b", meta: &model.Metadata{Format: "b"}},
			stubExtractor{name: "c", meta: &model.Metadata{Format: "c"}},
		)
		meta, err := r.Extract(nil)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if meta.Format != "b" || meta.Extractor != "b" {
			t.Errorf("got %+v, expected extractor b", meta)
		}
	})

	t.Run("no extractor matches", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(stubExtractor{name: "a", err: ErrNotThisFormat})
		if _, err := r.Extract(nil); !errors.Is(err, ErrNotThisFormat) {
			t.Errorf("expected ErrNotThisFormat, got %v", err)
		}
	})

	t.Run("decode errors stop the search", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry(
			stubExtractor{name: "a", err: model.NewDecodeError("a", errors.New("bad"))},
			stubExtractor{name: "b", meta: &model.Metadata{}},
		)
		if _, err := r.Extract(nil); !errors.Is(err, model.ErrDecode) {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("default registry order", func(t *testing.T) {
		t.Parallel()

		r := DefaultRegistry()
		r.Register(stubExtractor{name: "extra"})
		if got := r.Names(); !slices.Equal(got, []string{"pdf", "image", "extra"}) {
			t.Errorf("got %v", got)
		}
	})
}
