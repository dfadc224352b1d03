package stego

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"testing"
)

// withTransparency inserts a Graphic Control Extension that marks index
// transparent in front of the first image descriptor of a GIF.
func withTransparency(t *testing.T, data []byte, index uint8) []byte {
	t.Helper()

	pos := gifHeaderLen
	if flags := data[10]; flags&gifHasColorTable != 0 {
		pos += 3 << (flags&0x07 + 1)
	}
	if data[pos] != gifImageDescriptor {
		t.Fatalf("expected image descriptor at %d, got %#x", pos, data[pos])
	}

	gce := []byte{gifExtension, 0xf9, 0x04, 0x01, 0x00, 0x00, index, 0x00}
	out := make([]byte, 0, len(data)+len(gce))
	out = append(out, data[:pos]...)
	out = append(out, gce...)
	return append(out, data[pos:]...)
}

// TestExtractTransparentGIF tests that pixels at the transparent palette
// index keep the RGB stored in the colour table.
func TestExtractTransparentGIF(t *testing.T) {
	t.Parallel()

	palette := color.Palette{color.RGBA{A: 0xff}, color.RGBA{R: 1, G: 1, B: 1, A: 0xff}}

	encode := func(t *testing.T, img *image.Paletted, globalTable bool) []byte {
		t.Helper()
		cfg := image.Config{Width: img.Rect.Dx(), Height: img.Rect.Dy()}
		if globalTable {
			cfg.ColorModel = palette
		}
		var buf bytes.Buffer
		g := &gif.GIF{Image: []*image.Paletted{img}, Delay: []int{0}, Config: cfg}
		if err := gif.EncodeAll(&buf, g); err != nil {
			t.Fatalf("gif.EncodeAll() error = %v", err)
		}
		return buf.Bytes()
	}

	tests := []struct {
		name        string
		globalTable bool
	}{
		{name: "local colour table", globalTable: false},
		{name: "global colour table", globalTable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			img := image.NewPaletted(image.Rect(0, 0, 8, 1), palette)
			for i := range img.Pix {
				img.Pix[i] = 1
			}
			data := withTransparency(t, encode(t, img, tt.globalTable), 1)

			got, err := Extract(data)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !bytes.Equal(got, []byte{0xff, 0xff, 0xff}) {
				t.Errorf("got %x, expected ffffff", got)
			}
		})
	}
}

// TestGIFColorTable tests colour table parsing on malformed input.
func TestGIFColorTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "shorter than the header", data: []byte("GIF89a")},
		{name: "truncated global table", data: append([]byte("GIF89a\x01\x00\x01\x00\x81\x00\x00"), 0, 0)},
		{name: "unknown block", data: []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00\x99")},
		{name: "unterminated extension", data: []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00\x21\xf9\x04\x01")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if table := gifColorTable(tt.data); table != nil {
				t.Errorf("expected nil table, got %v", table)
			}
		})
	}
}
