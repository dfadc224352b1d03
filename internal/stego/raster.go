package stego

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// Registered formats for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nao1215/blobscan/internal/model"
)

// Raster is a decoded image normalized to 8-bit RGB.
// Coordinates are zero-based; (0, 0) is the top-left pixel.
type Raster interface {
	Width() int
	Height() int
	RGB(x, y int) (r, g, b uint8)
}

// RasterDecoder turns encoded image bytes into a Raster.
type RasterDecoder interface {
	Decode(data []byte) (Raster, error)
}

// ImageDecoder decodes PNG, JPEG, GIF, BMP, TIFF and WebP with the
// standard image registry.
type ImageDecoder struct {
	// MaxPixels rejects images with more pixels before the pixel data is
	// decoded. Zero means no limit.
	MaxPixels int
}

// Decode implements RasterDecoder. Images larger than MaxPixels are
// rejected with a *model.ValidationError.
func (d ImageDecoder) Decode(data []byte) (Raster, error) {
	if d.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if cfg.Width*cfg.Height > d.MaxPixels {
			return nil, model.NewValidationError("max_pixels",
				fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
				fmt.Sprintf("image has more than %d pixels", d.MaxPixels))
		}
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return NewImageRaster(img), nil
}

// DecodeImage decodes data with the standard image registry. For GIF the
// palette is restored from the file's colour table, because image/gif
// blanks the transparent entry and the RGB stored there carries LSBs too.
func DecodeImage(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if p, ok := img.(*image.Paletted); ok && format == "gif" {
		if table := gifColorTable(data); len(table) >= len(p.Palette) {
			p.Palette = table
		}
	}
	return img, nil
}

// ImageRaster adapts an image.Image to Raster. Alpha is discarded: each
// pixel's colour is read as non-premultiplied RGB, palettes are expanded
// and grayscale is replicated to all three channels.
type ImageRaster struct {
	img     image.Image
	min     image.Point
	width   int
	height  int
	palette [][3]uint8
}

// NewImageRaster wraps img.
func NewImageRaster(img image.Image) *ImageRaster {
	b := img.Bounds()
	r := &ImageRaster{
		img:    img,
		min:    b.Min,
		width:  b.Dx(),
		height: b.Dy(),
	}
	if p, ok := img.(*image.Paletted); ok {
		r.palette = make([][3]uint8, len(p.Palette))
		for i, c := range p.Palette {
			r.palette[i] = toRGB(c)
		}
	}
	return r
}

// Width implements Raster.
func (r *ImageRaster) Width() int { return r.width }

// Height implements Raster.
func (r *ImageRaster) Height() int { return r.height }

// RGB implements Raster.
func (r *ImageRaster) RGB(x, y int) (uint8, uint8, uint8) {
	px, py := r.min.X+x, r.min.Y+y

	switch img := r.img.(type) {
	case *image.NRGBA:
		i := img.PixOffset(px, py)
		return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
	case *image.RGBA:
		i := img.PixOffset(px, py)
		if img.Pix[i+3] == 0xff {
			return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
		}
	case *image.Gray:
		v := img.Pix[img.PixOffset(px, py)]
		return v, v, v
	case *image.Paletted:
		idx := int(img.Pix[img.PixOffset(px, py)])
		if idx < len(r.palette) {
			c := r.palette[idx]
			return c[0], c[1], c[2]
		}
		return 0, 0, 0
	}

	c := toRGB(r.img.At(px, py))
	return c[0], c[1], c[2]
}

func toRGB(c color.Color) [3]uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [3]uint8{n.R, n.G, n.B}
}
