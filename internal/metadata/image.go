package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/nao1215/blobscan/internal/model"

	// Registered formats for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// EXIFCategory classifies EXIF tags by what they reveal.
type EXIFCategory string

const (
	EXIFGPS      EXIFCategory = "gps"
	EXIFDevice   EXIFCategory = "device"
	EXIFAuthor   EXIFCategory = "author"
	EXIFSoftware EXIFCategory = "software"
	EXIFTime     EXIFCategory = "time"
	EXIFOther    EXIFCategory = ""
)

// CategorizeEXIFTag returns the category of an EXIF tag name.
func CategorizeEXIFTag(tag string) EXIFCategory {
	switch tag {
	case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef", "GPSAltitude":
		return EXIFGPS
	case "Make", "Model", "SerialNumber", "CameraSerialNumber", "BodySerialNumber",
		"LensSerialNumber", "LensModel", "HostComputer":
		return EXIFDevice
	case "Artist", "Author", "Copyright", "XPAuthor", "OwnerName", "CameraOwnerName":
		return EXIFAuthor
	case "Software", "ProcessingSoftware":
		return EXIFSoftware
	case "DateTime", "DateTimeOriginal", "DateTimeDigitized":
		return EXIFTime
	default:
		return EXIFOther
	}
}

// ImageExtractor reads dimensions, colour model and EXIF tags from images.
type ImageExtractor struct {
	// maxTags bounds the number of EXIF tags kept.
	maxTags int
}

// NewImageExtractor creates an ImageExtractor.
func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{maxTags: 512}
}

// Name implements Extractor.
func (e *ImageExtractor) Name() string {
	return "image"
}

// Extract implements Extractor.
func (e *ImageExtractor) Extract(data []byte) (*model.Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return nil, ErrNotThisFormat
	}
	if err != nil {
		return nil, model.NewDecodeError("image", err)
	}

	meta := &model.Metadata{
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorModel: colorModelName(cfg.ColorModel),
	}

	tags, err := e.exifTags(data)
	if err != nil {
		// a damaged EXIF block does not make the image unreadable
		return meta, nil //nolint:nilerr
	}
	if len(tags) > 0 {
		meta.EXIF = tags
		for tag := range tags {
			if CategorizeEXIFTag(tag) == EXIFGPS {
				meta.HasGPS = true
				break
			}
		}
	}
	return meta, nil
}

// exifTags returns EXIF tag names mapped to formatted values.
func (e *ImageExtractor) exifTags(data []byte) (tags map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exif parser panic: %v", r)
		}
	}()

	rawExif, err := exif.SearchAndExtractExif(data)
	if errors.Is(err, exif.ErrNoExif) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}

	tags = make(map[string]string, min(len(entries), e.maxTags))
	for _, entry := range entries {
		if len(tags) >= e.maxTags {
			break
		}
		if entry.TagName == "" {
			continue
		}
		if _, dup := tags[entry.TagName]; dup {
			continue
		}
		tags[entry.TagName] = strings.TrimSpace(entry.Formatted)
	}
	return tags, nil
}

func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "Paletted"
	}
	switch m {
	case color.RGBAModel:
		return "RGBA"
	case color.RGBA64Model:
		return "RGBA64"
	case color.NRGBAModel:
		return "NRGBA"
	case color.NRGBA64Model:
		return "NRGBA64"
	case color.GrayModel:
		return "Gray"
	case color.Gray16Model:
		return "Gray16"
	case color.AlphaModel:
		return "Alpha"
	case color.Alpha16Model:
		return "Alpha16"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel:
		return "YCbCr"
	case color.NYCbCrAModel:
		return "NYCbCrA"
	default:
		return "unknown"
	}
}
