package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/blobscan/internal/metadata"
	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/blobscan/internal/signature"
)

const (
	// maxSignatureFindings bounds the findings produced from signature
	// hits. Short magics such as "MZ" or "BZh" occur by chance in large
	// files.
	maxSignatureFindings = 100

	// lsbTextMinPrefix is the printable prefix length at which an LSB
	// payload is reported as text. Natural images produce random LSBs,
	// so 16 printable bytes in a row happen with negligible probability.
	lsbTextMinPrefix = 16
)

// AssessStep derives findings from the sections filled by earlier steps.
// It never fails; missing sections simply produce no findings.
type AssessStep struct {
	threshold float64
}

// NewAssessStep creates a new assessment step using threshold as the
// high-entropy cut-off.
func NewAssessStep(threshold float64) *AssessStep {
	return &AssessStep{threshold: threshold}
}

// Name returns the step name.
func (s *AssessStep) Name() string {
	return StepAssess
}

// Do executes the assessment step.
func (s *AssessStep) Do(_ context.Context, report *model.Report) error {
	s.assessSignatures(report)
	s.assessEntropy(report)
	s.assessLSB(report)
	s.assessMetadata(report)
	s.assessFormat(report)
	return nil
}

// assessSignatures reports embedded formats, encrypted volumes and keys.
func (s *AssessStep) assessSignatures(report *model.Report) {
	count := 0
	for _, hit := range report.Signatures {
		if count == maxSignatureFindings {
			break
		}

		var f model.Finding
		switch signature.Family(hit.Family) {
		case signature.FamilyEncrypted:
			f = model.NewFinding(model.FindingEncryptedVolume,
				"Encrypted volume header",
				fmt.Sprintf("%s found at %s.", hit.Description, hit.OffsetHex),
				hit.Name, hit.OffsetHex)
		case signature.FamilyKey:
			f = model.NewFinding(model.FindingPrivateKey,
				"Private key material",
				fmt.Sprintf("%s found at %s.", hit.Description, hit.OffsetHex),
				hit.Name, hit.OffsetHex)
		case signature.FamilyExecutable:
			if hit.Offset == 0 {
				continue
			}
			f = model.NewFinding(model.FindingEmbeddedExecutable,
				"Embedded executable",
				fmt.Sprintf("%s header found at %s, after the start of the file.", hit.Description, hit.OffsetHex),
				hit.Name, hit.OffsetHex)
		default:
			if hit.Offset == 0 {
				continue
			}
			f = model.NewFinding(model.FindingEmbeddedFile,
				"Embedded file",
				fmt.Sprintf("%s found at %s, after the start of the file.", hit.Description, hit.OffsetHex),
				hit.Name, hit.OffsetHex)
		}
		report.AddFinding(f)
		count++
	}
}

// assessEntropy reports near-random data that no known container
// explains, and high-entropy regions inside structured files.
func (s *AssessStep) assessEntropy(report *model.Report) {
	e := report.Entropy
	if e == nil || len(e.Series) == 0 {
		return
	}

	if e.Global >= s.threshold {
		if container, ok := compressedContainer(report.Signatures); ok {
			report.AddFinding(model.NewFinding(model.FindingCompressedContainer,
				"Compressed container",
				fmt.Sprintf("High entropy (%.3f) is explained by the %s format.", e.Global, container),
				container, "0x00000000"))
		} else {
			report.AddFinding(model.NewFinding(model.FindingHighEntropyUnknown,
				"High entropy without a known format",
				fmt.Sprintf("Global entropy is %.3f bits per byte and no compressed or encrypted format header is present.", e.Global),
				fmt.Sprintf("%.3f", e.Global), "whole file"))
		}
		return
	}

	for _, r := range e.HighRegions {
		report.AddFinding(model.NewFinding(model.FindingHighEntropyRegion,
			"High-entropy region",
			fmt.Sprintf("Bytes 0x%08X to 0x%08X average %.3f bits per byte while the file averages %.3f.", r.Start, r.End, r.Score, e.Global),
			fmt.Sprintf("%.3f", r.Score),
			fmt.Sprintf("0x%08X-0x%08X", r.Start, r.End)))
	}
}

// compressedContainer returns the name of a compressed format found at
// offset 0.
func compressedContainer(hits []model.SignatureHit) (string, bool) {
	for _, hit := range hits {
		if hit.Offset != 0 {
			break
		}
		if signature.Family(hit.Family).IsCompressed() {
			return hit.Name, true
		}
	}
	return "", false
}

// assessLSB reports files and text hidden in pixel LSBs.
func (s *AssessStep) assessLSB(report *model.Report) {
	lsb := report.LSB
	if lsb == nil {
		return
	}

	if len(lsb.Signatures) > 0 {
		hit := lsb.Signatures[0]
		report.AddFinding(model.NewFinding(model.FindingLSBEmbeddedFile,
			"File hidden in pixel LSBs",
			fmt.Sprintf("The LSB payload (%d bytes) starts with a %s header.", lsb.PayloadSize, hit.Description),
			hit.Name, "lsb payload"))
		return
	}

	if lsb.PrintablePrefix >= lsbTextMinPrefix {
		var preview string
		if len(lsb.Strings) > 0 {
			preview = lsb.Strings[0].Value
		}
		report.AddFinding(model.NewFinding(model.FindingLSBText,
			"Text hidden in pixel LSBs",
			fmt.Sprintf("The LSB payload starts with %d printable bytes.", lsb.PrintablePrefix),
			preview, "lsb payload"))
	}
}

// assessMetadata reports identifying EXIF tags and document properties.
func (s *AssessStep) assessMetadata(report *model.Report) {
	meta := report.Metadata
	if meta == nil {
		return
	}

	tags := make([]string, 0, len(meta.EXIF))
	for tag := range meta.EXIF {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	var gps []string
	for _, tag := range tags {
		value := meta.EXIF[tag]
		switch metadata.CategorizeEXIFTag(tag) {
		case metadata.EXIFGPS:
			gps = append(gps, tag+"="+value)
		case metadata.EXIFDevice:
			report.AddFinding(model.NewFinding(model.FindingEXIFDevice,
				"Capture device in EXIF", tag+" identifies the capture device.", value, "exif:"+tag))
		case metadata.EXIFAuthor:
			report.AddFinding(model.NewFinding(model.FindingEXIFAuthor,
				"Author in EXIF", tag+" names a person or rights holder.", value, "exif:"+tag))
		case metadata.EXIFSoftware:
			report.AddFinding(model.NewFinding(model.FindingEXIFSoftware,
				"Software in EXIF", tag+" names the software that wrote the image.", value, "exif:"+tag))
		}
	}
	if meta.HasGPS {
		report.AddFinding(model.NewFinding(model.FindingEXIFGPS,
			"GPS coordinates in EXIF", "The image records where it was taken.",
			strings.Join(gps, ", "), "exif:GPS"))
	}

	if author := meta.Document["Author"]; author != "" {
		report.AddFinding(model.NewFinding(model.FindingPDFAuthor,
			"Document author", "The document properties name its author.", author, "pdf:Author"))
	}
	for _, key := range []string{"Producer", "Creator"} {
		if v := meta.Document[key]; v != "" {
			report.AddFinding(model.NewFinding(model.FindingPDFProducer,
				"Document producer", "The document properties name the "+strings.ToLower(key)+" software.", v, "pdf:"+key))
		}
	}
}

// assessFormat reports files whose format is not recognized.
func (s *AssessStep) assessFormat(report *model.Report) {
	if report.FileInfo == nil || report.FileInfo.Size == 0 || len(report.FileInfo.DetectedTypes) > 0 {
		return
	}
	report.AddFinding(model.NewFinding(model.FindingUnknownFormat,
		"Unknown file format", "No catalog signature matches at offset 0.", report.FileInfo.HexPreview, "0x00000000"))
}
