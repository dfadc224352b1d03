package model

// Severity represents how strongly a finding suggests that a file
// contains more than it appears to.
type Severity int

const (
	// SeverityInfo indicates context that explains the file without
	// pointing at hidden content, such as a recognized compressed container.
	SeverityInfo Severity = iota

	// SeverityLow indicates metadata that identifies tooling or devices
	// but reveals nothing hidden on its own.
	SeverityLow

	// SeverityMedium indicates content worth a manual look, such as a
	// second file format embedded after the header.
	SeverityMedium

	// SeverityHigh indicates content that is very likely concealed or
	// identifying: embedded executables, GPS coordinates, readable text
	// in pixel LSBs.
	SeverityHigh

	// SeverityCritical indicates confirmed concealment or secret material:
	// a complete file hidden in pixel LSBs, an encrypted volume header,
	// private key blocks.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Finding type identifiers produced by the assessment step.
const (
	FindingLSBEmbeddedFile     = "lsb_embedded_file"
	FindingEncryptedVolume     = "encrypted_volume"
	FindingPrivateKey          = "private_key_material"
	FindingEmbeddedExecutable  = "embedded_executable"
	FindingLSBText             = "lsb_text_payload"
	FindingEXIFGPS             = "exif_gps"
	FindingHighEntropyUnknown  = "high_entropy_unknown"
	FindingEmbeddedFile        = "embedded_file"
	FindingHighEntropyRegion   = "high_entropy_region"
	FindingEXIFAuthor          = "exif_author"
	FindingPDFAuthor           = "pdf_author"
	FindingEXIFDevice          = "exif_device"
	FindingEXIFSoftware        = "exif_software"
	FindingPDFProducer         = "pdf_producer"
	FindingCompressedContainer = "compressed_container"
	FindingUnknownFormat       = "unknown_format"
)

// FindingInfo contains metadata about a finding type including severity,
// impact description, and recommended follow-up.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL
	FindingLSBEmbeddedFile: {
		Severity:       SeverityCritical,
		Impact:         "The least-significant bits of the image pixels start with a known file header, so a complete file is hidden in the image.",
		Recommendation: "Extract the payload with `blobscan lsb extract` and analyze it as a separate file.",
	},
	FindingEncryptedVolume: {
		Severity:       SeverityCritical,
		Impact:         "An encrypted volume header (LUKS, BitLocker or GELI) is present. The contents cannot be inspected without the key.",
		Recommendation: "Preserve the file and record the header offset; recovery requires the volume passphrase or recovery key.",
	},
	FindingPrivateKey: {
		Severity:       SeverityCritical,
		Impact:         "Private key material is stored in the file and can be used to impersonate its owner.",
		Recommendation: "Treat the key as compromised and correlate it with the systems it grants access to.",
	},

	// HIGH
	FindingEmbeddedExecutable: {
		Severity:       SeverityHigh,
		Impact:         "An executable header appears after the start of the file, a common way to smuggle binaries inside documents or media.",
		Recommendation: "Carve the executable from the reported offset and analyze it in an isolated environment.",
	},
	FindingLSBText: {
		Severity:       SeverityHigh,
		Impact:         "The least-significant bits of the image pixels decode to readable text, which does not happen for natural images.",
		Recommendation: "Extract the payload with `blobscan lsb extract` and review the recovered text.",
	},
	FindingEXIFGPS: {
		Severity:       SeverityHigh,
		Impact:         "The image carries GPS coordinates that reveal where it was taken.",
		Recommendation: "Record the coordinates; they locate the device at capture time.",
	},
	FindingHighEntropyUnknown: {
		Severity:       SeverityHigh,
		Impact:         "The file is close to random but does not start with any known compressed or encrypted format, which is typical of raw encrypted data.",
		Recommendation: "Check whether the file is a headerless encrypted container or a wiped region.",
	},

	// MEDIUM
	FindingEmbeddedFile: {
		Severity:       SeverityMedium,
		Impact:         "A second file format begins inside the file. This may be legitimate (thumbnails, attachments) or appended hidden data.",
		Recommendation: "Carve the data from the reported offset and compare it with the outer format's structure.",
	},
	FindingHighEntropyRegion: {
		Severity:       SeverityMedium,
		Impact:         "A run of near-random blocks sits inside otherwise structured data, typical of an embedded compressed or encrypted blob.",
		Recommendation: "Inspect the reported byte range; carve it and test for known container headers.",
	},
	FindingEXIFAuthor: {
		Severity:       SeverityMedium,
		Impact:         "EXIF fields name the author or copyright holder of the image.",
		Recommendation: "Record the names for attribution.",
	},
	FindingPDFAuthor: {
		Severity:       SeverityMedium,
		Impact:         "The document properties name its author.",
		Recommendation: "Record the author for attribution.",
	},

	// LOW
	FindingEXIFDevice: {
		Severity:       SeverityLow,
		Impact:         "EXIF fields identify the camera or phone that captured the image.",
		Recommendation: "Correlate the device model and serial number with other evidence.",
	},
	FindingEXIFSoftware: {
		Severity:       SeverityLow,
		Impact:         "EXIF fields name the software that last wrote the image.",
		Recommendation: "Check whether the editing software is consistent with the claimed origin.",
	},
	FindingPDFProducer: {
		Severity:       SeverityLow,
		Impact:         "The document properties name the software that produced it.",
		Recommendation: "Check whether the producer is consistent with the claimed origin.",
	},

	// INFO
	FindingCompressedContainer: {
		Severity:       SeverityInfo,
		Impact:         "High entropy is explained by the compressed container format at the start of the file.",
		Recommendation: "Decompress the container and analyze its members.",
	},
	FindingUnknownFormat: {
		Severity:       SeverityInfo,
		Impact:         "No known file signature appears at offset 0.",
		Recommendation: "Review the hex preview and extracted strings to identify the format.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}

// NewFinding creates a Finding with severity, impact and recommendation
// filled in from the finding type.
func NewFinding(findingType, title, description, value, location string) Finding {
	info := GetFindingInfo(findingType)
	return Finding{
		Type:           findingType,
		Severity:       info.Severity,
		SeverityText:   info.Severity.String(),
		Title:          title,
		Description:    description,
		Impact:         info.Impact,
		Recommendation: info.Recommendation,
		Value:          value,
		Location:       location,
	}
}
