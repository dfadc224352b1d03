package config

import (
	"path/filepath"
	"slices"
)

// Rule holds analysis overrides for files whose base name matches a
// pattern. Nil fields leave the corresponding setting unchanged.
type Rule struct {
	// BlockSize overrides the entropy series block length.
	BlockSize *int `yaml:"blockSize,omitempty"`

	// MinStringLength overrides the minimum printable run length.
	MinStringLength *int `yaml:"minStringLength,omitempty"`

	// MaxStrings overrides the per-file string cap.
	MaxStrings *int `yaml:"maxStrings,omitempty"`

	// EntropyThreshold overrides the high-entropy cut-off.
	EntropyThreshold *float64 `yaml:"entropyThreshold,omitempty"`

	// SkipLSB disables LSB extraction for matching files.
	SkipLSB *bool `yaml:"skipLSB,omitempty"`

	// SkipMetadata disables metadata extraction for matching files.
	SkipMetadata *bool `yaml:"skipMetadata,omitempty"`

	// SkipCompression disables the compressibility measurement.
	SkipCompression *bool `yaml:"skipCompression,omitempty"`
}

// File represents the structure of the .blobscan configuration file.
type File struct {
	// Defaults apply to every file unless a matching rule overrides them.
	Defaults Rule `yaml:"defaults,omitempty"`

	// Rules maps glob patterns (filepath.Match syntax, matched against
	// the base name) to overrides, e.g. "*.png" or "dump-*.bin".
	Rules map[string]Rule `yaml:"rules,omitempty"`
}

// RuleFor returns the rule for a target path: the defaults merged with
// the first matching rule. Patterns are tried in sorted order so the
// result does not depend on map iteration.
func (cf *File) RuleFor(path string) Rule {
	result := cf.Defaults

	name := filepath.Base(path)
	patterns := make([]string, 0, len(cf.Rules))
	for p := range cf.Rules {
		patterns = append(patterns, p)
	}
	slices.Sort(patterns)

	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err != nil || !ok {
			continue
		}
		result = result.merge(cf.Rules[p])
		break
	}
	return result
}

// merge returns r with every field set in o copied over.
func (r Rule) merge(o Rule) Rule {
	if o.BlockSize != nil {
		r.BlockSize = o.BlockSize
	}
	if o.MinStringLength != nil {
		r.MinStringLength = o.MinStringLength
	}
	if o.MaxStrings != nil {
		r.MaxStrings = o.MaxStrings
	}
	if o.EntropyThreshold != nil {
		r.EntropyThreshold = o.EntropyThreshold
	}
	if o.SkipLSB != nil {
		r.SkipLSB = o.SkipLSB
	}
	if o.SkipMetadata != nil {
		r.SkipMetadata = o.SkipMetadata
	}
	if o.SkipCompression != nil {
		r.SkipCompression = o.SkipCompression
	}
	return r
}

// ApplyTo returns a with the fields set in r applied.
func (r Rule) ApplyTo(a Analysis) Analysis {
	if r.BlockSize != nil {
		a.BlockSize = *r.BlockSize
	}
	if r.MinStringLength != nil {
		a.MinStringLength = *r.MinStringLength
	}
	if r.MaxStrings != nil {
		a.MaxStrings = *r.MaxStrings
	}
	if r.EntropyThreshold != nil {
		a.EntropyThreshold = *r.EntropyThreshold
	}
	if r.SkipLSB != nil {
		a.SkipLSB = *r.SkipLSB
	}
	if r.SkipMetadata != nil {
		a.SkipMetadata = *r.SkipMetadata
	}
	if r.SkipCompression != nil {
		a.SkipCompression = *r.SkipCompression
	}
	return a
}
