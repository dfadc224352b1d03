package signature

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Match is one occurrence of a signature in a buffer.
type Match struct {
	// Offset is the position of the first magic byte.
	Offset int

	// Signature is the catalog entry that matched.
	Signature Signature
}

// OffsetHex formats the offset as fixed-width upper-case hex, e.g. "0x0000001A".
func (m Match) OffsetHex() string {
	return fmt.Sprintf("0x%08X", m.Offset)
}

// Scanner finds signatures in byte buffers.
// A Scanner is immutable and safe for concurrent use.
type Scanner struct {
	catalog []Signature
}

// NewScanner creates a Scanner over the given signatures. The slice is
// copied; entries with an empty Magic are ignored.
func NewScanner(sigs []Signature) *Scanner {
	kept := make([]Signature, 0, len(sigs))
	for _, s := range sigs {
		if len(s.Magic) > 0 {
			kept = append(kept, s)
		}
	}
	return &Scanner{catalog: cloneSignatures(kept)}
}

var defaultScanner = sync.OnceValue(func() *Scanner {
	return NewScanner(catalog)
})

// Default returns the Scanner over the built-in catalog.
func Default() *Scanner {
	return defaultScanner()
}

// Signatures returns a copy of the scanner's signature table.
func (s *Scanner) Signatures() []Signature {
	return cloneSignatures(s.catalog)
}

// Scan returns every occurrence of every signature in data, sorted by
// ascending offset. Occurrences may overlap, both across signatures and
// within one signature: after a hit at offset i the search for the same
// signature resumes at i+1. Matches at the same offset keep catalog order.
// An empty buffer, or one without hits, yields an empty slice.
func (s *Scanner) Scan(data []byte) []Match {
	matches := make([]Match, 0)
	for i := range s.catalog {
		sig := &s.catalog[i]
		for start := 0; start+len(sig.Magic) <= len(data); {
			idx := bytes.Index(data[start:], sig.Magic)
			if idx < 0 {
				break
			}
			matches = append(matches, Match{Offset: start + idx, Signature: *sig})
			start += idx + 1
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(a.Offset, b.Offset)
	})
	return matches
}

// Identify returns the signatures that match at offset 0, in catalog
// order. These describe what the buffer is, as opposed to what it contains.
func (s *Scanner) Identify(data []byte) []Match {
	matches := make([]Match, 0)
	for _, sig := range s.catalog {
		if bytes.HasPrefix(data, sig.Magic) {
			matches = append(matches, Match{Offset: 0, Signature: sig})
		}
	}
	return matches
}

// Scan runs the default scanner over data.
func Scan(data []byte) []Match {
	return Default().Scan(data)
}

// Identify runs the default scanner's Identify over data.
func Identify(data []byte) []Match {
	return Default().Identify(data)
}
