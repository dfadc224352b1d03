package entropy

import (
	"math"

	"github.com/nao1215/blobscan/internal/model"
)

// DefaultBlockSize is the block length used for entropy series when the
// caller has no preference.
const DefaultBlockSize = 256

// MaxEntropy is the largest possible score, reached when all 256 byte
// values occur equally often.
const MaxEntropy = 8.0

// Calculate returns the Shannon entropy of data in bits per byte.
// An empty buffer has entropy 0.0. The result depends only on the byte
// frequencies, not on their order.
func Calculate(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	return fromCounts(&counts, len(data))
}

// fromCounts computes entropy from a frequency table over n bytes.
// Zero counts contribute nothing.
func fromCounts(counts *[256]int, n int) float64 {
	total := float64(n)
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}

// CalculateSeries splits data into consecutive chunks of blockSize bytes
// and returns the entropy of each chunk in order. The last chunk may be
// shorter than blockSize; it is scored as is.
//
// An empty buffer yields an empty series. A non-positive blockSize is
// rejected with a *model.ValidationError.
func CalculateSeries(data []byte, blockSize int) ([]float64, error) {
	if blockSize <= 0 {
		return nil, model.NewValidationError("block_size", blockSize, "must be positive")
	}

	series := make([]float64, 0, (len(data)+blockSize-1)/blockSize)
	var counts [256]int
	for start := 0; start < len(data); start += blockSize {
		end := min(start+blockSize, len(data))
		clear(counts[:])
		for _, b := range data[start:end] {
			counts[b]++
		}
		series = append(series, fromCounts(&counts, end-start))
	}
	return series, nil
}
