package entropy

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Ratio holds compression ratios (original size / compressed size).
// Random or already compressed data gives ratios close to 1.0; text and
// padding give large ratios.
type Ratio struct {
	Zstd float64
	LZ4  float64
}

// zstdEncoder is shared by all callers. EncodeAll is safe for concurrent use.
var zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
})

// Compressibility compresses data in memory with zstd and LZ4 and returns
// the resulting ratios. An empty buffer yields a zero Ratio.
func Compressibility(data []byte) (Ratio, error) {
	if len(data) == 0 {
		return Ratio{}, nil
	}

	enc, err := zstdEncoder()
	if err != nil {
		return Ratio{}, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	zstdSize := len(enc.EncodeAll(data, nil))

	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	lz4Size, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return Ratio{}, fmt.Errorf("failed to compress with lz4: %w", err)
	}
	if lz4Size == 0 {
		// incompressible: lz4 would store the block verbatim
		lz4Size = len(data)
	}

	return Ratio{
		Zstd: ratio(len(data), zstdSize),
		LZ4:  ratio(len(data), lz4Size),
	}, nil
}

func ratio(original, compressed int) float64 {
	if compressed <= 0 {
		return 0
	}
	return float64(original) / float64(compressed)
}
