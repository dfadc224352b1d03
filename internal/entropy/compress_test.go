package entropy

import (
	"bytes"
	"testing"
)

// TestCompressibility tests compression ratios for structured and random data.
func TestCompressibility(t *testing.T) {
	t.Parallel()

	t.Run("empty buffer yields zero ratio", func(t *testing.T) {
		t.Parallel()

		r, err := Compressibility(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r != (Ratio{}) {
			t.Errorf("expected zero ratio, got %+v", r)
		}
	})

	t.Run("repetitive data compresses well", func(t *testing.T) {
		t.Parallel()

		r, err := Compressibility(bytes.Repeat([]byte("blobscan "), 4096))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Zstd < 10 || r.LZ4 < 10 {
			t.Errorf("expected large ratios, got %+v", r)
		}
	})

	t.Run("random data does not compress", func(t *testing.T) {
		t.Parallel()

		r, err := Compressibility(randomBytes(64 * 1024))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Zstd > 1.05 || r.LZ4 > 1.05 {
			t.Errorf("expected ratios near 1.0, got %+v", r)
		}
	})
}
