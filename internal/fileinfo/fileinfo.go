package fileinfo

import (
	"crypto/md5"  //nolint:gosec // fingerprint, not a security boundary
	"crypto/sha1" //nolint:gosec // fingerprint, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/nao1215/blobscan/internal/model"
	"github.com/nao1215/blobscan/internal/signature"
)

// PreviewLength is the number of leading bytes shown in the hex preview.
const PreviewLength = 16

// Analyze returns size, hex preview, hashes and the formats detected at
// offset 0 of data.
func Analyze(data []byte) model.FileInfo {
	info := model.FileInfo{
		Size:       int64(len(data)),
		HexPreview: HexPreview(data, PreviewLength),
		Hashes:     Hash(data),
	}
	for _, m := range signature.Identify(data) {
		info.DetectedTypes = append(info.DetectedTypes, m.Signature.Description)
	}
	return info
}

// HexPreview formats the first n bytes of data as space-separated
// upper-case hex pairs, e.g. "89 50 4E 47".
func HexPreview(data []byte, n int) string {
	if n > len(data) {
		n = len(data)
	}
	if n <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(n*3 - 1)
	for i, b := range data[:n] {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// Hash computes every digest in model.Hashes over data.
func Hash(data []byte) model.Hashes {
	md5Sum := md5.Sum(data)   //nolint:gosec
	sha1Sum := sha1.Sum(data) //nolint:gosec
	sha256Sum := sha256.Sum256(data)
	sha3Sum := sha3.Sum256(data)
	blakeSum := blake2b.Sum256(data)

	return model.Hashes{
		MD5:        hex.EncodeToString(md5Sum[:]),
		SHA1:       hex.EncodeToString(sha1Sum[:]),
		SHA256:     hex.EncodeToString(sha256Sum[:]),
		SHA3256:    hex.EncodeToString(sha3Sum[:]),
		BLAKE2b256: hex.EncodeToString(blakeSum[:]),
		XXH64:      fmt.Sprintf("%016x", xxhash.Sum64(data)),
	}
}
