// Package main provides the entry point for the blobscan CLI.
//
// blobscan is a forensic analyzer for binary files. It measures Shannon
// entropy, finds embedded file signatures, extracts printable strings and
// recovers data hidden in the least-significant bits of image pixels.
//
// Usage:
//
//	blobscan analyze <file>...
//	blobscan entropy --series <file>
//	blobscan lsb extract -o payload.bin <image>
//
// See --help for all available options.
package main

// main is the entry point for blobscan.
func main() {
	Execute()
}
