// Package fileinfo describes a file as a whole: its size, digests,
// leading bytes and outer format, plus file system timestamps when it was
// read from disk. It also loads targets into memory with a size limit.
package fileinfo
