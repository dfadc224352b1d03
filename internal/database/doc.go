// Package database provides SQLite-based storage for blobscan's analysis
// history.
//
// Each analysis is stored as a row holding the target path, the file's
// SHA-256, its size and global entropy, the full report as JSON, and a
// severity summary. The history lets an investigator see how a file's
// findings changed between analyses (blobscan compare) and find every
// analysis of the same content under a different name (FindBySHA256).
//
// The database lives in the XDG data directory. modernc.org/sqlite is a
// pure-Go driver, so blobscan builds without cgo.
package database
