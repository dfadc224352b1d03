// Package config provides configuration structures and utilities for blobscan.
// It defines the analysis settings (entropy block size, string limits,
// thresholds), report output preferences, and the optional .blobscan file
// that overrides settings per file-name pattern.
package config
