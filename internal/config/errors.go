package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Analysis.Validate()
// so that callers can use errors.Is() for programmatic handling.
var (
	// ErrNoTarget is returned when no file is given on the command line.
	ErrNoTarget = errors.New("no target specified: provide one or more files, or - for stdin")

	// ErrInvalidBlockSize is returned when the entropy block size is not positive.
	ErrInvalidBlockSize = errors.New("invalid block size: must be positive")

	// ErrInvalidMinStringLength is returned when the minimum string length is not positive.
	ErrInvalidMinStringLength = errors.New("invalid minimum string length: must be positive")

	// ErrInvalidMaxStrings is returned when the string cap is not positive.
	ErrInvalidMaxStrings = errors.New("invalid maximum string count: must be positive")

	// ErrInvalidEntropyThreshold is returned when the threshold is outside [0, 8].
	ErrInvalidEntropyThreshold = errors.New("invalid entropy threshold: must be between 0 and 8")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxFileSize is returned when the file size limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be non-negative")

	// ErrInvalidMaxImagePixels is returned when the pixel limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxImagePixels = errors.New("invalid max image pixels: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
