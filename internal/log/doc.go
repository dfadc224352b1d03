// Package log provides logging for blobscan on top of the standard slog
// package.
//
// blobscan logs values taken from the files it analyzes: extracted
// strings, metadata fields, decoded payload prefixes. The SafeHandler
// wraps any slog.Handler and makes those values safe to print:
//   - Control characters are escaped, so escape sequences hidden in a
//     file cannot drive the operator's terminal
//   - Long values are truncated
//   - Private key armor, JWTs and values under sensitive keys are masked
//
// # Usage
//
//	logger := log.NewSafeLogger(os.Stderr, verbose)
//	logger.Debug("string extracted", "value", s.Value, "offset", s.Offset)
//	slog.SetDefault(logger)
package log
