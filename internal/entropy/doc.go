// Package entropy measures how random a byte buffer is.
//
// Calculate returns the Shannon entropy of a buffer in bits per byte, from
// 0.0 (one repeated value) to 8.0 (all 256 values equally frequent).
// CalculateSeries splits the buffer into consecutive, non-overlapping
// blocks and scores each one, which localizes compressed or encrypted
// regions inside otherwise structured files.
//
// Summarize, HighEntropyRegions and Compressibility interpret those scores.
// Every function is pure and safe for concurrent use.
package entropy
