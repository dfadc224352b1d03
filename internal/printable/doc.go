// Package printable extracts human-readable strings from binary data.
//
// Two independent passes run over the same buffer: one for runs of
// printable ASCII bytes and one for UTF-16LE text as written by Windows
// programs, where each printable character is followed by a zero byte.
// Results are de-duplicated and capped so that a large file cannot
// produce an unbounded result.
package printable
