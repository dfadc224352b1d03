package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// DefaultMaxValueLength is the longest string value written to a log line.
// Longer values are cut and suffixed with TruncationMarker.
const DefaultMaxValueLength = 256

// TruncationMarker is appended to values cut at the length limit.
const TruncationMarker = "...(truncated)"

// sensitiveKeys contains attribute keys whose values are always masked.
var sensitiveKeys = map[string]bool{
	"password":    true,
	"passwd":      true,
	"passphrase":  true,
	"secret":      true,
	"token":       true,
	"api_key":     true,
	"apikey":      true,
	"private_key": true,
	"privatekey":  true,
	"secret_key":  true,
	"credential":  true,
	"credentials": true,
	"seed":        true,
	"mnemonic":    true,
}

// sensitivePatterns match values that are masked regardless of key name.
// Analyzed files routinely contain key material; extracted strings must
// not carry it into logs.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{4,}\.eyJ[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]*`),

	// PEM and OpenSSH private key armor
	regexp.MustCompile(`(?i)-----BEGIN[A-Z ]*(PRIVATE|SECRET)[A-Z ]*KEY( BLOCK)?-----`),

	// AWS access keys
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),
}

// SafeHandler wraps an slog.Handler so that log output stays readable and
// harmless when attribute values come from untrusted input. For every
// string value it:
//   - masks values under sensitive keys or matching key-material patterns
//   - escapes control characters, so terminal escape sequences embedded
//     in an analyzed file are never replayed to the operator's terminal
//   - truncates values longer than the configured limit
type SafeHandler struct {
	handler slog.Handler
	maxLen  int
}

// NewSafeHandler creates a new SafeHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used. A maxLen of zero
// or less selects DefaultMaxValueLength.
func NewSafeHandler(handler slog.Handler, maxLen int) *SafeHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLength
	}
	return &SafeHandler{handler: handler, maxLen: maxLen}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SafeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's message and attributes and passes it on.
func (h *SafeHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, escapeControl(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are sanitized before being added.
func (h *SafeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return &SafeHandler{handler: h.handler.WithAttrs(sanitized), maxLen: h.maxLen}
}

// WithGroup returns a new handler with the given group name.
func (h *SafeHandler) WithGroup(name string) slog.Handler {
	return &SafeHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

// sanitizeAttr sanitizes a single attribute, recursively handling groups.
func (h *SafeHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	keyLower := strings.ToLower(a.Key)
	if sensitiveKeys[keyLower] || containsSensitiveKeyword(keyLower) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	if isSensitiveValue(v) {
		return slog.String(a.Key, MaskValue)
	}
	return slog.String(a.Key, truncate(escapeControl(v), h.maxLen))
}

// containsSensitiveKeyword checks if the key contains sensitive keywords.
// The bare word "key" is not included: "key" alone matches too many
// harmless attribute names such as "tag_key".
func containsSensitiveKeyword(key string) bool {
	for _, keyword := range []string{"password", "passwd", "secret", "token", "credential", "private", "mnemonic"} {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches sensitive patterns.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// escapeControl replaces control characters and invalid UTF-8 with Go
// escape sequences. Strings without them are returned unchanged.
func escapeControl(s string) string {
	clean := true
	for _, r := range s {
		if r == utf8.RuneError || unicode.IsControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size <= 1:
			b.WriteString(`\x`)
			b.WriteByte("0123456789abcdef"[s[i]>>4])
			b.WriteByte("0123456789abcdef"[s[i]&0x0f])
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsControl(r):
			if r < 0x100 {
				b.WriteString(`\x`)
				b.WriteByte("0123456789abcdef"[r>>4])
				b.WriteByte("0123456789abcdef"[r&0x0f])
			} else {
				b.WriteString(`\u`)
				for shift := 12; shift >= 0; shift -= 4 {
					b.WriteByte("0123456789abcdef"[(r>>uint(shift))&0x0f])
				}
			}
		default:
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

// truncate cuts s to at most maxLen bytes on a rune boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + TruncationMarker
}

// NewSafeLogger creates a new slog.Logger that writes sanitized text.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewSafeLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSafeHandler(slog.NewTextHandler(w, handlerOptions(verbose)), 0))
}

// NewSafeJSONLogger creates a new slog.Logger that writes sanitized JSON.
// Useful for structured log aggregation.
func NewSafeJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSafeHandler(slog.NewJSONHandler(w, handlerOptions(verbose)), 0))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
