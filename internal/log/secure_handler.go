package log

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// userinfoMask replaces the userinfo part of a URL.
const userinfoMask = "redacted"

// sensitiveKeys are attribute keys and query parameter names whose values
// are always masked.
var sensitiveKeys = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"password":      true,
	"passwd":        true,
	"secret":        true,
	"token":         true,
	"api_key":       true,
	"apikey":        true,
	"access_token":  true,
	"private_key":   true,
	"session":       true,
	"credential":    true,
	"credentials":   true,
	"key":           true,
	"sig":           true,
}

// sensitiveKeywords are substrings that mark an attribute key or a query
// parameter name as sensitive. The bare word "key" is not listed because
// it matches too much ("keyboard", "monkey"); "apikey" and friends are.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth",
	"credential", "private", "signature", "apikey", "api_key",
	"access_key", "session",
}

// sensitivePatterns match values that are secrets on their own.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// AWS access keys
	regexp.MustCompile(`^AKIA[0-9A-Z]{16}$`),

	// Private key markers
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// SecureHandler wraps an slog.Handler and masks sensitive attribute values
// before passing records to it.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the underlying handler handles the level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the given attributes sanitized and added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr sanitizes a single attribute, recursing into groups and
// string slices.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return slog.String(a.Key, SanitizeString(a.Value.String()))
	case slog.KindAny:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		if ss, ok := a.Value.Any().([]string); ok {
			out := make([]string, len(ss))
			for i, s := range ss {
				out[i] = SanitizeString(s)
			}
			return slog.Any(a.Key, out)
		}
		return a
	default:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, MaskValue)
		}
		return a
	}
}

// SanitizeString masks a value if it is a secret, and masks the
// credentials inside it if it is a URL.
func SanitizeString(value string) string {
	if isSensitiveValue(value) {
		return MaskValue
	}
	if strings.Contains(value, "://") || strings.Contains(value, "?") {
		return SanitizeURL(value)
	}
	return value
}

// SanitizeURL masks the userinfo and sensitive query parameters of raw.
// Values that do not parse as URLs are returned unchanged.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	changed := false
	if u.User != nil {
		u.User = url.User(userinfoMask)
		changed = true
	}

	if u.RawQuery != "" {
		q := u.Query()
		masked := false
		for name := range q {
			if isSensitiveKey(name) {
				q.Set(name, MaskValue)
				masked = true
			}
		}
		if masked {
			u.RawQuery = q.Encode()
			changed = true
		}
	}

	if !changed {
		return raw
	}
	// Query().Encode() escapes the mask; show it literally.
	return strings.ReplaceAll(u.String(), url.QueryEscape(MaskValue), MaskValue)
}

// isSensitiveKey reports whether an attribute key or parameter name
// indicates a secret.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	if sensitiveKeys[lower] {
		return true
	}
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
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

// NewSecureLogger creates a new text slog.Logger with secure handling.
// verbose selects the Debug level, which includes the per-link trace;
// otherwise only warnings and errors are logged.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is like NewSecureLogger but writes JSON records.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
