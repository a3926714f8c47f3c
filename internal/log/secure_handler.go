package log

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaskValue replaces the value of a sensitive attribute.
const MaskValue = "***REDACTED***"

// DefaultMaxBodyBytes is how much of a page body attribute is kept in records
// above Debug level. Debug records keep the whole body.
const DefaultMaxBodyBytes = 2048

// sensitiveKeys are attribute keys whose values are always masked.
// Keys are compared in lower case.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"phpsessid":           true,
	"session":             true,
	"session_id":          true,
	"sessionid":           true,
	"sid":                 true,
	"password":            true,
	"passwd":              true,
	"token":               true,
	"secret":              true,
}

// sensitiveKeywords mask any key containing them.
var sensitiveKeywords = []string{"password", "passwd", "secret", "token", "credential", "cookie"}

// bodyKeys are attribute keys carrying raw page content.
var bodyKeys = map[string]bool{
	"body": true,
	"raw":  true,
}

// sensitivePatterns mask string values that look like credentials wherever
// they appear.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`(?i)(^|;\s*)phpsessid=`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
}

// SecureHandler wraps a slog.Handler, masking credentials and truncating
// page bodies of non-Debug records before they reach it.
type SecureHandler struct {
	handler      slog.Handler
	maxBodyBytes int
}

// NewSecureHandler wraps handler. A nil handler wraps the default handler.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler, maxBodyBytes: DefaultMaxBodyBytes}
}

// WithMaxBodyBytes returns a copy that keeps n bytes of body attributes.
func (h *SecureHandler) WithMaxBodyBytes(n int) *SecureHandler {
	return &SecureHandler{handler: h.handler, maxBodyBytes: n}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	fullBody := r.Level <= slog.LevelDebug
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a, fullBody))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a, false)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized), maxBodyBytes: h.maxBodyBytes}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name), maxBodyBytes: h.maxBodyBytes}
}

// sanitizeAttr masks a. Body attributes are truncated unless fullBody is set.
func (h *SecureHandler) sanitizeAttr(a slog.Attr, fullBody bool) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = h.sanitizeAttr(ga, fullBody)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] || containsSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	s := a.Value.String()
	if isSensitiveValue(s) {
		return slog.String(a.Key, MaskValue)
	}
	if bodyKeys[key] && !fullBody {
		return slog.String(a.Key, truncate(s, h.maxBodyBytes))
	}
	return a
}

func containsSensitiveKeyword(key string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most limit bytes on a rune boundary and notes how
// much was dropped.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(%d bytes truncated)", s[:cut], len(s)-cut)
}
