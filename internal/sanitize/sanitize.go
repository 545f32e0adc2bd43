// Package sanitize escapes user-supplied text and enforces the per-field
// content length limits. Sanitization happens exactly once, at the boundary
// where untrusted input is first accepted; applying Text twice double-escapes,
// so stored values are never re-escaped before output.
package sanitize

import (
	"strings"

	"github.com/studio730/community-api/internal/apperr"
)

// Content length limits, in characters (runes).
const (
	MaxRecordContent  = 5000
	MaxCommentContent = 1000
	MaxBio            = 500
	MaxNickname       = 50
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// Text escapes the six HTML-significant characters to their entity
// equivalents. The literal text is preserved for re-display as escaped
// plain text; nothing is stripped.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return escaper.Replace(s)
}

// ValidateLength rejects input longer than max. It runs before Text in the
// request pipeline: oversized input is refused before any escaping work.
func ValidateLength(s string, max int) error {
	if len([]rune(s)) > max {
		return apperr.Validationf("Content exceeds maximum length of %d characters", max)
	}
	return nil
}
