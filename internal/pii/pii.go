// Package pii masks personal identifiers before text is sent to a model.
package pii

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`)
)

const (
	MaskedEmail = "[MASKED_EMAIL]"
	MaskedPhone = "[MASKED_PHONE]"
	// NamePlaceholder replaces the user's own name.
	NamePlaceholder = "User"
)

// Mask replaces email addresses and phone numbers.
func Mask(text string) string {
	text = emailRe.ReplaceAllString(text, MaskedEmail)
	return phoneRe.ReplaceAllString(text, MaskedPhone)
}

// MaskName replaces case-insensitive whole-word occurrences of name with NamePlaceholder,
// then applies Mask.
func MaskName(text, name string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		text = re.ReplaceAllString(text, NamePlaceholder)
	}
	return Mask(text)
}
