// Package validate holds the fixed field predicates shared by every
// form handler.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRE   = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
	passwordRE   = regexp.MustCompile(`^[A-Za-z0-9_-]{8,20}$`)
	emailRE      = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	titleRE      = regexp.MustCompile(`^.{1,78}$`)
	subjectRE    = regexp.MustCompile(`^.{1,78}$`)
	resetTokenRE = regexp.MustCompile(`^([0-9]{1,30})-.{3,20}$`)
)

const (
	maxBodyLength    = 20000
	maxContentLength = 1000
)

// Username: 3-20 characters of letters, digits, underscore or hyphen.
func Username(s string) bool {
	return usernameRE.MatchString(s)
}

// Password: 8-20 characters of letters, digits, underscore or hyphen,
// requiring at least one digit, one uppercase and one lowercase
// letter.
func Password(s string) bool {
	if !passwordRE.MatchString(s) {
		return false
	}
	return strings.ContainsAny(s, "0123456789") &&
		strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz")
}

// Email: a loose text@text.text shape.
func Email(s string) bool {
	return emailRE.MatchString(s)
}

// Title: 1-78 characters on a single line.
func Title(s string) bool {
	return titleRE.MatchString(s)
}

// Subject: same shape as a title.
func Subject(s string) bool {
	return subjectRE.MatchString(s)
}

// Body: 1-20000 characters, newlines allowed.
func Body(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= maxBodyLength
}

// Content: 1-1000 characters, newlines allowed.
func Content(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= maxContentLength
}

// ResetToken: "{request_id}-{temp_password}" as carried by emailed
// reset links.
func ResetToken(s string) bool {
	return resetTokenRE.MatchString(s)
}
