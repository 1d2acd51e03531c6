// Package validate runs the client-side checks that block a form before
// any network call is made.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpRe   = regexp.MustCompile(`^\d{6}$`)
)

const (
	MinPasswordLen = 8
	MinNameLen     = 2
	MaxNameLen     = 50
)

// Errors maps a field name to its inline message
type Errors map[string]string

// Add records msg for field unless the field already has one
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OK reports whether no field failed
func (e Errors) OK() bool { return len(e) == 0 }

// Error joins messages in field order so that Errors can be returned as an error
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = e[f]
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when no field failed
func (e Errors) Err() error {
	if e.OK() {
		return nil
	}
	return e
}

// Required records an error when value is blank
func (e Errors) Required(field, label, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, label+" is required")
		return false
	}
	return true
}

// Email checks a required email address
func (e Errors) Email(field, value string) {
	if !e.Required(field, "Email", value) {
		return
	}
	if !emailRe.MatchString(strings.TrimSpace(value)) {
		e.Add(field, "Please enter a valid email address")
	}
}

// Password checks length and character classes
func (e Errors) Password(field, value string) {
	if !e.Required(field, "Password", value) {
		return
	}
	if utf8.RuneCountInString(value) < MinPasswordLen {
		e.Add(field, "Password must be at least 8 characters")
		return
	}
	var upper, lower, digit bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		e.Add(field, "Password must contain an uppercase letter, a lowercase letter and a number")
	}
}

// Match checks a confirmation field
func (e Errors) Match(field, value, other string) {
	if value != other {
		e.Add(field, "Passwords do not match")
	}
}

// Name checks a display name
func (e Errors) Name(field, value string) {
	if !e.Required(field, "Name", value) {
		return
	}
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < MinNameLen || n > MaxNameLen {
		e.Add(field, "Name must be between 2 and 50 characters")
	}
}

// OTP checks a six digit verification code
func (e Errors) OTP(field, value string) {
	if !e.Required(field, "Code", value) {
		return
	}
	if !otpRe.MatchString(strings.TrimSpace(value)) {
		e.Add(field, "Code must be 6 digits")
	}
}

// Login validates the login form
func Login(email, password string) Errors {
	e := Errors{}
	e.Email("email", email)
	e.Required("password", "Password", password)
	return e
}

// Signup validates the registration form
func Signup(name, email, password, confirm string) Errors {
	e := Errors{}
	e.Name("name", name)
	e.Email("email", email)
	e.Password("password", password)
	e.Match("confirm", confirm, password)
	return e
}
