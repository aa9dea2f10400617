// Package models - incoming request types and validation.
//
// Validation Design:
// - Rules run in a fixed order with first-failure-wins semantics so error
//   reporting is deterministic: a request missing both name and email always
//   reports the name error.
// - Field values are returned untouched on success; HTML escaping happens
//   exactly once, in the mail package, never here.
// - User-facing reasons are in Turkish, matching the site audience.
package models

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field length limits for contact submissions.
const (
	MaxNameLength    = 100
	MaxSubjectLength = 200
	MinMessageLength = 10
	MaxMessageLength = 5000
)

// emailPattern is a deliberately loose address shape: something before the @,
// something after it, and a dot in the domain part. Real deliverability is
// decided by the mail relay, not here.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactRequest is a contact form submission as received on the wire.
// It exists only for the duration of one request and is never persisted.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// FieldError describes the first validation rule a submission violated.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Reason
}

// Validate checks the submission against the contact form rules, in order:
// name, email, phone, subject, message. It returns nil when the submission is
// acceptable, otherwise the first violated rule. Emptiness is judged after
// trimming; length limits are counted in runes.
func (r *ContactRequest) Validate() *FieldError {
	if strings.TrimSpace(r.Name) == "" {
		return &FieldError{Field: "name", Reason: "İsim gereklidir"}
	}
	if utf8.RuneCountInString(r.Name) > MaxNameLength {
		return &FieldError{Field: "name", Reason: "İsim çok uzun"}
	}

	if !emailPattern.MatchString(r.Email) {
		return &FieldError{Field: "email", Reason: "Geçerli bir e-posta adresi gereklidir"}
	}

	// Phone is optional and free-form at this layer. A non-string phone value
	// never reaches validation: it already fails JSON decoding.

	if strings.TrimSpace(r.Subject) == "" {
		return &FieldError{Field: "subject", Reason: "Konu gereklidir"}
	}
	if utf8.RuneCountInString(r.Subject) > MaxSubjectLength {
		return &FieldError{Field: "subject", Reason: "Konu çok uzun"}
	}

	trimmed := strings.TrimSpace(r.Message)
	if utf8.RuneCountInString(trimmed) < MinMessageLength {
		return &FieldError{Field: "message", Reason: "Mesaj en az 10 karakter olmalıdır"}
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return &FieldError{Field: "message", Reason: "Mesaj çok uzun"}
	}

	return nil
}
