// Package models - API response types.
//
// Response Design:
// - The contact endpoint always answers {"ok": true} or {"ok": false, "error": ...}
//   so the form client can branch on a single boolean.
// - The image proxy answers raw image bytes on success and {"error": ...} on
//   failure; upstream bodies are never reflected back to the caller.
package models

import "time"

// ContactResponse is the contact endpoint's wire format.
type ContactResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the JSON error envelope used by the image proxy and by
// router-level failures (method not allowed, unknown route).
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse answers liveness probes.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// User-facing messages for contact pipeline failures. Specific enough for a
// well-behaved client to react, generic enough to leak nothing about relay
// configuration or transport errors.
const (
	MsgRateLimited     = "Çok fazla istek gönderdiniz. Lütfen daha sonra tekrar deneyin."
	MsgMalformedBody   = "Geçersiz istek gövdesi"
	MsgMailUnavailable = "E-posta servisi şu anda kullanılamıyor"
	MsgMailFailed      = "E-posta gönderimi başarısız oldu"
	MsgServerError     = "Sunucu hatası oluştu"
)

func NewContactOK() *ContactResponse {
	return &ContactResponse{OK: true}
}

func NewContactError(message string) *ContactResponse {
	return &ContactResponse{OK: false, Error: message}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}
