package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope codes owned by this package's middlewares. The service error
// taxonomy reuses these values.
const (
	CodeOK              = 0
	CodeUnauthorized    = 1016
	CodeForbidden       = 1017
	CodeTooManyRequests = 1022
)

// Envelope is the body of every JSON response: code 0 is success, anything
// else is an error from the service taxonomy.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta carries offset pagination details for list responses.
type Meta struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewMeta computes TotalPages from total and size.
func NewMeta(page, size int, total int64) *Meta {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return &Meta{Page: page, Size: size, TotalElements: total, TotalPages: pages}
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK writes a success envelope.
func WriteOK(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Code: CodeOK, Message: message, Data: data})
}

// WritePage writes a success envelope with pagination metadata.
func WritePage(w http.ResponseWriter, message string, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Envelope{Code: CodeOK, Message: message, Data: data, Meta: meta})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status, code int, message string) {
	WriteJSON(w, status, Envelope{Code: code, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
