package transport

import (
	"encoding/json"
	"net/http"
)

// ErrorKind is the machine-readable category of a rejected request.
type ErrorKind string

const (
	// KindMissingCredentials: no usable Authorization header (client usage error).
	KindMissingCredentials ErrorKind = "missing_credentials"

	// KindInvalidCredentials: credentials presented but rejected. Covers
	// unknown usernames and wrong passwords without distinction.
	KindInvalidCredentials ErrorKind = "invalid_credentials"

	// KindTransportFailure: the authentication backend could not be reached.
	KindTransportFailure ErrorKind = "transport_failure"

	// KindTooManyRequests: rate limit exceeded for the identity's tier.
	KindTooManyRequests ErrorKind = "too_many_requests"

	// KindServerError: unexpected internal failure.
	KindServerError ErrorKind = "server_error"
)

// APIError is the wire form of a rejection, carrying a machine-readable
// kind and a human-readable message.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// ErrorResponse wraps an APIError as the top-level error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// WriteError writes the JSON error envelope with the given status code.
func WriteError(w http.ResponseWriter, status int, kind ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: &APIError{Kind: kind, Message: message}})
}
