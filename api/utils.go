package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"unicode/utf8"

	"todoapi/core"
)

const maxErrorMessageLength = 500

var (
	connectionStringPattern = regexp.MustCompile(`(?:mongodb(?:\+srv)?|redis)://[^\s"']+`)
	credentialPattern       = regexp.MustCompile(`(?i)(password|secret|token|credential)[:=]\s*["']?[^"'\s]+["']?`)
)

// sanitizeErrorMessage removes connection strings and credentials from messages sent to clients
func sanitizeErrorMessage(message string) string {
	message = connectionStringPattern.ReplaceAllString(message, "[DATABASE_CONNECTION]")
	message = credentialPattern.ReplaceAllString(message, "$1=[REDACTED]")

	if len(message) > maxErrorMessageLength {
		cut := maxErrorMessageLength - 3
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut] + "..."
	}

	return message
}

// respondJSON writes a JSON response with proper error handling
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
		// Response already started, can't send error to client
	}
}

// writeMessage writes a {"message": ...} body
func (a *API) writeMessage(w http.ResponseWriter, statusCode int, message string) {
	a.respondJSON(w, MessageResponse{Message: message}, statusCode)
}

// decodeJSONBodyWithLimit decodes a JSON request body with a size limit.
// On failure the 400/413 response has already been written.
func (a *API) decodeJSONBodyWithLimit(w http.ResponseWriter, r *http.Request, dst interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	decoder := json.NewDecoder(r.Body)

	err := decoder.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			a.writeMessage(w, http.StatusBadRequest, "Request body is required")
		case errors.As(err, &syntaxError):
			a.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON syntax at byte offset %d", syntaxError.Offset))
		case errors.As(err, &unmarshalTypeError):
			a.writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid type for field '%s': expected %s, got %s", unmarshalTypeError.Field, unmarshalTypeError.Type, unmarshalTypeError.Value))
		case errors.As(err, &maxBytesError):
			a.writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
		default:
			a.writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		}
		return core.ValidationError("invalid request body", err)
	}

	return nil
}
