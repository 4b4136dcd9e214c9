package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an API error.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error, e.g. "invalid_request_error".
	Type string `json:"type"`

	// Param names the offending request field, if any.
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeConflict           = "conflict"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
	ErrorTypeGatewayTimeout     = "timeout"
)

// Error codes.
const (
	CodeInvalidJSON      = "invalid_json"
	CodeInvalidValue     = "invalid_value"
	CodeUnknownProvider  = "unknown_provider"
	CodeRequestTooLarge  = "request_too_large"
	CodeSweepInProgress  = "sweep_in_progress"
	CodeStoreUnavailable = "store_unavailable"
	CodeRequestTimeout   = "request_timeout"
	CodeInternalError    = "internal_error"
)

// HTTPStatusCode returns the status code for the error type.
func (e ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func newError(errorType, code, param, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errorType,
		Param:   param,
		Code:    code,
	}}
}

func invalidRequest(code, param, message string) *ErrorResponse {
	return newError(ErrorTypeInvalidRequest, code, param, message)
}

// writeError writes resp with the status code of its type.
func writeError(w http.ResponseWriter, resp *ErrorResponse) {
	writeJSON(w, resp.Error.HTTPStatusCode(), resp)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
