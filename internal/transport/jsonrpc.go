package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	// ErrApplication is used for domain rejections; the stable code travels in data.
	ErrApplication = -32000
)

// ErrUnknownMethod is returned by handlers for methods they do not serve.
var ErrUnknownMethod = errors.New("method not found")

// CodedError is an error carrying a stable application error code.
type CodedError interface {
	error
	CodeValue() string
	MessageValue() string
	RecoveryHintValue() string
}

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData carries the application error code of a failed call.
type ErrorData struct {
	Code         string `json:"code"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

// parseError distinguishes malformed JSON from a well-formed but invalid request.
type parseError struct {
	code int
	err  error
}

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// ParseRequest parses and validates a JSON-RPC request payload.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return Request{}, &parseError{code: ErrParseCode, err: fmt.Errorf("parse error: %w", err)}
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, &parseError{code: ErrInvalidReq, err: errors.New("invalid request")}
	}
	return req, nil
}

// ErrorCode returns the JSON-RPC code for a ParseRequest failure.
func ErrorCode(err error) int {
	var perr *parseError
	if errors.As(err, &perr) {
		return perr.code
	}
	return ErrInvalidReq
}

// NewError converts a handler error into a JSON-RPC error object. Errors
// without an application code are reported as internal without their text.
func NewError(err error) *Error {
	if errors.Is(err, ErrUnknownMethod) {
		return &Error{Code: ErrMethodNotFound, Message: err.Error()}
	}
	var coded CodedError
	if !errors.As(err, &coded) {
		return &Error{Code: ErrInternal, Message: "internal error"}
	}
	code := ErrApplication
	switch coded.CodeValue() {
	case CodeInvalidParams:
		code = ErrInvalidParams
	case CodePersistenceUnavailable:
		code = ErrInternal
	}
	return &Error{
		Code:    code,
		Message: coded.MessageValue(),
		Data: &ErrorData{
			Code:         coded.CodeValue(),
			RecoveryHint: coded.RecoveryHintValue(),
		},
	}
}

// Application codes with a dedicated JSON-RPC code.
const (
	CodeInvalidParams          = "INVALID_PARAMS"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
)

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, rpcErr *Error) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error:   rpcErr,
		ID:      id,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
