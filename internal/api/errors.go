package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FieldError is one validation message reported by the service for a
// request field.
type FieldError struct {
	Field   string
	Message string
}

// Error is a non-2xx response from the service.
type Error struct {
	Op         string
	StatusCode int
	// Message is the service's top-level message, if any.
	Message string
	// Fields holds field errors in the order the service sent them.
	Fields []FieldError
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, msg)
}

// Unauthorized reports whether the service rejected the credential.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Validation reports whether the service rejected the request content.
func (e *Error) Validation() bool {
	return e.StatusCode == http.StatusUnprocessableEntity || e.StatusCode == http.StatusBadRequest
}

// ServerFault reports a 5xx response.
func (e *Error) ServerFault() bool {
	return e.StatusCode >= 500
}

// FirstField returns the first field error, if the service sent any.
func (e *Error) FirstField() (FieldError, bool) {
	if len(e.Fields) == 0 {
		return FieldError{}, false
	}
	return e.Fields[0], true
}

// UserMessage picks what to show a user: the first field error, else
// the service message, else fallback.
func (e *Error) UserMessage(fallback string) string {
	if f, ok := e.FirstField(); ok && f.Message != "" {
		return f.Message
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// TransportError means the request never got a response: DNS, refused
// connection, timeout, or an unreadable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

const maxErrorBody = 64 << 10

func decodeError(op string, resp *http.Response) *Error {
	apiErr := &Error{Op: op, StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return apiErr
	}

	var envelope struct {
		Message string          `json:"message"`
		Error   string          `json:"error"`
		Errors  json.RawMessage `json:"errors"`
		Data    struct {
			Errors json.RawMessage `json:"errors"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Message = envelope.Message
	if apiErr.Message == "" {
		apiErr.Message = envelope.Error
	}
	raw := envelope.Errors
	if len(raw) == 0 {
		raw = envelope.Data.Errors
	}
	apiErr.Fields = orderedFieldErrors(raw)
	return apiErr
}

// orderedFieldErrors reads {"field": ["msg", ...] | "msg", ...} keeping
// the object's key order, which encoding/json maps would lose.
func orderedFieldErrors(raw json.RawMessage) []FieldError {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var fields []FieldError
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fields
		}
		name, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fields
		}
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			for _, msg := range list {
				fields = append(fields, FieldError{Field: name, Message: msg})
			}
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			fields = append(fields, FieldError{Field: name, Message: single})
		}
	}
	return fields
}
