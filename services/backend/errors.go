package backendapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("permission denied")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx answer of the backend.
type Error struct {
	StatusCode int
	Message    string
}

func newError(code int, body string) *Error {
	return &Error{StatusCode: code, Message: errorMessage(code, body)}
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// Detail is the message to show to the user.
func (e *Error) Detail() string { return e.Message }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// errorMessage extracts the message of an error body: {"detail": ...}, {"error": ...},
// {"mensaje": ...}, {"message": ...} or field errors {"field": ["msg", ...]}.
func errorMessage(code int, body string) string {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		for _, key := range []string{"detail", "error", "mensaje", "message"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
		var flds []string
		for field, val := range payload {
			if msg := flatten(val); msg != "" {
				flds = append(flds, field+": "+msg)
			}
		}
		if len(flds) > 0 {
			sort.Strings(flds)
			return strings.Join(flds, "; ")
		}
	}
	return http.StatusText(code)
}

func flatten(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case []interface{}:
		msgs := make([]string, 0, len(v))
		for _, item := range v {
			if msg := flatten(item); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, ", ")
	}
	return ""
}
