package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	// Detail is the backend's "detail" field, when present.
	Detail string
	// Fields holds per-field validation messages.
	Fields map[string][]string
	// Messages holds a top-level list of messages.
	Messages []string
}

func (e *APIError) Error() string {
	if msg := e.message(); msg != "" {
		return fmt.Sprintf("backend error: %s: %s", e.Status, msg)
	}
	return fmt.Sprintf("backend error: %s", e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// message applies the extraction order: detail, field map, message list, raw body.
func (e *APIError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for key := range e.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(e.Fields[key], ", ")))
		}
		return strings.Join(parts, "; ")
	}
	if len(e.Messages) > 0 {
		return strings.Join(e.Messages, "; ")
	}
	return e.Body
}

// Message turns err into an operator-facing text, falling back when the error
// carries nothing readable (transport failures included).
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.message(); msg != "" {
			return msg
		}
	}
	return fallback
}

func apiErrorFromResponse(resp *resty.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       strings.TrimSpace(resp.String()),
	}
	parseErrorBody(apiErr, resp.Body())
	return apiErr
}

func parseErrorBody(apiErr *APIError, body []byte) {
	if len(body) == 0 {
		return
	}

	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		apiErr.Messages = flattenMessages(list)
		return
	}

	var object map[string]any
	if err := json.Unmarshal(body, &object); err != nil {
		return
	}
	for key, value := range object {
		if key == "detail" {
			if detail, ok := value.(string); ok {
				apiErr.Detail = detail
				continue
			}
		}
		messages := flattenMessages(value)
		if len(messages) == 0 {
			continue
		}
		if apiErr.Fields == nil {
			apiErr.Fields = map[string][]string{}
		}
		apiErr.Fields[key] = messages
	}
}

func flattenMessages(value any) []string {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, flattenMessages(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			for _, msg := range flattenMessages(v[key]) {
				out = append(out, key+": "+msg)
			}
		}
		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}
