package api

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type pageResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

// DecodeList accepts both a paginated envelope ({count, results}) and a bare
// array, returning the items and the total count reported by the backend.
func DecodeList[T any](raw json.RawMessage) ([]T, int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("decode list: %w", err)
		}
		return items, len(items), nil
	}

	var page pageResponse[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, 0, fmt.Errorf("decode page: %w", err)
	}
	count := page.Count
	if count == 0 {
		count = len(page.Results)
	}
	return page.Results, count, nil
}
