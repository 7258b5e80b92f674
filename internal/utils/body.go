package utils

import (
	"fmt"
	"io"
	"net/http"
)

// ReadBody drains a response body up to maxBytes and returns it as a string.
// Markup scraping never needs unbounded pages; the cap keeps a hostile or
// broken upstream from exhausting memory.
func ReadBody(resp *http.Response, maxBytes int64) (string, error) {
	limited := io.LimitReader(resp.Body, maxBytes)
	data, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("error reading body: %w", err)
	}
	return string(data), nil
}
