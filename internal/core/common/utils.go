package common

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// DecodeJSON unmarshals a single JSON value into a T. Surrounding whitespace
// is ignored; anything else around the value is an error.
func DecodeJSON[T any](data []byte) (T, error) {
	var zero T
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return zero, fmt.Errorf("empty JSON input")
	}
	if data[0] != '{' {
		return zero, fmt.Errorf("no JSON object found (starts with %q)", data[0])
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
