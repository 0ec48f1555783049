// domain/json.go
package domain

import (
	"bytes"
	"encoding/json"
)

// Marshal encodes v the way notes are stored and served: UTF-8 kept
// verbatim, no HTML escaping, no trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ParseFields decodes an append request body. Only a JSON object is
// accepted; unknown keys are ignored.
func ParseFields(body []byte) (RawFields, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil || m == nil {
		return RawFields{}, ErrInvalidJSON
	}

	return RawFields{
		Text:   m["text"],
		Title:  m["title"],
		Author: m["author"],
		When:   m["when"],
	}, nil
}
