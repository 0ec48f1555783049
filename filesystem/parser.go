// filesystem/parser.go
package filesystem

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ViniZap4/sharednotes/domain"
)

// ParseOrEmpty decodes the stored log. Anything that is not a JSON array
// yields an empty, non-nil slice; array elements that are not note objects
// are skipped.
func ParseOrEmpty(data []byte) []domain.Note {
	notes, _ := parseLog(data)
	return notes
}

// parseLog is ParseOrEmpty plus the reason anything was dropped, for logs.
func parseLog(data []byte) ([]domain.Note, error) {
	notes := []domain.Note{}
	if len(bytes.TrimSpace(data)) == 0 {
		return notes, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return notes, fmt.Errorf("failed to parse notes log: %w", err)
	}

	skipped := 0
	for _, entry := range raw {
		if !isObject(entry) {
			skipped++
			continue
		}
		var note domain.Note
		if err := json.Unmarshal(entry, &note); err != nil {
			skipped++
			continue
		}
		notes = append(notes, note)
	}
	if skipped > 0 {
		return notes, fmt.Errorf("skipped %d malformed entries", skipped)
	}

	return notes, nil
}

func isObject(entry json.RawMessage) bool {
	trimmed := bytes.TrimSpace(entry)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
