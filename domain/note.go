// domain/note.go
package domain

// Retention window and per-field limits, counted in Unicode code points.
const (
	MaxItems     = 500
	MaxTextLen   = 2000
	MaxTitleLen  = 200
	MaxAuthorLen = 120
	MaxWhenLen   = 64
)

// Note is one entry of the shared log. When is a free-form label supplied
// by the client and is never parsed.
type Note struct {
	Text   string `json:"text" yaml:"text"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	When   string `json:"when" yaml:"when"`
}

// RawFields holds the caller-supplied values before sanitization. Values of
// any type other than string are treated as absent.
type RawFields struct {
	Text   any
	Title  any
	Author any
	When   any
}

// NewNote sanitizes every field and requires a non-empty text.
func NewNote(f RawFields) (Note, error) {
	text := Sanitize(f.Text, MaxTextLen)
	if text == "" {
		return Note{}, ErrTextRequired
	}

	return Note{
		Text:   text,
		Title:  Sanitize(f.Title, MaxTitleLen),
		Author: Sanitize(f.Author, MaxAuthorLen),
		When:   Sanitize(f.When, MaxWhenLen),
	}, nil
}

// Prepend puts note at the head of notes and drops whatever falls past
// MaxItems. The input slice is not modified.
func Prepend(notes []Note, note Note) []Note {
	n := len(notes) + 1
	if n > MaxItems {
		n = MaxItems
	}
	out := make([]Note, 0, n)
	out = append(out, note)
	for _, existing := range notes {
		if len(out) == n {
			break
		}
		out = append(out, existing)
	}
	return out
}
