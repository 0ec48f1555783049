package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViniZap4/sharednotes/domain"
)

func TestParseOrEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []domain.Note
	}{
		{"nil input", "", []domain.Note{}},
		{"empty array", "[]", []domain.Note{}},
		{"garbage", "not json at all", []domain.Note{}},
		{"truncated", `[{"text":"a"},{"te`, []domain.Note{}},
		{"object", `{"0":{"text":"a"}}`, []domain.Note{}},
		{
			"notes",
			`[{"text":"b","title":"t","author":"x","when":"now"},{"text":"a","title":"","author":"","when":""}]`,
			[]domain.Note{{Text: "b", Title: "t", Author: "x", When: "now"}, {Text: "a"}},
		},
		{"missing keys", `[{"text":"a"}]`, []domain.Note{{Text: "a"}}},
		{"skips non-objects", `[null,1,"s",[],{"text":"a"}]`, []domain.Note{{Text: "a"}}},
		{"skips wrong field types", `[{"text":5},{"text":"ok"}]`, []domain.Note{{Text: "ok"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOrEmpty([]byte(tt.data))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLog_ReportsSkippedEntries(t *testing.T) {
	notes, err := parseLog([]byte(`[{"text":"a"},7]`))

	assert.Len(t, notes, 1)
	assert.EqualError(t, err, "skipped 1 malformed entries")
}

func TestParseOrEmpty_RoundTrip(t *testing.T) {
	in := []domain.Note{{Text: "ü / <x>", Title: "t"}, {Text: "b"}}
	data, err := domain.Marshal(in)
	require.NoError(t, err)

	assert.Equal(t, in, ParseOrEmpty(data))
}
