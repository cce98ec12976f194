package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/notebook-cli/internal/core/domain"
)

func TestAskCmd(t *testing.T) {
	a := newTestApp(t)
	a.answer.answer = &domain.Answer{
		Text: "  Paris.  ",
		Sources: []domain.Source{
			{DocID: "url_1", Title: "France", SourceRef: "https://example.com/fr"},
		},
	}

	out, err := run(t, a, "ask", "-k", "3", "capital", "of", "france?")

	require.NoError(t, err)
	assert.Equal(t, "capital of france?", a.answer.lastQuestion)
	assert.Equal(t, 3, a.answer.lastOpts.TopK)
	assert.Equal(t, "Answer\nParis.\n\nReferences\n- France | https://example.com/fr\n", out)
}

func TestAskCmd_Error(t *testing.T) {
	a := newTestApp(t)
	a.answer.err = domain.ErrLLMUnavailable

	_, err := run(t, a, "ask", "anything")

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestAskCmd_Compact(t *testing.T) {
	a := newTestApp(t)
	a.answer.answer = &domain.Answer{Text: strings.Repeat("é", 3000)}

	out, err := run(t, a, "ask", "--compact", "long")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "...(truncated)\n"))
	assert.LessOrEqual(t, len([]rune(out)), compactLimit)
}

func TestFormatAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer domain.Answer
		want   string
	}{
		{
			name:   "no sources",
			answer: domain.Answer{Text: "Nothing found."},
			want:   "Answer\nNothing found.\n\nReferences\n- (no references)",
		},
		{
			name: "untitled source",
			answer: domain.Answer{Text: "Yes", Sources: []domain.Source{
				{SourceRef: "/notes/a.md"},
				{Title: "B", SourceRef: "/notes/b.md"},
			}},
			want: "Answer\nYes\n\nReferences\n- untitled | /notes/a.md\n- B | /notes/b.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAnswer(&tt.answer))
		})
	}
}

func TestTruncateMessage(t *testing.T) {
	short := strings.Repeat("a", compactLimit)
	assert.Equal(t, short, truncateMessage(short))

	long := strings.Repeat("ü", compactLimit+1)
	got := truncateMessage(long)
	assert.Equal(t, strings.Repeat("ü", compactKeep)+"\n...(truncated)", got)
}
