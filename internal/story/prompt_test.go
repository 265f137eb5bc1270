package story

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horror-story-server/internal/models"
)

func makeLog(n int) []models.LogEntry {
	log := make([]models.LogEntry, n)
	for i := range log {
		c := models.ChoiceA
		if i%2 == 1 {
			c = models.ChoiceB
		}
		log[i] = models.LogEntry{Chapter: i + 1, Choice: &c, Text: strings.Repeat("가", i+1)}
	}
	return log
}

func TestRecentHistory_ExactAndOrdered(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for window := 1; window <= 2; window++ {
			log := makeLog(n)
			got := recentHistory(log, window)

			want := window
			if n < window {
				want = n
			}
			require.Len(t, got, want, "n=%d window=%d", n, window)
			for i, e := range got {
				assert.Equal(t, log[n-want+i], e)
			}
		}
	}
}

func TestRecentHistory_DoesNotAliasInput(t *testing.T) {
	log := makeLog(3)
	got := recentHistory(log, 2)
	got[0].Text = "changed"
	assert.Equal(t, "가가", log[1].Text)
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "(없음)", renderHistory(nil))

	long := strings.Repeat("유", 2000)
	rendered := renderHistory([]models.LogEntry{
		{Chapter: 1, Text: "시작"},
		{Chapter: 2, Choice: choicePtr(models.ChoiceB), Text: long},
	})
	parts := strings.Split(rendered, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "#1: 시작", parts[0])
	assert.True(t, strings.HasPrefix(parts[1], "#2(B): 유"))
	assert.Equal(t, maxLogLineRunes, utf8.RuneCountInString(parts[1]))
}

func TestPrompts_Embedded(t *testing.T) {
	p, err := LoadPrompts("")
	require.NoError(t, err)

	system, err := p.System()
	require.NoError(t, err)
	assert.Contains(t, system, "1~9장은 choices 제공, 10장은 choices=null")

	opening, err := p.Opening()
	require.NoError(t, err)
	assert.Contains(t, opening, "chapterNumber=1, isFinal=false")

	mid, err := p.Continuation(5, models.ChoiceA, nil)
	require.NoError(t, err)
	assert.Contains(t, mid, "지금까지의 로그:\n(없음)")
	assert.Contains(t, mid, "choices A/B(각 6~20자)")
	assert.NotContains(t, mid, "결말")

	final, err := p.Continuation(10, models.ChoiceB, makeLog(1))
	require.NoError(t, err)
	assert.Contains(t, final, "choices=null, isFinal=true")
	assert.Contains(t, final, "#1(A): 가")
}

func TestPrompts_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		systemTemplate:       "SYS {{.FinalChapter}}",
		openingTemplate:      "OPEN",
		continuationTemplate: "CONT {{.TargetChapter}} {{.Choice}}",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	p, err := LoadPrompts(dir)
	require.NoError(t, err)
	got, err := p.Continuation(3, models.ChoiceB, nil)
	require.NoError(t, err)
	assert.Equal(t, "CONT 3 B", got)
}

func TestPrompts_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, systemTemplate), []byte("SYS"), 0o644))
	_, err := LoadPrompts(dir)
	assert.Error(t, err)
}
