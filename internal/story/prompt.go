package story

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
	"unicode/utf8"

	"horror-story-server/internal/models"
)

//go:embed prompts/*.tmpl
var embeddedPrompts embed.FS

const (
	systemTemplate       = "system.tmpl"
	openingTemplate      = "opening.tmpl"
	continuationTemplate = "continuation.tmpl"

	// maxLogLineRunes - длина одной строки истории в промте.
	maxLogLineRunes = 1200
	emptyHistory    = "(없음)"
)

// promptData - данные для шаблонов промтов.
type promptData struct {
	FinalChapter  int
	TargetChapter int
	Choice        models.Choice
	History       string
	IsFinal       bool
}

// Prompts хранит разобранные шаблоны. Только для чтения после создания.
type Prompts struct {
	tmpl *template.Template
}

// LoadPrompts загружает шаблоны из dir или встроенные, если dir пуст.
func LoadPrompts(dir string) (*Prompts, error) {
	var fsys fs.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embeddedPrompts, "prompts")
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения встроенных промтов: %w", err)
		}
		fsys = sub
	}

	tmpl, err := template.New("prompts").
		Funcs(template.FuncMap{"sub": func(a, b int) int { return a - b }}).
		Option("missingkey=error").
		ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора шаблонов промтов: %w", err)
	}
	for _, name := range []string{systemTemplate, openingTemplate, continuationTemplate} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("шаблон промта '%s' не найден", name)
		}
	}
	return &Prompts{tmpl: tmpl}, nil
}

// System возвращает системный промт.
func (p *Prompts) System() (string, error) {
	return p.render(systemTemplate, promptData{FinalChapter: models.FinalChapter})
}

// Opening возвращает промт первой главы.
func (p *Prompts) Opening() (string, error) {
	return p.render(openingTemplate, promptData{FinalChapter: models.FinalChapter, TargetChapter: 1})
}

// Continuation возвращает промт главы target, которая продолжает ветку choice.
func (p *Prompts) Continuation(target int, choice models.Choice, history []models.LogEntry) (string, error) {
	return p.render(continuationTemplate, promptData{
		FinalChapter:  models.FinalChapter,
		TargetChapter: target,
		Choice:        choice,
		History:       renderHistory(history),
		IsFinal:       target == models.FinalChapter,
	})
}

func (p *Prompts) render(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("ошибка рендеринга промта '%s': %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// renderHistory превращает записи истории в строки вида "#3(A): текст".
func renderHistory(entries []models.LogEntry) string {
	if len(entries) == 0 {
		return emptyHistory
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("#%d", e.Chapter)
		if e.Choice != nil && *e.Choice != "" {
			line += fmt.Sprintf("(%s)", *e.Choice)
		}
		lines = append(lines, truncateRunes(line+": "+e.Text, maxLogLineRunes))
	}
	return strings.Join(lines, "\n\n")
}

// recentHistory возвращает последние window записей в исходном порядке.
func recentHistory(log []models.LogEntry, window int) []models.LogEntry {
	if window <= 0 || len(log) == 0 {
		return nil
	}
	start := len(log) - window
	if start < 0 {
		start = 0
	}
	out := make([]models.LogEntry, len(log)-start)
	copy(out, log[start:])
	return out
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
