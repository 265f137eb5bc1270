package story

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"horror-story-server/internal/models"
)

// codeFenceRe вытаскивает содержимое блока ```json ... ```.
var codeFenceRe = regexp.MustCompile("(?s)```(?:\\w+)?\\s*(.*?)\\s*```")

// modelChapter - глава в том виде, как ее вернула модель. Указатели отличают отсутствие поля.
// ChapterNumber - float64, потому что модель может прислать 2.0.
type modelChapter struct {
	ChapterNumber *float64        `json:"chapterNumber"`
	Text          *string         `json:"text"`
	Choices       *models.Choices `json:"choices"`
	IsFinal       *bool           `json:"isFinal"`
	FinalLine     *string         `json:"finalLine"`

	// hasChoices - ключ choices присутствует (в том числе со значением null)
	hasChoices bool
}

// number возвращает номер главы. Вызывать только после validateChapter.
func (ch *modelChapter) number() int {
	return int(*ch.ChapterNumber)
}

// decodeChapter - нестрогий разбор ответа модели: сначала как есть, затем без обрамления ```.
// Возвращает главу и разобранный объект для диагностики.
func decodeChapter(raw string) (*modelChapter, any, error) {
	text := strings.TrimSpace(raw)
	received, err := parseObject(text)
	if err != nil {
		stripped := stripCodeFence(text)
		if stripped == text {
			return nil, nil, &models.MalformedOutputError{Reason: "response is not valid JSON: " + err.Error(), Raw: raw}
		}
		text = stripped
		if received, err = parseObject(text); err != nil {
			return nil, nil, &models.MalformedOutputError{Reason: "response is not valid JSON after removing code fence: " + err.Error(), Raw: raw}
		}
	}

	var chapter modelChapter
	if err := json.Unmarshal([]byte(text), &chapter); err != nil {
		return nil, received, &models.MalformedOutputError{Reason: "unexpected field types: " + err.Error(), Raw: raw, Received: received}
	}
	_, chapter.hasChoices = received["choices"]
	return &chapter, received, nil
}

func parseObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("expected JSON object")
	}
	return obj, nil
}

func stripCodeFence(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	// Незакрытый блок: модель оборвала ответ после ```json
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}

// validateChapter проверяет форму главы. target - ожидаемый номер главы.
func validateChapter(ch *modelChapter, target int) error {
	switch {
	case ch.ChapterNumber == nil:
		return fmt.Errorf("chapterNumber is missing")
	case *ch.ChapterNumber != math.Trunc(*ch.ChapterNumber):
		return fmt.Errorf("chapterNumber %v is not an integer", *ch.ChapterNumber)
	case ch.number() != target:
		return fmt.Errorf("chapterNumber is %d, expected %d", ch.number(), target)
	case ch.Text == nil || strings.TrimSpace(*ch.Text) == "":
		return fmt.Errorf("text is empty")
	case ch.IsFinal == nil:
		return fmt.Errorf("isFinal is missing")
	}

	if ch.number() < models.FinalChapter {
		if ch.Choices == nil || strings.TrimSpace(ch.Choices.A) == "" || strings.TrimSpace(ch.Choices.B) == "" {
			return fmt.Errorf("chapter %d must have both choices A and B", ch.number())
		}
		if *ch.IsFinal {
			return fmt.Errorf("chapter %d must not be final", ch.number())
		}
		return nil
	}

	if !ch.hasChoices || ch.Choices != nil {
		return fmt.Errorf("final chapter must have choices=null")
	}
	if !*ch.IsFinal {
		return fmt.Errorf("final chapter must have isFinal=true")
	}
	return nil
}

// finalize собирает ответ. Для финальной главы finalLine добавляется к тексту.
func finalize(ch *modelChapter) *models.ChapterResponse {
	resp := &models.ChapterResponse{
		ChapterNumber: ch.number(),
		Text:          *ch.Text,
		Choices:       ch.Choices,
		IsFinal:       *ch.IsFinal,
	}
	if ch.FinalLine != nil {
		resp.FinalLine = *ch.FinalLine
	}
	if resp.IsFinal {
		if line := strings.TrimSpace(resp.FinalLine); line != "" {
			resp.Text = strings.TrimSpace(resp.Text) + "\n\n《" + line + "》"
		}
	}
	return resp
}
