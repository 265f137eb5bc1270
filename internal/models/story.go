package models

// FinalChapter - номер последней главы истории.
const FinalChapter = 10

// Choice - вариант ветвления, выбранный игроком после главы.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

// Valid сообщает, является ли значение допустимым вариантом выбора.
func (c Choice) Valid() bool {
	return c == ChoiceA || c == ChoiceB
}

// LogEntry - одна прошлая глава и выбор, сделанный после нее.
type LogEntry struct {
	Chapter int     `json:"chapter"`
	Choice  *Choice `json:"choice,omitempty"`
	Text    string  `json:"text"`
	Picked  *string `json:"picked,omitempty"`
}

// ChapterRequest - тело запроса на генерацию следующей главы.
// Chapter - указатель, чтобы отличить отсутствие поля от нулевой главы.
type ChapterRequest struct {
	SessionID string     `json:"sessionId"`
	Chapter   *int       `json:"chapter"`
	Choice    *Choice    `json:"choice,omitempty"`
	Log       []LogEntry `json:"log,omitempty"`
	Reset     bool       `json:"reset,omitempty"`
}

// Choices - пара вариантов для следующего шага.
type Choices struct {
	A string `json:"A"`
	B string `json:"B"`
}

// ChapterResponse - готовая глава, возвращаемая клиенту.
// Choices == nil сериализуется в null (финальная глава).
type ChapterResponse struct {
	ChapterNumber int      `json:"chapterNumber"`
	Text          string   `json:"text"`
	Choices       *Choices `json:"choices"`
	IsFinal       bool     `json:"isFinal"`
	FinalLine     string   `json:"finalLine,omitempty"`
}
