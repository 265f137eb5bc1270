package models

// Режимы чтения по лицу.
const (
	FaceModeSingle = "single"
	FaceModeCouple = "couple"
)

// UploadedImage - изображение из multipart-формы.
type UploadedImage struct {
	MIMEType string
	Data     []byte
}

// FaceReadingRequest - параметры запроса на чтение по лицу.
type FaceReadingRequest struct {
	Mode   string
	Prompt string
	Images []UploadedImage
}

// PalmReadingResponse - ответ эндпоинта чтения по ладони.
type PalmReadingResponse struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// FaceReadingResponse - ответ эндпоинта чтения по лицу.
type FaceReadingResponse struct {
	OK      bool   `json:"ok"`
	Content string `json:"content"`
}
