package provider

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var encodings sync.Map // model -> *tiktoken.Tiktoken

// estimateTokens оценивает число токенов, если провайдер не вернул usage.
// Для неизвестных моделей используется cl100k_base. При ошибке загрузки словаря возвращает 0.
func estimateTokens(model string, texts ...string) int {
	enc, err := encodingFor(model)
	if err != nil {
		return 0
	}
	total := 0
	for _, text := range texts {
		if text != "" {
			total += len(enc.Encode(text, nil, nil))
		}
	}
	return total
}

func encodingFor(model string) (*tiktoken.Tiktoken, error) {
	if cached, ok := encodings.Load(model); ok {
		return cached.(*tiktoken.Tiktoken), nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			return nil, err
		}
	}
	encodings.Store(model, enc)
	return enc, nil
}
