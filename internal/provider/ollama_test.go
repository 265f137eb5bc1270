package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"horror-story-server/internal/models"
)

func newTestOllama(t *testing.T, status int, body string, captured *map[string]any) Provider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p, err := NewOllama(OllamaOptions{BaseURL: srv.URL + "/v1", Model: "llama3:8b", Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestOllama_Generate_Success(t *testing.T) {
	var body map[string]any
	p := newTestOllama(t, http.StatusOK, `{"model": "llama3:8b", "message": {"role": "assistant", "content": "boo"}, "done": true, "done_reason": "stop", "prompt_eval_count": 7, "eval_count": 3}`, &body)

	c, err := p.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Params:   Params{Temperature: Float64(0.6), MaxTokens: Int(250), JSON: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "boo", c.Text)
	assert.Equal(t, 10, c.Usage.TotalTokens)

	assert.Equal(t, false, body["stream"])
	assert.Equal(t, "json", body["format"])
	opts := body["options"].(map[string]any)
	assert.EqualValues(t, 250, opts["num_predict"])
	assert.InDelta(t, 0.6, opts["temperature"], 1e-9)
}

func TestOllama_Generate_UpstreamError(t *testing.T) {
	// Ответ стримится построчно, поэтому тело - одна строка JSON
	p := newTestOllama(t, http.StatusNotFound, `{}`, nil)

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var upErr *models.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusNotFound, upErr.Status)
	assert.Equal(t, "ollama", upErr.Provider)
}
