package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "a-key", BaseURL: server.URL})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	svc, err := NewLLMService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestGenerate(t *testing.T) {
	var got map[string]any
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "a-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "Brasília"}, {"type": "text", "text": "."}], "stop_reason": "end_turn"}`))
	})

	answer, err := svc.Generate(context.Background(), "capital?", driven.GenerateOptions{Temperature: driven.Temperature(0)})

	require.NoError(t, err)
	assert.Equal(t, "Brasília.", answer)
	assert.Equal(t, float64(DefaultMaxTokens), got["max_tokens"])
	temp, sent := got["temperature"]
	require.True(t, sent)
	assert.Equal(t, float64(0), temp)
}

func TestGenerate_ErrorBody(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	})

	_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid x-api-key")
	assert.Contains(t, err.Error(), "401")
}

func TestGenerate_NoText(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": []}`))
	})

	_, err := svc.Generate(context.Background(), "q", driven.GenerateOptions{})

	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("x-api-key") != "a-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
}
