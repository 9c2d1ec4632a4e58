package component

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridscape/internal/config"
)

func TestHeaderTransport(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := newHTTPClient(&config.GatewayConfig{Referer: "https://gridscape.app", Title: "Gridscape"})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer k")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "https://gridscape.app", got.Get("HTTP-Referer"))
	assert.Equal(t, "Gridscape", got.Get("X-Title"))
	assert.Equal(t, "Bearer k", got.Get("Authorization"))
	assert.Empty(t, req.Header.Get("X-Title"), "original request must not be mutated")
}

func TestNewChatModel_UnsupportedProvider(t *testing.T) {
	_, err := NewChatModel(context.Background(), &config.GatewayConfig{Provider: "bedrock"}, nil, "m")
	assert.ErrorContains(t, err, "unsupported gateway provider")
}

func TestNewCandidates_OpenRouterRequest(t *testing.T) {
	var body map[string]any
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","object":"chat.completion","created":1,"model":"m1",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"text\":\"A\",\"reason\":\"B\"}"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	gw := &config.GatewayConfig{Provider: "openrouter", APIKey: "sk-test", BaseURL: srv.URL}
	cc := &config.CascadeConfig{Models: []string{"m1", "m2"}, Temperature: 0.7}

	candidates, err := NewCandidates(context.Background(), gw, cc)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "m1", candidates[0].ModelID)
	assert.Equal(t, "m2", candidates[1].ModelID)

	msg, err := candidates[0].Model.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("user"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"A","reason":"B"}`, msg.Content)
	assert.Equal(t, "gen-1", ResponseID(msg))

	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "m1", body["model"])
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestResponseID_Missing(t *testing.T) {
	assert.Empty(t, ResponseID(nil))
	assert.Empty(t, ResponseID(schema.AssistantMessage("{}", nil)))
}
