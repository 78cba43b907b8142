package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"cityos/internal/config"
)

func TestNewCompleterUnconfigured(t *testing.T) {
	assert.Nil(t, NewCompleter(config.LLMConfig{Model: "gpt-4.1-nano"}, nil))
}

func fakeOpenAI(t *testing.T, handler func(w http.ResponseWriter, body gjson.Result)) Completer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		handler(w, gjson.ParseBytes(raw))
	}))
	t.Cleanup(srv.Close)

	c := NewCompleter(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-4.1-nano"}, nil, option.WithMaxRetries(0))
	require.NotNil(t, c)
	return c
}

func TestOpenAIComplete(t *testing.T) {
	c := fakeOpenAI(t, func(w http.ResponseWriter, body gjson.Result) {
		assert.Equal(t, "gpt-4.1-nano", body.Get("model").String())
		assert.Equal(t, float64(0), body.Get("temperature").Float())
		assert.Equal(t, int64(1024), body.Get("max_tokens").Int())
		assert.Equal(t, "system", body.Get("messages.0.role").String())
		assert.Equal(t, "Responda em JSON", body.Get("messages.0.content").String())
		assert.Equal(t, "user", body.Get("messages.1.role").String())
		assert.False(t, body.Get("stream").Bool())

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4.1-nano",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"ok\":true}"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`)
	})

	out, err := c.Complete(context.Background(), CompletionRequest{
		System:      "Responda em JSON",
		Messages:    []Message{{Role: RoleUser, Content: "Quais deputados gastam mais?"}},
		Temperature: 0,
		MaxTokens:   1024,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestOpenAICompleteError(t *testing.T) {
	c := fakeOpenAI(t, func(w http.ResponseWriter, _ gjson.Result) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := c.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "oi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestOpenAIStream(t *testing.T) {
	c := fakeOpenAI(t, func(w http.ResponseWriter, body gjson.Result) {
		assert.True(t, body.Get("stream").Bool())
		assert.Equal(t, 3, len(body.Get("messages").Array()))
		assert.Equal(t, "assistant", body.Get("messages.1.role").String())

		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Olá", ", ", "cidadão"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4.1-nano\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var sb strings.Builder
	err := c.Stream(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleUser, Content: "oi"},
			{Role: RoleAssistant, Content: "Olá!"},
			{Role: RoleUser, Content: "quem é você?"},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	}, func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Olá, cidadão", sb.String())
}

func TestSanitizeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Aqui está:\n{\"a\":{\"b\":2}}\nEspero ter ajudado.", `{"a":{"b":2}}`},
		{"no object", "sem json", "sem json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeJSON(tt.in))
		})
	}
}
