package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityos/internal/adapter"
	"cityos/internal/domain"
)

func collect(sb *strings.Builder) func(string) error {
	return func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	}
}

func TestChatStreamsLastMessages(t *testing.T) {
	llm := &fakeLLM{chunks: []string{"Olá", ", ", "Manaus"}}
	s := NewChatService(llm, nil)

	var messages []adapter.Message
	for i := 0; i < 9; i++ {
		messages = append(messages, adapter.Message{Role: adapter.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	var out strings.Builder
	require.NoError(t, s.Chat(context.Background(), messages, collect(&out)))
	assert.Equal(t, "Olá, Manaus", out.String())

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	require.Len(t, req.Messages, 6)
	assert.Equal(t, "m3", req.Messages[0].Content)
	assert.Equal(t, "m8", req.Messages[5].Content)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	assert.Equal(t, 200, req.MaxTokens)
}

func TestChatValidation(t *testing.T) {
	s := NewChatService(&fakeLLM{}, nil)
	err := s.Chat(context.Background(), nil, func(string) error { return nil })
	assert.ErrorIs(t, err, domain.ErrInvalid)

	var out strings.Builder
	require.NoError(t, s.Chat(context.Background(), []adapter.Message{}, collect(&out)))
}

func TestChatWithoutLLM(t *testing.T) {
	s := NewChatService(nil, nil)
	var out strings.Builder
	require.NoError(t, s.Chat(context.Background(), []adapter.Message{{Role: adapter.RoleUser, Content: "oi"}}, collect(&out)))
	assert.Equal(t, chatUnavailable, out.String())
}

func TestChatStreamError(t *testing.T) {
	boom := errors.New("stream reset")
	s := NewChatService(&fakeLLM{err: boom}, nil)
	err := s.Chat(context.Background(), []adapter.Message{{Role: adapter.RoleUser, Content: "oi"}}, func(string) error { return nil })
	assert.ErrorIs(t, err, boom)
}
