package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cityos/internal/adapter"
	"cityos/internal/domain"
)

const (
	// chatContext is how many trailing messages are sent to the model
	chatContext     = 6
	chatTemperature = 0.3
	chatMaxTokens   = 200
)

// chatUnavailable is streamed when no LLM is configured
const chatUnavailable = "O assistente de IA não está disponível no momento. Consulte os painéis de dados ou tente novamente mais tarde."

// ChatService relays a conversation to the LLM
type ChatService struct {
	llm    adapter.Completer
	logger *zap.Logger
}

// NewChatService creates a chat service. llm may be nil.
func NewChatService(llm adapter.Completer, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{llm: llm, logger: logger}
}

// Chat streams the answer to the conversation through emit. A nil messages
// slice is rejected; an empty one is passed on.
func (s *ChatService) Chat(ctx context.Context, messages []adapter.Message, emit func(chunk string) error) error {
	if messages == nil {
		return fmt.Errorf("%w: messages missing", domain.ErrInvalid)
	}
	if len(messages) > chatContext {
		messages = messages[len(messages)-chatContext:]
	}

	if s.llm == nil {
		return emit(chatUnavailable)
	}

	err := s.llm.Stream(ctx, adapter.CompletionRequest{
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	}, emit)
	if err != nil {
		s.logger.Error("chat stream failed", zap.Error(err))
	}
	return err
}
