package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"cityos/internal/config"
	"cityos/internal/telemetry"
)

// Chat roles accepted in Message.Role
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a chat completion call
type CompletionRequest struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer produces chat completions
type Completer interface {
	// Complete returns the full answer text
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Stream calls fn with each text delta as it arrives
	Stream(ctx context.Context, req CompletionRequest, fn func(chunk string) error) error
}

// ErrEmptyCompletion is returned when the provider answers without choices
var ErrEmptyCompletion = errors.New("completion returned no choices")

// OpenAI implements Completer with the OpenAI chat completions API
type OpenAI struct {
	client openai.Client
	model  string
	logger *zap.Logger
	tracer trace.Tracer
}

// NewCompleter returns an OpenAI-backed Completer, or nil when no API key is
// configured.
func NewCompleter(cfg config.LLMConfig, logger *zap.Logger, opts ...option.RequestOption) Completer {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAI{
		client: openai.NewClient(reqOpts...),
		model:  cfg.Model,
		logger: logger,
		tracer: telemetry.Tracer(),
	}
}

// Complete implements Completer
func (o *OpenAI) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := o.startSpan(ctx, "llm.complete", req)
	defer span.End()

	resp, err := o.client.Chat.Completions.New(ctx, o.params(req))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, ErrEmptyCompletion.Error())
		return "", ErrEmptyCompletion
	}

	o.logger.Debug("completion finished",
		zap.String("model", resp.Model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens))
	return resp.Choices[0].Message.Content, nil
}

// Stream implements Completer
func (o *OpenAI) Stream(ctx context.Context, req CompletionRequest, fn func(chunk string) error) error {
	ctx, span := o.startSpan(ctx, "llm.stream", req)
	defer span.End()

	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(req))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			if err := fn(text); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("chat stream: %w", err)
	}
	return nil
}

func (o *OpenAI) startSpan(ctx context.Context, name string, req CompletionRequest) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("llm.model", o.model),
		attribute.Int("llm.messages", len(req.Messages)),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	))
}

func (o *OpenAI) params(req CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	return params
}

// SanitizeJSON strips markdown code fences from a model answer and keeps the
// text between the first '{' and the last '}'.
func SanitizeJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
