package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/bnccrag/internal/domain"
	"github.com/kailas-cloud/bnccrag/internal/metrics"
)

// Compile-time check: ChatClient implements domain.ChatCompleter.
var _ domain.ChatCompleter = (*ChatClient)(nil)

// ChatClient calls the chat completions endpoint.
type ChatClient struct {
	client *openai.Client
}

// NewChatClient creates an OpenAI-compatible chat client. Model is chosen per call.
func NewChatClient(cfg *Config) *ChatClient {
	return &ChatClient{client: newClient(cfg)}
}

// Complete sends messages in order and returns the first choice.
func (c *ChatClient) Complete(ctx context.Context, model string, messages []domain.Message) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.Completion{}, apiError("chat", err, domain.ErrChatProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(model, "error").Inc()
		metrics.UpstreamErrorsTotal.WithLabelValues("chat", "empty_response").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrChatProviderError)
	}

	metrics.ChatRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.ChatRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	metrics.ChatTokensTotal.WithLabelValues(model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.ChatTokensTotal.WithLabelValues(model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return domain.Completion{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
