// Package openai adapts the OpenAI-compatible API to the embedding and chat-completion boundaries.
package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/bnccrag/internal/metrics"
)

// Config holds provider credentials and endpoint. Empty BaseURL means api.openai.com.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func newClient(cfg *Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return openai.NewClientWithConfig(clientCfg)
}

// apiError renders a provider failure and wraps it with the boundary's sentinel.
func apiError(kind string, err, sentinel error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		metrics.UpstreamErrorsTotal.WithLabelValues(kind, statusLabel(reqErr.HTTPStatusCode)).Inc()
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, sentinel)
		}
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, string(reqErr.Body), sentinel)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		metrics.UpstreamErrorsTotal.WithLabelValues(kind, statusLabel(apiErr.HTTPStatusCode)).Inc()
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, sentinel)
	}

	metrics.UpstreamErrorsTotal.WithLabelValues(kind, "transport").Inc()
	return fmt.Errorf("%s request failed: %v: %w", kind, err, sentinel)
}

func statusLabel(status int) string {
	if status == 0 {
		return "api_error"
	}
	return fmt.Sprintf("http_%d", status)
}

// extractDetail reads the "detail" field some OpenAI-compatible gateways return instead of "error".
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
