// Package gemini implements the model-backed capabilities (classification,
// generation, embedding, reranking) on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/supportai/triage-pipeline/internal/capability"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// EmbeddingModel names the embedding model; required for retrieval.
	EmbeddingModel string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Client backs all four model capabilities with one Gemini client.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	if strings.TrimSpace(cfg.EmbeddingModel) == "" {
		return nil, fmt.Errorf("GEMINI_EMBEDDING_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{
		client:         client,
		model:          strings.TrimSpace(cfg.Model),
		embeddingModel: strings.TrimSpace(cfg.EmbeddingModel),
	}, nil
}

// classifyErr wraps transient API failures so callers retry with backoff.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &capability.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &capability.TransientError{Err: err}
	}
	return err
}
