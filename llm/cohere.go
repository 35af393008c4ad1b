// Package llm wraps the Cohere API for the pipeline's agents: chat for
// selection, synthesis and scriptwriting, embeddings for the topic
// similarity guard.
package llm

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

const (
	defaultChatModel  = "command-r-08-2024"
	defaultEmbedModel = "embed-english-v3.0"
	requestTimeout    = 60 * time.Second
)

// Client is a thin wrapper around the Cohere SDK.
type Client struct {
	client *cohereclient.Client
	model  string
}

// NewClient creates a Cohere client. model is the chat model to use; empty
// picks the default.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("cohere api key is required")
	}
	if model == "" {
		model = defaultChatModel
	}

	// Force HTTP/1.1 to avoid HTTP/2 protocol errors seen against the
	// Cohere endpoint.
	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			ForceAttemptHTTP2: false,
		},
	}
	return &Client{
		client: cohereclient.NewClient(
			cohereclient.WithToken(apiKey),
			cohereclient.WithHTTPClient(httpClient),
		),
		model: model,
	}, nil
}

// Model returns the chat model name in use.
func (c *Client) Model() string { return c.model }

// Chat sends a single-turn prompt with an optional preamble and returns the
// model's text reply.
func (c *Client) Chat(ctx context.Context, preamble, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := &cohere.ChatRequest{
		Message: message,
		Model:   &c.model,
	}
	if preamble != "" {
		req.Preamble = &preamble
	}

	resp, err := c.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}

// EmbedTexts returns one embedding vector per input text.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          texts,
			Model:          defaultEmbedModel,
			InputType:      cohere.EmbedInputTypeSearchDocument,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("cohere embed error: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}

	floats := resp.Embeddings.Float
	if len(floats) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}

	out := make([][]float32, len(floats))
	for i, vec := range floats {
		fv := make([]float32, len(vec))
		for j, v := range vec {
			fv[j] = float32(v)
		}
		out[i] = fv
	}
	return out, nil
}
