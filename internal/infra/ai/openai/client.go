package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
)

var _ ai.Transport = (*Client)(nil)

// Client sends generation calls to an OpenAI-compatible chat completion API.
type Client struct {
	*openai.Client
}

// NewClient builds a client. An empty baseURL targets api.openai.com.
func NewClient(apiKey, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{Client: openai.NewClientWithConfig(cfg)}
}

func (c *Client) Generate(ctx context.Context, call ai.Call) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: call.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: call.Prompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens and leave sampling at defaults
	if isReasoningModel(call.Model) {
		req.MaxCompletionTokens = call.Params.NumPredict
	} else {
		req.MaxTokens = call.Params.NumPredict
		req.Temperature = float32(call.Params.Temperature)
		req.TopP = float32(call.Params.TopP)
		req.FrequencyPenalty = float32(call.Params.RepeatPenalty - 1)
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) Models(ctx context.Context) ([]string, error) {
	list, err := c.ListModels(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, apiErr.Message)
		}
		return &ai.StatusError{Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ai.StatusError{Code: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("failed to create chat completion: %w", err)
}
