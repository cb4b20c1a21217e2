package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
)

// DefaultBaseURL is where a local Ollama daemon listens.
const DefaultBaseURL = "http://localhost:11434"

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 10 * 1024 * 1024

var _ ai.Transport = (*Client)(nil)

// Client speaks Ollama's native /api/generate and /api/tags endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Stream  bool              `json:"stream"`
	Options ai.SamplingParams `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate posts a non-streaming generate request. The deadline of ctx bounds
// the whole exchange.
func (c *Client) Generate(ctx context.Context, call ai.Call) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   call.Model,
		Prompt:  call.Prompt,
		Stream:  false,
		Options: call.Params,
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("sending generate request", "model", call.Model, "prompt_chars", len(call.Prompt))

	respBody, err := c.do(req)
	if err != nil {
		return "", err
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models lists the models installed on the daemon.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create tags request: %w", err)
	}
	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out tagsResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(req.Context(), err) {
			return nil, fmt.Errorf("%w: %v", ai.ErrTimeout, err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if isTimeout(req.Context(), err) {
			return nil, fmt.Errorf("%w: %v", ai.ErrTimeout, err)
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ai.StatusError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
