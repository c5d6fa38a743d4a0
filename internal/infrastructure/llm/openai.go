package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/ports"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	maxSSELine            = 1 << 20
)

// OpenAIClient implements ports.Generator against OpenAI-compatible chat
// completion APIs (OpenAI, NVIDIA NIM, vLLM, ...).
type OpenAIClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Generator = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client. The endpoint may be a base URL; the chat
// completions path is appended when missing.
func NewOpenAIClient(endpoint, apiKey string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OpenAIClient{
		endpoint: normalizeEndpoint(endpoint),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Stream posts the prompt as a single user message and yields the content
// deltas of the server-sent event stream.
func (c *OpenAIClient) Stream(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		body, err := c.open(ctx, req)
		if err != nil {
			yield("", err)
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "[DONE]" {
				return
			}

			var chunk chatChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				yield("", fmt.Errorf("decode stream chunk: %w", err))
				return
			}
			if chunk.Error != nil {
				yield("", fmt.Errorf("openai stream error: %s", chunk.Error.Message))
				return
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == nil {
				continue
			}
			if !yield(*chunk.Choices[0].Delta.Content, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("read stream: %w", err))
		}
	}
}

func (c *OpenAIClient) open(ctx context.Context, req domain.GenerationRequest) (io.ReadCloser, error) {
	if c == nil {
		return nil, fmt.Errorf("openai client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || req.Model == "" {
		return nil, fmt.Errorf("openai client misconfigured")
	}

	payload, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		MaxTokens:   req.Sampling.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openai payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send completion: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	switch {
	case endpoint == "":
		return defaultOpenAIEndpoint
	case strings.HasSuffix(endpoint, "/chat/completions"):
		return endpoint
	case strings.HasSuffix(endpoint, "/v1"):
		return endpoint + "/chat/completions"
	default:
		return endpoint + "/v1/chat/completions"
	}
}
