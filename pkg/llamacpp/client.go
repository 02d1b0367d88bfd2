// Package llamacpp talks to a llama.cpp server through its OpenAI compatible
// chat completion endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/smartcrop/pkg/client"
	"github.com/menta2k/smartcrop/pkg/types"
)

// DefaultURL is where llama-server listens out of the box
const DefaultURL = "http://localhost:8080"

const (
	completionsPath = "/v1/chat/completions"
	requestTimeout  = 5 * time.Minute
)

// sampling holds the generation parameters of one kind of query
type sampling struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

var (
	describeSampling = sampling{Temperature: 0.7, TopP: 0.9, MaxTokens: 2048}
	locateSampling   = sampling{Temperature: 0.7, TopP: 0.8, MaxTokens: 4096}
)

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	sampling
}

// chatResponse keeps the message content raw: servers send it as a plain
// string or as a list of content parts
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is returned when the server answers with a non-200 status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llama.cpp server returned status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Client is a llama.cpp vision client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ client.VisionClient = (*Client)(nil)

// NewClient creates a client for the server at serverURL, DefaultURL when empty
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid server URL %q: only http and https are supported", serverURL)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// SimpleQuery asks a free form question about the image
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.chat(ctx, model, prompt, imgB64, describeSampling)
}

// AnalyzeImage asks the model to locate the subject and parses its JSON reply
func (c *Client) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.SubjectResult, error) {
	text, err := c.chat(ctx, model, prompt, imgB64, locateSampling)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("empty response from llama.cpp server")
	}
	return client.ParseSubjectResult(text), nil
}

func (c *Client) chat(ctx context.Context, model, prompt, imgB64 string, s sampling) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	var resp chatResponse
	req := chatRequest{Model: model, Messages: []chatMessage{userMessage(prompt, imgB64)}, sampling: s}
	if err := c.post(ctx, completionsPath, req, &resp); err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return contentText(resp.Choices[0].Message.Content), nil
}

func userMessage(prompt, imgB64 string) chatMessage {
	msg := chatMessage{Role: "user", Content: []contentPart{{Type: "text", Text: prompt}}}
	if imgB64 != "" {
		msg.Content = append(msg.Content, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:" + imageMIME(imgB64) + ";base64," + imgB64},
		})
	}
	return msg
}

// imageMIME guesses the type of a base64 image from its first bytes
func imageMIME(imgB64 string) string {
	switch {
	case strings.HasPrefix(imgB64, "iVBOR"):
		return "image/png"
	case strings.HasPrefix(imgB64, "UklGR"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// contentText returns the string content, or the first non-empty text part
func contentText(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var parts []contentPart
	if json.Unmarshal(raw, &parts) == nil {
		for _, p := range parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(msg)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
