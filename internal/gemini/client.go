package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrMissingAPIKey is raised before any generation work when no API key is
// configured. It is a configuration error, not a request failure.
var ErrMissingAPIKey = errors.New("gemini API key not configured")

// TransportError is a non-success status from the generative backend.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gemini API failed: status %d: %s", e.StatusCode, e.Body)
}

// GenerateParams configures one streaming generation call. Nil tuning
// fields are omitted from the request so the backend applies its defaults.
type GenerateParams struct {
	Model           string
	Prompt          string
	Temperature     *float64
	TopK            *int
	TopP            *float64
	MaxOutputTokens *int
}

// Fragment is one unit of the generation stream: either a text piece or a
// terminal error. The fragment channel closes when the stream ends.
type Fragment struct {
	Text string
	Err  error
}

// Client streams generated text from the Gemini API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a generation client. An empty apiKey is allowed at
// construction; Stream rejects it at call time.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = (&net.Dialer{Timeout: timeout}).DialContext
	tr.ResponseHeaderTimeout = timeout
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		// The timeout bounds dial and response headers only; the body is a
		// long-lived stream governed by ctx.
		http: &http.Client{Transport: tr},
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type streamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Stream opens a streaming generation call and returns a channel of text
// fragments in backend emission order. The initial call is synchronous:
// configuration and transport failures surface as the returned error before
// any fragment exists. The channel closes when the backend stream ends or
// ctx is cancelled.
func (c *Client) Stream(ctx context.Context, p GenerateParams) (<-chan Fragment, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	reqBody := generateRequest{Contents: []content{{Parts: []part{{Text: p.Prompt}}}}}
	if p.Temperature != nil || p.TopK != nil || p.TopP != nil || p.MaxOutputTokens != nil {
		reqBody.GenerationConfig = &generationConfig{
			Temperature:     p.Temperature,
			TopK:            p.TopK,
			TopP:            p.TopP,
			MaxOutputTokens: p.MaxOutputTokens,
		}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, p.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	fragments := make(chan Fragment, 16)
	go c.consume(ctx, resp.Body, fragments)
	return fragments, nil
}

// consume reads SSE frames from the response body and forwards non-empty
// text parts. Single producer; the sole consumer is the request handler.
func (c *Client) consume(ctx context.Context, body io.ReadCloser, out chan<- Fragment) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Malformed frames are skipped, not fatal.
			continue
		}
		text := chunkText(chunk)
		if text == "" {
			continue
		}
		select {
		case out <- Fragment{Text: text}:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		select {
		case out <- Fragment{Err: fmt.Errorf("read generate stream: %w", err)}:
		case <-ctx.Done():
		}
	}
}

func chunkText(chunk streamChunk) string {
	var b strings.Builder
	for _, cand := range chunk.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
