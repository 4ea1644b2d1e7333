package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func sseBody(texts ...string) string {
	out := ""
	for _, t := range texts {
		out += fmt.Sprintf(`data: {"candidates":[{"content":{"parts":[{"text":%q}]}}]}`+"\n\n", t)
	}
	return out
}

func TestStreamMissingKey(t *testing.T) {
	c := NewClient("", time.Second)
	_, err := c.Stream(context.Background(), GenerateParams{Model: "gemini-2.0-flash", Prompt: "hi"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestStreamForwardsFragmentsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "key-1" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody("สวัสดี", "ครับ", "")))
	}))
	defer srv.Close()

	c := NewClient("key-1", time.Second)
	c.baseURL = srv.URL

	fragments, err := c.Stream(context.Background(), GenerateParams{Model: "gemini-2.0-flash", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var got []string
	for f := range fragments {
		if f.Err != nil {
			t.Fatalf("unexpected stream error: %v", f.Err)
		}
		got = append(got, f.Text)
	}
	if len(got) != 2 || got[0] != "สวัสดี" || got[1] != "ครับ" {
		t.Fatalf("unexpected fragments (empty must be dropped): %v", got)
	}
}

func TestStreamUnresponsiveBackendTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Accept the request but never send response headers.
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient("key", 100*time.Millisecond)
	c.baseURL = srv.URL

	start := time.Now()
	_, err := c.Stream(context.Background(), GenerateParams{Model: "gemini-2.0-flash", Prompt: "hi"})
	if err == nil {
		t.Fatal("expected an error from a backend that never responds")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("call blocked %v, want it bounded by the configured timeout", elapsed)
	}
}

func TestStreamTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("quota exceeded"))
	}))
	defer srv.Close()

	c := NewClient("key", time.Second)
	c.baseURL = srv.URL

	_, err := c.Stream(context.Background(), GenerateParams{Model: "gemini-2.0-flash", Prompt: "hi"})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusTooManyRequests || te.Body != "quota exceeded" {
		t.Fatalf("status/body not propagated: %+v", te)
	}
}

func TestStreamCancellationStopsFragments(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(sseBody("one")))
		w.(http.Flusher).Flush()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient("key", time.Second)
	c.baseURL = srv.URL

	fragments, err := c.Stream(ctx, GenerateParams{Model: "gemini-2.0-flash", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	first := <-fragments
	if first.Text != "one" {
		t.Fatalf("expected first fragment, got %+v", first)
	}
	cancel()
	for f := range fragments {
		if f.Err != nil {
			// Cancellation may surface as a read error before the
			// channel closes; that is fine as long as it terminates.
			break
		}
	}
}

func TestStreamGenerationConfigOmittedWhenUnset(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()

	c := NewClient("key", time.Second)
	c.baseURL = srv.URL

	fragments, err := c.Stream(context.Background(), GenerateParams{Model: "gemini-2.0-flash", Prompt: "hi"})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	for range fragments {
	}
	if string(gotBody) == "" {
		t.Fatalf("no request body captured")
	}
	if strings.Contains(string(gotBody), `"generationConfig"`) {
		t.Fatalf("unset tuning must omit generationConfig: %s", gotBody)
	}
}
