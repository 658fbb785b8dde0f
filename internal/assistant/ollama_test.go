package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chunkJSON(content, finish string) string {
	fr := "null"
	if finish != "" {
		fr = fmt.Sprintf("%q", finish)
	}
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"llama3","choices":[{"index":0,"delta":{"role":"assistant","content":%q},"finish_reason":%s}]}`, content, fr)
}

func TestOllamaBackend_Stream(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range []string{
			chunkJSON("Hel", ""),
			chunkJSON("", ""),
			chunkJSON("lo", "stop"),
		} {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	b := NewOllamaBackend(srv.URL, "secret")
	stream, err := b.Stream(t.Context(), "llama3:8b", Request{
		System:   "sys",
		Messages: []Message{{"user", "hi"}, {"assistant", "hey"}, {"user", "again"}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	var chunks []Chunk
	for {
		c, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		chunks = append(chunks, c)
	}

	if len(chunks) != 2 || chunks[0].Text != "Hel" || chunks[1].Text != "lo" {
		t.Fatalf("chunks = %+v", chunks)
	}
	if chunks[0].Final || !chunks[1].Final {
		t.Errorf("final flags = %v, %v", chunks[0].Final, chunks[1].Final)
	}

	if body.Model != "llama3:8b" || !body.Stream {
		t.Errorf("request model=%q stream=%v", body.Model, body.Stream)
	}
	var roles []string
	for _, m := range body.Messages {
		roles = append(roles, m.Role)
	}
	if got := strings.Join(roles, ","); got != "system,user,assistant,user" {
		t.Errorf("roles = %s", got)
	}
	if auth != "Bearer secret" {
		t.Errorf("authorization = %q", auth)
	}
}

func TestOllamaBackend_LocalSendsPlaceholderKey(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	stream, _ := NewOllamaBackend(srv.URL, "").Stream(t.Context(), "llama3", Request{Messages: []Message{{"user", "hi"}}})
	defer stream.Close()
	if _, err := stream.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if auth != "Bearer ollama" {
		t.Errorf("authorization = %q", auth)
	}
}

func TestOllamaBackend_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"model \"nope\" not found"}}`)
	}))
	defer srv.Close()

	stream, err := NewOllamaBackend(srv.URL, "").Stream(t.Context(), "nope", Request{Messages: []Message{{"user", "hi"}}})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	_, err = stream.Recv()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected an HTTP error, got %v", err)
	}
}
