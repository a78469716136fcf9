package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agente_gateway/internal/entities"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewGeminiClient(NewCaller(3, time.Millisecond, nil), "gemini-2.5-flash-lite", "text-embedding-004")
	client.SetBaseURL(srv.URL)
	return client
}

func TestGenerateDecodesTextAndFunctionCalls(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash-lite:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "tenant-key" {
			t.Errorf("missing per-tenant key, got %q", r.URL.Query().Get("key"))
		}
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [
				{"text": "Buscando"},
				{"functionCall": {"name": "product_search", "args": {"query": "taladro"}}}
			]}}]
		}`))
	})

	resp, err := client.Generate(context.Background(), "tenant-key", GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: "busco un taladro"}}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "Buscando" {
		t.Errorf("unexpected text: %q", resp.Text)
	}
	if len(resp.FunctionCalls) != 1 || resp.FunctionCalls[0].Name != "product_search" {
		t.Errorf("unexpected function calls: %#v", resp.FunctionCalls)
	}
	if resp.FunctionCalls[0].Args["query"] != "taladro" {
		t.Errorf("unexpected args: %#v", resp.FunctionCalls[0].Args)
	}
}

func TestGenerateEmptyCandidate(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})

	_, err := client.Generate(context.Background(), "k", GenerateRequest{
		Contents: []Content{{Parts: []Part{{Text: "hola"}}}},
	})
	if !errors.Is(err, entities.ErrUpstreamError) {
		t.Fatalf("expected ErrUpstreamError, got %v", err)
	}
}

func TestEmbedReturnsVector(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "text-embedding-004:embedContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"embedding": {"values": [0.25, -0.5]}}`))
	})

	vec, err := client.Embed(context.Background(), "k", "martillo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestEmbedEmptyVector(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"embedding": {"values": []}}`))
	})

	_, err := client.Embed(context.Background(), "k", "x")
	if !errors.Is(err, entities.ErrEmbeddingFailure) {
		t.Fatalf("expected ErrEmbeddingFailure, got %v", err)
	}
}
