package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sales-auditor-go/internal/llm"
)

func TestGateway_Generate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a###b###c"}}]}`))
	}))
	defer srv.Close()

	g, err := llm.NewGateway(srv.URL, "secret", "gpt-4o-mini", 0, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	out, err := g.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "a###b###c" {
		t.Errorf("out = %q", out)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotBody["model"])
	}
}

func TestGateway_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g, err := llm.NewGateway(srv.URL, "wrong", "m", 0, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	_, err = g.Generate(context.Background(), "hello")
	if !errors.Is(err, llm.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !llm.IsPermanent(err) {
		t.Error("unauthorized should be permanent")
	}
}

func TestGateway_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g, _ := llm.NewGateway(srv.URL, "k", "m", 0, 5*time.Second, nil)
	_, err := g.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if llm.IsPermanent(err) {
		t.Error("503 should be retryable")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention status: %v", err)
	}
}

func TestNewGateway_NotConfigured(t *testing.T) {
	if _, err := llm.NewGateway("", "k", "m", 0, time.Second, nil); err == nil {
		t.Error("expected error for empty url")
	}
	if _, err := llm.NewGateway("http://x", "", "m", 0, time.Second, nil); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestDemo(t *testing.T) {
	d := llm.Demo{}
	analysis, err := d.Generate(context.Background(), "analyze this transcript")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Split(analysis, "###")); n != 18 {
		t.Errorf("demo analysis has %d fields, want 18", n)
	}
	summary, _ := d.Generate(context.Background(), `return { "CSM_Summaries": [], "Team_Summary": [] }`)
	if !strings.HasPrefix(summary, "{") {
		t.Errorf("demo summary should be json: %q", summary)
	}
}
