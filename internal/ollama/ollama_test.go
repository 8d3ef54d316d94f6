// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if err := c.CheckRunning(context.Background()); err != nil {
		t.Fatalf("CheckRunning() error = %v", err)
	}
}

func TestCheckRunning_NotRunning(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)

	err := c.CheckRunning(context.Background())
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("CheckRunning() error = %v, want ErrNotRunning", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s, want /api/tags", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListModelsResponse{
			Models: []ModelInfo{
				{Name: "llama3:8b", Size: 4_700_000_000},
				{Name: "qwen2.5-coder:14b", Size: 9_000_000_000},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("ListModels() = %d models, want 2", len(models))
	}
	if models[0].Name != "llama3:8b" {
		t.Errorf("models[0].Name = %q", models[0].Name)
	}
}

func TestListModels_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.ListModels(context.Background())
	if err == nil {
		t.Fatal("ListModels() should fail on 500")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Type != ErrTypeInvalidResponse {
		t.Errorf("error = %v, want ErrTypeInvalidResponse", err)
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("Stream should be false")
		}
		if req.Model != "llama3:8b" {
			t.Errorf("Model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(GenerateResponse{
			Model:    req.Model,
			Response: "echo: " + req.Prompt,
			Done:     true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.Generate(context.Background(), "llama3:8b", "hello")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Response != "echo: hello" {
		t.Errorf("Response = %q", resp.Response)
	}
	if !resp.Done {
		t.Error("Done = false, want true")
	}
}

func TestGenerate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect;
		// otherwise r.Context() is never canceled and Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, "llama3:8b", "hello")
	if err == nil {
		t.Fatal("Generate() should fail when context expires")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0)
	if c.BaseURL() != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
}
