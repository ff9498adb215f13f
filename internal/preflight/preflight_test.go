package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"pagesmith/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableDirectory_Empty(t *testing.T) {
	result := CheckReadableDirectory("input", "")
	if result.Passed || result.Detail != "not configured" {
		t.Fatalf("expected not configured failure, got %#v", result)
	}
}

func llmServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckLLM_OK(t *testing.T) {
	srv := llmServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	result := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "good-key", BaseURL: srv.URL, Model: "m"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckLLM_BadKey(t *testing.T) {
	srv := llmServer(t, http.StatusOK, `{}`)
	result := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "bad-key", BaseURL: srv.URL, Model: "m"})
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckLLM_MissingKey(t *testing.T) {
	result := CheckLLM(context.Background(), "LLM", config.LLM{BaseURL: "http://localhost"})
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("expected missing key failure, got %#v", result)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil, Options{})
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	binDir := t.TempDir()
	for _, name := range []string{"potrace", "inkscape"} {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\necho ok\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Tools.Potrace = filepath.Join(binDir, "potrace")
	cfg.Tools.Inkscape = filepath.Join(binDir, "inkscape")

	results := RunAll(context.Background(), &cfg, Options{})
	// Four directories plus two tools.
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	if failed := Failures(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %#v", failed)
	}
}

func TestRunAll_ReportsMissingTool(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Tools.Potrace = "clearly-not-present-potrace"
	cfg.Tools.Inkscape = "clearly-not-present-inkscape"

	failed := Failures(RunAll(context.Background(), &cfg, Options{}))
	if len(failed) != 2 {
		t.Fatalf("expected both tools to fail, got %#v", failed)
	}
}

func TestRunAll_IncludesLLMWhenEnabled(t *testing.T) {
	srv := llmServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`)
	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.LLM.APIKey = "good-key"
	cfg.LLM.BaseURL = srv.URL

	results := RunAll(context.Background(), &cfg, Options{LLM: true})
	found := false
	for _, r := range results {
		if r.Name == "LLM service" {
			found = true
			if !r.Passed {
				t.Errorf("LLM check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected LLM check in results")
	}
}
