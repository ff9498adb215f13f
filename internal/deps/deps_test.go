package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pagesmith/internal/procexec"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "#!/bin/sh\nexit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(context.Background(), nil, reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("expected unconfigured command to be reported, got %#v", results[2])
	}
}

func TestCheckBinariesReportsVersion(t *testing.T) {
	binDir := t.TempDir()
	good := writeStub(t, binDir, "potrace", "#!/bin/sh\necho 'potrace 1.16. Copyright (C) 2001-2019 Peter Selinger.'\n")
	broken := writeStub(t, binDir, "inkscape", "#!/bin/sh\necho 'cannot open display' >&2\nexit 1\n")

	results := CheckBinaries(context.Background(), procexec.OS{}, []Requirement{
		{Name: "potrace", Command: good},
		{Name: "Inkscape", Command: broken},
	})

	if !results[0].Available || results[0].Version != "potrace 1.16. Copyright (C) 2001-2019 Peter Selinger." {
		t.Fatalf("expected version for potrace, got %#v", results[0])
	}
	if results[1].Available {
		t.Fatalf("expected failing --version to mark the binary unavailable, got %#v", results[1])
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Inkscape" {
		t.Fatalf("unexpected missing set: %#v", missing)
	}
}

func TestMissingIgnoresOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: false, Optional: true},
		{Name: "b", Available: true},
	}
	if got := Missing(statuses); len(got) != 0 {
		t.Fatalf("expected no missing requirements, got %#v", got)
	}
}
