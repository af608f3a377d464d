package persona

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedRoot(dir string) func() string {
	return func() string { return dir }
}

func TestResolve_ExplicitMissing(t *testing.T) {
	r := NewResolver(fixedRoot(t.TempDir()), nil, nil)
	_, err := r.Resolve("no/such/persona.md")
	if err == nil {
		t.Fatal("expected error for missing explicit persona")
	}
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %T, want *NotFoundError", err)
	}
	if nfe.Path != "no/such/persona.md" {
		t.Errorf("Path = %q, want the path as requested", nfe.Path)
	}
}

func TestResolve_ExplicitFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.md")
	if err := os.WriteFile(path, []byte("# Team Standards\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(fixedRoot(dir), nil, nil)
	p, err := r.Resolve("team.md")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.SourceKind != SourceExplicit {
		t.Errorf("SourceKind = %q, want %q", p.SourceKind, SourceExplicit)
	}
	if p.SourcePath != path {
		t.Errorf("SourcePath = %q, want %q", p.SourcePath, path)
	}
	if p.Content != "# Team Standards\n" {
		t.Errorf("Content = %q", p.Content)
	}
}

func TestResolve_ProjectDefaultFirstWins(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"first.md", "second.md"} {
		if err := os.WriteFile(filepath.Join(dir, rel), []byte(rel), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	r := NewResolver(fixedRoot(dir), []string{"missing.md", "first.md", "second.md"}, nil)
	p, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.SourceKind != SourceProjectDefault {
		t.Errorf("SourceKind = %q, want %q", p.SourceKind, SourceProjectDefault)
	}
	if p.Content != "first.md" {
		t.Errorf("Content = %q, want first existing default to win", p.Content)
	}
}

func TestResolve_EmbeddedFallbackNeverFails(t *testing.T) {
	r := NewResolver(fixedRoot(t.TempDir()), nil, nil)
	p, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if p.SourceKind != SourceEmbedded {
		t.Errorf("SourceKind = %q, want %q", p.SourceKind, SourceEmbedded)
	}
	if p.SourcePath != "" {
		t.Errorf("SourcePath = %q, want empty for embedded", p.SourcePath)
	}
	if !strings.Contains(p.Content, "# Code Review Standards") {
		t.Error("embedded persona missing expected heading")
	}
	if !strings.Contains(p.Content, "## Review Checklist") {
		t.Error("embedded persona missing checklist section")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.md")
	if err := os.WriteFile(path, []byte("standards"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewResolver(fixedRoot(dir), []string{"p.md"}, NewCache(true))
	first, err := r.Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve("")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("repeated resolution differs: %+v vs %+v", first, second)
	}
}

func TestCache_InvalidatesOnModTimeChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.md")
	if err := os.WriteFile(path, []byte("old text"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	cache := NewCache(true)
	r := NewResolver(fixedRoot(dir), nil, cache)

	p, err := r.Resolve("p.md")
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "old text" {
		t.Fatalf("Content = %q", p.Content)
	}

	// Same length so size alone cannot invalidate; mtime must.
	if err := os.WriteFile(path, []byte("new text"), 0o644); err != nil {
		t.Fatal(err)
	}
	newer := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, newer, newer); err != nil {
		t.Fatal(err)
	}

	p, err = r.Resolve("p.md")
	if err != nil {
		t.Fatal(err)
	}
	if p.Content != "new text" {
		t.Errorf("Content = %q, want cache invalidated on mtime change", p.Content)
	}
}

func TestCache_DisabledIsNoop(t *testing.T) {
	var nilCache *Cache
	if _, ok := nilCache.Get("x", nil); ok {
		t.Error("nil cache should always miss")
	}
	nilCache.Put("x", nil, "content") // must not panic
	nilCache.Clear()

	disabled := NewCache(false)
	if _, ok := disabled.Get("x", nil); ok {
		t.Error("disabled cache should always miss")
	}
}
