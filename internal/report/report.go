package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avalier/reviewerd/internal/persona"
	"github.com/avalier/reviewerd/internal/review"
)

// Result describes a rendered report artifact.
type Result struct {
	Path       string `json:"path"`
	ByteLength int    `json:"byteLength"`
}

// WriteError reports a filesystem-level failure persisting a report. Content
// shape never causes it: any valid context is renderable.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Renderer writes review reports into a directory.
type Renderer struct {
	dir string
}

// NewRenderer creates a Renderer writing into dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render serializes the context to markdown and persists it. The same head
// ref within the same minute bucket writes to the same path, replacing the
// previous content; ByteLength reflects the latest write only.
func (r *Renderer) Render(rc review.Context) (Result, error) {
	var buf bytes.Buffer
	writeBody(&buf, rc)

	path := r.reportPath(rc)
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return Result{}, &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Result{}, &WriteError{Path: path, Err: err}
	}
	return Result{Path: path, ByteLength: buf.Len()}, nil
}

// reportPath derives the artifact path from the head ref and the generation
// minute in UTC.
func (r *Renderer) reportPath(rc review.Context) string {
	bucket := rc.GeneratedAt.UTC().Truncate(time.Minute).Format("20060102-1504")
	name := fmt.Sprintf("review-%s-%s.md", sanitizeRef(rc.Diff.HeadRef), bucket)
	return filepath.Join(r.dir, name)
}

// sanitizeRef maps a ref name onto a filename-safe token.
func sanitizeRef(ref string) string {
	if ref == "" {
		return "HEAD"
	}
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			return c
		case c == '.' || c == '_' || c == '-':
			return c
		default:
			return '-'
		}
	}, ref)
}

// writeBody emits the fixed section order: header, file-change table,
// persona content verbatim, raw diff, checklist appendix.
func writeBody(w io.Writer, rc review.Context) {
	fmt.Fprintf(w, "# Code Review Report\n\n")
	fmt.Fprintf(w, "**Base:** %s\n", rc.Diff.BaseRef)
	fmt.Fprintf(w, "**Head:** %s\n", rc.Diff.HeadRef)
	fmt.Fprintf(w, "**Filter:** %s\n", rc.FilterPattern)
	fmt.Fprintf(w, "**Generated:** %s\n\n", rc.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "---\n\n")

	fmt.Fprintf(w, "## Changed Files (%d)\n\n", len(rc.Diff.Files))
	if len(rc.Diff.Files) == 0 {
		fmt.Fprintln(w, "No files changed.")
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "| Path | + | - | Status |\n")
		fmt.Fprintf(w, "|------|---|---|--------|\n")
		for _, f := range rc.Diff.Files {
			status := string(f.Status)
			if f.RenamedFrom != "" {
				status = fmt.Sprintf("renamed from `%s`", f.RenamedFrom)
			}
			fmt.Fprintf(w, "| `%s` | %d | %d | %s |\n", f.Path, f.Additions, f.Deletions, status)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "## Review Standards\n\n")
	fmt.Fprintf(w, "**Source:** %s\n\n", personaSource(rc.Persona))
	fmt.Fprintf(w, "%s\n\n", strings.TrimRight(rc.Persona.Content, "\n"))

	fmt.Fprintf(w, "## Diff\n\n")
	if strings.TrimSpace(rc.Diff.RawText) == "" {
		fmt.Fprintln(w, "No diff content.")
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "```diff\n%s\n```\n\n", strings.TrimRight(rc.Diff.RawText, "\n"))
	}
	if rc.Diff.Truncated {
		fmt.Fprintf(w, "> Raw diff text was truncated at a file boundary; the file table above remains complete.\n\n")
	}

	// The checklist lives in the embedded document; appending it when the
	// persona already is that document would duplicate it.
	if rc.Persona.SourceKind != persona.SourceEmbedded {
		fmt.Fprintf(w, "%s\n", strings.TrimRight(checklistSection(), "\n"))
	}
}

// checklistSection extracts the checklist section of the embedded standards
// document, heading included. The whole document is the fallback if the
// bundled resource ever loses the heading.
func checklistSection() string {
	const heading = "## Review Checklist"
	content := persona.Embedded().Content
	start := strings.Index(content, heading)
	if start < 0 {
		return content
	}
	section := content[start:]
	if end := strings.Index(section[len(heading):], "\n## "); end >= 0 {
		section = section[:len(heading)+end]
	}
	return section
}

func personaSource(p persona.Persona) string {
	if p.SourceKind == persona.SourceEmbedded {
		return "embedded default"
	}
	return fmt.Sprintf("%s (`%s`)", p.SourceKind, p.SourcePath)
}
