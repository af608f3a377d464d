package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/avalier/reviewerd/internal/redact"
)

// FileStatus classifies how a file changed between two refs.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// FileChange is one touched file with its change statistics.
type FileChange struct {
	Path        string     `json:"path"`
	Additions   int        `json:"additions"`
	Deletions   int        `json:"deletions"`
	Status      FileStatus `json:"status"`
	RenamedFrom string     `json:"renamedFrom,omitempty"`
}

// DiffResult holds the collected diff between two refs. Files stays complete
// and authoritative for statistics even when RawText has been truncated.
type DiffResult struct {
	BaseRef   string       `json:"baseRef"`
	HeadRef   string       `json:"headRef"`
	Filter    string       `json:"filter"`
	Files     []FileChange `json:"files"`
	RawText   string       `json:"rawText"`
	Truncated bool         `json:"truncated"`
}

// TruncationMarker is appended to RawText when the diff was cut for size.
// It is an in-band sentinel callers can detect programmatically.
const TruncationMarker = "... [diff truncated: size budget exceeded; file statistics remain complete]"

// Options controls gateway behavior.
type Options struct {
	// WorkDir is the directory git commands run in. Empty means process cwd.
	WorkDir string
	// MaxDiffBytes is the character budget for RawText. Zero disables truncation.
	MaxDiffBytes int
	// Timeout bounds each git invocation. Zero disables the timeout.
	Timeout time.Duration
	// RedactSecrets scrubs secret-looking values from RawText before it is
	// returned. Line structure is preserved so statistics still line up.
	RedactSecrets bool
}

// Gateway queries the underlying repository. Invocations are blocking,
// synchronous calls; a timeout surfaces as *UnavailableError.
type Gateway struct {
	opts Options
}

// New creates a Gateway with the given options.
func New(opts Options) *Gateway {
	return &Gateway{opts: opts}
}

// Root returns the repository top-level directory, or *UnavailableError when
// invoked outside a working repository.
func (g *Gateway) Root(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", asUnavailable("not inside a git repository", err)
	}
	return strings.TrimSpace(out), nil
}

// Branch returns the current branch name, or "" in detached HEAD state.
func (g *Gateway) Branch(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "branch", "--show-current")
	if err != nil {
		return "", asUnavailable("cannot determine current branch", err)
	}
	return strings.TrimSpace(out), nil
}

// Diff returns the diff between base and head restricted to the filter
// pathspec. The range runs from merge-base(base, head) to head. An empty
// result after filtering is valid, not an error.
func (g *Gateway) Diff(ctx context.Context, baseRef, headRef, filter string) (DiffResult, error) {
	if _, err := g.Root(ctx); err != nil {
		return DiffResult{}, err
	}
	base, err := g.resolveRef(ctx, baseRef)
	if err != nil {
		return DiffResult{}, err
	}
	head, err := g.resolveRef(ctx, headRef)
	if err != nil {
		return DiffResult{}, err
	}

	from := g.mergeBase(ctx, base, head)

	pathspec := []string{}
	if filter != "" {
		pathspec = append(pathspec, "--", filter)
	}

	numstatOut, err := g.git(ctx, append([]string{"diff", "--numstat", "-z", "-M", from, head}, pathspec...)...)
	if err != nil {
		return DiffResult{}, asUnavailable("git diff --numstat failed", err)
	}
	statusOut, err := g.git(ctx, append([]string{"diff", "--name-status", "-z", "-M", from, head}, pathspec...)...)
	if err != nil {
		return DiffResult{}, asUnavailable("git diff --name-status failed", err)
	}
	rawText, err := g.git(ctx, append([]string{"diff", "-M", from, head}, pathspec...)...)
	if err != nil {
		return DiffResult{}, asUnavailable("git diff failed", err)
	}

	files := mergeChanges(parseNameStatus(statusOut), parseNumstat(numstatOut))

	if g.opts.RedactSecrets {
		rawText = redact.Secrets(rawText)
	}
	rawText, truncated := truncateAtFileBoundary(rawText, g.opts.MaxDiffBytes)

	return DiffResult{
		BaseRef:   baseRef,
		HeadRef:   headRef,
		Filter:    filter,
		Files:     files,
		RawText:   rawText,
		Truncated: truncated,
	}, nil
}

// ChangedFiles returns the ordered file-change list for the same query Diff
// answers. It is a projection of Diff, served by the same underlying
// commands so the two operations can never disagree.
func (g *Gateway) ChangedFiles(ctx context.Context, baseRef, headRef, filter string) ([]FileChange, error) {
	d, err := g.Diff(ctx, baseRef, headRef, filter)
	if err != nil {
		return nil, err
	}
	return d.Files, nil
}

// resolveRef verifies ref names a commit, returning its SHA.
func (g *Gateway) resolveRef(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", &InvalidRefError{Ref: ref}
	}
	out, err := g.git(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		var unavail *UnavailableError
		if errors.As(err, &unavail) {
			return "", err
		}
		return "", &InvalidRefError{Ref: ref, Err: err}
	}
	return strings.TrimSpace(out), nil
}

// mergeBase returns the merge base of two resolved refs, falling back to
// base itself when none exists (unrelated histories).
func (g *Gateway) mergeBase(ctx context.Context, base, head string) string {
	out, err := g.git(ctx, "merge-base", base, head)
	if err != nil {
		return base
	}
	return strings.TrimSpace(out)
}

// git runs a git command and returns stdout. Exit failures carry stderr in
// the wrapped error; a missing binary or deadline becomes *UnavailableError.
func (g *Gateway) git(ctx context.Context, args ...string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.opts.WorkDir
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", &UnavailableError{Reason: fmt.Sprintf("git %s timed out", args[0]), Err: ctx.Err()}
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", &UnavailableError{Reason: "git executable not found", Err: err}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// asUnavailable preserves an existing typed error, otherwise wraps err as
// *UnavailableError with the given reason.
func asUnavailable(reason string, err error) error {
	var unavail *UnavailableError
	if errors.As(err, &unavail) {
		return err
	}
	var invalid *InvalidRefError
	if errors.As(err, &invalid) {
		return err
	}
	return &UnavailableError{Reason: reason, Err: err}
}
