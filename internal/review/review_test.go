package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avalier/reviewerd/internal/config"
	"github.com/avalier/reviewerd/internal/gitrepo"
	"github.com/avalier/reviewerd/internal/persona"
)

// stubRepo serves canned diffs and records the arguments it was called with.
type stubRepo struct {
	diff     gitrepo.DiffResult
	err      error
	lastBase string
	lastHead string
	lastFltr string
}

func (s *stubRepo) Diff(_ context.Context, base, head, filter string) (gitrepo.DiffResult, error) {
	s.lastBase, s.lastHead, s.lastFltr = base, head, filter
	if s.err != nil {
		return gitrepo.DiffResult{}, s.err
	}
	d := s.diff
	d.BaseRef, d.HeadRef, d.Filter = base, head, filter
	return d, nil
}

func (s *stubRepo) ChangedFiles(ctx context.Context, base, head, filter string) ([]gitrepo.FileChange, error) {
	d, err := s.Diff(ctx, base, head, filter)
	if err != nil {
		return nil, err
	}
	return d.Files, nil
}

func (s *stubRepo) Root(context.Context) (string, error) { return "/repo", nil }

type stubPersonas struct {
	err error
}

func (s *stubPersonas) Resolve(explicitPath string) (persona.Persona, error) {
	if s.err != nil {
		return persona.Persona{}, s.err
	}
	if explicitPath != "" {
		return persona.Persona{SourceKind: persona.SourceExplicit, SourcePath: explicitPath, Content: "explicit"}, nil
	}
	return persona.Embedded(), nil
}

func testService(repo *stubRepo) *Service {
	return NewServiceWith(config.Default(), repo, &stubPersonas{})
}

func TestBuild(t *testing.T) {
	p := persona.Embedded()
	diff := gitrepo.DiffResult{BaseRef: "main", HeadRef: "feature", Filter: "*.py"}

	before := time.Now().UTC()
	rc, err := Build(p, diff, "*.py")
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	after := time.Now().UTC()

	if rc.Persona.SourceKind != persona.SourceEmbedded {
		t.Errorf("Persona = %+v", rc.Persona)
	}
	if rc.Diff.BaseRef != "main" {
		t.Errorf("Diff = %+v", rc.Diff)
	}
	if rc.GeneratedAt.Before(before) || rc.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt = %v outside [%v, %v]", rc.GeneratedAt, before, after)
	}
	if rc.GeneratedAt.Location() != time.UTC {
		t.Error("GeneratedAt must be UTC")
	}
}

func TestBuild_FilterMismatch(t *testing.T) {
	diff := gitrepo.DiffResult{Filter: "*.py"}
	_, err := Build(persona.Embedded(), diff, "*.go")
	var fme *FilterMismatchError
	if !errors.As(err, &fme) {
		t.Fatalf("error = %v (%T), want *FilterMismatchError", err, err)
	}
	if fme.DiffFilter != "*.py" || fme.RequestFilter != "*.go" {
		t.Errorf("mismatch detail = %+v", fme)
	}
}

func TestBranchDiff_AppliesDefaults(t *testing.T) {
	repo := &stubRepo{}
	svc := testService(repo)

	_, err := svc.BranchDiff(context.Background(), "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastBase != "development" {
		t.Errorf("base = %q, want configured default", repo.lastBase)
	}
	if repo.lastHead != "HEAD" {
		t.Errorf("head = %q, want HEAD", repo.lastHead)
	}
	if repo.lastFltr != "*.py" {
		t.Errorf("filter = %q, want configured default", repo.lastFltr)
	}
}

func TestBranchDiff_ExplicitArgsWin(t *testing.T) {
	repo := &stubRepo{}
	svc := testService(repo)

	_, err := svc.BranchDiff(context.Background(), "main", "feature/x", "*.md")
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastBase != "main" || repo.lastHead != "feature/x" || repo.lastFltr != "*.md" {
		t.Errorf("args = %q %q %q", repo.lastBase, repo.lastHead, repo.lastFltr)
	}
}

func TestReviewDiff_MergesPersonaAndDiff(t *testing.T) {
	repo := &stubRepo{diff: gitrepo.DiffResult{
		Files: []gitrepo.FileChange{{Path: "a.py", Additions: 1, Status: gitrepo.StatusModified}},
	}}
	svc := testService(repo)

	rc, err := svc.ReviewDiff(context.Background(), "main", "feature", "*.py", "team.md")
	if err != nil {
		t.Fatal(err)
	}
	if rc.Persona.SourceKind != persona.SourceExplicit {
		t.Errorf("persona = %+v", rc.Persona)
	}
	if len(rc.Diff.Files) != 1 {
		t.Errorf("diff = %+v", rc.Diff)
	}
	if rc.FilterPattern != "*.py" {
		t.Errorf("FilterPattern = %q", rc.FilterPattern)
	}
}

func TestReviewDiff_RepoErrorIsTerminal(t *testing.T) {
	wantErr := &gitrepo.InvalidRefError{Ref: "nope"}
	repo := &stubRepo{err: wantErr}
	svc := testService(repo)

	_, err := svc.ReviewDiff(context.Background(), "nope", "HEAD", "", "")
	var ire *gitrepo.InvalidRefError
	if !errors.As(err, &ire) {
		t.Fatalf("error = %v, want *InvalidRefError passed through", err)
	}
}

func TestReviewFile_ScopesToFile(t *testing.T) {
	repo := &stubRepo{diff: gitrepo.DiffResult{
		Files: []gitrepo.FileChange{{Path: "pkg/thing.py", Additions: 4, Deletions: 1, Status: gitrepo.StatusModified}},
	}}
	svc := testService(repo)

	rc, err := svc.ReviewFile(context.Background(), "pkg/thing.py", "")
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastFltr != "pkg/thing.py" {
		t.Errorf("filter = %q, want the file path as pathspec", repo.lastFltr)
	}
	if repo.lastBase != "development" || repo.lastHead != "HEAD" {
		t.Errorf("range = %s..%s", repo.lastBase, repo.lastHead)
	}
	if rc.FilterPattern != "pkg/thing.py" {
		t.Errorf("FilterPattern = %q", rc.FilterPattern)
	}
}

func TestReviewFile_NotInDiff(t *testing.T) {
	repo := &stubRepo{} // empty diff
	svc := testService(repo)

	_, err := svc.ReviewFile(context.Background(), "untouched.py", "")
	var fnd *FileNotInDiffError
	if !errors.As(err, &fnd) {
		t.Fatalf("error = %v (%T), want *FileNotInDiffError", err, err)
	}
	if fnd.Path != "untouched.py" || fnd.BaseRef != "development" {
		t.Errorf("detail = %+v", fnd)
	}
}

func TestPersona_ExplicitMissingPropagates(t *testing.T) {
	svc := NewServiceWith(config.Default(), &stubRepo{}, &stubPersonas{err: &persona.NotFoundError{Path: "x.md"}})
	_, err := svc.Persona("x.md")
	var nfe *persona.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
}

func TestChecklist_Unconditional(t *testing.T) {
	svc := testService(&stubRepo{})
	got := svc.Checklist()
	if got != persona.Embedded().Content {
		t.Error("checklist must be the embedded document")
	}
}
