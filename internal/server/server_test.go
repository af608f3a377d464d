package server

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avalier/reviewerd/internal/config"
	"github.com/avalier/reviewerd/internal/gitrepo"
	"github.com/avalier/reviewerd/internal/persona"
	"github.com/avalier/reviewerd/internal/review"
)

type stubRepo struct {
	diff gitrepo.DiffResult
	err  error
}

func (s *stubRepo) Diff(_ context.Context, base, head, filter string) (gitrepo.DiffResult, error) {
	if s.err != nil {
		return gitrepo.DiffResult{}, s.err
	}
	d := s.diff
	d.BaseRef, d.HeadRef, d.Filter = base, head, filter
	return d, nil
}

func (s *stubRepo) ChangedFiles(ctx context.Context, base, head, filter string) ([]gitrepo.FileChange, error) {
	d, err := s.Diff(ctx, base, head, filter)
	return d.Files, err
}

func (s *stubRepo) Root(context.Context) (string, error) { return "/repo", nil }

type stubPersonas struct{}

func (stubPersonas) Resolve(string) (persona.Persona, error) {
	return persona.Embedded(), nil
}

func testService(repo *stubRepo) *review.Service {
	return review.NewServiceWith(config.Default(), repo, stubPersonas{})
}

func callArgs(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("len(Content) = %d, want 1", len(res.Content))
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Content[0] is %T, want mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func TestBranchDiffTool(t *testing.T) {
	repo := &stubRepo{diff: gitrepo.DiffResult{
		RawText: "diff --git a/a.py b/a.py\n+x\n",
		Files: []gitrepo.FileChange{
			{Path: "a.py", Additions: 1, Status: gitrepo.StatusModified},
		},
	}}
	tool := NewBranchDiffTool(testService(repo))

	res, err := tool.Handle(context.Background(), callArgs(map[string]any{"base_ref": "main"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Diff main..HEAD") {
		t.Errorf("missing header, got:\n%s", text)
	}
	if !strings.Contains(text, "a.py (+1/-0)") {
		t.Errorf("missing file summary, got:\n%s", text)
	}
}

func TestBranchDiffTool_GatewayError(t *testing.T) {
	repo := &stubRepo{err: &gitrepo.InvalidRefError{Ref: "nope"}}
	tool := NewBranchDiffTool(testService(repo))

	res, err := tool.Handle(context.Background(), callArgs(map[string]any{"base_ref": "nope"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if text := resultText(t, res); !strings.Contains(text, "nope") {
		t.Errorf("error text should name the ref, got: %s", text)
	}
}

func TestChangedFilesTool_Empty(t *testing.T) {
	tool := NewChangedFilesTool(testService(&stubRepo{}))

	res, err := tool.Handle(context.Background(), callArgs(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "No changed files") {
		t.Errorf("got: %s", text)
	}
}

func TestReviewDiffTool_IncludesStandardsAndDiff(t *testing.T) {
	repo := &stubRepo{diff: gitrepo.DiffResult{
		RawText: "diff --git a/a.py b/a.py\n+x\n",
		Files:   []gitrepo.FileChange{{Path: "a.py", Additions: 1, Status: gitrepo.StatusModified}},
	}}
	tool := NewReviewDiffTool(testService(repo))

	res, err := tool.Handle(context.Background(), callArgs(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)
	for _, want := range []string{"# Review Standards", "built-in default", "# Changes to Review", "diff --git"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	standards := strings.Index(text, "# Review Standards")
	changes := strings.Index(text, "# Changes to Review")
	if standards > changes {
		t.Error("standards should precede changes")
	}
}

func TestReviewFileTool_RequiresFilePath(t *testing.T) {
	tool := NewReviewFileTool(testService(&stubRepo{}))

	res, err := tool.Handle(context.Background(), callArgs(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for missing file_path")
	}
}

func TestReviewFileTool_NotInDiff(t *testing.T) {
	tool := NewReviewFileTool(testService(&stubRepo{}))

	res, err := tool.Handle(context.Background(), callArgs(map[string]any{"file_path": "a.py"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if text := resultText(t, res); !strings.Contains(text, "a.py") {
		t.Errorf("error should name the file, got: %s", text)
	}
}

func TestChecklistTool(t *testing.T) {
	tool := NewChecklistTool(testService(&stubRepo{}))

	res, err := tool.Handle(context.Background(), callArgs(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "## Review Checklist") {
		t.Errorf("checklist missing heading, got:\n%s", text)
	}
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(config.Default())
	if s == nil {
		t.Fatal("New returned nil")
	}
}
