package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avalier/reviewerd/internal/gitrepo"
	"github.com/avalier/reviewerd/internal/persona"
	"github.com/avalier/reviewerd/internal/report"
	"github.com/avalier/reviewerd/internal/review"
)

// BranchDiffTool returns the raw diff between two refs.
type BranchDiffTool struct {
	svc *review.Service
}

func NewBranchDiffTool(svc *review.Service) *BranchDiffTool {
	return &BranchDiffTool{svc: svc}
}

func (t *BranchDiffTool) Definition() mcp.Tool {
	return mcp.NewTool("get_branch_diff",
		mcp.WithDescription("Get the diff between the current branch and a base branch, restricted to files matching a glob pattern."),
		mcp.WithString("base_ref",
			mcp.Description("Base ref to diff against. Defaults to the configured base branch."),
		),
		mcp.WithString("head_ref",
			mcp.Description("Head ref to diff. Defaults to HEAD."),
		),
		mcp.WithString("filter",
			mcp.Description("Glob pattern restricting the diff to matching files, e.g. *.py."),
		),
	)
}

func (t *BranchDiffTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	diff, err := t.svc.BranchDiff(ctx,
		req.GetString("base_ref", ""),
		req.GetString("head_ref", ""),
		req.GetString("filter", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDiff(diff)), nil
}

// ChangedFilesTool returns the per-file change summary for a ref range.
type ChangedFilesTool struct {
	svc *review.Service
}

func NewChangedFilesTool(svc *review.Service) *ChangedFilesTool {
	return &ChangedFilesTool{svc: svc}
}

func (t *ChangedFilesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_changed_files",
		mcp.WithDescription("List the files changed between the current branch and a base branch, with per-file addition and deletion counts."),
		mcp.WithString("base_ref",
			mcp.Description("Base ref to diff against. Defaults to the configured base branch."),
		),
		mcp.WithString("head_ref",
			mcp.Description("Head ref to diff. Defaults to HEAD."),
		),
		mcp.WithString("filter",
			mcp.Description("Glob pattern restricting the listing to matching files."),
		),
	)
}

func (t *ChangedFilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := t.svc.ChangedFiles(ctx,
		req.GetString("base_ref", ""),
		req.GetString("head_ref", ""),
		req.GetString("filter", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatChangedFiles(files)), nil
}

// ReviewDiffTool assembles a full review context for a ref range: the active
// persona followed by the diff.
type ReviewDiffTool struct {
	svc *review.Service
}

func NewReviewDiffTool(svc *review.Service) *ReviewDiffTool {
	return &ReviewDiffTool{svc: svc}
}

func (t *ReviewDiffTool) Definition() mcp.Tool {
	return mcp.NewTool("review_diff",
		mcp.WithDescription("Assemble a code-review context for the branch diff: review standards plus the diff content, ready for a reviewer."),
		mcp.WithString("base_ref",
			mcp.Description("Base ref to diff against. Defaults to the configured base branch."),
		),
		mcp.WithString("head_ref",
			mcp.Description("Head ref to diff. Defaults to HEAD."),
		),
		mcp.WithString("filter",
			mcp.Description("Glob pattern restricting the diff to matching files."),
		),
		mcp.WithString("persona_file",
			mcp.Description("Path to a persona markdown file overriding the default review standards."),
		),
	)
}

func (t *ReviewDiffTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rc, err := t.svc.ReviewDiff(ctx,
		req.GetString("base_ref", ""),
		req.GetString("head_ref", ""),
		req.GetString("filter", ""),
		req.GetString("persona_file", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatContext(rc)), nil
}

// ReviewFileTool assembles a review context scoped to a single file.
type ReviewFileTool struct {
	svc *review.Service
}

func NewReviewFileTool(svc *review.Service) *ReviewFileTool {
	return &ReviewFileTool{svc: svc}
}

func (t *ReviewFileTool) Definition() mcp.Tool {
	return mcp.NewTool("review_file",
		mcp.WithDescription("Assemble a code-review context for a single file's changes against the configured base branch."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("Repository-relative path of the file to review."),
		),
		mcp.WithString("persona_file",
			mcp.Description("Path to a persona markdown file overriding the default review standards."),
		),
	)
}

func (t *ReviewFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rc, err := t.svc.ReviewFile(ctx, filePath, req.GetString("persona_file", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatContext(rc)), nil
}

// PersonaTool returns the persona the review tools would use.
type PersonaTool struct {
	svc *review.Service
}

func NewPersonaTool(svc *review.Service) *PersonaTool {
	return &PersonaTool{svc: svc}
}

func (t *PersonaTool) Definition() mcp.Tool {
	return mcp.NewTool("get_persona",
		mcp.WithDescription("Show the review persona currently in effect and where it was loaded from."),
		mcp.WithString("persona_file",
			mcp.Description("Path to a persona markdown file to resolve instead of the default chain."),
		),
	)
}

func (t *PersonaTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := t.svc.Persona(req.GetString("persona_file", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPersona(p)), nil
}

// ChecklistTool returns the built-in review checklist.
type ChecklistTool struct {
	svc *review.Service
}

func NewChecklistTool(svc *review.Service) *ChecklistTool {
	return &ChecklistTool{svc: svc}
}

func (t *ChecklistTool) Definition() mcp.Tool {
	return mcp.NewTool("get_review_checklist",
		mcp.WithDescription("Get the built-in review checklist, independent of any configured persona."),
	)
}

func (t *ChecklistTool) Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(t.svc.Checklist()), nil
}

// ReportTool assembles a review context and writes it to a markdown report
// file under the report directory.
type ReportTool struct {
	svc      *review.Service
	renderer rendererFor
}

// rendererFor resolves the report directory, which may be relative to the
// repository root, and returns a renderer for it.
type rendererFor func(ctx context.Context) (*report.Renderer, error)

func NewReportTool(svc *review.Service, r rendererFor) *ReportTool {
	return &ReportTool{svc: svc, renderer: r}
}

func (t *ReportTool) Definition() mcp.Tool {
	return mcp.NewTool("generate_review_report",
		mcp.WithDescription("Assemble a full review context and write it to a timestamped markdown report file."),
		mcp.WithString("base_ref",
			mcp.Description("Base ref to diff against. Defaults to the configured base branch."),
		),
		mcp.WithString("head_ref",
			mcp.Description("Head ref to diff. Defaults to HEAD."),
		),
		mcp.WithString("filter",
			mcp.Description("Glob pattern restricting the diff to matching files."),
		),
		mcp.WithString("persona_file",
			mcp.Description("Path to a persona markdown file overriding the default review standards."),
		),
	)
}

func (t *ReportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rc, err := t.svc.ReviewDiff(ctx,
		req.GetString("base_ref", ""),
		req.GetString("head_ref", ""),
		req.GetString("filter", ""),
		req.GetString("persona_file", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := t.renderer(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := r.Render(rc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Review report written to %s (%d bytes).", res.Path, res.ByteLength)), nil
}

func formatDiff(diff gitrepo.DiffResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Diff %s..%s (filter: %s)\n\n", diff.BaseRef, diff.HeadRef, diff.Filter)
	if diff.RawText == "" {
		b.WriteString("No changes.\n")
		return b.String()
	}
	b.WriteString(diff.RawText)
	if !strings.HasSuffix(diff.RawText, "\n") {
		b.WriteString("\n")
	}
	if diff.Truncated {
		b.WriteString("\nNote: diff truncated at a file boundary; the file list below is complete.\n")
	}
	b.WriteString("\n")
	b.WriteString(formatChangedFiles(diff.Files))
	return b.String()
}

func formatChangedFiles(files []gitrepo.FileChange) string {
	if len(files) == 0 {
		return "No changed files.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Changed files (%d):\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, "  %-8s %s (+%d/-%d)", f.Status, f.Path, f.Additions, f.Deletions)
		if f.RenamedFrom != "" {
			fmt.Fprintf(&b, " (from %s)", f.RenamedFrom)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatContext(rc review.Context) string {
	var b strings.Builder
	b.WriteString("# Review Standards\n\n")
	fmt.Fprintf(&b, "_Source: %s_\n\n", personaLabel(rc.Persona))
	b.WriteString(strings.TrimRight(rc.Persona.Content, "\n"))
	b.WriteString("\n\n# Changes to Review\n\n")
	b.WriteString(formatDiff(rc.Diff))
	b.WriteString("\nPlease review the changes above against the standards.\n")
	return b.String()
}

func formatPersona(p persona.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Persona source: %s\n\n", personaLabel(p))
	b.WriteString(p.Content)
	return b.String()
}

func personaLabel(p persona.Persona) string {
	switch p.SourceKind {
	case persona.SourceExplicit:
		return p.SourcePath
	case persona.SourceProjectDefault:
		return p.SourcePath + " (project default)"
	default:
		return "built-in default"
	}
}
