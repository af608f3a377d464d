package server

import (
	"context"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/avalier/reviewerd/internal/config"
	"github.com/avalier/reviewerd/internal/report"
	"github.com/avalier/reviewerd/internal/review"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with all review tools registered. This is the
// single place where the pipeline dependencies are resolved.
func New(cfg config.Config) *server.MCPServer {
	svc := review.NewService(cfg)

	s := server.NewMCPServer(
		"reviewerd",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	branchDiff := NewBranchDiffTool(svc)
	s.AddTool(branchDiff.Definition(), branchDiff.Handle)

	changedFiles := NewChangedFilesTool(svc)
	s.AddTool(changedFiles.Definition(), changedFiles.Handle)

	reviewDiff := NewReviewDiffTool(svc)
	s.AddTool(reviewDiff.Definition(), reviewDiff.Handle)

	reviewFile := NewReviewFileTool(svc)
	s.AddTool(reviewFile.Definition(), reviewFile.Handle)

	personaTool := NewPersonaTool(svc)
	s.AddTool(personaTool.Definition(), personaTool.Handle)

	checklist := NewChecklistTool(svc)
	s.AddTool(checklist.Definition(), checklist.Handle)

	reportTool := NewReportTool(svc, reportRenderer(svc, cfg))
	s.AddTool(reportTool.Definition(), reportTool.Handle)

	return s
}

// ServeStdio runs the server over stdio until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// reportRenderer resolves the report directory against the repository root
// when it is relative. The lookup happens per call so the server can start
// outside a repository and still fail cleanly at tool time.
func reportRenderer(svc *review.Service, cfg config.Config) rendererFor {
	return func(ctx context.Context) (*report.Renderer, error) {
		dir := cfg.ReportDir
		if !filepath.IsAbs(dir) {
			root, err := svc.RepoRoot(ctx)
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(root, dir)
		}
		return report.NewRenderer(dir), nil
	}
}

func serverInstructions() string {
	return `You have access to reviewerd, a code-review context server.

It assembles everything needed for a thorough code review: the review
standards (persona), the branch diff, and per-file change statistics.

Typical flow:
1. Call get_changed_files to see what changed against the base branch.
2. Call review_diff (or review_file for a single file) to get the full
   review context: standards plus diff.
3. Review the diff against the standards and report findings.
4. Optionally call generate_review_report to persist the context as a
   markdown report file.

The tools do not perform the review themselves — they gather context.
YOU are the reviewer: read the standards, read the diff, and produce
specific, actionable feedback referencing file names and line content.

Defaults: the base branch and file filter come from server configuration;
pass base_ref, head_ref, or filter to override per call. Pass persona_file
to review against a specific standards document.`
}
