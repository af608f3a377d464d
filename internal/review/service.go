package review

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/avalier/reviewerd/internal/config"
	"github.com/avalier/reviewerd/internal/gitrepo"
	"github.com/avalier/reviewerd/internal/persona"
)

// Repository is the slice of the version-control gateway the service needs.
type Repository interface {
	Diff(ctx context.Context, baseRef, headRef, filter string) (gitrepo.DiffResult, error)
	ChangedFiles(ctx context.Context, baseRef, headRef, filter string) ([]gitrepo.FileChange, error)
	Root(ctx context.Context) (string, error)
}

// PersonaSource resolves the active reviewer persona.
type PersonaSource interface {
	Resolve(explicitPath string) (persona.Persona, error)
}

// FileNotInDiffError reports a review_file request for a file with no changes
// against the base ref. Explicit by decision: a file outside the diff range
// is an error, not a silently empty context.
type FileNotInDiffError struct {
	Path    string
	BaseRef string
}

func (e *FileNotInDiffError) Error() string {
	return fmt.Sprintf("file not in diff: %s has no changes against %s", e.Path, e.BaseRef)
}

// Service implements the pipeline operations over a persona source and a
// repository gateway. Defaults for omitted refs and filters come from config.
type Service struct {
	cfg      config.Config
	repo     Repository
	personas PersonaSource
}

// NewService wires a Service from configuration, constructing the concrete
// gateway and resolver.
func NewService(cfg config.Config) *Service {
	gw := gitrepo.New(gitrepo.Options{
		MaxDiffBytes:  cfg.MaxDiffBytes,
		Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
		RedactSecrets: cfg.Privacy.RedactSecrets,
	})
	resolver := persona.NewResolver(func() string {
		if root, err := gw.Root(context.Background()); err == nil {
			return root
		}
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}, cfg.PersonaPaths, persona.NewCache(cfg.CacheEnabled))

	return NewServiceWith(cfg, gw, resolver)
}

// NewServiceWith wires a Service from explicit collaborators.
func NewServiceWith(cfg config.Config, repo Repository, personas PersonaSource) *Service {
	return &Service{cfg: cfg, repo: repo, personas: personas}
}

// BranchDiff returns the diff between base and head. Empty base, head, or
// filter fall back to the configured defaults.
func (s *Service) BranchDiff(ctx context.Context, baseRef, headRef, filter string) (gitrepo.DiffResult, error) {
	baseRef, headRef, filter = s.defaults(baseRef, headRef, filter)
	return s.repo.Diff(ctx, baseRef, headRef, filter)
}

// ChangedFiles returns the ordered file-change list for the same query.
func (s *Service) ChangedFiles(ctx context.Context, baseRef, headRef, filter string) ([]gitrepo.FileChange, error) {
	baseRef, headRef, filter = s.defaults(baseRef, headRef, filter)
	return s.repo.ChangedFiles(ctx, baseRef, headRef, filter)
}

// ReviewDiff assembles a full review context: persona plus branch diff.
func (s *Service) ReviewDiff(ctx context.Context, baseRef, headRef, filter, personaPath string) (Context, error) {
	baseRef, headRef, filter = s.defaults(baseRef, headRef, filter)
	p, err := s.personas.Resolve(personaPath)
	if err != nil {
		return Context{}, err
	}
	diff, err := s.repo.Diff(ctx, baseRef, headRef, filter)
	if err != nil {
		return Context{}, err
	}
	return Build(p, diff, filter)
}

// ReviewFile assembles a review context scoped to a single file, diffed
// against the configured base ref. A file with no changes in that range
// fails with *FileNotInDiffError.
func (s *Service) ReviewFile(ctx context.Context, filePath, personaPath string) (Context, error) {
	p, err := s.personas.Resolve(personaPath)
	if err != nil {
		return Context{}, err
	}
	diff, err := s.repo.Diff(ctx, s.cfg.BaseRef, "HEAD", filePath)
	if err != nil {
		return Context{}, err
	}
	if len(diff.Files) == 0 {
		return Context{}, &FileNotInDiffError{Path: filePath, BaseRef: s.cfg.BaseRef}
	}
	return Build(p, diff, filePath)
}

// Persona returns the persona that would be used for reviews.
func (s *Service) Persona(personaPath string) (persona.Persona, error) {
	return s.personas.Resolve(personaPath)
}

// Checklist returns the embedded default document, unconditionally. It
// ignores any configured or explicit persona on purpose: the checklist is
// the fixed built-in baseline.
func (s *Service) Checklist() string {
	return persona.Embedded().Content
}

// RepoRoot exposes the repository root for boundary code that resolves
// relative report directories.
func (s *Service) RepoRoot(ctx context.Context) (string, error) {
	return s.repo.Root(ctx)
}

// BaseRef returns the configured default base ref.
func (s *Service) BaseRef() string {
	return s.cfg.BaseRef
}

func (s *Service) defaults(baseRef, headRef, filter string) (string, string, string) {
	if baseRef == "" {
		baseRef = s.cfg.BaseRef
	}
	if headRef == "" {
		headRef = "HEAD"
	}
	if filter == "" {
		filter = s.cfg.FilterPattern
	}
	return baseRef, headRef, filter
}
