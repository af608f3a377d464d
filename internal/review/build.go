package review

import (
	"fmt"
	"time"

	"github.com/avalier/reviewerd/internal/gitrepo"
	"github.com/avalier/reviewerd/internal/persona"
)

// Context is the merged review context for a single request. It is
// constructed fresh per operation call and never persisted directly.
type Context struct {
	Persona       persona.Persona
	Diff          gitrepo.DiffResult
	GeneratedAt   time.Time
	FilterPattern string
}

// FilterMismatchError reports that a diff was produced with a different filter
// than the one being recorded on the context.
type FilterMismatchError struct {
	DiffFilter    string
	RequestFilter string
}

func (e *FilterMismatchError) Error() string {
	return fmt.Sprintf("filter mismatch: diff was produced with %q, request recorded %q",
		e.DiffFilter, e.RequestFilter)
}

// Build merges a persona and a diff into a Context, stamping the generation
// time. It performs no I/O. The filter the diff was produced with must be the
// one recorded, otherwise downstream artifacts would misstate their inputs.
func Build(p persona.Persona, diff gitrepo.DiffResult, filterPattern string) (Context, error) {
	if diff.Filter != filterPattern {
		return Context{}, &FilterMismatchError{DiffFilter: diff.Filter, RequestFilter: filterPattern}
	}
	return Context{
		Persona:       p,
		Diff:          diff,
		GeneratedAt:   time.Now().UTC(),
		FilterPattern: filterPattern,
	}, nil
}
