package persona

import (
	"fmt"
	"os"
	"path/filepath"

	_ "embed"
)

// SourceKind identifies which step of the fallback chain produced a persona.
type SourceKind string

const (
	SourceExplicit       SourceKind = "explicit"
	SourceProjectDefault SourceKind = "projectDefault"
	SourceEmbedded       SourceKind = "embeddedFallback"
)

// Persona is a loaded reviewer-standards document. Content is opaque text;
// nothing in this package interprets it.
type Persona struct {
	SourceKind SourceKind
	SourcePath string // empty for the embedded fallback
	Content    string
}

// NotFoundError reports that an explicitly requested persona file is absent.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("persona file not found: %s", e.Path)
}

//go:embed default_persona.md
var embeddedContent string

// Embedded returns the built-in default persona. It is the terminal step of
// the fallback chain and never fails.
func Embedded() Persona {
	return Persona{
		SourceKind: SourceEmbedded,
		Content:    embeddedContent,
	}
}

// DefaultSearchPaths are the project default locations tried, in order,
// relative to the repository root when no explicit path is given.
var DefaultSearchPaths = []string{
	"notebooks/code_reviewer_persona.md",
	"docs/code_reviewer_persona.md",
	".code-reviewer/persona.md",
}

// Resolver resolves persona documents. rootDir supplies the directory default
// locations and relative explicit paths are resolved against; it is consulted
// per call so the resolver tracks repository moves.
type Resolver struct {
	rootDir     func() string
	searchPaths []string
	cache       *Cache
}

// NewResolver creates a Resolver. searchPaths may be nil to use
// DefaultSearchPaths; cache may be nil to disable caching.
func NewResolver(rootDir func() string, searchPaths []string, cache *Cache) *Resolver {
	if searchPaths == nil {
		searchPaths = DefaultSearchPaths
	}
	return &Resolver{
		rootDir:     rootDir,
		searchPaths: searchPaths,
		cache:       cache,
	}
}

// Resolve returns the active persona. With an explicit path the file must
// exist or the call fails with *NotFoundError; with no explicit path the
// default locations are searched and the embedded document is the final
// fallback, so the call cannot fail.
func (r *Resolver) Resolve(explicitPath string) (Persona, error) {
	if explicitPath != "" {
		path := explicitPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.root(), path)
		}
		content, err := r.readFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return Persona{}, &NotFoundError{Path: explicitPath}
			}
			// Unreadable but present: the chain continues per contract,
			// absence is the only hard failure here.
			return Embedded(), nil
		}
		return Persona{
			SourceKind: SourceExplicit,
			SourcePath: path,
			Content:    content,
		}, nil
	}

	root := r.root()
	for _, rel := range r.searchPaths {
		path := filepath.Join(root, rel)
		content, err := r.readFile(path)
		if err != nil {
			continue
		}
		return Persona{
			SourceKind: SourceProjectDefault,
			SourcePath: path,
			Content:    content,
		}, nil
	}

	return Embedded(), nil
}

func (r *Resolver) root() string {
	if r.rootDir == nil {
		wd, err := os.Getwd()
		if err != nil {
			return "."
		}
		return wd
	}
	return r.rootDir()
}

// readFile reads path through the cache when one is configured. Cache entries
// are keyed by path and invalidated on modification-time or size change, so a
// stale entry is never served.
func (r *Resolver) readFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("persona path is a directory: %s", path)
	}
	if content, ok := r.cache.Get(path, info); ok {
		return content, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := string(data)
	r.cache.Put(path, info, content)
	return content, nil
}
