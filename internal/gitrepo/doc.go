// Package gitrepo queries a git repository for diffs and per-file change
// statistics between two refs.
//
// Diffs are computed from the merge base of the two refs so a feature branch
// is compared against the point where it diverged. Statistics come from
// git diff --numstat and --name-status over the same range and pathspec as
// the raw text, which keeps the file list and the text consistent. File
// entries are sorted by path and raw text is truncated only at file
// boundaries, so output is deterministic and safe to render downstream.
package gitrepo
