// Package cli implements the reviewerd command-line interface.
//
// The primary command is serve, which runs the MCP server over stdio. The
// remaining commands expose the same pipeline operations directly for shell
// use: printing diffs and changed files, resolving the persona, writing
// report files, and exporting pull-request comments.
package cli
