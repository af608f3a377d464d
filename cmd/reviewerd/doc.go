// Reviewerd assembles code-review context from git repositories: reviewer
// personas, branch diffs, and per-file change statistics.
//
// Its primary mode is an MCP server over stdio, exposing the review tools to
// AI coding assistants. The same operations are available directly from the
// shell for scripting and inspection.
//
// Usage:
//
//	reviewerd serve                   # run the MCP server over stdio
//	reviewerd diff --base main        # print the branch diff
//	reviewerd files                   # list changed files with counts
//	reviewerd report                  # write a markdown review report
//	reviewerd persona                 # show the active review persona
//	reviewerd checklist               # print the built-in checklist
//	reviewerd export-comments         # export Bitbucket PR comments to CSV
//
// See https://github.com/avalier/reviewerd for full documentation.
package main
