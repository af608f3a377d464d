// Package review assembles per-request review contexts.
//
// Build is a pure merge of a persona and a diff into a ReviewContext; all
// I/O happens before it (persona resolution, repository queries) or after it
// (report rendering). Service layers the named pipeline operations on top of
// a persona resolver and a repository gateway so every operation shares one
// assembly path.
package review
