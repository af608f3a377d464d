// Package redact scrubs secret-looking values from diff text before it is
// handed to callers or written into review reports.
//
// Replacement happens within lines only, so the +/- line structure of a
// unified diff is preserved and per-file statistics still line up with the
// text.
package redact
