// Package persona locates and loads the reviewer-standards document used to
// frame code reviews.
//
// Resolution is a three-step fallback chain: an explicit path supplied by the
// caller, then an ordered list of project default locations under the
// repository root, then an embedded default document that always succeeds.
// Only an explicit path that does not exist is a hard failure.
package persona
