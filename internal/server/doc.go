// Package server wires the review-context pipeline into an MCP server.
//
// This is the composition root: it builds the persona resolver, repository
// gateway, service, and report renderer from configuration and registers one
// tool per pipeline operation. No assembly logic lives here, only wiring and
// argument/result translation.
package server
