// Package export pulls pull-request comments from the Bitbucket Cloud API
// and writes them to a flat CSV file.
//
// It is a standalone batch job: it shares no state with the review-context
// pipeline. Pagination follows the API's "next" links and transient HTTP
// failures are retried with exponential backoff.
package export
