package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultAPIURL = "https://api.bitbucket.org/2.0"

// maxRetries is the number of retry attempts after a retryable failure.
const maxRetries = 3

// AuthError reports rejected credentials or missing token scopes.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Body)
}

// IsAuthError checks whether an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// Client provides read access to the Bitbucket Cloud REST API.
type Client struct {
	email      string
	token      string
	apiURL     string
	httpCli    *http.Client
	retryDelay time.Duration
}

// NewClient creates a Bitbucket client using basic auth with an API token.
func NewClient(email, token string) *Client {
	return &Client{
		email:      email,
		token:      token,
		apiURL:     defaultAPIURL,
		httpCli:    &http.Client{Timeout: 30 * time.Second},
		retryDelay: time.Second,
	}
}

// PullRequest is the subset of the PR payload the exporter uses.
type PullRequest struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Comment is the subset of the comment payload the exporter uses.
type Comment struct {
	ID      int `json:"id"`
	Content struct {
		Raw string `json:"raw"`
	} `json:"content"`
	Inline struct {
		Path string `json:"path"`
		To   int    `json:"to"`
	} `json:"inline"`
	User struct {
		AccountID string `json:"account_id"`
	} `json:"user"`
	CreatedOn string `json:"created_on"`
	UpdatedOn string `json:"updated_on"`
}

type prPage struct {
	Values []PullRequest `json:"values"`
	Next   string        `json:"next"`
}

type commentPage struct {
	Values []Comment `json:"values"`
	Next   string    `json:"next"`
}

// PullRequests fetches every pull request in the repository, following
// pagination across merged, open, and declined states.
func (c *Client) PullRequests(ctx context.Context, workspace, repoSlug string) ([]PullRequest, error) {
	u := fmt.Sprintf("%s/repositories/%s/%s/pullrequests?%s",
		c.apiURL, url.PathEscape(workspace), url.PathEscape(repoSlug),
		"state=MERGED&state=OPEN&state=DECLINED")

	var all []PullRequest
	for u != "" {
		var page prPage
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching pull requests: %w", err)
		}
		all = append(all, page.Values...)
		u = page.Next
	}
	return all, nil
}

// Comments fetches all comments for one pull request, following pagination.
func (c *Client) Comments(ctx context.Context, workspace, repoSlug string, prID int) ([]Comment, error) {
	u := fmt.Sprintf("%s/repositories/%s/%s/pullrequests/%d/comments",
		c.apiURL, url.PathEscape(workspace), url.PathEscape(repoSlug), prID)

	var all []Comment
	for u != "" {
		var page commentPage
		if err := c.getJSON(ctx, u, &page); err != nil {
			return nil, fmt.Errorf("fetching comments for PR #%d: %w", prID, err)
		}
		all = append(all, page.Values...)
		u = page.Next
	}
	return all, nil
}

// getJSON performs an authenticated GET with retry on transient failures.
// 429 and 5xx responses are retried with exponential backoff; auth failures
// are never retried.
func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * c.retryDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		var retryable bool
		retryable, lastErr = c.getJSONOnce(ctx, rawURL, v)
		if lastErr == nil || !retryable {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) getJSONOnce(ctx context.Context, rawURL string, v any) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.email, c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return true, fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.Unmarshal(body, v); err != nil {
			return false, fmt.Errorf("parsing response: %w", err)
		}
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	default:
		return false, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
}
