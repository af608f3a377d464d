package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// csvHeader is the ordered CSV column set.
var csvHeader = []string{
	"pr_id",
	"pr_title",
	"pr_url",
	"comment_id",
	"content",
	"file_path",
	"line",
	"created_on",
	"updated_on",
}

// Record is one exported comment row.
type Record struct {
	PRID      int
	PRTitle   string
	PRURL     string
	CommentID int
	Content   string
	FilePath  string
	Line      int
	CreatedOn string
	UpdatedOn string
}

func (r Record) row() []string {
	line := ""
	if r.Line > 0 {
		line = strconv.Itoa(r.Line)
	}
	return []string{
		strconv.Itoa(r.PRID),
		r.PRTitle,
		r.PRURL,
		strconv.Itoa(r.CommentID),
		r.Content,
		r.FilePath,
		line,
		r.CreatedOn,
		r.UpdatedOn,
	}
}

// Options configures an export run.
type Options struct {
	Workspace string
	RepoSlug  string
	// AccountID restricts the export to comments by one author. Empty
	// exports every comment.
	AccountID string
	// Output is the CSV file path.
	Output string
}

// Run fetches all PR comments and writes them to the CSV file, returning the
// number of exported comments. Progress lines go to progress (pass io.Discard
// to silence them).
func Run(ctx context.Context, client *Client, opts Options, progress io.Writer) (int, error) {
	fmt.Fprintln(progress, "Fetching pull requests...")
	prs, err := client.PullRequests(ctx, opts.Workspace, opts.RepoSlug)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(progress, "Found %d PRs to scan\n", len(prs))

	prWebURL := fmt.Sprintf("https://bitbucket.org/%s/%s/pull-requests", opts.Workspace, opts.RepoSlug)

	var records []Record
	for i, pr := range prs {
		fmt.Fprintf(progress, "[%d/%d] Scanning PR #%d: %s\n", i+1, len(prs), pr.ID, pr.Title)

		comments, err := client.Comments(ctx, opts.Workspace, opts.RepoSlug, pr.ID)
		if err != nil {
			return 0, err
		}
		for _, c := range comments {
			if opts.AccountID != "" && c.User.AccountID != opts.AccountID {
				continue
			}
			filePath := c.Inline.Path
			if filePath == "" {
				filePath = "General comment"
			}
			records = append(records, Record{
				PRID:      pr.ID,
				PRTitle:   pr.Title,
				PRURL:     fmt.Sprintf("%s/%d", prWebURL, pr.ID),
				CommentID: c.ID,
				Content:   c.Content.Raw,
				FilePath:  filePath,
				Line:      c.Inline.To,
				CreatedOn: c.CreatedOn,
				UpdatedOn: c.UpdatedOn,
			})
		}
	}

	if err := writeCSV(opts.Output, records); err != nil {
		return 0, err
	}
	fmt.Fprintf(progress, "Exported %d comments to %s\n", len(records), opts.Output)
	return len(records), nil
}

func writeCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.row()); err != nil {
			f.Close()
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return f.Close()
}
