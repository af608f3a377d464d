package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/avalier/reviewerd/internal/report"
)

var flagReportDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a review context to a markdown report file",
	Long:  "Assemble the full review context (persona plus diff) and write it to a timestamped markdown file under the report directory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, err := loadService()
		if err != nil {
			return err
		}
		ctx := context.Background()

		rc, err := svc.ReviewDiff(ctx, flagBase, flagHead, flagFilter, flagPersona)
		if err != nil {
			fail(err)
			return nil
		}

		dir := cfg.ReportDir
		if flagReportDir != "" {
			dir = flagReportDir
		}
		if !filepath.IsAbs(dir) {
			root, err := svc.RepoRoot(ctx)
			if err != nil {
				fail(err)
				return nil
			}
			dir = filepath.Join(root, dir)
		}

		res, err := report.NewRenderer(dir).Render(rc)
		if err != nil {
			fail(err)
			return nil
		}
		fmt.Fprintf(os.Stdout, "%s\n", res.Path)
		fmt.Fprintf(os.Stderr, "Report written (%d bytes)\n", res.ByteLength)
		return nil
	},
}

func init() {
	addContextFlags(reportCmd)
	reportCmd.Flags().StringVar(&flagReportDir, "report-dir", "", "Report output directory (default: configured, relative to repo root)")
}
