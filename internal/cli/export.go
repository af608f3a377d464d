package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avalier/reviewerd/internal/export"
)

var (
	flagExportEmail     string
	flagExportToken     string
	flagExportWorkspace string
	flagExportRepo      string
	flagExportOutput    string
	flagExportAccountID string
)

var exportCmd = &cobra.Command{
	Use:   "export-comments",
	Short: "Export Bitbucket pull-request comments to CSV",
	Long:  "Fetch every pull request in a Bitbucket repository and write all review comments to a CSV file. Credentials come from flags or the ATLASSIAN_EMAIL and BITBUCKET_API_TOKEN environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := orEnv(flagExportEmail, "ATLASSIAN_EMAIL")
		token := orEnv(flagExportToken, "BITBUCKET_API_TOKEN")
		workspace := orEnv(flagExportWorkspace, "BITBUCKET_WORKSPACE")
		repo := orEnv(flagExportRepo, "BITBUCKET_REPO_SLUG")
		accountID := orEnv(flagExportAccountID, "BITBUCKET_ACCOUNT_ID")

		if email == "" || token == "" {
			return fmt.Errorf("credentials required: set --email and --token or ATLASSIAN_EMAIL and BITBUCKET_API_TOKEN")
		}
		if workspace == "" || repo == "" {
			return fmt.Errorf("repository required: set --workspace and --repo or BITBUCKET_WORKSPACE and BITBUCKET_REPO_SLUG")
		}

		client := export.NewClient(email, token)
		n, err := export.Run(context.Background(), client, export.Options{
			Workspace: workspace,
			RepoSlug:  repo,
			AccountID: accountID,
			Output:    flagExportOutput,
		}, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			if export.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}
		fmt.Fprintf(os.Stdout, "Exported %d comments to %s\n", n, flagExportOutput)
		return nil
	},
}

func orEnv(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportEmail, "email", "e", "", "Atlassian account email")
	exportCmd.Flags().StringVarP(&flagExportToken, "token", "t", "", "Bitbucket API token")
	exportCmd.Flags().StringVarP(&flagExportWorkspace, "workspace", "w", "", "Bitbucket workspace")
	exportCmd.Flags().StringVarP(&flagExportRepo, "repo", "r", "", "Repository slug")
	exportCmd.Flags().StringVarP(&flagExportOutput, "output", "o", "pr_comments.csv", "Output CSV path")
	exportCmd.Flags().StringVarP(&flagExportAccountID, "account-id", "a", "", "Only export comments by this account ID")
}
