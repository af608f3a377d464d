package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avalier/reviewerd/internal/config"
	"github.com/avalier/reviewerd/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long:  "Serve the review tools to an MCP client over stdin/stdout. Blocks until the client disconnects.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if flagNoRedact {
			cfg.Privacy.RedactSecrets = false
			fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
		}
		if err := server.ServeStdio(server.New(cfg)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	addContextFlags(serveCmd)
}
