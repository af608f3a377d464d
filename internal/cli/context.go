package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avalier/reviewerd/internal/config"
	"github.com/avalier/reviewerd/internal/persona"
	"github.com/avalier/reviewerd/internal/review"
)

// Shared context flags
var (
	flagBase         string
	flagHead         string
	flagFilter       string
	flagPersona      string
	flagMaxDiffBytes int
	flagTimeout      int
	flagNoRedact     bool
)

func addContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagBase, "base", "", "Base ref to diff against (default: configured base branch)")
	cmd.Flags().StringVar(&flagHead, "head", "", "Head ref to diff (default: HEAD)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Glob pattern restricting files, e.g. '*.py'")
	cmd.Flags().StringVar(&flagPersona, "persona", "", "Persona markdown file overriding the default chain")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "Git command timeout in seconds")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagBase != "" {
		m["baseRef"] = flagBase
	}
	if flagFilter != "" {
		m["filterPattern"] = flagFilter
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = fmt.Sprintf("%d", flagMaxDiffBytes)
	}
	if flagTimeout > 0 {
		m["timeoutSeconds"] = fmt.Sprintf("%d", flagTimeout)
	}
	return m
}

// loadService builds the effective config and the service on top of it.
func loadService() (*review.Service, config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, config.Config{}, err
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	return review.NewService(cfg), cfg, nil
}

// fail prints the error and sets the exit code. Git-unavailable and
// invalid-ref failures are runtime errors, not usage errors.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	exitCode = ExitRuntimeError
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print the diff against the base branch",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := loadService()
		if err != nil {
			return err
		}
		diff, err := svc.BranchDiff(context.Background(), flagBase, flagHead, flagFilter)
		if err != nil {
			fail(err)
			return nil
		}
		fmt.Fprint(os.Stdout, diff.RawText)
		if diff.Truncated {
			fmt.Fprintln(os.Stderr, "Note: diff truncated at a file boundary")
		}
		return nil
	},
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List changed files with addition/deletion counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := loadService()
		if err != nil {
			return err
		}
		files, err := svc.ChangedFiles(context.Background(), flagBase, flagHead, flagFilter)
		if err != nil {
			fail(err)
			return nil
		}
		for _, f := range files {
			fmt.Fprintf(os.Stdout, "%-8s %s\t+%d\t-%d", f.Status, f.Path, f.Additions, f.Deletions)
			if f.RenamedFrom != "" {
				fmt.Fprintf(os.Stdout, "\t(from %s)", f.RenamedFrom)
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Show the active review persona and its source",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := loadService()
		if err != nil {
			return err
		}
		p, err := svc.Persona(flagPersona)
		if err != nil {
			var nf *persona.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitCode = ExitUsageError
				return nil
			}
			fail(err)
			return nil
		}
		if p.SourcePath != "" {
			fmt.Fprintf(os.Stderr, "Source: %s (%s)\n", p.SourcePath, p.SourceKind)
		} else {
			fmt.Fprintln(os.Stderr, "Source: built-in default")
		}
		fmt.Fprint(os.Stdout, p.Content)
		return nil
	},
}

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Print the built-in review checklist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(os.Stdout, persona.Embedded().Content)
	},
}

func init() {
	addContextFlags(diffCmd)
	addContextFlags(filesCmd)
	addContextFlags(personaCmd)
}
