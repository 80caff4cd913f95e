package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"spanmark/internal/validate"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against the workspace documents",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	ws, err := p.workspace()
	if err != nil {
		return err
	}

	report := validate.Run(ws.Files(), p.schema)

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.File
		if issue.OffsetKey != "" {
			location = fmt.Sprintf("%s@%s", location, issue.OffsetKey)
		}
		if issue.ID != "" {
			location = fmt.Sprintf("%s [%s]", location, issue.ID)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
