package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spanmark/internal/ingest"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Synchronise the database with the workspace documents",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Force full re-ingestion (ignore incremental hashes)")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	ws, err := p.workspace()
	if err != nil {
		return err
	}

	db, err := openDB(ctx, p)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	result, err := ingest.Run(ctx, ws.Files(), db, ingest.Options{Full: ingestFull, Logger: p.log})
	if err != nil {
		return err
	}
	return printIngestResult("Ingestion", result)
}

func printIngestResult(label string, result *ingest.Result) error {
	fmt.Fprintf(os.Stdout, "%s complete.\n", label)
	fmt.Fprintf(os.Stdout, "  Documents stored:  %d\n", result.DocumentsStored)
	fmt.Fprintf(os.Stdout, "  Documents skipped: %d\n", result.DocumentsSkipped)
	fmt.Fprintf(os.Stdout, "  Documents removed: %d\n", result.DocumentsRemoved)
	fmt.Fprintf(os.Stdout, "  Entities stored:   %d\n", result.EntitiesStored)
	fmt.Fprintf(os.Stdout, "  Relations stored:  %d\n", result.RelationsStored)

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return fmt.Errorf("%s completed with errors", label)
	}
	return nil
}
