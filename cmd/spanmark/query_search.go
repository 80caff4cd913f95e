package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func querySearchCmd() *cobra.Command {
	var semantic string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search span text and attributes using the full-text index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(strings.Join(args, " "), semantic)
		},
	}
	cmd.Flags().StringVar(&semantic, "type", "", "Entity label to filter")
	return cmd
}

func runQuerySearch(query, semantic string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	db, err := openDB(ctx, p)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	results, err := db.Search(ctx, query, semantic)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%s [%d,%d) %s %q score=%.2f\n", result.Filename, result.Begin, result.End,
			result.Semantic, result.Text, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", result.Snippet)
		}
	}
	return nil
}
