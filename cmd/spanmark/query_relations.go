package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryRelationsCmd() *cobra.Command {
	var filename string
	var semantic string
	cmd := &cobra.Command{
		Use:   "relations",
		Short: "List ingested relations with endpoint text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryRelations(filename, semantic)
		},
	}
	cmd.Flags().StringVar(&filename, "document", "", "Document to filter")
	cmd.Flags().StringVar(&semantic, "type", "", "Relation label to filter")
	return cmd
}

func runQueryRelations(filename, semantic string) error {
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

	relations, err := db.ListRelations(ctx, filename, semantic)
	if err != nil {
		return err
	}
	if len(relations) == 0 {
		fmt.Fprintln(os.Stdout, "No relations found.")
		return nil
	}

	for _, rel := range relations {
		fmt.Fprintf(os.Stdout, "%s: %q (%s) -[%s]-> %q (%s)%s\n", rel.Filename,
			rel.From.Text, rel.From.Semantic, rel.Semantic, rel.To.Text, rel.To.Semantic, formatAttrs(rel.Attrs))
	}
	return nil
}
