package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func queryDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List ingested documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			docs, err := db.ListDocuments(ctx)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(os.Stdout, "No documents found.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILE\tCHARS\tTOKENS\tENTITIES\tRELATIONS\tHASH")
			for _, doc := range docs {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.12s\n", doc.Filename, doc.CharCount, doc.TokenCount,
					doc.EntityCount, doc.RelationCount, doc.ContentHash)
			}
			return w.Flush()
		},
	}
}

func queryEntitiesCmd() *cobra.Command {
	var filename string
	var semantic string
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "List ingested entities with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			entities, err := db.ListEntities(ctx, filename, semantic)
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				fmt.Fprintln(os.Stdout, "No entities found.")
				return nil
			}
			for _, e := range entities {
				fmt.Fprintf(os.Stdout, "%s [%d,%d) %s %q%s\n", e.Filename, e.Begin, e.End, e.Semantic, e.Text, formatAttrs(e.Attrs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filename, "document", "", "Document to filter")
	cmd.Flags().StringVar(&semantic, "type", "", "Entity label to filter")
	return cmd
}

func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+attrs[key])
	}
	return " " + strings.Join(parts, " ")
}
