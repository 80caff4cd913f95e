package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"spanmark/internal/workspace"
)

func listCmd() *cobra.Command {
	var sortBy string
	var order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspace documents, converting new .txt files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(sortBy, order)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", workspace.SortByFilename, "Sort field: filename or content")
	cmd.Flags().StringVar(&order, "order", workspace.SortAsc, "Sort order: asc or desc")
	return cmd
}

func runList(sortBy, order string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	ws, err := p.workspace()
	if err != nil {
		return err
	}
	if ws.Len() == 0 {
		fmt.Fprintln(os.Stdout, "No documents found.")
		return nil
	}

	ws.SetSorting(sortBy, order)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tCHARS\tTOKENS\tENTITIES\tRELATIONS")
	for _, doc := range ws.Sorted() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", doc.Filename, doc.CharCount(), doc.TokenCount(),
			doc.Indexes.EntityCount(), doc.Indexes.RelationCount())
	}
	return w.Flush()
}
