package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query ingested annotations from the CLI",
	}
	cmd.AddCommand(queryDocumentsCmd())
	cmd.AddCommand(queryEntitiesCmd())
	cmd.AddCommand(queryRelationsCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryCypherCmd())
	return cmd
}
