package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"spanmark/internal/graph"
	"spanmark/internal/ingest"
)

func exportGraphCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "export-graph",
		Short: "Export entities and relations to Neo4j as nodes and edges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportGraph(full)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Re-export every document (ignore incremental hashes)")
	return cmd
}

func runExportGraph(full bool) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	client, err := openGraph(ctx, p)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	ws, err := p.workspace()
	if err != nil {
		return err
	}

	result, err := ingest.Run(ctx, ws.Files(), client, ingest.Options{Full: full, Logger: p.log})
	if err != nil {
		return err
	}
	return printIngestResult("Graph export", result)
}

func openGraph(ctx context.Context, p *project) (*graph.Client, error) {
	neo := p.cfg.Neo4j
	if !neo.Enabled() {
		return nil, fmt.Errorf("no neo4j uri configured in %s", configPath)
	}
	return graph.NewClient(ctx, neo.URI, neo.Username, neo.Password, neo.Database, p.log)
}
