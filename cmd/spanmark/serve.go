package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"spanmark/internal/mcp"
	"spanmark/internal/workspace"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// unsaved documents are written on interrupt, see mcp.Server.Run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	ws, err := p.workspace()
	if err != nil {
		return err
	}
	session := workspace.NewSession(ws, p.schema, p.log)

	var querier mcp.Querier
	if p.cfg.Database.Driver() != "" {
		db, err := openDB(ctx, p)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())
		querier = db
	}

	server := mcp.NewServer(session, querier, version, p.log)
	return server.Run(ctx, &sdk.StdioTransport{})
}
