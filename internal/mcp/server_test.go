package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"spanmark/internal/workspace"
)

func runUntilCancelled(t *testing.T, server *Server) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	_, serverTransport := sdk.NewInMemoryTransports()

	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, serverTransport) }()
	cancel()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancellation")
		return nil
	}
}

func TestRun_SavesDirtyDocumentsOnShutdown(t *testing.T) {
	server := newTestServer(t, nil)
	if _, _, err := server.handleCreateEntity(context.Background(), nil, CreateEntityInput{Start: 0, End: 5, Semantic: "PERSON"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws := server.session.Workspace()
	if ws.DirtyCount() != 1 {
		t.Fatalf("expected one dirty document before shutdown")
	}

	if err := runUntilCancelled(t, server); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
	if ws.DirtyCount() != 0 {
		t.Fatalf("expected dirty documents to be saved")
	}
	data, err := os.ReadFile(filepath.Join(ws.Dir(), "news.json"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	saved, err := workspace.Decode(data)
	if err != nil || saved.Indexes.EntityCount() != 1 {
		t.Fatalf("expected saved entity, got %v (%v)", saved, err)
	}
}

func TestRun_ReportsShutdownSaveFailure(t *testing.T) {
	server := newTestServer(t, nil)
	if _, _, err := server.handleCreateEntity(context.Background(), nil, CreateEntityInput{Start: 0, End: 5, Semantic: "PERSON"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.RemoveAll(server.session.Workspace().Dir()); err != nil {
		t.Fatalf("removing workspace dir: %v", err)
	}

	if err := runUntilCancelled(t, server); err == nil {
		t.Fatalf("expected save error on shutdown")
	}
}
