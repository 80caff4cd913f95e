package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"spanmark/internal/store"
	"spanmark/internal/workspace"
)

// Querier is the read side of an annotation store. It is optional; without
// one the store backed tools report an error.
type Querier interface {
	ListEntities(ctx context.Context, filename, semantic string) ([]store.EntityRecord, error)
	ListRelations(ctx context.Context, filename, semantic string) ([]store.RelationRecord, error)
	Search(ctx context.Context, query, semantic string) ([]store.SearchResult, error)
}

// Server exposes a workspace session over MCP. Tool calls may arrive
// concurrently, so every handler touching the session holds mu.
type Server struct {
	mu      sync.Mutex
	session *workspace.Session
	db      Querier
	log     *zap.Logger
	mcp     *sdk.Server
}

func NewServer(session *workspace.Session, db Querier, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		session: session,
		db:      db,
		log:     log,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "spanmark",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves until the client disconnects or ctx is done, then writes every
// document still dirty. Cancellation is a normal shutdown, not an error.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	s.log.Info("serving workspace", zap.String("dir", s.session.Workspace().Dir()))
	err := s.mcp.Run(ctx, transport)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		s.log.Info("shutting down", zap.Error(ctx.Err()))
		err = nil
	}
	return multierr.Append(err, s.flush())
}

func (s *Server) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws := s.session.Workspace()
	dirty := ws.DirtyCount()
	if dirty == 0 {
		return nil
	}
	saved, err := ws.DumpAll()
	s.log.Info("saved unsaved documents on shutdown", zap.Int("saved", saved), zap.Int("dirty", dirty))
	if err != nil {
		return fmt.Errorf("saving documents on shutdown: %w", err)
	}
	return nil
}
