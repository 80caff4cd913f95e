package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Client mirrors synced documents into Neo4j: one Document node per file, one
// Span node per entity labeled with its type, and one edge per relation.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.Logger
}

func NewClient(ctx context.Context, uri, username, password, database string, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Client{driver: driver, database: database, log: log}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Client) session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	session := c.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT document_unique_filename IF NOT EXISTS
FOR (d:Document) REQUIRE d.filename IS UNIQUE`,
		`CREATE INDEX span_document IF NOT EXISTS FOR (s:Span) ON (s.document, s.begin_offset)`,
		`CREATE INDEX span_semantic IF NOT EXISTS FOR (s:Span) ON (s.semantic)`,
		`CREATE FULLTEXT INDEX span_fulltext IF NOT EXISTS
FOR (s:Span) ON EACH [s.text, s.attrs_text]`,
	}

	for _, stmt := range statements {
		if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, stmt, nil)
			return nil, err
		}); err != nil {
			return fmt.Errorf("ensuring indexes: %w", err)
		}
	}

	return nil
}
