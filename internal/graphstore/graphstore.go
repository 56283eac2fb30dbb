// Package graphstore wraps the Neo4j driver with the session-per-query
// pattern used throughout this module: the driver is a shared, long-
// lived resource; each query opens and closes its own session. This
// mirrors the teacher's internal/importer connection handling.
package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Store holds the shared driver and the default database name.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// Config connects a Store to a Neo4j instance.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Open creates the driver and verifies connectivity once at startup.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}

	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Store{driver: driver, database: database}, nil
}

// Close shuts down the shared driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Driver exposes the underlying driver for callers (gds.Runner) that
// need to open their own session with non-default settings.
func (s *Store) Driver() neo4j.DriverWithContext { return s.driver }

// Database returns the configured database name.
func (s *Store) Database() string { return s.database }

// ExecuteWrite opens a session scoped to this call and runs fn in a
// write transaction.
func (s *Store) ExecuteWrite(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, fn)
}

// ExecuteRead opens a session scoped to this call and runs fn in a read
// transaction.
func (s *Store) ExecuteRead(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, fn)
}

// Run executes a single statement against its own session and
// collects all result records. Used for DDL and ad-hoc queries where a
// full transaction function is unnecessary ceremony.
func (s *Store) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect results: %w", err)
	}
	return records, nil
}
