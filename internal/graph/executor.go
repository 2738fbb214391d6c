// Package graph provides query execution against the club records graph.
// The rest of the pipeline treats execution as an opaque boundary: it sees
// rows or a typed failure, never driver-specific error shapes.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Row is one result record keyed by return alias.
type Row map[string]any

// Typed execution failures. Everything the driver raises maps onto one of
// these two.
var (
	ErrConnectionUnavailable = errors.New("graph connection unavailable")
	ErrQueryExecution        = errors.New("graph query execution failed")
)

// Executor runs one statement of a query plan.
type Executor interface {
	Execute(ctx context.Context, statement string, params map[string]any) ([]Row, error)
}

// Neo4jExecutor executes statements against a Neo4j database.
type Neo4jExecutor struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jExecutor creates an executor over an established driver.
func NewNeo4jExecutor(driver neo4j.DriverWithContext, database string) *Neo4jExecutor {
	return &Neo4jExecutor{driver: driver, database: database}
}

// Connect creates a driver and verifies connectivity.
func Connect(ctx context.Context, uri, username, password, database string) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}
	return NewNeo4jExecutor(driver, database), nil
}

// Execute runs a read statement and collects its rows.
func (e *Neo4jExecutor) Execute(ctx context.Context, statement string, params map[string]any) ([]Row, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: e.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, statement, params)
	if err != nil {
		return nil, classify(err)
	}

	var rows []Row
	for result.Next(ctx) {
		record := result.Record()
		row := make(Row, len(record.Keys))
		for _, key := range record.Keys {
			if v, ok := record.Get(key); ok {
				row[key] = v
			}
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

// Close releases the underlying driver.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

func classify(err error) error {
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrQueryExecution, err)
}

// Float coerces a row value to float64. Neo4j integers arrive as int64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
