// Package roster provides the canonical player and team name space used by
// entity resolution.
package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Kind selects which canonical name space to enumerate.
type Kind string

const (
	KindPlayer Kind = "player"
	KindTeam   Kind = "team"
)

// NameSource enumerates canonical names of a kind. Rosters are small enough
// to fully enumerate per lookup.
type NameSource interface {
	AllCanonicalNames(ctx context.Context, kind Kind) ([]string, error)
}

// Teams are the club's sides in canonical label form.
var Teams = []string{"1st XI", "2nd XI", "3rd XI", "4th XI"}

// CanonicalTeam maps a colloquial team reference ("2s", "2nd", "seconds",
// "second team") to its canonical label. Returns "" when the token is not a
// team reference.
func CanonicalTeam(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.TrimPrefix(t, "the ")
	switch t {
	case "1s", "1st", "firsts", "first team", "1st team", "1st xi", "first xi":
		return "1st XI"
	case "2s", "2nd", "seconds", "second team", "2nd team", "2nd xi", "second xi":
		return "2nd XI"
	case "3s", "3rd", "thirds", "third team", "3rd team", "3rd xi", "third xi":
		return "3rd XI"
	case "4s", "4th", "fourths", "fourth team", "4th team", "4th xi", "fourth xi":
		return "4th XI"
	}
	return ""
}

// StaticSource serves names from in-memory lists. Used by tests and by the
// CLI when no graph connection is configured.
type StaticSource struct {
	Players     []string
	Oppositions []string
}

// AllCanonicalNames returns the configured names for the kind.
func (s *StaticSource) AllCanonicalNames(_ context.Context, kind Kind) ([]string, error) {
	switch kind {
	case KindPlayer:
		return s.Players, nil
	case KindTeam:
		names := make([]string, 0, len(Teams)+len(s.Oppositions))
		names = append(names, Teams...)
		names = append(names, s.Oppositions...)
		return names, nil
	}
	return nil, fmt.Errorf("unknown roster kind %q", kind)
}

// GraphSource enumerates names from the records graph.
type GraphSource struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewGraphSource creates a graph-backed name source.
func NewGraphSource(driver neo4j.DriverWithContext, database string) *GraphSource {
	return &GraphSource{driver: driver, database: database}
}

// AllCanonicalNames enumerates player or team names from the graph.
func (s *GraphSource) AllCanonicalNames(ctx context.Context, kind Kind) ([]string, error) {
	var query string
	switch kind {
	case KindPlayer:
		query = "MATCH (p:Player) RETURN p.name AS name ORDER BY name"
	case KindTeam:
		query = "MATCH (t:Team) RETURN t.name AS name ORDER BY name"
	default:
		return nil, fmt.Errorf("unknown roster kind %q", kind)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s names: %w", kind, err)
	}

	var names []string
	for result.Next(ctx) {
		if name, ok := result.Record().Get("name"); ok {
			if s, ok := name.(string); ok {
				names = append(names, s)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("enumerate %s names: %w", kind, err)
	}
	return names, nil
}
