// Package stats provides the metric registry: the static mapping from
// human-readable statistic phrases to canonical metric keys and their
// display/formatting rules. Loaded once per process and read-only after that.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RatioSpec describes a derived metric computed as numerator / denominator.
// Ratio metrics are not expressible as a single aggregation; the planner
// emits a two-stage template for them.
type RatioSpec struct {
	NumeratorKey   string
	DenominatorKey string
}

// Metric describes a canonical statistic and its formatting rules.
type Metric struct {
	Key           string
	DisplayName   string // plural noun, e.g. "goals"
	Singular      string // e.g. "goal"
	Verb          string // e.g. "scored", "kept", "received"
	Property      string // property on the match-record relation; empty means count of records
	DecimalPlaces int
	IsPercentage  bool
	// FixtureDependent marks metrics intrinsically defined in terms of the
	// fixture relation (results, opposition scores). These always join it.
	FixtureDependent bool
	Ratio            *RatioSpec
	IconID           string
}

// IsRatio reports whether the metric is a derived two-stage ratio.
func (m Metric) IsRatio() bool {
	return m.Ratio != nil
}

// Alias maps a question phrase to a metric key. Aliases are matched in table
// order, so multi-word phrases must appear before the umbrella terms they
// contain ("penalties scored" before "goals").
type Alias struct {
	Phrase string
	Key    string
}

// Registry holds the metric catalogue and alias table.
type Registry struct {
	metrics map[string]Metric
	aliases []Alias
}

// NewRegistry creates the registry with the club's metric catalogue.
func NewRegistry() *Registry {
	r := &Registry{metrics: make(map[string]Metric)}
	for _, m := range catalogue {
		r.metrics[m.Key] = m
	}
	r.aliases = aliasTable
	return r
}

// Lookup returns the metric for a canonical key.
func (r *Registry) Lookup(key string) (Metric, bool) {
	m, ok := r.metrics[key]
	return m, ok
}

// ResolvePhrases scans normalized question text for statistic phrases and
// returns the matched canonical keys in precedence order, deduplicated.
func (r *Registry) ResolvePhrases(normalized string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, a := range r.aliases {
		if strings.Contains(normalized, a.Phrase) && !seen[a.Key] {
			seen[a.Key] = true
			keys = append(keys, a.Key)
		}
	}
	return keys
}

// FormatValue renders a metric value with the configured decimal places and
// percentage conversion. Values already in percentage form (greater than 1
// for a percentage metric) are not converted again.
func (r *Registry) FormatValue(key string, value float64) string {
	m, ok := r.metrics[key]
	if !ok {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	if m.IsPercentage {
		// Raw ratios arrive in [0,1]; anything above is already a percentage.
		if value <= 1.0 {
			value *= 100
		}
		return fmt.Sprintf("%.*f%%", m.DecimalPlaces, roundTo(value, m.DecimalPlaces))
	}

	if m.DecimalPlaces == 0 {
		return strconv.FormatInt(int64(math.Round(value)), 10)
	}
	return fmt.Sprintf("%.*f", m.DecimalPlaces, roundTo(value, m.DecimalPlaces))
}

// Noun returns the singular or plural display noun for a count.
func (r *Registry) Noun(key string, count float64) string {
	m, ok := r.metrics[key]
	if !ok {
		return key
	}
	if count == 1 {
		return m.Singular
	}
	return m.DisplayName
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}

var catalogue = []Metric{
	{Key: "appearances", DisplayName: "appearances", Singular: "appearance", Verb: "made", IconID: "boot"},
	{Key: "goals", DisplayName: "goals", Singular: "goal", Verb: "scored", Property: "goals", IconID: "ball"},
	{Key: "assists", DisplayName: "assists", Singular: "assist", Verb: "provided", Property: "assists", IconID: "ball"},
	{Key: "clean_sheets", DisplayName: "clean sheets", Singular: "clean sheet", Verb: "kept", Property: "clean_sheet", IconID: "gloves"},
	{Key: "conceded", DisplayName: "goals conceded", Singular: "goal conceded", Verb: "conceded", Property: "conceded", IconID: "gloves"},
	{Key: "yellow_cards", DisplayName: "yellow cards", Singular: "yellow card", Verb: "received", Property: "yellow_cards", IconID: "card-yellow"},
	{Key: "red_cards", DisplayName: "red cards", Singular: "red card", Verb: "received", Property: "red_cards", IconID: "card-red"},
	{Key: "penalties_scored", DisplayName: "penalties", Singular: "penalty", Verb: "scored", Property: "penalties_scored", IconID: "spot"},
	{Key: "penalties_missed", DisplayName: "penalties", Singular: "penalty", Verb: "missed", Property: "penalties_missed", IconID: "spot"},
	{Key: "penalties_saved", DisplayName: "penalties", Singular: "penalty", Verb: "saved", Property: "penalties_saved", IconID: "gloves"},
	{Key: "own_goals", DisplayName: "own goals", Singular: "own goal", Verb: "scored", Property: "own_goals", IconID: "ball"},
	{Key: "motm_awards", DisplayName: "man of the match awards", Singular: "man of the match award", Verb: "won", Property: "motm", IconID: "trophy"},
	{Key: "wins", DisplayName: "wins", Singular: "win", Verb: "recorded", FixtureDependent: true, IconID: "trophy"},
	{Key: "goals_per_game", DisplayName: "goals per game", Singular: "goals per game", Verb: "averaged", DecimalPlaces: 2,
		Ratio: &RatioSpec{NumeratorKey: "goals", DenominatorKey: "appearances"}, IconID: "ball"},
	{Key: "win_rate", DisplayName: "win rate", Singular: "win rate", Verb: "achieved", DecimalPlaces: 1, IsPercentage: true, FixtureDependent: true,
		Ratio: &RatioSpec{NumeratorKey: "wins", DenominatorKey: "appearances"}, IconID: "trophy"},
}

// aliasTable is consulted in order; keep specific multi-word phrases ahead of
// the single-word umbrella terms, otherwise "penalties scored" classifies as
// plain goals.
var aliasTable = []Alias{
	{Phrase: "penalties scored", Key: "penalties_scored"},
	{Phrase: "penalties missed", Key: "penalties_missed"},
	{Phrase: "penalties saved", Key: "penalties_saved"},
	{Phrase: "penalty scored", Key: "penalties_scored"},
	{Phrase: "penalty missed", Key: "penalties_missed"},
	{Phrase: "penalty saved", Key: "penalties_saved"},
	{Phrase: "missed penalties", Key: "penalties_missed"},
	{Phrase: "saved penalties", Key: "penalties_saved"},
	{Phrase: "goals per game", Key: "goals_per_game"},
	{Phrase: "goals per appearance", Key: "goals_per_game"},
	{Phrase: "goals a game", Key: "goals_per_game"},
	{Phrase: "scoring rate", Key: "goals_per_game"},
	{Phrase: "win rate", Key: "win_rate"},
	{Phrase: "win percentage", Key: "win_rate"},
	{Phrase: "percentage of games won", Key: "win_rate"},
	{Phrase: "goals conceded", Key: "conceded"},
	{Phrase: "conceded", Key: "conceded"},
	{Phrase: "own goals", Key: "own_goals"},
	{Phrase: "own goal", Key: "own_goals"},
	{Phrase: "clean sheets", Key: "clean_sheets"},
	{Phrase: "clean sheet", Key: "clean_sheets"},
	{Phrase: "shutouts", Key: "clean_sheets"},
	{Phrase: "yellow cards", Key: "yellow_cards"},
	{Phrase: "yellow card", Key: "yellow_cards"},
	{Phrase: "yellows", Key: "yellow_cards"},
	{Phrase: "bookings", Key: "yellow_cards"},
	{Phrase: "booked", Key: "yellow_cards"},
	{Phrase: "red cards", Key: "red_cards"},
	{Phrase: "red card", Key: "red_cards"},
	{Phrase: "reds", Key: "red_cards"},
	{Phrase: "sent off", Key: "red_cards"},
	{Phrase: "sendings off", Key: "red_cards"},
	{Phrase: "man of the match", Key: "motm_awards"},
	{Phrase: "motm", Key: "motm_awards"},
	{Phrase: "penalties", Key: "penalties_scored"},
	{Phrase: "penalty", Key: "penalties_scored"},
	{Phrase: "appearances", Key: "appearances"},
	{Phrase: "appearance", Key: "appearances"},
	{Phrase: "apps", Key: "appearances"},
	{Phrase: "games played", Key: "appearances"},
	{Phrase: "played", Key: "appearances"},
	{Phrase: "assists", Key: "assists"},
	{Phrase: "assist", Key: "assists"},
	{Phrase: "wins", Key: "wins"},
	{Phrase: "won", Key: "wins"},
	{Phrase: "goals", Key: "goals"},
	{Phrase: "goal", Key: "goals"},
	{Phrase: "scored", Key: "goals"},
	{Phrase: "score", Key: "goals"},
}
