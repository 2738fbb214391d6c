// Package resolver matches extracted name fragments against the canonical
// roster and team name space.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/roster"
)

// Candidate is a fuzzy match with its confidence score.
type Candidate struct {
	Name       string
	Confidence float64
}

// Result holds the outcome of a resolution call. Exactly one of three states
// applies: an exact match, a decisive fuzzy match, or an ambiguous candidate
// set the caller must clarify.
type Result struct {
	ExactMatch string
	Candidates []Candidate
	Ambiguous  bool
}

// Resolved reports whether resolution produced a single usable name.
func (r Result) Resolved() bool {
	return r.ExactMatch != "" || (!r.Ambiguous && len(r.Candidates) > 0)
}

// Best returns the resolved name, or "" when unresolved.
func (r Result) Best() string {
	if r.ExactMatch != "" {
		return r.ExactMatch
	}
	if !r.Ambiguous && len(r.Candidates) > 0 {
		return r.Candidates[0].Name
	}
	return ""
}

// Config holds resolution tunables. Thresholds are parameters, not constants;
// the right cutoffs depend on how collision-prone the roster is.
type Config struct {
	MinMatchScore   float64 // candidates below this are dropped
	AmbiguityMargin float64 // top score must beat the runner-up by this much
	MaxCandidates   int
}

// DefaultConfig returns resolution defaults suitable for a club-sized roster.
func DefaultConfig() Config {
	return Config{
		MinMatchScore:   0.55,
		AmbiguityMargin: 0.1,
		MaxCandidates:   5,
	}
}

// Resolver fuzzy-matches name fragments against a NameSource.
type Resolver struct {
	source roster.NameSource
	cfg    Config
	logger *observability.Logger
}

// New creates a resolver over the given name source.
func New(source roster.NameSource, cfg Config, logger *observability.Logger) *Resolver {
	if cfg.MinMatchScore <= 0 {
		cfg.MinMatchScore = DefaultConfig().MinMatchScore
	}
	if cfg.AmbiguityMargin <= 0 {
		cfg.AmbiguityMargin = DefaultConfig().AmbiguityMargin
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultConfig().MaxCandidates
	}
	return &Resolver{source: source, cfg: cfg, logger: logger}
}

// Resolve matches a name fragment against the canonical names of the kind.
// An exact case-insensitive match wins outright. Otherwise candidates are
// scored with an edit-distance/token-overlap hybrid; when the top two scores
// are not decisively separated the result is ambiguous and the caller must
// ask for clarification rather than silently picking one. Ranking is
// deterministic for a given name set.
func (r *Resolver) Resolve(ctx context.Context, fragment string, kind roster.Kind) (Result, error) {
	names, err := r.source.AllCanonicalNames(ctx, kind)
	if err != nil {
		return Result{}, err
	}

	trimmed := strings.TrimSpace(fragment)
	for _, name := range names {
		if strings.EqualFold(name, trimmed) {
			return Result{ExactMatch: name}, nil
		}
	}

	candidates := make([]Candidate, 0, len(names))
	for _, name := range names {
		score := Similarity(trimmed, name)
		if score >= r.cfg.MinMatchScore {
			candidates = append(candidates, Candidate{Name: name, Confidence: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Name < candidates[j].Name
	})

	if len(candidates) > r.cfg.MaxCandidates {
		candidates = candidates[:r.cfg.MaxCandidates]
	}

	result := Result{Candidates: candidates}
	if len(candidates) >= 2 {
		result.Ambiguous = candidates[0].Confidence-candidates[1].Confidence < r.cfg.AmbiguityMargin
	}

	r.logger.Debug().
		Str("fragment", fragment).
		Str("kind", string(kind)).
		Int("candidates", len(candidates)).
		Bool("ambiguous", result.Ambiguous).
		Msg("Resolved name fragment")

	return result, nil
}

// Similarity scores a fragment against a canonical name in [0,1]. The score
// blends normalized Levenshtein distance with token overlap, so that a bare
// first name still scores well against every roster entry carrying it.
func Similarity(fragment, name string) float64 {
	f := strings.ToLower(strings.TrimSpace(fragment))
	n := strings.ToLower(name)
	if f == "" || n == "" {
		return 0
	}
	if f == n {
		return 1
	}

	dist := levenshtein.ComputeDistance(f, n)
	maxLen := len([]rune(f))
	if l := len([]rune(n)); l > maxLen {
		maxLen = l
	}
	editScore := 1.0 - float64(dist)/float64(maxLen)

	overlap := tokenOverlap(strings.Fields(f), strings.Fields(n))

	score := 0.5*editScore + 0.5*overlap

	// A fragment that is a whole token of the name (a first name or surname
	// on its own) is a strong partial match regardless of length imbalance.
	for _, tok := range strings.Fields(n) {
		if tok == f {
			if score < 0.8 {
				score = 0.8
			}
			break
		}
	}

	return score
}

// tokenOverlap returns the fraction of fragment tokens present in the name,
// counting close token-level edits (one edit for short tokens, two for long)
// as matches to absorb misspellings.
func tokenOverlap(fragmentTokens, nameTokens []string) float64 {
	if len(fragmentTokens) == 0 {
		return 0
	}
	matched := 0
	for _, ft := range fragmentTokens {
		for _, nt := range nameTokens {
			if ft == nt || closeEnough(ft, nt) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(fragmentTokens))
}

func closeEnough(a, b string) bool {
	allowed := 1
	if len(a) >= 6 {
		allowed = 2
	}
	return levenshtein.ComputeDistance(a, b) <= allowed
}
