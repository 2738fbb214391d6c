package analyzer

import (
	"regexp"
	"strings"

	"github.com/oakfield-sports/clubquery/internal/roster"
)

// nameSpan matches a capitalized multi-word name, allowing apostrophes and
// hyphens ("O'Neill", "Smith-Jones").
const nameSpan = `([A-Z][A-Za-z'\-]+(?: [A-Z][A-Za-z'\-]+)*)`

var (
	possessivePattern = regexp.MustCompile(`(?:[Ww]hat is|[Ww]hat's|[Ww]hats) ` + nameSpan + `'s`)
	auxiliaryPattern  = regexp.MustCompile(`\b(?:has|have|did|does|is|was|will) ` + nameSpan)
	prefixPattern     = regexp.MustCompile(`^([A-Z][A-Za-z'\-]+ [A-Z][A-Za-z'\-]+)`)
	capitalizedRun    = regexp.MustCompile(`\b([A-Z][A-Za-z'\-]+(?: [A-Z][A-Za-z'\-]+)+)\b`)

	oppositionPattern = regexp.MustCompile(`\b(against|versus|vs\.?) (?:the )?` + nameSpan)

	// A capitalized name directly before a versus-marker means the marker
	// separates two comparands, not a club and an opponent.
	comparandBefore = regexp.MustCompile(`[A-Z][A-Za-z'\-]+\s+$`)

	teamRefPattern = regexp.MustCompile(`\b(?:the )?([1-4](?:st|nd|rd|th)(?: (?:xi|team|side))?|[1-4]s|firsts|seconds|thirds|fourths|first (?:xi|team|side)|second (?:xi|team|side)|third (?:xi|team|side)|fourth (?:xi|team|side))\b`)

	numericToken = regexp.MustCompile(`^[0-9]`)
)

// questionWords are capitalized tokens that start questions, never names.
var questionWords = map[string]bool{
	"What": true, "Who": true, "How": true, "When": true, "Where": true,
	"Which": true, "Why": true, "Has": true, "Have": true, "Did": true,
	"Does": true, "Is": true, "Was": true, "Tell": true, "Show": true,
	"Give": true, "The": true, "In": true, "For": true, "Against": true,
	"Many": true, "Much": true, "Compare": true, "Between": true,
}

// extractEntities pulls name-like spans out of the raw question using the
// positional patterns, in precedence order. Numeric team references are never
// treated as player names. Opposition spans are excluded: they are extracted
// separately and must not double as the subject.
func extractEntities(raw string) []string {
	opposition := extractOpposition(raw)
	oppSet := make(map[string]bool, len(opposition))
	for _, o := range opposition {
		oppSet[o] = true
	}

	seen := make(map[string]bool)
	var entities []string
	add := func(span string) {
		span = cleanNameSpan(span)
		if span == "" || seen[span] || oppSet[span] {
			return
		}
		if numericToken.MatchString(span) || roster.CanonicalTeam(span) != "" {
			return
		}
		seen[span] = true
		entities = append(entities, span)
	}

	if m := possessivePattern.FindStringSubmatch(raw); m != nil {
		add(m[1])
	}
	for _, m := range auxiliaryPattern.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	// The prefix heuristic only holds when the question genuinely starts
	// with a name; a leading question word means it mis-fired.
	if m := prefixPattern.FindStringSubmatch(raw); m != nil && cleanNameSpan(m[1]) == m[1] {
		add(m[1])
	}
	for _, m := range capitalizedRun.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}

	return entities
}

// cleanNameSpan trims leading question words that the capitalization
// heuristic drags in ("How Many Goals Has Luke Bangs" → "Luke Bangs").
func cleanNameSpan(span string) string {
	words := strings.Fields(span)
	for len(words) > 0 && questionWords[words[0]] {
		words = words[1:]
	}
	// A trailing question word is equally suspect.
	for len(words) > 0 && questionWords[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// extractOpposition finds "against X" / "vs X" spans in the raw question.
// "Luke Bangs vs Tom Hardwick" is a player comparison: a versus-marker with a
// name on its left leaves the right-hand span to entity extraction.
func extractOpposition(raw string) []string {
	var opps []string
	seen := make(map[string]bool)
	for _, m := range oppositionPattern.FindAllStringSubmatchIndex(raw, -1) {
		marker := raw[m[2]:m[3]]
		if marker != "against" && comparandBefore.MatchString(raw[:m[0]]) {
			continue
		}
		name := cleanNameSpan(raw[m[4]:m[5]])
		if name == "" || seen[name] {
			continue
		}
		// "against the 2s" is an intra-club fixture, not an opposition club.
		if roster.CanonicalTeam(name) != "" {
			continue
		}
		seen[name] = true
		opps = append(opps, name)
	}
	return opps
}

// extractTeamRefs finds club-side references in the normalized question and
// maps them to canonical labels. "against the 2s" spans are skipped; those
// belong to the opposition dimension of an intra-club fixture.
func extractTeamRefs(normalized string) []string {
	var teams []string
	seen := make(map[string]bool)
	for _, m := range teamRefPattern.FindAllStringSubmatchIndex(normalized, -1) {
		token := normalized[m[2]:m[3]]
		canonical := roster.CanonicalTeam(token)
		if canonical == "" || seen[canonical] {
			continue
		}
		// Look behind for "against", which marks opposition context.
		prefix := normalized[:m[0]]
		if strings.HasSuffix(strings.TrimSpace(prefix), "against") {
			continue
		}
		seen[canonical] = true
		teams = append(teams, canonical)
	}
	return teams
}
