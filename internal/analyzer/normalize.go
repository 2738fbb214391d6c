package analyzer

import "strings"

// colloquialisms substitutes informal phrasings with the canonical verbs the
// alias table understands. Checked in order, longest phrase first.
var colloquialisms = []struct{ from, to string }{
	{"banged in", "scored"},
	{"bang in", "score"},
	{"bagged", "scored"},
	{"bag", "score"},
	{"stuck away", "scored"},
	{"put away", "scored"},
	{"found the net", "scored"},
	{"hit the back of the net", "scored"},
	{"turned out", "played"},
	{"pulled on the shirt", "played"},
	{"got booked", "received a yellow card"},
	{"saw red", "received a red card"},
	{"kept a shutout", "kept a clean sheet"},
}

// Normalize lowercases the question, unifies apostrophes, and substitutes
// colloquial verbs so metric detection works off one vocabulary.
func Normalize(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))

	// Curly apostrophes and backticks all become a plain apostrophe.
	q = strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(q)

	for _, c := range colloquialisms {
		q = strings.ReplaceAll(q, c.from, c.to)
	}

	// Collapse runs of whitespace left by substitutions.
	q = strings.Join(strings.Fields(q), " ")

	return q
}
