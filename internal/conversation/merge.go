package conversation

import (
	"regexp"
	"strings"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
)

// continuationMarkers are the pronouns and connectives that signal the new
// question continues the previous subject.
var continuationMarkers = []string{
	" he ", " him ", " his ", " she ", " her ", " they ", " them ", " their ",
	" also ", "what about", "and how many", "how about",
}

// MergeContext fills gaps in the current analysis from the previous turn. An
// entity carries forward only when the new question signals continuation (a
// pronoun, "also", or no new subject at all); an explicitly named new entity
// is never overwritten.
func MergeContext(an *analyzer.Analysis, history []Turn) *analyzer.Analysis {
	if len(history) == 0 {
		return an
	}
	prev := history[0]

	padded := " " + an.Normalized + " "
	continues := false
	for _, marker := range continuationMarkers {
		if strings.Contains(padded, marker) {
			continues = true
			break
		}
	}
	// A metric question with no subject at all ("and assists?") is treated
	// as a continuation too. Questions that classified on their own
	// (rankings, league tables) keep their scope.
	if !continues && an.Intent == analyzer.IntentGeneral && len(an.Entities) == 0 && len(an.Metrics) > 0 {
		continues = true
	}

	if !continues {
		return an
	}

	if len(an.Entities) == 0 && len(prev.Entities) > 0 {
		an.Entities = append([]string(nil), prev.Entities...)
		if an.Intent == analyzer.IntentGeneral || an.Intent == analyzer.IntentTeam {
			an.Intent = analyzer.IntentPlayer
		}
		// The filled slot restores the confidence the bare question lacked.
		if an.Confidence < 0.6 {
			an.Confidence = 0.6
		}
	}
	if len(an.Metrics) == 0 && len(prev.Metrics) > 0 {
		an.Metrics = append([]string(nil), prev.Metrics...)
	}

	return an
}

var nameReplyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z'\- ]{0,40}$`)

// LooksLikeNameReply reports whether a follow-up input is a short,
// punctuation-free span plausibly completing a name: at most three words,
// letters only. The heuristic is deliberately loose; a false positive just
// re-runs analysis on a nonsense splice and ends in a fresh clarification.
func LooksLikeNameReply(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || !nameReplyPattern.MatchString(trimmed) {
		return false
	}
	return len(strings.Fields(trimmed)) <= 3
}

// SpliceClarification combines a pending clarification with a name reply,
// producing the question to re-analyze. When the reply already contains the
// ambiguous fragment ("Tom Hardwick" answering "which Tom?") it replaces the
// fragment outright; otherwise the reply is appended to it ("Hardwick"
// becomes "Tom Hardwick").
func SpliceClarification(pending *PendingClarification, reply string) string {
	reply = strings.TrimSpace(reply)
	if pending.PartialName == "" {
		return reply
	}

	// A reply naming exactly one offered candidate settles the choice in its
	// canonical casing; "hardwick" answers "Which Tom" as Tom Hardwick.
	replacement := matchCandidate(pending.Candidates, reply)
	if replacement == "" {
		replacement = reply
		if !strings.Contains(strings.ToLower(reply), strings.ToLower(pending.PartialName)) {
			replacement = pending.PartialName + " " + reply
		}
	}

	if strings.Contains(pending.OriginalQuestion, pending.PartialName) {
		return strings.Replace(pending.OriginalQuestion, pending.PartialName, replacement, 1)
	}
	return replacement
}

// matchCandidate returns the single candidate the reply names, ignoring
// case. Zero or several matches mean the reply did not settle the choice.
func matchCandidate(candidates []string, reply string) string {
	lower := strings.ToLower(reply)
	if lower == "" {
		return ""
	}
	match := ""
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), lower) {
			if match != "" {
				return ""
			}
			match = c
		}
	}
	return match
}
