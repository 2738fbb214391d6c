// Package engine wires the full answer pipeline: analysis, entity
// resolution, conversation context, planning, execution, and synthesis.
// Every turn terminates in a response envelope; failures are classified,
// never propagated raw to the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/archive"
	"github.com/oakfield-sports/clubquery/internal/conversation"
	"github.com/oakfield-sports/clubquery/internal/graph"
	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/planner"
	"github.com/oakfield-sports/clubquery/internal/resolver"
	"github.com/oakfield-sports/clubquery/internal/roster"
	"github.com/oakfield-sports/clubquery/internal/synthesizer"
)

// Failure kinds carried on the envelope. This is the complete classification;
// any execution error maps onto exactly one of these.
const (
	ErrKindConnectionUnavailable = "connection_unavailable"
	ErrKindQueryExecution        = "query_execution_error"
	ErrKindUnsupportedMetric     = "unsupported_metric"
	ErrKindAmbiguousEntity       = "ambiguous_entity"
	ErrKindEntityNotFound        = "entity_not_found"
	ErrKindNoDataForFilters      = "no_data_for_filters"
)

const (
	sourceGraph   = "club-records-graph"
	sourceArchive = "season-archive"
)

// AskRequest is one question in a session.
type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
	// UserHint is an optional entity the caller already knows the question is
	// about, e.g. the player page the user asked from.
	UserHint string `json:"userHint,omitempty"`
}

// Pipeline is the assembled question-answering engine.
type Pipeline struct {
	analyzer *analyzer.Analyzer
	resolver *resolver.Resolver
	planner  *planner.Planner
	synth    *synthesizer.Synthesizer
	store    conversation.Store
	executor graph.Executor
	archive  *archive.Store
	logger   *observability.Logger

	minConfidence float64
}

// Deps holds the pipeline's collaborators. Executor and Archive may be nil;
// questions needing them then fail with a classified envelope instead of a
// panic.
type Deps struct {
	Analyzer      *analyzer.Analyzer
	Resolver      *resolver.Resolver
	Planner       *planner.Planner
	Synthesizer   *synthesizer.Synthesizer
	Store         conversation.Store
	Executor      graph.Executor
	Archive       *archive.Store
	Logger        *observability.Logger
	MinConfidence float64
}

// New assembles the pipeline.
func New(d Deps) *Pipeline {
	logger := d.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Pipeline{
		analyzer:      d.Analyzer,
		resolver:      d.Resolver,
		planner:       d.Planner,
		synth:         d.Synthesizer,
		store:         d.Store,
		executor:      d.Executor,
		archive:       d.Archive,
		logger:        logger,
		minConfidence: d.MinConfidence,
	}
}

// Ask answers one question. It always returns an envelope; the error return
// is reserved for context cancellation and store failures, never for
// question-level problems.
func (p *Pipeline) Ask(ctx context.Context, req AskRequest) (*synthesizer.Envelope, error) {
	start := time.Now()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "anonymous"
	}
	log := p.logger.WithSession(sessionID)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return &synthesizer.Envelope{
			Answer:      "Ask me something about the club's records.",
			Suggestions: SuggestQuestions("", 3),
		}, nil
	}

	// A short name-like reply while a clarification is pending answers the
	// clarification, not a new question.
	pending, err := p.store.Pending(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load pending clarification: %w", err)
	}
	if pending != nil {
		if conversation.LooksLikeNameReply(question) {
			question = conversation.SpliceClarification(pending, question)
			log.Debug().Str("spliced", question).Msg("clarification reply spliced")
		}
		if err := p.store.ClearPending(ctx, sessionID); err != nil {
			return nil, fmt.Errorf("clear pending clarification: %w", err)
		}
	}

	an := p.analyzer.Analyze(question, req.UserHint)

	history, err := p.store.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	an = conversation.MergeContext(an, history)

	if env := p.resolveEntities(ctx, sessionID, question, an, log); env != nil {
		return env, nil
	}

	if an.RequiresClarification || an.Intent == analyzer.IntentClarificationNeeded {
		return p.clarify(ctx, sessionID, question, an)
	}
	if an.Intent == analyzer.IntentGeneral || an.Confidence < p.minConfidence {
		return &synthesizer.Envelope{
			Answer:      "I did not quite get that. Here are some things you can ask:",
			Suggestions: SuggestQuestions(an.Normalized, 3),
		}, nil
	}

	plan, err := p.planner.BuildPlan(an)
	if err != nil {
		return p.planFailure(an, err), nil
	}

	env, err := p.execute(ctx, an, plan)
	if err != nil {
		return nil, err
	}

	if err := p.store.AddTurn(ctx, sessionID, conversation.Turn{
		Question:  question,
		Entities:  an.Entities,
		Metrics:   an.Metrics,
		Timestamp: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("record turn: %w", err)
	}

	log.Info().
		Str("intent", string(an.Intent)).
		Float64("confidence", an.Confidence).
		Dur("elapsed", time.Since(start)).
		Bool("clarification", env.RequiresClarification).
		Msg("question answered")
	return env, nil
}

// resolveEntities maps extracted name fragments onto the canonical roster.
// It returns a terminal envelope for ambiguous or unknown names, nil when
// the pipeline should continue.
func (p *Pipeline) resolveEntities(ctx context.Context, sessionID, question string, an *analyzer.Analysis, log *observability.Logger) *synthesizer.Envelope {
	for i, fragment := range an.Entities {
		res, err := p.resolver.Resolve(ctx, fragment, roster.KindPlayer)
		if err != nil {
			log.Warn().Err(err).Str("fragment", fragment).Msg("roster lookup failed")
			return p.failure(ErrKindConnectionUnavailable, "I cannot reach the player roster right now. Please try again shortly.")
		}

		if res.Ambiguous {
			msg := ambiguityMessage(fragment, res.Candidates)
			p.setPending(ctx, sessionID, &conversation.PendingClarification{
				OriginalQuestion: question,
				Message:          msg,
				PartialName:      fragment,
				Candidates:       candidateNames(res.Candidates),
				Analysis:         an,
				CreatedAt:        time.Now(),
			})
			return &synthesizer.Envelope{
				Answer:                msg,
				RequiresClarification: true,
				ErrorKind:             ErrKindAmbiguousEntity,
				Suggestions:           candidateNames(res.Candidates),
			}
		}

		if !res.Resolved() {
			env := &synthesizer.Envelope{
				Answer:    fmt.Sprintf("I do not know a player called %q.", fragment),
				ErrorKind: ErrKindEntityNotFound,
			}
			if len(res.Candidates) > 0 {
				env.Answer = fmt.Sprintf("I do not know a player called %q. Did you mean %s?", fragment, res.Candidates[0].Name)
				env.Suggestions = candidateNames(res.Candidates)
			}
			return env
		}

		if res.Best() != fragment {
			log.Debug().Str("fragment", fragment).Str("resolved", res.Best()).Msg("entity resolved")
		}
		an.Entities[i] = res.Best()
	}

	// Opposition names resolve against the team name space, so a misspelled
	// opponent gets a correction instead of silently matching no fixtures.
	for i, fragment := range an.OppositionEntities {
		res, err := p.resolver.Resolve(ctx, fragment, roster.KindTeam)
		if err != nil {
			log.Warn().Err(err).Str("fragment", fragment).Msg("team lookup failed")
			return p.failure(ErrKindConnectionUnavailable, "I cannot reach the team roster right now. Please try again shortly.")
		}

		if !res.Resolved() {
			env := &synthesizer.Envelope{
				Answer:    fmt.Sprintf("I have no record of playing a team called %q.", fragment),
				ErrorKind: ErrKindEntityNotFound,
			}
			if len(res.Candidates) > 0 {
				env.Answer = fmt.Sprintf("I have no record of playing a team called %q. Did you mean %s?", fragment, res.Candidates[0].Name)
				env.Suggestions = candidateNames(res.Candidates)
			}
			return env
		}

		an.OppositionEntities[i] = res.Best()
	}
	return nil
}

func (p *Pipeline) clarify(ctx context.Context, sessionID, question string, an *analyzer.Analysis) (*synthesizer.Envelope, error) {
	msg := an.ClarificationMessage
	if msg == "" {
		msg = "Could you rephrase that? I need a player, team, or statistic to look up."
	}
	p.setPending(ctx, sessionID, &conversation.PendingClarification{
		OriginalQuestion: question,
		Message:          msg,
		PartialName:      an.PrimaryEntity(),
		Analysis:         an,
		CreatedAt:        time.Now(),
	})
	return &synthesizer.Envelope{
		Answer:                msg,
		RequiresClarification: true,
	}, nil
}

func (p *Pipeline) setPending(ctx context.Context, sessionID string, pending *conversation.PendingClarification) {
	if err := p.store.SetPending(ctx, sessionID, pending); err != nil {
		p.logger.WithSession(sessionID).Warn().Err(err).Msg("failed to store pending clarification")
	}
}

// execute runs the plan against its backing store and synthesizes the result.
func (p *Pipeline) execute(ctx context.Context, an *analyzer.Analysis, plan *planner.Plan) (*synthesizer.Envelope, error) {
	in := synthesizer.Input{Analysis: an, Plan: plan}

	switch plan.ResultKind {
	case planner.ResultLeagueTable:
		standings, winner, env := p.loadStandings(ctx, plan)
		if env != nil {
			return env, nil
		}
		in.Standings = standings
		in.Winner = winner
		out := p.synth.Synthesize(in)
		out.Sources = []string{sourceArchive}
		return out, nil

	case planner.ResultRatio:
		num, env := p.runScalar(ctx, plan, "numerator")
		if env != nil {
			return env, nil
		}
		den, env := p.runScalar(ctx, plan, "denominator")
		if env != nil {
			return env, nil
		}
		in.Numerator = num
		in.Denominator = den

	default:
		rows, env := p.runStatement(ctx, plan, "main")
		if env != nil {
			return env, nil
		}
		in.Rows = rows
	}

	out := p.synth.Synthesize(in)
	out.Sources = []string{sourceGraph}
	if out.ErrorKind == "" && len(in.Rows) == 0 && plan.ResultKind == planner.ResultScalar && an.HasAnyFilter() {
		out.ErrorKind = ErrKindNoDataForFilters
	}
	return out, nil
}

func (p *Pipeline) loadStandings(ctx context.Context, plan *planner.Plan) ([]archive.Standing, *archive.Standing, *synthesizer.Envelope) {
	if p.archive == nil {
		return nil, nil, p.failure(ErrKindConnectionUnavailable, "The league archive is not available right now.")
	}
	season, _ := plan.Parameters["season"].(string)
	if season == "" {
		return nil, nil, &synthesizer.Envelope{
			Answer:                "Which season's league table are you after?",
			RequiresClarification: true,
		}
	}

	if team, ok := plan.Parameters["team"].(string); ok && team != "" {
		st, err := p.archive.Position(ctx, season, team)
		if errors.Is(err, archive.ErrNotFound) {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, p.failure(ErrKindQueryExecution, "Something went wrong reading the league archive.")
		}
		return []archive.Standing{*st}, nil, nil
	}

	winner, err := p.archive.Winner(ctx, season)
	if errors.Is(err, archive.ErrNotFound) {
		// No standings at all for the season; the synthesizer says so.
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, p.failure(ErrKindQueryExecution, "Something went wrong reading the league archive.")
	}
	standings, err := p.archive.Table(ctx, season)
	if err != nil {
		return nil, nil, p.failure(ErrKindQueryExecution, "Something went wrong reading the league archive.")
	}
	return standings, winner, nil
}

// runStatement executes one named statement of the plan.
func (p *Pipeline) runStatement(ctx context.Context, plan *planner.Plan, id string) ([]graph.Row, *synthesizer.Envelope) {
	if p.executor == nil {
		return nil, p.failure(ErrKindConnectionUnavailable, "The records graph is not available right now.")
	}
	var stmt *planner.Statement
	for i := range plan.Statements {
		if plan.Statements[i].ID == id {
			stmt = &plan.Statements[i]
			break
		}
	}
	if stmt == nil {
		return nil, p.failure(ErrKindQueryExecution, "Something went wrong building that query.")
	}

	rows, err := p.executor.Execute(ctx, stmt.Text, plan.Parameters)
	if err != nil {
		if errors.Is(err, graph.ErrConnectionUnavailable) {
			return nil, p.failure(ErrKindConnectionUnavailable, "The records graph is not available right now. Please try again shortly.")
		}
		p.logger.Error().Err(err).Str("statement", id).Msg("query execution failed")
		return nil, p.failure(ErrKindQueryExecution, "Something went wrong answering that. Try rephrasing the question.")
	}
	return rows, nil
}

// runScalar executes one statement of a ratio plan and pulls its single
// aggregate value.
func (p *Pipeline) runScalar(ctx context.Context, plan *planner.Plan, id string) (*float64, *synthesizer.Envelope) {
	rows, env := p.runStatement(ctx, plan, id)
	if env != nil {
		return nil, env
	}
	v := 0.0
	if len(rows) > 0 {
		if f, ok := graph.Float(rows[0]["value"]); ok {
			v = f
		}
	}
	return &v, nil
}

// planFailure turns a planner error into its classified envelope.
func (p *Pipeline) planFailure(an *analyzer.Analysis, err error) *synthesizer.Envelope {
	if errors.Is(err, planner.ErrUnsupportedMetric) {
		return &synthesizer.Envelope{
			Answer:      "I do not track that statistic. I can answer about goals, assists, appearances, cards, clean sheets, and more.",
			ErrorKind:   ErrKindUnsupportedMetric,
			Suggestions: SuggestQuestions(an.Normalized, 3),
		}
	}
	return &synthesizer.Envelope{
		Answer:                "I need a bit more to go on. " + missingSlotHint(an),
		RequiresClarification: true,
		Suggestions:           SuggestQuestions(an.Normalized, 3),
	}
}

func (p *Pipeline) failure(kind, msg string) *synthesizer.Envelope {
	return &synthesizer.Envelope{Answer: msg, ErrorKind: kind}
}

func missingSlotHint(an *analyzer.Analysis) string {
	switch an.Intent {
	case analyzer.IntentComparison:
		return "A comparison needs two player names."
	case analyzer.IntentStreak, analyzer.IntentTemporal, analyzer.IntentDoubleGame, analyzer.IntentMilestone:
		return "Whose record do you mean?"
	}
	return "Try naming a player, a team, and a statistic."
}

func ambiguityMessage(fragment string, candidates []resolver.Candidate) string {
	names := candidateNames(candidates)
	switch len(names) {
	case 0:
		return fmt.Sprintf("Which %s did you mean?", fragment)
	case 1:
		return fmt.Sprintf("Did you mean %s?", names[0])
	case 2:
		return fmt.Sprintf("Which %s did you mean: %s or %s?", fragment, names[0], names[1])
	}
	return fmt.Sprintf("Which %s did you mean: %s, or %s?",
		fragment, strings.Join(names[:len(names)-1], ", "), names[len(names)-1])
}

func candidateNames(candidates []resolver.Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	return names
}
