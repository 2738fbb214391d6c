// Package main provides the club query CLI entrypoint.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/archive"
	"github.com/oakfield-sports/clubquery/internal/cache"
	"github.com/oakfield-sports/clubquery/internal/config"
	"github.com/oakfield-sports/clubquery/internal/conversation"
	"github.com/oakfield-sports/clubquery/internal/engine"
	"github.com/oakfield-sports/clubquery/internal/graph"
	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/planner"
	"github.com/oakfield-sports/clubquery/internal/resolver"
	"github.com/oakfield-sports/clubquery/internal/roster"
	"github.com/oakfield-sports/clubquery/internal/stats"
	"github.com/oakfield-sports/clubquery/internal/synthesizer"
)

var (
	cfgFile    string
	outputJSON bool
	verbose    bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clubquery",
	Short: "Ask questions about the club's playing records",
	Long: `clubquery answers natural-language questions about the club's records.

Use this tool to:
- Ask one-off questions about players, teams, and fixtures
- Hold a conversational session with follow-up questions
- Load archived league tables into the season archive

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		level := cfg.Observability.LogLevel
		if outputJSON {
			logFormat = "json"
		}
		if !verbose && !outputJSON {
			// Keep interactive output clean.
			level = "error"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			ServiceName: "clubquery-cli",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newReplCmd())
	rootCmd.AddCommand(newArchiveLoadCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildPipeline assembles the engine for CLI use. Connection failures leave
// the corresponding backend nil; the engine reports them per question.
func buildPipeline(ctx context.Context) (*engine.Pipeline, func()) {
	var closers []func()

	memCache := cache.NewMemoryClient(cfg.Cache.MaxEntries)
	closers = append(closers, func() { _ = memCache.Close() })

	var executor graph.Executor
	var source roster.NameSource = &roster.StaticSource{}

	driver, err := neo4j.NewDriverWithContext(cfg.Graph.URI,
		neo4j.BasicAuth(cfg.Graph.Username, cfg.Graph.Password, ""))
	if err == nil {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = driver.VerifyConnectivity(connectCtx)
		cancel()
	}
	if err != nil {
		logger.Warn().Err(err).Msg("records graph unavailable")
	} else {
		executor = graph.NewCachedExecutor(
			graph.NewNeo4jExecutor(driver, cfg.Graph.Database),
			memCache, cfg.Cache.TTL, logger,
		)
		source = roster.NewGraphSource(driver, cfg.Graph.Database)
		closers = append(closers, func() { _ = driver.Close(context.Background()) })
	}

	var archiveStore *archive.Store
	if cfg.Archive.Path != "" {
		if store, err := archive.Open(cfg.Archive.Path); err != nil {
			logger.Warn().Err(err).Msg("season archive unavailable")
		} else {
			archiveStore = store
			closers = append(closers, func() { _ = store.Close() })
		}
	}

	registry := stats.NewRegistry()
	pipeline := engine.New(engine.Deps{
		Analyzer: analyzer.New(registry, logger),
		Resolver: resolver.New(source, resolver.Config{
			MinMatchScore:   cfg.Resolver.MinMatchScore,
			AmbiguityMargin: cfg.Resolver.AmbiguityMargin,
			MaxCandidates:   cfg.Resolver.MaxCandidates,
		}, logger),
		Planner:     planner.New(registry),
		Synthesizer: synthesizer.New(registry, logger),
		Store: conversation.NewMemoryStore(conversation.Config{
			HistoryLen: cfg.Conversation.HistoryLen,
			TTL:        cfg.Conversation.TTL,
		}),
		Executor:      executor,
		Archive:       archiveStore,
		Logger:        logger,
		MinConfidence: cfg.Analyzer.MinConfidence,
	})

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return pipeline, cleanup
}

// newAskCmd creates the one-shot ask subcommand.
func newAskCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pipeline, cleanup := buildPipeline(ctx)
			defer cleanup()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			env, err := askWithSpinner(ctx, pipeline, strings.Join(args, " "), sessionID)
			if err != nil {
				return err
			}
			printEnvelope(env)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session ID for conversational follow-ups")
	return cmd
}

// newReplCmd creates the interactive session subcommand.
func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive question session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pipeline, cleanup := buildPipeline(ctx)
			defer cleanup()

			sessionID := uuid.NewString()
			color.Cyan("Ask about the club's records. Type 'exit' to quit.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print(color.GreenString("> "))
				if !scanner.Scan() {
					break
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if question == "exit" || question == "quit" {
					break
				}

				env, err := askWithSpinner(ctx, pipeline, question, sessionID)
				if err != nil {
					color.Red("error: %v", err)
					continue
				}
				printEnvelope(env)
			}
			return scanner.Err()
		},
	}
}

// newArchiveLoadCmd creates the subcommand that loads league standings from
// CSV into the season archive. Expected columns:
// season,division,position,team,played,won,drawn,lost,goals_for,goals_against,points
func newArchiveLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive-load [file.csv]",
		Short: "Load archived league tables from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Archive.Path == "" {
				return fmt.Errorf("no archive path configured")
			}
			store, err := archive.Open(cfg.Archive.Path)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer store.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			reader := csv.NewReader(f)
			records, err := reader.ReadAll()
			if err != nil {
				return fmt.Errorf("read csv: %w", err)
			}

			loaded := 0
			for i, rec := range records {
				if i == 0 && strings.EqualFold(rec[0], "season") {
					continue // header row
				}
				if len(rec) < 11 {
					return fmt.Errorf("row %d: expected 11 columns, got %d", i+1, len(rec))
				}
				st := archive.Standing{Season: rec[0], Division: rec[1], Team: rec[3]}
				ints := []*int{&st.Position, &st.Played, &st.Won, &st.Drawn, &st.Lost, &st.GoalsFor, &st.GoalsAgainst, &st.Points}
				cols := []int{2, 4, 5, 6, 7, 8, 9, 10}
				for j, dst := range ints {
					v, err := strconv.Atoi(strings.TrimSpace(rec[cols[j]]))
					if err != nil {
						return fmt.Errorf("row %d column %d: %w", i+1, cols[j]+1, err)
					}
					*dst = v
				}
				if err := store.Insert(cmd.Context(), st); err != nil {
					return fmt.Errorf("insert row %d: %w", i+1, err)
				}
				loaded++
			}

			color.Green("Loaded %d standings into %s", loaded, cfg.Archive.Path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("clubquery 1.0.0")
		},
	}
}

func askWithSpinner(ctx context.Context, pipeline *engine.Pipeline, question, sessionID string) (*synthesizer.Envelope, error) {
	var sp *spinner.Spinner
	if !outputJSON {
		sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		sp.Suffix = " thinking..."
		sp.Start()
	}

	env, err := pipeline.Ask(ctx, engine.AskRequest{Question: question, SessionID: sessionID})

	if sp != nil {
		sp.Stop()
	}
	return env, err
}

func printEnvelope(env *synthesizer.Envelope) {
	if outputJSON {
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "encode response: %v\n", err)
			return
		}
		fmt.Println(string(data))
		return
	}

	switch {
	case env.RequiresClarification:
		color.Yellow(env.Answer)
	case env.ErrorKind != "":
		color.Red(env.Answer)
	default:
		color.White(env.Answer)
	}

	if env.Visualization != nil {
		switch env.Visualization.Kind {
		case synthesizer.VizTable:
			if rows, ok := env.Visualization.Data.([]synthesizer.TableRow); ok {
				for _, row := range rows {
					fmt.Printf("  %-30s %s\n", row.Label, row.Value)
				}
			}
		case synthesizer.VizTimeSeries:
			if points, ok := env.Visualization.Data.([]synthesizer.SeriesPoint); ok {
				for _, p := range points {
					fmt.Printf("  %-10s %.0f\n", p.Bucket, p.Value)
				}
			}
		}
	}

	if len(env.Suggestions) > 0 {
		color.Cyan("Try:")
		for _, s := range env.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
	}
}
