// Package main provides the pitch-edge CLI for one-shot pipeline runs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/dna"
	"github.com/yourusername/pitch-edge/internal/engine"
	"github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/normalize"
	"github.com/yourusername/pitch-edge/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Exit codes: 0 bets placed or clean no-bet, 1 degraded (every match
// skipped), 2 critical (bad input data or store unreachable), 3 internal.
const (
	exitOK       = 0
	exitDegraded = 1
	exitCritical = 2
	exitInternal = 3
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	gateway    *repository.Gateway
	pipeline   *engine.Orchestrator
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(analyzeCmd, decisionsCmd, statusCmd)

	analyzeCmd.Flags().String("match-id", "", "Fixture identifier")
	analyzeCmd.Flags().String("home", "", "Home team name")
	analyzeCmd.Flags().String("away", "", "Away team name")
	analyzeCmd.Flags().String("league", "", "League identifier")
	analyzeCmd.Flags().String("season", "", "Season identifier")
	analyzeCmd.Flags().String("kickoff", "", "Kickoff time (RFC3339), defaults to now")
	analyzeCmd.Flags().String("fixtures", "", "JSON fixtures file to analyze instead of flags")
	analyzeCmd.Flags().Bool("json", false, "Emit full decision bundles as JSON")

	decisionsCmd.Flags().String("match-id", "", "List decisions for one fixture")
	decisionsCmd.Flags().Int("limit", 20, "Number of recent decisions to list")
}

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Quantitative football betting decision engine",
	Long:  `Runs the match analysis pipeline: DNA loading, multi-model scoring, ensemble fusion, consensus, robustness and value validation, and Kelly sizing.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return &exitError{code: exitCritical, err: fmt.Errorf("failed to load configuration: %w", err)}
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return &exitError{code: exitCritical, err: fmt.Errorf("failed to setup dependencies: %w", err)}
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			log.Printf("Error: %v", ee.err)
			os.Exit(ee.code)
		}
		log.Printf("Error: %v", err)
		os.Exit(exitInternal)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return err
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	gateway, err = repository.NewPostgresGateway(db, normalize.NewMapper(nil), appLog)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	cache := dna.NewCache(cfg.Pipeline.DNACacheTTL())
	loader := dna.NewLoader(gateway.TeamProfiles, gateway.Friction, cache, appLog)
	pipeline = engine.NewOrchestrator(cfg, gateway, loader, appLog, nil)
	return nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the decision pipeline for one or more fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures, err := collectFixtures(cmd)
		if err != nil {
			return &exitError{code: exitCritical, err: err}
		}

		asJSON, _ := cmd.Flags().GetBool("json")

		var bets, skips int
		for _, req := range fixtures {
			bundle, err := pipeline.AnalyzeMatch(cmd.Context(), req)
			if err != nil {
				return &exitError{code: exitInternal, err: fmt.Errorf("analyzing %s: %w", req.MatchID, err)}
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(bundle); err != nil {
					return &exitError{code: exitInternal, err: err}
				}
			} else {
				printBundle(bundle)
			}

			if bundle.Skipped {
				skips++
				if bundle.SkipReason == models.SkipDataInvalid {
					return &exitError{code: exitCritical, err: fmt.Errorf("fixture %s has invalid input data", req.MatchID)}
				}
				continue
			}
			bets += len(bundle.Bets())
		}

		if skips == len(fixtures) && len(fixtures) > 0 && bets == 0 {
			return &exitError{code: exitDegraded, err: fmt.Errorf("all %d fixtures were skipped", skips)}
		}
		return nil
	},
}

func collectFixtures(cmd *cobra.Command) ([]models.MatchRequest, error) {
	if path, _ := cmd.Flags().GetString("fixtures"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading fixtures file: %w", err)
		}
		var fixtures []models.MatchRequest
		if err := json.Unmarshal(data, &fixtures); err != nil {
			return nil, fmt.Errorf("parsing fixtures file: %w", err)
		}
		if len(fixtures) == 0 {
			return nil, fmt.Errorf("fixtures file %s is empty", path)
		}
		return fixtures, nil
	}

	matchID, _ := cmd.Flags().GetString("match-id")
	home, _ := cmd.Flags().GetString("home")
	away, _ := cmd.Flags().GetString("away")
	league, _ := cmd.Flags().GetString("league")
	season, _ := cmd.Flags().GetString("season")
	if matchID == "" || home == "" || away == "" || league == "" || season == "" {
		return nil, fmt.Errorf("either --fixtures or all of --match-id --home --away --league --season are required")
	}

	kickoff := time.Now().UTC()
	if raw, _ := cmd.Flags().GetString("kickoff"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing --kickoff: %w", err)
		}
		kickoff = parsed
	}

	return []models.MatchRequest{{
		MatchID:  matchID,
		HomeTeam: home,
		AwayTeam: away,
		League:   league,
		Season:   season,
		Kickoff:  kickoff,
	}}, nil
}

func printBundle(b *engine.MatchDecisionBundle) {
	fmt.Printf("\n%s: %s vs %s (run %s, %s)\n",
		b.Request.MatchID, b.Request.HomeTeam, b.Request.AwayTeam, b.PipelineRunID, b.Elapsed.Round(time.Millisecond))

	if b.Skipped {
		fmt.Printf("  SKIPPED: %s\n", b.SkipReason)
		return
	}

	for _, d := range b.Decisions {
		if d.Tier.IsBet() {
			fmt.Printf("  %-14s %-12s stake %.2f%%  odds %.2f  fair %.2f  edge %+.1fpts\n",
				d.Market, d.Tier, d.StakePct, d.MarketOdds, d.FairOdds, d.EdgePct)
		} else {
			fmt.Printf("  %-14s SKIP (%s)\n", d.Market, d.SkipReason)
		}
	}
	for _, w := range b.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "List stored decision records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		matchID, _ := cmd.Flags().GetString("match-id")
		limit, _ := cmd.Flags().GetInt("limit")

		var (
			decisions []*models.Decision
			err       error
		)
		if matchID != "" {
			decisions, err = gateway.Decisions.ListByMatch(ctx, matchID)
		} else {
			decisions, err = gateway.Decisions.ListRecent(ctx, limit)
		}
		if err != nil {
			return &exitError{code: exitCritical, err: fmt.Errorf("listing decisions: %w", err)}
		}

		if len(decisions) == 0 {
			fmt.Println("No decisions found")
			return nil
		}

		fmt.Printf("%-20s %-14s %-12s %8s %8s  %s\n", "MATCH", "MARKET", "TIER", "STAKE%", "ODDS", "DECIDED")
		for _, d := range decisions {
			fmt.Printf("%-20s %-14s %-12s %8.2f %8.2f  %s\n",
				d.MatchID, d.Market, d.Tier, d.StakePct, d.MarketOdds, d.DecidedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check engine configuration and store connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		fmt.Printf("\nPitch Edge %s (%s)\n\n", Version, GitCommit)

		fmt.Print("Database: ")
		if err := db.HealthCheck(ctx); err != nil {
			fmt.Printf("UNAVAILABLE (%v)\n", err)
			return &exitError{code: exitCritical, err: fmt.Errorf("database health check failed: %w", err)}
		}
		fmt.Println("OK")

		fmt.Print("Portfolio: ")
		state, err := gateway.Portfolio.GetPortfolioState(ctx)
		if err != nil {
			fmt.Printf("UNAVAILABLE (%v)\n", err)
			return &exitError{code: exitCritical, err: fmt.Errorf("portfolio state unavailable: %w", err)}
		}
		fmt.Printf("bankroll %s, exposure %.1f%% of %.1f%% cap\n",
			state.Bankroll.StringFixed(2), state.TotalExposurePct(), cfg.Risk.MaxExposurePct)

		fmt.Println("\nConfiguration:")
		fmt.Printf("  Environment: %s\n", cfg.App.Environment)
		fmt.Printf("  Pipeline version: %s\n", cfg.Pipeline.Version)
		fmt.Printf("  Consensus: %d votes, %.2f mass\n", cfg.Consensus.MinPositiveVotes, cfg.Consensus.MinWeightedMass)
		fmt.Printf("  Monte Carlo: %d samples, %.2f noise\n", cfg.MonteCarlo.Samples, cfg.MonteCarlo.NoiseAmplitude)
		fmt.Printf("  Kelly: %.2f fraction, stake [%.1f%%, %.1f%%]\n", cfg.Kelly.Fraction, cfg.Kelly.MinStakePct, cfg.Kelly.MaxStakePct)
		fmt.Printf("  Sharp books: %v\n", cfg.Odds.SharpBookmakers)
		return nil
	},
}
