package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/foodchain/config"
	"github.com/pthm-cable/foodchain/game"
	"github.com/pthm-cable/foodchain/inspector"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output window stats, cycles and alerts via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, chart and run manifest")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = until interrupted)")
	inspectIDs := flag.String("inspect", "", "Comma-separated organism ids to print when the run ends")

	flag.Parse()

	runID := uuid.NewString()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("run_id", runID)
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Use config stats window if not overridden by CLI
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	sim, err := game.NewSimulation(game.Options{
		Config:    cfg,
		Seed:      rngSeed,
		RunID:     runID,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"stats_window", cfg.Telemetry.StatsWindow,
		"max_ticks", *maxTicks,
		"output_dir", *outputDir,
	)

	code := run(ctx, sim, *maxTicks)
	stop()
	inspect(os.Stderr, sim, *inspectIDs)
	if err := sim.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
		code = 1
	}
	os.Exit(code)
}

// run steps sim until maxTicks is reached, ctx is cancelled or a tick fails.
func run(ctx context.Context, sim *game.Simulation, maxTicks int) int {
	sim.Start()
	for sim.Running() {
		select {
		case <-ctx.Done():
			slog.Info("interrupted", "tick", sim.CurrentTick())
			return 0
		default:
		}

		if err := sim.Update(); err != nil {
			slog.Error("simulation halted", "tick", sim.CurrentTick(), "error", err)
			return 1
		}

		if maxTicks > 0 && sim.CurrentTick() >= maxTicks {
			slog.Info("max ticks reached", "tick", sim.CurrentTick())
			break
		}
	}

	health := sim.PopulationHealth()
	slog.Info("final population health", "health", health)
	if ea, ok := sim.LatestExtinctionAnalysis(); ok {
		slog.Info("latest extinction", "species", ea.Kind.String(), "tick", ea.Tick, "cause", string(ea.PrimaryCause))
	}
	return 0
}

// inspect writes the component state of each listed organism still alive
// and returns how many reports were written in full.
func inspect(w io.Writer, sim *game.Simulation, ids string) int {
	if ids == "" {
		return 0
	}
	written := 0
	for _, field := range strings.Split(ids, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil {
			slog.Warn("invalid organism id", "id", field, "error", err)
			continue
		}
		report, err := inspector.Inspect(sim.World(), id)
		if err != nil {
			slog.Warn("cannot inspect organism", "id", id, "error", err)
			continue
		}
		if _, err := report.WriteTo(w); err != nil {
			slog.Warn("cannot write organism report", "id", id, "error", err)
			continue
		}
		written++
	}
	return written
}
