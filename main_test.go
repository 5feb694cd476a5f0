package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/foodchain/config"
	"github.com/pthm-cable/foodchain/game"
)

func newMainSimulation(t *testing.T) *game.Simulation {
	t.Helper()
	sim, err := game.NewSimulation(game.Options{Config: config.Default(), Seed: 3})
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	t.Cleanup(func() { sim.Close() })
	return sim
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

// ---------- inspect ----------

func TestInspect_WritesLivingOrganisms(t *testing.T) {
	sim := newMainSimulation(t)
	var b strings.Builder

	// Organism 1 is the first grass patch seeded; the rest do not parse or do not exist.
	n := inspect(&b, sim, "1, sheep, 999999999")
	if n != 1 {
		t.Errorf("inspect wrote %d reports, want 1", n)
	}
	if !strings.Contains(b.String(), "#1 @ tick 0") {
		t.Errorf("report header missing:\n%s", b.String())
	}
}

func TestInspect_WriteErrorNotCounted(t *testing.T) {
	sim := newMainSimulation(t)
	if n := inspect(failingWriter{}, sim, "1"); n != 0 {
		t.Errorf("inspect counted %d reports on a failing writer, want 0", n)
	}
}

func TestInspect_EmptyList(t *testing.T) {
	sim := newMainSimulation(t)
	var b strings.Builder
	if n := inspect(&b, sim, ""); n != 0 || b.Len() != 0 {
		t.Errorf("empty id list wrote %d reports: %q", n, b.String())
	}
}

// ---------- run ----------

func TestRun_StopsAtMaxTicks(t *testing.T) {
	sim := newMainSimulation(t)
	if code := run(context.Background(), sim, 15); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if sim.CurrentTick() != 15 {
		t.Errorf("CurrentTick = %d, want 15", sim.CurrentTick())
	}
}

func TestRun_CancelledContextStopsBeforeStepping(t *testing.T) {
	sim := newMainSimulation(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if code := run(ctx, sim, 0); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if sim.CurrentTick() != 0 {
		t.Errorf("cancelled run advanced to tick %d", sim.CurrentTick())
	}
}
