package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/foodchain/components"
	"github.com/pthm-cable/foodchain/config"
	"github.com/pthm-cable/foodchain/game"
	"github.com/pthm-cable/foodchain/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
}

// Evaluation summarizes one parameter vector over every seed.
type Evaluation struct {
	Fitness   float64
	Quality   float64
	Survival  [components.NumKinds]float64 // mean ticks each species lasted
	Cycles    [components.NumKinds]float64 // mean completed cycles per run
	Coexisted int                          // runs where sheep and wolves both lasted to maxTicks
	Runs      int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// Minimum viable population: if an animal species stays below this for
// extinctionGraceTicks consecutive ticks, it counts as functionally extinct.
const (
	minViablePop         = 3
	extinctionGraceTicks = 100
	warmupTicks          = 50
)

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalTicks int                     // ticks before functional extinction (or maxTicks if survived)
	survival      [components.NumKinds]int
	windowStats   []telemetry.WindowStats // collected via StatsCallback each window
	cycles        [components.NumKinds]int
	hallOfFame    *telemetry.HallOfFame
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	quality float64
	run     *runResult
}

// Evaluate runs every seed with the parameter vector applied. Fitness is
// negative survival ticks, so longer coexistence is lower (better).
func (fe *FitnessEvaluator) Evaluate(x []float64) Evaluation {
	// Run all seeds in parallel. Each run owns its config and simulation.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runSimulation(x, s)
			if err != nil {
				slog.Warn("evaluation run failed", "seed", s, "error", err)
				results[idx] = seedResult{fitness: 0}
				return
			}
			quality := computeQuality(result)
			results[idx] = seedResult{
				fitness: computeFitness(result.survivalTicks, quality),
				quality: quality,
				run:     result,
			}
		}(i, seed)
	}
	wg.Wait()

	ev := Evaluation{Runs: len(results)}
	bestSeedFitness := math.Inf(1)
	var bestSeedHallOfFame *telemetry.HallOfFame

	for _, r := range results {
		ev.Fitness += r.fitness
		ev.Quality += r.quality
		if r.run == nil {
			continue
		}
		for k := range components.NumKinds {
			ev.Survival[k] += float64(r.run.survival[k])
			ev.Cycles[k] += float64(r.run.cycles[k])
		}
		if r.run.survival[components.KindSheep] >= fe.maxTicks && r.run.survival[components.KindWolf] >= fe.maxTicks {
			ev.Coexisted++
		}
		if r.run.hallOfFame != nil && r.fitness < bestSeedFitness {
			bestSeedFitness = r.fitness
			bestSeedHallOfFame = r.run.hallOfFame
		}
	}

	n := float64(len(results))
	ev.Fitness /= n
	ev.Quality /= n
	for k := range components.NumKinds {
		ev.Survival[k] /= n
		ev.Cycles[k] /= n
	}

	fe.mu.Lock()
	if ev.Fitness < fe.bestFitness {
		fe.bestFitness = ev.Fitness
		fe.bestHallOfFame = bestSeedHallOfFame
	}
	fe.mu.Unlock()

	return ev
}

// runSimulation executes a single headless simulation run.
// Runs until functional extinction or maxTicks, whichever comes first.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	// Create a fresh config copy and apply parameters
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{}

	sim, err := game.NewSimulation(game.Options{
		Config: cfg,
		Seed:   seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	// Ticks each animal species has spent below the minimum viable population
	var below [components.NumKinds]int

	finish := func(tick int) *runResult {
		result.survivalTicks = tick
		for k := range components.NumKinds {
			if result.survival[k] == 0 {
				result.survival[k] = tick
			}
		}
		result.cycles = sim.OscillationAnalysis().CycleCounts
		result.hallOfFame = sim.HallOfFame()
		return result
	}

	for sim.CurrentTick() < fe.maxTicks {
		if err := sim.Step(); err != nil {
			return nil, err
		}

		tick := sim.CurrentTick()
		if tick < warmupTicks {
			continue
		}

		counts := sim.Statistics().Counts
		ended := false
		for _, k := range []components.Kind{components.KindSheep, components.KindWolf} {
			// Hard extinction, or below minimum viable population too long
			if counts[k] < minViablePop {
				below[k]++
			} else {
				below[k] = 0
			}
			if counts[k] == 0 || below[k] >= extinctionGraceTicks {
				result.survival[k] = tick
				ended = true
			}
		}
		if counts[components.KindGrass] == 0 {
			result.survival[components.KindGrass] = tick
			ended = true
		}
		if ended {
			return finish(tick), nil
		}
	}

	// Survived the full run
	return finish(fe.maxTicks), nil
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalTicks × (1.0 + 0.2 × quality))
// Survival dominates; quality adds up to 20% to separate configs with
// similar survival.
func computeFitness(survivalTicks int, quality float64) float64 {
	return -(float64(survivalTicks) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio       = 0.30
	qualityWeightStability   = 0.30
	qualityWeightOscillation = 0.40

	qualityWarmupWindows = 2 // skip first N windows (warmup)
	qualityMinPop        = 3 // exclude windows where either species < this
	targetSheepPerWolf   = 6.0
	targetCycles         = 4.0 // completed cycles per animal species for full score
)

// computeQuality computes ecosystem quality ∈ [0, 1] from the window stats
// and the oscillation cycles of a run.
func computeQuality(r *runResult) float64 {
	if len(r.windowStats) <= qualityWarmupWindows {
		return 0
	}
	valid := r.windowStats[qualityWarmupWindows:]

	var ratioSum float64
	sheep := make([]float64, 0, len(valid))
	wolves := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Sheep < qualityMinPop || w.Wolves < qualityMinPop {
			continue
		}
		sheep = append(sheep, float64(w.Sheep))
		wolves = append(wolves, float64(w.Wolves))

		// Population ratio score, log-normal around the target ratio
		logErr := math.Log(float64(w.Sheep) / float64(w.Wolves) / targetSheepPerWolf)
		ratioSum += math.Exp(-logErr * logErr)
	}

	// No valid windows → zero quality
	if len(sheep) == 0 {
		return 0
	}
	ratioScore := ratioSum / float64(len(sheep))

	// Population stability (CV across all valid windows)
	stabilityScore := 0.0
	if len(sheep) >= 2 {
		cvSheep, cvWolves := cv(sheep), cv(wolves)
		stabilityScore = math.Exp(-(cvSheep*cvSheep + cvWolves*cvWolves))
	}

	// Sustained oscillation: reward completed cycles of both animals
	oscScore := min(
		float64(r.cycles[components.KindSheep])/targetCycles,
		float64(r.cycles[components.KindWolf])/targetCycles,
		1,
	)

	quality := qualityWeightRatio*ratioScore +
		qualityWeightStability*stabilityScore +
		qualityWeightOscillation*oscScore

	return min(1, max(0, quality))
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
