// Command optimize tunes food-chain parameters with CMA-ES, scoring each
// candidate by how long sheep and wolves coexist over several seeds.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/foodchain/config"
)

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 5000, "Ticks per run before a candidate counts as coexisting")
	seeds := flag.Int("seeds", 3, "Runs per candidate, one per seed")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of candidates to evaluate")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for progress.csv, best_config.yaml and hall_of_fame.json")
	flag.Parse()

	// Only warnings from the evaluation runs reach the console.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *maxTicks, evalSeeds, baseCfg)

	progressFile, err := os.Create(filepath.Join(*outputDir, "progress.csv"))
	if err != nil {
		log.Fatalf("failed to create progress log: %v", err)
	}
	defer progressFile.Close()
	progress, err := newProgressLog(progressFile, params.Specs)
	if err != nil {
		log.Fatalf("failed to write progress header: %v", err)
	}

	start := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// The optimizer works in [0,1]; runs see clamped raw values.
			clamped := params.Clamp(params.Denormalize(x))
			ev := evaluator.Evaluate(clamped)
			if err := progress.Record(ev, clamped); err != nil {
				slog.Warn("failed to record evaluation", "error", err)
			}

			elapsed := time.Since(start)
			remaining := time.Duration(*maxEvals-progress.evals) * (elapsed / time.Duration(progress.evals))
			fmt.Printf("eval %d/%d: %s | elapsed %s, eta %s\n",
				progress.evals, *maxEvals, progress.Summary(ev),
				elapsed.Round(time.Second), remaining.Round(time.Second))
			return ev.Fitness
		},
	}

	dim := params.Dim()
	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}

	fmt.Printf("tuning %d parameters from %s: population=%d, max_evals=%d, seeds=%d, ticks=%d\n",
		dim, configName(*configPath), popSize, *maxEvals, *seeds, *maxTicks)

	initX := params.Normalize(params.ExtractFromConfig(baseCfg))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	best := progress.bestParams
	if best == nil {
		best = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nfinished %d evaluations in %s\n", progress.evals, time.Since(start).Round(time.Second))
	fmt.Printf("best: %s\n", progress.Summary(progress.bestEval))
	for i, spec := range params.Specs {
		fmt.Printf("  %-24s %-40s %.4f\n", spec.Name, spec.Path, best[i])
	}

	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, best)
	configOut := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOut); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nbest config saved to %s\n", configOut)
	}

	if hof := evaluator.BestHallOfFame(); hof != nil {
		hofPath := filepath.Join(*outputDir, "hall_of_fame.json")
		data, err := hof.MarshalJSON()
		if err != nil {
			log.Printf("failed to marshal hall of fame: %v", err)
		} else if err := os.WriteFile(hofPath, data, 0644); err != nil {
			log.Printf("failed to write hall of fame: %v", err)
		} else {
			fmt.Printf("hall of fame saved to %s\n", hofPath)
		}
	}
}

func configName(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
