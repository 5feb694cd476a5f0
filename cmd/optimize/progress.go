package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pthm-cable/foodchain/components"
)

// progressColumns precede one column per tuned parameter in progress.csv.
var progressColumns = []string{
	"eval", "fitness", "quality",
	"sheep_survival", "wolf_survival",
	"sheep_cycles", "wolf_cycles",
	"coexisted", "runs",
}

// progressLog records every evaluation as a CSV row and remembers the best
// parameter vector seen so far.
type progressLog struct {
	w     *csv.Writer
	specs []ParamSpec

	evals       int
	bestFitness float64
	bestParams  []float64
	bestEval    Evaluation
}

func newProgressLog(w io.Writer, specs []ParamSpec) (*progressLog, error) {
	p := &progressLog{w: csv.NewWriter(w), specs: specs}
	header := append([]string(nil), progressColumns...)
	for _, spec := range specs {
		header = append(header, spec.Name)
	}
	if err := p.w.Write(header); err != nil {
		return nil, err
	}
	p.w.Flush()
	return p, p.w.Error()
}

// Record appends one evaluation with the clamped values actually simulated.
func (p *progressLog) Record(ev Evaluation, params []float64) error {
	p.evals++
	if p.bestParams == nil || ev.Fitness < p.bestFitness {
		p.bestFitness = ev.Fitness
		p.bestParams = append(p.bestParams[:0], params...)
		p.bestEval = ev
	}

	row := []string{
		strconv.Itoa(p.evals),
		ftoa(ev.Fitness),
		ftoa(ev.Quality),
		ftoa(ev.Survival[components.KindSheep]),
		ftoa(ev.Survival[components.KindWolf]),
		ftoa(ev.Cycles[components.KindSheep]),
		ftoa(ev.Cycles[components.KindWolf]),
		strconv.Itoa(ev.Coexisted),
		strconv.Itoa(ev.Runs),
	}
	for _, v := range params {
		row = append(row, ftoa(v))
	}
	if err := p.w.Write(row); err != nil {
		return err
	}
	p.w.Flush()
	return p.w.Error()
}

// Summary is the one-line console form of an evaluation.
func (p *progressLog) Summary(ev Evaluation) string {
	return fmt.Sprintf("survived sheep=%.0f wolves=%.0f ticks, cycles sheep=%.1f wolves=%.1f, coexisted %d/%d, quality=%.2f (best=%.0f)",
		ev.Survival[components.KindSheep], ev.Survival[components.KindWolf],
		ev.Cycles[components.KindSheep], ev.Cycles[components.KindWolf],
		ev.Coexisted, ev.Runs, ev.Quality, p.bestFitness)
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
