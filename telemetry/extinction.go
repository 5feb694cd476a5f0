package telemetry

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/pthm-cable/foodchain/components"
)

// CauseUnknown is reported when no deaths of the species were recorded.
const CauseUnknown components.DeathCause = "unknown"

// Contributing factor thresholds.
const (
	secondaryCauseShare = 0.10
	lowPreyThreshold    = 1.0
	highPredatorCount   = 2.0
	scarceResource      = 0.2
	fullConfidenceAt    = 20 // records needed before sample size stops discounting
	minConfidence       = 0.1
	maxConfidence       = 0.95
)

// CauseCount is the number of deaths attributed to one cause.
type CauseCount struct {
	Cause components.DeathCause
	Count int
}

// ExtinctionAnalysis explains why a species disappeared.
type ExtinctionAnalysis struct {
	Kind                components.Kind
	Tick                int
	RecordsConsidered   int
	CauseRanking        []CauseCount
	PrimaryCause        components.DeathCause
	ContributingFactors []string
	Confidence          float64
	Recommendation      string
}

// LogAnalysis logs the analysis using slog.
func (a ExtinctionAnalysis) LogAnalysis() {
	slog.Warn("extinction",
		"species", a.Kind.String(),
		"tick", a.Tick,
		"primary_cause", string(a.PrimaryCause),
		"factors", a.ContributingFactors,
		"confidence", a.Confidence,
		"recommendation", a.Recommendation,
	)
}

// AnalyzeExtinction ranks the recent deaths of kind within lookback ticks of
// tick and derives a primary cause, contributing factors and a recommendation.
func AnalyzeExtinction(kind components.Kind, tick int, recent []components.DeathRecord, lookback int) ExtinctionAnalysis {
	a := ExtinctionAnalysis{Kind: kind, Tick: tick, PrimaryCause: CauseUnknown}

	var deaths []components.DeathRecord
	miscarriages := 0
	for _, r := range recent {
		if r.Kind != kind || tick-r.Tick > lookback {
			continue
		}
		if r.Miscarriage {
			miscarriages++
			continue
		}
		deaths = append(deaths, r)
	}
	a.RecordsConsidered = len(deaths)

	counts := make(map[components.DeathCause]int)
	for _, r := range deaths {
		counts[r.Cause]++
	}
	for _, c := range components.Causes {
		if n := counts[c]; n > 0 {
			a.CauseRanking = append(a.CauseRanking, CauseCount{Cause: c, Count: n})
		}
	}
	// Stable sort keeps the policy order among ties.
	slices.SortStableFunc(a.CauseRanking, func(x, y CauseCount) int {
		return y.Count - x.Count
	})

	if len(deaths) > 0 {
		primary := a.CauseRanking[0]
		a.PrimaryCause = primary.Cause
		share := float64(primary.Count) / float64(len(deaths))
		sample := math.Min(1, float64(len(deaths))/fullConfidenceAt)
		a.Confidence = math.Max(minConfidence, math.Min(maxConfidence, share*sample))

		for _, cc := range a.CauseRanking[1:] {
			s := float64(cc.Count) / float64(len(deaths))
			if s >= secondaryCauseShare {
				a.ContributingFactors = append(a.ContributingFactors,
					fmt.Sprintf("secondary cause %s (%.0f%%)", cc.Cause, s*100))
			}
		}
		a.ContributingFactors = append(a.ContributingFactors, contextFactors(kind, deaths)...)
	} else {
		a.Confidence = minConfidence
	}
	if miscarriages > 0 {
		a.ContributingFactors = append(a.ContributingFactors,
			fmt.Sprintf("reproductive failure (%d miscarriages)", miscarriages))
	}

	a.Recommendation = recommend(kind, a.PrimaryCause)
	return a
}

func contextFactors(kind components.Kind, deaths []components.DeathRecord) []string {
	var prey, preds, density float64
	for _, r := range deaths {
		prey += float64(r.Context.NearbyPrey)
		preds += float64(r.Context.NearbyPredators)
		density += r.Context.ResourceDensity
	}
	n := float64(len(deaths))
	prey, preds, density = prey/n, preds/n, density/n

	var out []string
	if _, ok := kind.Prey(); ok && prey < lowPreyThreshold {
		out = append(out, fmt.Sprintf("low prey availability (%.1f nearby)", prey))
	}
	if _, ok := kind.Predator(); ok && preds >= highPredatorCount {
		out = append(out, fmt.Sprintf("high predator pressure (%.1f nearby)", preds))
	}
	if kind == components.KindSheep && density < scarceResource {
		out = append(out, fmt.Sprintf("resource scarcity (grass density %.2f)", density))
	}
	return out
}

func recommend(kind components.Kind, cause components.DeathCause) string {
	switch cause {
	case components.CauseAge:
		if kind == components.KindGrass {
			return "raise grass spread_chance or seed_viability"
		}
		return fmt.Sprintf("raise %s reproduction base_rate or lower min_age so births replace old age deaths", kind)
	case components.CauseStarvation:
		if kind == components.KindWolf {
			return "lower wolf energy_per_step or raise energy_per_sheep"
		}
		return fmt.Sprintf("lower %s energy_per_step or raise food energy", kind)
	case components.CauseHunger:
		return fmt.Sprintf("raise %s hunger_threshold or search radius", kind)
	case components.CauseGrazing:
		return "raise grass base_growth_rate or lower sheep grazing_amount"
	case components.CauseHunting:
		return "lower wolf hunting_skill or raise sheep flee_chance"
	}
	return fmt.Sprintf("increase initial %s population", kind)
}
