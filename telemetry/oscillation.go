package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/foodchain/components"
)

// CycleType classifies a confirmed population turn.
type CycleType string

const (
	CycleGrowthToDecline        CycleType = "growth_to_decline"
	CycleDeclineToGrowth        CycleType = "decline_to_growth"
	CycleNearExtinctionRecovery CycleType = "near_extinction_recovery"
)

// CycleTrigger is the heuristic explanation attached to a cycle.
type CycleTrigger string

const (
	TriggerPredatorPressure  CycleTrigger = "predator_pressure"
	TriggerPredatorDecline   CycleTrigger = "predator_decline"
	TriggerResourceDepletion CycleTrigger = "resource_depletion"
	TriggerResourceRecovery  CycleTrigger = "resource_recovery"
	TriggerPreyScarcity      CycleTrigger = "prey_scarcity"
	TriggerPreyAbundance     CycleTrigger = "prey_abundance"
	TriggerIntrinsic         CycleTrigger = "intrinsic"
)

// triggerChange is the relative change in another species that counts as a cause.
const triggerChange = 0.1

// OscillationCycle is one confirmed reversal of a population trend.
type OscillationCycle struct {
	Kind        components.Kind
	Type        CycleType
	StartTick   int // start of the trend that ended
	TurnTick    int // tick of the extremum
	ConfirmTick int // tick the reversal was confirmed
	Peak        float64
	Trough      float64
	Amplitude   float64
	Duration    int // TurnTick - StartTick
	Trigger     CycleTrigger
}

// LogCycle logs the cycle using slog.
func (c OscillationCycle) LogCycle() {
	slog.Info("oscillation",
		"species", c.Kind.String(),
		"type", string(c.Type),
		"turn_tick", c.TurnTick,
		"confirm_tick", c.ConfirmTick,
		"peak", c.Peak,
		"trough", c.Trough,
		"trigger", string(c.Trigger),
	)
}

type trendPoint struct {
	tick   int
	value  float64
	counts [components.NumKinds]int
}

// oscillationTracker follows the confirmed trend of one species.
type oscillationTracker struct {
	kind         components.Kind
	minDuration  int
	minAmplitude float64
	floor        float64

	started bool
	trend   int // +1 rising, -1 falling, 0 unknown
	prev    float64
	start   trendPoint
	extreme trendPoint // running max while rising, min while falling
	swing   trendPoint // opposite extremum since the last extreme
}

func newOscillationTracker(kind components.Kind, minDuration int, minAmplitude float64, floor int) *oscillationTracker {
	return &oscillationTracker{
		kind:         kind,
		minDuration:  minDuration,
		minAmplitude: minAmplitude,
		floor:        float64(floor),
	}
}

// observe feeds one sample and returns a cycle when a reversal is confirmed.
func (o *oscillationTracker) observe(tick int, counts [components.NumKinds]int) (OscillationCycle, bool) {
	v := float64(counts[o.kind])
	pt := trendPoint{tick: tick, value: v, counts: counts}

	if !o.started {
		o.started = true
		o.prev = v
		o.start, o.extreme, o.swing = pt, pt, pt
		return OscillationCycle{}, false
	}
	defer func() { o.prev = v }()

	if o.trend == 0 {
		switch {
		case v > o.prev:
			o.trend = 1
		case v < o.prev:
			o.trend = -1
		default:
			return OscillationCycle{}, false
		}
		o.extreme, o.swing = pt, pt
		return OscillationCycle{}, false
	}

	if o.beyondExtreme(v) {
		o.extreme, o.swing = pt, pt
		return OscillationCycle{}, false
	}
	if (o.trend > 0 && v < o.swing.value) || (o.trend < 0 && v > o.swing.value) {
		o.swing = pt
	}

	amplitude := o.extreme.value - o.swing.value
	if amplitude < 0 {
		amplitude = -amplitude
	}
	if tick-o.extreme.tick <= o.minDuration || amplitude <= o.minAmplitude {
		return OscillationCycle{}, false
	}

	c := o.cycle(tick, amplitude)
	o.trend = -o.trend
	o.start = o.extreme
	o.extreme = o.swing
	return c, true
}

func (o *oscillationTracker) beyondExtreme(v float64) bool {
	if o.trend > 0 {
		return v >= o.extreme.value
	}
	return v <= o.extreme.value
}

func (o *oscillationTracker) cycle(tick int, amplitude float64) OscillationCycle {
	c := OscillationCycle{
		Kind:        o.kind,
		StartTick:   o.start.tick,
		TurnTick:    o.extreme.tick,
		ConfirmTick: tick,
		Amplitude:   amplitude,
		Duration:    o.extreme.tick - o.start.tick,
	}
	if o.trend > 0 {
		c.Type = CycleGrowthToDecline
		c.Peak, c.Trough = o.extreme.value, o.swing.value
	} else {
		c.Type = CycleDeclineToGrowth
		c.Peak, c.Trough = o.swing.value, o.extreme.value
		if c.Trough < o.floor {
			c.Type = CycleNearExtinctionRecovery
		}
	}
	c.Trigger = o.trigger()
	return c
}

// trigger compares neighbouring trophic levels between trend start and turn.
func (o *oscillationTracker) trigger() CycleTrigger {
	pred, hasPred := o.kind.Predator()
	prey, hasPrey := o.kind.Prey()
	preyIsAnimal := hasPrey && prey.IsAnimal()

	if o.trend > 0 {
		if hasPred && grew(o.start.counts[pred], o.extreme.counts[pred]) {
			return TriggerPredatorPressure
		}
		if hasPrey && grew(o.extreme.counts[prey], o.start.counts[prey]) {
			if preyIsAnimal {
				return TriggerPreyScarcity
			}
			return TriggerResourceDepletion
		}
		return TriggerIntrinsic
	}

	if hasPred && grew(o.extreme.counts[pred], o.start.counts[pred]) {
		return TriggerPredatorDecline
	}
	if hasPrey && grew(o.start.counts[prey], o.extreme.counts[prey]) {
		if preyIsAnimal {
			return TriggerPreyAbundance
		}
		return TriggerResourceRecovery
	}
	return TriggerIntrinsic
}

// grew reports whether to exceeds from by more than the trigger fraction.
func grew(from, to int) bool {
	base := float64(max(from, 1))
	return float64(to-from) > triggerChange*base
}
