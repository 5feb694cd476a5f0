// Package telemetry provides windowed statistics, ecological analysis,
// alerting and experiment output for the food-chain simulation.
package telemetry

import (
	"fmt"
	"strings"
)

// EventType identifies timeline events.
type EventType string

const (
	EventAlertRaised  EventType = "alert_raised"
	EventAlertCleared EventType = "alert_cleared"
	EventCycle        EventType = "cycle"
	EventExtinction   EventType = "extinction"
)

// Event is one row of the analysis timeline written to events.csv.
type Event struct {
	Tick        int       `csv:"tick"`
	Type        EventType `csv:"type"`
	Species     string    `csv:"species"`
	Label       string    `csv:"label"` // alert kind, cycle type or primary cause
	Severity    string    `csv:"severity"`
	Description string    `csv:"description"`
}

// NewAlertEvent creates an alert raise or clear event.
func NewAlertEvent(tick int, a Alert, raised bool) Event {
	typ := EventAlertCleared
	if raised {
		typ = EventAlertRaised
	}
	return Event{
		Tick:        tick,
		Type:        typ,
		Species:     a.Species.String(),
		Label:       string(a.Kind),
		Severity:    a.Severity.String(),
		Description: a.Description,
	}
}

// NewCycleEvent creates a confirmed oscillation event.
func NewCycleEvent(c OscillationCycle) Event {
	desc := fmt.Sprintf("peak %.0f trough %.0f turned at tick %d (%s)", c.Peak, c.Trough, c.TurnTick, c.Trigger)
	return Event{
		Tick:        c.ConfirmTick,
		Type:        EventCycle,
		Species:     c.Kind.String(),
		Label:       string(c.Type),
		Severity:    SeverityInfo.String(),
		Description: desc,
	}
}

// NewExtinctionEvent creates an extinction event.
func NewExtinctionEvent(a ExtinctionAnalysis) Event {
	desc := a.Recommendation
	if len(a.ContributingFactors) > 0 {
		desc = strings.Join(a.ContributingFactors, "; ") + "; " + desc
	}
	return Event{
		Tick:        a.Tick,
		Type:        EventExtinction,
		Species:     a.Kind.String(),
		Label:       string(a.PrimaryCause),
		Severity:    SeverityCritical.String(),
		Description: desc,
	}
}

// ObservationEvents flattens an analyzer observation into timeline events.
func ObservationEvents(tick int, obs Observation) []Event {
	var events []Event
	for _, ea := range obs.Extinctions {
		events = append(events, NewExtinctionEvent(ea))
	}
	for _, c := range obs.NewCycles {
		events = append(events, NewCycleEvent(c))
	}
	for _, a := range obs.Raised {
		events = append(events, NewAlertEvent(tick, a, true))
	}
	for _, a := range obs.Cleared {
		events = append(events, NewAlertEvent(tick, a, false))
	}
	return events
}

