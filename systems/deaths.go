package systems

import (
	"maps"

	"github.com/pthm-cable/foodchain/components"
)

// DeathLedger keeps the most recent death records in a fixed-capacity ring
// and tallies every death without bound.
type DeathLedger struct {
	records []components.DeathRecord
	next    int
	full    bool

	total        int
	byCause      map[components.DeathCause]int
	byType       [components.NumKinds]int
	miscarriages int
}

// DeathStatistics is a detached view of the ledger tallies.
type DeathStatistics struct {
	TotalDeaths  int
	ByCause      map[components.DeathCause]int
	ByType       [components.NumKinds]int
	Miscarriages int
	Recent       []components.DeathRecord
}

// NewDeathLedger creates a ledger holding at most capacity recent records.
func NewDeathLedger(capacity int) *DeathLedger {
	if capacity < 1 {
		capacity = 1
	}
	return &DeathLedger{
		records: make([]components.DeathRecord, 0, capacity),
		byCause: make(map[components.DeathCause]int),
	}
}

// Append stores rec, evicting the oldest record when full.
// Miscarriages are kept in the ring but tallied separately.
func (l *DeathLedger) Append(rec components.DeathRecord) {
	if len(l.records) < cap(l.records) {
		l.records = append(l.records, rec)
	} else {
		l.records[l.next] = rec
		l.full = true
	}
	l.next = (l.next + 1) % cap(l.records)

	if rec.Miscarriage {
		l.miscarriages++
		return
	}
	l.total++
	l.byCause[rec.Cause]++
	l.byType[rec.Kind]++
}

// Recent returns the retained records, oldest first.
func (l *DeathLedger) Recent() []components.DeathRecord {
	out := make([]components.DeathRecord, 0, len(l.records))
	if l.full {
		out = append(out, l.records[l.next:]...)
		out = append(out, l.records[:l.next]...)
		return out
	}
	return append(out, l.records...)
}

// Len returns the number of retained records.
func (l *DeathLedger) Len() int { return len(l.records) }

// Capacity returns the ring size.
func (l *DeathLedger) Capacity() int { return cap(l.records) }

// TotalDeaths returns the number of deaths ever recorded, miscarriages excluded.
func (l *DeathLedger) TotalDeaths() int { return l.total }

// Stats returns a copy of the tallies and the retained records.
func (l *DeathLedger) Stats() DeathStatistics {
	return DeathStatistics{
		TotalDeaths:  l.total,
		ByCause:      maps.Clone(l.byCause),
		ByType:       l.byType,
		Miscarriages: l.miscarriages,
		Recent:       l.Recent(),
	}
}
