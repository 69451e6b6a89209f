package agent

import "time"

// Family names one proactivity family. The values double as the catalog's
// use-case tags.
type Family string

const (
	FamilyGeneral         Family = "general"
	FamilyMorningBriefing Family = "morningBriefing"
	FamilyEvents          Family = "events"
	FamilyTransportation  Family = "transportation"
	FamilySport           Family = "sport"
)

// proactiveFamilies lists the families with a proactivity timestamp, in
// check order. General volunteers nothing.
var proactiveFamilies = []Family{
	FamilyMorningBriefing,
	FamilyEvents,
	FamilyTransportation,
	FamilySport,
}

// Ledger records when each family was last checked for proactive output,
// plus the coarse last-tick time. Only the agent loop writes to it; handlers
// read through the session. Timestamps never move backwards.
type Ledger struct {
	lastTick time.Time
	families map[Family]time.Time
}

// NewLedger returns a ledger with every timestamp initialized to start.
func NewLedger(start time.Time) *Ledger {
	families := make(map[Family]time.Time, len(proactiveFamilies))
	for _, family := range proactiveFamilies {
		families[family] = start
	}
	return &Ledger{lastTick: start, families: families}
}

// LastTick returns the time of the last proactivity poll.
func (l *Ledger) LastTick() time.Time {
	return l.lastTick
}

// SetLastTick advances the tick timestamp. Earlier values are ignored.
func (l *Ledger) SetLastTick(t time.Time) {
	if t.After(l.lastTick) {
		l.lastTick = t
	}
}

// Last returns when family was last checked.
func (l *Ledger) Last(family Family) time.Time {
	return l.families[family]
}

// Touch advances family's timestamp. Earlier values are ignored.
func (l *Ledger) Touch(family Family, t time.Time) {
	if t.After(l.families[family]) {
		l.families[family] = t
	}
}
