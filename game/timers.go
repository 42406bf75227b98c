package game

import "time"

type timerPurpose int

const (
	timerDiscussion timerPurpose = iota
	timerVoting
	timerResume
	timerReset
)

type timerEntry struct {
	at  time.Time
	gen uint64
}

// timerSet holds the room's pending deadlines, one slot per purpose. Entries
// carry the generation they were scheduled under; invalidateAll bumps the
// generation so anything scheduled before a phase reset can never fire, even
// if a tick races the reset.
type timerSet struct {
	gen       uint64
	deadlines map[timerPurpose]timerEntry
}

func newTimerSet() timerSet {
	return timerSet{deadlines: make(map[timerPurpose]timerEntry)}
}

func (t *timerSet) schedule(purpose timerPurpose, at time.Time) {
	t.deadlines[purpose] = timerEntry{at: at, gen: t.gen}
}

func (t *timerSet) cancel(purpose timerPurpose) {
	delete(t.deadlines, purpose)
}

func (t *timerSet) invalidateAll() {
	t.gen++
	clear(t.deadlines)
}

// due pops and returns every purpose whose deadline has passed. Stale
// generations are discarded without firing.
func (t *timerSet) due(now time.Time) []timerPurpose {
	var fired []timerPurpose
	for purpose, entry := range t.deadlines {
		if entry.at.After(now) {
			continue
		}
		delete(t.deadlines, purpose)
		if entry.gen != t.gen {
			continue
		}
		fired = append(fired, purpose)
	}
	return fired
}
