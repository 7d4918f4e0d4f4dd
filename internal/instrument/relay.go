package instrument

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/reading"
)

// RelayExtractor pulls the roof or aux relay code out of a reading vector.
type RelayExtractor func(v reading.Vector) reading.RelayState

// Relay is the roof/aux relay pseudo-instrument: it has no numeric
// current/average, only a state and a flag (Changed) set when the latest
// update flipped it. Alarm always reports no alarm, so a relay change does
// not by itself publish an event or launch a script.
type Relay struct {
	id      string
	extract RelayExtractor

	state   reading.RelayState
	at      time.Time
	changed bool
}

func NewRelay(id string, extract RelayExtractor) *Relay {
	return &Relay{id: id, extract: extract, state: reading.RelayUnknown}
}

func (r *Relay) ID() string { return r.id }

func (r *Relay) Update(v reading.Vector, at time.Time) {
	next := r.extract(v)
	r.changed = next != r.state
	r.state = next
	r.at = at
}

// Changed reports whether the most recent Update flipped the relay state.
func (r *Relay) Changed() bool { return r.changed }

func (r *Relay) State() reading.RelayState { return r.state }

func (r *Relay) Snapshot() Snapshot {
	return Snapshot{
		Current: float64(r.state),
		Average: float64(r.state),
		Unit:    "",
		At:      r.at,
	}
}

func (r *Relay) Parameters() Parameters { return nil }

func (r *Relay) Alarm() (Alarm, bool) { return Alarm{}, false }
