// Package instrument implements the per-channel capability described in
// spec.md §5: each weather station channel (voltmeter, anemometer,
// barometer, ...) is a value that turns the shared reading.Vector into its
// own current/average/threshold snapshot and, where the original device
// exposes one, an alarm condition. Kinds are distinguished by field
// extraction, not by a type hierarchy (spec.md §9's tagged-variant design
// note).
package instrument

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/reading"
)

// Snapshot is the current/average pair published on the MQTT
// current/state topic (spec.md §6).
type Snapshot struct {
	Current float64
	Average float64
	Unit    string
	At      time.Time
	Missing bool
}

// Parameters is the calibration/threshold constants an instrument reports
// under EMA/register and re-verifies during Sync Engine reconciliation.
type Parameters map[string]float64

// Alarm describes an out-of-band condition an instrument wants a script
// launched for (spec.md §7). Name is empty when there is no active alarm.
// Args is the script's argv in the instrument's own fixed order — never
// built from a map, since map iteration order is not the invocation order
// the spec's argv examples require. Fields carries the same values keyed
// by name for event-log/MQTT publication, where order doesn't matter.
type Alarm struct {
	Name   string
	Args   []string
	Fields map[string]string
}

// Instrument is the capability every channel implements. Update is called
// once per decoded status bulletin; Snapshot/Parameters/Alarm are read-only
// queries made by the publisher and the script launcher.
type Instrument interface {
	ID() string
	Update(v reading.Vector, at time.Time)
	Snapshot() Snapshot
	Parameters() Parameters
	Alarm() (Alarm, bool)
}

// PublishTarget mirrors config.InstrumentSection's publish_what switches
// (current, average), plus a threshold switch.
type PublishTarget struct {
	Current bool
	Average bool
	Threshold bool
}
