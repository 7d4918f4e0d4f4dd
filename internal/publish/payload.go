package publish

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/instrument"
	"github.com/tamzrod/ema-gateway/internal/reading"
)

// CurrentStatePayload is the body published on EMA/<channel>/current/state
// for one instrument (spec.md §6).
type CurrentStatePayload struct {
	Envelope
	Channel string  `json:"channel"`
	Current float64 `json:"current"`
	Average float64 `json:"average,omitempty"`
	Unit    string  `json:"unit"`
	Missing bool    `json:"missing,omitempty"`
}

// EventPayload is the body published on EMA/<channel>/events, used for
// relay state changes and instrument alarms.
type EventPayload struct {
	Envelope
	Channel string            `json:"channel"`
	Name    string            `json:"name"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RegisterPayload is the body published once at startup on EMA/register,
// before the Sync Engine runs, listing every instrument and the parameters
// its Parameters method reports.
type RegisterPayload struct {
	Envelope
	Instruments []RegisterInstrument `json:"instruments"`
}

type RegisterInstrument struct {
	ID         string             `json:"id"`
	Unit       string             `json:"unit,omitempty"`
	Parameters instrument.Parameters `json:"parameters,omitempty"`
}

func NewCurrentStatePayload(who, channel string, s instrument.Snapshot) CurrentStatePayload {
	return CurrentStatePayload{
		Envelope: Envelope{Rev: schemaRev, Who: who, Tstamp: s.At},
		Channel:  channel,
		Current:  s.Current,
		Average:  s.Average,
		Unit:     s.Unit,
		Missing:  s.Missing,
	}
}

func NewEventPayload(who, channel, name string, fields map[string]string, at time.Time) EventPayload {
	return EventPayload{
		Envelope: Envelope{Rev: schemaRev, Who: who, Tstamp: at},
		Channel:  channel,
		Name:     name,
		Fields:   fields,
	}
}

// HistoricMinMaxTuple is one hour's (max, min) pair plus the device
// timestamp closing that triplet in a Daily Min/Max Dump (spec.md §4.7).
type HistoricMinMaxTuple struct {
	At  time.Time      `json:"at"`
	Max reading.Vector `json:"max"`
	Min reading.Vector `json:"min"`
}

// HistoricMinMaxPayload is the body published on
// EMA/<channel>/historic/minmax: 24 tuples from one bulk dump.
type HistoricMinMaxPayload struct {
	Envelope
	Tuples []HistoricMinMaxTuple `json:"tuples"`
}

// HistoricAveragePayload is the body published on
// EMA/<channel>/historic/average: 288 five-minute averages from one bulk
// dump.
type HistoricAveragePayload struct {
	Envelope
	Averages []reading.Vector `json:"averages"`
}

func NewHistoricMinMaxPayload(who string, tuples []HistoricMinMaxTuple, at time.Time) HistoricMinMaxPayload {
	return HistoricMinMaxPayload{
		Envelope: Envelope{Rev: schemaRev, Who: who, Tstamp: at},
		Tuples:   tuples,
	}
}

func NewHistoricAveragePayload(who string, averages []reading.Vector, at time.Time) HistoricAveragePayload {
	return HistoricAveragePayload{
		Envelope: Envelope{Rev: schemaRev, Who: who, Tstamp: at},
		Averages: averages,
	}
}

func NewRegisterPayload(who string, insts []instrument.Instrument, at time.Time) RegisterPayload {
	out := make([]RegisterInstrument, 0, len(insts))
	for _, in := range insts {
		out = append(out, RegisterInstrument{
			ID:         in.ID(),
			Unit:       in.Snapshot().Unit,
			Parameters: in.Parameters(),
		})
	}
	return RegisterPayload{
		Envelope:    Envelope{Rev: schemaRev, Who: who, Tstamp: at},
		Instruments: out,
	}
}
