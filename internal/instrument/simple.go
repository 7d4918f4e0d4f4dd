package instrument

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/reading"
)

// Extractor pulls one instrument's field out of a decoded reading vector.
type Extractor func(v reading.Vector) float64

// Simple is the shared implementation for every channel that has no
// device-side calibration parameter and no alarm of its own: it just
// tracks a current value and a rolling average (anemometer, barometer,
// cloud sensor, photometer, pluviometer, pyranometer, rain sensor,
// thermometer, thermopile). Voltmeter is the one channel that needs bespoke
// behaviour and gets its own type.
type Simple struct {
	id        string
	unit      string
	extract   Extractor
	window    *window
	averageN  int
	lastAt    time.Time
	lastValid bool
}

// NewSimple builds a Simple instrument. averageWindow is the number of
// samples the rolling average is computed over; 0 means "all samples seen
// so far".
func NewSimple(id, unit string, extract Extractor, averageWindow int) *Simple {
	return &Simple{
		id:       id,
		unit:     unit,
		extract:  extract,
		window:   newWindow(0),
		averageN: averageWindow,
	}
}

func (s *Simple) ID() string { return s.id }

func (s *Simple) Update(v reading.Vector, at time.Time) {
	val := s.extract(v)
	s.lastAt = at
	s.lastValid = !reading.IsMissing(val)
	s.window.push(val)
}

func (s *Simple) Snapshot() Snapshot {
	cur, ok := s.window.newest()
	avg, n := s.window.average(s.averageN)
	return Snapshot{
		Current: cur,
		Average: avg,
		Unit:    s.unit,
		At:      s.lastAt,
		Missing: !ok || n == 0 || !s.lastValid,
	}
}

func (s *Simple) Parameters() Parameters { return nil }

func (s *Simple) Alarm() (Alarm, bool) { return Alarm{}, false }
