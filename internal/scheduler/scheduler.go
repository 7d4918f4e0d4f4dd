// Package scheduler drives the gateway's cooperative duty loop (spec.md
// §4.7): a single 1-second ticker fans out to duty handlers on their own
// cadence (upload every 60s, watchdog ping every 100s, RTC check every 12h,
// TOD evaluation every 60s), the same one-goroutine/one-ticker/select
// pattern the teacher's orchestrator loop uses.
package scheduler

import (
	"context"
	"log"
	"time"
)

// Duty is one periodic unit of work; the scheduler calls it on the first
// tick at or after Every has elapsed since startup, and again on the first
// tick at or after Every has elapsed since each run.
type Duty struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context, now time.Time)

	next time.Time
}

// Scheduler is the single 1s tick loop. RTC master selection (spec.md
// §4.8, SelectRole) has no duty of its own: the rtc_check duty calls
// SelectRole each time it runs.
type Scheduler struct {
	tick   time.Duration
	duties []*Duty
	logger *log.Logger
}

func New(tick time.Duration, duties []Duty, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	list := make([]*Duty, len(duties))
	now := time.Now()
	for i := range duties {
		d := duties[i]
		d.next = now.Add(d.Every)
		list[i] = &d
	}
	return &Scheduler{tick: tick, duties: list, logger: logger}
}

// Run blocks until ctx is cancelled, firing each duty whose interval has
// elapsed on every tick.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.fireDue(ctx, now)
		}
	}
}

func (s *Scheduler) fireDue(ctx context.Context, now time.Time) {
	for _, d := range s.duties {
		if now.Before(d.next) {
			continue
		}
		d.next = now.Add(d.Every)
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Printf("scheduler: duty %s panicked: %v", d.Name, r)
				}
			}()
			d.Run(ctx, now)
		}()
	}
}
