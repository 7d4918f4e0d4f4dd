// cmd/ema-gateway/duties.go builds the Scheduler duty table (spec.md §4.7):
// one constructor per row, each closing over the shared Command Engine,
// Responder, and publishers assembled in main.
package main

import (
	"context"
	"log"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/tamzrod/ema-gateway/internal/command"
	"github.com/tamzrod/ema-gateway/internal/config"
	"github.com/tamzrod/ema-gateway/internal/diag"
	"github.com/tamzrod/ema-gateway/internal/eventlog"
	"github.com/tamzrod/ema-gateway/internal/instrument"
	"github.com/tamzrod/ema-gateway/internal/proto"
	"github.com/tamzrod/ema-gateway/internal/publish"
	"github.com/tamzrod/ema-gateway/internal/reading"
	"github.com/tamzrod/ema-gateway/internal/scheduler"
	"github.com/tamzrod/ema-gateway/internal/script"
	"github.com/tamzrod/ema-gateway/internal/syncengine"
	"github.com/tamzrod/ema-gateway/internal/tod"
)

// historicPullState is set by the TOD duty on an inactive->active transition
// and cleared by whichever pull duty next fires, implementing spec.md
// §4.7/§4.9's "once per configured TOD active interval" cadence on top of
// the Scheduler's fixed-tick duty list.
type historicPullState struct {
	minmax  bool
	average bool
}

func uploadDuty(instruments []instrument.Instrument, fanout *publish.Fanout, events *eventlog.Log, metrics *diag.Metrics, launcher *script.Launcher, cfg *config.Config) scheduler.Duty {
	return scheduler.Duty{Name: "upload", Every: cfg.EMA.UploadPeriod, Run: func(ctx context.Context, now time.Time) {
		for _, in := range instruments {
			fanout.PublishCurrent(in.ID(), in.Snapshot(), publish.PublishWhere{MQTT: true, HTML: true})
			alarm, active := in.Alarm()
			if !active {
				continue
			}
			events.Append(eventlog.Entry{At: now, Channel: in.ID(), Name: alarm.Name, Fields: alarm.Fields})
			fanout.PublishEvent(in.ID(), alarm.Name, alarm.Fields, now)
			metrics.AlarmsRaised.WithLabelValues(in.ID()).Inc()
			if alarm.Name == "VoltageLow" {
				launcher.Launch(script.Entry{
					Name: alarm.Name,
					Path: cfg.Voltmeter.LowVoltScript,
					Mode: script.Mode(cfg.Voltmeter.LowVoltMode),
				}, alarm.Args)
			}
		}
	}}
}

// syncDuty re-attempts parameter reconciliation once a day (spec.md §4.6:
// "re-attempts on the next scheduled sync tick"). params is empty when no
// instrument has sync=true, in which case the duty is a no-op every tick.
func syncDuty(syncer *syncengine.Engine, params []syncengine.Param) scheduler.Duty {
	return scheduler.Duty{Name: "sync", Every: 24 * time.Hour, Run: func(ctx context.Context, now time.Time) {
		if len(params) == 0 {
			return
		}
		if err := syncer.Reconcile(ctx, params); err != nil {
			log.Printf("sync: scheduled reconciliation failed: %v", err)
		}
	}}
}

// watchdogDuty pings the device watchdog at keepalive/2 (spec.md §4.7).
func watchdogDuty(engine *command.Engine, responder command.Responder, retries int, every time.Duration) scheduler.Duty {
	return scheduler.Duty{Name: "watchdog_ping", Every: every, Run: func(ctx context.Context, now time.Time) {
		cmd := command.NewCommand("watchdog_ping", proto.PingRequest, []*regexp.Regexp{proto.PingPattern}, retries, 4*time.Second, responder)
		resCh := engine.Submit(ctx, cmd)
		if resCh == nil {
			return
		}
		go func() {
			if res := <-resCh; res.Err != nil {
				log.Printf("watchdog: ping failed: %v", res.Err)
			}
		}()
	}}
}

// rtcCheckDuty implements spec.md §4.8: pick master/slave from host RTC
// presence and Internet reachability, then read the device clock and, when
// the host is authoritative, correct the device if it has drifted past
// rtc_delta. When the device is master its time is only logged; the host
// clock is not set from it.
func rtcCheckDuty(engine *command.Engine, responder command.Responder, cfg *config.Config, probe scheduler.InternetProbe) scheduler.Duty {
	maxDrift := cfg.RTC.MaxDrift
	if maxDrift <= 0 {
		maxDrift = 5 * time.Second
	}
	every := cfg.RTC.CheckEvery
	if every <= 0 {
		every = 12 * time.Hour
	}
	return scheduler.Duty{Name: "rtc_check", Every: every, Run: func(ctx context.Context, now time.Time) {
		role := scheduler.SelectRole(ctx, cfg.EMA.HostRTC, probe)
		go runRTCCheck(ctx, engine, responder, cfg.EMA.Retries, role, maxDrift, now)
	}}
}

func runRTCCheck(ctx context.Context, engine *command.Engine, responder command.Responder, retries int, role scheduler.Role, maxDrift time.Duration, now time.Time) {
	get := command.NewCommand("rtc_get", proto.GetRTCRequest, []*regexp.Regexp{proto.RTCPattern}, retries, 4*time.Second, responder)
	resCh := engine.Submit(ctx, get)
	if resCh == nil {
		return
	}
	res := <-resCh
	if res.Err != nil {
		log.Printf("rtc: get failed: %v", res.Err)
		return
	}
	devTime, err := proto.ParseRTCResponse(res.Responses[0])
	if err != nil {
		log.Printf("rtc: parse device time: %v", err)
		return
	}
	if role == scheduler.RoleMaster {
		log.Printf("rtc: no host RTC and no Internet reachable, device is time master (device=%s)", devTime)
		return
	}
	drift := now.Sub(devTime)
	if drift < 0 {
		drift = -drift
	}
	if drift <= maxDrift {
		return
	}
	log.Printf("rtc: drift %s exceeds %s, setting device clock from host", drift, maxDrift)
	set := command.NewCommand("rtc_set", proto.SetRTCRequest(now), []*regexp.Regexp{proto.RTCPattern}, retries, 4*time.Second, responder)
	setCh := engine.Submit(ctx, set)
	if setCh == nil {
		return
	}
	if setRes := <-setCh; setRes.Err != nil {
		log.Printf("rtc: set failed: %v", setRes.Err)
	}
}

// historicMinMaxDuty checks every tick whether a pull is pending (set by the
// TOD duty on window entry) and, if so, submits the bulk dump.
func historicMinMaxDuty(engine *command.Engine, responder command.Responder, retries int, fanout *publish.Fanout, events *eventlog.Log, pending *historicPullState) scheduler.Duty {
	return scheduler.Duty{Name: "historic_minmax", Every: time.Minute, Run: func(ctx context.Context, now time.Time) {
		if !pending.minmax {
			return
		}
		pending.minmax = false
		go runHistoricMinMax(ctx, engine, responder, retries, fanout, events, now)
	}}
}

func runHistoricMinMax(ctx context.Context, engine *command.Engine, responder command.Responder, retries int, fanout *publish.Fanout, events *eventlog.Log, now time.Time) {
	cmd := command.NewCommand("historic_minmax", proto.HistoricMinMaxRequest, proto.HistoricMinMaxPatterns(), retries, proto.HistoricMinMaxTimeout, responder)
	resCh := engine.Submit(ctx, cmd)
	if resCh == nil {
		return
	}
	res := <-resCh
	if res.Err != nil {
		log.Printf("historic minmax: pull failed: %v", res.Err)
		return
	}
	tuples := decodeMinMaxTuples(res.Responses)
	fanout.PublishHistoricMinMax(tuples, now)
	events.Append(eventlog.Entry{At: now, Channel: "historic", Name: "minmax_pulled", Fields: map[string]string{"tuples": strconv.Itoa(len(tuples))}})
}

func decodeMinMaxTuples(responses [][]byte) []publish.HistoricMinMaxTuple {
	tuples := make([]publish.HistoricMinMaxTuple, 0, len(responses)/3)
	for i := 0; i+2 < len(responses); i += 3 {
		maxVec, err := proto.Decode(responses[i])
		if err != nil {
			continue
		}
		minVec, err := proto.Decode(responses[i+1])
		if err != nil {
			continue
		}
		at, err := proto.ParseRTCResponse(responses[i+2])
		if err != nil {
			continue
		}
		tuples = append(tuples, publish.HistoricMinMaxTuple{At: at, Max: maxVec, Min: minVec})
	}
	return tuples
}

// historicAverageDuty mirrors historicMinMaxDuty for the 288-tuple 5-minute
// averages dump.
func historicAverageDuty(engine *command.Engine, responder command.Responder, retries int, fanout *publish.Fanout, events *eventlog.Log, pending *historicPullState) scheduler.Duty {
	return scheduler.Duty{Name: "historic_average", Every: time.Minute, Run: func(ctx context.Context, now time.Time) {
		if !pending.average {
			return
		}
		pending.average = false
		go runHistoricAverage(ctx, engine, responder, retries, fanout, events, now)
	}}
}

func runHistoricAverage(ctx context.Context, engine *command.Engine, responder command.Responder, retries int, fanout *publish.Fanout, events *eventlog.Log, now time.Time) {
	cmd := command.NewCommand("historic_average", proto.HistoricAverageRequest, proto.HistoricAveragePatterns(), retries, proto.HistoricAverageTimeout, responder)
	resCh := engine.Submit(ctx, cmd)
	if resCh == nil {
		return
	}
	res := <-resCh
	if res.Err != nil {
		log.Printf("historic average: pull failed: %v", res.Err)
		return
	}
	vectors := decodeAverages(res.Responses)
	fanout.PublishHistoricAverage(vectors, now)
	events.Append(eventlog.Entry{At: now, Channel: "historic", Name: "average_pulled", Fields: map[string]string{"tuples": strconv.Itoa(len(vectors))}})
}

func decodeAverages(responses [][]byte) []reading.Vector {
	vectors := make([]reading.Vector, 0, len(responses))
	for _, frame := range responses {
		v, err := proto.Decode(frame)
		if err != nil {
			continue
		}
		vectors = append(vectors, v)
	}
	return vectors
}

// minuteOfDayUTC mirrors internal/tod's unexported helper; kept local since
// the shutdown-scheduling check needs raw interval arithmetic main already
// has via cfg.Scheduler.Intervals.
func minuteOfDayUTC(t time.Time) int {
	u := t.UTC()
	return u.Hour()*60 + u.Minute()
}

// minutesToWindowEnd reports how many minutes remain until the active
// window (if any) covering now ends.
func minutesToWindowEnd(intervals []config.TODInterval, now time.Time) (int, bool) {
	m := minuteOfDayUTC(now)
	for _, iv := range intervals {
		if m >= iv.StartMinute && m < iv.EndMinute {
			return iv.EndMinute - m, true
		}
	}
	return 0, false
}

// todDuty drives the aux relay off the TOD evaluator's edges (spec.md §4.9):
// inactive->active asserts the relay and, when historic pulls are
// configured, arms them; active->inactive de-asserts it. Two minutes before
// an active window's end, if tod_poweroff is set, a host shutdown is
// scheduled for the window's end.
func todDuty(evaluator *tod.Evaluator, engine *command.Engine, responder command.Responder, retries int, fanout *publish.Fanout, events *eventlog.Log, cfg *config.Config, pending *historicPullState) scheduler.Duty {
	scheduledShutdown := false
	return scheduler.Duty{Name: "tod", Every: time.Minute, Run: func(ctx context.Context, now time.Time) {
		tr := evaluator.Evaluate(now)
		if tr.Entered || tr.Left {
			state := "closed"
			req := proto.SetAuxRelayClosedRequest()
			if tr.Active {
				state = "open"
				req = proto.SetAuxRelayOpenRequest()
			}
			events.Append(eventlog.Entry{At: now, Channel: "aux_relay", Name: "tod_transition", Fields: map[string]string{"state": state}})
			fanout.PublishEvent("aux_relay", "tod_transition", map[string]string{"state": state}, now)

			cmd := command.NewCommand("aux_relay_"+state, req, []*regexp.Regexp{proto.AuxRelayModePattern}, retries, 4*time.Second, responder)
			resCh := engine.Submit(ctx, cmd)
			if resCh != nil {
				go func() {
					if res := <-resCh; res.Err != nil {
						log.Printf("aux relay: set %s failed: %v", state, res.Err)
					}
				}()
			}

			if tr.Entered && len(cfg.Scheduler.Intervals) > 0 {
				pending.minmax = true
				pending.average = true
			}
			if tr.Left {
				scheduledShutdown = false
			}
		}

		if !cfg.Scheduler.TODPoweroff || scheduledShutdown {
			return
		}
		if remain, active := minutesToWindowEnd(cfg.Scheduler.Intervals, now); active && remain == 2 {
			scheduledShutdown = true
			scheduleHostShutdown(2 * time.Minute)
		}
	}}
}

// scheduleHostShutdown arms a host power-off delay minutes from now,
// matching spec.md §4.9's tod_poweroff duty.
func scheduleHostShutdown(delay time.Duration) {
	time.AfterFunc(delay, func() {
		if err := exec.Command("shutdown", "-h", "now").Run(); err != nil {
			log.Printf("tod: host shutdown failed: %v", err)
		}
	})
}
