package proto

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// rtcTimeLayout is the device's timestamp rendering, shared by GetRTCDateTime
// responses and the timestamp line closing each Daily Min/Max Dump triplet
// (original_source/ema/protocol/commands.py EMA_TIME_FORMAT).
const rtcTimeLayout = "15:04:05 02/01/2006"

// Watchdog keep-alive (commands.py Ping): the device echoes the request
// unchanged.
var (
	PingRequest = []byte("( )")
	PingPattern = regexp.MustCompile(`^\( \)$`)
)

// Real time clock (commands.py GetRTCDateTime / SetRTCDateTime).
var (
	GetRTCRequest = []byte("(y)")
	RTCPattern    = regexp.MustCompile(`^\(\d{2}:\d{2}:\d{2} \d{2}/\d{2}/\d{4}\)$`)
)

// SetRTCRequest renders t (device wall clock is always driven in UTC) as a
// SetRTCDateTime request: "(YDDMMYYHHMMSS)".
func SetRTCRequest(t time.Time) []byte {
	return []byte(fmt.Sprintf("(Y%s)", t.UTC().Format("020106150405")))
}

// ParseRTCResponse parses a matched RTCPattern (or minmax-dump timestamp)
// frame into a UTC time.
func ParseRTCResponse(frame []byte) (time.Time, error) {
	t, err := time.Parse(rtcTimeLayout, string(frame[1:len(frame)-1]))
	if err != nil {
		return time.Time{}, fmt.Errorf("proto: rtc response: %w", err)
	}
	return t.UTC(), nil
}

// Aux relay mode (commands.py SetAuxRelayMode). Only the two immediate,
// non-timer modes the Time-of-Day duty drives are exposed here.
const (
	auxRelayModeClosed = 4
	auxRelayModeOpen   = 5
)

var AuxRelayModePattern = regexp.MustCompile(`^\(S\d{3}\)$`)

func SetAuxRelayOpenRequest() []byte {
	return []byte(fmt.Sprintf("(S%03d)", auxRelayModeOpen))
}

func SetAuxRelayClosedRequest() []byte {
	return []byte(fmt.Sprintf("(S%03d)", auxRelayModeClosed))
}

// Voltmeter threshold (commands.py GetVoltmeterThreshold / SetVoltmeterThreshold),
// the one parameter original_source/ema/dev/voltmeter.py registers with
// ema.addSync and the only one the Sync Engine reconciles at startup.
var (
	GetVoltmeterThresholdRequest = []byte("(f)")
	VoltmeterThresholdPattern    = regexp.MustCompile(`^\(F(\d{3})\)$`)
)

func SetVoltmeterThresholdRequest(volts float64) []byte {
	return []byte(fmt.Sprintf("(F%03d)", int(math.Round(volts*10))))
}

// ParseVoltmeterThreshold extracts the volts value (SCALE=10 in the
// original) from a matched VoltmeterThresholdPattern frame.
func ParseVoltmeterThreshold(frame []byte) (float64, error) {
	m := VoltmeterThresholdPattern.FindSubmatch(frame)
	if m == nil {
		return 0, fmt.Errorf("proto: voltmeter threshold: no match in %q", frame)
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, fmt.Errorf("proto: voltmeter threshold: %w", err)
	}
	return float64(n) / 10, nil
}

// Bulk dumps (commands.py BulkDumpCommand subclasses). Each iteration's
// frames are ordinary 83-byte status bulletins tagged with a historic
// message type byte, so Decode handles them directly; only the trailing
// timestamp line in the Min/Max dump needs its own parse (ParseRTCResponse).
var (
	HistoricMinMaxRequest = []byte("(@H0300)")
	maxVectorPattern      = regexp.MustCompile(`^\(.{76}M\d{4}\)$`)
	minVectorPattern      = regexp.MustCompile(`^\(.{76}m\d{4}\)$`)

	HistoricAverageRequest = []byte("(@t0000)")
	averageVectorPattern   = regexp.MustCompile(`^\(.{76}t\d{4}\)$`)
)

// HistoricMinMaxTuples is GetDailyMinMaxDump's ITERATIONS: 24 (max, min,
// timestamp) triplets, one per hour.
const HistoricMinMaxTuples = 24

// HistoricAverageTuples is Get5MinAveragesDump's ITERATIONS: 288 five-minute
// averages spanning one day.
const HistoricAverageTuples = 288

const (
	HistoricMinMaxTimeout  = 90 * time.Second
	HistoricAverageTimeout = 5 * time.Minute
)

// HistoricMinMaxPatterns builds the full ordered response sequence for one
// (@H0300) bulk dump.
func HistoricMinMaxPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, HistoricMinMaxTuples*3)
	for i := 0; i < HistoricMinMaxTuples; i++ {
		patterns = append(patterns, maxVectorPattern, minVectorPattern, RTCPattern)
	}
	return patterns
}

// HistoricAveragePatterns builds the full ordered response sequence for one
// (@t0000) bulk dump: the same pattern repeated once per five-minute page.
func HistoricAveragePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, HistoricAverageTuples)
	for i := range patterns {
		patterns[i] = averageVectorPattern
	}
	return patterns
}
