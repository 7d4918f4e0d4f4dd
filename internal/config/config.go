// Package config loads and validates the gateway's INI configuration file.
package config

import "time"

// Config is the fully parsed, validated configuration tree for one gateway
// process. It is constructed once by Load and threaded explicitly through
// every component constructor; nothing in this package is package-level
// mutable state.
type Config struct {
	EMA       EMASection
	Serial    SerialSection
	Voltmeter VoltmeterSection
	Anemo     AnemometerSection
	Barometer BarometerSection
	Cloud     CloudSection
	Photo     PhotometerSection
	Pluvio    InstrumentSection
	Pyrano    PyranometerSection
	Rain      RainSection
	Thermo    ThermometerSection
	Thermopile InstrumentSection
	Watchdog  WatchdogSection
	RTC       RTCSection
	AuxRelay  RelaySection
	RoofRelay RelaySection
	Scripts   ScriptsSection
	Scheduler SchedulerSection
	MQTT      MQTTSection
	Web       WebSection
	UDP       UDPSection
}

// EMASection is the top-level [ema] section: process-wide behavior.
type EMASection struct {
	LogFile        string
	LogLevel       string
	HostRTC        bool
	Retries        int
	UploadPeriod   time.Duration
	Shutdown       bool
	RelayShutdown  bool
}

// SerialSection is the [serial] section: transport + sync toggle.
type SerialSection struct {
	Endpoint   string // e.g. "/dev/ttyUSB0" or "COM3"
	BaudRate   int    // 9600 or 57600
	Sync       bool
	LogLevel   string
	LogFrames  bool
	WritePace  time.Duration
}

// InstrumentSection covers instruments whose configuration is just
// sync-on-startup plus publish policy (pluviometer, base voltmeter fields).
type InstrumentSection struct {
	Sync         bool
	PublishWhere []string // subset of {"mqtt", "html"}
	PublishWhat  []string // subset of {"current", "average"}
}

// AnemometerSection adds calibration/threshold fields on top of InstrumentSection.
type AnemometerSection struct {
	InstrumentSection
	Calibration   int
	Model         string
	Threshold     int
	AveThreshold  int
}

// BarometerSection adds height/offset calibration.
type BarometerSection struct {
	InstrumentSection
	Height int
	Offset int
}

// CloudSection adds threshold/gain.
type CloudSection struct {
	InstrumentSection
	Threshold int
	Gain      float64
}

// PhotometerSection adds threshold/offset.
type PhotometerSection struct {
	InstrumentSection
	Threshold float64
	Offset    float64
}

// PyranometerSection adds gain/offset.
type PyranometerSection struct {
	InstrumentSection
	Gain   float64
	Offset int
}

// RainSection adds a rain threshold.
type RainSection struct {
	InstrumentSection
	Threshold int
}

// ThermometerSection adds a temperature threshold.
type ThermometerSection struct {
	InstrumentSection
	Threshold float64
}

// VoltmeterSection is the full [voltmeter] section incl. alarm tuning.
// Embedded separately from InstrumentSection because it also drives the
// low-voltage alarm and script launch.
type VoltmeterSection struct {
	InstrumentSection
	Offset    float64
	Threshold float64
	Delta     float64
	Time      time.Duration
	LowVoltScript string
	LowVoltMode   ScriptMode
}

// WatchdogSection is the [watchdog] section.
type WatchdogSection struct {
	Sync   bool
	Period time.Duration
}

// RTCSection is the [rtc] section.
type RTCSection struct {
	MaxDrift time.Duration
	CheckEvery time.Duration
}

// AuxRelayMode enumerates the aux relay's operating mode.
type AuxRelayMode int

const (
	AuxRelayNever AuxRelayMode = iota
	AuxRelayTimed
	AuxRelayAuto
)

// RelaySection covers both roof_relay and aux_relay [sync + mode] sections.
// Mode is only meaningful for aux_relay; roof_relay.Sync is the only field read.
type RelaySection struct {
	Sync bool
	Mode AuxRelayMode
}

// ScriptMode enumerates when a Script Launcher entry fires.
type ScriptMode int

const (
	ScriptNever ScriptMode = iota
	ScriptOnce
	ScriptMany
)

// ScriptEntry is one (path, args template, mode) triple.
type ScriptEntry struct {
	Path string
	Args string
	Mode ScriptMode
}

// ScriptsSection is the [scripts] section: one entry per alarm condition.
type ScriptsSection struct {
	RoofRelay  ScriptEntry
	AuxRelay   ScriptEntry
	LowVoltage ScriptEntry
	NoInternet ScriptEntry
	LogLevel   string
}

// SchedulerSection is the [scheduler] section: TOD window list.
type SchedulerSection struct {
	Intervals []TODInterval
	LogLevel  string
	TODPoweroff bool
}

// TODInterval is a start/end pair expressed as minute-of-UTC-day.
type TODInterval struct {
	StartMinute int
	EndMinute   int
}

// MQTTSection is the [mqtt] section.
type MQTTSection struct {
	ClientID  string
	Channel   string
	Broker    string
	Username  string
	Password  string
	KeepAlive time.Duration
	Timeout   time.Duration
	LogLevel  string
}

// WebSection is the [web] section. Server/Access/Passwd describe the
// external HTML renderer (out of scope; carried through only so the gateway
// can hand it its own config slice). DiagAddr is this gateway's own
// diagnostics HTTP surface.
type WebSection struct {
	Server   string
	Access   string
	Passwd   string
	Plain    bool
	LogLevel string
	DiagAddr string
}

// UDPSection is the companion CLI's [udp] section.
type UDPSection struct {
	RxPort         int
	TxPort         int
	MulticastGroup string
	MulticastPort  int
}
