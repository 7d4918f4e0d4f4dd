package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Load reads and parses the INI configuration file at path into a Config.
// It performs type conversion only; declarative correctness checks belong
// to Validate, and derived-field computation belongs to Normalize.
func Load(path string) (*Config, error) {
	if err := checkNoDuplicateAuxRelayMode(path); err != nil {
		return nil, err
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows: false, // duplicates already ruled out above
	}, path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	cfg := &Config{}

	if err := loadEMA(f, cfg); err != nil {
		return nil, err
	}
	if err := loadSerial(f, cfg); err != nil {
		return nil, err
	}
	if err := loadInstruments(f, cfg); err != nil {
		return nil, err
	}
	if err := loadWatchdogAndRTC(f, cfg); err != nil {
		return nil, err
	}
	if err := loadRelays(f, cfg); err != nil {
		return nil, err
	}
	if err := loadScripts(f, cfg); err != nil {
		return nil, err
	}
	if err := loadScheduler(f, cfg); err != nil {
		return nil, err
	}
	if err := loadMQTT(f, cfg); err != nil {
		return nil, err
	}
	if err := loadWeb(f, cfg); err != nil {
		return nil, err
	}
	if err := loadUDP(f, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEMA(f *ini.File, cfg *Config) error {
	s := f.Section("ema")
	cfg.EMA = EMASection{
		LogFile:       s.Key("log_file").MustString("/var/log/ema/ema.log"),
		LogLevel:      s.Key("log_level").MustString("info"),
		HostRTC:       s.Key("host_rtc").MustBool(false),
		Retries:       s.Key("nretries").MustInt(2),
		UploadPeriod:  time.Duration(s.Key("upload_period").MustInt(60)) * time.Second,
		Shutdown:      s.Key("shutdown").MustBool(false),
		RelayShutdown: s.Key("relay_shutdown").MustBool(false),
	}
	return nil
}

func loadSerial(f *ini.File, cfg *Config) error {
	s := f.Section("serial")
	baud := s.Key("baud_rate").MustInt(9600)
	if baud != 9600 && baud != 57600 {
		return fmt.Errorf("config: [serial] baud_rate must be 9600 or 57600, got %d", baud)
	}
	cfg.Serial = SerialSection{
		Endpoint:  s.Key("endpoint").MustString(""),
		BaudRate:  baud,
		Sync:      s.Key("sync").MustBool(true),
		LogLevel:  s.Key("log_level").MustString("info"),
		LogFrames: s.Key("log_messages").MustBool(false),
		WritePace: time.Duration(s.Key("write_pace_ms").MustInt(1000)) * time.Millisecond,
	}
	return nil
}

func chop(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadInstrumentBase(s *ini.Section) InstrumentSection {
	return InstrumentSection{
		Sync:         s.Key("sync").MustBool(true),
		PublishWhere: chop(s.Key("publish_where").MustString("mqtt,html")),
		PublishWhat:  chop(s.Key("publish_what").MustString("current,average")),
	}
}

func loadInstruments(f *ini.File, cfg *Config) error {
	vs := f.Section("voltmeter")
	cfg.Voltmeter = VoltmeterSection{
		InstrumentSection: loadInstrumentBase(vs),
		Offset:            vs.Key("offset").MustFloat64(0),
		Threshold:         vs.Key("threshold").MustFloat64(11.8),
		Delta:             vs.Key("delta").MustFloat64(0.2),
		Time:              time.Duration(vs.Key("time").MustInt(30)) * time.Second,
		LowVoltScript:     vs.Key("low_volt_script").MustString(""),
		LowVoltMode:       parseScriptMode(vs.Key("low_volt_mode").MustString("Never")),
	}

	as := f.Section("anemometer")
	cfg.Anemo = AnemometerSection{
		InstrumentSection: loadInstrumentBase(as),
		Calibration:       as.Key("calibration").MustInt(0),
		Model:             as.Key("model").MustString(""),
		Threshold:         as.Key("threshold").MustInt(0),
		AveThreshold:      as.Key("ave_threshold").MustInt(0),
	}

	bs := f.Section("barometer")
	cfg.Barometer = BarometerSection{
		InstrumentSection: loadInstrumentBase(bs),
		Height:            bs.Key("height").MustInt(0),
		Offset:            bs.Key("offset").MustInt(0),
	}

	cls := f.Section("cloudsensor")
	cfg.Cloud = CloudSection{
		InstrumentSection: loadInstrumentBase(cls),
		Threshold:         cls.Key("threshold").MustInt(0),
		Gain:              cls.Key("gain").MustFloat64(1),
	}

	ps := f.Section("photometer")
	cfg.Photo = PhotometerSection{
		InstrumentSection: loadInstrumentBase(ps),
		Threshold:         ps.Key("threshold").MustFloat64(0),
		Offset:            ps.Key("offset").MustFloat64(0),
	}

	pls := f.Section("pluviometer")
	cfg.Pluvio = loadInstrumentBase(pls)

	pys := f.Section("pyranometer")
	cfg.Pyrano = PyranometerSection{
		InstrumentSection: loadInstrumentBase(pys),
		Gain:              pys.Key("gain").MustFloat64(1),
		Offset:            pys.Key("offset").MustInt(0),
	}

	rs := f.Section("rainsensor")
	cfg.Rain = RainSection{
		InstrumentSection: loadInstrumentBase(rs),
		Threshold:         rs.Key("threshold").MustInt(0),
	}

	ts := f.Section("thermometer")
	cfg.Thermo = ThermometerSection{
		InstrumentSection: loadInstrumentBase(ts),
		Threshold:         ts.Key("threshold").MustFloat64(0),
	}

	tps := f.Section("thermopile")
	cfg.Thermopile = loadInstrumentBase(tps)

	return nil
}

func loadWatchdogAndRTC(f *ini.File, cfg *Config) error {
	ws := f.Section("watchdog")
	cfg.Watchdog = WatchdogSection{
		Sync:   ws.Key("sync").MustBool(true),
		Period: time.Duration(ws.Key("period").MustInt(200)) * time.Second,
	}

	rs := f.Section("rtc")
	cfg.RTC = RTCSection{
		MaxDrift:   time.Duration(rs.Key("max_drift").MustInt(5)) * time.Second,
		CheckEvery: time.Duration(rs.Key("check_every_hours").MustInt(12)) * time.Hour,
	}
	return nil
}

func parseAuxMode(v string) (AuxRelayMode, error) {
	switch strings.TrimSpace(v) {
	case "Never":
		return AuxRelayNever, nil
	case "Timed":
		return AuxRelayTimed, nil
	case "Auto":
		return AuxRelayAuto, nil
	default:
		return 0, fmt.Errorf("config: [aux_relay] mode must be one of Never|Timed|Auto, got %q", v)
	}
}

func loadRelays(f *ini.File, cfg *Config) error {
	as := f.Section("aux_relay")
	mode, err := parseAuxMode(as.Key("mode").MustString("Never"))
	if err != nil {
		return err
	}
	cfg.AuxRelay = RelaySection{
		Sync: as.Key("sync").MustBool(true),
		Mode: mode,
	}

	rrs := f.Section("roof_relay")
	cfg.RoofRelay = RelaySection{
		Sync: rrs.Key("sync").MustBool(true),
	}
	return nil
}

func parseScriptMode(v string) ScriptMode {
	switch strings.TrimSpace(v) {
	case "Once":
		return ScriptOnce
	case "Many":
		return ScriptMany
	default:
		return ScriptNever
	}
}

func loadScriptEntry(s *ini.Section, prefix string) ScriptEntry {
	return ScriptEntry{
		Path: s.Key(prefix).MustString(""),
		Args: s.Key(prefix + "_args").MustString(""),
		Mode: parseScriptMode(s.Key(prefix + "_mode").MustString("Never")),
	}
}

func loadScripts(f *ini.File, cfg *Config) error {
	s := f.Section("scripts")
	cfg.Scripts = ScriptsSection{
		RoofRelay:  loadScriptEntry(s, "roof_relay"),
		AuxRelay:   loadScriptEntry(s, "aux_relay"),
		LowVoltage: loadScriptEntry(s, "low_voltage"),
		NoInternet: loadScriptEntry(s, "no_internet"),
		LogLevel:   s.Key("log_level").MustString("info"),
	}
	return nil
}

func loadScheduler(f *ini.File, cfg *Config) error {
	s := f.Section("scheduler")
	raw := chop(s.Key("intervals").MustString(""))
	intervals := make([]TODInterval, 0, len(raw))
	for _, tok := range raw {
		iv, err := parseTODInterval(tok)
		if err != nil {
			return err
		}
		intervals = append(intervals, iv)
	}
	cfg.Scheduler = SchedulerSection{
		Intervals:   intervals,
		LogLevel:    s.Key("log_level").MustString("info"),
		TODPoweroff: s.Key("poweroff").MustBool(false),
	}
	return nil
}

// parseTODInterval parses "HH:MM-HH:MM" into minute-of-UTC-day bounds.
func parseTODInterval(tok string) (TODInterval, error) {
	parts := strings.SplitN(tok, "-", 2)
	if len(parts) != 2 {
		return TODInterval{}, fmt.Errorf("config: bad TOD interval %q", tok)
	}
	start, err := parseHHMM(parts[0])
	if err != nil {
		return TODInterval{}, fmt.Errorf("config: bad TOD interval %q: %w", tok, err)
	}
	end, err := parseHHMM(parts[1])
	if err != nil {
		return TODInterval{}, fmt.Errorf("config: bad TOD interval %q: %w", tok, err)
	}
	if start >= end {
		return TODInterval{}, fmt.Errorf("config: TOD interval %q must have start < end", tok)
	}
	return TODInterval{StartMinute: start, EndMinute: end}, nil
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range %q", s)
	}
	return h*60 + m, nil
}

func loadMQTT(f *ini.File, cfg *Config) error {
	s := f.Section("mqtt")
	cfg.MQTT = MQTTSection{
		ClientID:  s.Key("id").MustString("ema-gateway"),
		Channel:   s.Key("channel").MustString(""),
		Broker:    s.Key("broker").MustString(""),
		Username:  s.Key("username").MustString(""),
		Password:  s.Key("password").MustString(""),
		KeepAlive: time.Duration(s.Key("keepalive").MustInt(60)) * time.Second,
		Timeout:   time.Duration(s.Key("timeout").MustInt(10)) * time.Second,
		LogLevel:  s.Key("log_level").MustString("info"),
	}
	return nil
}

func loadWeb(f *ini.File, cfg *Config) error {
	s := f.Section("web")
	cfg.Web = WebSection{
		Server:   s.Key("server").MustString(""),
		Access:   s.Key("access").MustString(""),
		Passwd:   s.Key("passwd").MustString(""),
		Plain:    s.Key("plain").MustBool(true),
		LogLevel: s.Key("log_level").MustString("info"),
		DiagAddr: s.Key("diag_addr").MustString("127.0.0.1:8090"),
	}
	return nil
}

func loadUDP(f *ini.File, cfg *Config) error {
	s := f.Section("udp")
	cfg.UDP = UDPSection{
		RxPort:         s.Key("rx_port").MustInt(0),
		TxPort:         s.Key("tx_port").MustInt(0),
		MulticastGroup: s.Key("multicast_group").MustString(""),
		MulticastPort:  s.Key("multicast_port").MustInt(0),
	}
	return nil
}

// checkNoDuplicateAuxRelayMode resolves spec.md §9's open question: a
// duplicated aux_relay_mode (or mode) key inside [aux_relay] (a stray
// copy-paste or a merge artifact) must fail loudly rather than silently
// keep "whichever the library saw last". Lines starting with ';' or '#'
// are skipped, so a key that appears only in a comment is not counted. gopkg.in/ini.v1 already discards
// true duplicate keys per its own last-wins rule, so this is a pre-pass over
// the raw text that a permissive parse would not need but this one demands
// explicitly, matching this expansion's decision to surface the ambiguity
// as a hard configuration error rather than default to Never or Timed.
func checkNoDuplicateAuxRelayMode(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %s: %w", path, err)
	}
	defer fh.Close()

	inSection := false
	seen := 0
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inSection = strings.EqualFold(strings.Trim(line, "[]"), "aux_relay")
			continue
		}
		if !inSection {
			continue
		}
		key := strings.SplitN(line, "=", 2)[0]
		if strings.EqualFold(strings.TrimSpace(key), "aux_relay_mode") ||
			strings.EqualFold(strings.TrimSpace(key), "mode") {
			seen++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: scan %s: %w", path, err)
	}
	if seen > 1 {
		return fmt.Errorf("config: [aux_relay] mode is defined %d times; the intended value is ambiguous and must be fixed by hand", seen)
	}
	return nil
}
