package config

import "testing"

func baseConfig() *Config {
	return &Config{
		Serial: SerialSection{
			Endpoint:  "/dev/ttyUSB0",
			BaudRate:  9600,
			WritePace: 1,
		},
		EMA: EMASection{
			Retries:      2,
			UploadPeriod: 60,
		},
		Voltmeter: VoltmeterSection{
			Threshold: 11.8,
			Delta:     0.2,
			Time:      30,
		},
		MQTT: MQTTSection{
			Broker:  "tcp://localhost:1883",
			Channel: "ema1",
		},
	}
}

func TestValidate_MinimalConfigOK(t *testing.T) {
	cfg := baseConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingSerialEndpoint(t *testing.T) {
	cfg := baseConfig()
	cfg.Serial.Endpoint = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_BadBaudRate(t *testing.T) {
	cfg := baseConfig()
	cfg.Serial.BaudRate = 19200
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_TODIntervalsSortedNoOverlap(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler.Intervals = []TODInterval{
		{StartMinute: 720, EndMinute: 735},
		{StartMinute: 1200, EndMinute: 1215},
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TODIntervalsOverlapDetected(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler.Intervals = []TODInterval{
		{StartMinute: 720, EndMinute: 800},
		{StartMinute: 750, EndMinute: 900},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected overlap error, got nil")
	}
}

func TestValidate_TODIntervalsBelowMinimumSpan(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler.Intervals = []TODInterval{
		{StartMinute: 720, EndMinute: 725},
	}
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected minimum-span error, got nil")
	}
}

func TestValidate_PoweroffRequiresIntervals(t *testing.T) {
	cfg := baseConfig()
	cfg.Scheduler.TODPoweroff = true
	cfg.Scheduler.Intervals = nil
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestValidate_MissingMQTTBroker(t *testing.T) {
	cfg := baseConfig()
	cfg.MQTT.Broker = ""
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestParseTODInterval(t *testing.T) {
	iv, err := parseTODInterval("12:00-12:15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if iv.StartMinute != 720 || iv.EndMinute != 735 {
		t.Fatalf("unexpected interval: %+v", iv)
	}
}

func TestParseTODInterval_BadOrder(t *testing.T) {
	if _, err := parseTODInterval("12:15-12:00"); err == nil {
		t.Fatalf("expected error for start >= end")
	}
}

func TestParseAuxMode(t *testing.T) {
	if _, err := parseAuxMode("Bogus"); err == nil {
		t.Fatalf("expected error for unknown aux relay mode")
	}
	if m, err := parseAuxMode("Timed"); err != nil || m != AuxRelayTimed {
		t.Fatalf("expected Timed, got %v err=%v", m, err)
	}
}
