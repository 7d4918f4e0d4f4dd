package config

import "fmt"

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	if cfg.Serial.Endpoint == "" {
		return fmt.Errorf("config: [serial] endpoint is required")
	}
	if cfg.Serial.BaudRate != 9600 && cfg.Serial.BaudRate != 57600 {
		return fmt.Errorf("config: [serial] baud_rate must be 9600 or 57600")
	}
	if cfg.Serial.WritePace <= 0 {
		return fmt.Errorf("config: [serial] write_pace_ms must be > 0")
	}

	if cfg.EMA.Retries < 1 {
		return fmt.Errorf("config: [ema] nretries must be >= 1")
	}
	if cfg.EMA.UploadPeriod <= 0 {
		return fmt.Errorf("config: [ema] upload_period must be > 0")
	}

	if cfg.Voltmeter.Threshold <= 0 {
		return fmt.Errorf("config: [voltmeter] threshold must be > 0")
	}
	if cfg.Voltmeter.Delta < 0 {
		return fmt.Errorf("config: [voltmeter] delta must be >= 0")
	}
	if cfg.Voltmeter.Time <= 0 {
		return fmt.Errorf("config: [voltmeter] time must be > 0")
	}

	if err := validateTODIntervals(cfg.Scheduler.Intervals); err != nil {
		return err
	}

	if cfg.Scheduler.TODPoweroff && len(cfg.Scheduler.Intervals) == 0 {
		return fmt.Errorf("config: [scheduler] poweroff requires at least one interval")
	}

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("config: [mqtt] broker is required")
	}
	if cfg.MQTT.Channel == "" {
		return fmt.Errorf("config: [mqtt] channel is required")
	}

	if cfg.UDP.RxPort != 0 && cfg.UDP.RxPort == cfg.UDP.TxPort {
		return fmt.Errorf("config: [udp] rx_port and tx_port must differ")
	}

	return nil
}

// validateTODIntervals checks non-overlap, sort order, and that the union
// of the intervals covers at least one contiguous 15-minute span.
func validateTODIntervals(intervals []TODInterval) error {
	if len(intervals) == 0 {
		return nil
	}

	for i := 1; i < len(intervals); i++ {
		prev, cur := intervals[i-1], intervals[i]
		if cur.StartMinute < prev.StartMinute {
			return fmt.Errorf("config: [scheduler] intervals must be sorted by start time")
		}
		if cur.StartMinute < prev.EndMinute {
			return fmt.Errorf("config: [scheduler] intervals overlap: %d-%d and %d-%d",
				prev.StartMinute, prev.EndMinute, cur.StartMinute, cur.EndMinute)
		}
	}

	// Back-to-back intervals (one ending where the next starts) form a
	// single contiguous span.
	longest, run := 0, 0
	for i, iv := range intervals {
		if i > 0 && iv.StartMinute == intervals[i-1].EndMinute {
			run += iv.EndMinute - iv.StartMinute
		} else {
			run = iv.EndMinute - iv.StartMinute
		}
		if run > longest {
			longest = run
		}
	}
	if longest < 15 {
		return fmt.Errorf("config: [scheduler] intervals must cover at least one 15-minute span, longest is %d", longest)
	}
	return nil
}
