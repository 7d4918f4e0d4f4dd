package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// The voltmeter's sliding-average window is not rounded to the upload
	// period (the device emits at ~1Hz regardless of upload_period); a
	// non-positive window is replaced by upload_period.
	if cfg.Voltmeter.Time <= 0 {
		cfg.Voltmeter.Time = cfg.EMA.UploadPeriod
	}

	if cfg.Web.DiagAddr == "" {
		cfg.Web.DiagAddr = "127.0.0.1:8090"
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "ema-gateway"
	}
}
