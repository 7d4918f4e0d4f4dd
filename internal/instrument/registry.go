package instrument

import (
	"time"

	"github.com/tamzrod/ema-gateway/internal/config"
	"github.com/tamzrod/ema-gateway/internal/reading"
)

// BulletinPeriod is the ~1Hz cadence status bulletins arrive at, used to
// convert a config'd averaging window in seconds to a sample count.
const BulletinPeriod = time.Second

// Build constructs one Instrument per configured channel, in the fixed
// order spec.md §5 lists them so EMA/register enumerates channels
// deterministically.
func Build(cfg *config.Config) []Instrument {
	instruments := []Instrument{
		NewVoltmeter(cfg.Voltmeter.Threshold, cfg.Voltmeter.Offset, cfg.Voltmeter.Delta,
			timeOrDefault(cfg.Voltmeter.Time, cfg.EMA.UploadPeriod), BulletinPeriod),

		NewSimple("anemometer", "km/h", func(v reading.Vector) float64 { return v.WindSpeed }, 0),
		NewSimple("barometer", "hPa", func(v reading.Vector) float64 { return v.CalPressure }, 0),
		NewSimple("cloud_sensor", "%", func(v reading.Vector) float64 { return v.Cloud }, 0),
		NewSimple("photometer", "Hz", func(v reading.Vector) float64 { return v.PhotometerFreq }, 0),
		NewSimple("pluviometer", "mm", func(v reading.Vector) float64 { return v.PluvCurrent }, 0),
		NewSimple("pyranometer", "%", func(v reading.Vector) float64 { return v.Pyranometer }, 0),
		NewSimple("rain_sensor", "%", func(v reading.Vector) float64 { return v.Rain }, 0),
		NewSimple("thermometer", "degC", func(v reading.Vector) float64 { return v.Temperature }, 0),
		NewSimple("thermopile", "degC", func(v reading.Vector) float64 { return v.DewPoint }, 0),

		NewRelay("roof_relay", func(v reading.Vector) reading.RelayState { return v.Roof }),
		NewRelay("aux_relay", func(v reading.Vector) reading.RelayState { return v.Aux }),
	}
	return instruments
}

func timeOrDefault(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}
