package instrument

import (
	"fmt"
	"time"

	"github.com/tamzrod/ema-gateway/internal/reading"
)

// Voltmeter tracks supply voltage and raises a low-voltage alarm when the
// rolling average drops below threshold+delta, grounded on
// original_source/ema/dev/voltmeter.py's onStatus/lowvolt logic.
type Voltmeter struct {
	window   *window
	averageN int
	lowVolt  float64 // threshold + delta
	threshold float64
	offset    float64

	lastAt    time.Time
	lastValid bool

	alarmActive bool
}

// NewVoltmeter builds a Voltmeter. period is the bulletin period (1s);
// averageTime is volt_time from config, converted to a sample count the
// same way the original divides time by PERIOD.
func NewVoltmeter(threshold, offset, delta float64, averageTime, period time.Duration) *Voltmeter {
	n := int(averageTime / period)
	if n < 1 {
		n = 1
	}
	return &Voltmeter{
		window:    newWindow(0),
		averageN:  n,
		lowVolt:   threshold + delta,
		threshold: threshold,
		offset:    offset,
	}
}

func (vm *Voltmeter) ID() string { return "voltmeter" }

func (vm *Voltmeter) Update(v reading.Vector, at time.Time) {
	vm.lastAt = at
	vm.lastValid = !reading.IsMissing(v.SupplyVoltage)
	vm.window.push(v.SupplyVoltage)

	avg, n := vm.window.average(vm.averageN)
	if n == 0 {
		return
	}
	vm.alarmActive = avg < vm.lowVolt
}

func (vm *Voltmeter) Snapshot() Snapshot {
	cur, ok := vm.window.newest()
	avg, n := vm.window.average(vm.averageN)
	return Snapshot{
		Current: cur,
		Average: avg,
		Unit:    "V",
		At:      vm.lastAt,
		Missing: !ok || n == 0 || !vm.lastValid,
	}
}

func (vm *Voltmeter) Parameters() Parameters {
	return Parameters{
		"threshold": vm.threshold,
		"offset":    vm.offset,
	}
}

// Alarm reports the active low-voltage condition, if any, with its argv
// built in the fixed order spec.md §3 requires: "-v <voltage> -t
// <threshold> -s <size>", voltage and threshold to two decimals.
func (vm *Voltmeter) Alarm() (Alarm, bool) {
	if !vm.alarmActive {
		return Alarm{}, false
	}
	avg, n := vm.window.average(vm.averageN)
	voltage := fmt.Sprintf("%.2f", avg)
	threshold := fmt.Sprintf("%.2f", vm.lowVolt)
	size := fmt.Sprintf("%d", n)
	return Alarm{
		Name: "VoltageLow",
		Args: []string{"-v", voltage, "-t", threshold, "-s", size},
		Fields: map[string]string{
			"voltage":   voltage,
			"threshold": threshold,
			"size":      size,
		},
	}, true
}
