package instrument

import (
	"testing"
	"time"

	"github.com/tamzrod/ema-gateway/internal/reading"
)

func TestVoltmeter_AlarmOnSustainedLowAverage(t *testing.T) {
	// threshold=12.0, delta=0.5 -> lowVolt=12.5; average over 3 samples.
	vm := NewVoltmeter(12.0, 0, 0.5, 3*time.Second, time.Second)

	now := time.Now()
	for _, v := range []float64{12.0, 12.0, 12.0} {
		vm.Update(reading.Vector{SupplyVoltage: v}, now)
	}

	alarm, active := vm.Alarm()
	if !active {
		t.Fatalf("expected low-voltage alarm to be active")
	}
	if alarm.Name != "VoltageLow" {
		t.Errorf("alarm name = %q, want VoltageLow", alarm.Name)
	}
	if alarm.Fields["threshold"] != "12.50" {
		t.Errorf("threshold field = %q, want 12.50", alarm.Fields["threshold"])
	}
	wantArgs := []string{"-v", "12.00", "-t", "12.50", "-s", "3"}
	if len(alarm.Args) != len(wantArgs) {
		t.Fatalf("args = %v, want %v", alarm.Args, wantArgs)
	}
	for i, a := range wantArgs {
		if alarm.Args[i] != a {
			t.Fatalf("args = %v, want %v", alarm.Args, wantArgs)
		}
	}
}

func TestVoltmeter_NoAlarmAboveThreshold(t *testing.T) {
	vm := NewVoltmeter(12.0, 0, 0.5, 3*time.Second, time.Second)

	now := time.Now()
	for _, v := range []float64{13.0, 13.0, 13.0} {
		vm.Update(reading.Vector{SupplyVoltage: v}, now)
	}

	if _, active := vm.Alarm(); active {
		t.Fatalf("expected no alarm above threshold")
	}
}

func TestVoltmeter_MissingSampleExcludedFromWindow(t *testing.T) {
	vm := NewVoltmeter(12.0, 0, 0.5, 2*time.Second, time.Second)

	now := time.Now()
	vm.Update(reading.Vector{SupplyVoltage: reading.Missing}, now)
	vm.Update(reading.Vector{SupplyVoltage: 13.0}, now)

	snap := vm.Snapshot()
	if snap.Average != 13.0 {
		t.Fatalf("average = %v, want 13.0 (missing sample must not enter the window)", snap.Average)
	}
}

func TestRelay_ChangedFlagsEdges(t *testing.T) {
	r := NewRelay("roof_relay", func(v reading.Vector) reading.RelayState { return v.Roof })

	r.Update(reading.Vector{Roof: reading.RelayClosed}, time.Now())
	if !r.Changed() {
		t.Errorf("first update from unknown should count as a change")
	}

	r.Update(reading.Vector{Roof: reading.RelayClosed}, time.Now())
	if r.Changed() {
		t.Errorf("repeated same state should not count as a change")
	}

	r.Update(reading.Vector{Roof: reading.RelayOpen}, time.Now())
	if !r.Changed() {
		t.Errorf("state flip should count as a change")
	}
}
