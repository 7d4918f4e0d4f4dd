package proto

import "testing"

// synthetic bulletin built field-by-field per the offsets in layout.go.
// volt byte is 'y' (121) -> 12.1V.
const sampleBulletin = "(" +
	"C" + "C" + "y" + "0" +
	"010" + "0" +
	"020" + "0" +
	"09500" + "0" +
	"09500" + "0" +
	"0000" + "0" +
	"0012" + "0" +
	"000" + "0" +
	"30230" + "0" +
	"0200" + "0" +
	"500" + "0" +
	"0100" +
	"000000" +
	"005" + "0" +
	"0100" + "0" +
	"180" + "0" +
	"a" +
	"0001" +
	")"

func TestSampleBulletinLength(t *testing.T) {
	if len(sampleBulletin) != BulletinLen {
		t.Fatalf("fixture length = %d, want %d", len(sampleBulletin), BulletinLen)
	}
}

func TestIsStatusBulletin(t *testing.T) {
	if !IsStatusBulletin([]byte(sampleBulletin)) {
		t.Fatalf("expected sample bulletin to be recognized")
	}
	if IsStatusBulletin([]byte("(F012)")) {
		t.Fatalf("short command response must not be recognized as a bulletin")
	}
}

func TestDecode(t *testing.T) {
	v, err := Decode([]byte(sampleBulletin))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if v.SupplyVoltage != 12.1 {
		t.Errorf("SupplyVoltage = %v, want 12.1", v.SupplyVoltage)
	}
	if v.Rain != 1.0 {
		t.Errorf("Rain = %v, want 1.0", v.Rain)
	}
	if v.Cloud != 2.0 {
		t.Errorf("Cloud = %v, want 2.0", v.Cloud)
	}
	if v.CalPressure != 950.0 || v.AbsPressure != 950.0 {
		t.Errorf("pressures = %v/%v, want 950.0/950.0", v.CalPressure, v.AbsPressure)
	}
	if v.PluvAccumulated != 12 {
		t.Errorf("PluvAccumulated = %v, want 12", v.PluvAccumulated)
	}
	if v.PhotometerFreq != 230.0 {
		t.Errorf("PhotometerFreq = %v, want 230.0", v.PhotometerFreq)
	}
	if v.Temperature != 20.0 {
		t.Errorf("Temperature = %v, want 20.0", v.Temperature)
	}
	if v.Humidity != 50.0 {
		t.Errorf("Humidity = %v, want 50.0", v.Humidity)
	}
	if v.DewPoint != 10.0 {
		t.Errorf("DewPoint = %v, want 10.0", v.DewPoint)
	}
	if v.WindAverage10 != 5 {
		t.Errorf("WindAverage10 = %v, want 5", v.WindAverage10)
	}
	if v.WindSpeed != 10.0 {
		t.Errorf("WindSpeed = %v, want 10.0", v.WindSpeed)
	}
	if v.WindDir != 180 {
		t.Errorf("WindDir = %v, want 180", v.WindDir)
	}
	if v.Roof.String() != "Closed" {
		t.Errorf("Roof = %v, want Closed", v.Roof)
	}
	if v.Aux.String() != "Closed" {
		t.Errorf("Aux = %v, want Closed", v.Aux)
	}
}

func TestDecode_BadLength(t *testing.T) {
	if _, err := Decode([]byte("(short)")); err == nil {
		t.Fatalf("expected error for short frame")
	}
}
