package proto

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tamzrod/ema-gateway/internal/reading"
)

// Decode parses a status bulletin frame into a reading.Vector. Any field
// that fails range validation is mapped to reading.Missing; the bulletin is
// otherwise still fully decoded (spec.md §4.4: "a value that fails range
// validation is mapped to a sentinel missing without failing the whole
// frame").
func Decode(frame []byte) (reading.Vector, error) {
	if len(frame) != BulletinLen {
		return reading.Vector{}, fmt.Errorf("proto: decode: bad frame length %d, want %d", len(frame), BulletinLen)
	}
	if frame[0] != '(' || frame[len(frame)-1] != ')' {
		return reading.Vector{}, fmt.Errorf("proto: decode: frame not parenthesized")
	}

	var v reading.Vector

	v.Roof = decodeRoof(frame[RoofBegin:RoofEnd][0])
	v.Aux = decodeAux(frame[AuxBegin:AuxEnd][0])
	v.SupplyVoltage = decodeVoltage(frame[VoltBegin:VoltEnd][0])

	v.Rain = decodeScaled(frame[RainBegin:RainEnd], 3, 0.1, 0, 100)
	v.Cloud = decodeScaled(frame[CloudBegin:CloudEnd], 3, 0.1, 0, 100)
	v.AbsPressure = decodeScaled(frame[AbsPressureBegin:AbsPressureEnd], 5, 0.1, 0, 2000)
	v.CalPressure = decodeScaled(frame[CalPressureBegin:CalPressureEnd], 5, 0.1, 0, 2000)

	v.PluvCurrent = decodeScaled(frame[PluvCurrentBegin:PluvCurrentEnd], 4, 0.1, 0, 9999)
	v.PluvAccumulated = decodeRawUint(frame[PluvAccumulatedBegin:PluvAccumulatedEnd])

	v.Pyranometer = decodeScaled(frame[PyranoBegin:PyranoEnd], 3, 0.1, 0, 100)
	v.PhotometerFreq = decodeFreq(frame[PhotoBegin:PhotoEnd])

	v.Temperature = decodeScaled(frame[TempBegin:TempEnd], 4, 0.1, -500, 600)
	v.Humidity = decodeScaled(frame[HumBegin:HumEnd], 3, 0.1, 0, 100)
	v.DewPoint = decodeScaled(frame[DewBegin:DewEnd], 4, 0.1, -500, 600)

	v.WindSpeed = decodeScaled(frame[WindCurBegin:WindCurEnd], 4, 0.1, 0, 999)
	v.WindAverage10 = int(decodeRawUint(frame[WindAvgBegin:WindAvgEnd]))
	v.WindDir = int(decodeRawUint(frame[WindDirBegin:WindDirEnd]))

	return v, nil
}

func decodeRoof(b byte) reading.RelayState {
	if b == 'C' {
		return reading.RelayClosed
	}
	return reading.RelayOpen
}

func decodeAux(b byte) reading.RelayState {
	if b == 'E' || b == 'e' {
		return reading.RelayOpen
	}
	return reading.RelayClosed
}

// decodeVoltage interprets the raw byte as ord(byte)*0.1 volts, matching the
// device's packing of supply voltage into a single non-ASCII byte.
func decodeVoltage(b byte) float64 {
	return math.Round(float64(b)*0.1*10) / 10
}

// decodeScaled parses a fixed-width decimal digit run, scales it, and
// validates it against [lo, hi]; out-of-range or unparsable fields become
// reading.Missing.
func decodeScaled(digits []byte, width int, scale, lo, hi float64) float64 {
	if len(digits) != width {
		return reading.Missing
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return reading.Missing
	}
	val := math.Round(float64(n)*scale*10) / 10
	if val < lo || val > hi {
		return reading.Missing
	}
	return val
}

func decodeRawUint(digits []byte) uint32 {
	n, err := strconv.ParseUint(string(digits), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// decodeFreq decodes the EMMMM photometer frequency encoding: the first
// digit is a power-of-ten exponent biased by -3, the remaining four are the
// mantissa. Returns the frequency in Hz.
func decodeFreq(enc []byte) float64 {
	if len(enc) != 5 {
		return reading.Missing
	}
	exp, err := strconv.Atoi(string(enc[0:1]))
	if err != nil {
		return reading.Missing
	}
	mant, err := strconv.Atoi(string(enc[1:5]))
	if err != nil {
		return reading.Missing
	}
	return math.Round(float64(mant)*math.Pow(10, float64(exp-3))*1000) / 1000
}
