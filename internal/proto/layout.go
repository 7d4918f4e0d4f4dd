// Package proto holds the EMA wire protocol's fixed-width status bulletin
// layout and the regex used to recognize one on the wire. Offsets are
// 0-based into the frame including the leading '(' so they read the same
// way the original device firmware's C offsets do.
package proto

import "regexp"

// BulletinLen is the fixed length of a status bulletin, parens included.
const BulletinLen = 83

// Field offsets. "...End" is one past the last character used, so it can be
// used directly as a slice upper bound (frame[Begin:End]).
const (
	RoofBegin, RoofEnd = 1, 2
	AuxBegin, AuxEnd   = 2, 3
	VoltBegin, VoltEnd = 3, 4 // raw byte, not ASCII digits

	RainBegin, RainEnd = 5, 8
	CloudBegin, CloudEnd = 9, 12

	CalPressureBegin, CalPressureEnd = 13, 18
	AbsPressureBegin, AbsPressureEnd = 19, 24

	PluvCurrentBegin, PluvCurrentEnd         = 25, 29
	PluvAccumulatedBegin, PluvAccumulatedEnd = 30, 34

	PyranoBegin, PyranoEnd = 35, 38
	PhotoBegin, PhotoEnd   = 39, 44

	TempBegin, TempEnd = 45, 49
	HumBegin, HumEnd   = 50, 53
	DewBegin, DewEnd   = 54, 58

	WindAvgBegin, WindAvgEnd = 64, 67
	WindCurBegin, WindCurEnd = 68, 72
	WindDirBegin, WindDirEnd = 73, 76

	MsgTypeBegin, MsgTypeEnd = 77, 78
	FlashPageBegin, FlashPageEnd = 78, 82
)

// Message type byte values (index MsgTypeBegin).
const (
	MsgTypeCurrent  = 'a'
	MsgTypeHistoric = 't'
	MsgTypeIsolated = '0'
	MsgTypeMinima   = 'm'
	MsgTypeMaxima   = 'M'
)

// bulletinPattern recognizes the fixed status-bulletin shape: a run of 83
// bytes opening with '(' and closing with ')', built from field-width
// character classes rather than a blanket ".*" so that a non-bulletin
// parenthesized response of the same rough length cannot be mistaken for
// one. Filler byte positions (protocol padding of unknown purpose) are
// matched permissively.
var bulletinPattern = regexp.MustCompile(
	`^\(` +
		`.` + // roof
		`.` + // aux
		`.` + // volt (raw byte)
		`.` + // filler
		`[0-9]{3}` + // rain
		`.` + // filler
		`[0-9]{3}` + // cloud
		`.` + // filler
		`[0-9]{5}` + // cal pressure
		`.` + // filler
		`[0-9]{5}` + // abs pressure
		`.` + // filler
		`[0-9]{4}` + // pluv current
		`.` + // filler
		`[0-9]{4}` + // pluv accumulated
		`.` + // filler
		`[0-9]{3}` + // pyranometer
		`.` + // filler
		`[0-9]{5}` + // photometer
		`.` + // filler
		`[0-9]{4}` + // temp
		`.` + // filler
		`[0-9]{3}` + // humidity
		`.` + // filler
		`[0-9]{4}` + // dew point
		`.{6}` + // filler
		`[0-9]{3}` + // wind average
		`.` + // filler
		`[0-9]{4}` + // wind current
		`.` + // filler
		`[0-9]{3}` + // wind direction
		`.` + // filler
		`[a-zA-Z0-9]` + // message type
		`[0-9]{4}` + // flash page
		`\)$`,
)

// IsStatusBulletin reports whether frame matches the fixed status-bulletin
// shape. Non-matching frames are command responses.
func IsStatusBulletin(frame []byte) bool {
	return len(frame) == BulletinLen && bulletinPattern.Match(frame)
}
