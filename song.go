package trackerboy

import (
	"fmt"
	"math"
)

// Speed is the number of frames per row as an unsigned Q5.3 fixed point
// number, i.e. 0x30 is 6 frames per row and 0x14 is 2.5 frames per row.
type Speed uint8

const (
	// SpeedFractionBits is the number of fractional bits in a Speed.
	SpeedFractionBits = 3
	// SpeedUnit is a Speed of exactly one frame per row.
	SpeedUnit Speed = 1 << SpeedFractionBits
	// SpeedMin is the slowest allowed fixed point value, 1 frame per row.
	SpeedMin Speed = 0x08
	// SpeedMax is 31.875 frames per row.
	SpeedMax Speed = 0xFF
	// DefaultSpeed is 6 frames per row.
	DefaultSpeed Speed = 0x30
)

// Float returns the speed in frames per row.
func (s Speed) Float() float64 {
	return float64(s) / float64(SpeedUnit)
}

// Valid reports whether the speed is at least one frame per row.
func (s Speed) Valid() bool {
	return s >= SpeedMin
}

func (s Speed) String() string {
	return fmt.Sprintf("%.3f", s.Float())
}

// SpeedFromFloat converts frames per row to the nearest Speed, clamped to
// SpeedMin..SpeedMax.
func SpeedFromFloat(framesPerRow float64) Speed {
	v := math.Round(framesPerRow * float64(SpeedUnit))
	return Speed(min(max(v, float64(SpeedMin)), float64(SpeedMax)))
}

const (
	DefaultRowsPerBeat    = 4
	DefaultRowsPerMeasure = 16
)

// Song is one piece of music in a module: the arrangement (Order) of shared
// tracks (Patterns) and the speed they are played at. RowsPerBeat and
// RowsPerMeasure only affect how the tempo is presented and how the editor
// highlights rows.
type Song struct {
	Name           string
	RowsPerBeat    int
	RowsPerMeasure int
	Speed          Speed
	Order          Order
	Patterns       PatternMaster
}

// NewSong returns an empty song with default settings.
func NewSong() *Song {
	return &Song{
		RowsPerBeat:    DefaultRowsPerBeat,
		RowsPerMeasure: DefaultRowsPerMeasure,
		Speed:          DefaultSpeed,
		Order:          NewOrder(),
		Patterns:       NewPatternMaster(DefaultRows),
	}
}

// Tempo returns the tempo in beats per minute the song plays at, given the
// number of frames played per second.
func (s *Song) Tempo(framerate float64) float64 {
	if s.RowsPerBeat <= 0 || s.Speed == 0 {
		return 0
	}
	return 60 * framerate / (float64(s.RowsPerBeat) * s.Speed.Float())
}

// EstimateSpeed returns the Speed that comes closest to the given tempo.
func EstimateSpeed(tempo float64, rowsPerBeat int, framerate float64) Speed {
	if tempo <= 0 || rowsPerBeat <= 0 {
		return SpeedMax
	}
	return SpeedFromFloat(60 * framerate / (float64(rowsPerBeat) * tempo))
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() *Song {
	ret := *s
	ret.Order = s.Order.Copy()
	ret.Patterns = s.Patterns.Copy()
	return &ret
}
