package trackerboy

import "errors"

// ChType identifies one of the four channels of the sound generator. Channels
// 1 and 2 are pulse channels (only channel 1 has a frequency sweep), channel 3
// plays a 32-sample wavetable and channel 4 is the noise channel.
type ChType uint8

const (
	Ch1 ChType = iota
	Ch2
	Ch3
	Ch4
)

// NumChannels is the number of channels, and thus the number of tracks in a
// pattern.
const NumChannels = 4

var channelNames = [NumChannels]string{"pulse 1", "pulse 2", "wave", "noise"}

func (c ChType) String() string {
	if c >= NumChannels {
		return "invalid"
	}
	return channelNames[c]
}

// Valid reports whether c names one of the four channels.
func (c ChType) Valid() bool {
	return c < NumChannels
}

var (
	// ErrTableFull is returned when inserting into a table that has no free ids.
	ErrTableFull = errors.New("table is full")
	// ErrInvalidID is returned when an id is out of range or already taken.
	ErrInvalidID = errors.New("invalid or occupied id")
	// ErrOrderFull is returned when the order would exceed MaxOrderSize rows.
	ErrOrderFull = errors.New("order is full")
	// ErrOrderEmpty is returned when the order would be left with no rows.
	ErrOrderEmpty = errors.New("order must contain at least one row")
	// ErrLastSong is returned when removing the only song of a module.
	ErrLastSong = errors.New("cannot remove the last song")
	// ErrTooManySongs is returned when a module would exceed MaxSongs songs.
	ErrTooManySongs = errors.New("too many songs")
	// ErrSequenceTooLong is returned when a sequence would exceed
	// MaxSequenceSize steps.
	ErrSequenceTooLong = errors.New("sequence too long")
	// ErrLoopOutOfRange is returned when a loop index is not within the
	// sequence.
	ErrLoopOutOfRange = errors.New("loop index out of range")
	// ErrRowCount is returned for a row count outside 1..MaxRows.
	ErrRowCount = errors.New("row count out of range")
	// ErrInvalidChannel is returned for a channel outside Ch1..Ch4.
	ErrInvalidChannel = errors.New("invalid channel")
)
