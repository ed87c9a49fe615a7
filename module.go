package trackerboy

import "slices"

// System is the hardware the module targets, which determines the framerate.
type System uint8

const (
	// DMG is the original Game Boy, 59.7 frames per second.
	DMG System = iota
	// SGB is the Super Game Boy, 61.2 frames per second.
	SGB
	// Custom uses the module's CustomFramerate.
	Custom
)

const (
	// ClockSpeed is the number of hardware cycles per second.
	ClockSpeed = 4194304
	// CyclesPerVblank is the number of cycles between two vertical blanks.
	CyclesPerVblank = 70224

	// DMGFramerate is the vblank rate of a DMG.
	DMGFramerate = float64(ClockSpeed) / CyclesPerVblank
	// SGBFramerate is the vblank rate of the SGB, whose clock runs slightly
	// faster.
	SGBFramerate = 4295454.0 / CyclesPerVblank

	// DefaultCustomFramerate is the default timer rate for System Custom.
	DefaultCustomFramerate = 30

	// MaxSongs is the maximum number of songs in a module.
	MaxSongs = 256
)

func (s System) String() string {
	switch s {
	case DMG:
		return "DMG"
	case SGB:
		return "SGB"
	case Custom:
		return "custom"
	}
	return "invalid"
}

// Module is the document edited by the tracker: some metadata, one or more
// songs, and the instruments and waveforms shared by all songs.
type Module struct {
	Title     string
	Artist    string
	Copyright string
	Comments  string

	System          System
	CustomFramerate uint16

	Songs       []*Song
	Instruments Table[Instrument]
	Waveforms   Table[Waveform]
}

// NewModule returns a module with one empty song.
func NewModule() *Module {
	m := &Module{}
	m.Reset()
	return m
}

// Reset clears the module back to the state of NewModule.
func (m *Module) Reset() {
	*m = Module{
		CustomFramerate: DefaultCustomFramerate,
		Songs:           []*Song{NewSong()},
	}
}

// Framerate returns the number of frames played per second.
func (m *Module) Framerate() float64 {
	switch m.System {
	case SGB:
		return SGBFramerate
	case Custom:
		if m.CustomFramerate == 0 {
			return DefaultCustomFramerate
		}
		return float64(m.CustomFramerate)
	}
	return DMGFramerate
}

// Song returns the song at index, or nil if out of range.
func (m *Module) Song(index int) *Song {
	if index < 0 || index >= len(m.Songs) {
		return nil
	}
	return m.Songs[index]
}

// AddSong appends a song, returning its index.
func (m *Module) AddSong(s *Song) (int, error) {
	if len(m.Songs) >= MaxSongs {
		return 0, ErrTooManySongs
	}
	m.Songs = append(m.Songs, s)
	return len(m.Songs) - 1, nil
}

// RemoveSong deletes the song at index. A module always keeps one song.
func (m *Module) RemoveSong(index int) error {
	if len(m.Songs) <= 1 {
		return ErrLastSong
	}
	if index < 0 || index >= len(m.Songs) {
		return nil
	}
	m.Songs = slices.Delete(m.Songs, index, index+1)
	return nil
}

// DuplicateInstrument copies an instrument into the next free id.
func (m *Module) DuplicateInstrument(id uint8) (uint8, error) {
	inst := m.Instruments.Get(id)
	if inst == nil {
		return 0, ErrInvalidID
	}
	return m.Instruments.Insert(inst.Copy())
}

// DuplicateWaveform copies a waveform into the next free id.
func (m *Module) DuplicateWaveform(id uint8) (uint8, error) {
	w := m.Waveforms.Get(id)
	if w == nil {
		return 0, ErrInvalidID
	}
	return m.Waveforms.Insert(w.Copy())
}

// Copy makes a deep copy of a Module.
func (m *Module) Copy() *Module {
	ret := *m
	ret.Songs = make([]*Song, len(m.Songs))
	for i, s := range m.Songs {
		ret.Songs[i] = s.Copy()
	}
	ret.Instruments = Table[Instrument]{}
	for id, inst := range m.Instruments.All {
		ret.Instruments.InsertAt(id, inst.Copy())
	}
	ret.Waveforms = Table[Waveform]{}
	for id, w := range m.Waveforms.All {
		ret.Waveforms.InsertAt(id, w.Copy())
	}
	return &ret
}
