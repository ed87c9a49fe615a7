// Package engine is the sequencer: it walks the order of a song, plays the
// rows of its tracks and writes the resulting channel parameters to a Synth,
// one frame per call to Step.
//
// The engine reads the module it plays but never modifies it. Step must be
// called with the module locked against edits; nothing else in this package
// takes locks.
package engine

import "github.com/stoneface86/trackerboy-sub003"

// Frame describes what happened during one call to Engine.Step.
type Frame struct {
	Halted            bool // playback is stopped
	StartedNewRow     bool // a row was loaded this frame
	StartedNewPattern bool // a pattern was loaded this frame
	Order             int  // position in the order
	Row               int  // row in the pattern
	Speed             trackerboy.Speed
	Time              int // frames since playback started
}

// Engine plays a song of a module on a Synth.
type Engine struct {
	synth   Synth
	module  *trackerboy.Module
	song    *trackerboy.Song
	pattern *PatternRuntime

	playing    bool
	order      int
	newPattern bool
	time       int
}

// New returns a stopped engine writing to synth.
func New(synth Synth) *Engine {
	return &Engine{
		synth:   synth,
		pattern: NewPatternRuntime(trackerboy.DefaultSpeed),
	}
}

// SetModule sets the module whose instruments and waveforms are used. It
// stops playback if the current song is not part of m.
func (e *Engine) SetModule(m *trackerboy.Module) {
	e.module = m
	if m == nil {
		e.Halt()
		return
	}
	for _, s := range m.Songs {
		if s == e.song {
			return
		}
	}
	e.Halt()
}

// Module returns the module set with SetModule.
func (e *Engine) Module() *trackerboy.Module { return e.module }

// Song returns the song being played, nil if none.
func (e *Engine) Song() *trackerboy.Song { return e.song }

// SetSong starts playing song from the beginning. A nil song stops playback.
func (e *Engine) SetSong(song *trackerboy.Song) {
	e.song = song
	e.Play(0, 0)
}

// Rebind switches to another module and song without interrupting playback,
// for when the module being played was swapped for a copy of itself (an undo
// step, a reload). The position and the track states carry over; a position
// beyond the new song ends the pattern early. Tracks keep their instrument
// bindings, resolved against the new instrument table. A nil module or song
// stops playback.
func (e *Engine) Rebind(m *trackerboy.Module, song *trackerboy.Song) {
	e.module = m
	e.song = song
	if m == nil || song == nil {
		e.Halt()
		return
	}
	for ch := range trackerboy.NumChannels {
		e.pattern.Track(trackerboy.ChType(ch)).rebind(&m.Instruments)
	}
	if e.playing && e.order >= song.Order.Len() {
		e.load(0, 0)
	}
}

// Play starts playback of the current song at the given position, which is
// clamped to the song. Without a song it stops playback.
func (e *Engine) Play(order, row int) {
	if e.song == nil {
		e.Halt()
		return
	}
	e.pattern.ResetTracks()
	e.pattern.SetSpeed(e.song.Speed)
	e.synth.SetVolume(7, 7)
	e.playing = true
	e.time = 0
	e.load(order, row)
}

// Halt stops playback. The channels are silenced on the next Step.
func (e *Engine) Halt() {
	if e.playing {
		e.pattern.ResetTracks()
	}
	e.playing = false
}

// IsPlaying reports whether a song is playing.
func (e *Engine) IsPlaying() bool { return e.playing }

// Position returns the current order position and row.
func (e *Engine) Position() (order, row int) {
	return e.order, e.pattern.Row()
}

// Track returns the runtime of a channel, for inspection.
func (e *Engine) Track(ch trackerboy.ChType) *TrackRuntime {
	return e.pattern.Track(ch)
}

func (e *Engine) load(order, row int) {
	e.order = min(max(order, 0), e.song.Order.Len()-1)
	e.pattern.Reset(min(row, e.song.Patterns.Rows()-1))
	e.newPattern = true
}

// Step plays one frame.
func (e *Engine) Step() Frame {
	if !e.playing || e.song == nil {
		e.playing = false
		// flush a pending output disable
		e.stepTracks()
		return Frame{Halted: true, Order: e.order, Row: e.pattern.Row(), Speed: e.pattern.Speed(), Time: e.time}
	}
	song := e.song
	if e.order >= song.Order.Len() {
		e.load(0, 0)
	}
	status := e.stepPattern()
	switch status {
	case StatusNext:
		e.load((e.order+1)%song.Order.Len(), 0)
		status = e.stepPattern()
	case StatusJump:
		order, row := e.pattern.Jump()
		if order < 0 {
			order = (e.order + 1) % song.Order.Len()
		}
		e.load(order, row)
		status = e.stepPattern()
	}
	frame := Frame{
		StartedNewRow:     e.pattern.StartedNewRow(),
		StartedNewPattern: e.newPattern,
		Order:             e.order,
		Row:               e.pattern.Row(),
		Speed:             e.pattern.Speed(),
		Time:              e.time,
	}
	if status == StatusHalt {
		e.Halt()
		e.stepTracks()
		frame.Halted = true
		frame.StartedNewPattern = false
		return frame
	}
	if v, ok := e.pattern.globalVolume(); ok {
		e.synth.SetVolume(min(v>>4, 7), min(v&0xF, 7))
	}
	e.newPattern = false
	e.time++
	return frame
}

func (e *Engine) stepPattern() Status {
	song := e.song
	pattern := song.Patterns.Pattern(song.Order.Get(e.order))
	instruments, waveforms := e.tables()
	return e.pattern.Step(pattern, song.Patterns.Rows(), e.synth, instruments, waveforms)
}

func (e *Engine) stepTracks() {
	instruments, waveforms := e.tables()
	for ch := range trackerboy.NumChannels {
		e.pattern.Track(trackerboy.ChType(ch)).Step(e.synth, instruments, waveforms)
	}
}

func (e *Engine) tables() (*trackerboy.Table[trackerboy.Instrument], *trackerboy.Table[trackerboy.Waveform]) {
	if e.module == nil {
		return nil, nil
	}
	return &e.module.Instruments, &e.module.Waveforms
}
