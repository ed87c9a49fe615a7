package tracker

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/engine"
)

const (
	midiTicksPerBeat = 960
	midiNoteOffset   = 36 // C-2
	midiVelocity     = 100
	midiDrumChannel  = 9
)

// WriteMIDI plays a song of m the given number of loops and writes the notes
// as a type 1 Standard MIDI File: a tempo track followed by one track per
// channel. The noise channel goes to the General MIDI drum channel.
func WriteMIDI(w io.Writer, m *trackerboy.Module, songIndex int, loops int) error {
	song := m.Song(songIndex)
	if song == nil {
		return fmt.Errorf("midi export song %d: %w", songIndex, ErrNoSuchSong)
	}
	e := engine.New(nullSynth{})
	e.SetModule(m)
	e.SetSong(song)
	player := NewPlayer(e)
	player.StartLoop(loops)

	framesPerBeat := float64(max(song.RowsPerBeat, 1)) * song.Speed.Float()
	ticksPerFrame := midiTicksPerBeat / framesPerBeat

	var tracks [trackerboy.NumChannels]midiTrack
	for ch := range tracks {
		tracks[ch].channel = uint8(ch)
		tracks[ch].key = -1
		if trackerboy.ChType(ch) == trackerboy.Ch4 {
			tracks[ch].channel = midiDrumChannel
		}
		tracks[ch].Add(0, smf.MetaTrackSequenceName(trackerboy.ChType(ch).String()))
	}
	frames := 0
	for player.Step() {
		frame := player.Frame()
		if frame.StartedNewRow {
			tick := uint32(math.Round(float64(frames) * ticksPerFrame))
			pattern := song.Patterns.Pattern(song.Order.Get(frame.Order))
			for ch := range tracks {
				row := pattern.Row(trackerboy.ChType(ch), frame.Row)
				if note, ok := row.QueryNote(); ok {
					tracks[ch].note(tick, note)
				}
			}
		}
		frames++
	}
	end := uint32(math.Round(float64(frames) * ticksPerFrame))

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(midiTicksPerBeat)
	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(song.Tempo(m.Framerate())))
	tempo.Close(end)
	if err := s.Add(tempo); err != nil {
		return fmt.Errorf("midi export: %w", err)
	}
	for ch := range tracks {
		t := &tracks[ch]
		t.release(end)
		t.Close(end - t.last)
		if err := s.Add(t.Track); err != nil {
			return fmt.Errorf("midi export: %w", err)
		}
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("midi export: %w", err)
	}
	return nil
}

type midiTrack struct {
	smf.Track
	channel uint8
	last    uint32 // absolute tick of the last event
	key     int    // key being held, -1 for none
}

// note handles the note column of a row at an absolute tick.
func (t *midiTrack) note(tick uint32, note uint8) {
	t.release(tick)
	if note > trackerboy.NoteLast {
		return
	}
	t.key = midiNoteOffset + int(note)
	t.Add(tick-t.last, midi.NoteOn(t.channel, uint8(t.key), midiVelocity))
	t.last = tick
}

func (t *midiTrack) release(tick uint32) {
	if t.key < 0 {
		return
	}
	t.Add(tick-t.last, midi.NoteOff(t.channel, uint8(t.key)))
	t.last = tick
	t.key = -1
}

// nullSynth discards everything the engine writes.
type nullSynth struct{}

func (nullSynth) SetFrequency(trackerboy.ChType, uint16) {}
func (nullSynth) SetTimbre(trackerboy.ChType, uint8) {}
func (nullSynth) SetEnvelope(trackerboy.ChType, uint8) {}
func (nullSynth) SetWaveform([trackerboy.WaveformSize]byte) {}
func (nullSynth) SetPanning(trackerboy.ChType, uint8) {}
func (nullSynth) SetOutputEnable(trackerboy.ChType, bool) {}
func (nullSynth) SetSweep(uint8) {}
func (nullSynth) SetVolume(uint8, uint8) {}
func (nullSynth) Restart(trackerboy.ChType) {}
