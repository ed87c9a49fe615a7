package engine

import "github.com/stoneface86/trackerboy-sub003"

type trackState uint8

const (
	trackStopped trackState = iota
	trackStoppedDisableMixer
	trackPlayingEnableMixer
	trackPlaying
)

// TrackRuntime plays the rows of one channel's track. Rows are handed to it
// with SetRow; Step then writes the resulting channel state to the synth once
// per frame. References to missing instruments or waveforms and out of range
// notes are ignored.
type TrackRuntime struct {
	ch    trackerboy.ChType
	state trackState

	cs      ChannelState
	written ChannelState
	fresh   bool // nothing written to the synth yet

	instrumentID int // -1 for none
	instrument   *trackerboy.Instrument
	ir           InstrumentRuntime
	fc           FrequencyControl

	envelope     uint8 // persistent, set by Exx
	sweep        int   // pending sweep register, -1 for none
	cutCounter   int   // frames until a delayed cut, -1 for none
	delayCounter int   // frames until a delayed row, -1 for none
	delayedRow   trackerboy.TrackRow
}

// NewTrackRuntime returns a stopped track for channel ch.
func NewTrackRuntime(ch trackerboy.ChType) TrackRuntime {
	t := TrackRuntime{ch: ch, fc: NewFrequencyControl(ch)}
	t.Reset()
	return t
}

// Reset stops the track and restores the channel defaults. On the next Step
// the channel output is disabled.
func (t *TrackRuntime) Reset() {
	t.cs = DefaultChannelState(t.ch)
	t.envelope = t.cs.Envelope
	t.fresh = true
	t.instrumentID = -1
	t.instrument = nil
	t.ir = InstrumentRuntime{}
	t.fc.Reset()
	t.sweep = -1
	t.cutCounter = -1
	t.delayCounter = -1
	t.state = trackStoppedDisableMixer
}

// Channel returns the channel the track plays on.
func (t *TrackRuntime) Channel() trackerboy.ChType { return t.ch }

// IsPlaying reports whether a note is playing.
func (t *TrackRuntime) IsPlaying() bool {
	return t.state == trackPlaying || t.state == trackPlayingEnableMixer
}

// State returns the channel state computed by the last Step.
func (t *TrackRuntime) State() ChannelState { return t.cs }

// InstrumentID returns the id of the bound instrument, ok is false if none.
func (t *TrackRuntime) InstrumentID() (id uint8, ok bool) {
	if t.instrumentID < 0 {
		return 0, false
	}
	return uint8(t.instrumentID), true
}

// SetRow loads a row. A Gxx effect postpones the whole row by xx frames.
func (t *TrackRuntime) SetRow(row trackerboy.TrackRow, instruments *trackerboy.Table[trackerboy.Instrument]) {
	t.delayCounter = -1
	for _, e := range row.Effects {
		if e.Type == trackerboy.DelayedNote && e.Param > 0 {
			t.delayCounter = int(e.Param)
			t.delayedRow = row
			return
		}
	}
	t.apply(row, instruments)
}

// rebind looks the bound instrument up again in instruments. If the id is
// gone the old instrument stays bound.
func (t *TrackRuntime) rebind(instruments *trackerboy.Table[trackerboy.Instrument]) {
	if t.instrumentID < 0 {
		return
	}
	if inst := instruments.Get(uint8(t.instrumentID)); inst != nil {
		t.instrument = inst
	}
}

func (t *TrackRuntime) apply(row trackerboy.TrackRow, instruments *trackerboy.Table[trackerboy.Instrument]) {
	if id, ok := row.QueryInstrument(); ok && int(id) != t.instrumentID && instruments != nil {
		if inst := instruments.Get(id); inst != nil {
			t.instrumentID = int(id)
			t.instrument = inst
		}
	}
	for _, e := range row.Effects {
		t.applyEffect(e)
	}
	note, ok := row.QueryNote()
	switch {
	case !ok:
	case note == trackerboy.NoteCut:
		t.cut()
	case note <= trackerboy.NoteLast:
		t.trigger(note)
	}
}

func (t *TrackRuntime) applyEffect(e trackerboy.Effect) {
	switch e.Type {
	case trackerboy.SetEnvelope:
		t.envelope = e.Param
	case trackerboy.SetTimbre:
		t.cs.Timbre = min(e.Param, maxTimbre[t.ch])
	case trackerboy.SetPanning:
		var p uint8
		if e.Param&0xF0 != 0 {
			p |= 1
		}
		if e.Param&0x0F != 0 {
			p |= 2
		}
		t.cs.Panning = p
	case trackerboy.SetSweep:
		if t.ch == trackerboy.Ch1 {
			t.sweep = int(e.Param)
		}
	case trackerboy.DelayedCut:
		t.cutCounter = int(e.Param)
	default:
		if e.Type.IsFrequency() {
			t.fc.Apply(e)
		}
	}
}

func (t *TrackRuntime) trigger(note uint8) {
	t.fc.SetInstrumentArp(0)
	t.fc.SetInstrumentPitch(0)
	t.fc.SetNote(note)
	t.ir = NewInstrumentRuntime(t.instrument)
	t.cs.Envelope = t.envelope
	t.ir.Restart(&t.cs)
	t.cs.Retrigger = true
	t.cs.Playing = true
	if t.state == trackStopped || t.state == trackStoppedDisableMixer {
		t.state = trackPlayingEnableMixer
	}
}

func (t *TrackRuntime) cut() {
	t.cs.Playing = false
	t.cs.Retrigger = false
	if t.IsPlaying() {
		t.state = trackStoppedDisableMixer
	}
}

// Step advances the track by one frame, writing changes to the synth.
func (t *TrackRuntime) Step(synth Synth, instruments *trackerboy.Table[trackerboy.Instrument], waveforms *trackerboy.Table[trackerboy.Waveform]) {
	if t.delayCounter >= 0 {
		if t.delayCounter == 0 {
			t.apply(t.delayedRow, instruments)
		}
		t.delayCounter--
	}
	if t.cutCounter >= 0 {
		if t.cutCounter == 0 {
			t.cut()
		}
		t.cutCounter--
	}

	switch t.state {
	case trackStoppedDisableMixer:
		synth.SetOutputEnable(t.ch, false)
		t.state = trackStopped
		fallthrough
	case trackStopped:
		return
	case trackPlayingEnableMixer:
		synth.SetOutputEnable(t.ch, true)
		t.state = trackPlaying
	}

	t.ir.Step(t.ch, &t.cs, &t.fc)
	t.cs.Frequency = t.fc.Step()
	t.write(synth, waveforms)
}

func (t *TrackRuntime) write(synth Synth, waveforms *trackerboy.Table[trackerboy.Waveform]) {
	cs, last := &t.cs, &t.written
	if t.sweep >= 0 {
		synth.SetSweep(uint8(t.sweep))
		t.sweep = -1
	}
	if t.fresh || cs.Timbre != last.Timbre {
		synth.SetTimbre(t.ch, cs.Timbre)
	}
	if t.fresh || cs.Panning != last.Panning {
		synth.SetPanning(t.ch, cs.Panning)
	}
	if t.fresh || cs.Frequency != last.Frequency || cs.Retrigger {
		f := cs.Frequency
		if t.ch == trackerboy.Ch4 {
			f = uint16(trackerboy.NoiseFrequency(uint8(f)))
		}
		synth.SetFrequency(t.ch, f)
	}
	if cs.Retrigger {
		if t.ch == trackerboy.Ch3 {
			if waveforms != nil {
				if w := waveforms.Get(cs.Envelope); w != nil {
					synth.SetWaveform(w.Data)
				}
			}
		} else {
			synth.SetEnvelope(t.ch, cs.Envelope)
		}
		synth.Restart(t.ch)
		cs.Retrigger = false
	}
	t.written = *cs
	t.fresh = false
}
