package engine

import "github.com/stoneface86/trackerboy-sub003"

// InstrumentRuntime steps through the sequences of an instrument for one
// note. A new one is made for every note triggered with the instrument. The
// zero value has no instrument and does nothing.
type InstrumentRuntime struct {
	instrument *trackerboy.Instrument
	sequences  [trackerboy.SequenceCount]trackerboy.SequenceEnumerator
}

// NewInstrumentRuntime returns a runtime positioned at the first step of
// every sequence of inst, which may be nil.
func NewInstrumentRuntime(inst *trackerboy.Instrument) InstrumentRuntime {
	r := InstrumentRuntime{instrument: inst}
	if inst != nil {
		for k := range r.sequences {
			r.sequences[k] = inst.Sequence(trackerboy.SequenceKind(k)).Enumerator()
		}
	}
	return r
}

// Instrument returns the instrument being played, nil if none.
func (r *InstrumentRuntime) Instrument() *trackerboy.Instrument { return r.instrument }

// Restart applies the instrument's envelope override, if any, to state.
// It is called when the note is triggered.
func (r *InstrumentRuntime) Restart(state *ChannelState) {
	if r.instrument == nil {
		return
	}
	if env, ok := r.instrument.Envelope(); ok {
		state.Envelope = env
	}
}

// Step advances every sequence by one and writes the values to state and fc.
// Empty sequences leave their target unchanged.
func (r *InstrumentRuntime) Step(ch trackerboy.ChType, state *ChannelState, fc *FrequencyControl) {
	if r.instrument == nil {
		return
	}
	if v, ok := r.sequences[trackerboy.SeqArpeggio].Next(); ok {
		fc.SetInstrumentArp(v)
	}
	if v, ok := r.sequences[trackerboy.SeqPitch].Next(); ok {
		fc.SetInstrumentPitch(v)
	}
	if v, ok := r.sequences[trackerboy.SeqTimbre].Next(); ok {
		state.Timbre = min(uint8(max(v, 0)), maxTimbre[ch])
	}
	if v, ok := r.sequences[trackerboy.SeqPanning].Next(); ok {
		state.Panning = uint8(max(v, 0)) & 3
	}
}
