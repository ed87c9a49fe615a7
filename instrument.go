package trackerboy

import (
	"encoding/hex"
	"fmt"
)

// MaxSequenceSize is the maximum number of steps in a Sequence.
const MaxSequenceSize = 256

type (
	// Sequence is a modulation curve of an instrument: one signed value per
	// frame, with an optional loop index. Stepping past the end jumps back to
	// the loop index when set, otherwise the last value is held.
	Sequence struct {
		data        []int8
		loop        uint8
		loopEnabled bool
	}

	// SequenceEnumerator steps through a Sequence one value per call to Next.
	// It only keeps a pointer to the sequence, so the sequence may be edited
	// between steps (under the document lock) without invalidating it.
	SequenceEnumerator struct {
		seq   *Sequence
		index int
	}

	// SequenceKind is the modulation target of a sequence.
	SequenceKind int

	// Instrument is a set of sequences and an optional envelope applied to a
	// channel whenever a note is triggered with it. The channel it targets
	// is fixed at creation.
	Instrument struct {
		Name            string
		channel         ChType
		envelope        uint8
		envelopeEnabled bool
		sequences       [SequenceCount]Sequence
	}

	// Waveform is a 32 sample wavetable of 4-bit samples, packed two samples
	// per byte with the first sample in the high nibble.
	Waveform struct {
		Name string
		Data [WaveformSize]byte
	}
)

const (
	SeqArpeggio SequenceKind = iota
	SeqTimbre
	SeqPanning
	SeqPitch
	SequenceCount
)

// WaveformSize is the size of a Waveform in bytes (32 nibbles).
const WaveformSize = 16

var sequenceKindNames = [SequenceCount]string{"arpeggio", "timbre", "panning", "pitch"}

func (k SequenceKind) String() string {
	if k < 0 || k >= SequenceCount {
		return "invalid"
	}
	return sequenceKindNames[k]
}

// NewSequence returns a sequence with the given data and no loop.
func NewSequence(data ...int8) Sequence {
	return Sequence{data: append([]int8(nil), data...)}
}

// Data returns the steps of the sequence. The slice must not be modified.
func (s *Sequence) Data() []int8 { return s.data }

func (s *Sequence) Len() int { return len(s.data) }

// SetData replaces the steps. If the loop index falls outside the new data,
// the loop is removed.
func (s *Sequence) SetData(data []int8) error {
	if len(data) > MaxSequenceSize {
		return ErrSequenceTooLong
	}
	s.data = append(s.data[:0], data...)
	if s.loopEnabled && int(s.loop) >= len(s.data) {
		s.loopEnabled = false
	}
	return nil
}

// Resize changes the number of steps, filling new steps with zeros.
func (s *Sequence) Resize(size int) error {
	if size < 0 || size > MaxSequenceSize {
		return ErrSequenceTooLong
	}
	for len(s.data) < size {
		s.data = append(s.data, 0)
	}
	s.data = s.data[:size]
	if s.loopEnabled && int(s.loop) >= size {
		s.loopEnabled = false
	}
	return nil
}

// Loop returns the loop index, ok is false when the sequence does not loop.
func (s *Sequence) Loop() (loop uint8, ok bool) {
	return s.loop, s.loopEnabled
}

// SetLoop sets the loop index, which must be within the sequence.
func (s *Sequence) SetLoop(loop uint8) error {
	if int(loop) >= len(s.data) {
		return ErrLoopOutOfRange
	}
	s.loop = loop
	s.loopEnabled = true
	return nil
}

func (s *Sequence) RemoveLoop() {
	s.loopEnabled = false
}

// Enumerator returns an enumerator positioned at the first step.
func (s *Sequence) Enumerator() SequenceEnumerator {
	return SequenceEnumerator{seq: s}
}

// Copy makes a deep copy of a Sequence.
func (s *Sequence) Copy() Sequence {
	return Sequence{data: append([]int8(nil), s.data...), loop: s.loop, loopEnabled: s.loopEnabled}
}

// Next returns the value at the current position and advances. ok is false
// only for an empty (or missing) sequence.
func (e *SequenceEnumerator) Next() (value int8, ok bool) {
	if e.seq == nil {
		return 0, false
	}
	n := len(e.seq.data)
	if n == 0 {
		return 0, false
	}
	if e.index >= n { // the sequence was shortened by an edit
		e.index = e.wrap(n)
	}
	value = e.seq.data[e.index]
	e.index++
	if e.index >= n {
		e.index = e.wrap(n)
	}
	return value, true
}

func (e *SequenceEnumerator) wrap(n int) int {
	if e.seq.loopEnabled && int(e.seq.loop) < n {
		return int(e.seq.loop)
	}
	return n - 1
}

// Position returns the index of the step the next call to Next returns.
func (e *SequenceEnumerator) Position() int { return e.index }

func (e *SequenceEnumerator) Reset() { e.index = 0 }

// NewInstrument creates an instrument for the given channel.
func NewInstrument(ch ChType) *Instrument {
	return &Instrument{channel: ch, envelope: 0xF0}
}

// Channel returns the channel the instrument targets.
func (i *Instrument) Channel() ChType { return i.channel }

// Envelope returns the envelope register value (the waveform id for the wave
// channel), ok is false when the instrument does not override the envelope.
func (i *Instrument) Envelope() (envelope uint8, ok bool) {
	return i.envelope, i.envelopeEnabled
}

func (i *Instrument) SetEnvelope(envelope uint8, enabled bool) {
	i.envelope = envelope
	i.envelopeEnabled = enabled
}

// Sequence returns the sequence for the given modulation target.
func (i *Instrument) Sequence(kind SequenceKind) *Sequence {
	return &i.sequences[kind]
}

// Copy makes a deep copy of an Instrument.
func (i *Instrument) Copy() *Instrument {
	ret := *i
	for k := range ret.sequences {
		ret.sequences[k] = i.sequences[k].Copy()
	}
	return &ret
}

// Nibble returns the 4-bit sample at index 0..31.
func (w *Waveform) Nibble(index int) uint8 {
	b := w.Data[(index/2)%WaveformSize]
	if index%2 == 0 {
		return b >> 4
	}
	return b & 0xF
}

func (w *Waveform) SetNibble(index int, value uint8) {
	p := &w.Data[(index/2)%WaveformSize]
	if index%2 == 0 {
		*p = (*p & 0x0F) | (value&0xF)<<4
	} else {
		*p = (*p & 0xF0) | value&0xF
	}
}

// String returns the waveform as 32 hex digits, one per sample.
func (w *Waveform) String() string {
	return fmt.Sprintf("%X", w.Data[:])
}

// SetString parses 32 hex digits, one per sample.
func (w *Waveform) SetString(s string) error {
	if len(s) != WaveformSize*2 {
		return fmt.Errorf("waveform string must be %d hex digits, got %d", WaveformSize*2, len(s))
	}
	var data [WaveformSize]byte
	if _, err := hex.Decode(data[:], []byte(s)); err != nil {
		return fmt.Errorf("invalid waveform string: %w", err)
	}
	w.Data = data
	return nil
}

// Copy makes a copy of a Waveform.
func (w *Waveform) Copy() *Waveform {
	ret := *w
	return &ret
}
