package engine

import "github.com/stoneface86/trackerboy-sub003"

type modType uint8

const (
	modNone modType = iota
	modPitchSlide
	modPortamento
	modNoteSlide
	modArpeggio
)

// FrequencyControl computes the frequency of a channel every frame from the
// current note, the frequency effects of the track and the arpeggio and pitch
// sequences of the instrument. For the noise channel it works in note space
// (0..NoiseNoteCount-1); the track converts the result to a noise control
// byte.
type FrequencyControl struct {
	noise   bool
	maxFreq int

	mod     modType
	hasNote bool
	note    int
	base    int
	target  int
	slide   int

	noteSlideSteps int
	noteSlideNote  int

	chord      [3]int
	chordIndex int

	tune            int
	instrumentArp   int
	instrumentPitch int

	vibratoSpeed   int
	vibratoExtent  int
	vibratoDelay   int
	vibratoCounter int
	vibratoPhase   int

	frequency uint16
}

// NewFrequencyControl returns the frequency control of a channel.
func NewFrequencyControl(ch trackerboy.ChType) FrequencyControl {
	fc := FrequencyControl{noise: ch == trackerboy.Ch4}
	fc.Reset()
	return fc
}

// Reset clears all effects and the current note.
func (fc *FrequencyControl) Reset() {
	noise := fc.noise
	*fc = FrequencyControl{noise: noise, maxFreq: 2047}
	if noise {
		fc.maxFreq = trackerboy.NoiseNoteCount - 1
	}
}

func (fc *FrequencyControl) noteFreq(note int) int {
	if fc.noise {
		return min(max(note, 0), fc.maxFreq)
	}
	return int(trackerboy.NoteFrequency(uint8(min(max(note, 0), trackerboy.NoteLast))))
}

func (fc *FrequencyControl) noteMax() int {
	if fc.noise {
		return fc.maxFreq
	}
	return trackerboy.NoteLast
}

// SetNote starts a new note. With automatic portamento active the frequency
// slides from the previous note instead of jumping.
func (fc *FrequencyControl) SetNote(note uint8) {
	n := int(note)
	if fc.mod == modPortamento && fc.hasNote {
		fc.note = n
		fc.target = fc.noteFreq(n)
		return
	}
	fc.note = n
	fc.base = fc.noteFreq(n)
	fc.hasNote = true
	fc.chordIndex = 0
	fc.vibratoCounter = fc.vibratoDelay
	fc.vibratoPhase = 0
	switch fc.mod {
	case modNoteSlide:
		fc.startNoteSlide()
	case modPortamento:
		fc.target = fc.base
	}
}

// Apply handles a frequency effect. Other effects are ignored.
func (fc *FrequencyControl) Apply(e trackerboy.Effect) {
	x, y := int(e.Param>>4), int(e.Param&0xF)
	switch e.Type {
	case trackerboy.Arpeggio:
		if e.Param == 0 {
			fc.stop(modArpeggio)
			return
		}
		fc.chord = [3]int{0, x, y}
		fc.chordIndex = 0
		fc.mod = modArpeggio
	case trackerboy.PitchUp, trackerboy.PitchDown:
		if e.Param == 0 {
			fc.stop(modPitchSlide)
			return
		}
		fc.mod = modPitchSlide
		fc.slide = int(e.Param)
		fc.target = fc.maxFreq
		if e.Type == trackerboy.PitchDown {
			fc.target = 0
		}
	case trackerboy.AutoPortamento:
		if e.Param == 0 {
			fc.stop(modPortamento)
			return
		}
		if fc.mod != modPortamento {
			fc.target = fc.base
		}
		fc.mod = modPortamento
		fc.slide = int(e.Param)
	case trackerboy.Vibrato:
		fc.vibratoSpeed = x
		fc.vibratoExtent = y
		if y == 0 {
			fc.vibratoPhase = 0
		}
	case trackerboy.VibratoDelay:
		fc.vibratoDelay = int(e.Param)
		fc.vibratoCounter = fc.vibratoDelay
	case trackerboy.Tuning:
		fc.tune = int(e.Param) - 0x80
	case trackerboy.NoteSlideUp, trackerboy.NoteSlideDown:
		if x == 0 {
			fc.stop(modNoteSlide)
			return
		}
		fc.mod = modNoteSlide
		fc.slide = x
		fc.noteSlideSteps = y
		if e.Type == trackerboy.NoteSlideDown {
			fc.noteSlideSteps = -y
		}
		fc.startNoteSlide()
	}
}

func (fc *FrequencyControl) stop(mod modType) {
	if fc.mod == mod {
		if mod == modArpeggio {
			fc.base = fc.noteFreq(fc.note)
		}
		fc.mod = modNone
	}
}

func (fc *FrequencyControl) startNoteSlide() {
	fc.noteSlideNote = min(max(fc.note+fc.noteSlideSteps, 0), fc.noteMax())
	fc.target = fc.noteFreq(fc.noteSlideNote)
}

// SetInstrumentArp sets the note offset from the instrument's arpeggio
// sequence for the next Step.
func (fc *FrequencyControl) SetInstrumentArp(offset int8) { fc.instrumentArp = int(offset) }

// SetInstrumentPitch sets the frequency offset from the instrument's pitch
// sequence for the next Step.
func (fc *FrequencyControl) SetInstrumentPitch(offset int8) { fc.instrumentPitch = int(offset) }

// Step advances the effects by one frame and returns the new frequency.
func (fc *FrequencyControl) Step() uint16 {
	var f int
	switch fc.mod {
	case modArpeggio:
		f = fc.noteFreq(fc.note + fc.chord[fc.chordIndex] + fc.instrumentArp)
		fc.chordIndex = (fc.chordIndex + 1) % len(fc.chord)
		fc.base = f
	case modPitchSlide, modPortamento, modNoteSlide:
		fc.base = approach(fc.base, fc.target, fc.slide)
		if fc.mod == modNoteSlide && fc.base == fc.target {
			fc.note = fc.noteSlideNote
			fc.mod = modNone
		}
		f = fc.base + fc.arpDelta()
	default:
		f = fc.base + fc.arpDelta()
	}
	f += fc.tune + fc.instrumentPitch + fc.vibrato()
	fc.frequency = uint16(min(max(f, 0), fc.maxFreq))
	return fc.frequency
}

// Frequency returns the result of the last Step.
func (fc *FrequencyControl) Frequency() uint16 { return fc.frequency }

func (fc *FrequencyControl) arpDelta() int {
	if fc.instrumentArp == 0 {
		return 0
	}
	return fc.noteFreq(fc.note+fc.instrumentArp) - fc.noteFreq(fc.note)
}

// vibrato is a triangle wave of 64 phase steps, scaled to +-extent.
func (fc *FrequencyControl) vibrato() int {
	if fc.vibratoExtent == 0 || fc.vibratoSpeed == 0 {
		return 0
	}
	if fc.vibratoCounter > 0 {
		fc.vibratoCounter--
		return 0
	}
	fc.vibratoPhase = (fc.vibratoPhase + fc.vibratoSpeed) & 63
	var tri int
	switch p := fc.vibratoPhase; {
	case p < 16:
		tri = p
	case p < 48:
		tri = 32 - p
	default:
		tri = p - 64
	}
	return tri * fc.vibratoExtent / 16
}

func approach(v, target, amount int) int {
	if v < target {
		return min(v+amount, target)
	}
	return max(v-amount, target)
}
