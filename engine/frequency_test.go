package engine_test

import (
	"testing"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/engine"
)

func steps(fc *engine.FrequencyControl, n int) []uint16 {
	ret := make([]uint16, n)
	for i := range ret {
		ret[i] = fc.Step()
	}
	return ret
}

func TestPitchSlide(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch1)
	fc.SetNote(trackerboy.NoteC4)
	base := trackerboy.NoteFrequency(trackerboy.NoteC4)
	fc.Apply(trackerboy.Effect{Type: trackerboy.PitchUp, Param: 2})
	got := steps(&fc, 3)
	for i, f := range got {
		if want := base + uint16(2*(i+1)); f != want {
			t.Fatalf("pitch up step %d: got %d, expected %d", i, f, want)
		}
	}
	fc.Apply(trackerboy.Effect{Type: trackerboy.PitchUp, Param: 0})
	if f := fc.Step(); f != base+6 {
		t.Fatalf("stopping the slide moved the frequency: %d", f)
	}
	fc.Apply(trackerboy.Effect{Type: trackerboy.PitchDown, Param: 0xFF})
	for range 20 {
		fc.Step()
	}
	if fc.Frequency() != 0 {
		t.Fatalf("pitch down did not clamp at 0: %d", fc.Frequency())
	}
}

func TestArpeggioEffect(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch2)
	fc.Apply(trackerboy.Effect{Type: trackerboy.Arpeggio, Param: 0x47})
	fc.SetNote(trackerboy.NoteC4)
	chord := []uint8{0, 4, 7, 0, 4, 7}
	for i, f := range steps(&fc, len(chord)) {
		if want := trackerboy.NoteFrequency(trackerboy.NoteC4 + chord[i]); f != want {
			t.Fatalf("step %d: got %d, expected %d", i, f, want)
		}
	}
	fc.Apply(trackerboy.Effect{Type: trackerboy.Arpeggio, Param: 0})
	if f := fc.Step(); f != trackerboy.NoteFrequency(trackerboy.NoteC4) {
		t.Fatalf("arpeggio off: got %d", f)
	}
}

func TestAutoPortamento(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch1)
	fc.SetNote(trackerboy.NoteC4)
	fc.Apply(trackerboy.Effect{Type: trackerboy.AutoPortamento, Param: 0x10})
	from := fc.Step()
	target := trackerboy.NoteFrequency(trackerboy.NoteC4 + 12)
	fc.SetNote(trackerboy.NoteC4 + 12)
	prev := from
	for range 100 {
		f := fc.Step()
		if f < prev || f-prev > 0x10 {
			t.Fatalf("portamento jumped from %d to %d", prev, f)
		}
		prev = f
	}
	if prev != target {
		t.Fatalf("portamento ended at %d, expected %d", prev, target)
	}
}

func TestNoteSlide(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch1)
	fc.SetNote(trackerboy.NoteC4)
	fc.Apply(trackerboy.Effect{Type: trackerboy.NoteSlideDown, Param: 0xF3})
	for range 100 {
		fc.Step()
	}
	if want := trackerboy.NoteFrequency(trackerboy.NoteC4 - 3); fc.Frequency() != want {
		t.Fatalf("note slide ended at %d, expected %d", fc.Frequency(), want)
	}
}

func TestTuningAndInstrumentPitch(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch1)
	fc.SetNote(trackerboy.NoteC4)
	fc.Apply(trackerboy.Effect{Type: trackerboy.Tuning, Param: 0x82})
	fc.SetInstrumentPitch(-5)
	if want := trackerboy.NoteFrequency(trackerboy.NoteC4) - 3; fc.Step() != want {
		t.Fatalf("got %d, expected %d", fc.Frequency(), want)
	}
}

func TestVibrato(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch1)
	fc.Apply(trackerboy.Effect{Type: trackerboy.VibratoDelay, Param: 4})
	fc.Apply(trackerboy.Effect{Type: trackerboy.Vibrato, Param: 0x48})
	fc.SetNote(trackerboy.NoteC4)
	base := int(trackerboy.NoteFrequency(trackerboy.NoteC4))
	got := steps(&fc, 40)
	for i, f := range got[:4] {
		if int(f) != base {
			t.Fatalf("vibrato started during the delay, step %d: %d", i, f)
		}
	}
	lo, hi := base, base
	for _, f := range got[4:] {
		lo, hi = min(lo, int(f)), max(hi, int(f))
	}
	if hi-base != 8 || base-lo != 8 {
		t.Fatalf("vibrato range %d..%d around %d, expected +-8", lo, hi, base)
	}
}

func TestNoiseNotes(t *testing.T) {
	fc := engine.NewFrequencyControl(trackerboy.Ch4)
	fc.SetNote(70)
	if f := fc.Step(); f != trackerboy.NoiseNoteCount-1 {
		t.Fatalf("noise note not clamped: %d", f)
	}
	fc.SetNote(10)
	fc.Apply(trackerboy.Effect{Type: trackerboy.PitchUp, Param: 1})
	if f := fc.Step(); f != 11 {
		t.Fatalf("noise pitch slide: got %d, expected 11", f)
	}
}
