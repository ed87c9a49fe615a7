package tracker_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/tracker"
)

func TestLevelMeter(t *testing.T) {
	buf := make(trackerboy.AudioBuffer, 100)
	for i := range buf {
		v := float32(0.5)
		if i%2 == 1 {
			v = -0.5
		}
		buf[i] = [2]float32{v, v / 2}
	}
	buf[10][1] = -0.75
	var m tracker.LevelMeter
	l := m.Measure(buf)
	if l.Peak != [2]float32{0.5, 0.75} {
		t.Fatalf("peaks %v, expected [0.5 0.75]", l.Peak)
	}
	if math.Abs(float64(l.RMS[0])-0.5) > 1e-6 {
		t.Fatalf("left RMS %v, expected 0.5", l.RMS[0])
	}
	if l.RMS[1] <= 0.25 || l.RMS[1] >= 0.75 {
		t.Fatalf("right RMS %v out of range", l.RMS[1])
	}
	db := l.PeakDecibels(-60)
	if math.Abs(float64(db[0])+6.0206) > 1e-3 {
		t.Fatalf("left peak %v dB, expected -6.02", db[0])
	}
	if silent := m.Measure(make(trackerboy.AudioBuffer, 10)).RMSDecibels(-60); silent != [2]tracker.Decibel{-60, -60} {
		t.Fatalf("silence measured as %v", silent)
	}
}

func TestPreferences(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	p := tracker.MakePreferences()
	if p.YmlError != nil {
		t.Fatalf("unexpected error: %v", p.YmlError)
	}
	if p.Audio.SampleRate != 44100 || p.SampleFormat() != trackerboy.Float32 || p.Playback.Loops != 1 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if got, want := p.RingBufferSize(), 4410*8; got != want {
		t.Fatalf("ring buffer size %d, expected %d", got, want)
	}
	if err := os.MkdirAll(filepath.Join(dir, "trackerboy"), 0755); err != nil {
		t.Fatal(err)
	}
	custom := "audio:\n  samplerate: 48000\n  format: int16\n"
	if err := os.WriteFile(filepath.Join(dir, "trackerboy", "preferences.yml"), []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}
	p = tracker.MakePreferences()
	if p.YmlError != nil {
		t.Fatalf("unexpected error: %v", p.YmlError)
	}
	if p.Audio.SampleRate != 48000 || p.SampleFormat() != trackerboy.Int16 {
		t.Fatalf("custom preferences not applied: %+v", p.Audio)
	}
	if p.Audio.Latency != 100 || !p.Audio.Highpass {
		t.Fatalf("defaults lost when applying custom preferences: %+v", p.Audio)
	}
	if err := os.WriteFile(filepath.Join(dir, "trackerboy", "preferences.yml"), []byte("audio:\n  samplerat: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if p = tracker.MakePreferences(); p.YmlError == nil {
		t.Fatal("misspelled key was accepted")
	}
}
