package tracker_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/tracker"
)

func TestRender(t *testing.T) {
	m := testModule(t, 4, 0x10, 2) // 16 frames
	doc := tracker.NewDocument(m)
	var progress []float32
	buf, err := tracker.Render(context.Background(), doc, tracker.RenderOptions{SampleRate: 44100, Loops: 1}, func(p float32) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := 16 * 44100 / m.Framerate()
	if d := math.Abs(float64(len(buf)) - want); d > 1 {
		t.Fatalf("rendered %d samples, expected about %v", len(buf), want)
	}
	var peak float32
	for _, s := range buf {
		peak = max(peak, s[0], s[1])
	}
	if peak == 0 {
		t.Fatal("render is silent")
	}
	if len(progress) == 0 || progress[len(progress)-1] != 1 {
		t.Fatalf("progress did not reach 1: %v", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress went backwards: %v", progress)
		}
	}
}

func TestRenderDuration(t *testing.T) {
	doc := tracker.NewDocument(testModule(t, 64, 0x30, 1))
	buf, err := tracker.Render(context.Background(), doc, tracker.RenderOptions{SampleRate: 22050, Duration: 1}, nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if d := math.Abs(float64(len(buf)) - 22050); d > 400 {
		t.Fatalf("one second rendered as %d samples", len(buf))
	}
}

func TestRenderCancel(t *testing.T) {
	doc := tracker.NewDocument(testModule(t, 64, 0x30, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tracker.Render(ctx, doc, tracker.RenderOptions{Duration: 60}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := tracker.Render(context.Background(), doc, tracker.RenderOptions{Song: 3, Loops: 1}, nil); !errors.Is(err, tracker.ErrNoSuchSong) {
		t.Fatalf("expected ErrNoSuchSong, got %v", err)
	}
}

func TestRenderWhileEditing(t *testing.T) {
	doc := tracker.NewDocument(testModule(t, 64, 0x08, 4))
	done := make(chan error)
	go func() {
		_, err := tracker.Render(context.Background(), doc, tracker.RenderOptions{Loops: 2}, nil)
		done <- err
	}()
	for i := range 100 {
		release := doc.PermanentEdit()
		doc.Module().Songs[0].Patterns.Track(trackerboy.Ch2, 0).SetNote(i%64, trackerboy.NoteC3)
		release()
	}
	if err, ok := tracker.TimeoutReceive(done, 10*time.Second); !ok || err != nil {
		t.Fatalf("render did not finish cleanly: ok %v err %v", ok, err)
	}
}

func TestWriteMIDI(t *testing.T) {
	m := testModule(t, 4, 0x08, 2)
	song := m.Songs[0]
	ch4 := song.Patterns.Track(trackerboy.Ch4, 0)
	ch4.SetNote(1, 10)
	ch4.SetNote(2, trackerboy.NoteCut)
	var buf bytes.Buffer
	if err := tracker.WriteMIDI(&buf, m, 0, 1); err != nil {
		t.Fatalf("WriteMIDI failed: %v", err)
	}
	s, err := smf.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("reading the MIDI file back failed: %v", err)
	}
	if len(s.Tracks) != 1+trackerboy.NumChannels {
		t.Fatalf("%d tracks, expected %d", len(s.Tracks), 1+trackerboy.NumChannels)
	}
	type note struct{ channel, key uint8 }
	var on, off []note
	for _, track := range s.Tracks {
		for _, ev := range track {
			var channel, key, velocity uint8
			switch msg := midi.Message(ev.Message); {
			case msg.GetNoteOn(&channel, &key, &velocity):
				on = append(on, note{channel, key})
			case msg.GetNoteOff(&channel, &key, &velocity):
				off = append(off, note{channel, key})
			}
		}
	}
	// order 0 and 1 both play track 0: C-4 on channel 1, noise on the drum channel
	wantOn := []note{{0, 36 + trackerboy.NoteC4}, {0, 36 + trackerboy.NoteC4}, {9, 46}, {9, 46}}
	if len(on) != len(wantOn) || len(off) != len(wantOn) {
		t.Fatalf("note ons %v, note offs %v", on, off)
	}
	for _, w := range wantOn {
		found := false
		for _, n := range on {
			found = found || n == w
		}
		if !found {
			t.Fatalf("note %v missing from %v", w, on)
		}
	}
}
