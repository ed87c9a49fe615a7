package tracker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/tracker"
)

func TestLivePlayer(t *testing.T) {
	doc := tracker.NewDocument(testModule(t, 4, 0x10, 2)) // 16 frames
	broker := tracker.NewBroker()
	prefs := tracker.Preferences{Audio: tracker.AudioPreferences{SampleRate: 44100, Latency: 50, Volume: 1, Format: "int16"}}
	ring := tracker.NewRingBuffer(prefs.RingBufferSize(), prefs.SampleFormat().BytesPerFrame())
	lp := tracker.NewLivePlayer(doc, broker, ring, prefs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lp.Run(ctx)

	// the audio device
	var audible atomic.Bool
	go func() {
		buf := make([]byte, 1024)
		for ctx.Err() == nil {
			ring.Read(buf)
			for _, b := range buf {
				if b != 0 {
					audible.Store(true)
				}
			}
			time.Sleep(time.Millisecond)
		}
	}()

	broker.ToPlayer <- tracker.PlayMsg{Loops: 1}
	frames := 0
	timeout := time.After(10 * time.Second)
loop:
	for {
		select {
		case msg := <-broker.ToModel:
			if buf, ok := msg.Data.(*trackerboy.AudioBuffer); ok {
				broker.PutAudioBuffer(buf)
			}
			if !msg.HasStatus {
				continue
			}
			if msg.Status.Playing {
				frames++
			} else if frames > 0 {
				break loop
			}
		case <-timeout:
			t.Fatalf("player did not stop, %d frames played", frames)
		}
	}
	if frames != 16 {
		t.Fatalf("played %d frames, expected 16", frames)
	}
	if !audible.Load() {
		t.Fatal("the device received only silence")
	}
	cancel()
	select {
	case <-broker.FinishedPlayer:
	case <-time.After(3 * time.Second):
		t.Fatal("live player did not finish")
	}
}

func TestLivePlayerStop(t *testing.T) {
	doc := tracker.NewDocument(testModule(t, 64, 0x30, 1))
	broker := tracker.NewBroker()
	prefs := tracker.Preferences{Audio: tracker.AudioPreferences{SampleRate: 44100, Latency: 50, Volume: 1}}
	ring := tracker.NewRingBuffer(prefs.RingBufferSize(), prefs.SampleFormat().BytesPerFrame())
	lp := tracker.NewLivePlayer(doc, broker, ring, prefs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lp.Run(ctx)

	broker.ToPlayer <- tracker.PlayMsg{Song: 5, Loops: 1}
	msg, ok := tracker.TimeoutReceive(broker.ToModel, 3*time.Second)
	if alert, isAlert := msg.Data.(tracker.Alert); !ok || !isAlert || alert.Priority != tracker.Error {
		t.Fatalf("expected an error alert for a missing song, got %+v", msg)
	}

	// nobody drains the ring, so the player fills it and then waits
	broker.ToPlayer <- tracker.PlayMsg{Loops: 100}
	broker.ToPlayer <- tracker.StopMsg{}
	timeout := time.After(3 * time.Second)
	for {
		select {
		case msg := <-broker.ToModel:
			if msg.HasStatus && !msg.Status.Playing {
				return
			}
		case <-timeout:
			t.Fatal("player did not report stopping")
		}
	}
}

func TestLivePlayerFollowsUndo(t *testing.T) {
	doc := tracker.NewDocument(testModule(t, 64, 0x30, 1))
	release := doc.UndoableEdit("")
	doc.Module().Title = "edited"
	release()

	broker := tracker.NewBroker()
	prefs := tracker.Preferences{Audio: tracker.AudioPreferences{SampleRate: 44100, Latency: 50, Volume: 1}}
	ring := tracker.NewRingBuffer(prefs.RingBufferSize(), prefs.SampleFormat().BytesPerFrame())
	lp := tracker.NewLivePlayer(doc, broker, ring, prefs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lp.Run(ctx)
	go func() {
		buf := make([]byte, 1024)
		for ctx.Err() == nil {
			ring.Read(buf)
			time.Sleep(time.Millisecond)
		}
	}()

	broker.ToPlayer <- tracker.PlayMsg{Loops: 100}
	waitStatus := func(playing bool) {
		t.Helper()
		timeout := time.After(3 * time.Second)
		for {
			select {
			case msg := <-broker.ToModel:
				if buf, ok := msg.Data.(*trackerboy.AudioBuffer); ok {
					broker.PutAudioBuffer(buf)
				}
				if msg.HasStatus && msg.Status.Playing == playing {
					return
				}
			case <-timeout:
				t.Fatalf("no status with Playing=%v", playing)
			}
		}
	}
	waitStatus(true)

	if !doc.Undo() {
		t.Fatal("nothing to undo")
	}
	release = doc.PermanentEdit()
	track := doc.Module().Songs[0].Patterns.Track(trackerboy.Ch1, 0)
	for row := range track.Len() {
		track.SetEffect(row, 0, trackerboy.Effect{Type: trackerboy.PatternHalt})
	}
	release()
	// the halt is only heard if the player plays the module restored by Undo
	waitStatus(false)
}
