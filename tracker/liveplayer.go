package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/apu"
	"github.com/stoneface86/trackerboy-sub003/engine"
)

// LivePlayer renders a Document in real time into a RingBuffer, which an
// audio device drains on its own. It is controlled with messages sent to
// broker.ToPlayer and reports back with PlayerStatus messages on
// broker.ToModel.
type LivePlayer struct {
	doc    *Document
	broker *Broker
	ring   *RingBuffer

	synth  *apu.Synth
	engine *engine.Engine
	player *Player

	active  bool // player started and not yet finished
	song    int  // index of the song being played
	format  trackerboy.SampleFormat
	volume  float32
	meter   LevelMeter
	scratch []byte
}

// livePollInterval is how long the player sleeps when the ring buffer is full.
const livePollInterval = 2 * time.Millisecond

func NewLivePlayer(doc *Document, broker *Broker, ring *RingBuffer, prefs Preferences) *LivePlayer {
	synth := apu.NewSynth(prefs.Audio.SampleRate, trackerboy.DMGFramerate)
	synth.SetHighpass(prefs.Audio.Highpass)
	e := engine.New(synth)
	return &LivePlayer{
		doc:    doc,
		broker: broker,
		ring:   ring,
		synth:  synth,
		engine: e,
		player: NewPlayer(e),
		format: prefs.SampleFormat(),
		volume: prefs.Audio.Volume,
	}
}

// Run produces frames until ctx is cancelled. It closes
// broker.FinishedPlayer when it returns.
func (lp *LivePlayer) Run(ctx context.Context) {
	defer close(lp.broker.FinishedPlayer)
	for {
		if !lp.player.IsPlaying() {
			if lp.active {
				lp.finish()
			}
			select {
			case <-ctx.Done():
				return
			case msg := <-lp.broker.ToPlayer:
				lp.handle(msg)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case msg := <-lp.broker.ToPlayer:
			lp.handle(msg)
			continue
		default:
		}
		if lp.ring.Free() < lp.synth.MaxFrameSize()*lp.format.BytesPerFrame() {
			select {
			case <-ctx.Done():
				return
			case msg := <-lp.broker.ToPlayer:
				lp.handle(msg)
			case <-time.After(livePollInterval):
			}
			continue
		}
		lp.step()
	}
}

func (lp *LivePlayer) handle(msg any) {
	switch m := msg.(type) {
	case PlayMsg:
		lp.play(m)
	case StopMsg:
		lp.player.Stop()
	case VolumeMsg:
		lp.volume = min(max(m.Volume, 0), 1)
	default:
		// ignore unknown messages
	}
}

func (lp *LivePlayer) play(msg PlayMsg) {
	release := lp.doc.Edit()
	defer release()
	module := lp.doc.Module()
	song := module.Song(msg.Song)
	if song == nil {
		lp.alert("PlayError", fmt.Sprintf("song %d does not exist", msg.Song), Error)
		return
	}
	lp.synth.SetFramerate(module.Framerate())
	lp.synth.Reset()
	lp.engine.SetModule(module)
	lp.engine.SetSong(song)
	lp.engine.Play(msg.Order, msg.Row)
	lp.song = msg.Song
	if msg.Duration > 0 {
		lp.player.StartDuration(msg.Duration)
	} else {
		lp.player.StartLoop(msg.Loops)
	}
	lp.active = true
}

func (lp *LivePlayer) step() {
	release := lp.doc.Edit()
	lp.doc.follow(lp.engine, lp.song)
	ok := lp.player.Step()
	release()
	if !ok {
		return
	}
	lp.synth.Run()
	frame := lp.synth.Frame()
	if lp.volume != 1 {
		for i := range frame {
			frame[i][0] *= lp.volume
			frame[i][1] *= lp.volume
		}
	}
	lp.scratch = frame.AppendBytes(lp.scratch[:0], lp.format)
	lp.ring.Write(lp.scratch)

	bufPtr := lp.broker.GetAudioBuffer() // borrow a buffer from the broker
	*bufPtr = append(*bufPtr, frame...)
	if !TrySend(lp.broker.ToModel, MsgToModel{HasStatus: true, Status: lp.status(lp.meter.Measure(frame)), Data: bufPtr}) {
		lp.broker.PutAudioBuffer(bufPtr)
	}
}

// finish silences the channels after the player stopped.
func (lp *LivePlayer) finish() {
	lp.active = false
	release := lp.doc.Edit()
	lp.engine.Halt()
	lp.engine.Step()
	release()
	TrySend(lp.broker.ToModel, MsgToModel{HasStatus: true, Status: lp.status(Levels{})})
}

func (lp *LivePlayer) status(levels Levels) PlayerStatus {
	frame := lp.player.Frame()
	return PlayerStatus{
		Playing:     lp.player.IsPlaying(),
		Order:       frame.Order,
		Row:         frame.Row,
		Speed:       frame.Speed,
		Progress:    lp.player.Progress(),
		ProgressMax: lp.player.ProgressMax(),
		Levels:      levels,
		Underruns:   lp.ring.Underruns(),
	}
}

func (lp *LivePlayer) alert(name, message string, priority AlertPriority) {
	TrySend(lp.broker.ToModel, MsgToModel{Data: Alert{
		Name:     name,
		Priority: priority,
		Message:  message,
		Duration: defaultAlertDuration,
	}})
}
