package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/stoneface86/trackerboy-sub003/apu"
	"github.com/stoneface86/trackerboy-sub003/engine"
)

// RenderOptions tell Render what to render and when to stop.
type RenderOptions struct {
	Song       int
	SampleRate int
	Highpass   bool
	Loops      int     // stop after the song has played this many times
	Duration   float64 // seconds, overrides Loops when positive
}

var ErrNoSuchSong = errors.New("no such song")

// Render plays a song of the document from the beginning until the stop
// condition is met or the song halts, and returns the audio. The document is
// only locked while stepping the engine, so it can be edited while rendering;
// edits and undo steps are heard from the next frame on.
// progress, if not nil, is called with values from 0 to 1 whenever the
// rendered percentage changes. A cancelled ctx stops the render with
// ctx.Err().
func Render(ctx context.Context, doc *Document, opts RenderOptions, progress func(float32)) (trackerboy.AudioBuffer, error) {
	synth := apu.NewSynth(opts.SampleRate, trackerboy.DMGFramerate)
	synth.SetHighpass(opts.Highpass)
	e := engine.New(synth)
	player := NewPlayer(e)

	release := doc.Edit()
	module := doc.Module()
	song := module.Song(opts.Song)
	if song == nil {
		release()
		return nil, fmt.Errorf("render song %d: %w", opts.Song, ErrNoSuchSong)
	}
	synth.SetFramerate(module.Framerate())
	e.SetModule(module)
	e.SetSong(song)
	if opts.Duration > 0 {
		player.StartDuration(opts.Duration)
	} else {
		player.StartLoop(opts.Loops)
	}
	release()

	var buffer trackerboy.AudioBuffer
	if opts.Duration > 0 {
		buffer = make(trackerboy.AudioBuffer, 0, player.ProgressMax()*synth.MaxFrameSize())
	}
	percent := -1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		release := doc.Edit()
		doc.follow(e, opts.Song)
		ok := player.Step()
		release()
		if !ok {
			break
		}
		synth.Run()
		buffer = append(buffer, synth.Frame()...)
		if progress != nil && player.ProgressMax() > 0 {
			p := min(player.Progress()*100/player.ProgressMax(), 100)
			if p != percent {
				percent = p
				progress(float32(p) / 100)
			}
		}
	}
	if progress != nil {
		progress(1)
	}
	return buffer, nil
}
