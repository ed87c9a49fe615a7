package oto

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/stoneface86/trackerboy-sub003"
)

type OtoContext struct {
	ctx        *oto.Context
	sampleRate int
}

type OtoOutput struct {
	player *oto.Player
}

// NewContext opens the audio device for stereo output. bufferSize is the
// amount of audio the device buffers ahead; zero lets oto decide.
func NewContext(sampleRate int, format trackerboy.SampleFormat, bufferSize time.Duration) (*OtoContext, error) {
	otoFormat := oto.FormatFloat32LE
	if format == trackerboy.Int16 {
		otoFormat = oto.FormatSignedInt16LE
	}
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       otoFormat,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: context, sampleRate: sampleRate}, nil
}

// Output starts playing PCM read from src. src should never block for long
// and should return silence rather than io.EOF when it runs dry, like
// tracker.RingBuffer does.
func (c *OtoContext) Output(src io.Reader) (trackerboy.AudioOutput, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("oto context failed: %w", err)
	}
	player := c.ctx.NewPlayer(src)
	player.Play()
	return &OtoOutput{player: player}, nil
}

func (c *OtoContext) SampleRate() int {
	return c.sampleRate
}

// Close suspends the device. oto allows only one context per process, so it
// cannot be reopened afterwards.
func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Close stops playback and disposes of the player
func (o *OtoOutput) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
