package tracker

import (
	"math"
	"sync/atomic"

	"github.com/stoneface86/trackerboy-sub003/engine"
)

type stopPolicy int

const (
	stopLoops stopPolicy = iota
	stopDuration
)

// Player runs an Engine until a stop condition is met: either every order
// position was visited a given number of times (loop count), or a given
// number of frames were played (duration). The engine must have its song set
// and be positioned before starting the player.
//
// Stop may be called from any goroutine; it takes effect on the next Step.
// All other methods must be called from the goroutine stepping the player.
type Player struct {
	engine *engine.Engine
	policy stopPolicy

	loops  int
	visits []int

	progress    int
	progressMax int

	frame   engine.Frame
	playing atomic.Bool
}

// NewPlayer returns a stopped player for e.
func NewPlayer(e *engine.Engine) *Player {
	return &Player{engine: e}
}

// StartLoop plays until any order position would be played more than loops
// times. A loops of 0 or less does not start the player.
func (p *Player) StartLoop(loops int) {
	p.policy = stopLoops
	p.loops = loops
	p.progress = 0
	p.visits = p.visits[:0]
	p.progressMax = 0
	if song := p.engine.Song(); song != nil {
		p.visits = append(p.visits, make([]int, song.Order.Len())...)
		p.progressMax = song.Order.Len() * max(loops, 0)
	}
	p.playing.Store(loops > 0 && p.engine.IsPlaying())
}

// StartDuration plays for the given number of seconds, at the frame rate of
// the module set on the engine.
func (p *Player) StartDuration(seconds float64) {
	framerate := 0.0
	if m := p.engine.Module(); m != nil {
		framerate = m.Framerate()
	}
	p.policy = stopDuration
	p.progress = 0
	p.progressMax = int(math.Round(framerate * seconds))
	p.playing.Store(p.progressMax > 0 && p.engine.IsPlaying())
}

// Step plays one frame of the engine. It returns false, without stepping,
// once the player has stopped. The frame stepped last is available with
// Frame.
func (p *Player) Step() bool {
	if !p.playing.Load() {
		return false
	}
	if p.policy == stopDuration && p.progress >= p.progressMax {
		p.stop()
		return false
	}
	frame := p.engine.Step()
	p.frame = frame
	if frame.Halted {
		p.stop()
		return false
	}
	switch p.policy {
	case stopLoops:
		if frame.StartedNewPattern {
			for frame.Order >= len(p.visits) {
				p.visits = append(p.visits, 0)
			}
			p.visits[frame.Order]++
			if p.visits[frame.Order] > p.loops {
				p.stop()
				return false
			}
			p.progress++
		}
	case stopDuration:
		p.progress++
	}
	return true
}

// Frame returns the engine frame of the last Step.
func (p *Player) Frame() engine.Frame { return p.frame }

// IsPlaying reports whether the next Step will play a frame.
func (p *Player) IsPlaying() bool { return p.playing.Load() }

// Progress is the number of patterns (loop count) or frames (duration)
// played so far.
func (p *Player) Progress() int { return p.progress }

// ProgressMax is the value Progress reaches when the player stops by itself,
// unless the song halts earlier.
func (p *Player) ProgressMax() int { return p.progressMax }

// Stop stops the player. Safe to call from any goroutine.
func (p *Player) Stop() { p.playing.Store(false) }

func (p *Player) stop() {
	p.playing.Store(false)
	p.engine.Halt()
}
