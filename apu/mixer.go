package apu

import (
	"math"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/viterin/vek/vek32"
)

const (
	// frame sequencer runs at 512 Hz
	sequencerPeriod = ClockSpeed / 512

	// panning bits
	PanLeft  uint8 = 1
	PanRight uint8 = 2
	PanBoth        = PanLeft | PanRight

	// MaxVolume is the largest master volume level, per terminal.
	MaxVolume = 7
)

// Mixer owns the four generators and their modulators. It steps them through
// the hardware clock and point-samples the result into a stereo buffer,
// applying panning, master volume and an optional DC blocking highpass.
type Mixer struct {
	pulse1 *Pulse
	pulse2 *Pulse
	wave   *Wave
	noise  *Noise
	sweep  *Sweep

	envelopes [trackerboy.NumChannels]Envelope // the wave channel's is unused

	enabled [trackerboy.NumChannels]bool
	panning [trackerboy.NumChannels]uint8
	volumeL uint8
	volumeR uint8

	sequencer timer
	step      uint8

	highpass  bool
	charge    float32
	capacitor [2]float32

	scratch []float32
	gains   []float32
}

// NewMixer returns a mixer in the power-on state.
func NewMixer() *Mixer {
	m := &Mixer{
		pulse1: NewPulse(),
		pulse2: NewPulse(),
		wave:   NewWave(),
		noise:  NewNoise(),
	}
	m.sweep = NewSweep(m.pulse1)
	m.Reset()
	return m
}

// Reset restores the power-on register state.
func (m *Mixer) Reset() {
	*m.pulse1 = Pulse{}
	*m.pulse2 = Pulse{}
	*m.wave = Wave{}
	*m.noise = Noise{lfsr: lfsrInit}
	m.pulse1.SetFrequency(0)
	m.pulse2.SetFrequency(0)
	m.wave.SetFrequency(0)
	m.noise.SetControl(0)
	*m.sweep = Sweep{pulse: m.pulse1}
	m.pulse1.SetDuty(2) // NR11 = 0xBF
	m.envelopes = [trackerboy.NumChannels]Envelope{}
	m.envelopes[trackerboy.Ch1].SetRegister(0xF3) // NR12
	m.enabled = [trackerboy.NumChannels]bool{}
	m.panning = [trackerboy.NumChannels]uint8{PanBoth, PanBoth, PanLeft, PanLeft} // NR51 = 0xF3
	m.sequencer = timer{period: sequencerPeriod}
	m.step = 0
	m.capacitor = [2]float32{}
	m.setVolume(MaxVolume, MaxVolume)
}

// SetHighpass enables or disables the DC blocking filter.
func (m *Mixer) SetHighpass(enabled bool) { m.highpass = enabled }

// resize prepares scratch space for up to n samples per Mix call.
func (m *Mixer) resize(n int, cyclesPerSample float64) {
	m.scratch = make([]float32, 2*n)
	m.gains = make([]float32, 2*n)
	m.fillGains()
	m.charge = float32(math.Pow(0.999958, cyclesPerSample))
}

func (m *Mixer) setVolume(l, r uint8) {
	m.volumeL = min(l, MaxVolume)
	m.volumeR = min(r, MaxVolume)
	m.fillGains()
}

func (m *Mixer) fillGains() {
	// the sum of the four channels is divided by 4
	gl := float32(m.volumeL+1) / 32
	gr := float32(m.volumeR+1) / 32
	for i := 0; i+1 < len(m.gains); i += 2 {
		m.gains[i] = gl
		m.gains[i+1] = gr
	}
}

// Mix steps the hardware by cycles, spreading them evenly over the samples
// of out.
func (m *Mixer) Mix(out trackerboy.AudioBuffer, cycles uint32) {
	n := len(out)
	if n == 0 {
		m.advance(float64(cycles))
		return
	}
	if 2*n > len(m.scratch) {
		m.resize(n, float64(cycles)/float64(n))
	}
	cps := float64(cycles) / float64(n)
	s := m.scratch[:2*n]
	for i := range n {
		m.advance(cps)
		s[2*i], s[2*i+1] = m.sample()
	}
	vek32.Mul_Inplace(s, m.gains[:2*n])
	for i := range out {
		l, r := s[2*i], s[2*i+1]
		if m.highpass {
			l, r = m.filter(0, l), m.filter(1, r)
		}
		out[i] = [2]float32{l, r}
	}
}

func (m *Mixer) advance(cycles float64) {
	for range m.sequencer.advance(cycles) {
		m.clockSequencer()
	}
	m.pulse1.Step(cycles)
	m.pulse2.Step(cycles)
	m.wave.Step(cycles)
	m.noise.Step(cycles)
}

// step 2 and 6 clock the sweep, step 7 the envelopes
func (m *Mixer) clockSequencer() {
	switch m.step {
	case 2, 6:
		m.sweep.Clock()
	case 7:
		m.envelopes[trackerboy.Ch1].Clock()
		m.envelopes[trackerboy.Ch2].Clock()
		m.envelopes[trackerboy.Ch4].Clock()
	}
	m.step = (m.step + 1) & 7
}

func (m *Mixer) sample() (l, r float32) {
	for ch := range trackerboy.NumChannels {
		v := volumeTable[m.level(trackerboy.ChType(ch))]
		if m.panning[ch]&PanLeft != 0 {
			l += v
		}
		if m.panning[ch]&PanRight != 0 {
			r += v
		}
	}
	return
}

// level returns the digital output of a channel, 0..15.
func (m *Mixer) level(ch trackerboy.ChType) uint8 {
	if !m.enabled[ch] {
		return 0
	}
	env := &m.envelopes[ch]
	switch ch {
	case trackerboy.Ch1:
		if m.sweep.Disabled() || !env.DACEnabled() {
			return 0
		}
		return m.pulse1.Output() * env.Volume()
	case trackerboy.Ch2:
		if !env.DACEnabled() {
			return 0
		}
		return m.pulse2.Output() * env.Volume()
	case trackerboy.Ch3:
		return m.wave.Output()
	case trackerboy.Ch4:
		if !env.DACEnabled() {
			return 0
		}
		return m.noise.Output() * env.Volume()
	}
	return 0
}

func (m *Mixer) filter(terminal int, in float32) float32 {
	out := in - m.capacitor[terminal]
	m.capacitor[terminal] = in - out*m.charge
	return out
}
