package apu

import (
	"math"

	"github.com/stoneface86/trackerboy-sub003"
)

// DefaultSampleRate is the host sample rate used when none is given.
const DefaultSampleRate = 44100

// Synth drives the Mixer one frame at a time. A frame is 1/framerate seconds
// of audio; since neither the cycles nor the samples per frame are integers,
// both carry their fractional part over to the next frame, so frame sizes
// alternate between floor(samplesPerFrame) and one more.
//
// Register write points are exposed per channel so that the sequencer, the
// editor or a test can drive the synthesizer directly.
type Synth struct {
	mixer *Mixer

	sampleRate int
	framerate  float64

	cyclesPerFrame  float64
	cycleCarry      float64
	samplesPerFrame float64
	sampleCarry     float64

	buffer trackerboy.AudioBuffer
	frame  trackerboy.AudioBuffer
	stale  bool
}

// NewSynth returns a synth rendering at sampleRate, framerate frames per
// second.
func NewSynth(sampleRate int, framerate float64) *Synth {
	s := &Synth{mixer: NewMixer()}
	s.SetSampleRate(sampleRate)
	s.SetFramerate(framerate)
	return s
}

func (s *Synth) SampleRate() int { return s.sampleRate }

func (s *Synth) Framerate() float64 { return s.framerate }

// SetSampleRate changes the host sample rate. Buffers are resized on the next
// Run; register state is kept.
func (s *Synth) SetSampleRate(rate int) {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if rate != s.sampleRate {
		s.sampleRate = rate
		s.stale = true
	}
}

// SetFramerate changes the number of frames per second. Like SetSampleRate it
// takes effect on the next Run.
func (s *Synth) SetFramerate(framerate float64) {
	if framerate <= 0 {
		framerate = float64(ClockSpeed) / 70224
	}
	if framerate != s.framerate {
		s.framerate = framerate
		s.stale = true
	}
}

// SetHighpass enables the DC blocking output filter.
func (s *Synth) SetHighpass(enabled bool) { s.mixer.SetHighpass(enabled) }

// MaxFrameSize returns the largest number of samples Run can produce.
func (s *Synth) MaxFrameSize() int {
	return int(math.Floor(float64(s.sampleRate)/s.framerate)) + 1
}

// Reset restores the power-on register state and clears the frame carries.
// No buffers are reallocated.
func (s *Synth) Reset() {
	s.mixer.Reset()
	s.cycleCarry = 0
	s.sampleCarry = 0
	s.frame = s.buffer[:0]
}

func (s *Synth) setup() {
	s.cyclesPerFrame = ClockSpeed / s.framerate
	s.samplesPerFrame = float64(s.sampleRate) / s.framerate
	n := s.MaxFrameSize()
	s.buffer = make(trackerboy.AudioBuffer, n)
	s.mixer.resize(n, s.cyclesPerFrame/s.samplesPerFrame)
	s.stale = false
	s.cycleCarry = 0
	s.sampleCarry = 0
}

// Run synthesizes one frame and returns its size in samples. The frame is
// available through Frame until the next Run.
func (s *Synth) Run() int {
	if s.stale {
		s.setup()
	}
	cycles := s.cyclesPerFrame + s.cycleCarry
	whole := math.Floor(cycles)
	s.cycleCarry = cycles - whole
	samples := s.samplesPerFrame + s.sampleCarry
	n := math.Floor(samples)
	s.sampleCarry = samples - n
	s.frame = s.buffer[:int(n)]
	s.mixer.Mix(s.frame, uint32(whole))
	return len(s.frame)
}

// Frame returns the samples produced by the last Run.
func (s *Synth) Frame() trackerboy.AudioBuffer { return s.frame }

// SetFrequency sets the frequency register of a tone channel, or the shift
// clock frequency and divisor ratio (lower 8 bits) of the noise channel. The
// noise width bit is left unchanged, use SetTimbre for it.
func (s *Synth) SetFrequency(ch trackerboy.ChType, f uint16) {
	switch ch {
	case trackerboy.Ch1:
		s.mixer.pulse1.SetFrequency(f)
	case trackerboy.Ch2:
		s.mixer.pulse2.SetFrequency(f)
	case trackerboy.Ch3:
		s.mixer.wave.SetFrequency(f)
	case trackerboy.Ch4:
		n := s.mixer.noise
		n.SetControl(uint8(f)&^0x08 | n.Control()&0x08)
	}
}

// Frequency returns what SetFrequency last set.
func (s *Synth) Frequency(ch trackerboy.ChType) uint16 {
	switch ch {
	case trackerboy.Ch1:
		return s.mixer.pulse1.Frequency()
	case trackerboy.Ch2:
		return s.mixer.pulse2.Frequency()
	case trackerboy.Ch3:
		return s.mixer.wave.Frequency()
	case trackerboy.Ch4:
		return uint16(s.mixer.noise.Control() &^ 0x08)
	}
	return 0
}

// SetTimbre sets the duty (pulse, 0..3), volume level (wave, 0 mute to 3
// full) or width (noise, 1 for 7-bit) of a channel.
func (s *Synth) SetTimbre(ch trackerboy.ChType, timbre uint8) {
	switch ch {
	case trackerboy.Ch1:
		s.mixer.pulse1.SetDuty(timbre)
	case trackerboy.Ch2:
		s.mixer.pulse2.SetDuty(timbre)
	case trackerboy.Ch3:
		s.mixer.wave.SetVolume(timbre)
	case trackerboy.Ch4:
		s.mixer.noise.SetWidth(timbre&1 != 0)
	}
}

func (s *Synth) Timbre(ch trackerboy.ChType) uint8 {
	switch ch {
	case trackerboy.Ch1:
		return s.mixer.pulse1.Duty()
	case trackerboy.Ch2:
		return s.mixer.pulse2.Duty()
	case trackerboy.Ch3:
		return s.mixer.wave.Volume()
	case trackerboy.Ch4:
		return (s.mixer.noise.Control() >> 3) & 1
	}
	return 0
}

// SetEnvelope sets the envelope register of a pulse or noise channel. The new
// envelope starts on the next Restart. The wave channel has no envelope.
func (s *Synth) SetEnvelope(ch trackerboy.ChType, envelope uint8) {
	if ch.Valid() && ch != trackerboy.Ch3 {
		s.mixer.envelopes[ch].SetRegister(envelope)
	}
}

func (s *Synth) Envelope(ch trackerboy.ChType) uint8 {
	if ch.Valid() {
		return s.mixer.envelopes[ch].Register()
	}
	return 0
}

// SetWaveform loads wave RAM.
func (s *Synth) SetWaveform(data [WaveRAMSize]byte) { s.mixer.wave.SetRAM(data) }

func (s *Synth) Waveform() [WaveRAMSize]byte { return s.mixer.wave.RAM() }

// SetPanning routes a channel to the left (bit 0) and/or right (bit 1)
// terminal.
func (s *Synth) SetPanning(ch trackerboy.ChType, panning uint8) {
	if ch.Valid() {
		s.mixer.panning[ch] = panning & PanBoth
	}
}

func (s *Synth) Panning(ch trackerboy.ChType) uint8 {
	if ch.Valid() {
		return s.mixer.panning[ch]
	}
	return 0
}

// SetOutputEnable turns the output of a channel on or off.
func (s *Synth) SetOutputEnable(ch trackerboy.ChType, enabled bool) {
	if ch.Valid() {
		s.mixer.enabled[ch] = enabled
	}
}

func (s *Synth) OutputEnabled(ch trackerboy.ChType) bool {
	return ch.Valid() && s.mixer.enabled[ch]
}

// SetSweep sets the sweep register of channel 1.
func (s *Synth) SetSweep(reg uint8) { s.mixer.sweep.SetRegister(reg) }

func (s *Synth) Sweep() uint8 { return s.mixer.sweep.Register() }

// SetVolume sets the master volume of each terminal, 0..7.
func (s *Synth) SetVolume(left, right uint8) { s.mixer.setVolume(left, right) }

func (s *Synth) Volume() (left, right uint8) { return s.mixer.volumeL, s.mixer.volumeR }

// Restart triggers a channel: the generator restarts from the beginning of
// its waveform and the envelope (and sweep, for channel 1) reload.
func (s *Synth) Restart(ch trackerboy.ChType) {
	m := s.mixer
	switch ch {
	case trackerboy.Ch1:
		m.pulse1.Restart()
		m.sweep.Restart()
	case trackerboy.Ch2:
		m.pulse2.Restart()
	case trackerboy.Ch3:
		m.wave.Restart()
	case trackerboy.Ch4:
		m.noise.Restart()
	default:
		return
	}
	m.envelopes[ch].Restart()
}

// Level returns the current digital output of a channel, 0..15, ignoring
// panning and master volume.
func (s *Synth) Level(ch trackerboy.ChType) uint8 {
	if !ch.Valid() {
		return 0
	}
	return s.mixer.level(ch)
}
