// Package apu emulates the four sound generators of the Game Boy, their
// modulators and a mixer that resamples the hardware clock to a host sample
// rate. Everything is driven by cycle counts: nothing in this package knows
// about wall time.
package apu

import "math"

// ClockSpeed is the hardware clock rate in Hz.
const ClockSpeed = 4194304

const (
	// MaxFrequency is the largest 11-bit frequency register value.
	MaxFrequency = 2047
	// WaveRAMSize is the size of the wavetable in bytes (32 nibbles).
	WaveRAMSize = 16

	lfsrInit = 0x7FFF
)

// duty waveforms, 8 bits per duty setting, indexed by (duty<<3)+position:
// 12.5% 0x80, 25% 0x81, 50% 0xE1, 75% 0x7E
const dutyMask uint32 = 0x7EE18180

// noise divisor ratios, the actual threshold is shifted by scf+1
var drfTable = [8]uint32{4, 8, 16, 24, 32, 40, 48, 56}

// timer counts cycles towards a period, keeping the fractional part of the
// cycles passed to it as drift so that non-integer steps do not lose time.
type timer struct {
	period  uint32
	counter uint32
	drift   float64
}

// advance adds cycles to the timer and returns how many times the period
// expired.
func (t *timer) advance(cycles float64) uint32 {
	c := cycles + t.drift
	whole := math.Floor(c)
	t.drift = c - whole
	t.counter += uint32(whole)
	if t.counter < t.period {
		return 0
	}
	n := t.counter / t.period
	t.counter %= t.period
	return n
}

func (t *timer) reset() {
	t.counter = 0
	t.drift = 0
}

// Pulse is a square wave generator with four duty settings.
type Pulse struct {
	timer
	frequency uint16
	duty      uint8
	position  uint8
}

// NewPulse returns a pulse generator at frequency 0 with 12.5% duty.
func NewPulse() *Pulse {
	p := &Pulse{}
	p.SetFrequency(0)
	return p
}

func (p *Pulse) Frequency() uint16 { return p.frequency }

// SetFrequency sets the 11-bit frequency register. The duty position advances
// once every (2048 - frequency) * 4 cycles.
func (p *Pulse) SetFrequency(f uint16) {
	f = min(f, MaxFrequency)
	p.frequency = f
	p.period = (2048 - uint32(f)) * 4
	if p.counter >= p.period {
		p.counter %= p.period
	}
}

func (p *Pulse) Duty() uint8 { return p.duty }

// SetDuty selects the duty waveform, 0..3 for 12.5, 25, 50 and 75%.
func (p *Pulse) SetDuty(duty uint8) { p.duty = duty & 3 }

// Step advances the generator by a (possibly fractional) number of cycles.
func (p *Pulse) Step(cycles float64) {
	if n := p.advance(cycles); n > 0 {
		p.position = uint8((uint32(p.position) + n) % 8)
	}
}

// Output returns 1 if the waveform is currently high, 0 otherwise.
func (p *Pulse) Output() uint8 {
	return uint8(dutyMask>>(uint32(p.duty)<<3+uint32(p.position))) & 1
}

// Restart resets the timer and duty position.
func (p *Pulse) Restart() {
	p.timer.reset()
	p.position = 0
}

// Wave plays back 32 4-bit samples from wave RAM at one of four volume levels.
type Wave struct {
	timer
	frequency uint16
	ram       [WaveRAMSize]byte
	position  uint8
	volume    uint8
}

// Wave volume levels.
const (
	WaveMute uint8 = iota
	WaveQuarter
	WaveHalf
	WaveFull
)

// right shift of the sample for each volume level, mute is special cased
var waveShift = [4]uint8{4, 2, 1, 0}

func NewWave() *Wave {
	w := &Wave{}
	w.SetFrequency(0)
	return w
}

func (w *Wave) Frequency() uint16 { return w.frequency }

// SetFrequency sets the 11-bit frequency register. The sample position
// advances once every (2048 - frequency) * 2 cycles.
func (w *Wave) SetFrequency(f uint16) {
	f = min(f, MaxFrequency)
	w.frequency = f
	w.period = (2048 - uint32(f)) * 2
	if w.counter >= w.period {
		w.counter %= w.period
	}
}

// SetVolume sets the output level, one of WaveMute..WaveFull.
func (w *Wave) SetVolume(level uint8) { w.volume = level & 3 }

func (w *Wave) Volume() uint8 { return w.volume }

// SetRAM copies a waveform into wave RAM.
func (w *Wave) SetRAM(data [WaveRAMSize]byte) { w.ram = data }

func (w *Wave) RAM() [WaveRAMSize]byte { return w.ram }

func (w *Wave) Step(cycles float64) {
	if n := w.advance(cycles); n > 0 {
		w.position = uint8((uint32(w.position) + n) % 32)
	}
}

// Sample returns the current raw nibble, high nibble first.
func (w *Wave) Sample() uint8 {
	b := w.ram[w.position/2]
	if w.position%2 == 0 {
		return b >> 4
	}
	return b & 0xF
}

// Output returns the current sample scaled by the volume level, 0..15.
func (w *Wave) Output() uint8 {
	if w.volume == WaveMute {
		return 0
	}
	return w.Sample() >> waveShift[w.volume]
}

func (w *Wave) Restart() {
	w.timer.reset()
	w.position = 0
}

// Noise is a linear feedback shift register clocked at a rate set by the
// noise control byte: bits 7-4 shift clock frequency (scf), bit 3 width mode
// (7-bit when set), bits 2-0 divisor ratio (drf).
type Noise struct {
	timer
	control uint8
	lfsr    uint16
}

func NewNoise() *Noise {
	n := &Noise{lfsr: lfsrInit}
	n.SetControl(0)
	return n
}

func (n *Noise) Control() uint8 { return n.control }

// SetControl sets the noise control byte.
func (n *Noise) SetControl(control uint8) {
	n.control = control
	scf := uint32(control >> 4)
	n.period = drfTable[control&7] << (scf + 1)
	if n.counter >= n.period {
		n.counter %= n.period
	}
}

// SetWidth selects 7-bit (true) or 15-bit mode without changing the rate.
func (n *Noise) SetWidth(narrow bool) {
	if narrow {
		n.SetControl(n.control | 0x08)
	} else {
		n.SetControl(n.control &^ 0x08)
	}
}

func (n *Noise) Step(cycles float64) {
	for range n.advance(cycles) {
		n.clock()
	}
}

func (n *Noise) clock() {
	bit := (n.lfsr ^ n.lfsr>>1) & 1
	n.lfsr = n.lfsr>>1 | bit<<14
	if n.control&0x08 != 0 {
		n.lfsr = n.lfsr&^(1<<6) | bit<<6
	}
}

// Output is the inverse of bit 0 of the shift register.
func (n *Noise) Output() uint8 {
	return uint8(^n.lfsr & 1)
}

// LFSR returns the shift register state.
func (n *Noise) LFSR() uint16 { return n.lfsr }

func (n *Noise) Restart() {
	n.timer.reset()
	n.lfsr = lfsrInit
}
