package apu

// volumeTable maps an envelope/output level to a normalized amplitude.
var volumeTable = func() (t [16]float32) {
	for i := range t {
		t[i] = float32(i) / 15
	}
	return
}()

// Envelope is the volume envelope of the pulse and noise channels. The
// register holds the initial volume in bits 7-4, direction in bit 3 (set for
// amplify) and the period in bits 2-0. Period 0 keeps the volume constant.
type Envelope struct {
	register uint8
	volume   uint8
	counter  uint8
}

// SetRegister sets the envelope register. It takes effect on Restart.
func (e *Envelope) SetRegister(reg uint8) { e.register = reg }

func (e *Envelope) Register() uint8 { return e.register }

// Volume returns the current volume level, 0..15.
func (e *Envelope) Volume() uint8 { return e.volume }

// DACEnabled reports whether the upper 5 bits of the register are non-zero;
// with the DAC off the channel is silent.
func (e *Envelope) DACEnabled() bool { return e.register&0xF8 != 0 }

// Restart reloads the volume from the register.
func (e *Envelope) Restart() {
	e.volume = e.register >> 4
	e.counter = 0
}

// Clock steps the envelope, called at 64 Hz by the frame sequencer.
func (e *Envelope) Clock() {
	period := e.register & 7
	if period == 0 {
		return
	}
	e.counter++
	if e.counter < period {
		return
	}
	e.counter = 0
	if e.register&0x08 != 0 {
		if e.volume < 15 {
			e.volume++
		}
	} else if e.volume > 0 {
		e.volume--
	}
}

// Sweep periodically shifts the frequency of a pulse generator. The register
// holds the sweep time in bits 6-4, subtraction mode in bit 3 and the shift
// amount in bits 2-0.
type Sweep struct {
	pulse    *Pulse
	register uint8
	shadow   uint16
	counter  uint8
	disabled bool
}

// NewSweep returns a sweep modulating the given generator.
func NewSweep(p *Pulse) *Sweep {
	return &Sweep{pulse: p}
}

func (s *Sweep) SetRegister(reg uint8) { s.register = reg & 0x7F }

func (s *Sweep) Register() uint8 { return s.register }

// Disabled reports whether the last sweep calculation overflowed, which
// silences the channel until the next Restart.
func (s *Sweep) Disabled() bool { return s.disabled }

// Restart copies the generator's frequency into the shadow register.
func (s *Sweep) Restart() {
	s.shadow = s.pulse.Frequency()
	s.counter = 0
	s.disabled = false
}

// Clock steps the sweep, called at 128 Hz by the frame sequencer.
func (s *Sweep) Clock() {
	time := (s.register >> 4) & 7
	if time == 0 || s.disabled {
		return
	}
	s.counter++
	if s.counter < time {
		return
	}
	s.counter = 0
	shift := s.register & 7
	if shift == 0 {
		return
	}
	delta := s.shadow >> shift
	var f uint16
	if s.register&0x08 != 0 {
		f = s.shadow - delta
	} else {
		f = s.shadow + delta
		if f > MaxFrequency {
			s.disabled = true
			return
		}
	}
	s.shadow = f
	s.pulse.SetFrequency(f)
}
