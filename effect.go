package trackerboy

import (
	"fmt"
	"strconv"
	"strings"
)

// EffectType is the command stored in one effect column of a TrackRow.
type EffectType uint8

const (
	NoEffect EffectType = iota

	// pattern effects
	PatternGoto // Bxx jump to order xx
	PatternHalt // C00 halt playback
	PatternSkip // Dxx skip to next order, starting at row xx
	SetSpeed    // Fxx set speed (Q5.3)
	Sfx         // Txx reserved

	// track effects
	SetEnvelope // Exx persistent envelope, waveform id on CH3
	SetTimbre   // Vxx persistent timbre
	SetPanning  // Ixy x left, y right
	SetSweep    // Hxx sweep register, CH1 only
	DelayedCut  // Sxx cut note after xx frames
	DelayedNote // Gxx trigger note after xx frames
	Lock        // L00 reserved

	// frequency effects
	Arpeggio       // 0xy
	PitchUp        // 1xx
	PitchDown      // 2xx
	AutoPortamento // 3xx
	Vibrato        // 4xy
	VibratoDelay   // 5xx
	Tuning         // Pxx
	NoteSlideUp    // Qxy
	NoteSlideDown  // Rxy

	// global
	SetGlobalVolume // Jxy

	effectTypeCount
)

const effectLetters = ".BCDFTEVIHSGL012345PQRJ"

// Effect is one (type, parameter) slot of a TrackRow.
type Effect struct {
	Type  EffectType
	Param uint8
}

// Valid reports whether t is a known effect type.
func (t EffectType) Valid() bool {
	return t < effectTypeCount
}

// IsPattern reports whether the effect alters pattern flow (or speed), i.e.
// it is handled by the pattern runtime rather than a track.
func (t EffectType) IsPattern() bool {
	return t >= PatternGoto && t <= Sfx
}

// IsFrequency reports whether the effect is handled by frequency control.
func (t EffectType) IsFrequency() bool {
	return t >= Arpeggio && t <= NoteSlideDown
}

// Letter returns the single-character mnemonic shown in the editor.
func (t EffectType) Letter() byte {
	if !t.Valid() {
		return '?'
	}
	return effectLetters[t]
}

func (t EffectType) String() string {
	return effectTypeNames[min(t, effectTypeCount)]
}

var effectTypeNames = [...]string{
	"none",
	"pattern goto", "pattern halt", "pattern skip", "set speed", "sfx",
	"set envelope", "set timbre", "set panning", "set sweep", "delayed cut", "delayed note", "lock",
	"arpeggio", "pitch up", "pitch down", "auto portamento", "vibrato", "vibrato delay", "tuning",
	"note slide up", "note slide down",
	"set global volume",
	"invalid",
}

// String formats the effect as the letter followed by the hex parameter, e.g.
// "F30". An unset effect is "...".
func (e Effect) String() string {
	if e.Type == NoEffect {
		return "..."
	}
	return fmt.Sprintf("%c%02X", e.Type.Letter(), e.Param)
}

// ParseEffect is the inverse of Effect.String.
func ParseEffect(s string) (Effect, error) {
	if s == "..." || s == "" {
		return Effect{}, nil
	}
	if len(s) != 3 {
		return Effect{}, fmt.Errorf("invalid effect %q", s)
	}
	i := strings.IndexByte(effectLetters[1:], strings.ToUpper(s[:1])[0])
	if i < 0 {
		return Effect{}, fmt.Errorf("unknown effect letter in %q", s)
	}
	p, err := strconv.ParseUint(s[1:], 16, 8)
	if err != nil {
		return Effect{}, fmt.Errorf("invalid effect parameter in %q: %w", s, err)
	}
	return Effect{Type: EffectType(i + 1), Param: uint8(p)}, nil
}
