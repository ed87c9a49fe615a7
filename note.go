package trackerboy

import (
	"fmt"
	"math"
	"strings"
)

// Notes are indexed from C-2 (0) to B-8 (83). In a TrackRow the note column
// stores the index plus one, so that zero means "no note".
const (
	NoteC2    = 0
	NoteC3    = 12
	NoteC4    = 24
	NoteLast  = 83
	NoteCut   = 84
	NoteCount = NoteLast + 1

	// NoiseNoteCount is the number of distinct noise "notes"; noise notes past
	// the last one play the highest pitch.
	NoiseNoteCount = 56
)

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

var (
	toneTable  [NoteCount]uint16
	noiseTable [NoiseNoteCount]uint8
)

func init() {
	// frequency register = 2048 - 131072 / hz, A-2 = 110 Hz
	for n := range toneTable {
		hz := 110 * math.Pow(2, float64(n-9)/12)
		reg := math.Round(2048 - 131072/hz)
		toneTable[n] = uint16(min(max(reg, 0), 2047))
	}
	// scf decreases and drf runs 7..4 as the note rises
	for n := range noiseTable {
		scf := 13 - n/4
		drf := 7 - n%4
		noiseTable[n] = uint8(scf<<4 | drf)
	}
}

// NoteFrequency returns the tone channel frequency register value for the
// note. Notes past NoteLast are clamped.
func NoteFrequency(note uint8) uint16 {
	if note > NoteLast {
		note = NoteLast
	}
	return toneTable[note]
}

// NoiseFrequency returns the noise control byte (shift clock frequency and
// divisor ratio, width bit clear) for a noise note.
func NoiseFrequency(note uint8) uint8 {
	if note >= NoiseNoteCount {
		note = NoiseNoteCount - 1
	}
	return noiseTable[note]
}

// NoteName formats a note index like "C-4". NoteCut is "---".
func NoteName(note uint8) string {
	switch {
	case note == NoteCut:
		return "---"
	case note > NoteLast:
		return "???"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12+2)
}

// ParseNote is the inverse of NoteName.
func ParseNote(s string) (uint8, error) {
	if s == "---" {
		return NoteCut, nil
	}
	if len(s) != 3 {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	key := -1
	for i, name := range noteNames {
		if strings.EqualFold(s[:2], name) {
			key = i
			break
		}
	}
	octave := int(s[2]) - '0'
	if key < 0 || octave < 2 || octave > 8 {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	return uint8((octave-2)*12 + key), nil
}
