package compiler

import (
	"fmt"
	"strings"

	"github.com/stoneface86/trackerboy-sub003"
)

// ModuleMacros is the data passed to the module templates.
type ModuleMacros struct {
	Prefix      string
	Title       string
	Artist      string
	Copyright   string
	System      string
	Framerate   float64
	Songs       []*EncodedSong
	Instruments []EncodedInstrument
	Waveforms   []EncodedWaveform
}

func NewModuleMacros(prefix string, m *trackerboy.Module) (*ModuleMacros, error) {
	ret := &ModuleMacros{
		Prefix:    prefix,
		Title:     m.Title,
		Artist:    m.Artist,
		Copyright: m.Copyright,
		System:    m.System.String(),
		Framerate: m.Framerate(),
	}
	for i, song := range m.Songs {
		encoded, err := EncodeSong(song)
		if err != nil {
			return nil, fmt.Errorf("could not encode song %d: %v", i, err)
		}
		ret.Songs = append(ret.Songs, encoded)
	}
	for id, inst := range m.Instruments.All {
		ret.Instruments = append(ret.Instruments, EncodeInstrument(id, inst))
	}
	for id, wave := range m.Waveforms.All {
		ret.Waveforms = append(ret.Waveforms, EncodedWaveform{ID: id, Name: wave.Name, Data: wave.Data[:]})
	}
	return ret, nil
}

// Label returns an exported label, e.g. Label "song" 0 is "tb_song0".
func (m *ModuleMacros) Label(parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(m.Prefix)
	b.WriteByte('_')
	for _, p := range parts {
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// Comment makes s safe to place on a single comment line.
func (m *ModuleMacros) Comment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
