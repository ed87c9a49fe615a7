package tracker

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/stoneface86/trackerboy-sub003"
)

type (
	Preferences struct {
		Audio    AudioPreferences
		Playback PlaybackPreferences
		YmlError error
	}

	AudioPreferences struct {
		SampleRate int
		Latency    int    // milliseconds of audio queued ahead of the device
		Format     string // float32 or int16
		Volume     float32
		Highpass   bool
	}

	PlaybackPreferences struct {
		Loops       int
		Duration    float64 `yaml:",omitempty"` // seconds, overrides Loops when positive
		RowsPerBeat int
	}
)

//go:embed preferences.yml
var defaultPreferencesYaml []byte

func loadDefaultPreferences() Preferences {
	var preferences Preferences
	err := yaml.UnmarshalStrict(defaultPreferencesYaml, &preferences)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal preferences: %w", err))
	}
	return preferences
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "trackerboy", filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.UnmarshalStrict(bytes, target)
	return true, err
}

func MakePreferences() Preferences {
	preferences := loadDefaultPreferences()
	exists, err := ReadCustomConfigYml("preferences.yml", &preferences)
	if exists {
		preferences.YmlError = err
	}
	preferences.clamp()
	return preferences
}

func (p *Preferences) clamp() {
	if p.Audio.SampleRate <= 0 {
		p.Audio.SampleRate = 44100
	}
	p.Audio.Latency = max(p.Audio.Latency, 20)
	p.Audio.Volume = min(max(p.Audio.Volume, 0), 1)
	if p.Playback.RowsPerBeat <= 0 {
		p.Playback.RowsPerBeat = trackerboy.DefaultRowsPerBeat
	}
}

// SampleFormat returns the configured output format, float32 unless int16 is
// asked for.
func (p Preferences) SampleFormat() trackerboy.SampleFormat {
	if p.Audio.Format == "int16" {
		return trackerboy.Int16
	}
	return trackerboy.Float32
}

// RingBufferSize returns the size in bytes of a ring buffer holding Latency
// milliseconds of audio.
func (p Preferences) RingBufferSize() int {
	frames := p.Audio.SampleRate * p.Audio.Latency / 1000
	return frames * p.SampleFormat().BytesPerFrame()
}
