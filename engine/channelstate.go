package engine

import "github.com/stoneface86/trackerboy-sub003"

// Synth is what the engine writes channel parameters to. *apu.Synth
// implements it.
type Synth interface {
	SetFrequency(ch trackerboy.ChType, f uint16)
	SetTimbre(ch trackerboy.ChType, timbre uint8)
	SetEnvelope(ch trackerboy.ChType, envelope uint8)
	SetWaveform(data [trackerboy.WaveformSize]byte)
	SetPanning(ch trackerboy.ChType, panning uint8)
	SetOutputEnable(ch trackerboy.ChType, enabled bool)
	SetSweep(reg uint8)
	SetVolume(left, right uint8)
	Restart(ch trackerboy.ChType)
}

// ChannelState holds the register level values a track wants the channel to
// have. For the wave channel, Envelope is the id of the waveform to load.
type ChannelState struct {
	Playing   bool
	Retrigger bool
	Envelope  uint8
	Timbre    uint8
	Panning   uint8
	Frequency uint16
}

// channel specific defaults, applied when playback starts
var channelDefaults = [trackerboy.NumChannels]ChannelState{
	trackerboy.Ch1: {Envelope: 0xF0, Timbre: 2, Panning: 3},
	trackerboy.Ch2: {Envelope: 0xF0, Timbre: 2, Panning: 3},
	trackerboy.Ch3: {Envelope: 0, Timbre: 3, Panning: 3},
	trackerboy.Ch4: {Envelope: 0xF0, Timbre: 0, Panning: 3},
}

// DefaultChannelState returns the state a channel starts playback with.
func DefaultChannelState(ch trackerboy.ChType) ChannelState {
	if !ch.Valid() {
		return ChannelState{}
	}
	return channelDefaults[ch]
}

// maxTimbre is the largest timbre value of each channel
var maxTimbre = [trackerboy.NumChannels]uint8{3, 3, 3, 1}
