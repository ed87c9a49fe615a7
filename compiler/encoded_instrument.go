package compiler

import (
	"github.com/stoneface86/trackerboy-sub003"
)

// NoLoop is the loop word of a sequence without a loop point.
const NoLoop = 0xFFFF

type EncodedInstrument struct {
	ID        uint8
	Name      string
	Channel   uint8
	Envelope  uint8
	Flags     uint8
	Sequences [trackerboy.SequenceCount]EncodedSequence
}

type EncodedSequence struct {
	Kind   string
	Length int
	Loop   int
	Data   []byte
}

// FlagEnvelope is set in EncodedInstrument.Flags when the envelope is used.
const FlagEnvelope = 1

func EncodeInstrument(id uint8, inst *trackerboy.Instrument) EncodedInstrument {
	ret := EncodedInstrument{ID: id, Name: inst.Name, Channel: uint8(inst.Channel())}
	if env, ok := inst.Envelope(); ok {
		ret.Envelope = env
		ret.Flags |= FlagEnvelope
	}
	for kind := range trackerboy.SequenceCount {
		seq := inst.Sequence(kind)
		enc := EncodedSequence{Kind: kind.String(), Length: seq.Len(), Loop: NoLoop}
		if loop, ok := seq.Loop(); ok {
			enc.Loop = int(loop)
		}
		for _, v := range seq.Data() {
			enc.Data = append(enc.Data, byte(v))
		}
		ret.Sequences[kind] = enc
	}
	return ret
}

type EncodedWaveform struct {
	ID   uint8
	Name string
	Data []byte
}
