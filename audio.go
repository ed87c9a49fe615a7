package trackerboy

import (
	"encoding/binary"
	"io"
	"math"
)

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right.
	AudioBuffer [][2]float32

	// AudioContext is a handle to an audio device. Output starts pulling
	// interleaved stereo PCM (in the format the context was created with)
	// from src until the returned AudioOutput is closed.
	AudioContext interface {
		Output(src io.Reader) (AudioOutput, error)
		SampleRate() int
		Close() error
	}

	// AudioOutput is a stream started with AudioContext.Output.
	AudioOutput interface {
		Close() error
	}
)

// SampleFormat is the encoding of PCM bytes produced from an AudioBuffer.
type SampleFormat int

const (
	Float32 SampleFormat = iota
	Int16
)

// BytesPerFrame returns the size of one stereo sample in bytes.
func (f SampleFormat) BytesPerFrame() int {
	if f == Int16 {
		return 4
	}
	return 8
}

func (f SampleFormat) String() string {
	if f == Int16 {
		return "int16"
	}
	return "float32"
}

// AppendBytes appends the samples to dst as little endian interleaved PCM.
func (b AudioBuffer) AppendBytes(dst []byte, format SampleFormat) []byte {
	for _, s := range b {
		for _, v := range s {
			if format == Int16 {
				dst = binary.LittleEndian.AppendUint16(dst, uint16(toInt16(v)))
			} else {
				dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
			}
		}
	}
	return dst
}

func toInt16(v float32) int16 {
	return int16(min(max(int(v*math.MaxInt16), math.MinInt16), math.MaxInt16))
}
