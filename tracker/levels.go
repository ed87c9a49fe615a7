package tracker

import (
	"math"

	"github.com/stoneface86/trackerboy-sub003"
	"github.com/viterin/vek/vek32"
)

type (
	// Levels are the peak and RMS amplitude of each terminal over one frame.
	Levels struct {
		Peak [2]float32
		RMS  [2]float32
	}

	// Decibel is a level relative to full scale.
	Decibel float32

	// LevelMeter measures audio frames, reusing its scratch buffers.
	LevelMeter struct {
		tmp, tmp2 []float32
	}
)

// Measure returns the levels of buf.
func (m *LevelMeter) Measure(buf trackerboy.AudioBuffer) Levels {
	var ret Levels
	if len(buf) == 0 {
		return ret
	}
	if cap(m.tmp) < len(buf) {
		m.tmp = make([]float32, len(buf))
		m.tmp2 = make([]float32, len(buf))
	}
	x, sq := m.tmp[:len(buf)], m.tmp2[:len(buf)]
	for chn := range 2 {
		for i, s := range buf {
			x[i] = s[chn]
		}
		vek32.Mul_Into(sq, x, x)
		ret.RMS[chn] = float32(math.Sqrt(float64(vek32.Mean(sq))))
		vek32.Abs_Inplace(x)
		ret.Peak[chn] = vek32.Max(x)
	}
	return ret
}

// PeakDecibels returns the peak levels in dBFS, at least floor.
func (l Levels) PeakDecibels(floor Decibel) [2]Decibel {
	return [2]Decibel{toDecibel(l.Peak[0], floor), toDecibel(l.Peak[1], floor)}
}

// RMSDecibels returns the RMS levels in dBFS, at least floor.
func (l Levels) RMSDecibels(floor Decibel) [2]Decibel {
	return [2]Decibel{toDecibel(l.RMS[0], floor), toDecibel(l.RMS[1], floor)}
}

func toDecibel(amplitude float32, floor Decibel) Decibel {
	if amplitude <= 0 {
		return floor
	}
	return max(Decibel(20*math.Log10(float64(amplitude))), floor)
}
