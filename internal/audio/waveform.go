// Package audio converts synthesized waveforms into the stored artifact format.
package audio

import (
	"encoding/binary"
	"errors"
	"math"
)

// SampleRate is the rate every stored artifact is written at.
const SampleRate = 16000

var ErrEmptyWaveform = errors.New("empty waveform")

// Waveform is mono float audio in [-1, 1].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// FromPCM16LE decodes raw signed 16-bit little-endian mono PCM.
func FromPCM16LE(data []byte, sampleRate int) Waveform {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		samples[i] = float32(v) / 32768
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

// Resample converts w to rate with linear interpolation.
func Resample(w Waveform, rate int) Waveform {
	if w.SampleRate == rate || w.SampleRate <= 0 || len(w.Samples) == 0 {
		return Waveform{Samples: w.Samples, SampleRate: rate}
	}

	ratio := float64(w.SampleRate) / float64(rate)
	n := int(math.Round(float64(len(w.Samples)) / ratio))
	out := make([]float32, n)
	last := len(w.Samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = w.Samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = w.Samples[j]*(1-frac) + w.Samples[j+1]*frac
	}
	return Waveform{Samples: out, SampleRate: rate}
}

// Concat resamples every part to rate and joins them.
func Concat(rate int, parts ...Waveform) Waveform {
	total := 0
	resampled := make([]Waveform, len(parts))
	for i, p := range parts {
		resampled[i] = Resample(p, rate)
		total += len(resampled[i].Samples)
	}
	out := make([]float32, 0, total)
	for _, p := range resampled {
		out = append(out, p.Samples...)
	}
	return Waveform{Samples: out, SampleRate: rate}
}

func toPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int(math.Round(float64(s) * 32767))
	}
	return out
}
