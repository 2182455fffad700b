package pitch

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MinRMS is the noise floor below which a frame is treated as silence.
const MinRMS = 0.005

// Fundamental estimates the fundamental frequency of samples (unsigned 8-bit,
// centred on 128) by normalised autocorrelation over the lags that
// correspond to [minHz, maxHz]. It returns 0 when the frame is below the
// noise floor or the lag range is empty.
func Fundamental(samples []uint8, sampleRate, minHz, maxHz float64) float64 {
	size := len(samples)
	if size == 0 || sampleRate <= 0 || minHz <= 0 || maxHz <= 0 {
		return 0
	}

	signal := make([]float64, size)
	for i, s := range samples {
		signal[i] = (float64(s) - Silence) / Silence
	}

	// DC removal and level gate.
	floats.AddConst(-stat.Mean(signal, nil), signal)
	rms := math.Sqrt(floats.Dot(signal, signal) / float64(size))
	if rms < MinRMS {
		return 0
	}

	minLag := int(math.Floor(sampleRate / maxHz))
	if minLag < 1 {
		minLag = 1
	}
	maxLag := int(math.Floor(sampleRate / minHz))
	if maxLag > size-1 {
		maxLag = size - 1
	}
	if minLag >= maxLag {
		return 0
	}

	acf := make([]float64, maxLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		overlap := size - lag
		acf[lag] = floats.Dot(signal[:overlap], signal[lag:]) / float64(overlap)
	}

	peakLag := firstRisingPeak(acf, minLag, maxLag)
	if peakLag <= 0 {
		peakLag = floats.MaxIdx(acf[minLag:maxLag+1]) + minLag
	}
	if peakLag <= 0 {
		return 0
	}
	return sampleRate / float64(peakLag)
}

// firstRisingPeak walks acf[minLag..maxLag] and returns the lag of the first
// local maximum that closes a strictly rising run, which skips the initial
// decay away from lag 0. It returns -1 when no such peak exists.
func firstRisingPeak(acf []float64, minLag, maxLag int) int {
	prev := acf[minLag]
	rising := false
	for lag := minLag + 1; lag <= maxLag-1; lag++ {
		curr := acf[lag]
		if curr > prev {
			rising = true
		} else if rising && curr < prev {
			return lag - 1
		}
		prev = curr
	}
	return -1
}
