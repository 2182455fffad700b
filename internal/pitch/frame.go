// Package pitch recovers frequencies from one analysis frame: a fundamental
// via time-domain autocorrelation and band-limited spectral peaks.
//
// Every function here is a pure function of its inputs. A return value of 0
// means "undetermined" (silence, an empty search range, or no energy in band).
package pitch

// Silence is the 8-bit sample value of a zero-amplitude signal.
const Silence = 128

// Frame is one analysis tick as produced by the capture subsystem.
type Frame struct {
	// TimeDomain holds N unsigned 8-bit amplitude samples centred on 128.
	TimeDomain []uint8
	// Spectrum holds N/2 unsigned 8-bit magnitudes covering 0..SampleRate/2.
	Spectrum   []uint8
	SampleRate float64
}

// BinWidth returns the frequency spacing of the frame's spectrum bins.
func (f Frame) BinWidth() float64 {
	return BinWidth(f.SampleRate, len(f.Spectrum))
}

// Fundamental runs the autocorrelation detector over the frame's time-domain
// samples within [minHz, maxHz].
func (f Frame) Fundamental(minHz, maxHz float64) float64 {
	return Fundamental(f.TimeDomain, f.SampleRate, minHz, maxHz)
}

// BandPeak returns the strongest spectral bin in [loHz, hiHz).
func (f Frame) BandPeak(loHz, hiHz float64) float64 {
	return BandPeak(f.Spectrum, f.SampleRate, loHz, hiHz)
}
