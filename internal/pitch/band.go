package pitch

import "math"

// BinWidth is the frequency covered by one bin of a spectrum of length bins
// spanning 0..sampleRate/2.
func BinWidth(sampleRate float64, bins int) float64 {
	if bins <= 0 {
		return 0
	}
	return sampleRate / 2 / float64(bins)
}

// BandPeak returns the frequency of the strongest bin whose centre lies in
// [loHz, hiHz). Ties resolve to the lowest frequency. It returns 0 when no
// bin falls inside the band or every bin in the band is silent.
func BandPeak(spectrum []uint8, sampleRate, loHz, hiHz float64) float64 {
	binWidth := BinWidth(sampleRate, len(spectrum))
	if binWidth <= 0 || hiHz <= loHz {
		return 0
	}

	first := int(math.Ceil(loHz / binWidth))
	if first < 0 {
		first = 0
	}

	best, bestVal := -1, uint8(0)
	for i := first; i < len(spectrum) && float64(i)*binWidth < hiHz; i++ {
		if spectrum[i] > bestVal {
			bestVal = spectrum[i]
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return float64(best) * binWidth
}
