// SPDX-License-Identifier: MIT
package compositor

import "math"

// Freq returns the frequency at output row k of maglen rows spanning
// [minFreq, maxFreq] logarithmically: freq(k) = minFreq·(maxFreq/minFreq)^(k/(maglen-1)).
func Freq(k, maglen int, minFreq, maxFreq float64) float64 {
	if maglen <= 1 {
		return minFreq
	}
	return minFreq * math.Pow(maxFreq/minFreq, float64(k)/float64(maglen-1))
}

// specIndex maps output row k to a real-valued input bin position:
// specindex(k) = freq(k)·speclen/(sampleRate/2).
func specIndex(k, maglen, speclen int, minFreq, maxFreq, sampleRate float64) float64 {
	return Freq(k, maglen, minFreq, maxFreq) * float64(speclen) / (sampleRate / 2)
}

// Interpolate maps the linear spectrum spec[0..speclen] into log10
// magnitude values for output rows [fromY, toY], per the log-frequency
// remap: a single linear interpolation when the input span covers less
// than one bin, a weighted average over the spanned bins otherwise.
// out must have length toY-fromY+1; out[i] corresponds to row fromY+i.
func Interpolate(spec []float64, speclen, maglen int, minFreq, maxFreq, sampleRate float64, fromY, toY int, out []float64) {
	for k := fromY; k <= toY; k++ {
		this := specIndex(k, maglen, speclen, minFreq, maxFreq, sampleRate)
		next := specIndex(k+1, maglen, speclen, minFreq, maxFreq, sampleRate)

		idx := k - fromY
		switch {
		case this > float64(speclen):
			out[idx] = math.Inf(-1)
		case next > this+1:
			out[idx] = math.Log10(averageBins(spec, speclen, this, next))
		default:
			lo := int(math.Floor(this))
			frac := this - float64(lo)
			hi := lo + 1
			if hi > speclen {
				hi = speclen
			}
			val := spec[lo] + (spec[hi]-spec[lo])*frac
			out[idx] = math.Log10(val)
		}
	}
}

// averageBins computes the weighted average of spec over the
// real-valued range [this, next], taking fractional parts of the
// first and last input bins, clamped to [0, speclen].
func averageBins(spec []float64, speclen int, this, next float64) float64 {
	lo := int(math.Floor(this))
	hi := int(math.Floor(next))
	if hi > speclen {
		hi = speclen
	}

	var sum, count float64
	for b := lo; b <= hi; b++ {
		if b < 0 || b > speclen {
			continue
		}
		weight := 1.0
		if b == lo {
			weight = 1 - (this - float64(lo))
		}
		if b == hi {
			weight = math.Min(next-float64(hi), 1)
			if hi == lo {
				weight = next - this
			}
		}
		if weight <= 0 {
			continue
		}
		sum += spec[b] * weight
		count += weight
	}
	if count == 0 {
		return spec[lo]
	}
	return sum / count
}
