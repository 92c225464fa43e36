package audio

import "math"

// Resample returns the audio converted to the target sample rate using
// linear interpolation. The input is returned unchanged when the rates
// already match.
func (a *Audio) Resample(targetRate int) *Audio {
	if a.SampleRate == targetRate || len(a.Samples) == 0 {
		return NewAudioWithSampleRate(a.Samples, targetRate)
	}

	ratio := float64(a.SampleRate) / float64(targetRate)
	outLen := int(float64(len(a.Samples)) / ratio)
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))
		if idx+1 < len(a.Samples) {
			out[i] = a.Samples[idx]*(1-frac) + a.Samples[idx+1]*frac
		} else {
			out[i] = a.Samples[len(a.Samples)-1]
		}
	}

	return NewAudioWithSampleRate(out, targetRate)
}

// RMS returns the root mean square level of the samples.
func (a *Audio) RMS() float32 {
	if len(a.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range a.Samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(a.Samples))))
}

// NormalizeRMS boosts quiet audio up to the target RMS level and returns the
// gain that was applied. Audio already at or above the target is left alone,
// mirroring how the reference is only ever amplified before inference.
func (a *Audio) NormalizeRMS(target float32) float32 {
	rms := a.RMS()
	if rms <= 0 || rms >= target {
		return 1.0
	}
	gain := target / rms
	for i := range a.Samples {
		a.Samples[i] *= gain
	}
	return gain
}

// Scale multiplies every sample by the given factor in place.
func (a *Audio) Scale(factor float32) {
	if factor == 1.0 {
		return
	}
	for i := range a.Samples {
		a.Samples[i] *= factor
	}
}

// CrossFadeConcat joins waveform chunks with linear cross-fade ramps of
// fadeDuration seconds. Chunks shorter than the fade window are concatenated
// directly.
func CrossFadeConcat(chunks []*Audio, fadeDuration float64, sampleRate int) *Audio {
	if len(chunks) == 0 {
		return NewAudioWithSampleRate(nil, sampleRate)
	}
	if len(chunks) == 1 {
		return NewAudioWithSampleRate(chunks[0].Samples, sampleRate)
	}

	result := chunks[0].Samples
	for _, chunk := range chunks[1:] {
		next := chunk.Samples
		fadeLen := int(fadeDuration * float64(sampleRate))
		if fadeLen > len(result) {
			fadeLen = len(result)
		}
		if fadeLen > len(next) {
			fadeLen = len(next)
		}

		if fadeLen <= 0 {
			result = append(result, next...)
			continue
		}

		joined := make([]float32, 0, len(result)+len(next)-fadeLen)
		joined = append(joined, result[:len(result)-fadeLen]...)

		tail := result[len(result)-fadeLen:]
		for i := 0; i < fadeLen; i++ {
			fadeIn := float32(i) / float32(fadeLen)
			fadeOut := 1 - fadeIn
			joined = append(joined, tail[i]*fadeOut+next[i]*fadeIn)
		}

		joined = append(joined, next[fadeLen:]...)
		result = joined
	}

	return NewAudioWithSampleRate(result, sampleRate)
}
