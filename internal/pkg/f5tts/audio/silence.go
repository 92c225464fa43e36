package audio

import "math"

const (
	silenceFrameSeconds = 0.01
	silenceThresholdDB  = -50.0

	// Silence gaps longer than this are collapsed by RemoveLongSilence.
	minSilenceSeconds = 1.0
	// Padding of silence retained on each side of a kept segment.
	keepSilenceSeconds = 0.5
)

func frameDB(samples []float32) float64 {
	if len(samples) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// silenceMask marks each analysis frame as silent or not.
func (a *Audio) silenceMask() []bool {
	frameLen := int(silenceFrameSeconds * float64(a.SampleRate))
	if frameLen < 1 {
		frameLen = 1
	}
	numFrames := (len(a.Samples) + frameLen - 1) / frameLen
	mask := make([]bool, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * frameLen
		end := start + frameLen
		if end > len(a.Samples) {
			end = len(a.Samples)
		}
		mask[i] = frameDB(a.Samples[start:end]) < silenceThresholdDB
	}
	return mask
}

// ClipToMaxDuration shortens reference audio that exceeds maxSeconds,
// preferring to cut at a silence boundary so the clip does not end
// mid-word. Falls back to a hard cut when no silence precedes the limit.
func (a *Audio) ClipToMaxDuration(maxSeconds float64) *Audio {
	maxSamples := int(maxSeconds * float64(a.SampleRate))
	if len(a.Samples) <= maxSamples {
		return a
	}

	frameLen := int(silenceFrameSeconds * float64(a.SampleRate))
	if frameLen < 1 {
		frameLen = 1
	}
	mask := a.silenceMask()

	cut := maxSamples
	maxFrame := maxSamples / frameLen
	if maxFrame > len(mask) {
		maxFrame = len(mask)
	}
	// Scan backwards from the limit for the nearest silent frame, but do
	// not throw away more than a third of the allowed window.
	minFrame := maxFrame * 2 / 3
	for f := maxFrame - 1; f >= minFrame; f-- {
		if f >= 0 && f < len(mask) && mask[f] {
			cut = f * frameLen
			break
		}
	}

	return NewAudioWithSampleRate(a.Samples[:cut], a.SampleRate)
}

// RemoveLongSilence collapses silence stretches longer than one second down
// to half a second of padding on each side of the surrounding speech.
func (a *Audio) RemoveLongSilence() *Audio {
	frameLen := int(silenceFrameSeconds * float64(a.SampleRate))
	if frameLen < 1 {
		frameLen = 1
	}
	mask := a.silenceMask()
	if len(mask) == 0 {
		return a
	}

	type segment struct{ start, end int }
	var segments []segment
	inSegment := false
	segStart := 0
	for i, silent := range mask {
		if !silent && !inSegment {
			inSegment = true
			segStart = i
		} else if silent && inSegment {
			inSegment = false
			segments = append(segments, segment{segStart, i})
		}
	}
	if inSegment {
		segments = append(segments, segment{segStart, len(mask)})
	}
	if len(segments) == 0 {
		return NewAudioWithSampleRate(nil, a.SampleRate)
	}

	minSilenceFrames := int(minSilenceSeconds / silenceFrameSeconds)
	keepFrames := int(keepSilenceSeconds / silenceFrameSeconds)

	// Merge segments separated by short silences.
	merged := []segment{segments[0]}
	for _, seg := range segments[1:] {
		last := &merged[len(merged)-1]
		if seg.start-last.end < minSilenceFrames {
			last.end = seg.end
		} else {
			merged = append(merged, seg)
		}
	}

	out := make([]float32, 0, len(a.Samples))
	for _, seg := range merged {
		start := seg.start - keepFrames
		if start < 0 {
			start = 0
		}
		end := seg.end + keepFrames
		if end > len(mask) {
			end = len(mask)
		}
		lo := start * frameLen
		hi := end * frameLen
		if hi > len(a.Samples) {
			hi = len(a.Samples)
		}
		out = append(out, a.Samples[lo:hi]...)
	}

	return NewAudioWithSampleRate(out, a.SampleRate)
}
