package audio

import "testing"

func speechThenSilence(speechSec, silenceSec float64) []float32 {
	speech := sine(220, speechSec, SampleRate, 0.5)
	silence := make([]float32, int(silenceSec*float64(SampleRate)))
	return append(speech, silence...)
}

func TestClipToMaxDurationShortAudioUntouched(t *testing.T) {
	a := NewAudio(sine(220, 2, SampleRate, 0.5))
	out := a.ClipToMaxDuration(12)
	if len(out.Samples) != len(a.Samples) {
		t.Errorf("short audio was clipped: %d != %d", len(out.Samples), len(a.Samples))
	}
}

func TestClipToMaxDurationHardCut(t *testing.T) {
	// Continuous tone with no silence: must hard cut at the limit.
	a := NewAudio(sine(220, 15, SampleRate, 0.5))
	out := a.ClipToMaxDuration(12)
	if out.Duration() > 12.01 {
		t.Errorf("clipped duration = %g, want <= 12", out.Duration())
	}
	if out.Duration() < 11.9 {
		t.Errorf("hard cut removed too much: %g", out.Duration())
	}
}

func TestClipToMaxDurationPrefersSilence(t *testing.T) {
	// 10s speech then 5s silence: the cut should land in the silent part,
	// keeping all the speech.
	a := NewAudio(speechThenSilence(10, 5))
	out := a.ClipToMaxDuration(12)
	if out.Duration() > 12.01 {
		t.Errorf("clipped duration = %g, want <= 12", out.Duration())
	}
	if out.Duration() < 10 {
		t.Errorf("clip cut into speech: duration %g < 10", out.Duration())
	}
}

func TestRemoveLongSilenceCollapsesGap(t *testing.T) {
	speech := sine(220, 1, SampleRate, 0.5)
	gap := make([]float32, 3*SampleRate)
	samples := append(append(append([]float32{}, speech...), gap...), speech...)
	a := NewAudio(samples)

	out := a.RemoveLongSilence()

	// Two 1s segments plus at most 0.5s padding on each side of the gap.
	if out.Duration() > 3.2 {
		t.Errorf("duration after silence removal = %g, want <= ~3.1", out.Duration())
	}
	if out.Duration() < 2.0 {
		t.Errorf("silence removal dropped speech: duration %g", out.Duration())
	}
}

func TestRemoveLongSilenceKeepsShortPauses(t *testing.T) {
	speech := sine(220, 1, SampleRate, 0.5)
	pause := make([]float32, SampleRate/2)
	samples := append(append(append([]float32{}, speech...), pause...), speech...)
	a := NewAudio(samples)

	out := a.RemoveLongSilence()
	if out.Duration() < 2.4 {
		t.Errorf("short pause was removed: duration %g, want ~2.5", out.Duration())
	}
}

func TestRemoveLongSilenceAllSilent(t *testing.T) {
	a := NewAudio(make([]float32, SampleRate))
	out := a.RemoveLongSilence()
	if len(out.Samples) != 0 {
		t.Errorf("all-silent input left %d samples", len(out.Samples))
	}
}
