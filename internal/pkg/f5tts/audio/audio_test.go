package audio

import (
	"math"
	"path/filepath"
	"testing"
)

func sine(freq float64, seconds float64, sampleRate int, amplitude float64) []float32 {
	n := int(seconds * float64(sampleRate))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return samples
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	original := NewAudio(sine(440, 0.5, SampleRate, 0.5))
	if err := original.SaveWAV(path); err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}

	loaded, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}

	if loaded.SampleRate != SampleRate {
		t.Errorf("sample rate = %d, want %d", loaded.SampleRate, SampleRate)
	}
	if len(loaded.Samples) != len(original.Samples) {
		t.Fatalf("sample count = %d, want %d", len(loaded.Samples), len(original.Samples))
	}

	// 16-bit quantization error should stay below one LSB plus rounding.
	for i := range loaded.Samples {
		diff := math.Abs(float64(loaded.Samples[i] - original.Samples[i]))
		if diff > 2.0/math.MaxInt16 {
			t.Fatalf("sample %d differs by %g", i, diff)
		}
	}
}

func TestLoadWAVMissingFile(t *testing.T) {
	if _, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDuration(t *testing.T) {
	a := NewAudio(make([]float32, SampleRate*2))
	if got := a.Duration(); got != 2.0 {
		t.Errorf("Duration() = %g, want 2.0", got)
	}
}

func TestResample(t *testing.T) {
	a := NewAudioWithSampleRate(sine(440, 1.0, 48000, 0.5), 48000)
	out := a.Resample(24000)

	if out.SampleRate != 24000 {
		t.Errorf("sample rate = %d, want 24000", out.SampleRate)
	}
	want := len(a.Samples) / 2
	if len(out.Samples) != want {
		t.Errorf("resampled length = %d, want %d", len(out.Samples), want)
	}
}

func TestResampleNoop(t *testing.T) {
	a := NewAudio(sine(440, 0.1, SampleRate, 0.5))
	out := a.Resample(SampleRate)
	if len(out.Samples) != len(a.Samples) {
		t.Errorf("length changed on same-rate resample: %d != %d", len(out.Samples), len(a.Samples))
	}
}

func TestNormalizeRMSBoostsQuietAudio(t *testing.T) {
	a := NewAudio(sine(440, 0.2, SampleRate, 0.01))
	before := a.RMS()
	gain := a.NormalizeRMS(0.1)

	if gain <= 1.0 {
		t.Fatalf("gain = %g, want > 1 for quiet audio", gain)
	}
	after := a.RMS()
	if math.Abs(float64(after-0.1)) > 0.001 {
		t.Errorf("RMS after normalization = %g, want ~0.1 (before %g)", after, before)
	}
}

func TestNormalizeRMSLeavesLoudAudio(t *testing.T) {
	a := NewAudio(sine(440, 0.2, SampleRate, 0.5))
	if gain := a.NormalizeRMS(0.1); gain != 1.0 {
		t.Errorf("gain = %g, want 1.0 for audio above target", gain)
	}
}

func TestCrossFadeConcat(t *testing.T) {
	first := NewAudio(make([]float32, SampleRate))
	second := NewAudio(make([]float32, SampleRate))
	for i := range first.Samples {
		first.Samples[i] = 0.5
		second.Samples[i] = 0.5
	}

	fade := 0.1
	out := CrossFadeConcat([]*Audio{first, second}, fade, SampleRate)

	fadeLen := int(fade * float64(SampleRate))
	want := 2*SampleRate - fadeLen
	if len(out.Samples) != want {
		t.Fatalf("joined length = %d, want %d", len(out.Samples), want)
	}

	// Linear ramps over equal levels sum back to the input level at every
	// point of the fade.
	for i := 0; i < fadeLen; i++ {
		s := out.Samples[SampleRate-fadeLen+i]
		if math.Abs(float64(s-0.5)) > 1e-6 {
			t.Fatalf("fade sample %d = %g, want 0.5", i, s)
		}
	}
}

func TestCrossFadeConcatSingleChunk(t *testing.T) {
	only := NewAudio(sine(440, 0.1, SampleRate, 0.5))
	out := CrossFadeConcat([]*Audio{only}, 0.15, SampleRate)
	if len(out.Samples) != len(only.Samples) {
		t.Errorf("single chunk length changed: %d != %d", len(out.Samples), len(only.Samples))
	}
}

func TestCrossFadeConcatZeroDuration(t *testing.T) {
	first := NewAudio(make([]float32, 100))
	second := NewAudio(make([]float32, 100))
	out := CrossFadeConcat([]*Audio{first, second}, 0, SampleRate)
	if len(out.Samples) != 200 {
		t.Errorf("zero-fade join length = %d, want 200", len(out.Samples))
	}
}
