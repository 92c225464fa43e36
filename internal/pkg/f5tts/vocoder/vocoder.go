// Package vocoder turns mel spectrogram frames into waveform samples using
// an exported ONNX vocoder graph.
package vocoder

import (
	"fmt"
	"os"
	"path/filepath"

	ort "github.com/yalue/onnxruntime_go"

	"f5tts/internal/pkg/f5tts/ortenv"
)

const (
	Vocos   = "vocos"
	BigVGAN = "bigvgan"
)

var sampleRates = map[string]int{
	Vocos:   24000,
	BigVGAN: 24000,
}

func IsSupported(name string) bool {
	_, ok := sampleRates[name]
	return ok
}

func SupportedNames() []string {
	return []string{Vocos, BigVGAN}
}

type Vocoder struct {
	name       string
	session    *ort.DynamicAdvancedSession
	sampleRate int
	numMels    int
}

// Load opens the vocoder session. The path may name the .onnx graph
// directly or a directory containing vocoder.onnx; when empty it defaults
// to models/<name>/vocoder.onnx.
func Load(name, path string, numMels int) (*Vocoder, error) {
	sampleRate, ok := sampleRates[name]
	if !ok {
		return nil, fmt.Errorf("unknown vocoder %q (supported: %v)", name, SupportedNames())
	}

	if path == "" {
		path = filepath.Join("models", name)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "vocoder.onnx")
	}

	if err := ortenv.Acquire(); err != nil {
		return nil, err
	}

	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{"mel"},
		[]string{"waveform"},
		nil,
	)
	if err != nil {
		ortenv.Release()
		return nil, fmt.Errorf("failed to load vocoder %s: %w", name, err)
	}

	return &Vocoder{
		name:       name,
		session:    session,
		sampleRate: sampleRate,
		numMels:    numMels,
	}, nil
}

// Decode converts mel data laid out (numMels, frames) into audio samples.
func (v *Vocoder) Decode(mel []float32, frames int) ([]float32, error) {
	if frames <= 0 || len(mel) != v.numMels*frames {
		return nil, fmt.Errorf("mel data has %d values, want %d mels x %d frames", len(mel), v.numMels, frames)
	}

	melTensor, err := ort.NewTensor(ort.NewShape(1, int64(v.numMels), int64(frames)), mel)
	if err != nil {
		return nil, fmt.Errorf("failed to create mel tensor: %w", err)
	}
	defer melTensor.Destroy()

	inputs := []ort.Value{melTensor}
	outputs := make([]ort.Value, 1)

	if err := v.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("failed to run vocoder: %w", err)
	}

	if outputs[0] == nil {
		return nil, fmt.Errorf("no output from vocoder")
	}
	defer outputs[0].Destroy()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected vocoder output type")
	}

	samples := append([]float32(nil), outputTensor.GetData()...)
	return samples, nil
}

func (v *Vocoder) Name() string {
	return v.name
}

func (v *Vocoder) SampleRate() int {
	return v.sampleRate
}

func (v *Vocoder) Close() error {
	var lastErr error
	if v.session != nil {
		if err := v.session.Destroy(); err != nil {
			lastErr = err
		}
		v.session = nil
	}
	if err := ortenv.Release(); err != nil {
		lastErr = err
	}
	return lastErr
}
