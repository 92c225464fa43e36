// Package pipeline drives flow-matching TTS inference over exported ONNX
// graphs: a preprocess graph that fuses reference mel features with text
// conditioning, and a transformer graph evaluated once per ODE step. The
// integration loop, classifier-free guidance, sway time sampling, chunking,
// and cross-fading all happen here.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"f5tts/internal/pkg/f5tts/audio"
	"f5tts/internal/pkg/f5tts/engine"
	"f5tts/internal/pkg/f5tts/modelcfg"
	"f5tts/internal/pkg/f5tts/ortenv"
	"f5tts/internal/pkg/f5tts/text"
	"f5tts/internal/pkg/f5tts/vocab"
	"f5tts/internal/pkg/f5tts/vocoder"
)

type Pipeline struct {
	backbone    string
	preprocess  *ort.DynamicAdvancedSession
	transformer *ort.DynamicAdvancedSession
	vocab       *vocab.Vocab
	mel         modelcfg.MelSpec
	voc         *vocoder.Vocoder
	rng         *gaussianRNG
	initialized bool
}

// sessionPaths derives the two graph locations from the checkpoint flag:
// either a directory holding preprocess.onnx/transformer.onnx, or the
// transformer graph itself with preprocess.onnx resolved beside it.
func sessionPaths(ckptPath string) (preprocessPath, transformerPath string, err error) {
	info, statErr := os.Stat(ckptPath)
	if statErr != nil {
		return "", "", fmt.Errorf("checkpoint path %s: %w", ckptPath, statErr)
	}

	modelDir := ckptPath
	transformerPath = filepath.Join(ckptPath, "transformer.onnx")
	if !info.IsDir() {
		modelDir = filepath.Dir(ckptPath)
		transformerPath = ckptPath
	}
	preprocessPath = filepath.Join(modelDir, "preprocess.onnx")
	return preprocessPath, transformerPath, nil
}

func New(cfg engine.EngineConfig) (*Pipeline, error) {
	if cfg.MelSpec.NMelChannels < 1 || cfg.MelSpec.HopLength < 1 {
		return nil, fmt.Errorf("invalid mel spec: %d channels, hop %d", cfg.MelSpec.NMelChannels, cfg.MelSpec.HopLength)
	}
	if cfg.Vocoder == nil {
		return nil, fmt.Errorf("pipeline requires a loaded vocoder")
	}

	v, err := vocab.Load(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocab: %w", err)
	}

	preprocessPath, transformerPath, err := sessionPaths(cfg.CkptPath)
	if err != nil {
		return nil, err
	}

	if err := ortenv.Acquire(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		backbone:    cfg.Backbone,
		vocab:       v,
		mel:         cfg.MelSpec,
		voc:         cfg.Vocoder,
		rng:         newGaussianRNG(42),
		initialized: true,
	}

	p.preprocess, err = ort.NewDynamicAdvancedSession(
		preprocessPath,
		[]string{"audio", "text_ids", "duration"},
		[]string{"cond", "cond_drop"},
		nil,
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to load preprocess graph: %w", err)
	}

	p.transformer, err = ort.NewDynamicAdvancedSession(
		transformerPath,
		[]string{"noise", "cond", "cond_drop", "time"},
		[]string{"pred", "null_pred"},
		nil,
	)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to load transformer graph: %w", err)
	}

	return p, nil
}

// Generate synthesizes speech for req.GenText in the voice of the reference
// audio. Long text is split at punctuation boundaries and the per-chunk
// waveforms are cross-faded together.
func (p *Pipeline) Generate(req engine.Request) (*audio.Audio, error) {
	if req.RefAudio == nil || len(req.RefAudio.Samples) == 0 {
		return nil, fmt.Errorf("reference audio is empty")
	}
	if req.NFESteps < 1 {
		return nil, fmt.Errorf("nfe steps must be at least 1, got %d", req.NFESteps)
	}

	ref := audio.NewAudioWithSampleRate(
		append([]float32(nil), req.RefAudio.Samples...),
		req.RefAudio.SampleRate,
	)
	gain := ref.NormalizeRMS(float32(req.TargetRMS))

	refText := text.EnsureTerminated(text.Normalize(req.RefText))
	genText := text.Normalize(req.GenText)
	if refText == "" || genText == "" {
		return nil, fmt.Errorf("reference and generation text must be non-empty")
	}

	maxBytes := text.MaxChunkBytes(refText, ref.Duration(), req.Speed)
	chunks := text.Chunk(genText, maxBytes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no synthesizable text in %q", req.GenText)
	}

	refFrames := len(ref.Samples) / p.mel.HopLength
	if refFrames < 1 {
		return nil, fmt.Errorf("reference audio shorter than one mel frame")
	}

	waves := make([]*audio.Audio, 0, len(chunks))
	for _, chunk := range chunks {
		samples, err := p.generateChunk(ref.Samples, refFrames, refText, chunk, req)
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize chunk %q: %w", truncate(chunk, 30), err)
		}
		if gain > 1.0 {
			for i := range samples {
				samples[i] /= gain
			}
		}
		waves = append(waves, audio.NewAudioWithSampleRate(samples, p.voc.SampleRate()))
	}

	return audio.CrossFadeConcat(waves, req.CrossFadeDuration, p.voc.SampleRate()), nil
}

func (p *Pipeline) generateChunk(refSamples []float32, refFrames int, refText, genText string, req engine.Request) ([]float32, error) {
	ids := p.vocab.Encode(refText + genText)
	if len(ids) == 0 {
		return nil, fmt.Errorf("failed to encode text")
	}

	durationFrames, err := estimateDurationFrames(refFrames, len(refText), len(genText), req.Speed)
	if err != nil {
		return nil, err
	}

	cond, condDrop, err := p.runPreprocess(refSamples, ids, durationFrames)
	if err != nil {
		return nil, err
	}

	mel, err := p.integrate(cond, condDrop, durationFrames, req)
	if err != nil {
		return nil, err
	}

	genFrames := durationFrames - refFrames
	vocMel := extractGeneratedMel(mel, refFrames, durationFrames, p.mel.NMelChannels)

	return p.voc.Decode(vocMel, genFrames)
}

// runPreprocess produces the fused conditioning tensors for one chunk. The
// drop variant has its speech and text conditioning zeroed and feeds the
// unconditional branch of classifier-free guidance.
func (p *Pipeline) runPreprocess(refSamples []float32, ids []int64, durationFrames int) ([]float32, []float32, error) {
	audioTensor, err := ort.NewTensor(ort.NewShape(1, 1, int64(len(refSamples))), refSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create audio tensor: %w", err)
	}

	idsTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), ids)
	if err != nil {
		audioTensor.Destroy()
		return nil, nil, fmt.Errorf("failed to create text_ids tensor: %w", err)
	}

	durationTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(durationFrames)})
	if err != nil {
		audioTensor.Destroy()
		idsTensor.Destroy()
		return nil, nil, fmt.Errorf("failed to create duration tensor: %w", err)
	}

	inputs := []ort.Value{audioTensor, idsTensor, durationTensor}
	outputs := make([]ort.Value, 2)

	if err := p.preprocess.Run(inputs, outputs); err != nil {
		destroyAll(inputs)
		return nil, nil, fmt.Errorf("failed to run preprocess graph: %w", err)
	}
	destroyAll(inputs)

	if outputs[0] == nil || outputs[1] == nil {
		destroyAll(outputs)
		return nil, nil, fmt.Errorf("preprocess graph returned no conditioning")
	}

	condTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		destroyAll(outputs)
		return nil, nil, fmt.Errorf("unexpected cond output type")
	}
	dropTensor, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		destroyAll(outputs)
		return nil, nil, fmt.Errorf("unexpected cond_drop output type")
	}

	cond := append([]float32(nil), condTensor.GetData()...)
	condDrop := append([]float32(nil), dropTensor.GetData()...)
	destroyAll(outputs)

	return cond, condDrop, nil
}

// integrate runs the Euler ODE over the sway-sampled time grid, evaluating
// the transformer once per step and applying classifier-free guidance to
// the velocity field.
func (p *Pipeline) integrate(cond, condDrop []float32, durationFrames int, req engine.Request) ([]float32, error) {
	numMels := p.mel.NMelChannels
	condDim := len(cond) / durationFrames

	x := make([]float32, durationFrames*numMels)
	for i := range x {
		x[i] = float32(p.rng.Next())
	}

	steps := timeSteps(req.NFESteps, req.SwaySamplingCoef)

	for step := 0; step < req.NFESteps; step++ {
		t := steps[step]
		dt := steps[step+1] - steps[step]

		noiseTensor, err := ort.NewTensor(ort.NewShape(1, int64(durationFrames), int64(numMels)), x)
		if err != nil {
			return nil, fmt.Errorf("failed to create noise tensor: %w", err)
		}

		condTensor, err := ort.NewTensor(ort.NewShape(1, int64(durationFrames), int64(condDim)), cond)
		if err != nil {
			noiseTensor.Destroy()
			return nil, fmt.Errorf("failed to create cond tensor: %w", err)
		}

		dropTensor, err := ort.NewTensor(ort.NewShape(1, int64(durationFrames), int64(condDim)), condDrop)
		if err != nil {
			noiseTensor.Destroy()
			condTensor.Destroy()
			return nil, fmt.Errorf("failed to create cond_drop tensor: %w", err)
		}

		timeTensor, err := ort.NewTensor(ort.NewShape(1), []float32{t})
		if err != nil {
			noiseTensor.Destroy()
			condTensor.Destroy()
			dropTensor.Destroy()
			return nil, fmt.Errorf("failed to create time tensor: %w", err)
		}

		inputs := []ort.Value{noiseTensor, condTensor, dropTensor, timeTensor}
		outputs := make([]ort.Value, 2)

		if err := p.transformer.Run(inputs, outputs); err != nil {
			destroyAll(inputs)
			return nil, fmt.Errorf("failed to run transformer at step %d: %w", step, err)
		}
		destroyAll(inputs)

		if outputs[0] == nil {
			destroyAll(outputs)
			return nil, fmt.Errorf("no prediction at step %d", step)
		}

		predTensor, ok := outputs[0].(*ort.Tensor[float32])
		if !ok {
			destroyAll(outputs)
			return nil, fmt.Errorf("unexpected prediction output type")
		}
		pred := append([]float32(nil), predTensor.GetData()...)

		if outputs[1] != nil {
			if nullTensor, ok := outputs[1].(*ort.Tensor[float32]); ok {
				applyGuidance(pred, nullTensor.GetData(), float32(req.CFGStrength))
			}
		}
		destroyAll(outputs)

		if len(pred) != len(x) {
			return nil, fmt.Errorf("prediction has %d values, want %d", len(pred), len(x))
		}
		for i := range x {
			x[i] += pred[i] * dt
		}
	}

	return x, nil
}

// extractGeneratedMel drops the reference frames from the integrated mel
// and transposes the remainder from (frames, mels) to the (mels, frames)
// layout the vocoder expects.
func extractGeneratedMel(mel []float32, refFrames, durationFrames, numMels int) []float32 {
	genFrames := durationFrames - refFrames
	out := make([]float32, numMels*genFrames)
	for f := 0; f < genFrames; f++ {
		src := (refFrames + f) * numMels
		for m := 0; m < numMels; m++ {
			out[m*genFrames+f] = mel[src+m]
		}
	}
	return out
}

func (p *Pipeline) Info() engine.EngineInfo {
	return engine.EngineInfo{
		Name:       "f5tts-" + strings.ToLower(p.backbone),
		Backbone:   p.backbone,
		SampleRate: p.voc.SampleRate(),
	}
}

func (p *Pipeline) Close() error {
	var lastErr error

	if p.preprocess != nil {
		if err := p.preprocess.Destroy(); err != nil {
			lastErr = err
		}
		p.preprocess = nil
	}
	if p.transformer != nil {
		if err := p.transformer.Destroy(); err != nil {
			lastErr = err
		}
		p.transformer = nil
	}

	if p.initialized {
		if err := ortenv.Release(); err != nil {
			lastErr = err
		}
		p.initialized = false
	}

	return lastErr
}

func destroyAll(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
