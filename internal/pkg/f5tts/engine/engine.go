package engine

import (
	"f5tts/internal/pkg/f5tts/audio"
	"f5tts/internal/pkg/f5tts/modelcfg"
	"f5tts/internal/pkg/f5tts/vocoder"
)

// Request carries one synthesis job. RefAudio must already be mono at the
// model sample rate.
type Request struct {
	RefAudio          *audio.Audio
	RefText           string
	GenText           string
	Speed             float64
	NFESteps          int
	CFGStrength       float64
	TargetRMS         float64
	CrossFadeDuration float64
	SwaySamplingCoef  float64
}

type Engine interface {
	Generate(req Request) (*audio.Audio, error)
	Info() EngineInfo
	Close() error
}

type EngineInfo struct {
	Name       string
	Backbone   string
	SampleRate int
}

type EngineConfig struct {
	CkptPath  string
	VocabPath string
	Backbone  string
	Arch      modelcfg.Arch
	MelSpec   modelcfg.MelSpec
	Vocoder   *vocoder.Vocoder
}
