// Package unett registers the flat U-Net transformer backbone used by
// E2-TTS style checkpoints.
package unett

import (
	"fmt"

	"f5tts/internal/pkg/f5tts/engine"
	"f5tts/internal/pkg/f5tts/pipeline"
)

func init() {
	engine.Register("UNetT", NewEngine)
}

func NewEngine(cfg engine.EngineConfig) (engine.Engine, error) {
	arch := &cfg.Arch
	if arch.Dim == 0 {
		arch.Dim = 1024
	}
	if arch.Depth == 0 {
		arch.Depth = 24
	}
	if arch.Heads == 0 {
		arch.Heads = 16
	}
	if arch.FFMult == 0 {
		arch.FFMult = 4
	}
	// UNetT has no separate text embedding width; the text branch shares
	// the model dimension.
	if arch.TextDim == 0 {
		arch.TextDim = arch.Dim
	}

	if arch.Dim%arch.Heads != 0 {
		return nil, fmt.Errorf("unett: dim %d not divisible by heads %d", arch.Dim, arch.Heads)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}
