// Package dit registers the diffusion-transformer backbone. The graph
// protocol is shared with the other backbones; this package owns the
// architecture defaults for DiT checkpoints.
package dit

import (
	"fmt"

	"f5tts/internal/pkg/f5tts/engine"
	"f5tts/internal/pkg/f5tts/pipeline"
)

func init() {
	engine.Register("DiT", NewEngine)
}

func NewEngine(cfg engine.EngineConfig) (engine.Engine, error) {
	arch := &cfg.Arch
	if arch.Dim == 0 {
		arch.Dim = 1024
	}
	if arch.Depth == 0 {
		arch.Depth = 22
	}
	if arch.Heads == 0 {
		arch.Heads = 16
	}
	if arch.FFMult == 0 {
		arch.FFMult = 2
	}
	if arch.TextDim == 0 {
		arch.TextDim = 512
	}
	if arch.ConvLayers == 0 {
		arch.ConvLayers = 4
	}

	if arch.Dim%arch.Heads != 0 {
		return nil, fmt.Errorf("dit: dim %d not divisible by heads %d", arch.Dim, arch.Heads)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}
