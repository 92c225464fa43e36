// Package modelcfg resolves and parses per-model YAML configuration files
// describing the backbone, its architecture hyperparameters, and the mel
// spectrogram geometry the checkpoint was trained with.
package modelcfg

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Arch struct {
	Dim        int `yaml:"dim"`
	Depth      int `yaml:"depth"`
	Heads      int `yaml:"heads"`
	FFMult     int `yaml:"ff_mult"`
	TextDim    int `yaml:"text_dim"`
	ConvLayers int `yaml:"conv_layers"`
}

type MelSpec struct {
	TargetSampleRate int    `yaml:"target_sample_rate"`
	NMelChannels     int    `yaml:"n_mel_channels"`
	HopLength        int    `yaml:"hop_length"`
	MelSpecType      string `yaml:"mel_spec_type"`
}

type Model struct {
	Backbone string  `yaml:"backbone"`
	Arch     Arch    `yaml:"arch"`
	MelSpec  MelSpec `yaml:"mel_spec"`
}

type Config struct {
	Model Model `yaml:"model"`
}

// Resolve locates configs/<model>.yaml. Search order: $F5TTS_CONFIG_DIR,
// configs/ next to the checkpoint, ./configs, and the working directory.
func Resolve(modelName, ckptFile string) (string, error) {
	fileName := modelName + ".yaml"

	var candidates []string
	if dir := os.Getenv("F5TTS_CONFIG_DIR"); dir != "" {
		candidates = append(candidates, filepath.Join(dir, fileName))
	}
	if ckptFile != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(ckptFile), "configs", fileName))
	}
	candidates = append(candidates,
		filepath.Join("configs", fileName),
		fileName,
	)

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}

	return "", fmt.Errorf("could not find model config for %s (looked in %v)", modelName, candidates)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse model config %s: %w", path, err)
	}

	if cfg.Model.Backbone == "" {
		return nil, fmt.Errorf("model config %s does not name a backbone", path)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	mel := &cfg.Model.MelSpec
	if mel.TargetSampleRate == 0 {
		mel.TargetSampleRate = 24000
	}
	if mel.NMelChannels == 0 {
		mel.NMelChannels = 100
	}
	if mel.HopLength == 0 {
		mel.HopLength = 256
	}
	if mel.MelSpecType == "" {
		mel.MelSpecType = "vocos"
	}
}
