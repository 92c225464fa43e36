package modelcfg

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `model:
  backbone: DiT
  arch:
    dim: 1024
    depth: 22
    heads: 16
    ff_mult: 2
    text_dim: 512
    conv_layers: 4
  mel_spec:
    target_sample_rate: 24000
    n_mel_channels: 100
    hop_length: 256
    mel_spec_type: vocos
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "F5TTS_Base.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Model.Backbone != "DiT" {
		t.Errorf("backbone = %q, want DiT", cfg.Model.Backbone)
	}
	if cfg.Model.Arch.Dim != 1024 || cfg.Model.Arch.Depth != 22 {
		t.Errorf("arch = %+v", cfg.Model.Arch)
	}
	if cfg.Model.MelSpec.NMelChannels != 100 {
		t.Errorf("n_mel_channels = %d, want 100", cfg.Model.MelSpec.NMelChannels)
	}
}

func TestLoadAppliesMelDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	if err := os.WriteFile(path, []byte("model:\n  backbone: UNetT\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	mel := cfg.Model.MelSpec
	if mel.TargetSampleRate != 24000 || mel.NMelChannels != 100 || mel.HopLength != 256 {
		t.Errorf("mel defaults = %+v", mel)
	}
	if mel.MelSpecType != "vocos" {
		t.Errorf("mel_spec_type default = %q, want vocos", mel.MelSpecType)
	}
}

func TestLoadRejectsMissingBackbone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("model:\n  arch:\n    dim: 512\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for config without backbone")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestResolveNextToCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "configs")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfgPath := filepath.Join(cfgDir, "MyModel.yaml")
	if err := os.WriteFile(cfgPath, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := Resolve("MyModel", filepath.Join(dir, "model.onnx"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != cfgPath {
		t.Errorf("Resolve = %q, want %q", got, cfgPath)
	}
}

func TestResolveConfigDirEnv(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "EnvModel.yaml")
	if err := os.WriteFile(cfgPath, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("F5TTS_CONFIG_DIR", dir)

	got, err := Resolve("EnvModel", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != cfgPath {
		t.Errorf("Resolve = %q, want %q", got, cfgPath)
	}
}

func TestResolveMissing(t *testing.T) {
	if _, err := Resolve("NoSuchModel", filepath.Join(t.TempDir(), "model.onnx")); err == nil {
		t.Fatal("expected error for unresolvable model config")
	}
}
