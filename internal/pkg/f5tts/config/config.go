package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"f5tts/internal/pkg/f5tts/vocoder"
)

type Config struct {
	Model             string  `mapstructure:"model"`
	RefAudio          string  `mapstructure:"ref_audio"`
	RefText           string  `mapstructure:"ref_text"`
	GenText           string  `mapstructure:"gen_text"`
	Speed             float64 `mapstructure:"speed"`
	VocoderName       string  `mapstructure:"vocoder_name"`
	VocoderPath       string  `mapstructure:"vocoder_path"`
	VocabFile         string  `mapstructure:"vocab_file"`
	CkptFile          string  `mapstructure:"ckpt_file"`
	OutputFile        string  `mapstructure:"output_file"`
	OutputDir         string  `mapstructure:"output_dir"`
	NFEStep           int     `mapstructure:"nfe_step"`
	CFGStrength       float64 `mapstructure:"cfg_strength"`
	TargetRMS         float64 `mapstructure:"target_rms"`
	CrossFadeDuration float64 `mapstructure:"cross_fade_duration"`
	SwaySamplingCoef  float64 `mapstructure:"sway_sampling_coef"`
	RemoveSilence     bool    `mapstructure:"remove_silence"`
	LogLevel          string  `mapstructure:"log_level"`
	LogFile           string  `mapstructure:"log_file"`
}

// OutputPath is where the synthesized WAV lands.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFile)
}

func Load(args []string) (*Config, error) {
	v := viper.New()

	v.SetDefault("model", "F5TTS_Base")
	v.SetDefault("speed", 1.0)
	v.SetDefault("vocoder_name", vocoder.Vocos)
	v.SetDefault("vocab_file", "model/vocab.txt")
	v.SetDefault("ckpt_file", "model/model.onnx")
	v.SetDefault("output_file", "synthesized_speech.wav")
	v.SetDefault("output_dir", "outputs")
	v.SetDefault("nfe_step", 32)
	v.SetDefault("cfg_strength", 2.0)
	v.SetDefault("target_rms", 0.1)
	v.SetDefault("cross_fade_duration", 0.15)
	v.SetDefault("sway_sampling_coef", -1.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	flagSet := pflag.NewFlagSet("f5tts", pflag.ContinueOnError)
	configFile := flagSet.StringP("config", "c", "", "Path to config file")
	flagSet.String("model", "", "Model name (resolves configs/<name>.yaml)")
	flagSet.String("ref_audio", "", "Reference audio file")
	flagSet.String("ref_text", "", "Transcript of the reference audio")
	flagSet.String("gen_text", "", "Text to synthesize (use '-' to read from stdin)")
	genFile := flagSet.String("gen_file", "", "Read text to synthesize from file")
	flagSet.Float64("speed", 1.0, "Speed of the generated audio")
	flagSet.String("vocoder_name", "", "Vocoder to use (vocos, bigvgan)")
	flagSet.String("vocoder_path", "", "Path to local vocoder graph or directory")
	flagSet.String("vocab_file", "", "Path to vocab file")
	flagSet.String("ckpt_file", "", "Path to model checkpoint (graph file or directory)")
	flagSet.String("output_file", "", "Output file name")
	flagSet.String("output_dir", "", "Output directory")
	flagSet.Int("nfe_step", 32, "Number of function evaluation steps")
	flagSet.Float64("cfg_strength", 2.0, "Classifier-free guidance strength")
	flagSet.Float64("target_rms", 0.1, "Target RMS for reference audio normalization")
	flagSet.Float64("cross_fade_duration", 0.15, "Cross-fade duration between chunks in seconds")
	flagSet.Float64("sway_sampling_coef", -1.0, "Sway sampling coefficient")
	flagSet.Bool("remove_silence", false, "Remove long silences from the output")
	flagSet.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	flagSet.String("log-file", "", "Log file path")
	helpFlag := flagSet.BoolP("help", "h", false, "Show help message")

	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *helpFlag {
		fmt.Fprintf(os.Stderr, "Usage: f5tts [options]\n\nOptions:\n")
		flagSet.PrintDefaults()
		return nil, pflag.ErrHelp
	}

	bindings := map[string]string{
		"model":               "model",
		"ref_audio":           "ref_audio",
		"ref_text":            "ref_text",
		"gen_text":            "gen_text",
		"speed":               "speed",
		"vocoder_name":        "vocoder_name",
		"vocoder_path":        "vocoder_path",
		"vocab_file":          "vocab_file",
		"ckpt_file":           "ckpt_file",
		"output_file":         "output_file",
		"output_dir":          "output_dir",
		"nfe_step":            "nfe_step",
		"cfg_strength":        "cfg_strength",
		"target_rms":          "target_rms",
		"cross_fade_duration": "cross_fade_duration",
		"sway_sampling_coef":  "sway_sampling_coef",
		"remove_silence":      "remove_silence",
		"log_level":           "log-level",
		"log_file":            "log-file",
	}
	for key, flagName := range bindings {
		if err := v.BindPFlag(key, flagSet.Lookup(flagName)); err != nil {
			return nil, err
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("f5tts.cfg")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "f5tts"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("F5TTS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if *genFile != "" {
		content, err := os.ReadFile(*genFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read gen_file: %w", err)
		}
		cfg.GenText = strings.TrimSpace(string(content))
	} else if cfg.GenText == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		cfg.GenText = strings.TrimSpace(string(content))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.RefAudio == "" {
		return fmt.Errorf("ref_audio is required")
	}
	if c.RefText == "" {
		return fmt.Errorf("ref_text is required (automatic transcription is not supported)")
	}
	if c.GenText == "" {
		return fmt.Errorf("gen_text is required (use --gen_text or --gen_file)")
	}
	if !vocoder.IsSupported(c.VocoderName) {
		return fmt.Errorf("invalid vocoder_name %q (supported: %v)", c.VocoderName, vocoder.SupportedNames())
	}
	if c.Speed <= 0 || c.Speed > 3.0 {
		return fmt.Errorf("speed must be in (0, 3.0], got %g", c.Speed)
	}
	if c.NFEStep < 1 || c.NFEStep > 128 {
		return fmt.Errorf("nfe_step must be between 1 and 128, got %d", c.NFEStep)
	}
	if c.TargetRMS <= 0 || c.TargetRMS > 1 {
		return fmt.Errorf("target_rms must be in (0, 1], got %g", c.TargetRMS)
	}
	if c.CrossFadeDuration < 0 {
		return fmt.Errorf("cross_fade_duration must not be negative, got %g", c.CrossFadeDuration)
	}
	return nil
}
