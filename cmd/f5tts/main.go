package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"f5tts/internal/pkg/f5tts/audio"
	"f5tts/internal/pkg/f5tts/config"
	"f5tts/internal/pkg/f5tts/engine"
	"f5tts/internal/pkg/f5tts/modelcfg"
	"f5tts/internal/pkg/f5tts/vocoder"

	_ "f5tts/internal/pkg/f5tts/backends/dit"
	_ "f5tts/internal/pkg/f5tts/backends/unett"
)

// Reference audio longer than this is clipped before conditioning.
const maxRefSeconds = 12.0

func main() {
	fmt.Fprintf(os.Stderr, "f5tts %s\n", Version)

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("Failed to parse configuration")
	}

	if err := setupLogging(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup logging")
	}

	log.Debug().
		Str("model", cfg.Model).
		Str("ckpt", cfg.CkptFile).
		Str("vocab", cfg.VocabFile).
		Str("vocoder", cfg.VocoderName).
		Float64("speed", cfg.Speed).
		Int("nfe_step", cfg.NFEStep).
		Msg("Configuration loaded")

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.OutputDir).Msg("Failed to create output directory")
	}
	wavePath := cfg.OutputPath()

	cfgPath, err := modelcfg.Resolve(cfg.Model, cfg.CkptFile)
	if err != nil {
		log.Fatal().Err(err).Str("model", cfg.Model).Msg("Failed to resolve model config")
	}
	mc, err := modelcfg.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("Failed to load model config")
	}
	log.Debug().
		Str("path", cfgPath).
		Str("backbone", mc.Model.Backbone).
		Int("n_mel_channels", mc.Model.MelSpec.NMelChannels).
		Msg("Model config loaded")

	if mc.Model.MelSpec.MelSpecType != cfg.VocoderName {
		log.Warn().
			Str("trained_for", mc.Model.MelSpec.MelSpecType).
			Str("selected", cfg.VocoderName).
			Msg("Vocoder differs from the one the checkpoint was trained for")
	}

	log.Info().Str("vocoder", cfg.VocoderName).Msg("Loading vocoder...")
	voc, err := vocoder.Load(cfg.VocoderName, cfg.VocoderPath, mc.Model.MelSpec.NMelChannels)
	if err != nil {
		log.Fatal().Err(err).Str("vocoder", cfg.VocoderName).Msg("Failed to load vocoder")
	}
	defer voc.Close()

	log.Info().Str("ckpt", cfg.CkptFile).Str("backbone", mc.Model.Backbone).Msg("Loading model...")
	eng, err := engine.New(mc.Model.Backbone, engine.EngineConfig{
		CkptPath:  cfg.CkptFile,
		VocabPath: cfg.VocabFile,
		Arch:      mc.Model.Arch,
		MelSpec:   mc.Model.MelSpec,
		Vocoder:   voc,
	})
	if err != nil {
		log.Fatal().Err(err).Str("backbone", mc.Model.Backbone).Msg("Failed to load model")
	}
	defer eng.Close()

	info := eng.Info()
	log.Debug().
		Str("engine", info.Name).
		Int("sample_rate", info.SampleRate).
		Msg("Engine loaded")

	log.Info().Str("reference", cfg.RefAudio).Msg("Preprocessing reference audio...")
	ref, err := audio.LoadWAV(cfg.RefAudio)
	if err != nil {
		log.Fatal().Err(err).Str("reference", cfg.RefAudio).Msg("Failed to load reference audio")
	}
	ref = ref.Resample(mc.Model.MelSpec.TargetSampleRate)
	if ref.Duration() > maxRefSeconds {
		log.Warn().
			Float64("duration_sec", ref.Duration()).
			Float64("max_sec", maxRefSeconds).
			Msg("Reference audio too long, clipping")
		ref = ref.ClipToMaxDuration(maxRefSeconds)
	}

	log.Info().Str("text", truncateText(cfg.GenText, 50)).Msg("Generating speech...")
	startTime := time.Now()

	result, err := eng.Generate(engine.Request{
		RefAudio:          ref,
		RefText:           cfg.RefText,
		GenText:           cfg.GenText,
		Speed:             cfg.Speed,
		NFESteps:          cfg.NFEStep,
		CFGStrength:       cfg.CFGStrength,
		TargetRMS:         cfg.TargetRMS,
		CrossFadeDuration: cfg.CrossFadeDuration,
		SwaySamplingCoef:  cfg.SwaySamplingCoef,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate audio")
	}

	elapsed := time.Since(startTime)
	log.Info().
		Dur("elapsed", elapsed).
		Float64("duration_sec", result.Duration()).
		Msg("Audio generated")

	if cfg.RemoveSilence {
		log.Info().Msg("Removing silence from generated audio")
		result = result.RemoveLongSilence()
	}

	if err := result.SaveWAV(wavePath); err != nil {
		log.Fatal().Err(err).Str("output", wavePath).Msg("Failed to save audio")
	}

	log.Info().Str("output", wavePath).Msg("Audio saved successfully")
}

func setupLogging(cfg *config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
	}

	return nil
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
