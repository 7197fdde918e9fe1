package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/ai"
	"github.com/roguegoose-dev/goose-guidance/internal/ai/gemini"
	"github.com/roguegoose-dev/goose-guidance/internal/dialogue"
	"github.com/roguegoose-dev/goose-guidance/internal/filtering"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs/adzuna"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs/careerjet"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs/headhunter"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
	"github.com/roguegoose-dev/goose-guidance/internal/persona"
	"github.com/roguegoose-dev/goose-guidance/internal/risk"
	"github.com/roguegoose-dev/goose-guidance/internal/secrets"
)

// dialogueStack groups what the chat and ocr features need.
type dialogueStack struct {
	personas     *persona.Registry
	orchestrator *dialogue.Orchestrator
	reader       ai.TextExtractor
}

func newDialogueStack(ctx context.Context, config *Config, log *zap.Logger) (*dialogueStack, error) {
	cfg := config.Gemini
	if cfg == nil {
		return nil, errors.New("gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   envBindings["gemini.api-key"],
	})
	if err != nil {
		return nil, fmt.Errorf("%w, or point gemini.api-key-file at a key", err)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	var voices map[string]string
	if config.Personas != nil {
		voices = config.Personas.Voices
	}
	personas, err := persona.NewRegistry(persona.Defaults(), voices)
	if err != nil {
		return nil, fmt.Errorf("building personas: %w", err)
	}

	var classifier *risk.Classifier
	if config.Risk != nil {
		classifier = risk.NewClassifier(config.Risk.Risky, config.Risk.Cautious)
	} else {
		classifier = risk.NewClassifier(nil, nil)
	}

	generator := gemini.NewGenerator(client.Models, cfg.TextModel, cfg.Temperature, log)

	opts := dialogue.Options{MaxLogLength: cfg.MaxLogLength}
	// A nil synthesizer makes every reply text only.
	var speech ai.SpeechSynthesizer
	if config.Speech == nil || config.Speech.Enabled {
		speech = gemini.NewSpeaker(client.Models, cfg.SpeechModel, log)
	} else {
		log.Info("speech synthesis disabled")
	}
	if config.Speech != nil {
		opts.FallbackVoice = config.Speech.FallbackVoice
	}

	return &dialogueStack{
		personas:     personas,
		orchestrator: dialogue.NewOrchestrator(personas, classifier, generator, speech, opts, log),
		reader:       gemini.NewReader(client.Models, cfg.VisionModel, log),
	}, nil
}

// newAggregator registers the enabled providers in a fixed order: adzuna,
// careerjet, headhunter. A provider without credentials is skipped with a
// warning so the rest keep working.
func newAggregator(config *Config, log *zap.Logger) (*jobs.Aggregator, error) {
	cfg := config.Jobs
	if cfg == nil {
		cfg = &JobsConfig{}
	}

	var providers []jobs.Provider

	if cfg.Adzuna != nil && cfg.Adzuna.Enabled {
		p, err := newAdzuna(cfg.Adzuna, log)
		if err != nil {
			return nil, err
		}
		if p != nil {
			providers = append(providers, p)
		}
	}

	if cfg.Careerjet != nil && cfg.Careerjet.Enabled {
		p, err := newCareerjet(cfg.Careerjet, log)
		if err != nil {
			return nil, err
		}
		if p != nil {
			providers = append(providers, p)
		}
	}

	if cfg.Headhunter != nil && cfg.Headhunter.Enabled {
		p, err := newHeadhunter(cfg.Headhunter, log)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		log.Warn("no job providers enabled", zap.String("hint", "set ADZUNA_APP_ID/ADZUNA_APP_KEY or CAREERJET_API_KEY"))
	}

	pipeline, err := newFilterPipeline(cfg.Filters, log)
	if err != nil {
		return nil, err
	}

	aggregator, err := jobs.NewAggregator(providers, jobs.Options{
		ProviderTimeout: cfg.ProviderTimeout,
		Filter:          pipeline,
	}, log)
	if err != nil {
		return nil, err
	}

	log.Info("job providers ready", zap.Any("sources", aggregator.Sources()))
	return aggregator, nil
}

func newAdzuna(cfg *AdzunaConfig, log *zap.Logger) (jobs.Provider, error) {
	appKey, err := secrets.Optional(secrets.Source{
		Name:  "adzuna app key",
		Value: cfg.AppKey,
		File:  cfg.AppKeyFile,
		Env:   envBindings["jobs.adzuna.app-key"],
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AppID) == "" || appKey == "" {
		log.Warn("skipping job provider", zap.String(logger.FieldProvider, string(jobs.SourceAdzuna)), zap.String("reason", "credentials are not configured"))
		return nil, nil
	}

	return adzuna.New(adzuna.Config{
		AppID:    cfg.AppID,
		AppKey:   appKey,
		Country:  cfg.Country,
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
	}, nil, log)
}

func newCareerjet(cfg *CareerjetConfig, log *zap.Logger) (jobs.Provider, error) {
	apiKey, err := secrets.Optional(secrets.Source{
		Name:  "careerjet api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   envBindings["jobs.careerjet.api-key"],
	})
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		log.Warn("skipping job provider", zap.String(logger.FieldProvider, string(jobs.SourceCareerjet)), zap.String("reason", "api key is not configured"))
		return nil, nil
	}

	return careerjet.New(careerjet.Config{
		APIKey:   apiKey,
		Locale:   cfg.Locale,
		BaseURL:  cfg.BaseURL,
		Referer:  cfg.Referer,
		PageSize: cfg.PageSize,
	}, nil, log)
}

// hh.ru allows anonymous search, the token only raises rate limits.
func newHeadhunter(cfg *HeadhunterConfig, log *zap.Logger) (jobs.Provider, error) {
	token, err := secrets.Optional(secrets.Source{
		Name: "headhunter token",
		File: cfg.TokenFile,
	})
	if err != nil {
		return nil, err
	}

	return headhunter.New(headhunter.Config{
		Token:     token,
		APIURL:    cfg.APIURL,
		UserAgent: cfg.UserAgent,
		PerPage:   cfg.PerPage,
	}, nil, log), nil
}

func newFilterPipeline(cfg *FiltersConfig, log *zap.Logger) (*filtering.Pipeline, error) {
	if cfg == nil {
		cfg = &FiltersConfig{}
	}

	steps := filtering.Defaults()
	for _, name := range cfg.Disabled {
		filtering.DisableByName(steps, strings.TrimSpace(name), "disabled in config")
	}

	pipeline, err := filtering.NewPipeline(&filtering.Config{
		ExcludedCompanies: cfg.ExcludedCompanies,
		ExcludeFile:       cfg.ExcludeFile,
	}, filtering.Deps{Logger: log}, steps)
	if err != nil {
		return nil, fmt.Errorf("preparing filters: %w", err)
	}

	log.Info("filters ready", zap.Any("filters", pipeline.Steps()))
	return pipeline, nil
}
