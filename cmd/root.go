package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/ai/gemini"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs/adzuna"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs/careerjet"
	"github.com/roguegoose-dev/goose-guidance/internal/jobs/headhunter"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
	"github.com/roguegoose-dev/goose-guidance/internal/persona"
	"github.com/roguegoose-dev/goose-guidance/internal/server"
)

const (
	app       = "goose-guidance"
	envPrefix = "GOOSE"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	Gemini   *GeminiConfig   `mapstructure:"gemini"`
	Speech   *SpeechConfig   `mapstructure:"speech"`
	Personas *PersonasConfig `mapstructure:"personas"`
	Risk     *RiskConfig     `mapstructure:"risk"`
	Jobs     *JobsConfig     `mapstructure:"jobs"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	CORSOrigin     string `mapstructure:"cors-origin"`
	TrustForwarded bool   `mapstructure:"trust-forwarded"`
	MaxUploadBytes int64  `mapstructure:"max-upload-bytes"`
}

type GeminiConfig struct {
	APIKey       string  `mapstructure:"api-key"`
	APIKeyFile   string  `mapstructure:"api-key-file"`
	TextModel    string  `mapstructure:"text-model"`
	SpeechModel  string  `mapstructure:"speech-model"`
	VisionModel  string  `mapstructure:"vision-model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type SpeechConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	FallbackVoice string `mapstructure:"fallback-voice"`
}

type PersonasConfig struct {
	// Voices overrides the voice of a persona by id.
	Voices map[string]string `mapstructure:"voices"`
}

type RiskConfig struct {
	Risky    []string `mapstructure:"risky"`
	Cautious []string `mapstructure:"cautious"`
}

type JobsConfig struct {
	ProviderTimeout time.Duration     `mapstructure:"provider-timeout"`
	Adzuna          *AdzunaConfig     `mapstructure:"adzuna"`
	Careerjet       *CareerjetConfig  `mapstructure:"careerjet"`
	Headhunter      *HeadhunterConfig `mapstructure:"headhunter"`
	Filters         *FiltersConfig    `mapstructure:"filters"`
}

type AdzunaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppID      string `mapstructure:"app-id"`
	AppKey     string `mapstructure:"app-key"`
	AppKeyFile string `mapstructure:"app-key-file"`
	Country    string `mapstructure:"country"`
	BaseURL    string `mapstructure:"base-url"`
	PageSize   int    `mapstructure:"page-size"`
}

type CareerjetConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Locale     string `mapstructure:"locale"`
	Referer    string `mapstructure:"referer"`
	BaseURL    string `mapstructure:"base-url"`
	PageSize   int    `mapstructure:"page-size"`
}

type HeadhunterConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
	APIURL    string `mapstructure:"api-url"`
	PerPage   int    `mapstructure:"per-page"`
}

type FiltersConfig struct {
	// Disabled lists filter names to skip.
	Disabled          []string `mapstructure:"disabled"`
	ExcludedCompanies []string `mapstructure:"excluded-companies"`
	ExcludeFile       string   `mapstructure:"exclude-file"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "goose-guidance talks career moves through with a goose and searches jobs across providers",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Conventional variable names, bound without the GOOSE_ prefix.
var envBindings = map[string]string{
	"gemini.api-key":             "GEMINI_API_KEY",
	"jobs.adzuna.app-id":         "ADZUNA_APP_ID",
	"jobs.adzuna.app-key":        "ADZUNA_APP_KEY",
	"jobs.careerjet.api-key":     "CAREERJET_API_KEY",
	"jobs.headhunter.token-file": "HH_TOKEN_FILE",
}

func init() {
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is goose-guidance.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// setDefaults registers every key so that the config file is optional and
// environment overrides reach keys the file does not mention.
func setDefaults() {
	viper.SetDefault("server.port", server.DefaultPort)
	viper.SetDefault("server.cors-origin", "*")
	viper.SetDefault("server.trust-forwarded", false)
	viper.SetDefault("server.max-upload-bytes", server.DefaultMaxUploadBytes)

	viper.SetDefault("gemini.api-key", "")
	viper.SetDefault("gemini.api-key-file", "")
	viper.SetDefault("gemini.text-model", gemini.DefaultTextModel)
	viper.SetDefault("gemini.speech-model", gemini.DefaultSpeechModel)
	viper.SetDefault("gemini.vision-model", gemini.DefaultVisionModel)
	viper.SetDefault("gemini.temperature", gemini.DefaultTemperature)
	viper.SetDefault("gemini.max-log-length", 200)

	viper.SetDefault("speech.enabled", true)
	viper.SetDefault("speech.fallback-voice", persona.DefaultFallbackVoice)

	viper.SetDefault("risk.risky", []string{})
	viper.SetDefault("risk.cautious", []string{})

	viper.SetDefault("jobs.provider-timeout", jobs.DefaultProviderTimeout)

	viper.SetDefault("jobs.adzuna.enabled", true)
	viper.SetDefault("jobs.adzuna.app-id", "")
	viper.SetDefault("jobs.adzuna.app-key", "")
	viper.SetDefault("jobs.adzuna.app-key-file", "")
	viper.SetDefault("jobs.adzuna.country", adzuna.DefaultCountry)
	viper.SetDefault("jobs.adzuna.base-url", adzuna.DefaultBaseURL)
	viper.SetDefault("jobs.adzuna.page-size", adzuna.DefaultPageSize)

	viper.SetDefault("jobs.careerjet.enabled", true)
	viper.SetDefault("jobs.careerjet.api-key", "")
	viper.SetDefault("jobs.careerjet.api-key-file", "")
	viper.SetDefault("jobs.careerjet.locale", careerjet.DefaultLocale)
	viper.SetDefault("jobs.careerjet.referer", careerjet.DefaultReferer)
	viper.SetDefault("jobs.careerjet.base-url", careerjet.DefaultBaseURL)
	viper.SetDefault("jobs.careerjet.page-size", careerjet.DefaultPageSize)

	viper.SetDefault("jobs.headhunter.enabled", false)
	viper.SetDefault("jobs.headhunter.token-file", "")
	viper.SetDefault("jobs.headhunter.user-agent", headhunter.DefaultUserAgent)
	viper.SetDefault("jobs.headhunter.api-url", headhunter.DefaultAPIURL)
	viper.SetDefault("jobs.headhunter.per-page", headhunter.DefaultPerPage)

	viper.SetDefault("jobs.filters.disabled", []string{})
	viper.SetDefault("jobs.filters.excluded-companies", []string{})
	viper.SetDefault("jobs.filters.exclude-file", "")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Every key has a default, so only an explicitly requested or broken
	// file is fatal.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// setup builds the logger and loads the config. Both are required by every
// command except version.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(logger.Options{
		Service: app,
		Version: resolvedVersion(),
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil {
		logger.Fatal("config is required")
	}

	return logger, config
}
