package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/ai/gemini"
	"github.com/spigell/linkedin-coach/internal/ai/structured"
	"github.com/spigell/linkedin-coach/internal/chat"
	"github.com/spigell/linkedin-coach/internal/checkpoint"
	"github.com/spigell/linkedin-coach/internal/dispatch"
	"github.com/spigell/linkedin-coach/internal/scraper"
	"github.com/spigell/linkedin-coach/internal/secrets"
	"github.com/spigell/linkedin-coach/internal/tools"
)

const (
	app = "linkedin-coach"

	scraperApify = "apify"
	scraperFile  = "file"
)

type Config struct {
	Database      string         `mapstructure:"database"`
	MaxThreads    int            `mapstructure:"max-threads"`
	MaxToolCalls  int            `mapstructure:"max-tool-calls"`
	HistoryWindow int            `mapstructure:"history-window"`
	AI            *AIConfig      `mapstructure:"ai"`
	Scraper       *ScraperConfig `mapstructure:"scraper"`
	HTTP          *HTTPConfig    `mapstructure:"http"`
}

type AIConfig struct {
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
	Structured *StructuredConfig `mapstructure:"structured"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	ThinkingBudget int    `mapstructure:"thinking-budget"`
}

type StructuredConfig struct {
	MaxAttempts int           `mapstructure:"max-attempts"`
	RetryDelay  time.Duration `mapstructure:"retry-delay"`
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max-tokens"`
}

type ScraperConfig struct {
	Provider    string       `mapstructure:"provider"`
	ProfileFile string       `mapstructure:"profile-file"`
	Apify       *ApifyConfig `mapstructure:"apify"`
}

type ApifyConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	Actor     string `mapstructure:"actor"`
}

type HTTPConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "linkedin-coach is a conversational assistant that reviews LinkedIn profiles",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	for key, env := range map[string]string{
		"ai.gemini.api-key-file":   "GEMINI_API_KEY_FILE",
		"scraper.apify.token-file": "APIFY_TOKEN_FILE",
		"database":                 "COACH_DATABASE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("database", app+".db")
	viper.SetDefault("max-threads", checkpoint.DefaultCapacity)
	viper.SetDefault("max-tool-calls", dispatch.DefaultMaxToolCalls)
	viper.SetDefault("history-window", dispatch.DefaultHistoryWindow)
	viper.SetDefault("ai.gemini.thinking-budget", gemini.DefaultThinkingBudget)
	viper.SetDefault("ai.structured.max-attempts", structured.DefaultOptions().MaxAttempts)
	viper.SetDefault("ai.structured.retry-delay", structured.DefaultOptions().Delay)
	viper.SetDefault("ai.structured.temperature", structured.DefaultOptions().Temperature)
	viper.SetDefault("ai.structured.max-tokens", structured.DefaultOptions().MaxTokens)
	viper.SetDefault("scraper.provider", scraperApify)
	viper.SetDefault("scraper.apify.actor", scraper.DefaultActor)
	viper.SetDefault("http.listen", ":8080")
	viper.SetDefault("http.read-timeout", 10*time.Second)
	viper.SetDefault("http.write-timeout", 10*time.Minute)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is linkedin-coach.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("database", "", "path to the thread database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// defaults and env are enough without a config file
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.AI.Structured == nil {
		config.AI.Structured = &StructuredConfig{}
	}
	if config.Scraper == nil {
		config.Scraper = &ScraperConfig{}
	}
	if config.Scraper.Apify == nil {
		config.Scraper.Apify = &ApifyConfig{}
	}
	if config.HTTP == nil {
		config.HTTP = &HTTPConfig{}
	}

	return config, nil
}

// application wires the chat service and everything it depends on.
type application struct {
	config *Config
	store  *checkpoint.Store
	chat   *chat.Service
}

func (a *application) Close() error {
	return a.store.Close()
}

func newApplication(ctx context.Context, config *Config, logger *zap.Logger) (*application, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.AI.Gemini.APIKey,
		File:  config.AI.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model, config.AI.Gemini.MaxRetries, config.AI.Gemini.MaxLogLength, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini generator: %w", err)
	}
	generator.WithThinkingBudget(config.AI.Gemini.ThinkingBudget)

	source, err := newScraper(config.Scraper, logger)
	if err != nil {
		return nil, err
	}

	store, err := checkpoint.Open(config.Database, config.MaxThreads)
	if err != nil {
		return nil, fmt.Errorf("opening thread store: %w", err)
	}

	parser := structured.NewParser(generator, structured.Options{
		MaxAttempts:  config.AI.Structured.MaxAttempts,
		Delay:        config.AI.Structured.RetryDelay,
		Temperature:  config.AI.Structured.Temperature,
		MaxTokens:    config.AI.Structured.MaxTokens,
		MaxLogLength: config.AI.Gemini.MaxLogLength,
	}, logger)

	loop := dispatch.New(generator, tools.NewSet(parser, logger), dispatch.Options{
		HistoryWindow: config.HistoryWindow,
		MaxToolCalls:  config.MaxToolCalls,
	}, logger)

	return &application{
		config: config,
		store:  store,
		chat:   chat.NewService(store, source, loop, logger),
	}, nil
}

func newScraper(config *ScraperConfig, logger *zap.Logger) (scraper.Source, error) {
	switch config.Provider {
	case scraperFile:
		if config.ProfileFile == "" {
			return nil, errors.New("scraper.profile-file is required for the file provider")
		}
		return scraper.NewFile(logger, config.ProfileFile), nil
	case scraperApify, "":
		token, err := secrets.Load(secrets.Source{
			Name:  "apify token",
			Value: config.Apify.Token,
			File:  config.Apify.TokenFile,
			Env:   "APIFY_API_TOKEN",
		})
		if err != nil {
			return nil, err
		}
		return scraper.NewApify(logger, token, config.Apify.Actor), nil
	default:
		return nil, fmt.Errorf("unsupported scraper provider %q", config.Provider)
	}
}
