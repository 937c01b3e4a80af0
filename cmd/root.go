package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/similarity"
)

const (
	app = "resume-matcher"
)

type Config struct {
	Database   string            `mapstructure:"database" validate:"required"`
	Keywords   KeywordsConfig    `mapstructure:"keywords"`
	Scoring    similarity.Policy `mapstructure:"scoring"`
	Vocabulary VocabularyConfig  `mapstructure:"vocabulary"`
	Semantic   SemanticConfig    `mapstructure:"semantic"`
	Cache      CacheConfig       `mapstructure:"cache"`
	AI         *AIConfig         `mapstructure:"ai"`
}

type KeywordsConfig struct {
	TopN       int  `mapstructure:"top-n" validate:"gte=0"`
	Linguistic bool `mapstructure:"linguistic"`
}

type VocabularyConfig struct {
	File      string `mapstructure:"file"`
	CacheFile string `mapstructure:"cache-file"`
	Limit     int    `mapstructure:"limit" validate:"gte=0"`
	BatchSize int    `mapstructure:"batch-size" validate:"gte=0"`
}

type SemanticConfig struct {
	Threshold float64 `mapstructure:"threshold" validate:"gte=0,lte=1"`
	Embedder  string  `mapstructure:"embedder" validate:"oneof=hashing gemini"`
}

type CacheConfig struct {
	RedisURL string        `mapstructure:"redis-url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string `mapstructure:"api-key" json:"-"`
	APIKeyFile        string `mapstructure:"api-key-file"`
	Model             string `mapstructure:"model"`
	EmbeddingModel    string `mapstructure:"embedding-model"`
	MaxRetries        int    `mapstructure:"max-retries" validate:"gte=0"`
	MaxLogLength      int    `mapstructure:"max-log-length" validate:"gte=0"`
	RequestsPerMinute int    `mapstructure:"requests-per-minute" validate:"gte=0"`
}

func defaultConfig() *Config {
	return &Config{
		Database: app + ".db",
		Keywords: KeywordsConfig{TopN: 30, Linguistic: true},
		Scoring:  similarity.DefaultPolicy(),
		Vocabulary: VocabularyConfig{
			CacheFile: ".cache/skill_embeddings.json",
		},
		Semantic: SemanticConfig{Threshold: 0.6, Embedder: "hashing"},
		Cache:    CacheConfig{TTL: 24 * time.Hour},
		AI: &AIConfig{
			Provider: "gemini",
			Gemini: &GeminiConfig{
				Model:             "gemini-2.5-flash",
				EmbeddingModel:    "gemini-embedding-001",
				MaxRetries:        3,
				MaxLogLength:      200,
				RequestsPerMinute: 60,
			},
		},
	}
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher scores resumes against job descriptions and ranks applicants",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envBindings := map[string]string{
		"database":               "RESUME_MATCHER_DB",
		"cache.redis-url":        "REDIS_URL",
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite database")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	// A missing .env is normal; values may come from the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Only an explicitly requested config file is mandatory.
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	config.Database = strings.TrimSpace(config.Database)
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.Scoring.Validate(); err != nil {
		return fmt.Errorf("invalid config: scoring: %w", err)
	}
	return nil
}

// setup builds the logger and configuration shared by all commands.
func setup() (*zap.Logger, *Config) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Debug("starting", zap.String("app", app), zap.String("version", resolvedVersion()), zap.String("config", viper.ConfigFileUsed()))
	return log, config
}

var fatalf = log.Fatalf
