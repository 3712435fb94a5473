package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-matcher/internal/documents"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/textnorm"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"
)

type Config struct {
	Normalization *NormalizationConfig `mapstructure:"normalization"`
	Matching      *MatchingConfig      `mapstructure:"matching"`
	Documents     *DocumentsConfig     `mapstructure:"documents"`
	Output        *OutputConfig        `mapstructure:"output"`
	History       *HistoryConfig       `mapstructure:"history"`
	AI            *AIConfig            `mapstructure:"ai"`
}

type NormalizationConfig struct {
	Lemmatizer     string   `mapstructure:"lemmatizer"`
	MinTokenLength int      `mapstructure:"min-token-length"`
	Stopwords      []string `mapstructure:"stopwords"`
	StopwordsFile  string   `mapstructure:"stopwords-file"`
}

type MatchingConfig struct {
	MaxSuggestions int     `mapstructure:"max-suggestions"`
	SublinearTF    bool    `mapstructure:"sublinear-tf"`
	Workers        int     `mapstructure:"workers"`
	MinimumScore   float64 `mapstructure:"minimum-score"`
	Top            int     `mapstructure:"top"`
	ExcludeFile    string  `mapstructure:"exclude-file"`
}

type DocumentsConfig struct {
	KeepEmpty bool          `mapstructure:"keep-empty"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type AIConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Provider      string        `mapstructure:"provider"`
	Instructions  string        `mapstructure:"instructions"`
	ExtraCriteria string        `mapstructure:"extra-criteria"`
	Keywords      []string      `mapstructure:"keywords"`
	Gemini        *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
	// RequestsPerMinute paces API calls. 0 disables pacing.
	RequestsPerMinute int `mapstructure:"requests-per-minute"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher ranks resumes against a job description and suggests missing keywords",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	initViper()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// initViper registers defaults and environment bindings. Every key needs a
// default so that AutomaticEnv can override it during Unmarshal.
func initViper() {
	viper.SetDefault("normalization.lemmatizer", textnorm.LemmatizerSnowball)
	viper.SetDefault("normalization.min-token-length", textnorm.DefaultMinTokenLength)
	viper.SetDefault("normalization.stopwords", []string{})
	viper.SetDefault("normalization.stopwords-file", "")

	viper.SetDefault("matching.max-suggestions", matching.DefaultMaxSuggestions)
	viper.SetDefault("matching.sublinear-tf", false)
	viper.SetDefault("matching.workers", 4)
	viper.SetDefault("matching.minimum-score", 0.0)
	viper.SetDefault("matching.top", 0)
	viper.SetDefault("matching.exclude-file", "")

	viper.SetDefault("documents.keep-empty", true)
	viper.SetDefault("documents.user-agent", documents.DefaultUserAgent)
	viper.SetDefault("documents.timeout", documents.DefaultTimeout)

	viper.SetDefault("output.format", "csv")
	viper.SetDefault("output.file", "")

	viper.SetDefault("history.enabled", false)
	viper.SetDefault("history.path", app+".db")

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.instructions", "")
	viper.SetDefault("ai.extra-criteria", "")
	viper.SetDefault("ai.keywords", []string{})
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("ai.gemini.requests-per-minute", 0)

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE", envPrefix+"_AI_GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
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

	if config == nil {
		return nil, errors.New("empty configuration")
	}
	if config.AI != nil && config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}
