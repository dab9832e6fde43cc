package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "resume-screener"
	envPrefix = "SCREENER"
)

type Config struct {
	Generative *GenerativeConfig `mapstructure:"generative"`
	Embedding  *EmbeddingConfig  `mapstructure:"embedding"`
	Ollama     *OllamaConfig     `mapstructure:"ollama"`
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
	Skills     *SkillsConfig     `mapstructure:"skills"`
	Server     *ServerConfig     `mapstructure:"server"`
}

type GenerativeConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	MaxResumeRunes int    `mapstructure:"max-resume-runes"`
	MaxJobRunes    int    `mapstructure:"max-job-runes"`
}

type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type OllamaConfig struct {
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"token-file"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type SkillsConfig struct {
	TopK  int      `mapstructure:"top-k"`
	Extra []string `mapstructure:"extra"`
}

type ServerConfig struct {
	Listen       string        `mapstructure:"listen"`
	BodyLimit    int           `mapstructure:"body-limit"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener scores a resume against a job description with an LLM and an embedding fallback",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("generative.provider", "ollama")
	v.SetDefault("generative.model", "")
	v.SetDefault("generative.max-log-length", 200)
	v.SetDefault("generative.max-resume-runes", 12000)
	v.SetDefault("generative.max-job-runes", 6000)

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "")

	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.token", "")
	v.SetDefault("ollama.token-file", "")
	v.SetDefault("ollama.timeout", 2*time.Minute)

	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.max-retries", 3)

	v.SetDefault("skills.top-k", 5)
	v.SetDefault("skills.extra", []string{})

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.body-limit", 10*1024*1024)
	v.SetDefault("server.read-timeout", 30*time.Second)
	v.SetDefault("server.write-timeout", 5*time.Minute)
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only an explicit or broken config is fatal.
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

	if config.Generative == nil {
		config.Generative = &GenerativeConfig{}
	}
	if config.Embedding == nil {
		config.Embedding = &EmbeddingConfig{}
	}
	if config.Ollama == nil {
		config.Ollama = &OllamaConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.Skills == nil {
		config.Skills = &SkillsConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}

	return config, nil
}
