// Package config loads Specter's process-wide configuration.
// Sources are layered lowest to highest: defaults, the user config .env,
// the working directory .env, OS environment variables, then CLI flags bound through viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment keys consumed at startup.
const (
	KeyOpenAIAPIKey      = "OPENAI_API_KEY"
	KeyAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	KeyGoogleAPIKey      = "GOOGLE_API_KEY"
	KeyGroqAPIKey        = "GROQ_API_KEY"
	KeyLLMProvider       = "SPECTER_LLM_PROVIDER"
	KeyModel             = "SPECTER_MODEL"
	KeyLLMTimeout        = "SPECTER_LLM_TIMEOUT"
	KeyHTTPTimeout       = "SPECTER_HTTP_TIMEOUT"
	KeyDataDir           = "SPECTER_DATA_DIR"
	KeyEmailAddress      = "EMAIL_ADDRESS"
	KeyEmailPassword     = "EMAIL_PASSWORD"
	KeyAlertEmail        = "ALERT_EMAIL"
	KeyWeatherAPIKey     = "WEATHER_API_KEY"
	KeyDefaultCity       = "DEFAULT_CITY"
	KeyNewsAPIKey        = "NEWS_API_KEY"
	KeyNewsCountry       = "NEWS_COUNTRY"
	KeyUserName          = "USER_NAME"
	KeyOperationPassword = "OPERATION_PASSWORD"
	KeyMusicDir          = "MUSIC_DIR"
	KeyMusicPlayer       = "MUSIC_PLAYER"
	KeyTTSCommand        = "TTS_COMMAND"
	KeyVoiceRate         = "VOICE_RATE"
)

// Viper keys for flags bound in cmd/specter.
const (
	FlagDataDir      = "data-dir"
	FlagProvider     = "provider"
	FlagNoClassifier = "no-classifier"
	FlagTestMode     = "test-mode"
	FlagSpeak        = "speak"
)

// LLMConfig selects and authenticates the text-generation service.
type LLMConfig struct {
	Provider          string // openai, anthropic, gemini, groq; empty picks the first configured key
	Model             string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	GoogleAPIKey      string
	GroqAPIKey        string
	Timeout           time.Duration
	DisableClassifier bool
}

// EmailConfig holds mail account credentials.
type EmailConfig struct {
	Address        string
	Password       string
	AlertRecipient string
}

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	APIKey      string
	DefaultCity string
	BaseURL     string
}

// NewsConfig configures the NewsAPI client.
type NewsConfig struct {
	APIKey  string
	Country string
	BaseURL string
}

// MusicConfig configures the local library and the external player.
type MusicConfig struct {
	Dir    string
	Player string
}

// SpeechConfig configures the external text-to-speech command.
type SpeechConfig struct {
	Command      string
	Rate         int
	SpeakReplies bool
}

// Config is the resolved configuration.
type Config struct {
	DataDir           string
	HomeDir           string
	UserName          string
	OperationPassword string
	HTTPTimeout       time.Duration
	TestMode          bool

	LLM     LLMConfig
	Email   EmailConfig
	Weather WeatherConfig
	News    NewsConfig
	Music   MusicConfig
	Speech  SpeechConfig

	// Sources lists the .env files that were loaded, for the install/status screens.
	Sources []string
}

// LoadOptions overrides file-system and environment access, mainly for tests.
type LoadOptions struct {
	ConfigDir string            // directory holding the user .env; defaults to os.UserConfigDir()/specter
	WorkDir   string            // directory holding the local .env; defaults to os.Getwd()
	HomeDir   string            // defaults to os.UserHomeDir()
	Env       map[string]string // in test mode this replaces the OS environment
	TestMode  bool
}

func defaults() map[string]string {
	return map[string]string{
		KeyUserName:    "User",
		KeyDefaultCity: "London",
		KeyNewsCountry: "us",
		KeyLLMTimeout:  "20s",
		KeyHTTPTimeout: "10s",
		KeyVoiceRate:   "200",
	}
}

// Load resolves the configuration. v may be nil when no flags are bound.
func Load(v *viper.Viper, opts LoadOptions) (*Config, error) {
	if v != nil && v.GetBool(FlagTestMode) {
		opts.TestMode = true
	}

	values := defaults()
	var sources []string

	if !opts.TestMode {
		configDir := opts.ConfigDir
		if configDir == "" {
			if dir, err := os.UserConfigDir(); err == nil {
				configDir = filepath.Join(dir, "specter")
			}
		}
		workDir := opts.WorkDir
		if workDir == "" {
			if dir, err := os.Getwd(); err == nil {
				workDir = dir
			}
		}

		for _, dir := range []string{configDir, workDir} {
			if dir == "" {
				continue
			}
			loaded, err := loadDotEnv(filepath.Join(dir, ".env"), values)
			if err != nil {
				return nil, err
			}
			if loaded != "" {
				sources = append(sources, loaded)
			}
		}

		for _, env := range os.Environ() {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 && parts[1] != "" {
				values[parts[0]] = parts[1]
			}
		}
	}

	for key, value := range opts.Env {
		values[key] = value
	}

	homeDir := opts.HomeDir
	if homeDir == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			homeDir = dir
		}
	}

	cfg := &Config{
		HomeDir:           homeDir,
		UserName:          values[KeyUserName],
		OperationPassword: values[KeyOperationPassword],
		TestMode:          opts.TestMode,
		Sources:           sources,
		LLM: LLMConfig{
			Provider:        strings.ToLower(values[KeyLLMProvider]),
			Model:           values[KeyModel],
			OpenAIAPIKey:    values[KeyOpenAIAPIKey],
			AnthropicAPIKey: values[KeyAnthropicAPIKey],
			GoogleAPIKey:    values[KeyGoogleAPIKey],
			GroqAPIKey:      values[KeyGroqAPIKey],
		},
		Email: EmailConfig{
			Address:        values[KeyEmailAddress],
			Password:       values[KeyEmailPassword],
			AlertRecipient: values[KeyAlertEmail],
		},
		Weather: WeatherConfig{
			APIKey:      values[KeyWeatherAPIKey],
			DefaultCity: values[KeyDefaultCity],
			BaseURL:     "https://api.openweathermap.org/data/2.5",
		},
		News: NewsConfig{
			APIKey:  values[KeyNewsAPIKey],
			Country: values[KeyNewsCountry],
			BaseURL: "https://newsapi.org/v2",
		},
		Music: MusicConfig{
			Dir:    values[KeyMusicDir],
			Player: values[KeyMusicPlayer],
		},
		Speech: SpeechConfig{
			Command: values[KeyTTSCommand],
		},
	}

	var err error
	if cfg.LLM.Timeout, err = parseDuration(KeyLLMTimeout, values[KeyLLMTimeout]); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parseDuration(KeyHTTPTimeout, values[KeyHTTPTimeout]); err != nil {
		return nil, err
	}
	if cfg.Speech.Rate, err = strconv.Atoi(values[KeyVoiceRate]); err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", KeyVoiceRate, values[KeyVoiceRate], err)
	}

	if cfg.Music.Dir == "" && homeDir != "" {
		cfg.Music.Dir = filepath.Join(homeDir, "Music")
	}

	cfg.DataDir = values[KeyDataDir]
	if v != nil {
		if dir := v.GetString(FlagDataDir); dir != "" {
			cfg.DataDir = dir
		}
		if provider := v.GetString(FlagProvider); provider != "" {
			cfg.LLM.Provider = strings.ToLower(provider)
		}
		cfg.LLM.DisableClassifier = v.GetBool(FlagNoClassifier)
		cfg.Speech.SpeakReplies = v.GetBool(FlagSpeak)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	return cfg, nil
}

// loadDotEnv merges a .env file into values. A missing file is not an error.
func loadDotEnv(path string, values map[string]string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}
	envMap, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	for key, value := range envMap {
		values[key] = value
	}
	return path, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

// HasEmailCredentials reports whether SMTP/IMAP login is possible.
func (c *Config) HasEmailCredentials() bool {
	return c.Email.Address != "" && c.Email.Password != "" && strings.Contains(c.Email.Address, "@")
}

// DataPath joins name onto the data directory.
func (c *Config) DataPath(name string) string {
	return filepath.Join(c.DataDir, name)
}
