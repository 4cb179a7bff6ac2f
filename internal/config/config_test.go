package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_TestModeDefaults(t *testing.T) {
	cfg, err := Load(nil, LoadOptions{TestMode: true, HomeDir: "/home/tester"})
	require.NoError(t, err)

	assert.Equal(t, "User", cfg.UserName)
	assert.Equal(t, "London", cfg.Weather.DefaultCity)
	assert.Equal(t, "us", cfg.News.Country)
	assert.Equal(t, 20*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 200, cfg.Speech.Rate)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("/home/tester", "Music"), cfg.Music.Dir)
	assert.False(t, cfg.HasEmailCredentials())
	assert.Empty(t, cfg.Sources)
}

func TestLoad_TestModeIgnoresOSEnvironment(t *testing.T) {
	t.Setenv(KeyOpenAIAPIKey, "sk-from-os")

	cfg, err := Load(nil, LoadOptions{TestMode: true})
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.OpenAIAPIKey)
}

func TestLoad_Layering(t *testing.T) {
	configDir := t.TempDir()
	workDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(configDir, ".env"),
		[]byte("USER_NAME=Config\nWEATHER_API_KEY=cfg-weather\nNEWS_API_KEY=cfg-news\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, ".env"),
		[]byte("USER_NAME=Local\nNEWS_API_KEY=local-news\n"), 0600))
	t.Setenv(KeyNewsAPIKey, "os-news")

	cfg, err := Load(nil, LoadOptions{ConfigDir: configDir, WorkDir: workDir})
	require.NoError(t, err)

	assert.Equal(t, "Local", cfg.UserName)
	assert.Equal(t, "cfg-weather", cfg.Weather.APIKey)
	assert.Equal(t, "os-news", cfg.News.APIKey)
	assert.Len(t, cfg.Sources, 2)
}

func TestLoad_FlagsOverride(t *testing.T) {
	v := viper.New()
	v.Set(FlagTestMode, true)
	v.Set(FlagDataDir, "/tmp/specter-data")
	v.Set(FlagProvider, "Anthropic")
	v.Set(FlagNoClassifier, true)

	cfg, err := Load(v, LoadOptions{Env: map[string]string{KeyLLMProvider: "openai"}})
	require.NoError(t, err)

	assert.True(t, cfg.TestMode)
	assert.Equal(t, "/tmp/specter-data", cfg.DataDir)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.True(t, cfg.LLM.DisableClassifier)
	assert.Equal(t, filepath.Join("/tmp/specter-data", "reminders.json"), cfg.DataPath("reminders.json"))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad llm timeout", map[string]string{KeyLLMTimeout: "soon"}},
		{"negative http timeout", map[string]string{KeyHTTPTimeout: "-1s"}},
		{"bad voice rate", map[string]string{KeyVoiceRate: "fast"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(nil, LoadOptions{TestMode: true, Env: tt.env})
			assert.Error(t, err)
		})
	}
}

func TestHasEmailCredentials(t *testing.T) {
	cfg, err := Load(nil, LoadOptions{TestMode: true, Env: map[string]string{
		KeyEmailAddress:  "me@gmail.com",
		KeyEmailPassword: "app-password",
	}})
	require.NoError(t, err)
	assert.True(t, cfg.HasEmailCredentials())
}
