package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "LETTERNEST"

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type TTSConfig struct {
	Type       string
	BaseURL    string
	VoicesPath string
	SynthPath  string
	Voice      string
	Speed      float64
	Emotion    string
	Timeout    time.Duration
}

type PlayerConfig struct {
	Tick     time.Duration
	Autoplay bool
}

type LibraryConfig struct {
	CacheDir string
	MaxAge   time.Duration
}

// Settings is a typed snapshot of the viper configuration.
type Settings struct {
	API       APIConfig
	TTS       TTSConfig
	Player    PlayerConfig
	Library   LibraryConfig
	StatePath string
	LogLevel  string
}

func SetDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8000/api")
	viper.SetDefault("api.timeout", 30*time.Second)

	viper.SetDefault("tts.type", "auto") // Auto-select best engine
	viper.SetDefault("tts.base_url", "http://localhost:8000/api")
	viper.SetDefault("tts.voices_path", "/tts/finevoice/voices/")
	viper.SetDefault("tts.synth_path", "/tts/finevoice/")
	viper.SetDefault("tts.voice", "af_heart")
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.emotion", "")
	viper.SetDefault("tts.timeout", 30*time.Second)

	viper.SetDefault("player.tick", 100*time.Millisecond)
	viper.SetDefault("player.autoplay", false)

	viper.SetDefault("state.path", filepath.Join(dataDirectory(), "state.db"))
	viper.SetDefault("library.cache_dir", filepath.Join(dataDirectory(), "cache"))
	viper.SetDefault("library.max_age", time.Hour)

	viper.SetDefault("log.level", "warn")
}

// Load reads .env, the optional config file and LETTERNEST_* environment
// overrides. An empty path searches $HOME/.letternest and the working
// directory for letternest.yaml.
func Load(path string) (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("failed to read .env file")
	}

	SetDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("letternest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME/.letternest")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Current(), nil
}

// Current builds Settings from whatever viper holds right now.
func Current() Settings {
	return Settings{
		API: APIConfig{
			BaseURL: strings.TrimRight(viper.GetString("api.base_url"), "/"),
			Timeout: viper.GetDuration("api.timeout"),
		},
		TTS: TTSConfig{
			Type:       viper.GetString("tts.type"),
			BaseURL:    strings.TrimRight(viper.GetString("tts.base_url"), "/"),
			VoicesPath: viper.GetString("tts.voices_path"),
			SynthPath:  viper.GetString("tts.synth_path"),
			Voice:      viper.GetString("tts.voice"),
			Speed:      viper.GetFloat64("tts.speed"),
			Emotion:    viper.GetString("tts.emotion"),
			Timeout:    viper.GetDuration("tts.timeout"),
		},
		Player: PlayerConfig{
			Tick:     viper.GetDuration("player.tick"),
			Autoplay: viper.GetBool("player.autoplay"),
		},
		Library: LibraryConfig{
			CacheDir: viper.GetString("library.cache_dir"),
			MaxAge:   viper.GetDuration("library.max_age"),
		},
		StatePath: viper.GetString("state.path"),
		LogLevel:  viper.GetString("log.level"),
	}
}

// ConfigureLogging applies log.level to the logrus standard logger.
func (s Settings) ConfigureLogging() {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		logrus.WithField("level", s.LogLevel).Warn("unknown log level, using warn")
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)
}

// dataDirectory returns the appropriate state directory
func dataDirectory() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "letternest")
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".letternest")
	}

	return "letternest-data"
}
