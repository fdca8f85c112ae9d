package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DashScope DashScopeConfig `mapstructure:"dashscope"`
	Tts       TtsConfig       `mapstructure:"tts"`
	Google    GoogleConfig    `mapstructure:"google"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Smoke     SmokeConfig     `mapstructure:"smoke"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Proxy toggles the pass-through route to the upstream TTS host
	Proxy bool `mapstructure:"proxy"`
}

// DashScope endpoint settings
type DashScopeConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Host     string `mapstructure:"host"`
	Path     string `mapstructure:"path"`
	Model    string `mapstructure:"model"`
	Timeout  int    `mapstructure:"timeout"` // seconds
	Stream   bool   `mapstructure:"stream"`
	MaxChars int    `mapstructure:"max_chars"`
}

// Endpoint is the full generation URL
func (d DashScopeConfig) Endpoint() string {
	return strings.TrimRight(d.Host, "/") + d.Path
}

type TtsConfig struct {
	Type         string `mapstructure:"type"` // "dashscope", "google" or "dummy"
	DefaultVoice string `mapstructure:"default_voice"`
}

type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	LanguageCode    string `mapstructure:"language_code"`
	SampleRate      int    `mapstructure:"sample_rate"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SessionSecret string `mapstructure:"session_secret"`
	// bcrypt hash; an empty value leaves the UI open
	PasswordHash string `mapstructure:"password_hash"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SmokeConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.static_dir", "./web")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	v.SetDefault("server.proxy", true)

	v.SetDefault("dashscope.host", "https://dashscope.aliyuncs.com")
	v.SetDefault("dashscope.path", "/api/v1/services/aigc/multimodal-generation/generation")
	v.SetDefault("dashscope.model", "qwen-tts")
	v.SetDefault("dashscope.timeout", 30)
	v.SetDefault("dashscope.stream", true)
	v.SetDefault("dashscope.max_chars", 512)

	v.SetDefault("tts.type", "dashscope")
	v.SetDefault("tts.default_voice", "Chelsie")

	v.SetDefault("google.language_code", "en-US")
	v.SetDefault("google.sample_rate", 24000)

	v.SetDefault("database.path", "./qwen-tts.db")

	v.SetDefault("auth.session_secret", "your-secret-key-change-this-in-production")

	v.SetDefault("log.level", "info")

	v.SetDefault("smoke.rate_per_second", 0.5)
	v.SetDefault("smoke.burst", 1)
}

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads config.yaml (plus an optional config.local.yaml override) into v
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	SetDefaults(v)

	v.BindEnv("dashscope.api_key", "QWEN_TTS_API_KEY", "DASHSCOPE_API_KEY")
	v.BindEnv("server.port", "PORT")

	// Allow environment variables
	v.SetEnvPrefix("QWENTTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	// Local overrides (ignored by git)
	v.SetConfigName("config.local")
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
