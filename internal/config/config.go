package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Service names used for provider selection and credential lookup.
const (
	ServiceGemini              = "gemini"
	ServiceOpenAI              = "openai"
	ServiceElevenLabs          = "elevenlabs"
	ServiceLuma                = "luma"
	ServiceRunway              = "runway"
	ServiceYouTubeClientID     = "youtube_client_id"
	ServiceYouTubeClientSecret = "youtube_client_secret"
)

// RequiredServices is the minimum credential set the pipeline needs with the
// default provider selection (content metadata, TTS + captions, video).
var RequiredServices = []string{ServiceGemini, ServiceOpenAI, ServiceLuma}

// OptionalServices can replace a default provider or enable uploads.
var OptionalServices = []string{
	ServiceElevenLabs,
	ServiceRunway,
	ServiceYouTubeClientID,
	ServiceYouTubeClientSecret,
}

// Config holds all application configuration
// Loaded from environment variables with sensible defaults.
//
// Environment Variables:
// Provider selection:
// - CONTENT_AI_SERVICE: "gemini" or "openai" (default: gemini)
// - TTS_SERVICE: "openai" or "elevenlabs" (default: openai)
// - VIDEO_SERVICE: "luma" or "runway" (default: luma)
//
// Server:
// - LISTEN_ADDR: HTTP listen address (default: :5000)
// - STATIC_DIR: dashboard static files directory (default: web)
//
// Storage:
// - DATA_DIR: directory for the sqlite database and encryption key (default: data)
// - OUTPUT_DIR: directory for generated video artifacts (default: output)
//
// Video settings:
// - VIDEO_WIDTH / VIDEO_HEIGHT / VIDEO_FPS: output geometry (default: 1080x1920@30)
//
// Logging:
// - LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	Providers ProviderConfig `json:"providers"`
	Server    ServerConfig   `json:"server"`
	Storage   StorageConfig  `json:"storage"`
	Video     VideoConfig    `json:"video"`
	LogLevel  string         `json:"log_level"`
}

// ProviderConfig selects one concrete implementation per pipeline stage.
type ProviderConfig struct {
	ContentAI string `json:"content_ai"`
	TTS       string `json:"tts"`
	Video     string `json:"video"`
}

type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	StaticDir  string `json:"static_dir"`
}

type StorageConfig struct {
	DataDir   string `json:"data_dir"`
	OutputDir string `json:"output_dir"`
}

type VideoConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

// DBPath returns the sqlite database file location.
func (c StorageConfig) DBPath() string {
	return c.DataDir + "/automation.db"
}

// KeyPath returns the encryption key file location.
func (c StorageConfig) KeyPath() string {
	return c.DataDir + "/.secret_key"
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Providers: ProviderConfig{
			ContentAI: getEnvString("CONTENT_AI_SERVICE", ServiceGemini),
			TTS:       getEnvString("TTS_SERVICE", ServiceOpenAI),
			Video:     getEnvString("VIDEO_SERVICE", ServiceLuma),
		},
		Server: ServerConfig{
			ListenAddr: getEnvString("LISTEN_ADDR", ":5000"),
			StaticDir:  getEnvString("STATIC_DIR", "web"),
		},
		Storage: StorageConfig{
			DataDir:   getEnvString("DATA_DIR", "data"),
			OutputDir: getEnvString("OUTPUT_DIR", "output"),
		},
		Video: VideoConfig{
			Width:  getEnvInt("VIDEO_WIDTH", 1080),
			Height: getEnvInt("VIDEO_HEIGHT", 1920),
			FPS:    getEnvInt("VIDEO_FPS", 30),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks provider selections and storage settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Providers.ContentAI) {
	case ServiceGemini, ServiceOpenAI:
	default:
		return fmt.Errorf("CONTENT_AI_SERVICE must be %q or %q, got %q", ServiceGemini, ServiceOpenAI, c.Providers.ContentAI)
	}
	switch strings.ToLower(c.Providers.TTS) {
	case ServiceOpenAI, ServiceElevenLabs:
	default:
		return fmt.Errorf("TTS_SERVICE must be %q or %q, got %q", ServiceOpenAI, ServiceElevenLabs, c.Providers.TTS)
	}
	switch strings.ToLower(c.Providers.Video) {
	case ServiceLuma, ServiceRunway:
	default:
		return fmt.Errorf("VIDEO_SERVICE must be %q or %q, got %q", ServiceLuma, ServiceRunway, c.Providers.Video)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if strings.TrimSpace(c.Storage.OutputDir) == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 || c.Video.FPS <= 0 {
		return fmt.Errorf("video geometry must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an int value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
