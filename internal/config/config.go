package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"
)

// Config aggregates the server and client settings.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Search SearchConfig
	Client ClientConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Search: loadSearchConfig(), Client: client}, nil
}

// ServerConfig describes the HTTP listener and the session store.
type ServerConfig struct {
	Addr  string
	Debug bool
	// SessionTTL expires conversations idle for longer. Zero disables expiry.
	SessionTTL         time.Duration
	SessionMaxMessages int
}

func loadServerConfig() (ServerConfig, error) {
	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return ServerConfig{}, err
	}

	ttl, err := parseDurationEnv("SESSION_TTL", 2*time.Hour)
	if err != nil {
		return ServerConfig{}, err
	}

	maxMessages := 200
	if v, err := parseOptionalIntEnv("SESSION_MAX_MESSAGES"); err != nil {
		return ServerConfig{}, err
	} else if v != nil {
		maxMessages = max(*v, 0)
	}

	cfg := ServerConfig{Debug: debug, SessionTTL: ttl, SessionMaxMessages: maxMessages}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	switch {
	case strings.Contains(port, ":"):
		// ":5000" or "127.0.0.1:5000"
		cfg.Addr = port
	default:
		if _, err := strconv.Atoi(port); err != nil {
			return ServerConfig{}, errors.Errorf("invalid PORT value %q", port)
		}
		cfg.Addr = ":" + port
	}
	return cfg, nil
}

// AIConfig describes the Ark chat model.
type AIConfig struct {
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	HistoryLimit int
}

// Enabled reports whether a model and credentials were supplied.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the configured Ark chat model.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, errors.New("ark credentials or model missing: set ARK_MODEL and ARK_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		historyLimit = max(*override, 0)
	}

	return AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		HistoryLimit: historyLimit,
	}, nil
}

// SearchConfig describes the Firecrawl search tool.
type SearchConfig struct {
	APIKey  string
	BaseURL string
}

// Enabled reports whether an API key was supplied.
func (c SearchConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadSearchConfig() SearchConfig {
	return SearchConfig{
		APIKey:  strings.TrimSpace(os.Getenv("FIRECRAWL_API_KEY")),
		BaseURL: getEnvOrDefault("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
	}
}

// ClientConfig describes the terminal chat client.
type ClientConfig struct {
	Endpoint      string
	SpeechEnabled bool
	SpeechCommand string
	SpeechLang    string
	SpeechRate    float64
	SpeechPitch   float64
}

func loadClientConfig() (ClientConfig, error) {
	enabled, err := parseBoolEnv("SPEECH_ENABLED", true)
	if err != nil {
		return ClientConfig{}, err
	}

	rate := 1.0
	if v, err := parseOptionalFloatEnv("SPEECH_RATE"); err != nil {
		return ClientConfig{}, err
	} else if v != nil {
		rate = *v
	}

	pitch := 1.2
	if v, err := parseOptionalFloatEnv("SPEECH_PITCH"); err != nil {
		return ClientConfig{}, err
	} else if v != nil {
		pitch = *v
	}

	if rate <= 0 || pitch <= 0 {
		return ClientConfig{}, errors.New("SPEECH_RATE and SPEECH_PITCH must be positive")
	}

	return ClientConfig{
		Endpoint:      getEnvOrDefault("CHAT_ENDPOINT", "http://localhost:5000/api/chat"),
		SpeechEnabled: enabled,
		SpeechCommand: getEnvOrDefault("SPEECH_COMMAND", "espeak-ng"),
		SpeechLang:    getEnvOrDefault("SPEECH_LANG", "en-US"),
		SpeechRate:    rate,
		SpeechPitch:   pitch,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s value %q", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s value %q", key, value)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s value %q", key, value)
	}
	return &val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s value %q", key, value)
	}
	if val < 0 {
		return 0, errors.Errorf("invalid %s value %q: must not be negative", key, value)
	}
	return val, nil
}
