package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTP struct {
	Port        int    `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`
}

type OpenAI struct {
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY"`
	OpenAIModel      string  `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
	OpenAIBaseURL    string  `yaml:"open_ai_base_url" env:"OPENAI_BASE_URL"`
	ModelTemperature float32 `yaml:"model_temperature" env:"MODEL_TEMPERATURE"`
	MaxTokens        int     `yaml:"max_tokens" env:"MAX_TOKENS" env-default:"512"`
	// TokenBudget is the prompt size above which a warning is logged.
	TokenBudget int `yaml:"token_budget" env:"TOKEN_BUDGET" env-default:"3500"`
}

type Redis struct {
	Endpoint string `yaml:"endpoint" env:"REDIS_ENDPOINT" env-default:"localhost:6379"`
}

type Prompts struct {
	Dir string `yaml:"dir" env:"PROMPTS_DIR" env-default:"prompts"`
}

type Actions struct {
	OpenWeatherAPIKey string        `env:"OPEN_WEATHER_API_KEY"`
	MarketStackAPIKey string        `env:"MARKET_STACK_API_KEY"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"ACTION_REQUEST_TIMEOUT" env-default:"10s"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	OpenAI  OpenAI  `yaml:"openai"`
	Redis   Redis   `yaml:"redis"`
	Prompts Prompts `yaml:"prompts"`
	Actions Actions `yaml:"actions"`
}

func LoadConfig(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
