package config

import (
	"fmt"
	"time"

	coreconfig "github.com/go-core-fx/config"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultAPIBaseURL = "http://127.0.0.1:8000/api"
	DefaultLocalID    = "1"
)

type Config struct {
	APIBaseURL       string        `koanf:"api_base_url" validate:"required,url"`
	Username         string        `koanf:"username"`
	Password         string        `koanf:"password"`
	LocalID          string        `koanf:"local_id" validate:"required"`
	StateFile        string        `koanf:"state_file"`
	RedisURL         string        `koanf:"redis_url" validate:"omitempty,url"`
	ProductCacheSize int           `koanf:"product_cache_size" validate:"gte=1,lte=1000"`
	SearchPageSize   int           `koanf:"search_page_size" validate:"gte=1,lte=100"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	LogFile          string        `koanf:"log_file"`
	Debug            bool          `koanf:"debug"`
	MetricsAddr      string        `koanf:"metrics_addr" validate:"omitempty,hostname_port"`
	LLMBaseURL       string        `koanf:"llm_base_url" validate:"omitempty,url"`
	LLMAPIKey        string        `koanf:"llm_api_key"`
	LLMModel         string        `koanf:"llm_model"`
}

// Default returns the configuration used when nothing is set in the environment.
func Default() Config {
	return Config{
		APIBaseURL:       DefaultAPIBaseURL,
		LocalID:          DefaultLocalID,
		StateFile:        "./.bebidas-pos.json",
		ProductCacheSize: 100,
		SearchPageSize:   10,
		Timeout:          20 * time.Second,
		LogFile:          "./bebidas-pos.log",
		Debug:            false,
	}
}

func New() (Config, error) {
	cfg := Default()

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
