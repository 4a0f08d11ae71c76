package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Nyukimin/leadqual/internal/infrastructure/routing"
)

// 対応するLLMプロバイダー
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultPath は LEADQUAL_CONFIG 未設定時の設定ファイルパス
const DefaultPath = "./config.yaml"

// Config はアプリケーション全体の設定
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Routing RoutingConfig `yaml:"routing"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port int    `yaml:"port" env:"LEADQUAL_PORT"`
	Host string `yaml:"host" env:"LEADQUAL_HOST"`
}

// Addr は listen アドレスを返す
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig はLLMプロバイダー設定
type LLMConfig struct {
	Provider string `yaml:"provider" env:"LEADQUAL_LLM_PROVIDER"`
	APIKey   string `yaml:"api_key" env:"LEADQUAL_LLM_API_KEY"` // 環境変数から読み込み推奨
	BaseURL  string `yaml:"base_url" env:"LEADQUAL_LLM_BASE_URL"`

	// プロバイダー固有の環境変数（api_key 未設定時のみ使用）
	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"`
}

// RoutingConfig はインテントルーターと見込み客探索のモデル設定
type RoutingConfig struct {
	ProModel         string `yaml:"pro_model" env:"LEADQUAL_PRO_MODEL"`
	StandardModel    string `yaml:"standard_model" env:"LEADQUAL_STANDARD_MODEL"`
	LiteModel        string `yaml:"lite_model" env:"LEADQUAL_LITE_MODEL"`
	ThinkingBudget   int    `yaml:"thinking_budget" env:"LEADQUAL_THINKING_BUDGET"`
	ProspectingModel string `yaml:"prospecting_model" env:"LEADQUAL_PROSPECTING_MODEL"`
}

// Models はルーター用のモデル設定に変換
func (r RoutingConfig) Models() routing.Models {
	return routing.Models{
		Pro:            r.ProModel,
		Standard:       r.StandardModel,
		Lite:           r.LiteModel,
		ThinkingBudget: r.ThinkingBudget,
	}
}

// StoreConfig はリードブック保存先設定
type StoreConfig struct {
	Path string `yaml:"path" env:"LEADQUAL_STORE_PATH"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level" env:"LEADQUAL_LOG_LEVEL"`
	Format string `yaml:"format" env:"LEADQUAL_LOG_FORMAT"`
}

// providerModels はプロバイダー別のデフォルトモデル（pro, standard, lite）
var providerModels = map[string][3]string{
	ProviderGemini:    {routing.DefaultProModel, routing.DefaultStandardModel, routing.DefaultLiteModel},
	ProviderOpenAI:    {"o3", "gpt-4.1", "gpt-4.1-mini"},
	ProviderAnthropic: {"claude-opus-4-1", "claude-sonnet-4-5", "claude-haiku-4-5"},
}

// LoadConfig は設定ファイルを読み込む。ファイルが存在しない場合はデフォルト値と環境変数のみを使う
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 環境変数で上書き（APIキーはファイルに平文保存しない）
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.setDefaults()
	cfg.resolveAPIKey()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// PathFromEnv は LEADQUAL_CONFIG から設定ファイルパスを返す
func PathFromEnv() string {
	if p := os.Getenv("LEADQUAL_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// setDefaults はデフォルト値を設定
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderGemini
	}

	models, ok := providerModels[c.LLM.Provider]
	if ok {
		if c.Routing.ProModel == "" {
			c.Routing.ProModel = models[0]
		}
		if c.Routing.StandardModel == "" {
			c.Routing.StandardModel = models[1]
		}
		if c.Routing.LiteModel == "" {
			c.Routing.LiteModel = models[2]
		}
	}

	if c.Routing.ThinkingBudget == 0 {
		c.Routing.ThinkingBudget = routing.DefaultThinkingBudget
	}

	if c.Routing.ProspectingModel == "" {
		c.Routing.ProspectingModel = c.Routing.StandardModel
	}

	if c.Store.Path == "" {
		c.Store.Path = "./data/leadbook.json"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// resolveAPIKey は api_key 未設定時にプロバイダー固有の環境変数を使う
func (c *Config) resolveAPIKey() {
	if c.LLM.APIKey != "" {
		return
	}

	switch c.LLM.Provider {
	case ProviderGemini:
		c.LLM.APIKey = c.LLM.GeminiAPIKey
	case ProviderOpenAI:
		c.LLM.APIKey = c.LLM.OpenAIAPIKey
	case ProviderAnthropic:
		c.LLM.APIKey = c.LLM.AnthropicAPIKey
	}
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	// サーバー設定検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	// LLM設定検証
	if _, ok := providerModels[c.LLM.Provider]; !ok {
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api_key is required for provider %s", c.LLM.Provider)
	}

	// ルーティング設定検証
	if c.Routing.StandardModel == "" {
		return fmt.Errorf("routing standard_model is required")
	}

	if c.Routing.ThinkingBudget < 0 {
		return fmt.Errorf("routing thinking_budget must not be negative")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("invalid log format: %q (must be json or console)", c.Log.Format)
	}

	return nil
}
