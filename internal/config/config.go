package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Cascade   CascadeConfig   `mapstructure:"cascade"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Langfuse  LangfuseConfig  `mapstructure:"langfuse"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// GatewayConfig 上游 LLM 网关配置
// APIKey 只在启动时读取一次，之后只读，不允许出现在日志或响应中
type GatewayConfig struct {
	Provider string `mapstructure:"provider"` // openrouter, openai, azure, ark
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Referer  string `mapstructure:"referer"` // HTTP-Referer 头
	Title    string `mapstructure:"title"`   // X-Title 头
}

// CascadeConfig 模型瀑布配置
type CascadeConfig struct {
	Models              []string      `mapstructure:"models"`               // 按顺序尝试的模型
	AttemptTimeout      time.Duration `mapstructure:"attempt_timeout"`      // 单次尝试超时
	Temperature         float64       `mapstructure:"temperature"`          // 改写/释义任务
	CreativeTemperature float64       `mapstructure:"creative_temperature"` // expand/custom 任务
	MaxTokens           int           `mapstructure:"max_tokens"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// RedisConfig Redis 配置，Addr 为空时不启用幂等重放
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

// RateLimitConfig 按客户端 IP 的限流配置
type RateLimitConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	RequestsPerSec float64 `mapstructure:"requests_per_sec"`
	Burst          int     `mapstructure:"burst"`
	MaxClients     int     `mapstructure:"max_clients"`
}

// SentryConfig 错误追踪配置
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// LangfuseConfig LLM 调用追踪配置
// langfuse SDK 自身从 LANGFUSE_HOST / LANGFUSE_PUBLIC_KEY / LANGFUSE_SECRET_KEY 读取凭证
type LangfuseConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if len(c.Cascade.Models) == 0 {
		return errors.New("cascade.models must list at least one model")
	}
	for _, m := range c.Cascade.Models {
		if m == "" {
			return errors.New("cascade.models contains an empty model id")
		}
	}

	if c.Cascade.AttemptTimeout <= 0 {
		return errors.New("cascade.attempt_timeout must be positive")
	}

	if !validTemperature(c.Cascade.Temperature) || !validTemperature(c.Cascade.CreativeTemperature) {
		return errors.New("cascade temperatures must be within [0, 2]")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSec <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate_limit requires positive requests_per_sec and burst")
	}

	return nil
}

// HasAPIKey 网关凭证是否已配置
func (g *GatewayConfig) HasAPIKey() bool {
	return g.APIKey != ""
}

func validTemperature(t float64) bool {
	return t >= 0 && t <= 2
}
