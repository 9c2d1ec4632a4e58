package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gridscape/internal/config"
	"gridscape/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

// DefaultModels 默认模型瀑布，按顺序尝试
var DefaultModels = []string{
	"arcee-ai/trinity-large-preview:free",
	"google/gemma-3-12b-it:free",
	"tngtech/deepseek-r1t2-chimera:free",
	"google/gemini-2.0-flash-exp:free",
	"openai/gpt-4o-mini",
}

var rootCmd = &cobra.Command{
	Use:   "gridscape",
	Short: "Gridscape - text rewrite service",
	Long: `Gridscape rewrites text across registers and styles for language learners.
Each request is answered by the first model in an ordered cascade that returns valid JSON.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 可选，已存在的环境变量优先
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.gridscape")
	}

	// 环境变量设置
	viper.SetEnvPrefix("GRIDSCAPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("gateway.api_key", "GRIDSCAPE_GATEWAY_API_KEY", "OPENROUTER_API_KEY")

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "90s")
	viper.SetDefault("server.cors_origins", []string{"*"})

	// Gateway
	viper.SetDefault("gateway.provider", "openrouter")
	viper.SetDefault("gateway.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("gateway.referer", "https://gridscape.netlify.app")
	viper.SetDefault("gateway.title", "Gridscape")

	// Cascade
	viper.SetDefault("cascade.models", DefaultModels)
	viper.SetDefault("cascade.attempt_timeout", "10s")
	viper.SetDefault("cascade.temperature", 0.7)
	viper.SetDefault("cascade.creative_temperature", 0.9)
	viper.SetDefault("cascade.max_tokens", 512)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// Redis
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.idempotency_ttl", "24h")

	// Rate limit
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_sec", 2)
	viper.SetDefault("rate_limit.burst", 10)
	viper.SetDefault("rate_limit.max_clients", 10000)

	// Observability
	viper.SetDefault("sentry.environment", "development")
	viper.SetDefault("langfuse.enabled", false)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
