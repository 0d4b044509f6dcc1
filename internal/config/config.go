package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`     // 服务器配置
	Store      StoreConfig               `mapstructure:"store"`      // 集合文件存储配置
	History    HistoryConfig             `mapstructure:"history"`    // 刷新历史审计库配置（可选）
	Registries map[string]RegistryConfig `mapstructure:"registries"` // 多注册库独立配置
	LLM        LLMConfig                 `mapstructure:"llm"`        // LLM问答服务配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// StoreConfig 集合文件存储配置
type StoreConfig struct {
	Path string `mapstructure:"path"` // 集合JSON文件路径
}

// HistoryConfig 刷新历史审计库配置（DSN为空则不启用审计）
type HistoryConfig struct {
	DSN             string        `mapstructure:"dsn"`               // PostgreSQL连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RegistryConfig 单个注册库的独立配置
type RegistryConfig struct {
	BaseURL     string `mapstructure:"base_url"`     // 接口/页面基础地址
	Timeout     int    `mapstructure:"timeout"`      // 请求超时（秒）
	RetryCount  int    `mapstructure:"retry_count"`  // 重试次数（仅结构化API源使用）
	PageSize    int    `mapstructure:"page_size"`    // 单页记录数（仅分页API源使用）
	DetailDelay int    `mapstructure:"detail_delay"` // 详情页抓取最小间隔（毫秒，仅抓取源使用）
	MaxDetails  int    `mapstructure:"max_details"`  // 详情页抓取上限（仅抓取源使用，0为不抓详情）
	Proxy       string `mapstructure:"proxy"`        // 代理地址
	UserAgent   string `mapstructure:"user_agent"`   // 请求UA（抓取源需要浏览器UA）
}

// LLMConfig LLM问答服务配置（OpenAI兼容chat接口，如Groq）
type LLMConfig struct {
	BaseURL           string        `mapstructure:"base_url"`            // API基础地址
	Model             string        `mapstructure:"model"`               // 模型名
	APIKey            string        `mapstructure:"api_key"`             // API密钥（建议放.env）
	Timeout           int           `mapstructure:"timeout"`             // 请求超时（秒）
	Temperature       float64       `mapstructure:"temperature"`         // 采样温度
	MaxContextRecords int           `mapstructure:"max_context_records"` // 提示词中携带的记录数上限
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`           // 回答缓存有效期
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("HISTORY_DSN"); v != "" {
		cfg.History.DSN = v
	}
	if c, ok := cfg.Registries["ctgov"]; ok {
		if v := os.Getenv("CTGOV_PROXY"); v != "" {
			c.Proxy = v
		}
		cfg.Registries["ctgov"] = c
	}
	if e, ok := cfg.Registries["euctr"]; ok {
		if v := os.Getenv("EUCTR_PROXY"); v != "" {
			e.Proxy = v
		}
		cfg.Registries["euctr"] = e
	}
}
