package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/polyterm/polyterm/clob/types"
)

// Config 应用配置。来源优先级：环境变量 > YAML 文件 > 默认值。
type Config struct {
	// Host CLOB 交易所地址
	Host string `yaml:"host"`

	// ChainID 区块链网络，默认 Polygon 主网
	ChainID int `yaml:"chain_id"`

	// WalletFile 钱包/凭证存储文件路径
	WalletFile string `yaml:"wallet_file"`

	// JournalFile 本地订单日志（sqlite）路径，为空则不记录
	JournalFile string `yaml:"journal_file"`

	// VaultDir 加密私钥保险库目录（可选）
	VaultDir string `yaml:"vault_dir"`

	// RequestTimeoutSec 每个网络调用的超时（秒）
	RequestTimeoutSec int `yaml:"request_timeout_sec"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// DefaultHost 默认交易所地址
const DefaultHost = "https://clob.polymarket.com"

func defaults() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".polyterm")
	return &Config{
		Host:              DefaultHost,
		ChainID:           int(types.ChainPolygon),
		WalletFile:        filepath.Join(base, "wallet.json"),
		JournalFile:       filepath.Join(base, "journal.db"),
		RequestTimeoutSec: 15,
		LogLevel:          "info",
	}
}

// Load 读取配置。path 为空时只应用默认值和环境变量。
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.RequestTimeoutSec <= 0 {
		cfg.RequestTimeoutSec = 15
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("POLYTERM_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("POLYTERM_CHAIN_ID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChainID = n
		}
	}
	if v := os.Getenv("POLYTERM_WALLET_FILE"); v != "" {
		cfg.WalletFile = v
	}
	if v := os.Getenv("POLYTERM_JOURNAL_FILE"); v != "" {
		cfg.JournalFile = v
	}
	if v := os.Getenv("POLYTERM_VAULT_DIR"); v != "" {
		cfg.VaultDir = v
	}
	if v := os.Getenv("POLYTERM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("POLYTERM_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

// RequestTimeout 网络调用超时
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Chain 返回链 ID 枚举
func (c *Config) Chain() types.Chain {
	return types.Chain(c.ChainID)
}
