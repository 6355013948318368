// Package config 加载应用配置（config.yaml + .env + 环境变量），并维护可配置 Node 的注册表。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/logger"
)

// 存储后端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

// AppConfig 是应用的整体配置。
type AppConfig struct {
	Server struct {
		Addr            string `yaml:"addr"`
		ShutdownTimeout int    `yaml:"shutdown_timeout_sec"`
	} `yaml:"server"`

	Log logger.Config `yaml:"log"`

	Engine core.EngineConfig `yaml:"engine"`

	// PipelinePath 可选的召回后阶段配置（YAML），为空时使用内置阶段
	PipelinePath string `yaml:"pipeline_path"`

	Store struct {
		Backend       string `yaml:"backend"` // memory / redis / sql
		DSN           string `yaml:"dsn"`     // sql：postgres://... 或 sqlite 文件路径
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		KeyPrefix     string `yaml:"key_prefix"`
	} `yaml:"store"`

	Upstream struct {
		BaseURL            string  `yaml:"base_url"`
		FlicToken          string  `yaml:"-"` // 只从环境变量读取
		ResonanceAlgorithm string  `yaml:"resonance_algorithm"`
		PageSize           int     `yaml:"page_size"`
		RatePerSecond      float64 `yaml:"rate_per_second"`
		TimeoutSec         int     `yaml:"timeout_sec"`
	} `yaml:"upstream"`

	Enrich struct {
		APIKey     string `yaml:"-"` // 只从环境变量读取
		BaseURL    string `yaml:"base_url"`
		Model      string `yaml:"model"`
		Workers    int    `yaml:"workers"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"enrich"`
}

// Default 返回默认配置。
func Default() *AppConfig {
	var cfg AppConfig
	cfg.Server.Addr = ":8000"
	cfg.Server.ShutdownTimeout = 10
	cfg.Log = logger.Config{Level: "info", Format: "console"}
	cfg.Engine = core.DefaultEngineConfig()
	cfg.Store.Backend = BackendMemory
	cfg.Store.KeyPrefix = "resonance"
	cfg.Upstream.PageSize = 1000
	cfg.Upstream.RatePerSecond = 5
	cfg.Upstream.TimeoutSec = 30
	cfg.Enrich.Model = "gpt-4o-mini"
	cfg.Enrich.Workers = 5
	cfg.Enrich.TimeoutSec = 60
	return &cfg
}

// Load 依次加载 .env、YAML 文件（path 为空或文件不存在时跳过）和环境变量覆盖。
func Load(path string) (*AppConfig, error) {
	// .env 不存在时继续使用系统环境变量
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Engine = cfg.Engine.WithDefaults()
	if cfg.Enrich.Workers <= 0 {
		cfg.Enrich.Workers = 5
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	if v := os.Getenv("FLIC_TOKEN"); v != "" {
		c.Upstream.FlicToken = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		c.Upstream.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("RESONANCE_ALGORITHM"); v != "" {
		c.Upstream.ResonanceAlgorithm = v
	}
	if v := os.Getenv("PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("config: invalid PAGE_SIZE %q", v)
		}
		c.Upstream.PageSize = n
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Enrich.APIKey = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Store.DSN = v
		c.Store.Backend = BackendSQL
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
		c.Store.Backend = BackendRedis
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// RequireUpstream 检查与上游接口交互所需的环境变量，缺失时返回包含全部缺失项的错误。
func (c *AppConfig) RequireUpstream() error {
	var missing []string
	if c.Upstream.FlicToken == "" {
		missing = append(missing, "FLIC_TOKEN")
	}
	if c.Upstream.BaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if c.Upstream.ResonanceAlgorithm == "" {
		missing = append(missing, "RESONANCE_ALGORITHM")
	}
	if c.Upstream.PageSize <= 0 {
		missing = append(missing, "PAGE_SIZE")
	}
	if len(missing) > 0 {
		return core.NewDomainError(core.ModuleIngest, core.ErrorCodeInvalidInput,
			"missing environment variables: "+strings.Join(missing, ", "))
	}
	return nil
}
