// Package config 负责加载和校验 ainews 的 YAML 配置。
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 ainews 的顶层配置结构。
type Config struct {
	Log       LogConfig         `yaml:"log"`
	Cache     CacheConfig       `yaml:"cache"`
	Fetch     FetchConfig       `yaml:"fetch"`
	Rank      RankConfig        `yaml:"rank"`
	Feeds     map[string]string `yaml:"feeds"`
	Translate TranslateConfig   `yaml:"translate"`
	Summary   SummaryConfig     `yaml:"summary"`
	Archive   ArchiveConfig     `yaml:"archive"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// CacheConfig 两级缓存配置。
type CacheConfig struct {
	// Dir 磁盘缓存目录。
	Dir string `yaml:"dir"`
	// TTLMinutes 缓存有效期（分钟）。新闻时效性强，默认 15 分钟。
	TTLMinutes int `yaml:"ttl_minutes"`
}

// FetchConfig 抓取与重试配置。
type FetchConfig struct {
	// TimeoutSeconds 单次 HTTP 请求超时（秒）。
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// Concurrency 最大并发抓取数。
	Concurrency int `yaml:"concurrency"`
	// DeadlineSeconds 整轮采集的总时限（秒）。
	DeadlineSeconds int `yaml:"deadline_seconds"`
	// MaxAttempts 单源最大尝试次数（含首次）。
	MaxAttempts int `yaml:"max_attempts"`
	// BaseDelayMs 重试退避基础延迟（毫秒），按 2 的幂递增。
	BaseDelayMs int `yaml:"base_delay_ms"`
	// MaxDelayMs 重试退避延迟上限（毫秒）。
	MaxDelayMs int `yaml:"max_delay_ms"`
}

// RankConfig 过滤与排序配置。
type RankConfig struct {
	MaxPerFeed int `yaml:"max_per_feed"`
	MaxTotal   int `yaml:"max_total"`
	// MinScore 最低相关性得分，低于此分的条目被过滤。
	MinScore float64 `yaml:"min_score"`
	// Keywords 覆盖内置的 AI 关键词表（为空则使用内置）。
	Keywords []string `yaml:"keywords"`
	// ExcludeKeywords 覆盖内置的排除词表（广告、推广等）。
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// TranslateConfig 腾讯云机器翻译配置。
type TranslateConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SecretID   string `yaml:"secret_id"`
	SecretKey  string `yaml:"secret_key"`
	Region     string `yaml:"region"`
	TargetLang string `yaml:"target_lang"`
}

// SummaryConfig 大模型摘要配置（OpenAI 兼容 API）。
type SummaryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ArchiveConfig 历史归档配置。
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// Load 读取 YAML 配置文件并返回 Config。
// path 为空时返回全默认配置。支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}

		// 展开环境变量，如 ${AINEWS_SUMMARY_API_KEY}
		expanded := os.Expand(string(data), func(key string) string {
			return os.Getenv(key)
		})

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = dataPath("cache")
	} else {
		cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	}
	if cfg.Cache.TTLMinutes == 0 {
		cfg.Cache.TTLMinutes = 15
	}

	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 10
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = 10
	}
	if cfg.Fetch.DeadlineSeconds == 0 {
		cfg.Fetch.DeadlineSeconds = 60
	}
	if cfg.Fetch.MaxAttempts == 0 {
		cfg.Fetch.MaxAttempts = 3
	}
	if cfg.Fetch.BaseDelayMs == 0 {
		cfg.Fetch.BaseDelayMs = 1000
	}
	if cfg.Fetch.MaxDelayMs == 0 {
		cfg.Fetch.MaxDelayMs = 8000
	}

	if cfg.Rank.MaxPerFeed == 0 {
		cfg.Rank.MaxPerFeed = 5
	}
	if cfg.Rank.MaxTotal == 0 {
		cfg.Rank.MaxTotal = 30
	}
	if cfg.Rank.MinScore == 0 {
		cfg.Rank.MinScore = 10
	}

	if cfg.Translate.Region == "" {
		cfg.Translate.Region = "ap-guangzhou"
	}
	if cfg.Translate.TargetLang == "" {
		cfg.Translate.TargetLang = "zh"
	}

	if cfg.Summary.APIURL == "" {
		cfg.Summary.APIURL = "https://api.openai.com/v1"
	}
	if cfg.Summary.MaxTokens == 0 {
		cfg.Summary.MaxTokens = 150
	}

	if cfg.Archive.DBPath == "" {
		cfg.Archive.DBPath = dataPath("ainews.db")
	} else {
		cfg.Archive.DBPath = expandHome(cfg.Archive.DBPath)
	}

	// 去除密钥两端可能的空白（环境变量展开后常见）
	cfg.Summary.APIKey = strings.TrimSpace(cfg.Summary.APIKey)
	cfg.Translate.SecretID = strings.TrimSpace(cfg.Translate.SecretID)
	cfg.Translate.SecretKey = strings.TrimSpace(cfg.Translate.SecretKey)
}

// dataPath 返回数据目录下的路径，默认位于 ~/.ainews。
func dataPath(name string) string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return "./.ainews-data/" + name
	}
	return home + "/.ainews/" + name
}

// expandHome 展开路径前缀的 ~，Go 不会自动处理。
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		if home != "" {
			return home + path[1:]
		}
	}
	return path
}
