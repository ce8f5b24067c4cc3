package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"3m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述进程级行为：监听端口、日志、路由前缀与 CORS。
type GlobalConfig struct {
	ListenPort    int      `mapstructure:"ListenPort"`
	LogLevel      string   `mapstructure:"LogLevel"`
	LogFilePath   string   `mapstructure:"LogFilePath"`
	LogMaxSize    int      `mapstructure:"LogMaxSize"`
	LogMaxBackups int      `mapstructure:"LogMaxBackups"`
	LogCompress   bool     `mapstructure:"LogCompress"`
	RoutePrefix   string   `mapstructure:"RoutePrefix"`
	AllowOrigins  []string `mapstructure:"AllowOrigins"`
	SyncToken     string   `mapstructure:"SyncToken"`
}

// StoreConfig 描述后端数据库连接。DatabaseURL 可以是本地 SQLite 文件，
// 也可以是远程 libsql 地址（此时必须提供 AuthToken）。
type StoreConfig struct {
	DatabaseURL  string   `mapstructure:"DatabaseURL"`
	AuthToken    string   `mapstructure:"AuthToken"`
	QueryTimeout Duration `mapstructure:"QueryTimeout"`
	MaxOpenConns int      `mapstructure:"MaxOpenConns"`
}

// CacheConfig 控制内存缓存的刷新节奏与版本排序方式。
type CacheConfig struct {
	RefreshInterval Duration `mapstructure:"RefreshInterval"`
	VersionOrder    string   `mapstructure:"VersionOrder"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Store  StoreConfig  `mapstructure:"Store"`
	Cache  CacheConfig  `mapstructure:"Cache"`
}

// IsRemote 报告 DatabaseURL 是否指向远程 libsql 服务。
func (s StoreConfig) IsRemote() bool {
	parsed, err := url.Parse(strings.TrimSpace(s.DatabaseURL))
	if err != nil {
		return false
	}
	_, ok := remoteSchemes[strings.ToLower(parsed.Scheme)]
	return ok
}

// AuthMode 输出 `token` 或 `none`，供日志字段使用，避免打印凭证本身。
func (s StoreConfig) AuthMode() string {
	if s.AuthToken != "" {
		return "token"
	}
	return "none"
}

// SyncEnabled 表示是否开放手动刷新接口。
func (g GlobalConfig) SyncEnabled() bool {
	return g.SyncToken != ""
}

var remoteSchemes = map[string]struct{}{
	"libsql": {},
	"https":  {},
	"http":   {},
	"wss":    {},
	"ws":     {},
}
