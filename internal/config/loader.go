package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// envBindings 与原有部署保持一致：连接信息通过环境变量注入，优先级高于配置文件。
var envBindings = map[string]string{
	"Store.DatabaseURL": "DB_URL",
	"Store.AuthToken":   "AUTH",
	"SyncToken":         "SYNC_AUTH",
}

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量覆盖与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("绑定环境变量 %s 失败: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyStoreDefaults(&cfg.Store)
	applyCacheDefaults(&cfg.Cache)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("RoutePrefix", "/api")
	v.SetDefault("AllowOrigins", []string{"*"})
	v.SetDefault("Store.QueryTimeout", "10s")
	v.SetDefault("Store.MaxOpenConns", 4)
	v.SetDefault("Cache.RefreshInterval", "180s")
	v.SetDefault("Cache.VersionOrder", VersionOrderSequence)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8000
	}
	g.RoutePrefix = normalizePrefix(g.RoutePrefix)
	if len(g.AllowOrigins) == 0 {
		g.AllowOrigins = []string{"*"}
	}
}

func applyStoreDefaults(s *StoreConfig) {
	s.DatabaseURL = strings.TrimSpace(s.DatabaseURL)
	s.AuthToken = strings.TrimSpace(s.AuthToken)
	if s.QueryTimeout.DurationValue() == 0 {
		s.QueryTimeout = Duration(10 * time.Second)
	}
	if s.MaxOpenConns == 0 {
		s.MaxOpenConns = 4
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.RefreshInterval.DurationValue() == 0 {
		c.RefreshInterval = Duration(180 * time.Second)
	}
	c.VersionOrder = strings.ToLower(strings.TrimSpace(c.VersionOrder))
	if c.VersionOrder == "" {
		c.VersionOrder = VersionOrderSequence
	}
}

// normalizePrefix 保证前缀以 / 开头且不以 / 结尾；"/" 视为无前缀。
func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
