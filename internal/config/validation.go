package config

import (
	"errors"
	"net/url"
	"strings"
)

// 版本排序方式，与 cache.VersionOrder 的取值一一对应。
const (
	VersionOrderSequence = "sequence"
	VersionOrderLabel    = "label"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LogMaxSize < 0 || g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxSize/LogMaxBackups", "不能为负数")
	}
	if strings.ContainsAny(g.RoutePrefix, " ?#:") {
		return newFieldError("Global.RoutePrefix", "不允许包含空格或 ?#: 字符")
	}
	if strings.HasPrefix(g.RoutePrefix, "/-") {
		return newFieldError("Global.RoutePrefix", "/- 前缀保留给诊断接口")
	}
	for _, origin := range g.AllowOrigins {
		if strings.TrimSpace(origin) == "" {
			return newFieldError("Global.AllowOrigins", "不能包含空字符串")
		}
	}

	if err := c.Store.validate(); err != nil {
		return err
	}

	if c.Cache.RefreshInterval.DurationValue() <= 0 {
		return newFieldError("Cache.RefreshInterval", "必须大于 0")
	}
	switch c.Cache.VersionOrder {
	case VersionOrderSequence, VersionOrderLabel:
	default:
		return newFieldError("Cache.VersionOrder", "仅支持 sequence/label")
	}

	return nil
}

func (s StoreConfig) validate() error {
	if s.DatabaseURL == "" {
		return newFieldError("Store.DatabaseURL", "不能为空（可通过 DB_URL 注入）")
	}
	parsed, err := url.Parse(s.DatabaseURL)
	if err != nil {
		return newFieldError("Store.DatabaseURL", err.Error())
	}
	if s.IsRemote() {
		if parsed.Host == "" {
			return newFieldError("Store.DatabaseURL", "远程地址缺少 Host")
		}
		if s.AuthToken == "" {
			return newFieldError("Store.AuthToken", "远程数据库必须提供凭证（可通过 AUTH 注入）")
		}
	} else if parsed.Scheme != "" && parsed.Scheme != "file" {
		return newFieldError("Store.DatabaseURL", "仅支持 file:、libsql://、http(s):// 或 ws(s)://")
	}
	if s.QueryTimeout.DurationValue() <= 0 {
		return newFieldError("Store.QueryTimeout", "必须大于 0")
	}
	if s.MaxOpenConns < 0 {
		return newFieldError("Store.MaxOpenConns", "不能为负数")
	}
	return nil
}
