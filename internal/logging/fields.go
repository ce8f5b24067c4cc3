package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RefreshFields 提供缓存刷新日志的公共字段。
func RefreshFields(region string, elapsed time.Duration) logrus.Fields {
	return logrus.Fields{
		"action":      "cache_refresh",
		"region":      region,
		"duration_ms": elapsed.Milliseconds(),
	}
}

// RequestFields 提供请求 ID、路由与状态码字段，供 HTTP 访问日志复用。
func RequestFields(requestID, method, route string, status int, elapsed time.Duration) logrus.Fields {
	return logrus.Fields{
		"action":      "http_request",
		"request_id":  requestID,
		"method":      method,
		"route":       route,
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
	}
}
