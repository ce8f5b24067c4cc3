package routes

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/mod-hub/mod-hub/internal/server"
	"github.com/mod-hub/mod-hub/internal/version"
)

// DiagnosticsOptions 控制 /-/ 下的诊断与运维接口。
type DiagnosticsOptions struct {
	Service   server.CatalogService
	Logger    *logrus.Logger
	Metrics   http.Handler
	SyncToken string
	Prefix    string
}

// RegisterDiagnosticsRoutes 暴露缓存状态、Prometheus 指标与手动刷新接口。
// SyncToken 为空时不注册刷新接口。
func RegisterDiagnosticsRoutes(app *fiber.App, opts DiagnosticsOptions) {
	if app == nil || opts.Service == nil || opts.Logger == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version": version.Full(),
			"cache":   opts.Service.Status(),
		})
	})

	if opts.Metrics != nil {
		app.Get("/-/metrics", adaptor.HTTPHandler(opts.Metrics))
	}

	if opts.SyncToken == "" {
		return
	}

	app.Post("/-/refresh", func(c fiber.Ctx) error {
		token := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
		if !tokenMatches(token, opts.SyncToken) {
			logUnauthorized(c, opts.Logger)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		opts.Service.Invalidate()
		return c.Status(fiber.StatusAccepted).JSON(opts.Service.Status())
	})

	// 兼容旧的 run-sync 链接：无论鉴权结果如何都跳回首页，只在成功时失效缓存。
	home := opts.Prefix
	if home == "" {
		home = "/"
	}
	app.Get(opts.Prefix+"/run-sync/:token", func(c fiber.Ctx) error {
		if tokenMatches(c.Params("token"), opts.SyncToken) {
			opts.Service.Invalidate()
		} else {
			logUnauthorized(c, opts.Logger)
		}
		return c.Redirect().Status(fiber.StatusSeeOther).To(home)
	})
}

func tokenMatches(given, expected string) bool {
	if given == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}

func logUnauthorized(c fiber.Ctx, logger *logrus.Logger) {
	logger.WithFields(logrus.Fields{
		"action":     "cache_sync",
		"request_id": server.RequestID(c),
		"ip":         c.IP(),
	}).Warn("unauthorized sync attempt")
}
