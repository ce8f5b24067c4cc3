package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mod-hub/mod-hub/internal/cache"
	"github.com/mod-hub/mod-hub/internal/catalog"
	"github.com/mod-hub/mod-hub/internal/logging"
)

// CatalogService describes the cache operations the HTTP layer needs. The
// cache.Controller satisfies it; tests inject fakes.
type CatalogService interface {
	Catalog(ctx context.Context) ([]catalog.CatalogEntry, error)
	Item(ctx context.Context, name string) (catalog.ItemRecord, error)
	Invalidate()
	Status() cache.Status
}

var _ CatalogService = (*cache.Controller)(nil)

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger       *logrus.Logger
	Catalog      CatalogService
	ListenPort   int
	AllowOrigins []string
}

const contextKeyRequestID = "_modhub_request_id"

// NewApp builds a Fiber application with request ID, CORS and access-log
// middleware. Routes are attached separately via the routes package.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("catalog service is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	app := fiber.New(fiber.Config{
		UnescapePath: true,
		ErrorHandler: errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodPost, fiber.MethodOptions},
	}))

	return app, nil
}

// requestContextMiddleware 生成请求 ID，并在处理完成后输出访问日志。
func requestContextMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		started := time.Now()
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		logger.WithFields(logging.RequestFields(reqID, c.Method(), c.Path(), status, time.Since(started))).
			Info("request handled")
		return err
	}
}

// errorHandler 处理未被路由捕获的错误，例如 404 路由与 recover 的 panic。
func errorHandler(logger *logrus.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code == fiber.StatusNotFound {
				return c.Status(fe.Code).JSON(fiber.Map{"error": "route_not_found"})
			}
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		logger.WithError(err).
			WithFields(logrus.Fields{"action": "http_error", "request_id": RequestID(c)}).
			Error("unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// RequestContext 返回请求的 context，供缓存调用传递取消信号。
func RequestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
