package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/mod-hub/mod-hub/internal/catalog"
)

// RenderError 将缓存层错误映射为 HTTP 响应：NotFound → 404，
// 存储失败 → 500，其余错误同样按 500 处理但使用不同的错误码。
func RenderError(c fiber.Ctx, logger *logrus.Logger, err error) error {
	fields := logrus.Fields{
		"action":     "render_error",
		"request_id": RequestID(c),
		"path":       c.Path(),
	}

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "mod_not_found"})
	case errors.Is(err, catalog.ErrStoreQuery):
		logger.WithError(err).WithFields(fields).Error("store query failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "store_unavailable"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WithError(err).WithFields(fields).Warn("request aborted while waiting for refresh")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "refresh_pending"})
	default:
		logger.WithError(err).WithFields(fields).Error("unexpected catalog error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
}
