package routes

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/mod-hub/mod-hub/internal/server"
)

// routeIndex 与原有服务的 /api 首页保持一致，列出可用接口。
const routeIndex = `
    Routes:
        - GET %[1]s/mod-list - returns a JSON list of all mods sorted by 'recently updated' or HTTP 500
        - GET %[1]s/mod/{name} - returns a JSON object representing info about the mod with the specified name or HTTP 500 if some component fails, or HTTP 404 if the mod doesn't exist
`

// RegisterCatalogRoutes 暴露列表与详情接口。prefix 下注册原有路径，
// 同时在根路径注册 /catalog 与 /items/:name 两个别名。
func RegisterCatalogRoutes(app *fiber.App, svc server.CatalogService, logger *logrus.Logger, prefix string) {
	if app == nil || svc == nil || logger == nil {
		return
	}

	list := func(c fiber.Ctx) error {
		entries, err := svc.Catalog(server.RequestContext(c))
		if err != nil {
			return server.RenderError(c, logger, err)
		}
		return c.JSON(entries)
	}

	item := func(c fiber.Ctx) error {
		name := strings.TrimSpace(c.Params("name"))
		if name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mod_name_required"})
		}
		record, err := svc.Item(server.RequestContext(c), name)
		if err != nil {
			return server.RenderError(c, logger, err)
		}
		return c.JSON(record)
	}

	index := func(c fiber.Ctx) error {
		return c.SendString(fmt.Sprintf(routeIndex, prefix))
	}

	if prefix == "" {
		app.Get("/", index)
	} else {
		app.Get(prefix, index)
	}
	app.Get(prefix+"/mod-list", list)
	app.Get(prefix+"/mod/:name", item)
	app.Get("/catalog", list)
	app.Get("/items/:name", item)
}
