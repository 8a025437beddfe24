package routes

import (
	"Backend-Attendance/src/controllers"
	"Backend-Attendance/src/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Deps are the handlers and settings the router mounts.
type Deps struct {
	Tokens     middleware.TokenParser
	Sessions   *controllers.SessionController
	Attendance *controllers.AttendanceController
	Teams      *controllers.TeamController

	ScanRateLimitPerMinute int
	// Health reports storage reachability; nil means always healthy.
	Health func(c *fiber.Ctx) error
}

func InitRoutes(app *fiber.App, d Deps) {
	api := app.Group("/api")

	sessionRoutes(api, d)
	attendanceRoutes(api, d)
	teamRoutes(api, d)

	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		if d.Health != nil {
			return d.Health(c)
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Route เช็คว่า API ทำงานอยู่
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("✅ API is running...")
	})
}
