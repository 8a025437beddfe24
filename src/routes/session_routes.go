package routes

import (
	"Backend-Attendance/src/middleware"
	"Backend-Attendance/src/utils"

	"github.com/gofiber/fiber/v2"
)

func sessionRoutes(router fiber.Router, d Deps) {
	organizer := middleware.RequireRole(utils.RoleOrganizer, utils.RoleAdmin)

	sessions := router.Group("/sessions", middleware.AuthJWT(d.Tokens))
	sessions.Post("/", organizer, d.Sessions.IssueSession)
	sessions.Get("/:sessionId", d.Sessions.GetSession)
	sessions.Get("/:sessionId/qr.png", organizer, d.Sessions.GetSessionQRCode)

	router.Get("/events/:eventId/sessions", middleware.AuthJWT(d.Tokens), organizer, d.Sessions.ListActiveSessions)
}
