package routes

import (
	"Backend-Attendance/src/middleware"

	"github.com/gofiber/fiber/v2"
)

func teamRoutes(router fiber.Router, d Deps) {
	router.Post("/teams", middleware.AuthJWT(d.Tokens), d.Teams.RegisterTeam)
	router.Get("/events/:eventId/teams/:teamId/attendance", middleware.AuthJWT(d.Tokens), d.Teams.GetTeamAttendance)
}
