package routes

import (
	"Backend-Attendance/src/middleware"
	"Backend-Attendance/src/utils"

	"github.com/gofiber/fiber/v2"
)

func attendanceRoutes(router fiber.Router, d Deps) {
	attendance := router.Group("/attendance")

	// identity is optional here so a missing token becomes a NO_IDENTITY result
	attendance.Post("/scan",
		middleware.OptionalAuthJWT(d.Tokens),
		middleware.ScanRateLimiter(d.ScanRateLimitPerMinute),
		d.Attendance.MarkAttendance)

	attendance.Get("/me/:eventId", middleware.AuthJWT(d.Tokens), d.Attendance.GetMyAttendance)
	attendance.Post("/:eventId/:participantId/invalidate",
		middleware.AuthJWT(d.Tokens),
		middleware.RequireRole(utils.RoleAuditor, utils.RoleAdmin),
		d.Attendance.InvalidateAttendance)

	router.Get("/events/:eventId/attendance",
		middleware.AuthJWT(d.Tokens),
		middleware.RequireRole(utils.RoleOrganizer, utils.RoleAuditor, utils.RoleAdmin),
		d.Attendance.ListEventAttendance)
}
