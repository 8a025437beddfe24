package middleware

import (
	"time"

	"Backend-Attendance/src/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ScanRateLimiter throttles scan submissions per participant, falling back to
// the client IP when no identity was resolved.
func ScanRateLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 60
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id := UserID(c); id != "" {
				return "user:" + id
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(
				models.NewScanFailure(models.CodeNetworkError, "Too many scans, please wait a moment and retry"))
		},
	})
}
