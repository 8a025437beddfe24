package controllers

import (
	"context"
	"errors"

	"Backend-Attendance/src/middleware"
	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/attendance"
	"Backend-Attendance/src/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AttendanceService is implemented by *attendance.Service.
type AttendanceService interface {
	Mark(ctx context.Context, participantID string, req models.ScanRequest) models.ScanResult
	Invalidate(ctx context.Context, auditorID, eventID, participantID, reason string) (*models.AttendanceRecord, error)
	Get(ctx context.Context, participantID, eventID string) (*models.AttendanceRecord, error)
	ListByEvent(ctx context.Context, eventID string, params models.PaginationParams) (*models.PaginatedResponse, error)
}

type AttendanceController struct {
	Service   AttendanceService
	Validator *validator.Validate
}

func NewAttendanceController(svc AttendanceService) *AttendanceController {
	return &AttendanceController{Service: svc, Validator: validator.New()}
}

// ScanStatus maps a scan outcome to its HTTP status.
func ScanStatus(code models.ScanCode) int {
	switch code {
	case models.CodeOK:
		return fiber.StatusCreated
	case models.CodeAlreadyMarked:
		return fiber.StatusConflict
	case models.CodeInvalidQR:
		return fiber.StatusBadRequest
	case models.CodeExpiredQR:
		return fiber.StatusGone
	case models.CodeLocationRequired:
		return fiber.StatusPreconditionRequired
	case models.CodeOutOfRange:
		return fiber.StatusForbidden
	case models.CodeNoIdentity:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusServiceUnavailable
	}
}

// MarkAttendance godoc
// @Summary      Mark attendance from a scanned QR code
// @Description  Validates the session, expiry and location, then records attendance once per participant and event. The body of every response is a scan result; only NETWORK_ERROR is worth retrying.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body models.ScanRequest true "Scanned session and location"
// @Success      201  {object}  models.ScanResult
// @Failure      400  {object}  models.ScanResult
// @Failure      401  {object}  models.ScanResult
// @Failure      403  {object}  models.ScanResult
// @Failure      409  {object}  models.ScanResult
// @Failure      410  {object}  models.ScanResult
// @Failure      428  {object}  models.ScanResult
// @Failure      503  {object}  models.ScanResult
// @Router       /attendance/scan [post]
func (h *AttendanceController) MarkAttendance(c *fiber.Ctx) error {
	var req models.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		// identity is checked first even when the body is unreadable
		result := models.NewScanFailure(models.CodeInvalidQR, "QR code is not valid, please scan a fresh code")
		if middleware.UserID(c) == "" {
			result = models.NewScanFailure(models.CodeNoIdentity, "Sign in again to mark attendance")
		}
		return c.Status(ScanStatus(result.Code)).JSON(result)
	}

	result := h.Service.Mark(c.UserContext(), middleware.UserID(c), req)
	return c.Status(ScanStatus(result.Code)).JSON(result)
}

// InvalidateAttendance godoc
// @Summary      Invalidate an attendance record
// @Description  Soft-invalidates a participant's record. The record is kept for audit and still blocks a second scan.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        eventId        path  string  true  "Event ID"
// @Param        participantId  path  string  true  "Participant ID"
// @Param        body body models.InvalidateRequest true "Reason"
// @Success      200  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /attendance/{eventId}/{participantId}/invalidate [post]
func (h *AttendanceController) InvalidateAttendance(c *fiber.Ctx) error {
	var req models.InvalidateRequest
	if msg, ok := bindJSON(c, h.Validator, &req); !ok {
		return utils.HandleError(c, fiber.StatusBadRequest, msg)
	}

	rec, err := h.Service.Invalidate(c.UserContext(), middleware.UserID(c), c.Params("eventId"), c.Params("participantId"), req.Reason)
	switch {
	case errors.Is(err, attendance.ErrReasonRequired):
		return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, attendance.ErrRecordNotFound):
		return utils.HandleError(c, fiber.StatusNotFound, "Attendance record not found")
	case err != nil:
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to invalidate attendance")
	}

	return c.JSON(fiber.Map{
		"message": "Attendance invalidated",
		"data":    rec,
	})
}

// ListEventAttendance godoc
// @Summary      List attendance for an event
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path   string  true   "Event ID"
// @Param        page     query  int     false  "Page number" default(1)
// @Param        limit    query  int     false  "Number of items per page" default(20)
// @Param        order    query  string  false  "Sort by scan time (asc or desc)" default(asc)
// @Success      200  {object}  models.PaginatedResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /events/{eventId}/attendance [get]
func (h *AttendanceController) ListEventAttendance(c *fiber.Ctx) error {
	params := models.DefaultPagination()
	params.Page = c.QueryInt("page", params.Page)
	params.Limit = c.QueryInt("limit", params.Limit)
	params.Order = c.Query("order", params.Order)

	page, err := h.Service.ListByEvent(c.UserContext(), c.Params("eventId"), params)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch attendance")
	}
	return c.JSON(page)
}

// GetMyAttendance godoc
// @Summary      Get the caller's attendance for an event
// @Tags         attendance
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string  true  "Event ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /attendance/me/{eventId} [get]
func (h *AttendanceController) GetMyAttendance(c *fiber.Ctx) error {
	rec, err := h.Service.Get(c.UserContext(), middleware.UserID(c), c.Params("eventId"))
	if errors.Is(err, attendance.ErrRecordNotFound) {
		return utils.HandleError(c, fiber.StatusNotFound, "No attendance recorded for this event")
	}
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch attendance")
	}
	return c.JSON(fiber.Map{"data": rec})
}
