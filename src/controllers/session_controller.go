package controllers

import (
	"context"
	"errors"
	"time"

	"Backend-Attendance/src/middleware"
	"Backend-Attendance/src/models"
	"Backend-Attendance/src/qrcode"
	"Backend-Attendance/src/services/sessions"
	"Backend-Attendance/src/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// SessionIssuer is implemented by *sessions.Issuer.
type SessionIssuer interface {
	Issue(ctx context.Context, p sessions.IssueParams) (*models.Session, *models.IssuedSession, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	ListActive(ctx context.Context, eventID string) ([]models.Session, error)
	Now() time.Time
}

// IssueRecorder counts issued sessions. May be nil.
type IssueRecorder interface {
	IncrementSessionsIssued()
}

type SessionController struct {
	Issuer    SessionIssuer
	Validator *validator.Validate
	Recorder  IssueRecorder
}

func NewSessionController(issuer SessionIssuer, recorder IssueRecorder) *SessionController {
	return &SessionController{Issuer: issuer, Validator: validator.New(), Recorder: recorder}
}

type sessionView struct {
	*models.Session
	Expired bool `json:"expired"`
}

// IssueSession godoc
// @Summary      Issue an attendance session
// @Description  Creates a time-boxed session for an event and returns the QR payload. Omit ttlSeconds for the default lifetime.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body models.IssueSessionRequest true "Session parameters"
// @Success      201  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /sessions [post]
func (h *SessionController) IssueSession(c *fiber.Ctx) error {
	var req models.IssueSessionRequest
	if msg, ok := bindJSON(c, h.Validator, &req); !ok {
		return utils.HandleError(c, fiber.StatusBadRequest, msg)
	}

	session, issued, err := h.Issuer.Issue(c.UserContext(), sessions.IssueParams{
		EventID:  req.EventID,
		IssuerID: middleware.UserID(c),
		TTL:      time.Duration(req.TTLSeconds) * time.Second,
		Geofence: req.Geofence,
	})
	switch {
	case errors.Is(err, sessions.ErrEventNotFound):
		return utils.HandleError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, sessions.ErrInvalidGeofence), errors.Is(err, sessions.ErrInvalidTTL):
		return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to issue session")
	}

	if h.Recorder != nil {
		h.Recorder.IncrementSessionsIssued()
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Session issued successfully",
		"data": fiber.Map{
			"session": session,
			"qr":      issued,
		},
	})
}

// GetSession godoc
// @Summary      Get a session
// @Description  Returns a session by id with its logical expiry state
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path  string  true  "Session ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /sessions/{sessionId} [get]
func (h *SessionController) GetSession(c *fiber.Ctx) error {
	session, err := h.Issuer.Get(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return sessionLookupError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": sessionView{Session: session, Expired: session.ExpiredAt(h.Issuer.Now())},
	})
}

// GetSessionQRCode godoc
// @Summary      Render a session QR code
// @Description  Returns the session payload as a PNG. Expired sessions are gone.
// @Tags         sessions
// @Produce      png
// @Security     BearerAuth
// @Param        sessionId  path   string  true   "Session ID"
// @Param        size       query  int     false  "Edge length in pixels" default(256)
// @Success      200
// @Failure      404  {object}  models.ErrorResponse
// @Failure      410  {object}  models.ErrorResponse
// @Router       /sessions/{sessionId}/qr.png [get]
func (h *SessionController) GetSessionQRCode(c *fiber.Ctx) error {
	session, err := h.Issuer.Get(c.UserContext(), c.Params("sessionId"))
	if err != nil {
		return sessionLookupError(c, err)
	}
	if session.ExpiredAt(h.Issuer.Now()) {
		return utils.HandleError(c, fiber.StatusGone, "Session has expired")
	}

	text, err := sessions.EncodePayload(sessions.PayloadFor(session))
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to encode payload")
	}
	png, err := qrcode.EncodePNG(text, c.QueryInt("size", qrcode.DefaultSize))
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to render QR code")
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("png")
	return c.Send(png)
}

// ListActiveSessions godoc
// @Summary      List live sessions of an event
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string  true  "Event ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /events/{eventId}/sessions [get]
func (h *SessionController) ListActiveSessions(c *fiber.Ctx) error {
	list, err := h.Issuer.ListActive(c.UserContext(), c.Params("eventId"))
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch sessions")
	}
	return c.JSON(fiber.Map{"data": list, "total": len(list)})
}

func sessionLookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return utils.HandleError(c, fiber.StatusNotFound, "Session not found")
	}
	return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch session")
}
