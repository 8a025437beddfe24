package controllers

import (
	"context"
	"errors"

	"Backend-Attendance/src/models"
	"Backend-Attendance/src/services/teams"
	"Backend-Attendance/src/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type TeamRegistrar interface {
	Register(ctx context.Context, req models.RegisterTeamRequest) (*models.Team, error)
}

type TeamSummarizer interface {
	Summary(ctx context.Context, eventID, teamID string) (*models.TeamAttendanceSummary, error)
}

type TeamController struct {
	Registry   TeamRegistrar
	Aggregator TeamSummarizer
	Validator  *validator.Validate
}

func NewTeamController(registry TeamRegistrar, agg TeamSummarizer) *TeamController {
	return &TeamController{Registry: registry, Aggregator: agg, Validator: validator.New()}
}

// RegisterTeam godoc
// @Summary      Register a team for an event
// @Description  Members must be unique, include the captain, and not already belong to another team of the event.
// @Tags         teams
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body models.RegisterTeamRequest true "Team"
// @Success      201  {object}  models.SuccessResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /teams [post]
func (h *TeamController) RegisterTeam(c *fiber.Ctx) error {
	var req models.RegisterTeamRequest
	if msg, ok := bindJSON(c, h.Validator, &req); !ok {
		return utils.HandleError(c, fiber.StatusBadRequest, msg)
	}

	team, err := h.Registry.Register(c.UserContext(), req)
	switch {
	case errors.Is(err, teams.ErrEventNotFound):
		return utils.HandleError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, teams.ErrTeamNameTaken), errors.Is(err, teams.ErrMemberInOtherTeam):
		return utils.HandleError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, teams.ErrMemberCountMismatch),
		errors.Is(err, teams.ErrCaptainNotMember),
		errors.Is(err, teams.ErrDuplicateMember):
		return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to register team")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Team registered successfully",
		"data":    team,
	})
}

// GetTeamAttendance godoc
// @Summary      Get a team's attendance summary
// @Tags         teams
// @Produce      json
// @Security     BearerAuth
// @Param        eventId  path  string  true  "Event ID"
// @Param        teamId   path  string  true  "Team ID"
// @Success      200  {object}  models.SuccessResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /events/{eventId}/teams/{teamId}/attendance [get]
func (h *TeamController) GetTeamAttendance(c *fiber.Ctx) error {
	summary, err := h.Aggregator.Summary(c.UserContext(), c.Params("eventId"), c.Params("teamId"))
	if errors.Is(err, teams.ErrTeamNotFound) || errors.Is(err, teams.ErrEventMismatch) {
		return utils.HandleError(c, fiber.StatusNotFound, "Team not found for this event")
	}
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch team attendance")
	}
	return c.JSON(fiber.Map{"data": summary})
}
