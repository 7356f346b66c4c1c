package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/dialer"
	"github.com/acme/lead-dialer/internal/domain"
)

type openSessionRequest struct {
	UserID string `json:"user_id"`
	LeadID string `json:"lead_id"`
	Force  bool   `json:"force"`
}

type sessionResponse struct {
	SessionID uuid.UUID       `json:"session_id"`
	Session   dialer.Snapshot `json:"session"`
}

func (h *HandlerSet) openSession(ctx *fiber.Ctx) error {
	var req openSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}

	input := dialer.OpenInput{UserID: userID, Force: req.Force}
	if req.LeadID != "" {
		leadID, err := uuid.Parse(req.LeadID)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid lead id")
		}
		input.LeadID = leadID
	}

	id, ctrl, err := h.sessions.Open(ctx.Context(), input)
	if err != nil {
		return translateError(err)
	}

	return ctx.Status(http.StatusCreated).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

func (h *HandlerSet) getSession(ctx *fiber.Ctx) error {
	ctrl, id, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}
	return ctx.Status(http.StatusOK).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

func (h *HandlerSet) closeSession(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	cancel := ctx.QueryBool("cancel")

	if err := h.sessions.Close(id, cancel); err != nil {
		return translateError(err)
	}
	return ctx.SendStatus(http.StatusNoContent)
}

type placeCallRequest struct {
	Number string `json:"number"`
}

func (h *HandlerSet) placeCall(ctx *fiber.Ctx) error {
	ctrl, id, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}

	var req placeCallRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid request body")
		}
	}

	if err := ctrl.PlaceCall(ctx.Context(), req.Number); err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusAccepted).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

func (h *HandlerSet) hangUp(ctx *fiber.Ctx) error {
	ctrl, id, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}
	if err := ctrl.HangUp(); err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

func (h *HandlerSet) toggleMute(ctx *fiber.Ctx) error {
	ctrl, id, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}
	if err := ctrl.ToggleMute(); err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

func (h *HandlerSet) toggleSpeaker(ctx *fiber.Ctx) error {
	ctrl, id, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}
	ctrl.ToggleSpeaker()
	return ctx.Status(http.StatusOK).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

type pressDigitRequest struct {
	Digit string `json:"digit"`
}

func (h *HandlerSet) pressDigit(ctx *fiber.Ctx) error {
	ctrl, id, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}

	var req pressDigitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	if err := ctrl.PressDigit(req.Digit); err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(sessionResponse{SessionID: id, Session: ctrl.Snapshot()})
}

type submitOutcomeRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes"`
}

type submitOutcomeResponse struct {
	RecordID uuid.UUID       `json:"record_id"`
	Session  dialer.Snapshot `json:"session"`
}

func (h *HandlerSet) submitOutcome(ctx *fiber.Ctx) error {
	ctrl, _, err := h.sessionFromParams(ctx)
	if err != nil {
		return err
	}

	var req submitOutcomeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	record, err := ctrl.SubmitOutcome(ctx.Context(), domain.CallOutcome(req.Outcome), req.Notes)
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(submitOutcomeResponse{RecordID: record.ID, Session: ctrl.Snapshot()})
}

func (h *HandlerSet) sessionFromParams(ctx *fiber.Ctx) (*dialer.Controller, uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return nil, uuid.Nil, fiber.NewError(http.StatusBadRequest, "invalid session id")
	}
	ctrl, err := h.sessions.Get(id)
	if err != nil {
		return nil, uuid.Nil, translateError(err)
	}
	return ctrl, id, nil
}
