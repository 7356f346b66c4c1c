package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type dialPadPreferenceResponse struct {
	DialPadShown bool `json:"dial_pad_shown"`
}

type setDialPadPreferenceRequest struct {
	DialPadShown bool `json:"dial_pad_shown"`
}

func (h *HandlerSet) getDialPadPreference(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}

	shown, err := h.preferences.DialPadShown(ctx.Context(), userID)
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(dialPadPreferenceResponse{DialPadShown: shown})
}

func (h *HandlerSet) setDialPadPreference(ctx *fiber.Ctx) error {
	userID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid user id")
	}

	var req setDialPadPreferenceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.preferences.SetDialPadShown(ctx.Context(), userID, req.DialPadShown); err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(dialPadPreferenceResponse{DialPadShown: req.DialPadShown})
}
