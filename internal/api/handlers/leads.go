package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/lead-dialer/internal/dialer"
	"github.com/acme/lead-dialer/internal/domain"
)

type leadResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Status      string    `json:"status"`
}

func toLeadResponse(lead *domain.Lead) leadResponse {
	return leadResponse{
		ID:          lead.ID,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		PhoneNumber: lead.PhoneNumber,
		Status:      lead.Status,
	}
}

// lookupLead resolves a phone number to a lead, letting the UI label an
// incoming caller instead of showing a bare number.
func (h *HandlerSet) lookupLead(ctx *fiber.Ctx) error {
	phone := ctx.Query("phone")
	if phone == "" {
		return fiber.NewError(http.StatusBadRequest, "phone query parameter is required")
	}

	lead, err := h.leads.GetByPhone(ctx.Context(), dialer.NormalizeNumber(phone))
	if err != nil {
		return translateError(err)
	}
	return ctx.Status(http.StatusOK).JSON(toLeadResponse(lead))
}
