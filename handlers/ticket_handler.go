package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"

	"ticket-waitlist/services"
)

type TicketHandler struct {
	tickets *services.TicketService
}

func NewTicketHandler(tickets *services.TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

func (h *TicketHandler) Purchase(c echo.Context) error {
	var req struct {
		EventID          string `json:"event_id"`
		UserID           string `json:"user_id"`
		EntryID          string `json:"entry_id"`
		PaymentReference string `json:"payment_reference"`
		Amount           string `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.EventID == "" || req.UserID == "" || req.EntryID == "" || req.PaymentReference == "" {
		return badRequest(c, "event_id, user_id, entry_id and payment_reference are required")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		return badRequest(c, "amount must be a non-negative decimal")
	}

	ticketID, err := h.tickets.Purchase(c.Request().Context(), services.PurchaseInput{
		EventID:          req.EventID,
		UserID:           req.UserID,
		EntryID:          req.EntryID,
		PaymentReference: req.PaymentReference,
		Amount:           amount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"ticket_id": ticketID})
}

func (h *TicketHandler) GetUserTicket(c echo.Context) error {
	eventID := c.QueryParam("event_id")
	userID := c.QueryParam("user_id")
	if eventID == "" || userID == "" {
		return badRequest(c, "event_id and user_id are required")
	}

	ticket, err := h.tickets.GetUserTicketForEvent(c.Request().Context(), eventID, userID)
	if err != nil {
		return writeError(c, err)
	}
	if ticket == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) Use(c echo.Context) error {
	return h.transition(c, h.tickets.UseTicket)
}

func (h *TicketHandler) Refund(c echo.Context) error {
	return h.transition(c, h.tickets.RefundTicket)
}

func (h *TicketHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.tickets.CancelTicket)
}

func (h *TicketHandler) transition(c echo.Context, fn func(context.Context, string) error) error {
	var req struct {
		TicketID string `json:"ticket_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.TicketID == "" {
		return badRequest(c, "ticket_id is required")
	}
	if err := fn(c.Request().Context(), req.TicketID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Ticket updated"})
}
