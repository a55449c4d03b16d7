package handlers

import (
	"net/http"

	"github.com/labstack/echo/v5"

	"ticket-waitlist/services"
)

type QueueHandler struct {
	waitlist *services.WaitlistService
}

func NewQueueHandler(waitlist *services.WaitlistService) *QueueHandler {
	return &QueueHandler{waitlist: waitlist}
}

func (h *QueueHandler) Join(c echo.Context) error {
	var req struct {
		EventID string `json:"event_id"`
		UserID  string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.EventID == "" || req.UserID == "" {
		return badRequest(c, "event_id and user_id are required")
	}
	// Expose the identity to the rate limiter.
	c.Set("user_id", req.UserID)

	result, err := h.waitlist.Join(c.Request().Context(), req.EventID, req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *QueueHandler) GetPosition(c echo.Context) error {
	eventID := c.QueryParam("event_id")
	userID := c.QueryParam("user_id")
	if eventID == "" || userID == "" {
		return badRequest(c, "event_id and user_id are required")
	}

	pos, err := h.waitlist.QueuePosition(c.Request().Context(), eventID, userID)
	if err != nil {
		return writeError(c, err)
	}
	if pos == nil {
		// No active entry: null, not an error.
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, pos)
}

func (h *QueueHandler) GetAvailability(c echo.Context) error {
	eventID := c.QueryParam("event_id")
	if eventID == "" {
		return badRequest(c, "event_id is required")
	}

	avail, err := h.waitlist.Availability(c.Request().Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *QueueHandler) Release(c echo.Context) error {
	var req struct {
		EntryID string `json:"entry_id"`
		UserID  string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.EntryID == "" {
		return badRequest(c, "entry_id is required")
	}

	if err := h.waitlist.ReleaseOffer(c.Request().Context(), req.EntryID, req.UserID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Offer released - returned to the waiting list",
	})
}
