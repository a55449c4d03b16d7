package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/shopspring/decimal"

	"ticket-waitlist/services"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) List(c echo.Context) error {
	events, err := h.events.ListEvents(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Get(c echo.Context) error {
	eventID := c.QueryParam("event_id")
	if eventID == "" {
		return badRequest(c, "event_id is required")
	}
	event, err := h.events.GetEvent(c.Request().Context(), eventID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Create(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		EventDate   string `json:"event_date"`
		Price       string `json:"price"`
		Capacity    int    `json:"capacity"`
		UserID      string `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.Name == "" || req.UserID == "" {
		return badRequest(c, "name and user_id are required")
	}
	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return badRequest(c, "event_date must be RFC3339")
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return badRequest(c, "price must be a decimal")
	}

	event, err := h.events.CreateEvent(c.Request().Context(), services.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		EventDate:   eventDate,
		Price:       price,
		Capacity:    req.Capacity,
		UserID:      req.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) UpdateCapacity(c echo.Context) error {
	var req struct {
		EventID  string `json:"event_id"`
		Capacity int    `json:"capacity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.EventID == "" {
		return badRequest(c, "event_id is required")
	}

	if err := h.events.UpdateCapacity(c.Request().Context(), req.EventID, req.Capacity); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Capacity updated"})
}

func (h *EventHandler) Cancel(c echo.Context) error {
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.EventID == "" {
		return badRequest(c, "event_id is required")
	}

	if err := h.events.CancelEvent(c.Request().Context(), req.EventID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Event cancelled"})
}

func (h *EventHandler) Delete(c echo.Context) error {
	var req struct {
		EventID string `json:"event_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request")
	}
	if req.EventID == "" {
		return badRequest(c, "event_id is required")
	}

	if err := h.events.DeleteEvent(c.Request().Context(), req.EventID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Event deleted"})
}
