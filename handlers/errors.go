package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v5"

	"ticket-waitlist/status"
)

// writeError maps the engine's error taxonomy onto HTTP: conflicts are 409
// (re-query and retry), business-rule preconditions are 422, stale references
// are 404. Anything else is an internal error and is not echoed to callers.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, status.ErrAlreadyQueued),
		errors.Is(err, status.ErrNotOffered),
		errors.Is(err, status.ErrOwnershipMismatch),
		errors.Is(err, status.ErrOfferNotActive),
		errors.Is(err, status.ErrOfferExpired),
		errors.Is(err, status.ErrTicketNotTransferable):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})

	case errors.Is(err, status.ErrEventCancelled),
		errors.Is(err, status.ErrCapacityBelowSold),
		errors.Is(err, status.ErrActiveTicketsExist),
		errors.Is(err, status.ErrSoldTicketsExist),
		errors.Is(err, status.ErrInvalidCapacity),
		errors.Is(err, status.ErrInvalidPrice):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})

	case errors.Is(err, status.ErrEntryNotFound),
		errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})

	default:
		slog.Error("request failed", "path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal error",
		})
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}
