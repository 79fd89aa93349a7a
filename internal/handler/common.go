// Package handler defines the HTTP handlers of the box-office API.
// Handlers bind and validate request payloads, delegate to the ticket
// engine and repositories, and translate engine error kinds into HTTP
// responses.
package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-box-office/internal/ticket"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64.  JWT numeric claims arrive as float64; other types are
// handled defensively.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getActor builds the engine Actor from the authenticated request
// context.
func getActor(c echo.Context) (ticket.Actor, error) {
    uid, err := getUserID(c)
    if err != nil {
        return ticket.Actor{}, err
    }
    role, _ := c.Get("role").(string)
    return ticket.Actor{ID: uid, Role: role}, nil
}

// pathID parses the named path parameter as a uint64.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// ticketErrorResponse translates an engine error into the HTTP response
// the API contract promises.  Unknown errors fall through to a 500.
func ticketErrorResponse(c echo.Context, err error) error {
    te := ticket.AsError(err)
    if te == nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    switch te.Kind {
    case ticket.KindNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": te.Message})
    case ticket.KindAlreadyCheckedIn:
        // The door staff needs the original check-in time and the ticket
        // snapshot to resolve the dispute at the entrance.
        body := echo.Map{"error": te.Message}
        if te.CheckedInAt != nil {
            body["checked_in_at"] = te.CheckedInAt
        }
        if te.Ticket != nil {
            body["ticket"] = te.Ticket
        }
        return c.JSON(http.StatusBadRequest, body)
    case ticket.KindInvalidTransition:
        body := echo.Map{"error": te.Message}
        if te.Ticket != nil {
            body["ticket"] = te.Ticket
        }
        return c.JSON(http.StatusBadRequest, body)
    case ticket.KindBatchMismatch, ticket.KindValidation:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": te.Message})
    case ticket.KindConstraint:
        return c.JSON(http.StatusConflict, echo.Map{"error": te.Message})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
