package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-box-office/internal/middleware"
    "github.com/iliyamo/theater-box-office/internal/model"
    "github.com/iliyamo/theater-box-office/internal/queue"
    "github.com/iliyamo/theater-box-office/internal/repository"
    "github.com/iliyamo/theater-box-office/internal/ticket"
)

// TicketHandler serves the ticket lifecycle endpoints.  Every mutation
// goes through the ticket engine; the handler's own job is request
// binding, cache invalidation and event publishing.
type TicketHandler struct {
    Engine    *ticket.Engine
    Tickets   *repository.TicketRepo
    Shows     *repository.ShowRepo
    Cache     *middleware.SeatMapCache
    Publisher *queue.Publisher
}

func NewTicketHandler(engine *ticket.Engine, tickets *repository.TicketRepo, shows *repository.ShowRepo, cache *middleware.SeatMapCache, publisher *queue.Publisher) *TicketHandler {
    return &TicketHandler{Engine: engine, Tickets: tickets, Shows: shows, Cache: cache, Publisher: publisher}
}

// holderReq carries the optional holder contact fields shared by
// reserve and sell requests.
type holderReq struct {
    HolderName  *string `json:"holder_name"`
    HolderPhone *string `json:"holder_phone"`
    HolderEmail *string `json:"holder_email"`
}

func (r holderReq) holder() ticket.Holder {
    return ticket.Holder{Name: r.HolderName, Phone: r.HolderPhone, Email: r.HolderEmail}
}

// Get returns one ticket.
func (h *TicketHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, err := h.Tickets.FindTicket(ctx, id)
    if err != nil {
        if err == ticket.ErrTicketNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load ticket failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

// Reserve moves an available ticket to reserved with holder details.
func (h *TicketHandler) Reserve(c echo.Context) error {
    return h.single(c, func(ctx context.Context, actor ticket.Actor, id uint64, req holderReq) (*model.Ticket, error) {
        return h.Engine.Reserve(ctx, actor, id, req.holder())
    }, nil)
}

// Sell moves an available or reserved ticket to sold and assigns the
// entry barcode on first sale.
func (h *TicketHandler) Sell(c echo.Context) error {
    return h.single(c, func(ctx context.Context, actor ticket.Actor, id uint64, req holderReq) (*model.Ticket, error) {
        return h.Engine.Sell(ctx, actor, id, req.holder())
    }, h.publishSold)
}

// Release returns a reserved ticket to the open pool.
func (h *TicketHandler) Release(c echo.Context) error {
    return h.single(c, func(ctx context.Context, actor ticket.Actor, id uint64, req holderReq) (*model.Ticket, error) {
        return h.Engine.Release(ctx, actor, id)
    }, nil)
}

// Cancel voids a reserved or sold ticket.
func (h *TicketHandler) Cancel(c echo.Context) error {
    return h.single(c, func(ctx context.Context, actor ticket.Actor, id uint64, req holderReq) (*model.Ticket, error) {
        return h.Engine.Cancel(ctx, actor, id)
    }, nil)
}

// Reset forces a ticket back to a blank available state.  Admin only.
func (h *TicketHandler) Reset(c echo.Context) error {
    return h.single(c, func(ctx context.Context, actor ticket.Actor, id uint64, req holderReq) (*model.Ticket, error) {
        return h.Engine.Reset(ctx, actor, id)
    }, nil)
}

type changeCategoryReq struct {
    CategoryID uint64 `json:"category_id"`
}

// ChangeCategory reassigns a ticket's price category.
func (h *TicketHandler) ChangeCategory(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req changeCategoryReq
    if err := c.Bind(&req); err != nil || req.CategoryID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "category_id required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, err := h.Engine.ChangeCategory(ctx, actor, id, req.CategoryID)
    if err != nil {
        return ticketErrorResponse(c, err)
    }
    h.Cache.Invalidate(ctx, t.ShowID)
    return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

type checkInReq struct {
    Barcode string `json:"barcode"`
}

// CheckIn admits the holder of a sold ticket exactly once, identified
// by the barcode scanned at the door.
func (h *TicketHandler) CheckIn(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req checkInReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Barcode) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "barcode required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, err := h.Engine.CheckIn(ctx, actor, strings.TrimSpace(req.Barcode))
    if err != nil {
        return ticketErrorResponse(c, err)
    }
    h.Cache.Invalidate(ctx, t.ShowID)
    h.publishCheckedIn(ctx, actor, t)
    return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

type bulkReq struct {
    TicketIDs   []uint64 `json:"ticket_ids"`
    HolderName  *string  `json:"holder_name"`
    HolderPhone *string  `json:"holder_phone"`
    HolderEmail *string  `json:"holder_email"`
}

func (r bulkReq) holder() ticket.Holder {
    return ticket.Holder{Name: r.HolderName, Phone: r.HolderPhone, Email: r.HolderEmail}
}

// BulkReserve reserves every listed ticket or none of them.
func (h *TicketHandler) BulkReserve(c echo.Context) error {
    return h.bulk(c, h.Engine.BulkReserve, nil)
}

// BulkSell sells every listed ticket or none of them.
func (h *TicketHandler) BulkSell(c echo.Context) error {
    return h.bulk(c, h.Engine.BulkSell, h.publishBulkSold)
}

// single runs a one-ticket engine operation and handles the shared
// binding, cache and response plumbing.
func (h *TicketHandler) single(
    c echo.Context,
    op func(context.Context, ticket.Actor, uint64, holderReq) (*model.Ticket, error),
    publish func(context.Context, ticket.Actor, *model.Ticket),
) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req holderReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    t, err := op(ctx, actor, id, req)
    if err != nil {
        return ticketErrorResponse(c, err)
    }
    h.Cache.Invalidate(ctx, t.ShowID)
    if publish != nil {
        publish(ctx, actor, t)
    }
    return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

// bulk runs an all-or-nothing batch operation.
func (h *TicketHandler) bulk(
    c echo.Context,
    op func(context.Context, ticket.Actor, []uint64, ticket.Holder) (int, error),
    publish func(context.Context, ticket.Actor, []uint64, ticket.Holder),
) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bulkReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.TicketIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_ids required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    count, err := op(ctx, actor, req.TicketIDs, req.holder())
    if err != nil {
        return ticketErrorResponse(c, err)
    }
    // Any ticket of the batch identifies the show for invalidation.
    if t, err := h.Tickets.FindTicket(ctx, req.TicketIDs[0]); err == nil {
        h.Cache.Invalidate(ctx, t.ShowID)
    }
    if publish != nil {
        publish(ctx, actor, req.TicketIDs, req.holder())
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": count})
}

// publishSold emits a ticket.sold event.  Publishing failures are
// already logged by the publisher and never fail the request.
func (h *TicketHandler) publishSold(ctx context.Context, actor ticket.Actor, t *model.Ticket) {
    if h.Publisher == nil {
        return
    }
    ev := queue.TicketEvent{
        Type:       queue.EventTicketSold,
        TicketID:   t.ID,
        ShowID:     t.ShowID,
        SeatID:     t.SeatID,
        ActorID:    actor.ID,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
    if t.HolderName != nil {
        ev.HolderName = *t.HolderName
    }
    if t.Barcode != nil {
        ev.Barcode = *t.Barcode
    }
    if show, err := h.Shows.GetByID(ctx, t.ShowID); err == nil {
        ev.ShowName = show.Name
    }
    _ = h.Publisher.Publish(ctx, ev)
}

func (h *TicketHandler) publishBulkSold(ctx context.Context, actor ticket.Actor, ids []uint64, holder ticket.Holder) {
    if h.Publisher == nil {
        return
    }
    ev := queue.TicketEvent{
        Type:       queue.EventTicketSold,
        ActorID:    actor.ID,
        TicketIDs:  ids,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
    if holder.Name != nil {
        ev.HolderName = *holder.Name
    }
    if t, err := h.Tickets.FindTicket(ctx, ids[0]); err == nil {
        ev.ShowID = t.ShowID
        if show, err := h.Shows.GetByID(ctx, t.ShowID); err == nil {
            ev.ShowName = show.Name
        }
    }
    _ = h.Publisher.Publish(ctx, ev)
}

func (h *TicketHandler) publishCheckedIn(ctx context.Context, actor ticket.Actor, t *model.Ticket) {
    if h.Publisher == nil {
        return
    }
    ev := queue.TicketEvent{
        Type:       queue.EventTicketCheckedIn,
        TicketID:   t.ID,
        ShowID:     t.ShowID,
        SeatID:     t.SeatID,
        ActorID:    actor.ID,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
    if t.Barcode != nil {
        ev.Barcode = *t.Barcode
    }
    if show, err := h.Shows.GetByID(ctx, t.ShowID); err == nil {
        ev.ShowName = show.Name
    }
    _ = h.Publisher.Publish(ctx, ev)
}
