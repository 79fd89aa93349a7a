package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-box-office/internal/layout"
    "github.com/iliyamo/theater-box-office/internal/middleware"
    "github.com/iliyamo/theater-box-office/internal/model"
    "github.com/iliyamo/theater-box-office/internal/repository"
    "github.com/iliyamo/theater-box-office/internal/ticket"
)

// ShowHandler serves show, category, inventory and seat-map endpoints.
type ShowHandler struct {
    Shows   *repository.ShowRepo
    Venues  *repository.VenueRepo
    Tickets *repository.TicketRepo
    Engine  *ticket.Engine
    Cache   *middleware.SeatMapCache
}

func NewShowHandler(shows *repository.ShowRepo, venues *repository.VenueRepo, tickets *repository.TicketRepo, engine *ticket.Engine, cache *middleware.SeatMapCache) *ShowHandler {
    return &ShowHandler{Shows: shows, Venues: venues, Tickets: tickets, Engine: engine, Cache: cache}
}

var showStatuses = map[string]bool{
    "upcoming":  true,
    "ongoing":   true,
    "completed": true,
    "cancelled": true,
}

type createShowReq struct {
    VenueID     uint64  `json:"venue_id"`
    Name        string  `json:"name"`
    Description *string `json:"description"`
    Date        string  `json:"date"` // RFC3339
}

// Create schedules a show at a venue.  Admin only.
func (h *ShowHandler) Create(c echo.Context) error {
    var req createShowReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.VenueID == 0 || req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id and name required"})
    }
    date, err := time.Parse(time.RFC3339, req.Date)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be RFC3339"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Shows.Create(ctx, req.VenueID, req.Name, req.Description, date, "upcoming")
    if err != nil {
        if err == ticket.ErrConstraint {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List returns shows, optionally filtered by ?venue_id=.
func (h *ShowHandler) List(c echo.Context) error {
    var venueID uint64
    if v := c.QueryParam("venue_id"); v != "" {
        n, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue_id"})
        }
        venueID = n
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    shows, err := h.Shows.ListByVenue(ctx, venueID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list shows failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// Get returns one show.
func (h *ShowHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    show, err := h.Shows.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load show failed"})
    }
    return c.JSON(http.StatusOK, show)
}

type updateStatusReq struct {
    Status string `json:"status"`
}

// UpdateStatus sets the informational show status.  Admin only.
func (h *ShowHandler) UpdateStatus(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var req updateStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if !showStatuses[req.Status] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Shows.UpdateStatus(ctx, id, req.Status); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update show failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
}

type createCategoryReq struct {
    Name        string  `json:"name"`
    Price       float64 `json:"price"`
    Color       *string `json:"color"`
    TextColor   *string `json:"text_color"`
    Description *string `json:"description"`
}

// CreateCategory adds a price category to a show.  Admin only.
func (h *ShowHandler) CreateCategory(c echo.Context) error {
    showID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var req createCategoryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    if req.Price < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Shows.CreateCategory(ctx, model.TicketCategory{
        ShowID:      showID,
        Name:        req.Name,
        Price:       req.Price,
        Color:       req.Color,
        TextColor:   req.TextColor,
        Description: req.Description,
    })
    if err != nil {
        if err == ticket.ErrConstraint {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create category failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateCategory rewrites a category of a show.  Admin only.
func (h *ShowHandler) UpdateCategory(c echo.Context) error {
    showID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    catID, err := pathID(c, "catId")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    var req createCategoryReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    if req.Price < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Shows.UpdateCategory(ctx, model.TicketCategory{
        ID:          catID,
        ShowID:      showID,
        Name:        req.Name,
        Price:       req.Price,
        Color:       req.Color,
        TextColor:   req.TextColor,
        Description: req.Description,
    })
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update category failed"})
    }
    // Category colors feed the rendered seat map.
    h.Cache.Invalidate(ctx, showID)
    return c.JSON(http.StatusOK, echo.Map{"id": catID})
}

// ListTickets returns the flat ticket list of a show ordered by seat.
func (h *ShowHandler) ListTickets(c echo.Context) error {
    showID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if _, err := h.Shows.GetByID(ctx, showID); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load show failed"})
    }
    tickets, err := h.Tickets.ListByShow(ctx, showID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tickets failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// ListCategories returns the categories of a show in creation order.
func (h *ShowHandler) ListCategories(c echo.Context) error {
    showID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    cats, err := h.Shows.ListCategories(ctx, showID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list categories failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}

type initializeTicketsReq struct {
    CategoryOverrides map[uint64]uint64 `json:"category_overrides"` // seat_id -> category_id
}

// InitializeTickets creates the ticket inventory for a show: one
// available ticket per active seat of the venue, assigned the show's
// first category unless overridden per seat.  The operation is
// idempotent; rerunning it only fills gaps and reports the number of
// tickets created.  Admin only.
func (h *ShowHandler) InitializeTickets(c echo.Context) error {
    showID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    var req initializeTicketsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    show, err := h.Shows.GetByID(ctx, showID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load show failed"})
    }
    cats, err := h.Shows.ListCategories(ctx, showID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list categories failed"})
    }
    seats, err := h.Venues.ActiveSeats(ctx, show.VenueID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seats failed"})
    }
    seatIDs := make([]uint64, 0, len(seats))
    for _, s := range seats {
        seatIDs = append(seatIDs, s.SeatID)
    }

    created, err := h.Engine.InitializeTickets(ctx, showID, seatIDs, cats, req.CategoryOverrides)
    if err != nil {
        return ticketErrorResponse(c, err)
    }
    h.Cache.Invalidate(ctx, showID)
    return c.JSON(http.StatusOK, echo.Map{"created": created})
}

// SeatMap renders the seating chart for a show: every floor of the
// venue laid out by the layout engine with each seat carrying its
// ticket status and category colors.  Seat IDs listed in ?selected=
// (comma-separated) are marked selected.
func (h *ShowHandler) SeatMap(c echo.Context) error {
    showID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    show, err := h.Shows.GetByID(ctx, showID)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load show failed"})
    }
    seats, err := h.Venues.ActiveSeats(ctx, show.VenueID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load seats failed"})
    }
    tickets, err := h.Tickets.ListByShow(ctx, showID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tickets failed"})
    }
    cats, err := h.Shows.ListCategories(ctx, showID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list categories failed"})
    }

    opts := layout.Options{Selected: parseSelected(c.QueryParam("selected"))}
    floors := buildFloors(seats, tickets, cats, opts)

    return c.JSON(http.StatusOK, echo.Map{
        "show":       show,
        "categories": cats,
        "floors":     floors,
    })
}

// parseSelected parses a comma-separated list of seat IDs.
func parseSelected(raw string) map[uint64]bool {
    if raw == "" {
        return nil
    }
    sel := make(map[uint64]bool)
    for _, part := range strings.Split(raw, ",") {
        if n, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64); err == nil && n != 0 {
            sel[n] = true
        }
    }
    return sel
}

// floorResp is one floor of the seat map.
type floorResp struct {
    ID     uint64       `json:"id"`
    Name   string       `json:"name"`
    Level  int32        `json:"level"`
    Layout layout.Model `json:"layout"`
}

// buildFloors groups the venue's seats by floor, attaches ticket status
// and category colors, and runs each floor through the layout engine.
// Seats without a ticket (added after initialization) render as
// unavailable.
func buildFloors(seats []repository.VenueSeat, tickets []model.Ticket, cats []model.TicketCategory, opts layout.Options) []floorResp {
    bySeat := make(map[uint64]*model.Ticket, len(tickets))
    for i := range tickets {
        bySeat[tickets[i].SeatID] = &tickets[i]
    }
    catColors := make(map[uint64][2]string, len(cats))
    for _, cat := range cats {
        var colors [2]string
        if cat.Color != nil {
            colors[0] = *cat.Color
        }
        if cat.TextColor != nil {
            colors[1] = *cat.TextColor
        }
        catColors[cat.ID] = colors
    }

    floors := make([]floorResp, 0)
    floorIdx := make(map[uint64]int)
    sectionIdx := make(map[uint64]int)
    sectionsPerFloor := make(map[uint64][]layout.Section)
    floorOrder := make([]uint64, 0)

    for _, s := range seats {
        if _, ok := floorIdx[s.FloorID]; !ok {
            floorIdx[s.FloorID] = len(floors)
            floorOrder = append(floorOrder, s.FloorID)
            floors = append(floors, floorResp{ID: s.FloorID, Name: s.FloorName, Level: s.FloorLevel})
        }
        ls := layout.Seat{ID: s.SeatID, Row: s.Row, Number: s.Number, Status: "unavailable"}
        if t := bySeat[s.SeatID]; t != nil {
            ls.TicketID = t.ID
            ls.Status = string(t.Status)
            colors := catColors[t.CategoryID]
            ls.CategoryColor = colors[0]
            ls.CategoryTextColor = colors[1]
        }
        si, ok := sectionIdx[s.SectionID]
        if !ok {
            si = len(sectionsPerFloor[s.FloorID])
            sectionIdx[s.SectionID] = si
            sectionsPerFloor[s.FloorID] = append(sectionsPerFloor[s.FloorID], layout.Section{
                Name: s.SectionName,
                Type: s.SectionType,
            })
        }
        secs := sectionsPerFloor[s.FloorID]
        secs[si].Seats = append(secs[si].Seats, ls)
        sectionsPerFloor[s.FloorID] = secs
    }

    for _, fid := range floorOrder {
        fi := floorIdx[fid]
        floors[fi].Layout = layout.ComputeLayout(sectionsPerFloor[fid], opts)
    }
    return floors
}
