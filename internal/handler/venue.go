package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/theater-box-office/internal/layout"
    "github.com/iliyamo/theater-box-office/internal/repository"
)

// VenueHandler serves venue management endpoints.
type VenueHandler struct {
    Venues *repository.VenueRepo
}

func NewVenueHandler(venues *repository.VenueRepo) *VenueHandler {
    return &VenueHandler{Venues: venues}
}

// Create accepts the full nested venue payload (floors, sections,
// seats) and creates everything in one transaction.  Admin only.
func (h *VenueHandler) Create(c echo.Context) error {
    var req repository.NewVenue
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    for _, f := range req.Floors {
        for _, s := range f.Sections {
            for _, seat := range s.Seats {
                if strings.TrimSpace(seat.Row) == "" || seat.Number == 0 {
                    return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat row and number required"})
                }
            }
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    id, err := h.Venues.Create(ctx, req)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List returns all venues with their derived seat counts.
func (h *VenueHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    venues, err := h.Venues.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"venues": venues})
}

// Get returns one venue with its full floor/section/seat hierarchy.
func (h *VenueHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    tree, err := h.Venues.GetTree(ctx, id)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue failed"})
    }
    return c.JSON(http.StatusOK, tree)
}

// SeatMap renders the venue's seating chart without show context: every
// active seat is shown as available and inactive seats as unavailable.
// Used while designing a venue, before any show exists.
func (h *VenueHandler) SeatMap(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    tree, err := h.Venues.GetTree(ctx, id)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue failed"})
    }

    opts := layout.Options{Selected: parseSelected(c.QueryParam("selected"))}
    floors := make([]floorResp, 0, len(tree.Floors))
    for _, f := range tree.Floors {
        sections := make([]layout.Section, 0, len(f.Sections))
        for _, sec := range f.Sections {
            ls := layout.Section{Name: sec.Name, Type: sec.Type}
            for _, seat := range sec.Seats {
                status := ""
                if !seat.IsActive {
                    status = "unavailable"
                }
                ls.Seats = append(ls.Seats, layout.Seat{
                    ID:     seat.ID,
                    Row:    seat.Row,
                    Number: seat.Number,
                    Status: status,
                })
            }
            sections = append(sections, ls)
        }
        floors = append(floors, floorResp{
            ID:     f.ID,
            Name:   f.Name,
            Level:  f.Level,
            Layout: layout.ComputeLayout(sections, opts),
        })
    }

    return c.JSON(http.StatusOK, echo.Map{
        "venue":  echo.Map{"id": tree.ID, "name": tree.Name, "address": tree.Address},
        "floors": floors,
    })
}
