package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/theater-box-office/internal/model"
    "github.com/iliyamo/theater-box-office/internal/ticket"
)

// memStore is a minimal in-memory ticket.Store for handler tests.
type memStore struct {
    tickets map[uint64]*model.Ticket
}

func newMemStore(tickets ...model.Ticket) *memStore {
    s := &memStore{tickets: make(map[uint64]*model.Ticket)}
    for _, t := range tickets {
        cp := t
        s.tickets[cp.ID] = &cp
    }
    return s
}

func (s *memStore) FindTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
    t, ok := s.tickets[id]
    if !ok {
        return nil, ticket.ErrTicketNotFound
    }
    cp := *t
    return &cp, nil
}

func (s *memStore) FindTicketByBarcode(ctx context.Context, barcode string) (*model.Ticket, error) {
    for _, t := range s.tickets {
        if t.Barcode != nil && *t.Barcode == barcode {
            cp := *t
            return &cp, nil
        }
    }
    return nil, ticket.ErrTicketNotFound
}

func (s *memStore) FindTickets(ctx context.Context, ids []uint64) ([]model.Ticket, error) {
    out := make([]model.Ticket, 0, len(ids))
    for _, id := range ids {
        if t, ok := s.tickets[id]; ok {
            out = append(out, *t)
        }
    }
    return out, nil
}

func (s *memStore) UpdateTicket(ctx context.Context, id uint64, from []model.TicketStatus, patch ticket.Patch) (*model.Ticket, error) {
    t, ok := s.tickets[id]
    if !ok {
        return nil, ticket.ErrTicketNotFound
    }
    if len(from) > 0 {
        allowed := false
        for _, f := range from {
            if t.Status == f {
                allowed = true
            }
        }
        if !allowed {
            return nil, ticket.ErrStatusConflict
        }
    }
    if patch.Status != nil {
        t.Status = *patch.Status
    }
    if patch.Holder != nil {
        t.HolderName, t.HolderPhone, t.HolderEmail = patch.Holder.Name, patch.Holder.Phone, patch.Holder.Email
    }
    if patch.Barcode != nil {
        t.Barcode = patch.Barcode
    }
    if patch.ReservedBy != nil {
        t.ReservedByID = patch.ReservedBy
    }
    if patch.ReservedAt != nil {
        t.ReservedAt = patch.ReservedAt
    }
    if patch.CheckedInAt != nil && t.CheckedInAt == nil {
        t.CheckedInAt = patch.CheckedInAt
    }
    cp := *t
    return &cp, nil
}

func (s *memStore) UpdateTickets(ctx context.Context, ids []uint64, from []model.TicketStatus, patch func(model.Ticket) ticket.Patch) error {
    for _, id := range ids {
        if _, err := s.UpdateTicket(ctx, id, from, patch(*s.tickets[id])); err != nil {
            return err
        }
    }
    return nil
}

func (s *memStore) CreateTicketsIfAbsent(ctx context.Context, showID uint64, assignments []ticket.SeatAssignment) (int, error) {
    return 0, nil
}

func newTicketRequest(t *testing.T, h *TicketHandler, method, path, body string, paramID string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", float64(7)) // JWT numeric claims decode as float64
    c.Set("role", "agent")
    if paramID != "" {
        c.SetParamNames("id")
        c.SetParamValues(paramID)
    }
    return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
    t.Helper()
    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    return body
}

func TestReserveEndpoint(t *testing.T) {
    store := newMemStore(model.Ticket{ID: 1, ShowID: 5, SeatID: 10, Status: model.TicketAvailable})
    h := NewTicketHandler(ticket.NewEngine(store), nil, nil, nil, nil)

    c, rec := newTicketRequest(t, h, http.MethodPut, "/v1/tickets/1/reserve", `{"holder_name":"Ada","holder_phone":"555-0101"}`, "1")
    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    body := decodeBody(t, rec)
    tk, ok := body["ticket"].(map[string]interface{})
    require.True(t, ok)
    assert.Equal(t, "reserved", tk["status"])
    assert.Equal(t, "Ada", tk["holder_name"])
    assert.Equal(t, float64(7), tk["reserved_by_id"])
}

func TestReserveRejectsSoldTicket(t *testing.T) {
    store := newMemStore(model.Ticket{ID: 1, ShowID: 5, SeatID: 10, Status: model.TicketSold})
    h := NewTicketHandler(ticket.NewEngine(store), nil, nil, nil, nil)

    c, rec := newTicketRequest(t, h, http.MethodPut, "/v1/tickets/1/reserve", `{}`, "1")
    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "seat not available", decodeBody(t, rec)["error"])
}

func TestReserveUnknownTicket(t *testing.T) {
    h := NewTicketHandler(ticket.NewEngine(newMemStore()), nil, nil, nil, nil)

    c, rec := newTicketRequest(t, h, http.MethodPut, "/v1/tickets/99/reserve", `{}`, "99")
    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveRequiresIdentity(t *testing.T) {
    h := NewTicketHandler(ticket.NewEngine(newMemStore()), nil, nil, nil, nil)

    e := echo.New()
    req := httptest.NewRequest(http.MethodPut, "/v1/tickets/1/reserve", strings.NewReader(`{}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues("1")

    require.NoError(t, h.Reserve(c))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckInInvalidBarcode(t *testing.T) {
    h := NewTicketHandler(ticket.NewEngine(newMemStore()), nil, nil, nil, nil)

    c, rec := newTicketRequest(t, h, http.MethodPost, "/v1/tickets/checkin", `{"barcode":"SB-000000000000"}`, "")
    require.NoError(t, h.CheckIn(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "invalid barcode", decodeBody(t, rec)["error"])
}

func TestCheckInAlreadyUsedBarcode(t *testing.T) {
    code := "SB-AAAAAAAAAAAA"
    checkedIn := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
    store := newMemStore(model.Ticket{
        ID: 1, ShowID: 5, SeatID: 10,
        Status: model.TicketSold, Barcode: &code, CheckedInAt: &checkedIn,
    })
    h := NewTicketHandler(ticket.NewEngine(store), nil, nil, nil, nil)

    c, rec := newTicketRequest(t, h, http.MethodPost, "/v1/tickets/checkin", `{"barcode":"SB-AAAAAAAAAAAA"}`, "")
    require.NoError(t, h.CheckIn(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    body := decodeBody(t, rec)
    assert.Equal(t, "ticket already checked in", body["error"])
    assert.NotEmpty(t, body["checked_in_at"])
    assert.NotNil(t, body["ticket"])
}

func TestChangeCategoryRequiresCategoryID(t *testing.T) {
    store := newMemStore(model.Ticket{ID: 1, ShowID: 5, SeatID: 10, Status: model.TicketAvailable})
    h := NewTicketHandler(ticket.NewEngine(store), nil, nil, nil, nil)

    c, rec := newTicketRequest(t, h, http.MethodPut, "/v1/tickets/1/category", `{}`, "1")
    require.NoError(t, h.ChangeCategory(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
