package ticket

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/theater-box-office/internal/model"
)

// fakeStore is an in-memory Store that honors the conditional-update
// contract, good enough to drive the engine in tests.
type fakeStore struct {
    tickets map[uint64]*model.Ticket
    nextID  uint64
}

func newFakeStore() *fakeStore {
    return &fakeStore{tickets: make(map[uint64]*model.Ticket), nextID: 1}
}

func (s *fakeStore) add(t model.Ticket) *model.Ticket {
    if t.ID == 0 {
        t.ID = s.nextID
        s.nextID++
    } else if t.ID >= s.nextID {
        s.nextID = t.ID + 1
    }
    if t.Status == "" {
        t.Status = model.TicketAvailable
    }
    cp := t
    s.tickets[cp.ID] = &cp
    return &cp
}

func (s *fakeStore) FindTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
    t, ok := s.tickets[id]
    if !ok {
        return nil, ErrTicketNotFound
    }
    cp := *t
    return &cp, nil
}

func (s *fakeStore) FindTicketByBarcode(ctx context.Context, barcode string) (*model.Ticket, error) {
    for _, t := range s.tickets {
        if t.Barcode != nil && *t.Barcode == barcode {
            cp := *t
            return &cp, nil
        }
    }
    return nil, ErrTicketNotFound
}

func (s *fakeStore) FindTickets(ctx context.Context, ids []uint64) ([]model.Ticket, error) {
    out := make([]model.Ticket, 0, len(ids))
    for _, id := range ids {
        if t, ok := s.tickets[id]; ok {
            out = append(out, *t)
        }
    }
    return out, nil
}

func statusAllowed(status model.TicketStatus, from []model.TicketStatus) bool {
    if len(from) == 0 {
        return true
    }
    for _, f := range from {
        if status == f {
            return true
        }
    }
    return false
}

func applyPatch(t *model.Ticket, p Patch) {
    if p.Status != nil {
        t.Status = *p.Status
    }
    if p.CategoryID != nil {
        t.CategoryID = *p.CategoryID
    }
    if p.ClearHolder {
        t.HolderName, t.HolderPhone, t.HolderEmail = nil, nil, nil
    }
    if p.Holder != nil {
        t.HolderName, t.HolderPhone, t.HolderEmail = p.Holder.Name, p.Holder.Phone, p.Holder.Email
    }
    if p.ClearBarcode {
        t.Barcode = nil
    }
    if p.Barcode != nil {
        t.Barcode = p.Barcode
    }
    if p.ClearReservation {
        t.ReservedByID, t.ReservedAt = nil, nil
    }
    if p.ReservedBy != nil {
        t.ReservedByID = p.ReservedBy
    }
    if p.ReservedAt != nil {
        t.ReservedAt = p.ReservedAt
    }
    if p.ClearSale {
        t.SoldByID, t.SoldAt = nil, nil
    }
    if p.SoldBy != nil {
        t.SoldByID = p.SoldBy
    }
    if p.SoldAt != nil {
        t.SoldAt = p.SoldAt
    }
    if p.ClearCheckIn {
        t.CheckedInAt = nil
    }
    if p.CheckedInAt != nil && t.CheckedInAt == nil {
        t.CheckedInAt = p.CheckedInAt
    }
}

func (s *fakeStore) UpdateTicket(ctx context.Context, id uint64, from []model.TicketStatus, patch Patch) (*model.Ticket, error) {
    t, ok := s.tickets[id]
    if !ok {
        return nil, ErrTicketNotFound
    }
    if !statusAllowed(t.Status, from) {
        return nil, ErrStatusConflict
    }
    if patch.CheckedInAt != nil && t.CheckedInAt != nil {
        return nil, ErrStatusConflict
    }
    applyPatch(t, patch)
    cp := *t
    return &cp, nil
}

func (s *fakeStore) UpdateTickets(ctx context.Context, ids []uint64, from []model.TicketStatus, patch func(model.Ticket) Patch) error {
    for _, id := range ids {
        t, ok := s.tickets[id]
        if !ok {
            return ErrTicketNotFound
        }
        if !statusAllowed(t.Status, from) {
            return ErrStatusConflict
        }
    }
    for _, id := range ids {
        t := s.tickets[id]
        applyPatch(t, patch(*t))
    }
    return nil
}

func (s *fakeStore) CreateTicketsIfAbsent(ctx context.Context, showID uint64, assignments []SeatAssignment) (int, error) {
    existing := make(map[uint64]bool)
    for _, t := range s.tickets {
        if t.ShowID == showID {
            existing[t.SeatID] = true
        }
    }
    created := 0
    for _, a := range assignments {
        if existing[a.SeatID] {
            continue
        }
        s.add(model.Ticket{ShowID: showID, SeatID: a.SeatID, CategoryID: a.CategoryID, Status: model.TicketAvailable})
        created++
    }
    return created, nil
}

func strPtr(s string) *string { return &s }

func newTestEngine(store *fakeStore) *Engine {
    e := NewEngine(store)
    base := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
    e.now = func() time.Time { return base }
    return e
}

var agent = Actor{ID: 7, Role: "agent"}

func TestReserveAvailableTicket(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    e := newTestEngine(store)

    got, err := e.Reserve(context.Background(), agent, tk.ID, Holder{Name: strPtr("Ada"), Phone: strPtr("555-0101")})
    require.NoError(t, err)
    assert.Equal(t, model.TicketReserved, got.Status)
    require.NotNil(t, got.HolderName)
    assert.Equal(t, "Ada", *got.HolderName)
    require.NotNil(t, got.ReservedByID)
    assert.Equal(t, agent.ID, *got.ReservedByID)
    assert.NotNil(t, got.ReservedAt)
}

func TestReserveRejectsNonAvailable(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10, Status: model.TicketSold})
    e := newTestEngine(store)

    _, err := e.Reserve(context.Background(), agent, tk.ID, Holder{})
    require.Error(t, err)
    assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestReserveMissingTicket(t *testing.T) {
    e := newTestEngine(newFakeStore())

    _, err := e.Reserve(context.Background(), agent, 999, Holder{})
    require.Error(t, err)
    assert.Equal(t, KindNotFound, KindOf(err))
}

func TestSellAvailableAssignsBarcode(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    e := newTestEngine(store)

    got, err := e.Sell(context.Background(), agent, tk.ID, Holder{Name: strPtr("Ada")})
    require.NoError(t, err)
    assert.Equal(t, model.TicketSold, got.Status)
    require.NotNil(t, got.Barcode)
    assert.Regexp(t, `^SB-[0-9A-F]{12}$`, *got.Barcode)
    require.NotNil(t, got.SoldByID)
    assert.Equal(t, agent.ID, *got.SoldByID)
}

func TestSellReservedKeepsHolderAndBarcode(t *testing.T) {
    store := newFakeStore()
    code := "SB-AAAAAAAAAAAA"
    tk := store.add(model.Ticket{
        ShowID:      1,
        SeatID:      10,
        Status:      model.TicketReserved,
        HolderName:  strPtr("Ada"),
        HolderPhone: strPtr("555-0101"),
        Barcode:     &code,
    })
    e := newTestEngine(store)

    // Only the email is supplied at sale time; name and phone fall back
    // to the reservation values and the barcode survives.
    got, err := e.Sell(context.Background(), agent, tk.ID, Holder{Email: strPtr("ada@example.com")})
    require.NoError(t, err)
    assert.Equal(t, model.TicketSold, got.Status)
    assert.Equal(t, "Ada", *got.HolderName)
    assert.Equal(t, "555-0101", *got.HolderPhone)
    assert.Equal(t, "ada@example.com", *got.HolderEmail)
    assert.Equal(t, code, *got.Barcode)
}

func TestSellRejectsCancelled(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10, Status: model.TicketCancelled})
    e := newTestEngine(store)

    _, err := e.Sell(context.Background(), agent, tk.ID, Holder{})
    require.Error(t, err)
    assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestReleaseClearsHolder(t *testing.T) {
    store := newFakeStore()
    now := time.Now()
    tk := store.add(model.Ticket{
        ShowID:       1,
        SeatID:       10,
        Status:       model.TicketReserved,
        HolderName:   strPtr("Ada"),
        ReservedByID: &agent.ID,
        ReservedAt:   &now,
    })
    e := newTestEngine(store)

    got, err := e.Release(context.Background(), agent, tk.ID)
    require.NoError(t, err)
    assert.Equal(t, model.TicketAvailable, got.Status)
    assert.Nil(t, got.HolderName)
    assert.Nil(t, got.ReservedByID)
    assert.Nil(t, got.ReservedAt)
}

func TestReleaseRejectsSold(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10, Status: model.TicketSold})
    e := newTestEngine(store)

    _, err := e.Release(context.Background(), agent, tk.ID)
    require.Error(t, err)
    assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestCancelKeepsHolderData(t *testing.T) {
    store := newFakeStore()
    code := "SB-BBBBBBBBBBBB"
    tk := store.add(model.Ticket{
        ShowID:     1,
        SeatID:     10,
        Status:     model.TicketSold,
        HolderName: strPtr("Ada"),
        Barcode:    &code,
    })
    e := newTestEngine(store)

    got, err := e.Cancel(context.Background(), agent, tk.ID)
    require.NoError(t, err)
    assert.Equal(t, model.TicketCancelled, got.Status)
    assert.Equal(t, "Ada", *got.HolderName)
    assert.Equal(t, code, *got.Barcode)
}

func TestCancelRejectsAvailable(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    e := newTestEngine(store)

    _, err := e.Cancel(context.Background(), agent, tk.ID)
    require.Error(t, err)
    assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestResetClearsEverything(t *testing.T) {
    store := newFakeStore()
    now := time.Now()
    code := "SB-CCCCCCCCCCCC"
    tk := store.add(model.Ticket{
        ShowID:      1,
        SeatID:      10,
        Status:      model.TicketSold,
        HolderName:  strPtr("Ada"),
        HolderEmail: strPtr("ada@example.com"),
        Barcode:     &code,
        SoldByID:    &agent.ID,
        SoldAt:      &now,
        CheckedInAt: &now,
    })
    e := newTestEngine(store)

    got, err := e.Reset(context.Background(), agent, tk.ID)
    require.NoError(t, err)
    assert.Equal(t, model.TicketAvailable, got.Status)
    assert.Nil(t, got.HolderName)
    assert.Nil(t, got.HolderEmail)
    assert.Nil(t, got.Barcode)
    assert.Nil(t, got.SoldByID)
    assert.Nil(t, got.SoldAt)
    assert.Nil(t, got.CheckedInAt)
}

func TestChangeCategoryAnyStatus(t *testing.T) {
    store := newFakeStore()
    tk := store.add(model.Ticket{ShowID: 1, SeatID: 10, CategoryID: 1, Status: model.TicketSold})
    e := newTestEngine(store)

    got, err := e.ChangeCategory(context.Background(), agent, tk.ID, 2)
    require.NoError(t, err)
    assert.Equal(t, uint64(2), got.CategoryID)
    assert.Equal(t, model.TicketSold, got.Status)
}

func TestCheckInSoldTicket(t *testing.T) {
    store := newFakeStore()
    code := "SB-DDDDDDDDDDDD"
    store.add(model.Ticket{ShowID: 1, SeatID: 10, Status: model.TicketSold, Barcode: &code})
    e := newTestEngine(store)

    got, err := e.CheckIn(context.Background(), agent, code)
    require.NoError(t, err)
    require.NotNil(t, got.CheckedInAt)
}

func TestCheckInInvalidBarcode(t *testing.T) {
    e := newTestEngine(newFakeStore())

    _, err := e.CheckIn(context.Background(), agent, "SB-000000000000")
    require.Error(t, err)
    assert.Equal(t, KindNotFound, KindOf(err))
    assert.EqualError(t, err, "invalid barcode")
}

func TestCheckInUnsoldTicket(t *testing.T) {
    store := newFakeStore()
    code := "SB-EEEEEEEEEEEE"
    store.add(model.Ticket{ShowID: 1, SeatID: 10, Status: model.TicketReserved, Barcode: &code})
    e := newTestEngine(store)

    _, err := e.CheckIn(context.Background(), agent, code)
    require.Error(t, err)
    te := AsError(err)
    require.NotNil(t, te)
    assert.Equal(t, KindInvalidTransition, te.Kind)
    require.NotNil(t, te.Ticket)
    assert.Equal(t, model.TicketReserved, te.Ticket.Status)
}

func TestCheckInTwiceReportsFirstTime(t *testing.T) {
    store := newFakeStore()
    code := "SB-FFFFFFFFFFFF"
    store.add(model.Ticket{ShowID: 1, SeatID: 10, Status: model.TicketSold, Barcode: &code})
    e := newTestEngine(store)

    first, err := e.CheckIn(context.Background(), agent, code)
    require.NoError(t, err)

    _, err = e.CheckIn(context.Background(), agent, code)
    require.Error(t, err)
    te := AsError(err)
    require.NotNil(t, te)
    assert.Equal(t, KindAlreadyCheckedIn, te.Kind)
    require.NotNil(t, te.CheckedInAt)
    assert.Equal(t, *first.CheckedInAt, *te.CheckedInAt)
}

func TestBulkReserveAllOrNothing(t *testing.T) {
    store := newFakeStore()
    t1 := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    t2 := store.add(model.Ticket{ShowID: 1, SeatID: 11, Status: model.TicketSold})
    e := newTestEngine(store)

    _, err := e.BulkReserve(context.Background(), agent, []uint64{t1.ID, t2.ID}, Holder{Name: strPtr("Ada")})
    require.Error(t, err)
    assert.Equal(t, KindBatchMismatch, KindOf(err))

    // The eligible ticket was left untouched.
    cur, err := store.FindTicket(context.Background(), t1.ID)
    require.NoError(t, err)
    assert.Equal(t, model.TicketAvailable, cur.Status)
}

func TestBulkReserveSuccess(t *testing.T) {
    store := newFakeStore()
    t1 := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    t2 := store.add(model.Ticket{ShowID: 1, SeatID: 11})
    e := newTestEngine(store)

    n, err := e.BulkReserve(context.Background(), agent, []uint64{t1.ID, t2.ID, t1.ID}, Holder{Name: strPtr("Ada")})
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    for _, id := range []uint64{t1.ID, t2.ID} {
        cur, err := store.FindTicket(context.Background(), id)
        require.NoError(t, err)
        assert.Equal(t, model.TicketReserved, cur.Status)
        assert.Equal(t, "Ada", *cur.HolderName)
    }
}

func TestBulkReserveMissingTicket(t *testing.T) {
    store := newFakeStore()
    t1 := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    e := newTestEngine(store)

    _, err := e.BulkReserve(context.Background(), agent, []uint64{t1.ID, 999}, Holder{})
    require.Error(t, err)
    assert.Equal(t, KindBatchMismatch, KindOf(err))
}

func TestBulkSellMixedStatuses(t *testing.T) {
    store := newFakeStore()
    code := "SB-AAAAAAAAAAAA"
    t1 := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    t2 := store.add(model.Ticket{
        ShowID:     1,
        SeatID:     11,
        Status:     model.TicketReserved,
        HolderName: strPtr("Ada"),
        Barcode:    &code,
    })
    e := newTestEngine(store)

    n, err := e.BulkSell(context.Background(), agent, []uint64{t1.ID, t2.ID}, Holder{Name: strPtr("Grace")})
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    c1, _ := store.FindTicket(context.Background(), t1.ID)
    assert.Equal(t, model.TicketSold, c1.Status)
    require.NotNil(t, c1.Barcode)
    assert.Regexp(t, `^SB-[0-9A-F]{12}$`, *c1.Barcode)
    assert.Equal(t, "Grace", *c1.HolderName)

    c2, _ := store.FindTicket(context.Background(), t2.ID)
    assert.Equal(t, model.TicketSold, c2.Status)
    assert.Equal(t, code, *c2.Barcode)
    assert.Equal(t, "Grace", *c2.HolderName)
}

func TestBulkSellDistinctBarcodes(t *testing.T) {
    store := newFakeStore()
    t1 := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    t2 := store.add(model.Ticket{ShowID: 1, SeatID: 11})
    e := newTestEngine(store)

    _, err := e.BulkSell(context.Background(), agent, []uint64{t1.ID, t2.ID}, Holder{})
    require.NoError(t, err)

    c1, _ := store.FindTicket(context.Background(), t1.ID)
    c2, _ := store.FindTicket(context.Background(), t2.ID)
    require.NotNil(t, c1.Barcode)
    require.NotNil(t, c2.Barcode)
    assert.NotEqual(t, *c1.Barcode, *c2.Barcode)
}

func TestBulkSellRejectsCancelled(t *testing.T) {
    store := newFakeStore()
    t1 := store.add(model.Ticket{ShowID: 1, SeatID: 10})
    t2 := store.add(model.Ticket{ShowID: 1, SeatID: 11, Status: model.TicketCancelled})
    e := newTestEngine(store)

    _, err := e.BulkSell(context.Background(), agent, []uint64{t1.ID, t2.ID}, Holder{})
    require.Error(t, err)
    assert.Equal(t, KindBatchMismatch, KindOf(err))
}

func TestInitializeTicketsDefaultsAndOverrides(t *testing.T) {
    store := newFakeStore()
    e := newTestEngine(store)
    cats := []model.TicketCategory{{ID: 3, ShowID: 1, Name: "Parkett"}, {ID: 4, ShowID: 1, Name: "Loge"}}

    n, err := e.InitializeTickets(context.Background(), 1, []uint64{10, 11, 12}, cats, map[uint64]uint64{11: 4})
    require.NoError(t, err)
    assert.Equal(t, 3, n)

    byCat := make(map[uint64]uint64)
    for _, tk := range store.tickets {
        byCat[tk.SeatID] = tk.CategoryID
        assert.Equal(t, model.TicketAvailable, tk.Status)
    }
    assert.Equal(t, uint64(3), byCat[10])
    assert.Equal(t, uint64(4), byCat[11])
    assert.Equal(t, uint64(3), byCat[12])
}

func TestInitializeTicketsIdempotent(t *testing.T) {
    store := newFakeStore()
    e := newTestEngine(store)
    cats := []model.TicketCategory{{ID: 3, ShowID: 1, Name: "Parkett"}}

    n, err := e.InitializeTickets(context.Background(), 1, []uint64{10, 11}, cats, nil)
    require.NoError(t, err)
    assert.Equal(t, 2, n)

    n, err = e.InitializeTickets(context.Background(), 1, []uint64{10, 11, 12}, cats, nil)
    require.NoError(t, err)
    assert.Equal(t, 1, n)
}

func TestInitializeTicketsRequiresCategory(t *testing.T) {
    e := newTestEngine(newFakeStore())

    _, err := e.InitializeTickets(context.Background(), 1, []uint64{10}, nil, nil)
    require.Error(t, err)
    assert.Equal(t, KindValidation, KindOf(err))
    assert.EqualError(t, err, "create a category first")
}

func TestNewBarcodeFormat(t *testing.T) {
    seen := make(map[string]bool)
    for i := 0; i < 100; i++ {
        code, err := NewBarcode()
        require.NoError(t, err)
        assert.Regexp(t, `^SB-[0-9A-F]{12}$`, code)
        assert.False(t, seen[code])
        seen[code] = true
    }
}
