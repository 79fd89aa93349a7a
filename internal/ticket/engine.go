// Package ticket implements the ticket lifecycle state machine: the
// rules that govern how a ticket moves between available, reserved,
// sold and cancelled, and the side effects (holder data, timestamps,
// actor attribution, barcode assignment) that accompany each move.
// The engine holds no state of its own; every operation validates its
// precondition against the persisted ticket and delegates the write to
// the Store, whose conditional updates close the race against
// concurrent box-office terminals.
package ticket

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/theater-box-office/internal/model"
)

// Actor identifies the staff member performing an operation.  It is
// passed explicitly so the engine stays free of ambient session state.
type Actor struct {
    ID   uint64
    Role string
}

// Engine executes ticket state transitions against a Store.
type Engine struct {
    store      Store
    now        func() time.Time
    newBarcode func() (string, error)
}

// NewEngine returns an Engine bound to the given store.  Timestamps are
// taken in UTC.
func NewEngine(store Store) *Engine {
    return &Engine{
        store:      store,
        now:        func() time.Time { return time.Now().UTC() },
        newBarcode: NewBarcode,
    }
}

// get loads a ticket and converts a storage miss into a NotFound error.
func (e *Engine) get(ctx context.Context, id uint64) (*model.Ticket, error) {
    t, err := e.store.FindTicket(ctx, id)
    if err != nil {
        if errors.Is(err, ErrTicketNotFound) {
            return nil, &Error{Kind: KindNotFound, Message: "ticket not found"}
        }
        return nil, err
    }
    return t, nil
}

// wrapStoreErr maps storage sentinels onto engine error kinds.
// conflictMsg is used when the conditional write lost a race, which is
// reported the same way as a precondition failure seen up front.
func wrapStoreErr(err error, conflictKind Kind, conflictMsg string) error {
    switch {
    case errors.Is(err, ErrTicketNotFound):
        return &Error{Kind: KindNotFound, Message: "ticket not found"}
    case errors.Is(err, ErrStatusConflict):
        return &Error{Kind: conflictKind, Message: conflictMsg}
    case errors.Is(err, ErrDuplicate), errors.Is(err, ErrConstraint):
        return &Error{Kind: KindConstraint, Message: "storage constraint violation", Err: err}
    }
    return err
}

// Reserve moves an available ticket to reserved, records the holder
// contact details and attributes the reservation to the actor.
func (e *Engine) Reserve(ctx context.Context, actor Actor, id uint64, holder Holder) (*model.Ticket, error) {
    t, err := e.get(ctx, id)
    if err != nil {
        return nil, err
    }
    if t.Status != model.TicketAvailable {
        return nil, &Error{Kind: KindInvalidTransition, Message: "seat not available", Ticket: t}
    }
    now := e.now()
    status := model.TicketReserved
    updated, err := e.store.UpdateTicket(ctx, id, []model.TicketStatus{model.TicketAvailable}, Patch{
        Status:     &status,
        Holder:     &holder,
        ReservedBy: &actor.ID,
        ReservedAt: &now,
    })
    if err != nil {
        return nil, wrapStoreErr(err, KindInvalidTransition, "seat not available")
    }
    return updated, nil
}

// Sell moves an available or reserved ticket to sold.  Holder fields
// from the input win field by field over whatever the ticket already
// carries; a reserved ticket keeps its existing holder when the input
// is empty.  A barcode is assigned on first sale and preserved on
// subsequent cycles through reserved.
func (e *Engine) Sell(ctx context.Context, actor Actor, id uint64, holder Holder) (*model.Ticket, error) {
    t, err := e.get(ctx, id)
    if err != nil {
        return nil, err
    }
    if t.Status != model.TicketAvailable && t.Status != model.TicketReserved {
        return nil, &Error{Kind: KindInvalidTransition, Message: "ticket cannot be sold", Ticket: t}
    }
    now := e.now()
    status := model.TicketSold
    patch := Patch{
        Status: &status,
        Holder: mergeHolder(holder, t),
        SoldBy: &actor.ID,
        SoldAt: &now,
    }
    if t.Barcode == nil {
        code, err := e.newBarcode()
        if err != nil {
            return nil, fmt.Errorf("generate barcode: %w", err)
        }
        patch.Barcode = &code
    }
    updated, err := e.store.UpdateTicket(ctx, id, []model.TicketStatus{model.TicketAvailable, model.TicketReserved}, patch)
    if err != nil {
        return nil, wrapStoreErr(err, KindInvalidTransition, "ticket cannot be sold")
    }
    return updated, nil
}

// Release returns a reserved ticket to available, clearing the holder
// contact details and the reservation attribution.
func (e *Engine) Release(ctx context.Context, actor Actor, id uint64) (*model.Ticket, error) {
    t, err := e.get(ctx, id)
    if err != nil {
        return nil, err
    }
    if t.Status != model.TicketReserved {
        return nil, &Error{Kind: KindInvalidTransition, Message: "ticket not reserved", Ticket: t}
    }
    status := model.TicketAvailable
    updated, err := e.store.UpdateTicket(ctx, id, []model.TicketStatus{model.TicketReserved}, Patch{
        Status:           &status,
        ClearHolder:      true,
        ClearReservation: true,
    })
    if err != nil {
        return nil, wrapStoreErr(err, KindInvalidTransition, "ticket not reserved")
    }
    return updated, nil
}

// Cancel voids a reserved or sold ticket.  Only the status changes;
// holder, barcode and attribution fields are retained for the audit
// trail.
func (e *Engine) Cancel(ctx context.Context, actor Actor, id uint64) (*model.Ticket, error) {
    t, err := e.get(ctx, id)
    if err != nil {
        return nil, err
    }
    if t.Status == model.TicketAvailable || t.Status == model.TicketCancelled {
        return nil, &Error{Kind: KindInvalidTransition, Message: "ticket cannot be cancelled", Ticket: t}
    }
    status := model.TicketCancelled
    updated, err := e.store.UpdateTicket(ctx, id, []model.TicketStatus{model.TicketReserved, model.TicketSold}, Patch{
        Status: &status,
    })
    if err != nil {
        return nil, wrapStoreErr(err, KindInvalidTransition, "ticket cannot be cancelled")
    }
    return updated, nil
}

// Reset forces a ticket back to available from any status, clearing
// every holder, barcode, attribution and timestamp field including the
// check-in mark.  It never rejects based on the current status.
func (e *Engine) Reset(ctx context.Context, actor Actor, id uint64) (*model.Ticket, error) {
    status := model.TicketAvailable
    updated, err := e.store.UpdateTicket(ctx, id, nil, Patch{
        Status:           &status,
        ClearHolder:      true,
        ClearBarcode:     true,
        ClearReservation: true,
        ClearSale:        true,
        ClearCheckIn:     true,
    })
    if err != nil {
        return nil, wrapStoreErr(err, KindInvalidTransition, "ticket reset failed")
    }
    return updated, nil
}

// ChangeCategory reassigns the ticket's price category and nothing
// else.  It is allowed from any status; a reference to a missing
// category surfaces as a constraint error.
func (e *Engine) ChangeCategory(ctx context.Context, actor Actor, id, categoryID uint64) (*model.Ticket, error) {
    updated, err := e.store.UpdateTicket(ctx, id, nil, Patch{CategoryID: &categoryID})
    if err != nil {
        return nil, wrapStoreErr(err, KindInvalidTransition, "category change failed")
    }
    return updated, nil
}

// CheckIn admits the holder of a sold ticket exactly once, located by
// barcode.  The failure cases return the ticket snapshot so the door
// staff can see whom they are turning away.
func (e *Engine) CheckIn(ctx context.Context, actor Actor, barcode string) (*model.Ticket, error) {
    t, err := e.store.FindTicketByBarcode(ctx, barcode)
    if err != nil {
        if errors.Is(err, ErrTicketNotFound) {
            return nil, &Error{Kind: KindNotFound, Message: "invalid barcode"}
        }
        return nil, err
    }
    if t.Status != model.TicketSold {
        return nil, &Error{Kind: KindInvalidTransition, Message: "ticket not sold", Ticket: t}
    }
    if t.CheckedInAt != nil {
        return nil, &Error{Kind: KindAlreadyCheckedIn, Message: "ticket already checked in", Ticket: t, CheckedInAt: t.CheckedInAt}
    }
    now := e.now()
    updated, err := e.store.UpdateTicket(ctx, t.ID, []model.TicketStatus{model.TicketSold}, Patch{CheckedInAt: &now})
    if err != nil {
        if errors.Is(err, ErrStatusConflict) {
            // A concurrent scan of the same barcode won; report the
            // stored check-in time rather than a bare conflict.
            if cur, ferr := e.store.FindTicket(ctx, t.ID); ferr == nil && cur.CheckedInAt != nil {
                return nil, &Error{Kind: KindAlreadyCheckedIn, Message: "ticket already checked in", Ticket: cur, CheckedInAt: cur.CheckedInAt}
            }
            return nil, &Error{Kind: KindInvalidTransition, Message: "ticket not sold"}
        }
        return nil, wrapStoreErr(err, KindInvalidTransition, "ticket not sold")
    }
    return updated, nil
}

// BulkReserve reserves every listed ticket or none of them.  All
// targets must currently be available; a single ineligible ticket
// rejects the whole batch before any write.
func (e *Engine) BulkReserve(ctx context.Context, actor Actor, ids []uint64, holder Holder) (int, error) {
    ids = dedupe(ids)
    if len(ids) == 0 {
        return 0, &Error{Kind: KindValidation, Message: "no ticket ids given"}
    }
    tickets, err := e.store.FindTickets(ctx, ids)
    if err != nil {
        return 0, err
    }
    eligible := 0
    for _, t := range tickets {
        if t.Status == model.TicketAvailable {
            eligible++
        }
    }
    if eligible != len(ids) {
        return 0, &Error{Kind: KindBatchMismatch, Message: "some seats are not available"}
    }
    now := e.now()
    status := model.TicketReserved
    err = e.store.UpdateTickets(ctx, ids, []model.TicketStatus{model.TicketAvailable}, func(model.Ticket) Patch {
        return Patch{
            Status:     &status,
            Holder:     &holder,
            ReservedBy: &actor.ID,
            ReservedAt: &now,
        }
    })
    if err != nil {
        return 0, wrapStoreErr(err, KindBatchMismatch, "some seats are not available")
    }
    return len(ids), nil
}

// BulkSell sells every listed ticket or none of them.  Each ticket
// that lacks a barcode gets its own freshly generated one; tickets
// already carrying a barcode (sold out of a reservation cycle) keep it.
func (e *Engine) BulkSell(ctx context.Context, actor Actor, ids []uint64, holder Holder) (int, error) {
    ids = dedupe(ids)
    if len(ids) == 0 {
        return 0, &Error{Kind: KindValidation, Message: "no ticket ids given"}
    }
    tickets, err := e.store.FindTickets(ctx, ids)
    if err != nil {
        return 0, err
    }
    eligible := 0
    for _, t := range tickets {
        if t.Status == model.TicketAvailable || t.Status == model.TicketReserved {
            eligible++
        }
    }
    if eligible != len(ids) {
        return 0, &Error{Kind: KindBatchMismatch, Message: "some tickets cannot be sold"}
    }
    // Pre-generate a candidate barcode per ticket; the patch callback
    // only uses it when the row still has none at write time.
    barcodes := make(map[uint64]string, len(ids))
    for _, id := range ids {
        code, err := e.newBarcode()
        if err != nil {
            return 0, fmt.Errorf("generate barcode: %w", err)
        }
        barcodes[id] = code
    }
    now := e.now()
    status := model.TicketSold
    err = e.store.UpdateTickets(ctx, ids, []model.TicketStatus{model.TicketAvailable, model.TicketReserved}, func(t model.Ticket) Patch {
        patch := Patch{
            Status: &status,
            Holder: mergeHolder(holder, &t),
            SoldBy: &actor.ID,
            SoldAt: &now,
        }
        if t.Barcode == nil {
            code := barcodes[t.ID]
            patch.Barcode = &code
        }
        return patch
    })
    if err != nil {
        return 0, wrapStoreErr(err, KindBatchMismatch, "some tickets cannot be sold")
    }
    return len(ids), nil
}

// InitializeTickets creates the ticket inventory for a show: one
// available ticket per given seat, assigned the per-seat override
// category when present or the show's first-created category otherwise.
// Seats that already have a ticket for the show are skipped, so the
// operation is idempotent and a second run reports zero created rows.
func (e *Engine) InitializeTickets(ctx context.Context, showID uint64, seatIDs []uint64, categories []model.TicketCategory, overrides map[uint64]uint64) (int, error) {
    if len(categories) == 0 {
        return 0, &Error{Kind: KindValidation, Message: "create a category first"}
    }
    defaultCategoryID := categories[0].ID
    assignments := make([]SeatAssignment, 0, len(seatIDs))
    for _, seatID := range dedupe(seatIDs) {
        catID := defaultCategoryID
        if id, ok := overrides[seatID]; ok {
            catID = id
        }
        assignments = append(assignments, SeatAssignment{SeatID: seatID, CategoryID: catID})
    }
    count, err := e.store.CreateTicketsIfAbsent(ctx, showID, assignments)
    if err != nil {
        return 0, wrapStoreErr(err, KindConstraint, "ticket initialization failed")
    }
    return count, nil
}

// mergeHolder applies the per-field fallback of the sell operation:
// an input field wins when present and non-empty, otherwise the value
// already on the ticket is kept.
func mergeHolder(in Holder, t *model.Ticket) *Holder {
    pick := func(input *string, existing *string) *string {
        if input != nil && *input != "" {
            return input
        }
        return existing
    }
    return &Holder{
        Name:  pick(in.Name, t.HolderName),
        Phone: pick(in.Phone, t.HolderPhone),
        Email: pick(in.Email, t.HolderEmail),
    }
}

// dedupe drops zero and duplicate ids while preserving order.
func dedupe(ids []uint64) []uint64 {
    seen := make(map[uint64]struct{}, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
