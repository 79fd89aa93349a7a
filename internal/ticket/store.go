package ticket

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/theater-box-office/internal/model"
)

// Sentinel errors the Store contract requires.  The repository layer
// maps its database failures onto these so the engine can classify them
// without knowing the storage technology.
var (
    // ErrTicketNotFound is returned by lookups that miss.
    ErrTicketNotFound = errors.New("ticket not found")
    // ErrStatusConflict is returned by a conditional update whose
    // status precondition no longer held at write time, meaning a
    // concurrent operation won the race.
    ErrStatusConflict = errors.New("ticket status conflict")
    // ErrDuplicate is returned when a unique constraint (barcode, or
    // show/seat pair) rejects a write.
    ErrDuplicate = errors.New("duplicate value")
    // ErrConstraint is returned for other storage constraint
    // violations, such as a foreign key to a missing category.
    ErrConstraint = errors.New("constraint violation")
)

// Holder carries the three holder contact fields.  A nil field leaves
// the corresponding column untouched where the operation contract says
// existing values are retained.
type Holder struct {
    Name  *string
    Phone *string
    Email *string
}

// Patch describes a partial ticket update.  Nil pointer fields are left
// unchanged; the Clear flags null out their field group explicitly.
// A patch that sets CheckedInAt must only be applied while the stored
// checked_in_at is still NULL, so check-in happens at most once even
// under concurrent scans of the same barcode.
type Patch struct {
    Status     *model.TicketStatus
    CategoryID *uint64

    Holder      *Holder // replaces the holder fields when non-nil
    ClearHolder bool

    Barcode      *string
    ClearBarcode bool

    ReservedBy       *uint64
    ReservedAt       *time.Time
    ClearReservation bool // nulls reserved_by_id and reserved_at

    SoldBy    *uint64
    SoldAt    *time.Time
    ClearSale bool // nulls sold_by_id and sold_at

    CheckedInAt  *time.Time
    ClearCheckIn bool
}

// SeatAssignment pairs a seat with the category its ticket should get
// during inventory initialization.
type SeatAssignment struct {
    SeatID     uint64
    CategoryID uint64
}

// Store is the persistence contract of the engine.  Implementations
// must guarantee that the status precondition of a conditional update
// and the update itself are evaluated against one consistent snapshot:
// two concurrent reserves of the same available ticket must produce
// exactly one success and one ErrStatusConflict.  UpdateTickets extends
// the same guarantee across all rows of the batch; on a precondition
// failure it returns ErrStatusConflict having written nothing.
type Store interface {
    // FindTicket loads one ticket or returns ErrTicketNotFound.
    FindTicket(ctx context.Context, id uint64) (*model.Ticket, error)
    // FindTicketByBarcode loads the ticket carrying the barcode or
    // returns ErrTicketNotFound.
    FindTicketByBarcode(ctx context.Context, barcode string) (*model.Ticket, error)
    // FindTickets returns exactly the subset of ids that exist; the
    // caller compares counts.
    FindTickets(ctx context.Context, ids []uint64) ([]model.Ticket, error)
    // UpdateTicket applies patch to one ticket.  When from is
    // non-empty the current status must be among the listed values or
    // ErrStatusConflict is returned without writing.
    UpdateTicket(ctx context.Context, id uint64, from []model.TicketStatus, patch Patch) (*model.Ticket, error)
    // UpdateTickets atomically applies a per-ticket patch to every id.
    // All tickets must exist and satisfy the from condition or the
    // whole batch fails with ErrStatusConflict.
    UpdateTickets(ctx context.Context, ids []uint64, from []model.TicketStatus, patch func(model.Ticket) Patch) error
    // CreateTicketsIfAbsent inserts an available ticket for every seat
    // assignment that does not already have a ticket for the show and
    // returns the number of rows created.  Existing tickets are left
    // untouched.
    CreateTicketsIfAbsent(ctx context.Context, showID uint64, assignments []SeatAssignment) (int, error)
}
