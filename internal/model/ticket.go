package model

import "time"

// TicketStatus enumerates the lifecycle states of a ticket.  Every
// mutation of the status field goes through the ticket engine; the
// allowed transitions are documented there.
type TicketStatus string

const (
    TicketAvailable TicketStatus = "available"
    TicketReserved  TicketStatus = "reserved"
    TicketSold      TicketStatus = "sold"
    TicketCancelled TicketStatus = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s TicketStatus) Valid() bool {
    switch s {
    case TicketAvailable, TicketReserved, TicketSold, TicketCancelled:
        return true
    }
    return false
}

// Ticket binds a seat to a show and a price category and carries the
// full sale/reservation/check-in state.  A seat has at most one ticket
// per show: the pair (ShowID, SeatID) is unique.  Barcodes are globally
// unique once assigned.  Tickets are created once per seat when a
// show's inventory is initialized and are never deleted; all later
// mutation happens through the ticket engine.
//
// Fields:
//  ID           – primary key identifier.
//  ShowID       – show this ticket belongs to.
//  SeatID       – seat this ticket covers.
//  CategoryID   – price category assigned to the ticket.
//  Status       – current lifecycle state.
//  HolderName   – name of the reservation/purchase holder.
//  HolderPhone  – phone of the holder.
//  HolderEmail  – email of the holder.
//  Barcode      – globally unique entry code, assigned on first sale.
//  ReservedByID – staff member who took the reservation.
//  SoldByID     – staff member who completed the sale.
//  ReservedAt   – when the reservation was taken.
//  SoldAt       – when the sale was completed.
//  CheckedInAt  – when the holder was admitted; set at most once.
type Ticket struct {
    ID           uint64       `json:"id"`                       // tickets.id
    ShowID       uint64       `json:"show_id"`                  // tickets.show_id
    SeatID       uint64       `json:"seat_id"`                  // tickets.seat_id
    CategoryID   uint64       `json:"category_id"`              // tickets.category_id
    Status       TicketStatus `json:"status"`                   // tickets.status
    HolderName   *string      `json:"holder_name,omitempty"`    // tickets.holder_name (nullable)
    HolderPhone  *string      `json:"holder_phone,omitempty"`   // tickets.holder_phone (nullable)
    HolderEmail  *string      `json:"holder_email,omitempty"`   // tickets.holder_email (nullable)
    Barcode      *string      `json:"barcode,omitempty"`        // tickets.barcode (nullable, unique)
    ReservedByID *uint64      `json:"reserved_by_id,omitempty"` // tickets.reserved_by_id (nullable)
    SoldByID     *uint64      `json:"sold_by_id,omitempty"`     // tickets.sold_by_id (nullable)
    ReservedAt   *time.Time   `json:"reserved_at,omitempty"`    // tickets.reserved_at (nullable)
    SoldAt       *time.Time   `json:"sold_at,omitempty"`        // tickets.sold_at (nullable)
    CheckedInAt  *time.Time   `json:"checked_in_at,omitempty"`  // tickets.checked_in_at (nullable)
}
