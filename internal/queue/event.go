// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into an audit log.
package queue

// Event types carried on the ticket.events queue.
const (
    EventTicketSold      = "ticket.sold"
    EventTicketCheckedIn = "ticket.checked_in"
)

// TicketEvent is published after a sale or a check-in completes.  It
// contains enough information for downstream consumers to log, notify
// or trigger analytics without querying the primary database.
type TicketEvent struct {
    Type       string   `json:"type"`
    TicketID   uint64   `json:"ticket_id"`
    ShowID     uint64   `json:"show_id"`
    SeatID     uint64   `json:"seat_id"`
    ShowName   string   `json:"show_name"`
    HolderName string   `json:"holder_name,omitempty"`
    Barcode    string   `json:"barcode,omitempty"`
    ActorID    uint64   `json:"actor_id"`
    TicketIDs  []uint64 `json:"ticket_ids,omitempty"` // populated for bulk sales
    OccurredAt string   `json:"occurred_at"`
}
