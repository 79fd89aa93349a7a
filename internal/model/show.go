package model

import "time"

// Show is a scheduled performance at a venue.  The status field is
// purely informational for listings; the ticket engine never consults
// it.  A show owns its ticket categories and, once initialized, one
// ticket per active seat of the venue.
//
// Fields:
//  ID          – primary key identifier.
//  VenueID     – venue hosting the show.
//  Name        – performance title.
//  Description – optional free-form description.
//  Date        – date and time of the performance.
//  Status      – upcoming | ongoing | completed | cancelled.
//  CreatedAt   – creation timestamp.
type Show struct {
    ID          uint64    `json:"id"`          // shows.id
    VenueID     uint64    `json:"venue_id"`    // shows.venue_id
    Name        string    `json:"name"`        // shows.name
    Description *string   `json:"description"` // shows.description (nullable)
    Date        time.Time `json:"date"`        // shows.date
    Status      string    `json:"status"`      // shows.status
    CreatedAt   time.Time `json:"created_at"`  // shows.created_at
}

// TicketCategory is a price band for a show's tickets.  Color and
// TextColor are presentation hints used when rendering the seating
// chart; they carry no business meaning.
//
// Fields:
//  ID          – primary key identifier.
//  ShowID      – show to which this category belongs.
//  Name        – category name (e.g. "Full", "Student").
//  Price       – non-negative price.
//  Color       – optional seat fill color.
//  TextColor   – optional seat text color.
//  Description – optional free-form description.
type TicketCategory struct {
    ID          uint64  `json:"id"`                    // ticket_categories.id
    ShowID      uint64  `json:"show_id"`               // ticket_categories.show_id
    Name        string  `json:"name"`                  // ticket_categories.name
    Price       float64 `json:"price"`                 // ticket_categories.price
    Color       *string `json:"color,omitempty"`       // ticket_categories.color (nullable)
    TextColor   *string `json:"text_color,omitempty"`  // ticket_categories.text_color (nullable)
    Description *string `json:"description,omitempty"` // ticket_categories.description (nullable)
}
