package model

import "time"

// Venue represents a theater building managed by the box office.  A venue
// owns one or more floors, each of which contains sections of seats.
// The total seat count is derived by summing the seats of all sections;
// it is never stored.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – venue name shown to staff.
//  Address     – street address of the venue.
//  Description – optional free-form description.
//  CreatedAt   – timestamp when the venue was created.
//  UpdatedAt   – timestamp of last update.
type Venue struct {
    ID          uint64    // venues.id
    Name        string    // venues.name
    Address     string    // venues.address
    Description *string   // venues.description (nullable)
    CreatedAt   time.Time // venues.created_at
    UpdatedAt   time.Time // venues.updated_at
}

// Floor is a level within a venue.  Floors are displayed in ascending
// order of their Level value.  Each floor owns a set of sections.
//
// Fields:
//  ID      – primary key identifier.
//  VenueID – venue to which this floor belongs.
//  Name    – display name (e.g. "Ground Floor", "Balcony Level").
//  Level   – integer ordering key, ascending from the stage level up.
type Floor struct {
    ID      uint64 // floors.id
    VenueID uint64 // floors.venue_id
    Name    string // floors.name
    Level   int32  // floors.level
}

// SectionType enumerates the kinds of seating sections a floor can
// contain.  A floor that simultaneously holds a left wing, a center and
// a right wing section is rendered as a theater seating chart; any
// other combination renders each section independently.
type SectionType string

const (
    SectionOrchestra SectionType = "orchestra"
    SectionBalcony   SectionType = "balcony"
    SectionBox       SectionType = "box"
    SectionLeftWing  SectionType = "left_wing"
    SectionCenter    SectionType = "center"
    SectionRightWing SectionType = "right_wing"
)

// Section groups seats within a floor.  The seat set carries no
// intrinsic ordering; presentation order is always computed by the
// layout engine.
//
// Fields:
//  ID      – primary key identifier.
//  FloorID – floor to which this section belongs.
//  Name    – section name shown on the seating chart.
//  Type    – one of the SectionType values above.
type Section struct {
    ID      uint64      // sections.id
    FloorID uint64      // sections.floor_id
    Name    string      // sections.name
    Type    SectionType // sections.type
}

// Seat is a fixed physical location inside a section, identified by its
// row label and seat number.  Seats are created in bulk when a venue is
// defined and are immutable afterwards except for the IsActive flag.
// The combination (SectionID, Row, Number) is unique.
//
// Fields:
//  ID        – primary key identifier.
//  SectionID – section to which this seat belongs.
//  Row       – row label such as "A", "B" or the curved front rows "AA".
//  Number    – positive seat number within the row.
//  IsActive  – inactive seats are excluded from ticket initialization.
type Seat struct {
    ID        uint64 // seats.id
    SectionID uint64 // seats.section_id
    Row       string // seats.row_label
    Number    uint32 // seats.seat_number
    IsActive  bool   // seats.is_active
}
