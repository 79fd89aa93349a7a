package repository

import (
    "context"
    "database/sql"
)

// VenueRepo persists venues and their floor/section/seat hierarchy.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo constructs a VenueRepo given a DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// NewSeat describes one seat of a venue being created.
type NewSeat struct {
    Row      string `json:"row"`
    Number   uint32 `json:"number"`
    IsActive *bool  `json:"is_active"` // nil defaults to active
}

// NewSection describes one section of a venue being created.
type NewSection struct {
    Name  string    `json:"name"`
    Type  string    `json:"type"`
    Seats []NewSeat `json:"seats"`
}

// NewFloor describes one floor of a venue being created.
type NewFloor struct {
    Name     string       `json:"name"`
    Level    int32        `json:"level"`
    Sections []NewSection `json:"sections"`
}

// NewVenue is the full nested payload for venue creation.
type NewVenue struct {
    Name        string     `json:"name"`
    Address     string     `json:"address"`
    Description *string    `json:"description"`
    Floors      []NewFloor `json:"floors"`
}

// VenueSummary is a venue row plus its derived seat count, returned by
// List for the venue overview.
type VenueSummary struct {
    ID        uint64 `json:"id"`
    Name      string `json:"name"`
    Address   string `json:"address"`
    SeatCount int    `json:"seat_count"`
}

// SeatNode is a seat inside a venue tree.
type SeatNode struct {
    ID       uint64 `json:"id"`
    Row      string `json:"row"`
    Number   uint32 `json:"number"`
    IsActive bool   `json:"is_active"`
}

// SectionNode is a section inside a venue tree.
type SectionNode struct {
    ID    uint64     `json:"id"`
    Name  string     `json:"name"`
    Type  string     `json:"type"`
    Seats []SeatNode `json:"seats"`
}

// FloorNode is a floor inside a venue tree.
type FloorNode struct {
    ID       uint64        `json:"id"`
    Name     string        `json:"name"`
    Level    int32         `json:"level"`
    Sections []SectionNode `json:"sections"`
}

// VenueTree is a venue with its full floor/section/seat hierarchy, as
// returned by GetTree.  Floors are ordered by level ascending; seat
// order within a section is left to the layout engine.
type VenueTree struct {
    ID          uint64      `json:"id"`
    Name        string      `json:"name"`
    Address     string      `json:"address"`
    Description *string     `json:"description"`
    Floors      []FloorNode `json:"floors"`
}

// Create inserts a venue together with its nested floors, sections and
// seats in one transaction and returns the new venue ID.  Seats are
// inserted per section in a single bulk statement.
func (r *VenueRepo) Create(ctx context.Context, v NewVenue) (uint64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx,
        `INSERT INTO venues (name, address, description) VALUES (?, ?, ?)`,
        v.Name, v.Address, nullableString(v.Description))
    if err != nil {
        return 0, mapMySQLError(err)
    }
    venueID, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }

    for _, f := range v.Floors {
        fres, err := tx.ExecContext(ctx,
            `INSERT INTO floors (venue_id, name, level) VALUES (?, ?, ?)`,
            venueID, f.Name, f.Level)
        if err != nil {
            return 0, mapMySQLError(err)
        }
        floorID, err := fres.LastInsertId()
        if err != nil {
            return 0, err
        }
        for _, s := range f.Sections {
            sres, err := tx.ExecContext(ctx,
                `INSERT INTO sections (floor_id, name, type) VALUES (?, ?, ?)`,
                floorID, s.Name, s.Type)
            if err != nil {
                return 0, mapMySQLError(err)
            }
            sectionID, err := sres.LastInsertId()
            if err != nil {
                return 0, err
            }
            if len(s.Seats) == 0 {
                continue
            }
            query := `INSERT INTO seats (section_id, row_label, seat_number, is_active) VALUES `
            args := make([]interface{}, 0, len(s.Seats)*4)
            for i, seat := range s.Seats {
                if i > 0 {
                    query += ","
                }
                query += "(?, ?, ?, ?)"
                active := true
                if seat.IsActive != nil {
                    active = *seat.IsActive
                }
                args = append(args, sectionID, seat.Row, seat.Number, active)
            }
            if _, err := tx.ExecContext(ctx, query, args...); err != nil {
                return 0, mapMySQLError(err)
            }
        }
    }

    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return uint64(venueID), nil
}

// List returns every venue with its derived total seat count, newest
// first.
func (r *VenueRepo) List(ctx context.Context) ([]VenueSummary, error) {
    const q = `SELECT v.id, v.name, v.address, COUNT(st.id)
               FROM venues v
               LEFT JOIN floors f ON f.venue_id = v.id
               LEFT JOIN sections sc ON sc.floor_id = f.id
               LEFT JOIN seats st ON st.section_id = sc.id
               GROUP BY v.id, v.name, v.address
               ORDER BY v.id DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]VenueSummary, 0)
    for rows.Next() {
        var v VenueSummary
        if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.SeatCount); err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetTree loads one venue with its full hierarchy.  It returns
// ErrNotFound when the venue does not exist.
func (r *VenueRepo) GetTree(ctx context.Context, venueID uint64) (*VenueTree, error) {
    var tree VenueTree
    var desc sql.NullString
    err := r.db.QueryRowContext(ctx,
        `SELECT id, name, address, description FROM venues WHERE id = ?`, venueID).
        Scan(&tree.ID, &tree.Name, &tree.Address, &desc)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        tree.Description = &d
    }

    const q = `SELECT f.id, f.name, f.level,
                      sc.id, sc.name, sc.type,
                      st.id, st.row_label, st.seat_number, st.is_active
               FROM floors f
               LEFT JOIN sections sc ON sc.floor_id = f.id
               LEFT JOIN seats st ON st.section_id = sc.id
               WHERE f.venue_id = ?
               ORDER BY f.level, f.id, sc.id, st.id`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    tree.Floors = make([]FloorNode, 0)
    floorIdx := make(map[uint64]int)
    sectionIdx := make(map[uint64]int)
    for rows.Next() {
        var floorID uint64
        var floorName string
        var level int32
        var sectionID sql.NullInt64
        var sectionName, sectionType sql.NullString
        var seatID sql.NullInt64
        var rowLabel sql.NullString
        var seatNumber sql.NullInt64
        var isActive sql.NullBool
        if err := rows.Scan(
            &floorID, &floorName, &level,
            &sectionID, &sectionName, &sectionType,
            &seatID, &rowLabel, &seatNumber, &isActive,
        ); err != nil {
            return nil, err
        }
        fi, ok := floorIdx[floorID]
        if !ok {
            fi = len(tree.Floors)
            floorIdx[floorID] = fi
            tree.Floors = append(tree.Floors, FloorNode{
                ID:       floorID,
                Name:     floorName,
                Level:    level,
                Sections: make([]SectionNode, 0),
            })
        }
        if !sectionID.Valid {
            continue
        }
        sid := uint64(sectionID.Int64)
        si, ok := sectionIdx[sid]
        if !ok {
            si = len(tree.Floors[fi].Sections)
            sectionIdx[sid] = si
            tree.Floors[fi].Sections = append(tree.Floors[fi].Sections, SectionNode{
                ID:    sid,
                Name:  sectionName.String,
                Type:  sectionType.String,
                Seats: make([]SeatNode, 0),
            })
        }
        if !seatID.Valid {
            continue
        }
        tree.Floors[fi].Sections[si].Seats = append(tree.Floors[fi].Sections[si].Seats, SeatNode{
            ID:       uint64(seatID.Int64),
            Row:      rowLabel.String,
            Number:   uint32(seatNumber.Int64),
            IsActive: isActive.Bool,
        })
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return &tree, nil
}

// VenueSeat is one seat joined with its section and floor, as needed by
// ticket initialization and the seat map.
type VenueSeat struct {
    SeatID      uint64
    Row         string
    Number      uint32
    SectionID   uint64
    SectionName string
    SectionType string
    FloorID     uint64
    FloorName   string
    FloorLevel  int32
}

// ActiveSeats returns every active seat of a venue joined with its
// section and floor, ordered by floor level then section then seat.
func (r *VenueRepo) ActiveSeats(ctx context.Context, venueID uint64) ([]VenueSeat, error) {
    const q = `SELECT st.id, st.row_label, st.seat_number,
                      sc.id, sc.name, sc.type,
                      f.id, f.name, f.level
               FROM seats st
               JOIN sections sc ON sc.id = st.section_id
               JOIN floors f ON f.id = sc.floor_id
               WHERE f.venue_id = ? AND st.is_active = TRUE
               ORDER BY f.level, sc.id, st.id`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]VenueSeat, 0)
    for rows.Next() {
        var s VenueSeat
        if err := rows.Scan(
            &s.SeatID, &s.Row, &s.Number,
            &s.SectionID, &s.SectionName, &s.SectionType,
            &s.FloorID, &s.FloorName, &s.FloorLevel,
        ); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
