package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/theater-box-office/internal/model"
    "github.com/iliyamo/theater-box-office/internal/ticket"
)

// TicketRepo persists tickets in MySQL and implements ticket.Store.
// Every conditional update runs in its own transaction and locks the
// target rows with SELECT ... FOR UPDATE, so the status precondition
// and the write are evaluated against one consistent snapshot.  Two
// concurrent reserves of the same available ticket therefore produce
// exactly one success and one ticket.ErrStatusConflict.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo constructs a TicketRepo given a DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// ticketColumns is the column list shared by every ticket SELECT; the
// order must match scanTicket.
const ticketColumns = `id, show_id, seat_id, category_id, status,
    holder_name, holder_phone, holder_email, barcode,
    reserved_by_id, sold_by_id, reserved_at, sold_at, checked_in_at`

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
    Scan(dest ...interface{}) error
}

// scanTicket reads one ticket row, converting nullable columns to
// pointer fields.
func scanTicket(s rowScanner) (*model.Ticket, error) {
    var t model.Ticket
    var status string
    var holderName, holderPhone, holderEmail, barcode sql.NullString
    var reservedBy, soldBy sql.NullInt64
    var reservedAt, soldAt, checkedInAt sql.NullTime
    err := s.Scan(
        &t.ID, &t.ShowID, &t.SeatID, &t.CategoryID, &status,
        &holderName, &holderPhone, &holderEmail, &barcode,
        &reservedBy, &soldBy, &reservedAt, &soldAt, &checkedInAt,
    )
    if err != nil {
        return nil, err
    }
    t.Status = model.TicketStatus(status)
    if holderName.Valid {
        v := holderName.String
        t.HolderName = &v
    }
    if holderPhone.Valid {
        v := holderPhone.String
        t.HolderPhone = &v
    }
    if holderEmail.Valid {
        v := holderEmail.String
        t.HolderEmail = &v
    }
    if barcode.Valid {
        v := barcode.String
        t.Barcode = &v
    }
    if reservedBy.Valid {
        v := uint64(reservedBy.Int64)
        t.ReservedByID = &v
    }
    if soldBy.Valid {
        v := uint64(soldBy.Int64)
        t.SoldByID = &v
    }
    if reservedAt.Valid {
        v := reservedAt.Time.UTC()
        t.ReservedAt = &v
    }
    if soldAt.Valid {
        v := soldAt.Time.UTC()
        t.SoldAt = &v
    }
    if checkedInAt.Valid {
        v := checkedInAt.Time.UTC()
        t.CheckedInAt = &v
    }
    return &t, nil
}

// FindTicket loads one ticket by ID.
func (r *TicketRepo) FindTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
    const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
    t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ticket.ErrTicketNotFound
    }
    return t, err
}

// FindTicketByBarcode loads the ticket carrying the given barcode.
func (r *TicketRepo) FindTicketByBarcode(ctx context.Context, barcode string) (*model.Ticket, error) {
    const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE barcode = ?`
    t, err := scanTicket(r.db.QueryRowContext(ctx, q, barcode))
    if err == sql.ErrNoRows {
        return nil, ticket.ErrTicketNotFound
    }
    return t, err
}

// FindTickets returns the subset of the given IDs that exist, in
// ascending ID order.
func (r *TicketRepo) FindTickets(ctx context.Context, ids []uint64) ([]model.Ticket, error) {
    if len(ids) == 0 {
        return []model.Ticket{}, nil
    }
    query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
    rows, err := r.db.QueryContext(ctx, query, idArgs(ids)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Ticket, 0, len(ids))
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListByShow returns every ticket of a show ordered by seat ID, used to
// assemble the seat map.
func (r *TicketRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Ticket, error) {
    const q = `SELECT ` + ticketColumns + ` FROM tickets WHERE show_id = ? ORDER BY seat_id`
    rows, err := r.db.QueryContext(ctx, q, showID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Ticket, 0)
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// statusAllowed reports whether status is among the permitted values; an
// empty list permits every status.
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

// patchClauses translates a ticket.Patch into SET clauses and their
// arguments.  Clear flags are applied before value assignments so a
// patch can both null a group and set individual fields.
func patchClauses(p ticket.Patch) (clauses []string, args []interface{}) {
    set := func(column string, value interface{}) {
        clauses = append(clauses, column+" = ?")
        args = append(args, value)
    }
    setNull := func(columns ...string) {
        for _, c := range columns {
            clauses = append(clauses, c+" = NULL")
        }
    }
    if p.ClearHolder {
        setNull("holder_name", "holder_phone", "holder_email")
    }
    if p.Holder != nil {
        set("holder_name", nullableString(p.Holder.Name))
        set("holder_phone", nullableString(p.Holder.Phone))
        set("holder_email", nullableString(p.Holder.Email))
    }
    if p.ClearBarcode {
        setNull("barcode")
    }
    if p.Barcode != nil {
        set("barcode", *p.Barcode)
    }
    if p.ClearReservation {
        setNull("reserved_by_id", "reserved_at")
    }
    if p.ReservedBy != nil {
        set("reserved_by_id", *p.ReservedBy)
    }
    if p.ReservedAt != nil {
        set("reserved_at", p.ReservedAt.UTC())
    }
    if p.ClearSale {
        setNull("sold_by_id", "sold_at")
    }
    if p.SoldBy != nil {
        set("sold_by_id", *p.SoldBy)
    }
    if p.SoldAt != nil {
        set("sold_at", p.SoldAt.UTC())
    }
    if p.ClearCheckIn {
        setNull("checked_in_at")
    }
    if p.CheckedInAt != nil {
        set("checked_in_at", p.CheckedInAt.UTC())
    }
    if p.Status != nil {
        set("status", string(*p.Status))
    }
    if p.CategoryID != nil {
        set("category_id", *p.CategoryID)
    }
    return clauses, args
}

func nullableString(s *string) interface{} {
    if s == nil {
        return nil
    }
    return *s
}

// UpdateTicket applies a conditional update to one ticket.  The row is
// locked, the status precondition checked under the lock, and the write
// committed only when it still holds.  A patch setting checked_in_at is
// additionally guarded by the stored value still being NULL.
func (r *TicketRepo) UpdateTicket(ctx context.Context, id uint64, from []model.TicketStatus, patch ticket.Patch) (*model.Ticket, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    const sel = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ? FOR UPDATE`
    cur, err := scanTicket(tx.QueryRowContext(ctx, sel, id))
    if err == sql.ErrNoRows {
        return nil, ticket.ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    if !statusAllowed(cur.Status, from) {
        return nil, ticket.ErrStatusConflict
    }
    if patch.CheckedInAt != nil && cur.CheckedInAt != nil {
        return nil, ticket.ErrStatusConflict
    }

    clauses, args := patchClauses(patch)
    if len(clauses) > 0 {
        query := `UPDATE tickets SET ` + strings.Join(clauses, ", ") + ` WHERE id = ?`
        args = append(args, id)
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return nil, mapMySQLError(err)
        }
    }

    updated, err := scanTicket(tx.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return updated, nil
}

// UpdateTickets applies a per-ticket patch to every listed ID in one
// transaction.  All rows are locked up front in ascending ID order to
// keep concurrent batches from deadlocking; a missing row or a failed
// status precondition aborts the whole batch with nothing written.
func (r *TicketRepo) UpdateTickets(ctx context.Context, ids []uint64, from []model.TicketStatus, patch func(model.Ticket) ticket.Patch) error {
    if len(ids) == 0 {
        return nil
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            tx.Rollback()
        }
    }()

    query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id FOR UPDATE`
    rows, err := tx.QueryContext(ctx, query, idArgs(ids)...)
    if err != nil {
        return err
    }
    locked := make([]model.Ticket, 0, len(ids))
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            rows.Close()
            return err
        }
        locked = append(locked, *t)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return err
    }
    rows.Close()

    if len(locked) != len(ids) {
        return ticket.ErrStatusConflict
    }
    for _, t := range locked {
        if !statusAllowed(t.Status, from) {
            return ticket.ErrStatusConflict
        }
    }

    for _, t := range locked {
        clauses, args := patchClauses(patch(t))
        if len(clauses) == 0 {
            continue
        }
        query := `UPDATE tickets SET ` + strings.Join(clauses, ", ") + ` WHERE id = ?`
        args = append(args, t.ID)
        if _, err := tx.ExecContext(ctx, query, args...); err != nil {
            return mapMySQLError(err)
        }
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// CreateTicketsIfAbsent inserts an available ticket for every seat
// assignment whose seat has no ticket for the show yet and returns the
// number of rows created.  Existing tickets are left untouched, so the
// operation is idempotent; re-running it after adding seats only fills
// the gaps.
func (r *TicketRepo) CreateTicketsIfAbsent(ctx context.Context, showID uint64, assignments []ticket.SeatAssignment) (int, error) {
    if len(assignments) == 0 {
        return 0, nil
    }
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

    // Lock the show's existing tickets so two concurrent initializations
    // cannot both insert for the same seat.
    existing := make(map[uint64]bool)
    rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM tickets WHERE show_id = ? FOR UPDATE`, showID)
    if err != nil {
        return 0, err
    }
    for rows.Next() {
        var seatID uint64
        if err := rows.Scan(&seatID); err != nil {
            rows.Close()
            return 0, err
        }
        existing[seatID] = true
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return 0, err
    }
    rows.Close()

    missing := make([]ticket.SeatAssignment, 0, len(assignments))
    for _, a := range assignments {
        if !existing[a.SeatID] {
            missing = append(missing, a)
        }
    }
    if len(missing) == 0 {
        if err := tx.Commit(); err != nil {
            return 0, err
        }
        committed = true
        return 0, nil
    }

    query := `INSERT INTO tickets (show_id, seat_id, category_id, status) VALUES `
    args := make([]interface{}, 0, len(missing)*4)
    for i, a := range missing {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, showID, a.SeatID, a.CategoryID, string(model.TicketAvailable))
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return 0, mapMySQLError(err)
    }

    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return len(missing), nil
}

// placeholders returns n comma-separated ? markers.
func placeholders(n int) string {
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []interface{} {
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
    }
    return args
}
