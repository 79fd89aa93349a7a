package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/theater-box-office/internal/model"
)

// ShowRepo persists shows and their ticket categories.
type ShowRepo struct {
    db *sql.DB
}

// NewShowRepo constructs a ShowRepo given a DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// Create inserts a show and returns its ID.
func (r *ShowRepo) Create(ctx context.Context, venueID uint64, name string, description *string, date time.Time, status string) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO shows (venue_id, name, description, date, status) VALUES (?, ?, ?, ?, ?)`,
        venueID, name, nullableString(description), date.UTC(), status)
    if err != nil {
        return 0, mapMySQLError(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByID loads one show or returns ErrNotFound.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
    const q = `SELECT id, venue_id, name, description, date, status, created_at FROM shows WHERE id = ?`
    var s model.Show
    var desc sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &s.ID, &s.VenueID, &s.Name, &desc, &s.Date, &s.Status, &s.CreatedAt)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        s.Description = &d
    }
    return &s, nil
}

// ListByVenue returns the shows of a venue ordered by date ascending.
// A zero venueID lists every show.
func (r *ShowRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Show, error) {
    q := `SELECT id, venue_id, name, description, date, status, created_at FROM shows`
    args := []interface{}{}
    if venueID != 0 {
        q += ` WHERE venue_id = ?`
        args = append(args, venueID)
    }
    q += ` ORDER BY date`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Show, 0)
    for rows.Next() {
        var s model.Show
        var desc sql.NullString
        if err := rows.Scan(&s.ID, &s.VenueID, &s.Name, &desc, &s.Date, &s.Status, &s.CreatedAt); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            s.Description = &d
        }
        out = append(out, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateStatus sets the informational status of a show.  ErrNotFound is
// returned when the show does not exist.
func (r *ShowRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE shows SET status = ? WHERE id = ?`, status, id)
    if err != nil {
        return err
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        // Distinguish a missing show from a no-op status write.
        var exists uint64
        if err := r.db.QueryRowContext(ctx, `SELECT id FROM shows WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
            return ErrNotFound
        } else if err != nil {
            return err
        }
    }
    return nil
}

// CreateCategory inserts a ticket category for a show and returns its
// ID.  A foreign key failure on the show surfaces as a constraint
// error.
func (r *ShowRepo) CreateCategory(ctx context.Context, c model.TicketCategory) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO ticket_categories (show_id, name, price, color, text_color, description) VALUES (?, ?, ?, ?, ?, ?)`,
        c.ShowID, c.Name, c.Price, nullableString(c.Color), nullableString(c.TextColor), nullableString(c.Description))
    if err != nil {
        return 0, mapMySQLError(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// UpdateCategory rewrites the mutable fields of a category.  The
// category must belong to the given show; ErrNotFound is returned
// otherwise.
func (r *ShowRepo) UpdateCategory(ctx context.Context, c model.TicketCategory) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE ticket_categories SET name = ?, price = ?, color = ?, text_color = ?, description = ?
         WHERE id = ? AND show_id = ?`,
        c.Name, c.Price, nullableString(c.Color), nullableString(c.TextColor), nullableString(c.Description),
        c.ID, c.ShowID)
    if err != nil {
        return mapMySQLError(err)
    }
    affected, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        var exists uint64
        err := r.db.QueryRowContext(ctx,
            `SELECT id FROM ticket_categories WHERE id = ? AND show_id = ?`, c.ID, c.ShowID).Scan(&exists)
        if err == sql.ErrNoRows {
            return ErrNotFound
        }
        if err != nil {
            return err
        }
    }
    return nil
}

// ListCategories returns the categories of a show in creation order.
// The first entry is the default category for ticket initialization.
func (r *ShowRepo) ListCategories(ctx context.Context, showID uint64) ([]model.TicketCategory, error) {
    const q = `SELECT id, show_id, name, price, color, text_color, description
               FROM ticket_categories WHERE show_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, showID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.TicketCategory, 0)
    for rows.Next() {
        var c model.TicketCategory
        var color, textColor, desc sql.NullString
        if err := rows.Scan(&c.ID, &c.ShowID, &c.Name, &c.Price, &color, &textColor, &desc); err != nil {
            return nil, err
        }
        if color.Valid {
            v := color.String
            c.Color = &v
        }
        if textColor.Valid {
            v := textColor.String
            c.TextColor = &v
        }
        if desc.Valid {
            v := desc.String
            c.Description = &v
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
