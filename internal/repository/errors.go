// Package repository implements MySQL persistence for venues, shows,
// users and tickets.  Repositories map low-level database failures onto
// the sentinel errors the engine and handler layers understand, so that
// no layer above this one needs to import the driver package.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/theater-box-office/internal/ticket"
)

// ErrNotFound is returned when a venue, show, user or category lookup
// misses.  Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// MySQL server error numbers this package cares about.
const (
    mysqlErrDuplicateEntry  = 1062
    mysqlErrNoReferencedRow = 1452
)

// mapMySQLError converts driver-specific constraint failures into the
// ticket package sentinels.  Any other error passes through unchanged.
func mapMySQLError(err error) error {
    var me *mysql.MySQLError
    if !errors.As(err, &me) {
        return err
    }
    switch me.Number {
    case mysqlErrDuplicateEntry:
        return ticket.ErrDuplicate
    case mysqlErrNoReferencedRow:
        return ticket.ErrConstraint
    }
    return err
}
