package ticket

import (
    "errors"
    "time"

    "github.com/iliyamo/theater-box-office/internal/model"
)

// Kind classifies engine failures so that callers can translate them
// into transport-level responses without parsing message text.
type Kind string

const (
    // KindNotFound is returned when a ticket, barcode or show lookup misses.
    KindNotFound Kind = "not_found"
    // KindInvalidTransition is returned when an operation is attempted
    // from a status that does not allow it.
    KindInvalidTransition Kind = "invalid_transition"
    // KindAlreadyCheckedIn is returned when a barcode has already been
    // used for entry; the error carries the original check-in time.
    KindAlreadyCheckedIn Kind = "already_checked_in"
    // KindBatchMismatch is returned when a bulk operation finds at
    // least one ticket failing its precondition.  Nothing was written.
    KindBatchMismatch Kind = "batch_mismatch"
    // KindConstraint is returned when the storage layer rejects a write
    // due to a uniqueness or foreign-key constraint.  The operation is
    // safe to retry as a whole.
    KindConstraint Kind = "constraint"
    // KindValidation is returned for malformed input caught before any
    // state is touched.
    KindValidation Kind = "validation"
)

// Error is the structured failure type returned by every engine
// operation.  Ticket and CheckedInAt are populated where the operation
// contract promises a snapshot for display (check-in failures).
type Error struct {
    Kind        Kind
    Message     string
    Ticket      *model.Ticket
    CheckedInAt *time.Time
    Err         error // underlying storage error, when any
}

func (e *Error) Error() string {
    if e.Err != nil {
        return e.Message + ": " + e.Err.Error()
    }
    return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the Kind from err, or an empty Kind when err is not
// an engine error.
func KindOf(err error) Kind {
    var te *Error
    if errors.As(err, &te) {
        return te.Kind
    }
    return ""
}

// AsError returns the engine error inside err, or nil.
func AsError(err error) *Error {
    var te *Error
    if errors.As(err, &te) {
        return te
    }
    return nil
}
