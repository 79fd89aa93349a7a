package ticket

import (
    "crypto/rand"
    "encoding/hex"
    "strings"
)

// barcodePrefix makes barcodes recognizable on printed tickets and in
// scanner logs.
const barcodePrefix = "SB-"

// NewBarcode generates a short entry code: the fixed prefix followed by
// six random bytes hex-encoded in upper case.  Randomness comes from
// crypto/rand; uniqueness is not checked here but enforced by the
// unique index on tickets.barcode, so a collision surfaces as a
// retryable duplicate-key failure instead of a silent overwrite.
func NewBarcode() (string, error) {
    b := make([]byte, 6)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return barcodePrefix + strings.ToUpper(hex.EncodeToString(b)), nil
}
