package booking

import (
    "crypto/rand"
    "encoding/hex"
    "strings"
)

// codeAttempts bounds how often creation retries after a reservation-code
// collision before giving up.
const codeAttempts = 5

// NewReservationCode generates a human-readable reservation code of the
// form "R-XXXXXXXXXX" with 10 uppercase hex characters of crypto/rand
// entropy.  Uniqueness is enforced by the store's unique index; callers
// regenerate on collision.
func NewReservationCode() (string, error) {
    buf := make([]byte, 5)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return "R-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
