package booking

import (
	"strings"

	"github.com/google/uuid"
)

const confirmationPrefix = "SE"

// NewConfirmationCode returns a short, upper-case, human-shareable code.
func NewConfirmationCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return confirmationPrefix + strings.ToUpper(raw[:8])
}

func NewID() BookingID {
	return BookingID(uuid.NewString())
}
