// Package eventid generates the deduplication keys shared between the
// pixel-path and relay-path transmission of a single logical event.
package eventid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New returns an opaque event identifier combining a millisecond timestamp
// with a random component. It never fails and needs no coordination; the
// advertising platform only requires uniqueness per logical event within a
// campaign's dedup window.
func New() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
}
