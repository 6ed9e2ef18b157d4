package dbal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a new random identifier: the 32 lowercase hex characters of a
// v4 UUID with the dashes stripped. Entity primary keys and lock owner tokens
// use this format.
func NewID() string {
	// In the case of generating a new UUID errored, we just need to retry because
	// generating an ID is a must.
	var err error
	for i := 0; i < 10; i++ {
		var id uuid.UUID
		id, err = uuid.NewRandom()
		if err == nil {
			return strings.ReplaceAll(id.String(), "-", "")
		}
		// Sleep 1 millisecond then retry to generate a new UUID.
		time.Sleep(time.Duration(1 * time.Millisecond))
	}
	// Panic if still can't generate an ID after 10 retries. Should never happen but in case.
	panic(err)
}
