// Package ids draws fresh 16-byte storage keys from a random 128-bit
// source. Collisions are treated as impossible, matching spec's
// data-model assumption.
package ids

import (
	"github.com/google/uuid"

	"github.com/StackCanary/os-filesystem/internal/store"
)

// New returns a fresh random key, never the zero key.
func New() store.Key {
	var k store.Key
	for {
		u := uuid.New()
		copy(k[:], u[:])
		if !k.IsZero() {
			return k
		}
	}
}
