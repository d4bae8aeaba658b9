package shared

import (
	"time"

	"github.com/google/uuid"
)

// Versioned carries the identity and optimistic lock counter of a row that
// concurrent writers race on. Version starts at 1 and only moves forward
// through a successful conditional write.
type Versioned struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// NewVersioned returns a fresh identity at version 1
func NewVersioned() Versioned {
	now := time.Now().UTC()
	return Versioned{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// IncrementVersion records that a conditional write against the current
// Version has been committed.
func (v *Versioned) IncrementVersion() {
	v.Version++
}
