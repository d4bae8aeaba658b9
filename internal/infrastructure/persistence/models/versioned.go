package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/billsync/backend/internal/domain/shared"
)

// VersionedModel holds the columns behind shared.Versioned. The version
// column is the predicate of every conditional update.
type VersionedModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

func (m *VersionedModel) toShared() shared.Versioned {
	return shared.Versioned{
		ID:        m.ID,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
		Version:   m.Version,
	}
}

func (m *VersionedModel) fromShared(v shared.Versioned) {
	m.ID = v.ID
	m.CreatedAt = v.CreatedAt.UTC()
	m.UpdatedAt = v.UpdatedAt.UTC()
	m.Version = v.Version
}
