package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and lifecycle timestamps every persisted
// transfer object shares. Timestamps are managed by the domain: constructors
// and state transitions stamp them explicitly.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *BaseEntity) GetID() uuid.UUID        { return e.ID }
func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }
func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }

// NewBaseEntity mints a fresh identity with both timestamps set to now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// BaseAggregateRoot adds a version counter for optimistic locking on top
// of the entity identity
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// OwnerAggregateRoot extends BaseAggregateRoot with per-owner scoping.
// Every transfer job belongs to the portal user that submitted it.
type OwnerAggregateRoot struct {
	BaseAggregateRoot
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewOwnerAggregateRoot creates a new owner-scoped aggregate root
func NewOwnerAggregateRoot(ownerID uuid.UUID) OwnerAggregateRoot {
	return OwnerAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		OwnerID:           ownerID,
	}
}

// GetOwnerID returns the owning user ID
func (o *OwnerAggregateRoot) GetOwnerID() uuid.UUID {
	return o.OwnerID
}
