package entity

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name           string
	Segment        string
	ChurnScore     float64
	LastActivityAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

type ServiceRecord struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerId uuid.UUID `gorm:"type:uuid;index"`
	Category   string    `gorm:"index"`
	Revenue    float64
	CreatedAt  time.Time
}

type Deal struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerId uuid.UUID `gorm:"type:uuid;index"`
	Stage      string    `gorm:"index"`
	Value      float64
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
