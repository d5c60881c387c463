package entity

import (
	"time"

	"github.com/google/uuid"
)

type AgentMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;index"`
	Role      string
	Content   string
	Mode      string
	CreatedAt time.Time
}
