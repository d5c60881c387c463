package contract

import (
	"context"

	"crm-analytics-be/internal/entity"

	"github.com/google/uuid"
)

type AgentMessageRepository interface {
	Create(ctx context.Context, message *entity.AgentMessage) error
	FindByUserId(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.AgentMessage, error)
	CountByUserId(ctx context.Context, userId uuid.UUID) (int64, error)
}
