package implementation

import (
	"context"

	"crm-analytics-be/internal/entity"
	"crm-analytics-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentMessageRepositoryImpl struct {
	db *gorm.DB
}

func NewAgentMessageRepository(db *gorm.DB) contract.AgentMessageRepository {
	return &AgentMessageRepositoryImpl{db: db}
}

func (r *AgentMessageRepositoryImpl) Create(ctx context.Context, message *entity.AgentMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *AgentMessageRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.AgentMessage, error) {
	var messages []*entity.AgentMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *AgentMessageRepositoryImpl) CountByUserId(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.AgentMessage{}).
		Where("user_id = ?", userId).
		Count(&count).Error
	return count, err
}
