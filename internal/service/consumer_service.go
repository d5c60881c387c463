package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"crm-analytics-be/internal/dto"
	"crm-analytics-be/internal/entity"
	"crm-analytics-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	messageRepo contract.AgentMessageRepository
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	messageRepo contract.AgentMessageRepository,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		messageRepo: messageRepo,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage persists one transcript as a user row plus an
// assistant row. Invalid payloads are acked so they do not retry
// forever.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TranscriptMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal transcript message: %v", err)
		msg.Ack()
		return
	}

	askedAt := payload.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}

	question := entity.AgentMessage{
		Id:        uuid.New(),
		UserId:    payload.UserId,
		Role:      "user",
		Content:   payload.Question,
		Mode:      payload.Mode,
		CreatedAt: askedAt,
	}
	if err := cs.messageRepo.Create(ctx, &question); err != nil {
		log.Printf("[ERROR] Failed to persist question for user %s: %v", payload.UserId, err)
		msg.Nack()
		return
	}

	assistant := entity.AgentMessage{
		Id:        uuid.New(),
		UserId:    payload.UserId,
		Role:      "assistant",
		Content:   payload.Answer,
		Mode:      payload.Mode,
		CreatedAt: askedAt.Add(time.Millisecond),
	}
	if err := cs.messageRepo.Create(ctx, &assistant); err != nil {
		log.Printf("[ERROR] Failed to persist answer for user %s: %v", payload.UserId, err)
		msg.Nack()
		return
	}

	msg.Ack()
}
