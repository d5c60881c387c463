package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm-analytics-be/internal/dto"
	"crm-analytics-be/internal/pkg/logger"
	"crm-analytics-be/pkg/events"
	pktNats "crm-analytics-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification dto.Notification)
}

// NotificationService turns analytics events from the NATS bus into
// dashboard notifications. Keeping this off the request path means a
// slow websocket never delays an answer stream.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	// The NATS subject carries the stream prefix; strip it to get the
	// event code.
	eventType := strings.TrimPrefix(event.EventType(), "events.")

	switch eventType {
	case events.TypeAgentAnalysisRun:
		return s.notifyAnalysisRun(event)
	default:
		// Other event types are analytics-only, nothing to deliver.
		return nil
	}
}

func (s *NotificationService) notifyAnalysisRun(event events.Event) error {
	payload := event.Payload()

	userIDStr, ok := payload["user_id"].(string)
	if !ok {
		s.logger.Warn("NotificationService", "Analysis event without user_id", map[string]interface{}{"payload": payload})
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("invalid user_id in analysis event: %w", err)
	}

	body := "Your deep analysis has finished."
	if products, ok := payload["products"].([]interface{}); ok && len(products) > 0 {
		body = fmt.Sprintf("Your deep analysis across %d data products has finished.", len(products))
	}

	s.delivery.Send(userID, dto.Notification{
		Title:     "Analysis ready",
		Body:      body,
		CreatedAt: time.Now(),
	})
	return nil
}
