package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-analytics-be/internal/dto"
	"crm-analytics-be/internal/pkg/serverutils"
	"crm-analytics-be/pkg/agent/stream"
)

type stubAgentService struct {
	buffered    *stream.Event
	bufferedErr error
	gotUserId   uuid.UUID
}

func (s *stubAgentService) Chat(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (<-chan stream.Event, error) {
	ch := make(chan stream.Event)
	close(ch)
	return ch, nil
}

func (s *stubAgentService) ChatBuffered(ctx context.Context, userId uuid.UUID, request *dto.ChatRequest) (*stream.Event, error) {
	s.gotUserId = userId
	return s.buffered, s.bufferedErr
}

func (s *stubAgentService) History(ctx context.Context, userId uuid.UUID, limit, offset int) ([]dto.ChatHistoryResponse, error) {
	return nil, nil
}

// newTestApp wires the handlers behind a stand-in for the JWT
// middleware so tests control what lands in Locals.
func newTestApp(svc *stubAgentService, localUserId interface{}) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	app.Use(func(c *fiber.Ctx) error {
		if localUserId != nil {
			c.Locals("user_id", localUserId)
		}
		return c.Next()
	})

	ctrl := &agentController{agentService: svc}
	app.Post("/agent/v1/chat", ctrl.Chat)
	app.Get("/agent/v1/history", ctrl.History)
	return app
}

func doChat(t *testing.T, app *fiber.App) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/agent/v1/chat", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestChatReturnsTerminalPayloadOnly(t *testing.T) {
	svc := &stubAgentService{
		buffered: &stream.Event{Type: stream.EventChat, Content: "Hello! Ask me about your CRM data."},
	}
	userId := uuid.New()
	app := newTestApp(svc, userId.String())

	status, body := doChat(t, app)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, userId, svc.gotUserId)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "chat", envelope.Data.Type)
	assert.Equal(t, "Hello! Ask me about your CRM data.", envelope.Data.Content)
}

func TestChatErrorTerminalYieldsErrorEnvelope(t *testing.T) {
	svc := &stubAgentService{
		bufferedErr: &dto.AgentRunError{Message: "The analytics backend is unavailable. Please try again later."},
	}
	app := newTestApp(svc, uuid.New().String())

	status, body := doChat(t, app)
	assert.Equal(t, fiber.StatusBadGateway, status)

	var envelope struct {
		Success bool   `json:"success"`
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, fiber.StatusBadGateway, envelope.Code)
	assert.Contains(t, envelope.Message, "unavailable")
}

func TestChatRejectsMissingIdentityClaim(t *testing.T) {
	svc := &stubAgentService{}
	app := newTestApp(svc, nil) // valid token, no user_id claim

	status, _ := doChat(t, app)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, uuid.Nil, svc.gotUserId, "service must not run without an identity")
}

func TestChatRejectsMalformedIdentityClaim(t *testing.T) {
	svc := &stubAgentService{}
	app := newTestApp(svc, "not-a-uuid")

	status, _ := doChat(t, app)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, uuid.Nil, svc.gotUserId)
}

func TestHistoryRejectsMissingIdentityClaim(t *testing.T) {
	app := newTestApp(&stubAgentService{}, nil)

	req := httptest.NewRequest("GET", "/agent/v1/history", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
