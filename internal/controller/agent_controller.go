package controller

import (
	"bufio"

	"crm-analytics-be/internal/dto"
	"crm-analytics-be/internal/pkg/serverutils"
	"crm-analytics-be/internal/service"
	"crm-analytics-be/pkg/agent/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	ChatStream(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type agentController struct {
	agentService service.IAgentService
}

func NewAgentController(agentService service.IAgentService) IAgentController {
	return &agentController{
		agentService: agentService,
	}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("chat/stream", c.ChatStream)
	h.Post("chat", c.Chat)
	h.Get("history", c.History)
}

// userID pulls the authenticated subject set by the JWT middleware. A
// validly signed token may still lack the claim or carry garbage, so
// both the type and the uuid shape are checked here.
func userID(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Missing user identity")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user identity")
	}
	return id, nil
}

// ChatStream answers over SSE: one `data:` frame per pipeline event,
// connection closed after the terminal event.
func (c *agentController) ChatStream(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// ctx.Context() is the fasthttp request context; it is cancelled
	// when the client disconnects, which stops the pipeline.
	events, err := c.agentService.Chat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for ev := range events {
			if err := stream.WriteSSE(w, ev); err != nil {
				// Client went away; the service drains the rest.
				return
			}
		}
	}))

	return nil
}

// Chat is the non-streaming variant: the pipeline runs to completion
// and only the final answer or chat payload is returned. An
// error-terminated run surfaces as an error envelope.
func (c *agentController) Chat(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.agentService.ChatBuffered(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success run agent", res))
}

func (c *agentController) History(ctx *fiber.Ctx) error {
	userId, err := userID(ctx)
	if err != nil {
		return err
	}

	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.agentService.History(ctx.Context(), userId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}
