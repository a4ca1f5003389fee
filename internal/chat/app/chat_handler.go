package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"textflow/internal/chat/domain"
	"textflow/pkg/logger"
	"textflow/pkg/middlewares"
	"textflow/pkg/token"
)

// ChatHandler definition chat REST handler
type ChatHandler struct {
	RoomUC    RoomUseCase
	MessageUC MessageUseCase
}

// NewChatHandler create ChatHandler
func NewChatHandler(roomUC RoomUseCase, messageUC MessageUseCase) *ChatHandler {
	return &ChatHandler{RoomUC: roomUC, MessageUC: messageUC}
}

// AnonymousSession 匿名登入：發一個帶新 member id 的 token，僅此而已
func (h *ChatHandler) AnonymousSession(c *fiber.Ctx) error {
	memberID := uuid.New().String()
	t, err := token.GenerateJWT(memberID, "textflow")
	if err != nil {
		logger.Log.Error("issue anonymous token failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "INTERNAL"})
	}
	return c.JSON(fiber.Map{"member_id": memberID, "token": t})
}

// CreateRoom POST /rooms
func (h *ChatHandler) CreateRoom(c *fiber.Ctx) error {
	room, err := h.RoomUC.CreateRoom(c.UserContext(), memberID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"room_id":    room.ID,
		"code":       room.Code,
		"expires_at": room.ExpiresAt,
	})
}

// JoinRoom POST /rooms/join
func (h *ChatHandler) JoinRoom(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.ErrInvalidRoomCode)
	}
	room, err := h.RoomUC.JoinRoom(c.UserContext(), memberID(c), req.Code, middlewares.ClientIP(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"room_id":    room.ID,
		"expires_at": room.ExpiresAt,
	})
}

// SetNickname PUT /rooms/:id/nickname
func (h *ChatHandler) SetNickname(c *fiber.Ctx) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.ErrInvalidNickname)
	}
	nickname, err := h.RoomUC.SetNickname(c.UserContext(), memberID(c), roomID, req.Nickname)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"nickname": nickname})
}

// SendMessage POST /rooms/:id/messages
// 回傳整筆訊息，發送者不用等通知 channel 就能立刻渲染自己的訊息
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.ErrInvalidMessageLength)
	}
	msg, err := h.MessageUC.Send(c.UserContext(), memberID(c), roomID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(msg)
}

// ListMessages GET /rooms/:id/messages?after=<seq>
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	if memberID(c) == "" {
		return respondError(c, domain.ErrAuthRequired)
	}
	after, _ := strconv.ParseUint(c.Query("after", "0"), 10, 64)
	msgs, err := h.MessageUC.ListAfter(c.UserContext(), roomID, after)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// TouchMember POST /rooms/:id/touch
func (h *ChatHandler) TouchMember(c *fiber.Ctx) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.RoomUC.Touch(c.UserContext(), memberID(c), roomID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// LeaveRoom DELETE /rooms/:id/member
func (h *ChatHandler) LeaveRoom(c *fiber.Ctx) error {
	roomID, err := roomIDParam(c)
	if err != nil {
		return respondError(c, err)
	}
	destroyed, err := h.RoomUC.LeaveRoom(c.UserContext(), memberID(c), roomID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"destroyed": destroyed})
}

func memberID(c *fiber.Ctx) string {
	id, _ := c.Locals(middlewares.TokenMemberID).(string)
	return id
}

func roomIDParam(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrRoomMemberNotFound
	}
	return id, nil
}

// respondError 業務錯誤以固定 code 回給前端翻譯，infra 錯誤一律 500
func respondError(c *fiber.Ctx, err error) error {
	var chatErr *domain.ChatError
	if errors.As(err, &chatErr) {
		return c.Status(statusForCode(chatErr)).JSON(fiber.Map{"error": chatErr.Code})
	}
	logger.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "INTERNAL"})
}

func statusForCode(err *domain.ChatError) int {
	switch err {
	case domain.ErrAuthRequired:
		return http.StatusUnauthorized
	case domain.ErrJoinRateLimitUser, domain.ErrJoinRateLimitIP:
		return http.StatusTooManyRequests
	case domain.ErrRoomNotFoundOrExpired, domain.ErrRoomMemberNotFound:
		return http.StatusNotFound
	case domain.ErrRoomCreateRetryExceeded:
		return http.StatusServiceUnavailable
	default:
		// INVALID_ROOM_CODE / INVALID_NICKNAME / INVALID_MESSAGE_LENGTH / NICKNAME_REQUIRED
		return http.StatusBadRequest
	}
}
