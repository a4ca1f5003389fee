package app

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"textflow/internal/chat/domain"
	"textflow/pkg/logger"
	"textflow/pkg/middlewares"
)

// MessageSubscriber 訂閱房間 channel 的新訊息事件
type MessageSubscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(msg domain.ChatMessage))
}

// ChatWebsocketHandler 處理訊息訂閱連線：先補歷史，再接即時事件
type ChatWebsocketHandler struct {
	messageUC MessageUseCase
	sub       MessageSubscriber
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(messageUC MessageUseCase, sub MessageSubscriber) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{messageUC: messageUC, sub: sub}
}

// HandleConnection 是 WebSocket 連線的進入點
// channel 本身不保證重播，斷線後用 ?after=<最後收到的序號> 重連補洞。
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	mID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	roomID, err := strconv.ParseUint(conn.Query("room_id"), 10, 64)
	if err != nil || roomID == 0 {
		h.sendError(conn, "invalid room_id")
		conn.Close()
		return
	}
	after, _ := strconv.ParseUint(conn.Query("after"), 10, 64)

	ctxClose, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(30 * time.Second)

	defer func() {
		ticker.Stop()
		cancel()
		conn.Close()
		logger.Log.Info("websocket close",
			zap.String("member_id", mID), zap.Uint64("room_id", roomID))
	}()

	// 先補洞再訂閱，兩段之間的訊息會在訂閱後重複收到，前端以序號去重
	history, err := h.messageUC.ListAfter(ctx, roomID, after)
	if err != nil {
		logger.Log.Error("history fetch failed",
			zap.Uint64("room_id", roomID), zap.Error(err))
		h.sendError(conn, "history unavailable")
		return
	}
	h.sendResponse(conn, domain.WSResponse{
		Action:  string(domain.HistoryMessages),
		Success: true,
		Payload: map[string]interface{}{"messages": history},
	})

	h.sub.Subscribe(ctxClose, domain.RoomChannel(roomID), func(msg domain.ChatMessage) {
		h.sendResponse(conn, domain.WSResponse{
			Action:  string(domain.NotifyMessage),
			Success: true,
			Payload: map[string]interface{}{
				"message_id": msg.ID,
				"member_id":  msg.MemberID,
				"nickname":   msg.Nickname,
				"content":    msg.Content,
				"created_at": msg.CreatedAt,
			},
		})
	})

	// 定期發送 Ping，偵測斷線
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	// 這條連線只出不進，read loop 只為偵測 close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Warn("websocket read error",
					zap.String("member_id", mID), zap.Error(err))
			}
			return
		}
	}
}

// sendResponse - 發送 JSON 給前端
func (h *ChatWebsocketHandler) sendResponse(conn *websocket.Conn, resp domain.WSResponse) {
	b, _ := json.Marshal(resp)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		logger.Log.Warn("websocket write failed", zap.Error(err))
	}
}

func (h *ChatWebsocketHandler) sendError(conn *websocket.Conn, errorMsg string) {
	h.sendResponse(conn, domain.WSResponse{
		Action: string(domain.NotifyError),
		Error:  errorMsg,
	})
}
