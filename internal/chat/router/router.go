package router

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"textflow/internal/chat/app"
	"textflow/pkg/middlewares"
)

// RegisterRoutes 註冊聊天相關的路由
func RegisterRoutes(r *fiber.App, h *app.ChatHandler, ws *app.ChatWebsocketHandler) {
	r.Post("/auth/anonymous", h.AnonymousSession)

	api := r.Group("/", middlewares.JWTMiddleware())
	api.Post("/rooms", h.CreateRoom)
	api.Post("/rooms/join", h.JoinRoom)
	api.Put("/rooms/:id/nickname", h.SetNickname)
	api.Post("/rooms/:id/messages", h.SendMessage)
	api.Get("/rooms/:id/messages", h.ListMessages)
	api.Post("/rooms/:id/touch", h.TouchMember)
	api.Delete("/rooms/:id/member", h.LeaveRoom)

	api.Get("/ws", websocket.New(func(c *websocket.Conn) {
		ws.HandleConnection(context.Background(), c)
	}))
}
