package router

import (
	"pgfinder_chat_session/internal/session/app"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 註冊 surface 相關的路由
func RegisterRoutes(r *fiber.App, guard fiber.Handler, h *app.SurfaceHandler, ws *app.SurfaceWebsocketHandler) {
	chat := r.Group("/chat", guard)

	// read-only projections
	chat.Get("/badge", h.GetBadge)
	chat.Get("/notifications", h.GetNotifications)
	chat.Get("/conversations", h.GetConversations)
	chat.Get("/messages", h.GetMessages)
	chat.Get("/presence", h.GetPresence)

	// mutator path
	chat.Post("/conversations/reload", h.ReloadConversations)
	chat.Post("/conversations/:id/select", h.SelectConversation)
	chat.Post("/messages", h.SendMessage)
	chat.Put("/read/:id", h.MarkRead)

	// tenant picker
	chat.Get("/tenant/landlords", h.ListLandlords)
	chat.Get("/tenant/landlords/:id/properties", h.ListLandlordProperties)
	chat.Post("/tenant/landlords/:id/select", h.SelectLandlord)
	chat.Post("/tenant/properties/select", h.SelectProperty)
	chat.Post("/tenant/messages/first", h.SendFirstMessage)

	// snapshot push for mounted surfaces
	chat.Get("/ws", websocket.New(func(c *websocket.Conn) {
		ws.HandleConnection(c)
	}))
}
