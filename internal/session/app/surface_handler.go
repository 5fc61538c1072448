package app

import (
	"errors"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg"

	"github.com/gofiber/fiber/v2"
)

// 通知面板點擊後要導向的角色專屬聊天頁
const (
	tenantMessagesRoute   = "/tenant/tenant-dashboard/messages"
	landlordMessagesRoute = "/landlord-dashboard/messages"
)

// SurfaceHandler read-only projections over the store plus the mutator path.
// 回應沿用遠端 API 的 error/data 外殼，前端共用同一套解析
type SurfaceHandler struct {
	store  *ConversationStore
	picker *PickerUseCase
}

// NewSurfaceHandler create the surface handler
func NewSurfaceHandler(store *ConversationStore, picker *PickerUseCase) *SurfaceHandler {
	return &SurfaceHandler{store: store, picker: picker}
}

// GetBadge total unread count for the header badge
func (h *SurfaceHandler) GetBadge(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"error": false,
		"data":  fiber.Map{"totalUnread": h.store.TotalUnread()},
	})
}

// notificationEntry dropdown panel entry
type notificationEntry struct {
	Conversation  domain.Conversation `json:"conversation"`
	UnreadCount   int                 `json:"unreadCount"`
	Preview       string              `json:"preview"`
	MessagesRoute string              `json:"messagesRoute"`
}

// GetNotifications conversations with unread messages for the dropdown panel
func (h *SurfaceHandler) GetNotifications(c *fiber.Ctx) error {
	snap := h.store.Snapshot()
	route := h.messagesRoute()

	entries := make([]notificationEntry, 0)
	for _, conv := range h.store.Conversations() {
		count := snap.UnreadCounts[conv.ID]
		if count <= 0 {
			continue
		}
		preview := "New conversation"
		if conv.LastMessage != nil {
			preview = conv.LastMessage.Content
		}
		entries = append(entries, notificationEntry{
			Conversation:  conv,
			UnreadCount:   count,
			Preview:       preview,
			MessagesRoute: route,
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"totalUnread":   snap.TotalUnread,
			"notifications": entries,
		},
	})
}

// GetConversations full conversation list with counters
func (h *SurfaceHandler) GetConversations(c *fiber.Ctx) error {
	snap := h.store.Snapshot()
	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"conversations": h.store.Conversations(),
			"unreadCounts":  snap.UnreadCounts,
			"loading":       snap.Loading,
			"message":       snap.Error,
		},
	})
}

// ReloadConversations on-demand refetch of the conversation list
func (h *SurfaceHandler) ReloadConversations(c *fiber.Ctx) error {
	if err := h.store.LoadConversations(c.Context()); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
	return h.GetConversations(c)
}

// SelectConversation open a conversation: zero its counter, load its history
func (h *SurfaceHandler) SelectConversation(c *fiber.Ctx) error {
	conversationID := c.Params("id")

	err := h.store.SelectConversation(c.Context(), conversationID)
	if errors.Is(err, ErrUnknownConversation) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "conversation not found",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"conversation":  h.store.Selected(),
			"messages":      h.store.Messages(),
			"messagesRoute": h.messagesRoute(),
		},
	})
}

// GetMessages history of the selected conversation
func (h *SurfaceHandler) GetMessages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"conversation": h.store.Selected(),
			"messages":     h.store.Messages(),
		},
	})
}

type sendMessageBody struct {
	Content string `json:"content"`
}

// SendMessage send on the selected conversation
func (h *SurfaceHandler) SendMessage(c *fiber.Ctx) error {
	var body sendMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "invalid request body",
		})
	}

	msg, err := h.store.SendMessage(c.Context(), body.Content)
	switch {
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrNoSelection), errors.Is(err, ErrNoIdentity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   true,
			"message": "failed to send message",
		})
	}

	return c.JSON(fiber.Map{"error": false, "data": msg})
}

// MarkRead explicit mark-read for one conversation
func (h *SurfaceHandler) MarkRead(c *fiber.Ctx) error {
	conversationID := c.Params("id")
	if err := h.store.MarkAsRead(c.Context(), conversationID); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   true,
			"message": "failed to mark conversation read",
		})
	}
	return c.JSON(fiber.Map{"error": false})
}

// GetPresence online user list; with ?userId= returns a single online flag
func (h *SurfaceHandler) GetPresence(c *fiber.Ctx) error {
	snap := h.store.Snapshot()

	if userID := c.Query("userId"); userID != "" {
		return c.JSON(fiber.Map{
			"error": false,
			"data":  fiber.Map{"userId": userID, "online": pkg.Contains(snap.OnlineUsers, userID)},
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data":  fiber.Map{"onlineUsers": snap.OnlineUsers},
	})
}

// ListLandlords tenant picker level 1
func (h *SurfaceHandler) ListLandlords(c *fiber.Ctx) error {
	landlords, err := h.picker.ListLandlords(c.Context())
	if err != nil {
		return h.pickerError(c, err)
	}
	return c.JSON(fiber.Map{"error": false, "data": landlords})
}

// ListLandlordProperties tenant picker level 2
func (h *SurfaceHandler) ListLandlordProperties(c *fiber.Ctx) error {
	props, err := h.picker.ListProperties(c.Context(), c.Params("id"))
	if err != nil {
		return h.pickerError(c, err)
	}
	return c.JSON(fiber.Map{"error": false, "data": props})
}

// SelectLandlord tenant picker: switch landlord, clears property and conversation.
// 回傳物件列表；只有一個物件時已自動選取
func (h *SurfaceHandler) SelectLandlord(c *fiber.Ctx) error {
	props, err := h.picker.SelectLandlord(c.Context(), c.Params("id"))
	if err != nil {
		return h.pickerError(c, err)
	}
	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"properties":   props,
			"conversation": h.store.Selected(),
		},
	})
}

type selectPropertyBody struct {
	LandlordID   string `json:"landlordId"`
	PropertyID   string `json:"propertyId"`
	PropertyName string `json:"propertyName"`
}

// SelectProperty tenant picker level 3: existing conversation or draft mode
func (h *SurfaceHandler) SelectProperty(c *fiber.Ctx) error {
	var body selectPropertyBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "invalid request body",
		})
	}

	hasConversation, err := h.picker.SelectProperty(c.Context(), body.LandlordID, domain.Property{
		ID:   body.PropertyID,
		Name: body.PropertyName,
	})
	if err != nil {
		return h.pickerError(c, err)
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"hasConversation": hasConversation,
			"conversation":    h.store.Selected(),
		},
	})
}

type firstMessageBody struct {
	LandlordID string `json:"landlordId"`
	PropertyID string `json:"propertyId"`
	Content    string `json:"content"`
}

// SendFirstMessage first send on a draft, adopts the server-created conversation
func (h *SurfaceHandler) SendFirstMessage(c *fiber.Ctx) error {
	var body firstMessageBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "invalid request body",
		})
	}

	conv, err := h.picker.SendFirstMessage(c.Context(), body.LandlordID, body.PropertyID, body.Content)
	switch {
	case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrNotTenant):
		return h.pickerError(c, err)
	case err != nil:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   true,
			"message": "failed to send message",
		})
	}

	return c.JSON(fiber.Map{
		"error": false,
		"data": fiber.Map{
			"conversation": conv,
			"messages":     h.store.Messages(),
		},
	})
}

func (h *SurfaceHandler) messagesRoute() string {
	if h.store.Identity().Role == domain.RoleLandlord {
		return landlordMessagesRoute
	}
	return tenantMessagesRoute
}

func (h *SurfaceHandler) pickerError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway
	switch {
	case errors.Is(err, ErrNotTenant):
		status = fiber.StatusForbidden
	case errors.Is(err, ErrEmptyContent):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
