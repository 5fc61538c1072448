package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newSurfaceApp(h *SurfaceHandler) *fiber.App {
	r := fiber.New()
	chat := r.Group("/chat")
	chat.Get("/badge", h.GetBadge)
	chat.Get("/notifications", h.GetNotifications)
	chat.Get("/conversations", h.GetConversations)
	chat.Get("/messages", h.GetMessages)
	chat.Get("/presence", h.GetPresence)
	chat.Post("/conversations/:id/select", h.SelectConversation)
	chat.Post("/messages", h.SendMessage)
	chat.Put("/read/:id", h.MarkRead)
	return r
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	raw, err := io.ReadAll(body)
	assert.NoError(t, err)

	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// 測試 header badge 端點
func TestSurfaceHandler_GetBadge(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockBackend := new(MockBackendAPI)
	store := newLoadedStore(t, ctx, mockBackend, nil, []domain.Conversation{
		testConv("prop-1", 2),
		testConv("prop-2", 1),
	})
	h := NewSurfaceHandler(store, NewPickerUseCase(mockBackend, store, nil))

	resp, err := newSurfaceApp(h).Test(httptest.NewRequest("GET", "/chat/badge", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, false, body["error"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["totalUnread"])
}

// 測試通知面板：只列未讀、沒有 lastMessage 時給固定 preview
func TestSurfaceHandler_GetNotifications(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	withLast := testConv("prop-1", 2)
	withLast.LastMessage = &domain.LastMessage{Content: "See you tomorrow", SenderID: testLandlordID}

	mockBackend := new(MockBackendAPI)
	store := newLoadedStore(t, ctx, mockBackend, nil, []domain.Conversation{
		withLast,
		testConv("prop-2", 1),
		testConv("prop-3", 0),
	})
	h := NewSurfaceHandler(store, NewPickerUseCase(mockBackend, store, nil))

	resp, err := newSurfaceApp(h).Test(httptest.NewRequest("GET", "/chat/notifications", nil))
	assert.NoError(t, err)

	body := decodeBody(t, resp.Body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["totalUnread"])

	entries := data["notifications"].([]interface{})
	assert.Len(t, entries, 2)

	first := entries[0].(map[string]interface{})
	assert.Equal(t, "See you tomorrow", first["preview"])
	assert.Equal(t, "/tenant/tenant-dashboard/messages", first["messagesRoute"])

	second := entries[1].(map[string]interface{})
	assert.Equal(t, "New conversation", second["preview"])
}

// 測試選取不存在的對話回 404
func TestSurfaceHandler_SelectUnknownConversation(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockBackend := new(MockBackendAPI)
	store := newLoadedStore(t, ctx, mockBackend, nil, []domain.Conversation{
		testConv("prop-1", 0),
	})
	h := NewSurfaceHandler(store, NewPickerUseCase(mockBackend, store, nil))

	resp, err := newSurfaceApp(h).Test(httptest.NewRequest("POST", "/chat/conversations/prop-x/select", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, true, body["error"])
}

// 測試空白內容回 400、不打遠端
func TestSurfaceHandler_SendMessageEmptyContent(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockBackend := new(MockBackendAPI)
	store := newLoadedStore(t, ctx, mockBackend, nil, []domain.Conversation{
		testConv("prop-1", 0),
	})
	h := NewSurfaceHandler(store, NewPickerUseCase(mockBackend, store, nil))

	req := httptest.NewRequest("POST", "/chat/messages", strings.NewReader(`{"content":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := newSurfaceApp(h).Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	mockBackend.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

// 測試 presence 查詢：全量與單一使用者
func TestSurfaceHandler_GetPresence(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockBackend := new(MockBackendAPI)
	store := newLoadedStore(t, ctx, mockBackend, nil, nil)
	store.ReplacePresence([]string{"tenant-1", "landlord-1"})
	h := NewSurfaceHandler(store, NewPickerUseCase(mockBackend, store, nil))

	r := newSurfaceApp(h)

	resp, err := r.Test(httptest.NewRequest("GET", "/chat/presence", nil))
	assert.NoError(t, err)
	data := decodeBody(t, resp.Body)["data"].(map[string]interface{})
	assert.Len(t, data["onlineUsers"].([]interface{}), 2)

	resp, err = r.Test(httptest.NewRequest("GET", "/chat/presence?userId=landlord-1", nil))
	assert.NoError(t, err)
	data = decodeBody(t, resp.Body)["data"].(map[string]interface{})
	assert.Equal(t, true, data["online"])

	resp, err = r.Test(httptest.NewRequest("GET", "/chat/presence?userId=nobody", nil))
	assert.NoError(t, err)
	data = decodeBody(t, resp.Body)["data"].(map[string]interface{})
	assert.Equal(t, false, data["online"])
}
