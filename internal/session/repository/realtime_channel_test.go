package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

var upgrader = websocket.Upgrader{}

// fakeSocketServer 模擬遠端 socket 端，回傳收到的 envelope 與可寫入的連線
func fakeSocketServer(t *testing.T, onConn func(conn *websocket.Conn)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		onConn(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// 測試連線後先送出 join 事件
func TestWebsocketChannel_ConnectSendsJoin(t *testing.T) {
	logger.SetNewNop()

	received := make(chan domain.Envelope, 1)
	server := fakeSocketServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		var envelope domain.Envelope
		if err := conn.ReadJSON(&envelope); err == nil {
			received <- envelope
		}
	})
	defer server.Close()

	channel := NewWebsocketChannel(wsURL(server))
	defer channel.Close()

	err := channel.Connect(context.Background(), domain.Identity{
		UserID: "tenant-1", Role: domain.RoleTenant,
	})
	assert.NoError(t, err)

	select {
	case envelope := <-received:
		assert.Equal(t, domain.EventJoin, envelope.Event)

		var payload domain.JoinPayload
		assert.NoError(t, json.Unmarshal(envelope.Payload, &payload))
		assert.Equal(t, "tenant-1", payload.UserID)
		assert.Equal(t, domain.RoleTenant, payload.UserType)
	case <-time.After(2 * time.Second):
		t.Fatal("join event not received")
	}
}

// 測試 message-received 與 presence-update 的派發
func TestWebsocketChannel_Dispatch(t *testing.T) {
	logger.SetNewNop()

	joined := make(chan *websocket.Conn, 1)
	server := fakeSocketServer(t, func(conn *websocket.Conn) {
		var envelope domain.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			conn.Close()
			return
		}
		joined <- conn
	})
	defer server.Close()

	channel := NewWebsocketChannel(wsURL(server))
	defer channel.Close()

	messages := make(chan domain.Message, 1)
	presence := make(chan []string, 1)
	channel.OnMessageReceived(func(msg domain.Message) { messages <- msg })
	channel.OnPresenceUpdate(func(userIDs []string) { presence <- userIDs })

	err := channel.Connect(context.Background(), domain.Identity{
		UserID: "tenant-1", Role: domain.RoleTenant,
	})
	assert.NoError(t, err)

	serverConn := <-joined
	defer serverConn.Close()

	msgPayload, _ := json.Marshal(domain.Message{
		ID: "msg-1", PropertyID: "prop-1", SenderID: "landlord-1", Content: "hello",
	})
	assert.NoError(t, serverConn.WriteJSON(domain.Envelope{
		Event: domain.EventMessageReceived, Payload: msgPayload,
	}))

	presencePayload, _ := json.Marshal([]domain.PresenceUser{
		{UserID: "tenant-1"}, {UserID: "landlord-1"},
	})
	assert.NoError(t, serverConn.WriteJSON(domain.Envelope{
		Event: domain.EventPresenceUpdate, Payload: presencePayload,
	}))

	select {
	case msg := <-messages:
		assert.Equal(t, "msg-1", msg.ID)
		assert.Equal(t, "hello", msg.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("message event not dispatched")
	}

	select {
	case userIDs := <-presence:
		assert.Equal(t, []string{"tenant-1", "landlord-1"}, userIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("presence event not dispatched")
	}
}

// 測試 EmitSendMessage 送出 send-message envelope
func TestWebsocketChannel_EmitSendMessage(t *testing.T) {
	logger.SetNewNop()

	received := make(chan domain.Envelope, 2)
	server := fakeSocketServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		for {
			var envelope domain.Envelope
			if err := conn.ReadJSON(&envelope); err != nil {
				return
			}
			received <- envelope
		}
	})
	defer server.Close()

	channel := NewWebsocketChannel(wsURL(server))
	defer channel.Close()

	assert.NoError(t, channel.Connect(context.Background(), domain.Identity{
		UserID: "tenant-1", Role: domain.RoleTenant,
	}))
	<-received // join

	err := channel.EmitSendMessage(domain.Message{
		ID: "msg-1", PropertyID: "prop-1", SenderID: "tenant-1", Content: "hello",
	})
	assert.NoError(t, err)

	select {
	case envelope := <-received:
		assert.Equal(t, domain.EventSendMessage, envelope.Event)

		var msg domain.Message
		assert.NoError(t, json.Unmarshal(envelope.Payload, &msg))
		assert.Equal(t, "msg-1", msg.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("send-message event not received")
	}
}

// 測試 Close 之後不再觸發任何 handler，Emit 回傳 ErrChannelClosed
func TestWebsocketChannel_Close(t *testing.T) {
	logger.SetNewNop()

	joined := make(chan *websocket.Conn, 1)
	server := fakeSocketServer(t, func(conn *websocket.Conn) {
		var envelope domain.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			conn.Close()
			return
		}
		joined <- conn
	})
	defer server.Close()

	channel := NewWebsocketChannel(wsURL(server))

	called := make(chan struct{}, 1)
	channel.OnMessageReceived(func(msg domain.Message) { called <- struct{}{} })

	assert.NoError(t, channel.Connect(context.Background(), domain.Identity{
		UserID: "tenant-1", Role: domain.RoleTenant,
	}))
	serverConn := <-joined
	defer serverConn.Close()

	assert.NoError(t, channel.Close())

	// 關閉後伺服器再推訊息也不會觸發 handler
	msgPayload, _ := json.Marshal(domain.Message{ID: "msg-1", PropertyID: "prop-1"})
	_ = serverConn.WriteJSON(domain.Envelope{
		Event: domain.EventMessageReceived, Payload: msgPayload,
	})

	select {
	case <-called:
		t.Fatal("handler fired after Close")
	case <-time.After(300 * time.Millisecond):
	}

	assert.ErrorIs(t, channel.EmitSendMessage(domain.Message{ID: "msg-2"}), ErrChannelClosed)
	assert.NoError(t, channel.Close())
}

// 測試 Close 先於 Connect
func TestWebsocketChannel_ConnectAfterClose(t *testing.T) {
	logger.SetNewNop()

	server := fakeSocketServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	defer server.Close()

	channel := NewWebsocketChannel(wsURL(server))
	assert.NoError(t, channel.Close())

	err := channel.Connect(context.Background(), domain.Identity{
		UserID: "tenant-1", Role: domain.RoleTenant,
	})
	assert.ErrorIs(t, err, ErrChannelClosed)
}
