package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// RealtimeChannel single bidirectional event channel per session.
// 連線失敗不自動重試，閘道降級為 REST-only 操作
type RealtimeChannel interface {
	Connect(ctx context.Context, identity domain.Identity) error
	OnPresenceUpdate(handler func(userIDs []string))
	OnMessageReceived(handler func(msg domain.Message))
	EmitSendMessage(msg domain.Message) error
	Close() error
}

// ErrChannelClosed channel already torn down
var ErrChannelClosed = errors.New("realtime channel closed")

type wsRealtimeChannel struct {
	url string

	// mu 序列化寫入、handler 派發與關閉，保證 Close 之後不再有回呼
	mu              sync.Mutex
	conn            *websocket.Conn
	closed          bool
	presenceHandler func(userIDs []string)
	messageHandler  func(msg domain.Message)
}

// NewWebsocketChannel create the upstream realtime channel
func NewWebsocketChannel(socketURL string) RealtimeChannel {
	return &wsRealtimeChannel{url: socketURL}
}

// OnPresenceUpdate register the presence-update subscriber (set before Connect)
func (c *wsRealtimeChannel) OnPresenceUpdate(handler func(userIDs []string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presenceHandler = handler
}

// OnMessageReceived register the message-received subscriber (set before Connect)
func (c *wsRealtimeChannel) OnMessageReceived(handler func(msg domain.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageHandler = handler
}

// Connect dial the socket and register presence with a join event
func (c *wsRealtimeChannel) Connect(ctx context.Context, identity domain.Identity) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrChannelClosed
	}
	c.conn = conn

	// 連上後先送 join，伺服器以此註冊上線狀態
	if err := c.writeEventLocked(domain.EventJoin, domain.JoinPayload{
		UserID:   identity.UserID,
		UserType: identity.Role,
	}); err != nil {
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		return err
	}
	c.mu.Unlock()

	go c.readLoop(conn)

	return nil
}

// EmitSendMessage best-effort fan-out after a successful REST send
func (c *wsRealtimeChannel) EmitSendMessage(msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return ErrChannelClosed
	}
	return c.writeEventLocked(domain.EventSendMessage, msg)
}

// Close tear down the channel and deregister all listeners
func (c *wsRealtimeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.presenceHandler = nil
	c.messageHandler = nil

	if c.conn == nil {
		return nil
	}

	// 通知對端正常關閉，read loop 會因連線關閉而結束
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *wsRealtimeChannel) writeEventLocked(event domain.EventName, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(domain.Envelope{Event: event, Payload: raw})
}

func (c *wsRealtimeChannel) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Info("realtime channel closed", zap.Error(err))
			} else {
				c.mu.Lock()
				closed := c.closed
				c.mu.Unlock()
				if !closed {
					// 斷線後靜默降級，presence 與推播停止更新
					logger.Log.Warn("realtime channel read error", zap.Error(err))
				}
			}
			return
		}

		var envelope domain.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			logger.Log.Warn("realtime envelope unmarshal error", zap.Error(err))
			continue
		}

		c.dispatch(envelope)
	}
}

// dispatch 在鎖內派發，與 Close 互斥，Close 後不會再觸發任何 handler
func (c *wsRealtimeChannel) dispatch(envelope domain.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	switch envelope.Event {
	case domain.EventPresenceUpdate:
		if c.presenceHandler == nil {
			return
		}
		var users []domain.PresenceUser
		if err := json.Unmarshal(envelope.Payload, &users); err != nil {
			logger.Log.Warn("presence payload unmarshal error", zap.Error(err))
			return
		}
		userIDs := make([]string, 0, len(users))
		for _, u := range users {
			userIDs = append(userIDs, u.UserID)
		}
		c.presenceHandler(userIDs)

	case domain.EventMessageReceived:
		if c.messageHandler == nil {
			return
		}
		var msg domain.Message
		if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
			logger.Log.Warn("message payload unmarshal error", zap.Error(err))
			return
		}
		c.messageHandler(msg)

	default:
		logger.Log.Debug("unknown realtime event", zap.String("event", string(envelope.Event)))
	}
}
