package app

import (
	"time"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// SurfaceWebsocketHandler pushes store snapshots to a mounted surface.
// header badge、通知面板、聊天頁可同時各掛一條連線
type SurfaceWebsocketHandler struct {
	store *ConversationStore
}

// NewSurfaceWebsocketHandler create the surface push handler
func NewSurfaceWebsocketHandler(store *ConversationStore) *SurfaceWebsocketHandler {
	return &SurfaceWebsocketHandler{store: store}
}

// HandleConnection 是 surface WebSocket 連線的進入點
func (h *SurfaceWebsocketHandler) HandleConnection(conn *websocket.Conn) {
	snapshots := make(chan domain.Snapshot, 16)

	subID := h.store.Subscribe(func(snap domain.Snapshot) {
		select {
		case snapshots <- snap:
		default:
			// surface 消化不及時丟掉這一筆，下一筆快照仍是全量狀態
		}
	})

	ticker := time.NewTicker(1 * time.Minute)
	done := make(chan struct{})

	defer func() {
		ticker.Stop()
		h.store.Unsubscribe(subID)
		conn.Close()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Debug("surface websocket closed", zap.String("remote", conn.RemoteAddr().String()))
		return nil
	})

	// read loop 只用來偵測 surface 關閉
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 掛上來先推一次目前狀態
	if err := conn.WriteJSON(h.store.Snapshot()); err != nil {
		logger.Log.Warn("surface snapshot write error", zap.Error(err))
		return
	}

	for {
		select {
		case snap := <-snapshots:
			if err := conn.WriteJSON(snap); err != nil {
				logger.Log.Warn("surface snapshot write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				logger.Log.Debug("surface ping error", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
