package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/internal/session/repository"
	"pgfinder_chat_session/pkg/logger"

	"go.uber.org/zap"
)

// 本地驗證失敗直接以 error 回絕，不發任何網路請求、不動任何狀態
var (
	// ErrEmptyContent message content is empty or whitespace-only
	ErrEmptyContent = errors.New("message content is empty")
	// ErrNoSelection no conversation is currently selected
	ErrNoSelection = errors.New("no conversation selected")
	// ErrNoIdentity session has no resolved identity
	ErrNoIdentity = errors.New("no session identity")
	// ErrUnknownConversation conversation id not in the loaded list
	ErrUnknownConversation = errors.New("conversation not found")
)

// ConversationStore in-memory source of truth for the chat session:
// 對話列表、目前選取的對話、選取對話的訊息、每個對話的未讀數、上線名單。
// REST 回應與 socket 事件都經由這裡變更狀態，mu 是唯一的序列化點，
// REST 呼叫在鎖外進行，完成後以 generation 驗證選取未變才寫回。
type ConversationStore struct {
	identity domain.Identity
	backend  repository.BackendAPI
	channel  repository.RealtimeChannel // nil 時降級為 REST-only
	sessions repository.SessionRepository

	mu            sync.Mutex
	conversations []domain.Conversation
	selected      *domain.Conversation
	messages      []domain.Message
	unread        map[string]int
	online        []string
	loading       domain.LoadingState
	errMsg        string

	// selectGen 在每次選取變更時遞增，逾時的歷史回應依此作廢
	selectGen uint64

	subscribers map[uint64]func(domain.Snapshot)
	nextSubID   uint64
}

// NewConversationStore create the store for one resolved session
func NewConversationStore(
	identity domain.Identity,
	backend repository.BackendAPI,
	channel repository.RealtimeChannel,
	sessions repository.SessionRepository,
) *ConversationStore {
	return &ConversationStore{
		identity:    identity,
		backend:     backend,
		channel:     channel,
		sessions:    sessions,
		unread:      make(map[string]int),
		subscribers: make(map[uint64]func(domain.Snapshot)),
	}
}

// Identity return the resolved session identity
func (s *ConversationStore) Identity() domain.Identity {
	return s.identity
}

// Subscribe register a surface for snapshot pushes, returns the id for Unsubscribe
func (s *ConversationStore) Subscribe(fn func(domain.Snapshot)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subscribers[id] = fn
	return id
}

// Unsubscribe remove a surface subscription
func (s *ConversationStore) Unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, id)
}

// LoadConversations fetch the full conversation list and recompute unread counters.
// 失敗時只設 error flag，原有狀態不動
func (s *ConversationStore) LoadConversations(ctx context.Context) error {
	s.mu.Lock()
	s.loading.Conversations = true
	s.errMsg = ""
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()

	convs, err := s.backend.ListConversations(ctx, s.identity.Role, s.identity.UserID)

	s.mu.Lock()
	s.loading.Conversations = false
	if err != nil {
		s.errMsg = "failed to load conversations"
		logger.Log.Errorf("load conversations error:", err, zap.String("userID", s.identity.UserID))
	} else {
		s.conversations = convs
		counts := make(map[string]int, len(convs))
		for _, conv := range convs {
			counts[conv.ID] = conv.UnreadCount
		}
		s.unread = counts
	}
	notify = s.publishLocked()
	s.mu.Unlock()
	notify()

	return err
}

// SelectConversation set the selected conversation, zero its counter and load history.
// 未讀數在回傳前就歸零（optimistic read），badge 立即與開啟的畫面一致
func (s *ConversationStore) SelectConversation(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	conv := s.findLocked(conversationID)
	if conv == nil {
		s.mu.Unlock()
		return ErrUnknownConversation
	}

	conv.UnreadCount = 0
	cp := *conv
	s.selected = &cp
	s.messages = nil
	s.unread[conversationID] = 0
	s.selectGen++
	gen := s.selectGen
	s.loading.Messages = true
	s.errMsg = ""
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()

	s.persistSelection(ctx, cp)

	msgs, err := s.backend.FetchMessages(ctx, conversationID)

	// generation 只保護歷史寫回：選取已變更時作廢這份回應，
	// loading 旗標交給新的選取接手
	s.mu.Lock()
	stale := s.selectGen != gen
	if !stale {
		s.loading.Messages = false
		if err != nil {
			s.errMsg = "failed to load messages"
			logger.Log.Errorf("load messages error:", err, zap.String("conversationID", conversationID))
		} else {
			s.messages = msgs
		}
		notify = s.publishLocked()
	}
	s.mu.Unlock()
	if !stale {
		notify()
	}

	// 計數已在本地歸零，遠端標記照做（冪等），逾時與否都要送，失敗只記 log
	if mrErr := s.backend.MarkRead(ctx, conversationID, s.identity.UserID, s.identity.Role); mrErr != nil {
		logger.Log.Warn("mark read after select failed",
			zap.String("conversationID", conversationID), zap.Error(mrErr))
	}

	if stale {
		return nil
	}
	return err
}

// ClearSelection drop the selected conversation and its history (picker draft mode)
func (s *ConversationStore) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.messages = nil
	s.selectGen++
	// 在途的歷史請求已作廢，不會再有人清 loading 旗標
	s.loading.Messages = false
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// MarkAsRead mark a conversation read remotely and zero its local counter.
// 重複呼叫無害（冪等）
func (s *ConversationStore) MarkAsRead(ctx context.Context, conversationID string) error {
	if err := s.backend.MarkRead(ctx, conversationID, s.identity.UserID, s.identity.Role); err != nil {
		s.mu.Lock()
		s.errMsg = "failed to mark conversation read"
		notify := s.publishLocked()
		s.mu.Unlock()
		notify()
		return err
	}

	s.mu.Lock()
	s.unread[conversationID] = 0
	if conv := s.findLocked(conversationID); conv != nil {
		conv.UnreadCount = 0
	}
	if s.selected != nil && s.selected.ID == conversationID {
		s.selected.UnreadCount = 0
	}
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()

	return nil
}

// SendMessage create the message via REST, append it only after the server confirms.
// 不做 optimistic echo，送失敗不會殘留訊息
func (s *ConversationStore) SendMessage(ctx context.Context, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if s.identity.UserID == "" {
		return nil, ErrNoIdentity
	}

	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	sel := *s.selected
	s.loading.Sending = true
	s.errMsg = ""
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()

	receiverID := sel.Participants.Landlord.ID
	if s.identity.Role == domain.RoleLandlord {
		receiverID = sel.Participants.Tenant.ID
	}

	msg, err := s.backend.SendMessage(ctx, domain.SendMessageRequest{
		SenderID:     s.identity.UserID,
		ReceiverID:   receiverID,
		SenderType:   s.identity.Role,
		ReceiverType: s.identity.Role.Counterpart(),
		Content:      content,
		PropertyID:   sel.Property.ID,
	})

	s.mu.Lock()
	s.loading.Sending = false
	if err != nil {
		s.errMsg = "failed to send message"
		notify = s.publishLocked()
		s.mu.Unlock()
		notify()
		logger.Log.Errorf("send message error:", err, zap.String("conversationID", sel.ID))
		return nil, err
	}

	if s.selected != nil && s.selected.ID == sel.ID {
		s.messages = append(s.messages, *msg)
	}
	s.setLastMessageLocked(sel.ID, domain.LastMessage{
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		SenderID:  msg.SenderID,
	})
	notify = s.publishLocked()
	s.mu.Unlock()
	notify()

	// REST 已持久化，socket 只是 best-effort 通知其他端
	if s.channel != nil {
		if emitErr := s.channel.EmitSendMessage(*msg); emitErr != nil {
			logger.Log.Warn("send-message fan-out failed", zap.Error(emitErr))
		}
	}

	return msg, nil
}

// Ingest apply an inbound realtime message.
// 分支判斷與狀態變更在同一次持鎖內完成：選取中的對話 append 並視為已讀，
// 其餘對話未讀數 +1，兩者恰好擇一
func (s *ConversationStore) Ingest(msg domain.Message) {
	conversationID := msg.PropertyID

	s.mu.Lock()
	selected := s.selected != nil && s.selected.ID == conversationID
	if selected {
		s.messages = append(s.messages, msg)
		s.unread[conversationID] = 0
	} else {
		s.unread[conversationID]++
	}

	s.setLastMessageLocked(conversationID, domain.LastMessage{
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
		SenderID:  msg.SenderID,
	})
	if conv := s.findLocked(conversationID); conv != nil {
		if selected {
			conv.UnreadCount = 0
		} else {
			conv.UnreadCount++
		}
	}
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()

	if selected {
		// 使用者正看著這個對話，直接向遠端回報已讀
		go func() {
			if err := s.backend.MarkRead(context.Background(), conversationID, s.identity.UserID, s.identity.Role); err != nil {
				logger.Log.Warn("mark read for ingested message failed",
					zap.String("conversationID", conversationID), zap.Error(err))
			}
		}()
	}
}

// ReplacePresence wholesale replace of the online user set, last broadcast wins
func (s *ConversationStore) ReplacePresence(userIDs []string) {
	s.mu.Lock()
	s.online = userIDs
	notify := s.publishLocked()
	s.mu.Unlock()
	notify()
}

// TotalUnread badge total over all conversations
func (s *ConversationStore) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalUnreadLocked()
}

// UnreadCount counter for one conversation
func (s *ConversationStore) UnreadCount(conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[conversationID]
}

// Conversations copy of the conversation list
func (s *ConversationStore) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Messages copy of the selected conversation's history
func (s *ConversationStore) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Selected copy of the selected conversation, nil when nothing is selected
func (s *ConversationStore) Selected() *domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	cp := *s.selected
	return &cp
}

// FindConversation look up a conversation by id
func (s *ConversationStore) FindConversation(conversationID string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv := s.findLocked(conversationID); conv != nil {
		return *conv, true
	}
	return domain.Conversation{}, false
}

// FindByLandlordProperty look up a conversation by its landlord/property pair (picker)
func (s *ConversationStore) FindByLandlordProperty(landlordID, propertyID string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.conversations {
		if conv.Participants.Landlord.ID == landlordID && conv.Property.ID == propertyID {
			return conv, true
		}
	}
	return domain.Conversation{}, false
}

// Snapshot current read-only view for surfaces
func (s *ConversationStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ConversationStore) findLocked(conversationID string) *domain.Conversation {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			return &s.conversations[i]
		}
	}
	return nil
}

func (s *ConversationStore) setLastMessageLocked(conversationID string, lm domain.LastMessage) {
	if conv := s.findLocked(conversationID); conv != nil {
		conv.LastMessage = &lm
	}
	if s.selected != nil && s.selected.ID == conversationID {
		s.selected.LastMessage = &lm
	}
}

func (s *ConversationStore) totalUnreadLocked() int {
	total := 0
	for _, count := range s.unread {
		total += count
	}
	return total
}

func (s *ConversationStore) snapshotLocked() domain.Snapshot {
	counts := make(map[string]int, len(s.unread))
	for id, count := range s.unread {
		counts[id] = count
	}
	online := make([]string, len(s.online))
	copy(online, s.online)

	snap := domain.Snapshot{
		TotalUnread:  s.totalUnreadLocked(),
		UnreadCounts: counts,
		OnlineUsers:  online,
		Loading:      s.loading,
		Error:        s.errMsg,
	}
	if s.selected != nil {
		snap.SelectedConversationID = s.selected.ID
	}
	return snap
}

// publishLocked 在鎖內收集訂閱者與快照，回傳的函式在解鎖後呼叫
func (s *ConversationStore) publishLocked() func() {
	snap := s.snapshotLocked()
	subs := make([]func(domain.Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return func() {
		for _, fn := range subs {
			fn(snap)
		}
	}
}

// persistSelection 回寫 UI 選取狀態到 session record，失敗只記 log
func (s *ConversationStore) persistSelection(ctx context.Context, conv domain.Conversation) {
	if s.sessions == nil {
		return
	}
	record, err := s.sessions.Load(ctx)
	if err != nil {
		logger.Log.Warn("load session record failed", zap.Error(err))
		return
	}
	record.SelectedConversationID = conv.ID
	record.SelectedLandlordID = conv.Participants.Landlord.ID
	record.SelectedPropertyID = conv.Property.ID
	record.SelectedPropertyName = conv.Property.Name
	if err := s.sessions.Save(ctx, record); err != nil {
		logger.Log.Warn("save session record failed", zap.Error(err))
	}
}
