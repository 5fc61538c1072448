package app

import (
	"context"

	"pgfinder_chat_session/internal/session/domain"

	"github.com/stretchr/testify/mock"
)

// MockBackendAPI Mock BackendAPI
type MockBackendAPI struct {
	mock.Mock
}

// ListConversations moke list conversations by role & user id
func (m *MockBackendAPI) ListConversations(ctx context.Context, role domain.Role, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, role, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchMessages moke fetch conversation history
func (m *MockBackendAPI) FetchMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// SendMessage moke create message
func (m *MockBackendAPI) SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.Message, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead moke mark conversation read
func (m *MockBackendAPI) MarkRead(ctx context.Context, conversationID, userID string, role domain.Role) error {
	args := m.Called(ctx, conversationID, userID, role)
	return args.Error(0)
}

// ListLandlords moke list landlords
func (m *MockBackendAPI) ListLandlords(ctx context.Context) ([]domain.Landlord, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Landlord), args.Error(1)
	}
	return nil, args.Error(1)
}

// ListLandlordProperties moke list a landlord's properties
func (m *MockBackendAPI) ListLandlordProperties(ctx context.Context, landlordID string) ([]domain.Property, error) {
	args := m.Called(ctx, landlordID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRealtimeChannel Mock RealtimeChannel
type MockRealtimeChannel struct {
	mock.Mock
}

// Connect moke dial the upstream socket
func (m *MockRealtimeChannel) Connect(ctx context.Context, identity domain.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// OnPresenceUpdate moke register presence handler
func (m *MockRealtimeChannel) OnPresenceUpdate(handler func(userIDs []string)) {
	m.Called(handler)
}

// OnMessageReceived moke register message handler
func (m *MockRealtimeChannel) OnMessageReceived(handler func(msg domain.Message)) {
	m.Called(handler)
}

// EmitSendMessage moke fan-out after send
func (m *MockRealtimeChannel) EmitSendMessage(msg domain.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

// Close moke tear down
func (m *MockRealtimeChannel) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockSessionRepository Mock SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

// Load moke load session record
func (m *MockSessionRepository) Load(ctx context.Context) (domain.SessionRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SessionRecord), args.Error(1)
}

// Save moke save session record
func (m *MockSessionRepository) Save(ctx context.Context, record domain.SessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
