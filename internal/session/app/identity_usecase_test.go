package app

import (
	"context"
	"testing"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/database"
	"pgfinder_chat_session/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// 測試 tenant 標記解析
func TestIdentityResolver_ResolveTenant(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	tenantID := uuid.New().String()

	mockSessions := new(MockSessionRepository)
	mockSessions.On("Load", ctx).Return(domain.SessionRecord{TenantID: tenantID}, nil)

	resolver := NewIdentityResolver(mockSessions)
	identity, ok := resolver.Resolve(ctx)

	assert.True(t, ok)
	assert.Equal(t, domain.Identity{UserID: tenantID, Role: domain.RoleTenant}, identity)
}

// 測試 landlord 標記解析
func TestIdentityResolver_ResolveLandlord(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	landlordID := uuid.New().String()

	mockSessions := new(MockSessionRepository)
	mockSessions.On("Load", ctx).Return(domain.SessionRecord{LandlordID: landlordID}, nil)

	resolver := NewIdentityResolver(mockSessions)
	identity, ok := resolver.Resolve(ctx)

	assert.True(t, ok)
	assert.Equal(t, domain.Identity{UserID: landlordID, Role: domain.RoleLandlord}, identity)
}

// 測試兩個標記同時存在時 tenant 優先
func TestIdentityResolver_TenantMarkerWins(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockSessions := new(MockSessionRepository)
	mockSessions.On("Load", ctx).Return(domain.SessionRecord{
		TenantID:   "tenant-1",
		LandlordID: "landlord-1",
	}, nil)

	resolver := NewIdentityResolver(mockSessions)
	identity, ok := resolver.Resolve(ctx)

	assert.True(t, ok)
	assert.Equal(t, domain.RoleTenant, identity.Role)
	assert.Equal(t, "tenant-1", identity.UserID)
}

// 測試匿名 session：沒有任何標記
func TestIdentityResolver_Anonymous(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockSessions := new(MockSessionRepository)
	mockSessions.On("Load", ctx).Return(domain.SessionRecord{}, nil)

	resolver := NewIdentityResolver(mockSessions)
	_, ok := resolver.Resolve(ctx)

	assert.False(t, ok)
}

// 測試 session record 不存在視同匿名
func TestIdentityResolver_MissingRecord(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	mockSessions := new(MockSessionRepository)
	mockSessions.On("Load", ctx).Return(domain.SessionRecord{}, database.ErrKeyNotFound)

	resolver := NewIdentityResolver(mockSessions)
	_, ok := resolver.Resolve(ctx)

	assert.False(t, ok)
}
