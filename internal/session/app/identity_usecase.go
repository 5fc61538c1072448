package app

import (
	"context"
	"errors"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/internal/session/repository"
	"pgfinder_chat_session/pkg/database"
	"pgfinder_chat_session/pkg/logger"
	"pgfinder_chat_session/pkg/token"

	"go.uber.org/zap"
)

// IdentityResolver resolve the session identity from the persisted session record.
// 每個 session 啟動時跑一次，登入/登出一律重啟流程，不支援中途換身分
type IdentityResolver struct {
	sessions repository.SessionRepository
}

// NewIdentityResolver create the resolver
func NewIdentityResolver(sessions repository.SessionRepository) *IdentityResolver {
	return &IdentityResolver{sessions: sessions}
}

// Resolve read the persisted markers, false = anonymous (no chat capability).
// tenant 與 landlord 標記同時存在時以 tenant 優先，並記 warn
func (r *IdentityResolver) Resolve(ctx context.Context) (domain.Identity, bool) {
	record, err := r.sessions.Load(ctx)
	if err != nil {
		if !errors.Is(err, database.ErrKeyNotFound) {
			logger.Log.Warn("load session record failed", zap.Error(err))
		}
		return domain.Identity{}, false
	}

	var identity domain.Identity
	switch {
	case record.TenantID != "":
		if record.LandlordID != "" {
			// 兩個標記同時存在屬於異常的 session 狀態
			logger.Log.Warn("both tenant and landlord markers present, preferring tenant",
				zap.String("tenantID", record.TenantID),
				zap.String("landlordID", record.LandlordID))
		}
		identity = domain.Identity{UserID: record.TenantID, Role: domain.RoleTenant}
	case record.LandlordID != "":
		identity = domain.Identity{UserID: record.LandlordID, Role: domain.RoleLandlord}
	default:
		return domain.Identity{}, false
	}

	r.checkToken(record.AccessToken, identity)

	return identity, true
}

// checkToken best-effort claims 核對，不驗簽（金鑰屬於遠端 API）
func (r *IdentityResolver) checkToken(accessToken string, identity domain.Identity) {
	if accessToken == "" {
		logger.Log.Warn("session record has no access token, REST calls will be unauthorized")
		return
	}

	claims, err := token.DecodeClaims(accessToken)
	if err != nil {
		logger.Log.Warn("access token claims decode failed", zap.Error(err))
		return
	}

	if !token.NotExpired(claims) {
		logger.Log.Warn("access token expired", zap.String("userID", identity.UserID))
	}
	if claims.UserID != "" && claims.UserID != identity.UserID {
		logger.Log.Warn("access token user id does not match session marker",
			zap.String("claims", claims.UserID), zap.String("marker", identity.UserID))
	}
}
