package repository

import (
	"context"
	"time"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/database"
)

// SessionRepository persisted session record access.
// 登入流程寫入，chat session 只讀取 identity 欄位、回寫 UI 選取狀態
type SessionRepository interface {
	Load(ctx context.Context) (domain.SessionRecord, error)
	Save(ctx context.Context, record domain.SessionRecord) error
}

const sessionKeyPrefix = "chat:session:"

type redisSessionRepository struct {
	repo database.RedisRepository[domain.SessionRecord]
	key  string
	ttl  time.Duration
}

// NewRedisSessionRepository create session record repository backed by redis
func NewRedisSessionRepository(repo database.RedisRepository[domain.SessionRecord], sessionKey string, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{
		repo: repo,
		key:  sessionKeyPrefix + sessionKey,
		ttl:  ttl,
	}
}

func (r *redisSessionRepository) Load(ctx context.Context) (domain.SessionRecord, error) {
	return r.repo.Get(ctx, r.key)
}

func (r *redisSessionRepository) Save(ctx context.Context, record domain.SessionRecord) error {
	return r.repo.Set(ctx, r.key, record, r.ttl)
}
