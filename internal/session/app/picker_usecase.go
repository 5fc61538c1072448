package app

import (
	"context"
	"errors"
	"strings"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/internal/session/repository"
	"pgfinder_chat_session/pkg/logger"

	"go.uber.org/zap"
)

// ErrNotTenant picker operations are tenant-only
var ErrNotTenant = errors.New("picker is only available to tenants")

// PickerUseCase tenant 端在對話存在之前的三層選取：
// 房東列表 → 房東的物件（標注既有對話）→ 既有對話或草稿。
// 只是 store 的薄協作層，不持有自己的聊天狀態
type PickerUseCase struct {
	backend  repository.BackendAPI
	store    *ConversationStore
	sessions repository.SessionRepository
}

// NewPickerUseCase create the tenant picker
func NewPickerUseCase(backend repository.BackendAPI, store *ConversationStore, sessions repository.SessionRepository) *PickerUseCase {
	return &PickerUseCase{backend: backend, store: store, sessions: sessions}
}

// ListLandlords fetch all landlords
func (p *PickerUseCase) ListLandlords(ctx context.Context) ([]domain.Landlord, error) {
	if p.store.Identity().Role != domain.RoleTenant {
		return nil, ErrNotTenant
	}
	return p.backend.ListLandlords(ctx)
}

// ListProperties fetch a landlord's properties annotated with existing conversations
func (p *PickerUseCase) ListProperties(ctx context.Context, landlordID string) ([]domain.PropertyWithConversation, error) {
	if p.store.Identity().Role != domain.RoleTenant {
		return nil, ErrNotTenant
	}

	props, err := p.backend.ListLandlordProperties(ctx, landlordID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PropertyWithConversation, 0, len(props))
	for _, prop := range props {
		entry := domain.PropertyWithConversation{Property: prop}
		if conv, ok := p.store.FindByLandlordProperty(landlordID, prop.ID); ok {
			entry.HasConversation = true
			entry.Conversation = &conv
		}
		out = append(out, entry)
	}
	return out, nil
}

// SelectLandlord switch landlord: clear the current selection, persist the marker
// and return the landlord's properties.
// 只有一個物件時直接選起來，省掉一次點擊
func (p *PickerUseCase) SelectLandlord(ctx context.Context, landlordID string) ([]domain.PropertyWithConversation, error) {
	if p.store.Identity().Role != domain.RoleTenant {
		return nil, ErrNotTenant
	}

	p.store.ClearSelection()
	p.mutateRecord(ctx, func(record *domain.SessionRecord) {
		record.SelectedLandlordID = landlordID
		record.SelectedPropertyID = ""
		record.SelectedPropertyName = ""
		record.SelectedConversationID = ""
	})

	props, err := p.ListProperties(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	if len(props) == 1 {
		if _, err := p.SelectProperty(ctx, landlordID, props[0].Property); err != nil {
			return props, err
		}
	}
	return props, nil
}

// SelectProperty pick a property under a landlord.
// 有既有對話就直接選取，否則進入草稿模式等第一則訊息
func (p *PickerUseCase) SelectProperty(ctx context.Context, landlordID string, property domain.Property) (bool, error) {
	if p.store.Identity().Role != domain.RoleTenant {
		return false, ErrNotTenant
	}

	if conv, ok := p.store.FindByLandlordProperty(landlordID, property.ID); ok {
		return true, p.store.SelectConversation(ctx, conv.ID)
	}

	p.store.ClearSelection()
	p.mutateRecord(ctx, func(record *domain.SessionRecord) {
		record.SelectedLandlordID = landlordID
		record.SelectedPropertyID = property.ID
		record.SelectedPropertyName = property.DisplayName()
		record.SelectedConversationID = ""
	})
	return false, nil
}

// SendFirstMessage first send on a draft: the server creates the conversation,
// 之後重新抓列表並接手新對話
func (p *PickerUseCase) SendFirstMessage(ctx context.Context, landlordID, propertyID, content string) (*domain.Conversation, error) {
	identity := p.store.Identity()
	if identity.Role != domain.RoleTenant {
		return nil, ErrNotTenant
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	if _, err := p.backend.SendMessage(ctx, domain.SendMessageRequest{
		SenderID:     identity.UserID,
		ReceiverID:   landlordID,
		SenderType:   domain.RoleTenant,
		ReceiverType: domain.RoleLandlord,
		Content:      content,
		PropertyID:   propertyID,
	}); err != nil {
		return nil, err
	}

	if err := p.store.LoadConversations(ctx); err != nil {
		return nil, err
	}

	conv, ok := p.store.FindByLandlordProperty(landlordID, propertyID)
	if !ok {
		// 訊息已送出但列表裡還找不到新對話，留給下一次重載
		logger.Log.Warn("new conversation not found after first send",
			zap.String("landlordID", landlordID), zap.String("propertyID", propertyID))
		return nil, nil
	}

	if err := p.store.SelectConversation(ctx, conv.ID); err != nil {
		return nil, err
	}
	return &conv, nil
}

// RestoreSelection re-apply the persisted picker selection after the initial load.
// 對話 id 優先，其次 landlord/property 配對
func (p *PickerUseCase) RestoreSelection(ctx context.Context) {
	record, err := p.sessions.Load(ctx)
	if err != nil {
		return
	}

	if record.SelectedConversationID != "" {
		if _, ok := p.store.FindConversation(record.SelectedConversationID); ok {
			if err := p.store.SelectConversation(ctx, record.SelectedConversationID); err == nil {
				return
			}
		}
	}

	if record.SelectedLandlordID != "" && record.SelectedPropertyID != "" {
		if conv, ok := p.store.FindByLandlordProperty(record.SelectedLandlordID, record.SelectedPropertyID); ok {
			if err := p.store.SelectConversation(ctx, conv.ID); err != nil {
				logger.Log.Warn("restore picker selection failed", zap.Error(err))
			}
		}
	}
}

func (p *PickerUseCase) mutateRecord(ctx context.Context, mutate func(record *domain.SessionRecord)) {
	if p.sessions == nil {
		return
	}
	record, err := p.sessions.Load(ctx)
	if err != nil {
		logger.Log.Warn("load session record failed", zap.Error(err))
		return
	}
	mutate(&record)
	if err := p.sessions.Save(ctx, record); err != nil {
		logger.Log.Warn("save session record failed", zap.Error(err))
	}
}
