package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pgfinder_chat_session/internal/session/domain"
	"pgfinder_chat_session/pkg/errprocess"
)

// BackendAPI REST client for the remote rental API.
// REST 是唯一的持久化路徑，socket 只負責通知
type BackendAPI interface {
	ListConversations(ctx context.Context, role domain.Role, userID string) ([]domain.Conversation, error)
	FetchMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.Message, error)
	MarkRead(ctx context.Context, conversationID, userID string, role domain.Role) error

	// tenant picker
	ListLandlords(ctx context.Context) ([]domain.Landlord, error)
	ListLandlordProperties(ctx context.Context, landlordID string) ([]domain.Property, error)
}

// apiEnvelope 遠端 API 固定的回應外殼
type apiEnvelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type restBackendAPI struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewRestBackendAPI create the rental API client
func NewRestBackendAPI(baseURL, accessToken string, timeout time.Duration) BackendAPI {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &restBackendAPI{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// ListConversations GET /message/{role}/{userId}/conversations
func (a *restBackendAPI) ListConversations(ctx context.Context, role domain.Role, userID string) ([]domain.Conversation, error) {
	path := fmt.Sprintf("/message/%s/%s/conversations", role, userID)
	data, err := a.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var convs []domain.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return convs, nil
}

// FetchMessages GET /message/conversations/{conversationId}
func (a *restBackendAPI) FetchMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	data, err := a.do(ctx, http.MethodGet, "/message/conversations/"+conversationID, nil)
	if err != nil {
		return nil, err
	}

	var msgs []domain.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return msgs, nil
}

// SendMessage POST /message
func (a *restBackendAPI) SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.Message, error) {
	data, err := a.do(ctx, http.MethodPost, "/message", req)
	if err != nil {
		return nil, err
	}

	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// MarkRead PUT /message/read
func (a *restBackendAPI) MarkRead(ctx context.Context, conversationID, userID string, role domain.Role) error {
	body := domain.MarkReadRequest{
		ConversationID: conversationID,
		UserID:         userID,
		UserType:       role,
	}
	_, err := a.do(ctx, http.MethodPut, "/message/read", body)
	return err
}

// ListLandlords GET /landlord/
func (a *restBackendAPI) ListLandlords(ctx context.Context) ([]domain.Landlord, error) {
	data, err := a.do(ctx, http.MethodGet, "/landlord/", nil)
	if err != nil {
		return nil, err
	}

	var landlords []domain.Landlord
	if err := json.Unmarshal(data, &landlords); err != nil {
		return nil, fmt.Errorf("decode landlords: %w", err)
	}
	return landlords, nil
}

// ListLandlordProperties GET /landlord/{id}/properties
func (a *restBackendAPI) ListLandlordProperties(ctx context.Context, landlordID string) ([]domain.Property, error) {
	data, err := a.do(ctx, http.MethodGet, "/landlord/"+landlordID+"/properties", nil)
	if err != nil {
		return nil, err
	}

	var props []domain.Property
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return props, nil
}

// do 發出請求並解開回應外殼。error flag 為 true 與傳輸錯誤同等對待
func (a *restBackendAPI) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.accessToken)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response envelope (status %d): %w", resp.StatusCode, err)
	}

	if envelope.Error {
		msg := envelope.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return nil, errprocess.Set(fmt.Sprintf("rental api %s: %s", path, msg))
	}

	return envelope.Data, nil
}
