package domain

// LoadingState per-operation in-flight flags
type LoadingState struct {
	Conversations bool `json:"conversations"`
	Messages      bool `json:"messages"`
	Sending       bool `json:"sending"`
}

// Snapshot read-only view pushed to mounted surfaces on every store change
type Snapshot struct {
	TotalUnread            int            `json:"totalUnread"`
	UnreadCounts           map[string]int `json:"unreadCounts"`
	SelectedConversationID string         `json:"selectedConversationId,omitempty"`
	OnlineUsers            []string       `json:"onlineUsers"`
	Loading                LoadingState   `json:"loading"`
	Error                  string         `json:"error,omitempty"`
}
