package domain

// Message 單一訊息，建立後不可變（無編輯/刪除）
type Message struct {
	ID           string `json:"_id,omitempty"`
	PropertyID   string `json:"propertyId"`
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderType   Role   `json:"senderType"`
	ReceiverType Role   `json:"receiverType"`
	Content      string `json:"content"`
	CreatedAt    string `json:"createdAt,omitempty"`

	// read flags per recipient role
	TenantRead   bool `json:"tenantRead,omitempty"`
	LandlordRead bool `json:"landlordRead,omitempty"`
}

// SendMessageRequest POST /message request body
type SendMessageRequest struct {
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId"`
	SenderType   Role   `json:"senderType"`
	ReceiverType Role   `json:"receiverType"`
	Content      string `json:"content"`
	PropertyID   string `json:"propertyId"`
}

// MarkReadRequest PUT /message/read request body
type MarkReadRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserType       Role   `json:"userType"`
}
