package domain

// TenantInfo conversation tenant participant
type TenantInfo struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LandlordInfo conversation landlord participant
type LandlordInfo struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Participants exactly one tenant and one landlord per conversation
type Participants struct {
	Tenant   TenantInfo   `json:"tenant"`
	Landlord LandlordInfo `json:"landlord"`
}

// PropertyRef the property a conversation is scoped to
type PropertyRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// LastMessage summary shown in conversation lists and the notification panel
type LastMessage struct {
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	SenderID  string `json:"senderId"`
}

// Conversation 對話以 property id 作為唯一識別（遠端 API 的慣例）
type Conversation struct {
	ID           string       `json:"_id"`
	Participants Participants `json:"participants"`
	Property     PropertyRef  `json:"property"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount  int          `json:"unreadCount"`
}

// Landlord rental API landlord entry (tenant picker)
type Landlord struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Property rental API property entry (tenant picker)
type Property struct {
	ID           string `json:"_id"`
	Name         string `json:"name,omitempty"`
	PropertyName string `json:"propertyName,omitempty"`
}

// DisplayName property 名稱欄位在 API 兩種回應裡不一致，擇一取用
func (p Property) DisplayName() string {
	if p.PropertyName != "" {
		return p.PropertyName
	}
	return p.Name
}

// PropertyWithConversation picker property annotated with existing conversation info
type PropertyWithConversation struct {
	Property
	HasConversation bool          `json:"hasConversation"`
	Conversation    *Conversation `json:"conversation,omitempty"`
}
