package domain

// Role definition chat participant role
type Role string

const (
	//RoleTenant tenant side of a conversation
	RoleTenant Role = "tenant"
	//RoleLandlord landlord side of a conversation
	RoleLandlord Role = "landlord"
)

// Counterpart return the receiving role for a sender role
func (r Role) Counterpart() Role {
	if r == RoleTenant {
		return RoleLandlord
	}
	return RoleTenant
}

// Identity resolved once at session start, immutable for the session
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// SessionRecord persisted session state written by the login flow.
// 欄位沿用前端 localStorage 的 key 命名
type SessionRecord struct {
	TenantID    string `json:"tenantId,omitempty"`
	LandlordID  string `json:"landlordId,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`

	// UI selection, restored after the initial conversation load
	SelectedConversationID string `json:"selectedConversationId,omitempty"`
	SelectedLandlordID     string `json:"selectedLandlordId,omitempty"`
	SelectedPropertyID     string `json:"selectedPropertyId,omitempty"`
	SelectedPropertyName   string `json:"selectedPropertyName,omitempty"`
}
