package domain

// UserState stores locally persisted user settings. The admin flag is a local
// toggle, not a security boundary.
type UserState struct {
	Nickname             string `json:"nickname"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	IsAdmin              bool   `json:"is_admin"`
	AuthToken            string `json:"auth_token,omitempty"`
}

// DefaultUserState returns the state used before the user saves anything.
func DefaultUserState() UserState {
	return UserState{Nickname: "Escaper", NotificationsEnabled: true}
}

// FavoriteState stores the persisted favorite theme ids.
type FavoriteState struct {
	Favorites []string `json:"favorites"`
}

// EscapeState stores the persisted branch collections. Branches holds the
// approved set, PendingBranches the user-reported set awaiting approval; a
// branch lives in exactly one of the two.
type EscapeState struct {
	Branches        []Branch `json:"branches"`
	PendingBranches []Branch `json:"pending_branches"`
}
