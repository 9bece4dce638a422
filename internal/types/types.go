package types

import (
	"encoding/json"
	"time"
)

type AccessMode string

const (
	AccessOpen       AccessMode = "open"
	AccessRestricted AccessMode = "restricted"
	AccessApproval   AccessMode = "approval"
	AccessLocked     AccessMode = "locked"
)

func (m AccessMode) Valid() bool {
	switch m {
	case AccessOpen, AccessRestricted, AccessApproval, AccessLocked:
		return true
	}
	return false
}

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id         int        `json:"id"`
	JoinCode   string     `json:"join_code"`
	AccessMode AccessMode `json:"access_mode"`
	OwnerId    int        `json:"owner_id"`
	Retired    bool       `json:"retired,omitempty"`
	Members    []Member   `json:"members,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at,omitempty"`
}

type Member struct {
	UserId   int        `json:"user_id"`
	Username string     `json:"username"`
	Role     MemberRole `json:"role"`
	Online   bool       `json:"online"`
	JoinedAt time.Time  `json:"joined_at,omitempty"`
}

// Player is an in-game identity owned by a user account. A user may own
// several players and multiplex them on one device.
type Player struct {
	Id          string    `json:"id"`
	OwnerId     int       `json:"owner_id"`
	DisplayName string    `json:"display_name"`
	Emoji       string    `json:"emoji,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type Session struct {
	Id            int             `json:"id"`
	RoomId        int             `json:"room_id"`
	GameName      string          `json:"game_name,omitempty"`
	Config        json.RawMessage `json:"config,omitempty"`
	ActivePlayers []string        `json:"active_players"`
	Status        SessionStatus   `json:"status"`
	PausedAt      *time.Time      `json:"paused_at,omitempty"`
}

type Invitation struct {
	Id        int       `json:"id"`
	RoomId    int       `json:"room_id"`
	JoinCode  string    `json:"join_code,omitempty"`
	UserId    int       `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type JoinRequest struct {
	Id        int       `json:"id"`
	RoomId    int       `json:"room_id"`
	UserId    int       `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"

	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusDenied   = "denied"
)
