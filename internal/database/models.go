package database

import (
	"encoding/json"
	"time"
)

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id           int
	JoinCode     string
	AccessMode   string
	PasswordHash string
	OwnerId      int
	RetiredAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Members      []Member
}

type Member struct {
	RoomId   int
	UserId   int
	Username string
	Role     string
	JoinedAt time.Time
}

// Ban rows are the active-ban flag: existence means banned now, unbanning
// deletes the row. No history is kept.
type Ban struct {
	RoomId   int
	UserId   int
	BannedBy int
	BannedAt time.Time
}

type Invitation struct {
	Id        int
	RoomId    int
	UserId    int
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type JoinRequest struct {
	Id        int
	RoomId    int
	UserId    int
	Username  string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Player struct {
	Id          string
	OwnerId     int
	DisplayName string
	Emoji       string
	CreatedAt   time.Time
}

type Session struct {
	Id            int
	RoomId        int
	GameName      string
	Config        json.RawMessage
	ActivePlayers []string
	Status        string
	PausedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot holds the opaque game state blob for a session. State is never
// interpreted here; the sequence number is strictly increasing per session.
type Snapshot struct {
	SessionId int
	GameName  string
	State     json.RawMessage
	Seq       int
	UpdatedAt time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
}

type CreateRoomParams struct {
	JoinCode     string
	AccessMode   string
	PasswordHash string
	OwnerId      int
}

type CreatePlayerParams struct {
	Id          string
	OwnerId     int
	DisplayName string
	Emoji       string
}
