package database

import "encoding/json"

type GameRoomRepository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)

	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomById(roomId int) (Room, error)
	GetRoomByJoinCode(joinCode string) (Room, error)
	GetRoomWithMembers(roomId int) (*Room, error)
	RetireRoom(roomId int) error

	CreateMember(roomId, userId int, role string) (Member, error)
	GetMember(roomId, userId int) (Member, error)
	DeleteMember(roomId, userId int) error
	CountMembers(roomId int) (int, error)
	ListRoomsForUser(userId int) ([]Room, error)

	BanUser(roomId, userId, bannedBy int) error
	DeleteBan(roomId, userId int) error
	IsBanned(roomId, userId int) bool

	CreateInvitation(roomId, userId int) (Invitation, error)
	GetInvitation(id int) (Invitation, error)
	UpdateInvitationStatus(id int, status string) error
	ListInvitationsForUser(userId int) ([]Invitation, error)
	HasAcceptedInvitation(roomId, userId int) bool

	CreateJoinRequest(roomId, userId int) (JoinRequest, error)
	GetJoinRequest(id int) (JoinRequest, error)
	UpdateJoinRequestStatus(id int, status string) error
	ListJoinRequestsForRoom(roomId int) ([]JoinRequest, error)

	CreatePlayer(params CreatePlayerParams) (Player, error)
	GetPlayer(id string) (Player, error)
	ListPlayersForUser(ownerId int) ([]Player, error)
	DeletePlayer(id string) error
	PlayerSeated(id string) bool

	EnsureSession(roomId int) (Session, error)
	GetSessionByRoomId(roomId int) (Session, error)
	UpdateSessionGame(sessionId int, gameName string, config json.RawMessage) error
	UpdateSessionConfig(sessionId int, config json.RawMessage) error
	UpdateSessionPlayers(sessionId int, players []string) error
	UpdateSessionStatus(sessionId int, status string) error
	DeleteSession(sessionId int) error

	SaveSnapshot(snap Snapshot) error
	GetSnapshot(sessionId int) (Snapshot, error)
	DeleteSnapshot(sessionId int) error
}
