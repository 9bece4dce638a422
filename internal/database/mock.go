package database

import (
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

type MockGameRoomRepository struct {
	mock.Mock
}

func (m *MockGameRoomRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockGameRoomRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGameRoomRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGameRoomRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockGameRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockGameRoomRepository) GetRoomById(roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockGameRoomRepository) GetRoomByJoinCode(joinCode string) (Room, error) {
	args := m.Called(joinCode)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockGameRoomRepository) GetRoomWithMembers(roomId int) (*Room, error) {
	args := m.Called(roomId)
	if room, ok := args.Get(0).(*Room); ok {
		return room, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockGameRoomRepository) RetireRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockGameRoomRepository) CreateMember(roomId, userId int, role string) (Member, error) {
	args := m.Called(roomId, userId, role)
	return args.Get(0).(Member), args.Error(1)
}
func (m *MockGameRoomRepository) GetMember(roomId, userId int) (Member, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(Member), args.Error(1)
}
func (m *MockGameRoomRepository) DeleteMember(roomId, userId int) error {
	args := m.Called(roomId, userId)
	return args.Error(0)
}
func (m *MockGameRoomRepository) CountMembers(roomId int) (int, error) {
	args := m.Called(roomId)
	return args.Int(0), args.Error(1)
}
func (m *MockGameRoomRepository) ListRoomsForUser(userId int) ([]Room, error) {
	args := m.Called(userId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockGameRoomRepository) BanUser(roomId, userId, bannedBy int) error {
	args := m.Called(roomId, userId, bannedBy)
	return args.Error(0)
}
func (m *MockGameRoomRepository) DeleteBan(roomId, userId int) error {
	args := m.Called(roomId, userId)
	return args.Error(0)
}
func (m *MockGameRoomRepository) IsBanned(roomId, userId int) bool {
	args := m.Called(roomId, userId)
	return args.Bool(0)
}
func (m *MockGameRoomRepository) CreateInvitation(roomId, userId int) (Invitation, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(Invitation), args.Error(1)
}
func (m *MockGameRoomRepository) GetInvitation(id int) (Invitation, error) {
	args := m.Called(id)
	return args.Get(0).(Invitation), args.Error(1)
}
func (m *MockGameRoomRepository) UpdateInvitationStatus(id int, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}
func (m *MockGameRoomRepository) ListInvitationsForUser(userId int) ([]Invitation, error) {
	args := m.Called(userId)
	return args.Get(0).([]Invitation), args.Error(1)
}
func (m *MockGameRoomRepository) HasAcceptedInvitation(roomId, userId int) bool {
	args := m.Called(roomId, userId)
	return args.Bool(0)
}
func (m *MockGameRoomRepository) CreateJoinRequest(roomId, userId int) (JoinRequest, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(JoinRequest), args.Error(1)
}
func (m *MockGameRoomRepository) GetJoinRequest(id int) (JoinRequest, error) {
	args := m.Called(id)
	return args.Get(0).(JoinRequest), args.Error(1)
}
func (m *MockGameRoomRepository) UpdateJoinRequestStatus(id int, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}
func (m *MockGameRoomRepository) ListJoinRequestsForRoom(roomId int) ([]JoinRequest, error) {
	args := m.Called(roomId)
	return args.Get(0).([]JoinRequest), args.Error(1)
}
func (m *MockGameRoomRepository) CreatePlayer(params CreatePlayerParams) (Player, error) {
	args := m.Called(params)
	return args.Get(0).(Player), args.Error(1)
}
func (m *MockGameRoomRepository) GetPlayer(id string) (Player, error) {
	args := m.Called(id)
	return args.Get(0).(Player), args.Error(1)
}
func (m *MockGameRoomRepository) ListPlayersForUser(ownerId int) ([]Player, error) {
	args := m.Called(ownerId)
	return args.Get(0).([]Player), args.Error(1)
}
func (m *MockGameRoomRepository) DeletePlayer(id string) error {
	args := m.Called(id)
	return args.Error(0)
}
func (m *MockGameRoomRepository) PlayerSeated(id string) bool {
	args := m.Called(id)
	return args.Bool(0)
}
func (m *MockGameRoomRepository) EnsureSession(roomId int) (Session, error) {
	args := m.Called(roomId)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockGameRoomRepository) GetSessionByRoomId(roomId int) (Session, error) {
	args := m.Called(roomId)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockGameRoomRepository) UpdateSessionGame(sessionId int, gameName string, config json.RawMessage) error {
	args := m.Called(sessionId, gameName, config)
	return args.Error(0)
}
func (m *MockGameRoomRepository) UpdateSessionConfig(sessionId int, config json.RawMessage) error {
	args := m.Called(sessionId, config)
	return args.Error(0)
}
func (m *MockGameRoomRepository) UpdateSessionPlayers(sessionId int, players []string) error {
	args := m.Called(sessionId, players)
	return args.Error(0)
}
func (m *MockGameRoomRepository) UpdateSessionStatus(sessionId int, status string) error {
	args := m.Called(sessionId, status)
	return args.Error(0)
}
func (m *MockGameRoomRepository) DeleteSession(sessionId int) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
func (m *MockGameRoomRepository) SaveSnapshot(snap Snapshot) error {
	args := m.Called(snap)
	return args.Error(0)
}
func (m *MockGameRoomRepository) GetSnapshot(sessionId int) (Snapshot, error) {
	args := m.Called(sessionId)
	return args.Get(0).(Snapshot), args.Error(1)
}
func (m *MockGameRoomRepository) DeleteSnapshot(sessionId int) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
