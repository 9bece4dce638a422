package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jcouture/go-gameroom/internal/database"
	"github.com/jcouture/go-gameroom/internal/games"
	"github.com/jcouture/go-gameroom/internal/server"
	"github.com/jcouture/go-gameroom/internal/types"
)

type CreateRoomRequest struct {
	AccessMode string `json:"access_mode"`
	Password   string `json:"password,omitempty"`
}

type CreatePlayerRequest struct {
	DisplayName string `json:"display_name"`
	Emoji       string `json:"emoji,omitempty"`
}

func toWireRoom(dbRoom database.Room) types.Room {
	room := types.Room{
		Id:         dbRoom.Id,
		JoinCode:   dbRoom.JoinCode,
		AccessMode: types.AccessMode(dbRoom.AccessMode),
		OwnerId:    dbRoom.OwnerId,
		Retired:    dbRoom.RetiredAt != nil,
		CreatedAt:  dbRoom.CreatedAt,
		UpdatedAt:  dbRoom.UpdatedAt,
	}

	for _, m := range dbRoom.Members {
		room.Members = append(room.Members, types.Member{
			UserId:   m.UserId,
			Username: m.Username,
			Role:     types.MemberRole(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}

	return room
}

func toWirePlayer(p database.Player) types.Player {
	return types.Player{
		Id:          p.Id,
		OwnerId:     p.OwnerId,
		DisplayName: p.DisplayName,
		Emoji:       p.Emoji,
		CreatedAt:   p.CreatedAt,
	}
}

func (s *GameRoomApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *GameRoomApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	mode := types.AccessMode(req.AccessMode)
	if mode == "" {
		mode = types.AccessOpen
	}

	if !mode.Valid() {
		errResp := fromTypedError(types.Invalid("unknown access mode %q", req.AccessMode))
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if mode == types.AccessRestricted && req.Password == "" {
		errResp := fromTypedError(types.Invalid("restricted rooms require a password"))
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var pwdHash string
	if mode == types.AccessRestricted {
		var err error
		pwdHash, err = hashPassword(req.Password)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	joinCode, err := s.generateJoinCode()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		JoinCode:     joinCode,
		AccessMode:   string(mode),
		PasswordHash: pwdHash,
		OwnerId:      userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, toWireRoom(dbRoom))
}

func (s *GameRoomApp) getRoom(w http.ResponseWriter, r *http.Request) {
	joinCode := r.URL.Query().Get("join_code")
	if joinCode == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, err := s.db.GetRoomByJoinCode(joinCode)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomWithMembers, err := s.db.GetRoomWithMembers(dbRoom.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, toWireRoom(*roomWithMembers))
}

func (s *GameRoomApp) getUsersRooms(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRooms, err := s.db.ListRoomsForUser(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms := make([]types.Room, 0, len(dbRooms))
	for _, dbRoom := range dbRooms {
		rooms = append(rooms, toWireRoom(dbRoom))
	}

	s.writeJson(w, http.StatusOK, rooms)
}

// retireRoom permanently closes a room: its session and snapshot are removed,
// memberships are cleared and every connected client is expelled. Retirement
// is not reversible.
func (s *GameRoomApp) retireRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	joinCode := r.URL.Query().Get("join_code")
	if joinCode == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, err := s.db.GetRoomByJoinCode(joinCode)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if dbRoom.OwnerId != userId {
		errResp := NewForbiddenError("only the room owner can retire it")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if sess, err := s.db.GetSessionByRoomId(dbRoom.Id); err == nil {
		if err := s.db.DeleteSession(sess.Id); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.RetireRoom(dbRoom.Id); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.cs.RetireRoom(r.Context(), joinCode); err != nil {
		s.log.Printf("failed to unload retired room %s: %v", joinCode, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *GameRoomApp) createPlayer(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.DisplayName == "" {
		errResp := fromTypedError(types.Invalid("display name is required"))
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	player, err := s.db.CreatePlayer(database.CreatePlayerParams{
		Id:          uuid.NewString(),
		OwnerId:     userId,
		DisplayName: req.DisplayName,
		Emoji:       req.Emoji,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, toWirePlayer(player))
}

func (s *GameRoomApp) getPlayers(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbPlayers, err := s.db.ListPlayersForUser(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	players := make([]types.Player, 0, len(dbPlayers))
	for _, p := range dbPlayers {
		players = append(players, toWirePlayer(p))
	}

	s.writeJson(w, http.StatusOK, players)
}

func (s *GameRoomApp) deletePlayer(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	playerId := r.URL.Query().Get("id")
	if playerId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	player, err := s.db.GetPlayer(playerId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if player.OwnerId != userId {
		errResp := NewForbiddenError("not your player")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if s.db.PlayerSeated(playerId) {
		errResp := NewConflictError("player is seated in a live session")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeletePlayer(playerId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *GameRoomApp) getGames(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, games.Names())
}

func (s *GameRoomApp) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("failed to upgrade connection: %v", err)
		return
	}

	client := server.NewClient(types.User{
		Id:       user.Id,
		Username: user.Username,
	}, conn, s.cs, s.log)

	s.cs.RegisterClient(client)

	go client.Write()
	go client.Read()
}
