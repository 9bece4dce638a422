package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jcouture/go-gameroom/internal/database"
	"github.com/jcouture/go-gameroom/internal/server"
	"github.com/jcouture/go-gameroom/internal/types"
)

type ModerationRequest struct {
	JoinCode string `json:"join_code"`
	UserId   int    `json:"user_id"`
}

type InvitationActionRequest struct {
	Id int `json:"id"`
}

type JoinRequestBody struct {
	JoinCode string `json:"join_code"`
}

type JoinRequestActionBody struct {
	Id int `json:"id"`
}

// ownedRoom resolves a join code and verifies the caller owns the room.
// Retired rooms are reported as not found.
func (s *GameRoomApp) ownedRoom(joinCode string, userId int) (database.Room, *ApiError) {
	if joinCode == "" {
		return database.Room{}, NewBadRequestError()
	}

	dbRoom, err := s.db.GetRoomByJoinCode(joinCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Room{}, NewNotFoundError()
		}
		return database.Room{}, NewInternalServerError(err)
	}

	if dbRoom.RetiredAt != nil {
		return database.Room{}, NewNotFoundError()
	}

	if dbRoom.OwnerId != userId {
		return database.Room{}, NewForbiddenError("only the room owner can moderate it")
	}

	return dbRoom, nil
}

func (s *GameRoomApp) kick(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, apiErr := s.ownedRoom(req.JoinCode, userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	if req.UserId == dbRoom.OwnerId {
		errResp := NewConflictError("the owner cannot be kicked")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	member, err := s.db.GetMember(dbRoom.Id, req.UserId)
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

	if err := s.db.DeleteMember(dbRoom.Id, req.UserId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	event := &server.ServerMessage{
		BaseMessage: server.BaseMessage{Timestamp: server.Now()},
		Type:        server.EventKicked,
		Room: &server.RoomEvent{
			JoinCode: dbRoom.JoinCode,
			UserId:   req.UserId,
			Username: member.Username,
		},
	}
	if err := s.cs.PushRoomEvent(r.Context(), dbRoom.JoinCode, event, req.UserId); err != nil {
		s.log.Printf("failed to push kick event for room %s: %v", dbRoom.JoinCode, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ban removes the membership and records an active ban in one step. A banned
// user is refused at the door on every later join attempt until unbanned.
func (s *GameRoomApp) ban(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, apiErr := s.ownedRoom(req.JoinCode, userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	if req.UserId == dbRoom.OwnerId {
		errResp := NewConflictError("the owner cannot be banned")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.BanUser(dbRoom.Id, req.UserId, userId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	event := &server.ServerMessage{
		BaseMessage: server.BaseMessage{Timestamp: server.Now()},
		Type:        server.EventBanned,
		Room: &server.RoomEvent{
			JoinCode: dbRoom.JoinCode,
			UserId:   req.UserId,
		},
	}
	if err := s.cs.PushRoomEvent(r.Context(), dbRoom.JoinCode, event, req.UserId); err != nil {
		s.log.Printf("failed to push ban event for room %s: %v", dbRoom.JoinCode, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *GameRoomApp) unban(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, apiErr := s.ownedRoom(req.JoinCode, userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	// Idempotent: deleting a ban that does not exist is still a success.
	if err := s.db.DeleteBan(dbRoom.Id, req.UserId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *GameRoomApp) invite(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req ModerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, apiErr := s.ownedRoom(req.JoinCode, userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	if _, err := s.db.GetMember(dbRoom.Id, req.UserId); err == nil {
		errResp := NewConflictError("user is already a member")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	invitation, err := s.db.CreateInvitation(dbRoom.Id, req.UserId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	wireInvite := toWireInvitation(invitation, dbRoom.JoinCode)
	s.cs.NotifyUser(req.UserId, &server.ServerMessage{
		Type:       server.EventInviteReceived,
		Moderation: &server.ModerationEvent{Invitation: &wireInvite},
	})

	s.writeJson(w, http.StatusCreated, wireInvite)
}

func (s *GameRoomApp) getInvitations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbInvites, err := s.db.ListInvitationsForUser(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	invitations := make([]types.Invitation, 0, len(dbInvites))
	for _, inv := range dbInvites {
		invitations = append(invitations, toWireInvitation(inv, ""))
	}

	s.writeJson(w, http.StatusOK, invitations)
}

func (s *GameRoomApp) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	s.resolveInvitation(w, r, types.InviteStatusAccepted)
}

func (s *GameRoomApp) declineInvitation(w http.ResponseWriter, r *http.Request) {
	s.resolveInvitation(w, r, types.InviteStatusDeclined)
}

// resolveInvitation settles a pending invitation. An accepted invitation is a
// standing right of entry: joining later succeeds regardless of the room's
// access mode.
func (s *GameRoomApp) resolveInvitation(w http.ResponseWriter, r *http.Request, status string) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req InvitationActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	invitation, err := s.db.GetInvitation(req.Id)
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

	if invitation.UserId != userId {
		errResp := NewForbiddenError("not your invitation")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if invitation.Status != types.InviteStatusPending {
		errResp := NewConflictError("invitation already resolved")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.UpdateInvitationStatus(req.Id, status); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	invitation.Status = status
	s.writeJson(w, http.StatusOK, toWireInvitation(invitation, ""))
}

func (s *GameRoomApp) requestJoin(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req JoinRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JoinCode == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, err := s.db.GetRoomByJoinCode(req.JoinCode)
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

	if dbRoom.RetiredAt != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if s.db.IsBanned(dbRoom.Id, userId) {
		errResp := NewForbiddenError("you are banned from this room")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetMember(dbRoom.Id, userId); err == nil {
		errResp := NewConflictError("you are already a member")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if types.AccessMode(dbRoom.AccessMode) != types.AccessApproval {
		errResp := NewConflictError("room does not take join requests")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	joinReq, err := s.db.CreateJoinRequest(dbRoom.Id, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	wireReq := toWireJoinRequest(joinReq)
	s.cs.NotifyUser(dbRoom.OwnerId, &server.ServerMessage{
		Type:       server.EventJoinRequest,
		Moderation: &server.ModerationEvent{JoinRequest: &wireReq},
	})

	s.writeJson(w, http.StatusCreated, wireReq)
}

func (s *GameRoomApp) getJoinRequests(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbRoom, apiErr := s.ownedRoom(r.URL.Query().Get("join_code"), userId)
	if apiErr != nil {
		s.writeJson(w, apiErr.StatusCode, apiErr)
		return
	}

	dbRequests, err := s.db.ListJoinRequestsForRoom(dbRoom.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	requests := make([]types.JoinRequest, 0, len(dbRequests))
	for _, jr := range dbRequests {
		requests = append(requests, toWireJoinRequest(jr))
	}

	s.writeJson(w, http.StatusOK, requests)
}

func (s *GameRoomApp) approveJoinRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveJoinRequest(w, r, types.RequestStatusApproved)
}

func (s *GameRoomApp) denyJoinRequest(w http.ResponseWriter, r *http.Request) {
	s.resolveJoinRequest(w, r, types.RequestStatusDenied)
}

// resolveJoinRequest settles a pending join request. Approval creates the
// membership immediately, so the requester is a member before they ever
// attach a connection.
func (s *GameRoomApp) resolveJoinRequest(w http.ResponseWriter, r *http.Request, status string) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req JoinRequestActionBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	joinReq, err := s.db.GetJoinRequest(req.Id)
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

	dbRoom, err := s.db.GetRoomById(joinReq.RoomId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// A request left pending when the room retired can no longer be resolved.
	if dbRoom.RetiredAt != nil {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if dbRoom.OwnerId != userId {
		errResp := NewForbiddenError("only the room owner can resolve join requests")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if joinReq.Status != types.RequestStatusPending {
		errResp := NewConflictError("join request already resolved")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if status == types.RequestStatusApproved {
		if _, err := s.db.CreateMember(joinReq.RoomId, joinReq.UserId, string(types.RoleMember)); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		event := &server.ServerMessage{
			BaseMessage: server.BaseMessage{Timestamp: server.Now()},
			Type:        server.EventMemberJoined,
			Room: &server.RoomEvent{
				JoinCode: dbRoom.JoinCode,
				UserId:   joinReq.UserId,
				Username: joinReq.Username,
			},
		}
		if err := s.cs.PushRoomEvent(r.Context(), dbRoom.JoinCode, event, 0); err != nil {
			s.log.Printf("failed to push member-joined event for room %s: %v", dbRoom.JoinCode, err)
		}
	}

	if err := s.db.UpdateJoinRequestStatus(req.Id, status); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	joinReq.Status = status
	wireReq := toWireJoinRequest(joinReq)
	s.cs.NotifyUser(joinReq.UserId, &server.ServerMessage{
		Type:       server.EventRequestResolved,
		Moderation: &server.ModerationEvent{JoinRequest: &wireReq},
	})

	s.writeJson(w, http.StatusOK, wireReq)
}

func toWireInvitation(inv database.Invitation, joinCode string) types.Invitation {
	return types.Invitation{
		Id:        inv.Id,
		RoomId:    inv.RoomId,
		JoinCode:  joinCode,
		UserId:    inv.UserId,
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
	}
}

func toWireJoinRequest(jr database.JoinRequest) types.JoinRequest {
	return types.JoinRequest{
		Id:        jr.Id,
		RoomId:    jr.RoomId,
		UserId:    jr.UserId,
		Username:  jr.Username,
		Status:    jr.Status,
		CreatedAt: jr.CreatedAt,
	}
}
