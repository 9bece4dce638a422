package server

import (
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jcouture/go-gameroom/internal/games"
	"github.com/jcouture/go-gameroom/internal/types"
	"golang.org/x/crypto/bcrypt"
)

const idleRoomTimeout = time.Second * 30

type exitReq struct {
	retired bool
	// idle marks an idle-timeout exit, which the room may decline if a join
	// raced the kill timer.
	idle bool
	done chan bool
}

// modReq carries a moderation push from the API layer into the room actor:
// an event to broadcast and, optionally, a user whose connections must be
// detached and whose players must be unseated.
type modReq struct {
	event   *ServerMessage
	expelId int
	done    chan struct{}
}

// Room serializes every mutation for one room: joins, leaves, moves, session
// control and moderation pushes all run to completion on the room goroutine
// before the next is dequeued. Rooms are independent and run in parallel.
type Room struct {
	id           int
	joinCode     string
	ownerId      int
	accessMode   types.AccessMode
	passwordHash string

	cs   *GameServer
	sess *session

	clients    map[*Client]struct{}
	userMap    map[int]map[*Client]struct{}
	hovers     map[int]*hoverEntry
	clientLock sync.RWMutex
	log        *log.Logger

	joinChan      chan *ClientMessage
	leaveChan     chan *ClientMessage
	clientMsgChan chan *ClientMessage
	modChan       chan *modReq
	// killTimer unloads the room once no clients remain
	killTimer *time.Timer
	exit      chan exitReq
	done      chan struct{}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.joinCode)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	for {
		select {
		case join := <-r.joinChan:
			r.handleJoin(join)
		case leaveMsg := <-r.leaveChan:
			r.handleLeave(leaveMsg)
		case msg := <-r.clientMsgChan:
			r.dispatch(msg)
		case req := <-r.modChan:
			r.handleModeration(req)
		case <-r.killTimer.C:
			r.handleRoomTimeout()
		case e := <-r.exit:
			if r.handleRoomExit(e) {
				return
			}
		}
	}
}

func (r *Room) dispatch(msg *ClientMessage) {
	switch {
	case msg.Move != nil:
		r.handleMove(msg)
	case msg.SelectGame != nil:
		r.handleSelectGame(msg)
	case msg.UpdateConfig != nil:
		r.handleUpdateConfig(msg)
	case msg.Pause != nil:
		r.handlePause(msg)
	case msg.Resume != nil:
		r.handleResume(msg)
	case msg.Hover != nil:
		r.handleHover(msg)
	}
}

// JoinInfo is the payload returned to a client joining the room channel. The
// snapshot is always the current full state, so reconnecting clients resync
// without gap replay.
type JoinInfo struct {
	Room     *types.Room    `json:"room"`
	Session  *types.Session `json:"session,omitempty"`
	Snapshot *SessionEvent  `json:"snapshot,omitempty"`
}

func (r *Room) handleJoin(join *ClientMessage) {
	r.killTimer.Stop()

	c := join.client
	userId := c.user.Id

	reject := func(err *types.Error) {
		if len(r.clients) == 0 {
			r.killTimer.Reset(idleRoomTimeout)
		}
		c.queueMessage(ErrResponse(join.Id, err))
	}

	if r.cs.db.IsBanned(r.id, userId) {
		reject(types.Forbidden("you are banned from this room"))
		return
	}

	_, err := r.cs.db.GetMember(r.id, userId)
	isMember := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		r.log.Println("GetMember:", err)
		c.queueMessage(ErrInternalError(join.Id))
		return
	}

	// Verify ownership of the declared players before any membership write,
	// so a rejected join leaves no side effects.
	if len(join.Join.PlayerIds) > 0 {
		owned, err := r.ownedPlayerIds(userId)
		if err != nil {
			r.log.Println("ListPlayersForUser:", err)
			c.queueMessage(ErrInternalError(join.Id))
			return
		}

		ownedSet := playerSet(owned)
		for _, id := range join.Join.PlayerIds {
			if _, ok := ownedSet[id]; !ok {
				reject(types.Forbidden("not your player"))
				return
			}
		}
	}

	if !isMember {
		if authErr := r.admit(userId, join.Join.Password); authErr != nil {
			reject(authErr)
			return
		}

		member, err := r.cs.db.CreateMember(r.id, userId, string(types.RoleMember))
		if err != nil {
			r.log.Println("CreateMember:", err)
			reject(types.Transient("could not join the room, try again"))
			return
		}

		r.broadcast(&ServerMessage{
			Type: EventMemberJoined,
			Room: &RoomEvent{
				JoinCode: r.joinCode,
				UserId:   member.UserId,
				Username: c.user.Username,
			},
		})
	}

	if err := r.ensureSession(); err != nil {
		r.log.Println("ensureSession:", err)
		c.queueMessage(ErrInternalError(join.Id))
		return
	}

	// seat the players this connection declared
	if len(join.Join.PlayerIds) > 0 {
		if r.sess.seat(join.Join.PlayerIds) {
			if err := r.cs.db.UpdateSessionPlayers(r.sess.id, r.sess.activePlayers); err != nil {
				r.log.Println("UpdateSessionPlayers:", err)
			}
		}
	}

	wasOnline := r.online(userId)
	r.addClient(c)

	if !wasOnline {
		// first live connection for this user: tell the others they came online
		r.broadcast(&ServerMessage{
			Type: EventRoomJoined,
			Room: &RoomEvent{
				JoinCode: r.joinCode,
				UserId:   userId,
				Username: c.user.Username,
			},
			SkipClient: c,
		})
	}

	c.queueMessage(NoErrOK(join.Id, r.joinInfo()))
}

// admit gates a non-member by access mode. An accepted invitation admits into
// any mode.
func (r *Room) admit(userId int, password string) *types.Error {
	if r.cs.db.HasAcceptedInvitation(r.id, userId) {
		return nil
	}

	switch r.accessMode {
	case types.AccessOpen:
		return nil
	case types.AccessRestricted:
		if r.passwordHash == "" {
			return nil
		}
		if bcrypt.CompareHashAndPassword([]byte(r.passwordHash), []byte(password)) != nil {
			return types.Forbidden("incorrect room password")
		}
		return nil
	case types.AccessApproval:
		return types.Forbidden("this room requires approval to join; send a join request")
	case types.AccessLocked:
		return types.Forbidden("this room is locked to current members and invitees")
	default:
		return types.Forbidden("this room cannot be joined")
	}
}

// ensureSession loads or lazily creates the room's single session. Safe under
// concurrent first joins: callers are already serialized on the room
// goroutine and the store resolves insert races to one row.
func (r *Room) ensureSession() error {
	if r.sess != nil {
		return nil
	}

	dbSess, err := r.cs.db.EnsureSession(r.id)
	if err != nil {
		return err
	}

	s := &session{
		id:            dbSess.Id,
		gameName:      dbSess.GameName,
		config:        dbSess.Config,
		activePlayers: dbSess.ActivePlayers,
		status:        types.SessionStatus(dbSess.Status),
	}

	snap, err := r.cs.db.GetSnapshot(dbSess.Id)
	if err == nil {
		s.state = snap.State
		s.seq = snap.Seq
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	r.sess = s
	r.cs.stats.Incr("SessionsAttached")
	return nil
}

func (r *Room) joinInfo() *JoinInfo {
	info := &JoinInfo{Room: r.roomInfo()}

	if r.sess != nil {
		info.Session = r.sess.toWire(r.id)
		if r.sess.started() {
			info.Snapshot = &SessionEvent{
				SessionId: r.sess.id,
				SeqId:     r.sess.seq,
				GameName:  r.sess.gameName,
				State:     r.sess.state,
			}
		}
	}

	return info
}

func (r *Room) roomInfo() *types.Room {
	dbRoom, err := r.cs.db.GetRoomWithMembers(r.id)
	if err != nil {
		r.log.Println("GetRoomWithMembers:", err)
		return &types.Room{Id: r.id, JoinCode: r.joinCode, AccessMode: r.accessMode, OwnerId: r.ownerId}
	}

	members := make([]types.Member, len(dbRoom.Members))
	for i, m := range dbRoom.Members {
		members[i] = types.Member{
			UserId:   m.UserId,
			Username: m.Username,
			Role:     types.MemberRole(m.Role),
			Online:   r.online(m.UserId),
			JoinedAt: m.JoinedAt,
		}
	}

	return &types.Room{
		Id:         dbRoom.Id,
		JoinCode:   dbRoom.JoinCode,
		AccessMode: types.AccessMode(dbRoom.AccessMode),
		OwnerId:    dbRoom.OwnerId,
		Members:    members,
		CreatedAt:  dbRoom.CreatedAt,
		UpdatedAt:  dbRoom.UpdatedAt,
	}
}

func (r *Room) handleLeave(leaveMsg *ClientMessage) {
	client := leaveMsg.client
	userId := leaveMsg.UserId

	if leaveMsg.Leave != nil && leaveMsg.Leave.Unsubscribe {
		if userId == r.ownerId {
			client.queueMessage(ErrResponse(leaveMsg.Id, types.Forbidden("the owner cannot leave the room; retire it instead")))
			return
		}

		if err := r.cs.db.DeleteMember(r.id, userId); err != nil {
			r.log.Println("DeleteMember:", err)
			client.queueMessage(ErrInternalError(leaveMsg.Id))
			return
		}

		r.unseatUser(userId)
		r.clearUserHover(userId)
		r.removeAllClientsForUser(userId)

		client.queueMessage(NoErrOK(leaveMsg.Id, nil))

		r.broadcast(&ServerMessage{
			Type: EventMemberLeft,
			Room: &RoomEvent{
				JoinCode: r.joinCode,
				UserId:   userId,
				Username: client.user.Username,
			},
		})

		r.reapOrphanSession()
		return
	}

	// plain detach: the connection drops off the room channel but membership
	// and player ownership are untouched
	r.removeClient(client)

	if leaveMsg.GetUserId() != 0 && leaveMsg.Id > 0 {
		client.queueMessage(NoErrOK(leaveMsg.Id, nil))
	}

	if !r.online(userId) {
		r.clearUserHover(userId)
		r.broadcast(&ServerMessage{
			Type: EventPresenceOffline,
			Presence: &PresenceEvent{
				JoinCode: r.joinCode,
				UserId:   userId,
				Online:   false,
			},
			SkipClient: client,
		})
	}
}

// unseatUser drops every player owned by the user from the session roster.
func (r *Room) unseatUser(userId int) {
	if r.sess == nil {
		return
	}

	owned, err := r.ownedPlayerIds(userId)
	if err != nil {
		r.log.Println("ListPlayersForUser:", err)
		return
	}

	if r.sess.unseat(owned) {
		if err := r.cs.db.UpdateSessionPlayers(r.sess.id, r.sess.activePlayers); err != nil {
			r.log.Println("UpdateSessionPlayers:", err)
		}
	}
}

// reapOrphanSession deletes the session once the room has no members left,
// so abrupt departures don't leak session rows.
func (r *Room) reapOrphanSession() {
	if r.sess == nil {
		return
	}

	count, err := r.cs.db.CountMembers(r.id)
	if err != nil {
		r.log.Println("CountMembers:", err)
		return
	}

	if count == 0 {
		r.log.Printf("room %q has no members, deleting orphan session %d", r.joinCode, r.sess.id)
		if err := r.cs.db.DeleteSession(r.sess.id); err != nil {
			r.log.Println("DeleteSession:", err)
			return
		}
		r.sess = nil
	}
}

func (r *Room) handleModeration(req *modReq) {
	if req.event != nil {
		req.event.Timestamp = Now()
		r.broadcast(req.event)
	}

	if req.expelId != 0 {
		r.unseatUser(req.expelId)
		r.clearUserHover(req.expelId)
		r.removeAllClientsForUser(req.expelId)
	}

	if req.done != nil {
		close(req.done)
	}
}

func (r *Room) handleRoomTimeout() {
	r.log.Printf("room %q timed out", r.joinCode)
	r.reapOrphanSession()

	select {
	case r.cs.unloadRoomChan <- unloadRoomRequest{joinCode: r.joinCode}:
	default:
		r.log.Printf("unload channel full, retrying room %q later", r.joinCode)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

// handleRoomExit reports whether the room actually exited. An idle exit is
// declined when a join raced the kill timer: a client is already attached or
// one is waiting on the join channel.
func (r *Room) handleRoomExit(e exitReq) bool {
	if e.idle && (len(r.clients) > 0 || len(r.joinChan) > 0) {
		r.log.Printf("room %q is no longer idle, keeping it loaded", r.joinCode)
		if e.done != nil {
			e.done <- false
		}
		return false
	}

	r.log.Printf("room %q is exiting", r.joinCode)
	if e.retired {
		// distinguishable from a voluntary leave on every client
		r.broadcast(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Type:        EventRoomRetired,
			Room: &RoomEvent{
				JoinCode: r.joinCode,
				Reason:   "the room was retired by its owner",
			},
		})
	}

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.joinCode)
	}
	r.clientLock.Unlock()

	if e.done != nil {
		e.done <- true
	}
	close(r.done)
	return true
}

func (r *Room) handleMove(msg *ClientMessage) {
	c := msg.client
	userId := msg.UserId

	if _, err := r.cs.db.GetMember(r.id, userId); err != nil {
		c.queueMessage(ErrResponse(msg.Id, types.Forbidden("you are not a member of this room")))
		return
	}

	if r.sess == nil || !r.sess.started() {
		c.queueMessage(ErrResponse(msg.Id, types.Invalid("no game in progress")))
		return
	}

	if r.sess.paused() {
		c.queueMessage(ErrResponse(msg.Id, types.Conflict("the session is paused")))
		return
	}

	module, err := games.Lookup(r.sess.gameName)
	if err != nil {
		r.log.Println("Lookup:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	owned, err := r.ownedPlayerIds(userId)
	if err != nil {
		r.log.Println("ListPlayersForUser:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if authErr := AuthorizeMove(playerSet(owned), r.sess.activePlayers, module, r.sess.state, msg.Move.PlayerId); authErr != nil {
		c.queueMessage(ErrResponse(msg.Id, authErr))
		return
	}

	next, err := module.ApplyMove(r.sess.state, msg.Move.PlayerId, msg.Move.Move)
	if err != nil {
		c.queueMessage(ErrResponse(msg.Id, types.Invalid("invalid move: %s", err)))
		return
	}

	// persist before advancing the in-memory sequence
	if err := r.cs.db.SaveSnapshot(snapshotOf(r.sess.id, r.sess.gameName, next, r.sess.seq+1)); err != nil {
		r.log.Println("SaveSnapshot:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	r.sess.state = next
	r.sess.seq++

	c.queueMessage(NoErrAccepted(msg.Id))
	r.cs.stats.Incr("MovesApplied")

	r.broadcastSessionState()
	// the state advanced, so hover targets refer to a stale board
	r.clearAllHovers()
}

func (r *Room) handleSelectGame(msg *ClientMessage) {
	c := msg.client

	if msg.UserId != r.ownerId {
		c.queueMessage(ErrResponse(msg.Id, types.Forbidden("only the room owner can select the game")))
		return
	}

	if err := r.ensureSession(); err != nil {
		r.log.Println("ensureSession:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if r.midRound() {
		c.queueMessage(ErrResponse(msg.Id, types.Conflict("a round is in progress; pause or finish it before switching games")))
		return
	}

	module, err := games.Lookup(msg.SelectGame.GameName)
	if err != nil {
		c.queueMessage(ErrResponse(msg.Id, types.Invalid("unknown game %q", msg.SelectGame.GameName)))
		return
	}

	config := msg.SelectGame.Config
	if len(config) == 0 {
		config = []byte("{}")
	}

	if err := r.cs.db.UpdateSessionGame(r.sess.id, module.Name(), config); err != nil {
		r.log.Println("UpdateSessionGame:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	// switching games always clears the previous snapshot
	if err := r.cs.db.DeleteSnapshot(r.sess.id); err != nil {
		r.log.Println("DeleteSnapshot:", err)
	}

	r.sess.gameName = module.Name()
	r.sess.config = config
	r.sess.state = nil
	r.setStatus(types.SessionActive)

	var warning string
	state, err := module.InitialState(config, r.sess.activePlayers)
	if err != nil {
		// selection sticks, the round just hasn't started yet
		warning = "game selected but not started: " + err.Error()
	} else {
		if err := r.cs.db.SaveSnapshot(snapshotOf(r.sess.id, r.sess.gameName, state, r.sess.seq+1)); err != nil {
			r.log.Println("SaveSnapshot:", err)
			c.queueMessage(ErrInternalError(msg.Id))
			return
		}
		r.sess.state = state
		r.sess.seq++
	}

	c.queueMessage(NoErrOK(msg.Id, &SessionEvent{
		SessionId: r.sess.id,
		Session:   r.sess.toWire(r.id),
		Warning:   warning,
	}))

	if r.sess.started() {
		r.broadcastSessionState()
	}
	r.clearAllHovers()
}

func (r *Room) handleUpdateConfig(msg *ClientMessage) {
	c := msg.client

	if msg.UserId != r.ownerId {
		c.queueMessage(ErrResponse(msg.Id, types.Forbidden("only the room owner can change the configuration")))
		return
	}

	if err := r.ensureSession(); err != nil {
		r.log.Println("ensureSession:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if r.sess.started() && !r.sess.paused() {
		c.queueMessage(ErrResponse(msg.Id, types.Conflict("pause the session before changing the configuration")))
		return
	}

	merged, changed, err := mergeConfig(r.sess.config, msg.UpdateConfig.Config)
	if err != nil {
		c.queueMessage(ErrResponse(msg.Id, types.Invalid("%s", err)))
		return
	}

	if !changed {
		// empty diff: no write, no broadcast
		c.queueMessage(NoErrOK(msg.Id, nil))
		return
	}

	if err := r.cs.db.UpdateSessionConfig(r.sess.id, merged); err != nil {
		r.log.Println("UpdateSessionConfig:", err)
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	r.sess.config = merged
	c.queueMessage(NoErrOK(msg.Id, nil))

	r.broadcast(&ServerMessage{
		Type: EventSessionConfig,
		Session: &SessionEvent{
			SessionId: r.sess.id,
			Config:    merged,
		},
	})
}

func (r *Room) handlePause(msg *ClientMessage) {
	c := msg.client

	if _, err := r.cs.db.GetMember(r.id, msg.UserId); err != nil {
		c.queueMessage(ErrResponse(msg.Id, types.Forbidden("you are not a member of this room")))
		return
	}

	if r.sess == nil || !r.sess.started() {
		c.queueMessage(ErrResponse(msg.Id, types.Conflict("no round in progress")))
		return
	}

	if r.sess.paused() {
		c.queueMessage(ErrResponse(msg.Id, types.Conflict("the session is already paused")))
		return
	}

	if !r.setStatus(types.SessionPaused) {
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	c.queueMessage(NoErrOK(msg.Id, nil))
	r.broadcast(&ServerMessage{
		Type: EventSessionPaused,
		Session: &SessionEvent{
			SessionId: r.sess.id,
			Session:   r.sess.toWire(r.id),
		},
	})
}

func (r *Room) handleResume(msg *ClientMessage) {
	c := msg.client

	if _, err := r.cs.db.GetMember(r.id, msg.UserId); err != nil {
		c.queueMessage(ErrResponse(msg.Id, types.Forbidden("you are not a member of this room")))
		return
	}

	if r.sess == nil || !r.sess.paused() {
		c.queueMessage(ErrResponse(msg.Id, types.Conflict("the session is not paused")))
		return
	}

	// drop seated players whose owner is no longer a member
	var stale []string
	for _, id := range r.sess.activePlayers {
		player, err := r.cs.db.GetPlayer(id)
		if err != nil {
			stale = append(stale, id)
			continue
		}
		if _, err := r.cs.db.GetMember(r.id, player.OwnerId); err != nil {
			stale = append(stale, id)
		}
	}
	if r.sess.unseat(stale) {
		if err := r.cs.db.UpdateSessionPlayers(r.sess.id, r.sess.activePlayers); err != nil {
			r.log.Println("UpdateSessionPlayers:", err)
		}
	}

	if !r.setStatus(types.SessionActive) {
		c.queueMessage(ErrInternalError(msg.Id))
		return
	}

	c.queueMessage(NoErrOK(msg.Id, nil))
	r.broadcast(&ServerMessage{
		Type: EventSessionResumed,
		Session: &SessionEvent{
			SessionId: r.sess.id,
			Session:   r.sess.toWire(r.id),
		},
	})

	// resuming clients converge on a fresh full snapshot
	if r.sess.started() {
		r.broadcastSessionState()
	}
}

func (r *Room) handleHover(msg *ClientMessage) {
	userId := msg.UserId

	if _, err := r.cs.db.GetMember(r.id, userId); err != nil {
		if msg.Id > 0 {
			msg.client.queueMessage(ErrResponse(msg.Id, types.Forbidden("you are not a member of this room")))
		}
		return
	}

	if r.setHover(userId, msg.Hover.Target) {
		r.broadcast(&ServerMessage{
			Type: EventPresenceHover,
			Presence: &PresenceEvent{
				JoinCode: r.joinCode,
				UserId:   userId,
				Target:   msg.Hover.Target,
				Online:   true,
			},
		})
	}
}

// midRound reports whether an unpaused, unfinished round is in progress.
func (r *Room) midRound() bool {
	if r.sess == nil || !r.sess.started() || r.sess.paused() {
		return false
	}

	module, err := games.Lookup(r.sess.gameName)
	if err != nil {
		return false
	}

	return !module.IsTerminal(r.sess.state)
}

func (r *Room) setStatus(status types.SessionStatus) bool {
	if err := r.cs.db.UpdateSessionStatus(r.sess.id, string(status)); err != nil {
		r.log.Println("UpdateSessionStatus:", err)
		return false
	}

	r.sess.status = status
	return true
}

func (r *Room) broadcastSessionState() {
	r.broadcast(&ServerMessage{
		Type: EventSessionState,
		Session: &SessionEvent{
			SessionId: r.sess.id,
			SeqId:     r.sess.seq,
			GameName:  r.sess.gameName,
			State:     r.sess.state,
		},
	})
}

func (r *Room) ownedPlayerIds(userId int) ([]string, error) {
	players, err := r.cs.db.ListPlayersForUser(userId)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.Id
	}
	return ids, nil
}

func (r *Room) online(userId int) bool {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	return len(r.userMap[userId]) > 0
}

func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	if r.userMap[c.user.Id] == nil {
		r.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	r.userMap[c.user.Id][c] = struct{}{}

	c.addRoom(r)
}

func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		r.log.Printf("client %q not found in room %q", c.user.Username, r.joinCode)
		return
	}

	delete(r.clients, c)
	c.delRoom(r.joinCode)

	if userClients, ok := r.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(r.userMap, c.user.Id)
		}
	}

	if len(r.clients) == 0 {
		r.log.Printf("no clients in %q, starting kill timer", r.joinCode)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) removeAllClientsForUser(userId int) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if userClients, ok := r.userMap[userId]; ok {
		for client := range userClients {
			delete(r.clients, client)
			client.delRoom(r.joinCode)
		}
		delete(r.userMap, userId)
	}

	if len(r.clients) == 0 {
		r.log.Printf("no clients in %q, starting kill timer", r.joinCode)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) broadcast(msg *ServerMessage) {
	msg.Timestamp = Now()

	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}
