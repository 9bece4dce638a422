package server

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/jcouture/go-gameroom/internal/database"
	"github.com/jcouture/go-gameroom/internal/stats"
	"github.com/jcouture/go-gameroom/internal/types"
)

type unloadRoomRequest struct {
	joinCode string
}

// retireReq asks the server loop to tear down a loaded room after its room
// row was retired.
type retireReq struct {
	joinCode string
	done     chan struct{}
}

// roomPush routes a moderation event from the API layer to a loaded room.
type roomPush struct {
	joinCode string
	req      *modReq
	done     chan struct{}
}

// GameServer owns the map of loaded rooms and the per-user notification
// path. All room lifecycle changes happen on its Run goroutine; everything
// inside one room happens on that room's goroutine.
type GameServer struct {
	log   *log.Logger
	db    database.GameRoomRepository
	stats stats.StatsProvider

	clients     map[*Client]struct{}
	userClients map[int]map[*Client]struct{}
	clientsLock sync.Mutex

	joinChan       chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	broadcastChan  chan *ServerMessage
	unloadRoomChan chan unloadRoomRequest
	retireChan     chan retireReq
	pushChan       chan roomPush

	rooms map[string]*Room
	stop  chan struct{}
	done  chan struct{}
}

func NewGameServer(logger *log.Logger, db database.GameRoomRepository, sp stats.StatsProvider) (*GameServer, error) {
	for _, name := range []string{"ConnectedClients", "LoadedRooms", "SessionsAttached", "MovesApplied"} {
		sp.RegisterMetric(name)
	}

	return &GameServer{
		log:            logger,
		db:             db,
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		userClients:    make(map[int]map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client, 64),
		deRegisterChan: make(chan *Client, 64),
		broadcastChan:  make(chan *ServerMessage, 256),
		unloadRoomChan: make(chan unloadRoomRequest, 64),
		retireChan:     make(chan retireReq),
		pushChan:       make(chan roomPush, 64),
		rooms:          make(map[string]*Room),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (cs *GameServer) Run() {
	for {
		select {
		case joinMsg := <-cs.joinChan:
			cs.handleJoin(joinMsg)
		case client := <-cs.RegisterChan:
			cs.addClient(client)
			cs.stats.Incr("ConnectedClients")
		case client := <-cs.deRegisterChan:
			cs.removeClient(client)
			cs.stats.Decr("ConnectedClients")
		case msg := <-cs.broadcastChan:
			cs.deliverToUser(msg)
		case req := <-cs.unloadRoomChan:
			cs.handleUnload(req)
		case req := <-cs.retireChan:
			cs.handleRetire(req)
		case push := <-cs.pushChan:
			cs.handlePush(push)
		case <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				ack := make(chan bool)
				r.exit <- exitReq{done: ack}
				<-ack
			}

			close(cs.done)
			return
		}
	}
}

func (cs *GameServer) handleJoin(joinMsg *ClientMessage) {
	code := joinMsg.Join.JoinCode
	if room, ok := cs.rooms[code]; ok {
		select {
		case room.joinChan <- joinMsg:
		default:
			cs.log.Printf("join channel full on room %q", code)
			joinMsg.client.queueMessage(ErrServiceUnavailable(joinMsg.Id))
		}
		return
	}

	dbRoom, err := cs.db.GetRoomByJoinCode(code)
	if err != nil {
		joinMsg.client.queueMessage(ErrRoomNotFound(joinMsg.Id))
		return
	}

	room := cs.loadRoom(dbRoom)
	room.joinChan <- joinMsg
}

func (cs *GameServer) loadRoom(dbRoom database.Room) *Room {
	room := newRoom(cs, dbRoom)
	cs.rooms[room.joinCode] = room
	cs.stats.Incr("LoadedRooms")
	go room.start()
	return room
}

func newRoom(cs *GameServer, dbRoom database.Room) *Room {
	return &Room{
		id:            dbRoom.Id,
		joinCode:      dbRoom.JoinCode,
		ownerId:       dbRoom.OwnerId,
		accessMode:    types.AccessMode(dbRoom.AccessMode),
		passwordHash:  dbRoom.PasswordHash,
		cs:            cs,
		clients:       make(map[*Client]struct{}),
		userMap:       make(map[int]map[*Client]struct{}),
		hovers:        make(map[int]*hoverEntry),
		joinChan:      make(chan *ClientMessage, 256),
		leaveChan:     make(chan *ClientMessage, 256),
		clientMsgChan: make(chan *ClientMessage, 256),
		modChan:       make(chan *modReq, 64),
		exit:          make(chan exitReq),
		done:          make(chan struct{}),
		log:           cs.log,
	}
}

func (cs *GameServer) handleRetire(req retireReq) {
	if r, ok := cs.rooms[req.joinCode]; ok {
		cs.unloadRoom(req.joinCode)
		ack := make(chan bool)
		r.exit <- exitReq{retired: true, done: ack}
		<-ack
	}

	close(req.done)
}

// handleUnload completes the idle-unload handshake: the room is told to exit
// and its map entry is dropped only once it confirms. A room that picked up a
// join after requesting the unload declines and stays loaded, so a join can
// never strand a client on a dead actor or split one room across two.
func (cs *GameServer) handleUnload(req unloadRoomRequest) {
	r, ok := cs.rooms[req.joinCode]
	if !ok {
		return
	}

	ack := make(chan bool)
	r.exit <- exitReq{idle: true, done: ack}
	if <-ack {
		cs.unloadRoom(req.joinCode)
	}
}

func (cs *GameServer) handlePush(push roomPush) {
	if r, ok := cs.rooms[push.joinCode]; ok {
		select {
		case r.modChan <- push.req:
		default:
			cs.log.Printf("moderation channel full on room %q", push.joinCode)
			if push.req.done != nil {
				close(push.req.done)
			}
		}
	} else if push.req.done != nil {
		// room not loaded: the database already reflects the change and no
		// sockets are attached, nothing to push
		close(push.req.done)
	}

	close(push.done)
}

// deliverToUser fans a notification out to every connection the target user
// has open, in or out of any room.
func (cs *GameServer) deliverToUser(msg *ServerMessage) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	for c := range cs.userClients[msg.UserId] {
		if c == msg.SkipClient {
			continue
		}
		c.queueMessage(msg)
	}
}

// RetireRoom unloads the room and notifies every attached client that the
// room was retired. The database mutation happens before this call.
func (cs *GameServer) RetireRoom(ctx context.Context, joinCode string) error {
	req := retireReq{joinCode: joinCode, done: make(chan struct{})}

	select {
	case cs.retireChan <- req:
	case <-ctx.Done():
		return fmt.Errorf("retire room %q: %w", joinCode, ctx.Err())
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retire room %q: %w", joinCode, ctx.Err())
	}
}

// PushRoomEvent delivers a moderation event into the room channel and, when
// expelUserId is set, detaches that user's connections. Membership push
// replaces any polling: it fires on the mutation path itself.
func (cs *GameServer) PushRoomEvent(ctx context.Context, joinCode string, event *ServerMessage, expelUserId int) error {
	push := roomPush{
		joinCode: joinCode,
		req:      &modReq{event: event, expelId: expelUserId, done: make(chan struct{})},
		done:     make(chan struct{}),
	}

	select {
	case cs.pushChan <- push:
	case <-ctx.Done():
		return fmt.Errorf("push to room %q: %w", joinCode, ctx.Err())
	}

	select {
	case <-push.req.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("push to room %q: %w", joinCode, ctx.Err())
	}
}

// NotifyUser sends a notification to all of a user's connections regardless
// of room.
func (cs *GameServer) NotifyUser(userId int, msg *ServerMessage) {
	msg.UserId = userId
	msg.Timestamp = Now()

	select {
	case cs.broadcastChan <- msg:
	default:
		cs.log.Printf("broadcast channel full, dropping notification for user %d", userId)
	}
}

func (cs *GameServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

func (cs *GameServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	cs.clients[c] = struct{}{}
	if cs.userClients[c.user.Id] == nil {
		cs.userClients[c.user.Id] = make(map[*Client]struct{})
	}
	cs.userClients[c.user.Id][c] = struct{}{}
}

func (cs *GameServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	delete(cs.clients, c)
	if userClients, ok := cs.userClients[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(cs.userClients, c.user.Id)
		}
	}
}

func (cs *GameServer) unloadRoom(joinCode string) {
	if _, ok := cs.rooms[joinCode]; ok {
		cs.log.Printf("unloading room %q", joinCode)
		delete(cs.rooms, joinCode)
		cs.stats.Decr("LoadedRooms")
	}
}

func (cs *GameServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")

	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("game server shutdown: %w", ctx.Err())
	}
}
