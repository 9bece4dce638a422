package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jcouture/go-gameroom/internal/types"
)

// Realtime event types. Session snapshots for one session are totally ordered
// by Seq; presence events are best-effort and unordered.
const (
	EventRoomJoined      = "room:joined"
	EventMemberJoined    = "room:member-joined"
	EventMemberLeft      = "room:member-left"
	EventKicked          = "room:kicked"
	EventBanned          = "room:banned"
	EventRoomRetired     = "room:retired"
	EventInviteReceived  = "moderation:invite-received"
	EventJoinRequest     = "moderation:join-request"
	EventRequestResolved = "moderation:request-resolved"
	EventSessionState    = "session:state"
	EventSessionConfig   = "session:config"
	EventSessionPaused   = "session:paused"
	EventSessionResumed  = "session:resumed"
	EventPresenceHover   = "presence:hover"
	EventPresenceOffline = "presence:offline"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Join         *Join         `json:"join,omitempty"`
	Leave        *Leave        `json:"leave,omitempty"`
	Move         *Move         `json:"move,omitempty"`
	SelectGame   *SelectGame   `json:"select_game,omitempty"`
	UpdateConfig *UpdateConfig `json:"update_config,omitempty"`
	Pause        *Pause        `json:"pause,omitempty"`
	Resume       *Resume       `json:"resume,omitempty"`
	Hover        *Hover        `json:"hover,omitempty"`
	UserId       int           `json:"-"`
	client       *Client       `json:"-"`
}

func (m *ClientMessage) GetUserId() int {
	if m == nil {
		return 0
	}
	return m.UserId
}

type Join struct {
	JoinCode  string   `json:"join_code"`
	Password  string   `json:"password,omitempty"`
	PlayerIds []string `json:"player_ids,omitempty"`
}

type Leave struct {
	JoinCode string `json:"join_code"`
	// Unsubscribe gives up room membership; otherwise the connection just
	// detaches from the room channel.
	Unsubscribe bool `json:"unsubscribe,omitempty"`
}

// Move always names the claimed player explicitly. The engine never infers a
// player from the sending user, since one user may own several players.
type Move struct {
	JoinCode string          `json:"join_code"`
	PlayerId string          `json:"player_id"`
	Move     json.RawMessage `json:"move"`
}

type SelectGame struct {
	JoinCode string          `json:"join_code"`
	GameName string          `json:"game_name"`
	Config   json.RawMessage `json:"config,omitempty"`
}

type UpdateConfig struct {
	JoinCode string          `json:"join_code"`
	Config   json.RawMessage `json:"config"`
}

type Pause struct {
	JoinCode string `json:"join_code"`
}

type Resume struct {
	JoinCode string `json:"join_code"`
}

// Hover with an empty target clears the user's hover.
type Hover struct {
	JoinCode string `json:"join_code"`
	Target   string `json:"target,omitempty"`
}

type ServerMessage struct {
	BaseMessage
	Type       string           `json:"type,omitempty"`
	Response   *Response        `json:"response,omitempty"`
	Room       *RoomEvent       `json:"room,omitempty"`
	Moderation *ModerationEvent `json:"moderation,omitempty"`
	Session    *SessionEvent    `json:"session,omitempty"`
	Presence   *PresenceEvent   `json:"presence,omitempty"`
	// UserId routes per-user notifications outside any room channel.
	UserId     int     `json:"-"`
	SkipClient *Client `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	ErrorCode    string `json:"error_code,omitempty"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type RoomEvent struct {
	JoinCode string      `json:"join_code"`
	UserId   int         `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Room     *types.Room `json:"room,omitempty"`
}

type ModerationEvent struct {
	Invitation  *types.Invitation  `json:"invitation,omitempty"`
	JoinRequest *types.JoinRequest `json:"join_request,omitempty"`
}

type SessionEvent struct {
	SessionId int             `json:"session_id"`
	SeqId     int             `json:"seq_id,omitempty"`
	GameName  string          `json:"game_name,omitempty"`
	State     json.RawMessage `json:"state,omitempty"`
	Config    json.RawMessage `json:"config,omitempty"`
	Session   *types.Session  `json:"session,omitempty"`
	Warning   string          `json:"warning,omitempty"`
}

type PresenceEvent struct {
	JoinCode string `json:"join_code"`
	UserId   int    `json:"user_id"`
	Target   string `json:"target,omitempty"`
	Online   bool   `json:"online"`
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

var errStatusCodes = map[types.ErrorCode]int{
	types.CodeAuthorization: http.StatusForbidden,
	types.CodeNotFound:      http.StatusNotFound,
	types.CodeConflict:      http.StatusConflict,
	types.CodeValidation:    http.StatusBadRequest,
	types.CodeTransient:     http.StatusServiceUnavailable,
}

// ErrResponse converts a typed error into a client response, preserving the
// concrete reason.
func ErrResponse(id int, err *types.Error) *ServerMessage {
	code, ok := errStatusCodes[err.Code]
	if !ok {
		code = http.StatusInternalServerError
	}

	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			ErrorCode:    string(err.Code),
			Error:        err.Message,
		},
	}
}

func ErrRoomNotFound(id int) *ServerMessage {
	return ErrResponse(id, types.NotFound("room not found"))
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return ErrResponse(id, types.Transient("service unavailable"))
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := ErrResponse(0, types.Invalid("invalid message format"))
	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
