package server

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jcouture/go-gameroom/internal/database"
	"github.com/jcouture/go-gameroom/internal/types"
)

func snapshotOf(sessionId int, gameName string, state json.RawMessage, seq int) database.Snapshot {
	return database.Snapshot{
		SessionId: sessionId,
		GameName:  gameName,
		State:     state,
		Seq:       seq,
	}
}

// session is the room actor's in-memory handle on the room's single live
// session. It is only ever touched from the room goroutine.
type session struct {
	id            int
	gameName      string
	config        json.RawMessage
	activePlayers []string
	status        types.SessionStatus
	// state is the opaque game blob; nil until a game has been started.
	state json.RawMessage
	// seq is strictly increasing across the session's lifetime, including
	// across game switches, so clients can always discard stale snapshots.
	seq int
}

func (s *session) started() bool {
	return s.state != nil
}

func (s *session) paused() bool {
	return s.status == types.SessionPaused
}

func (s *session) seated(playerId string) bool {
	for _, id := range s.activePlayers {
		if id == playerId {
			return true
		}
	}
	return false
}

// seat appends players not already on the roster, preserving order.
func (s *session) seat(playerIds []string) bool {
	var changed bool
	for _, id := range playerIds {
		if !s.seated(id) {
			s.activePlayers = append(s.activePlayers, id)
			changed = true
		}
	}
	return changed
}

// unseat removes the given players from the roster.
func (s *session) unseat(playerIds []string) bool {
	if len(playerIds) == 0 {
		return false
	}

	drop := make(map[string]struct{}, len(playerIds))
	for _, id := range playerIds {
		drop[id] = struct{}{}
	}

	kept := s.activePlayers[:0]
	var changed bool
	for _, id := range s.activePlayers {
		if _, ok := drop[id]; ok {
			changed = true
			continue
		}
		kept = append(kept, id)
	}
	s.activePlayers = kept

	return changed
}

func (s *session) toWire(roomId int) *types.Session {
	players := s.activePlayers
	if players == nil {
		players = []string{}
	}

	return &types.Session{
		Id:            s.id,
		RoomId:        roomId,
		GameName:      s.gameName,
		Config:        s.config,
		ActivePlayers: players,
		Status:        s.status,
	}
}

// mergeConfig applies a partial config on top of the current one. The second
// return value is false when the merge changes nothing, in which case callers
// must not write or broadcast.
func mergeConfig(current, partial json.RawMessage) (json.RawMessage, bool, error) {
	var base map[string]any
	if len(current) > 0 {
		if err := json.Unmarshal(current, &base); err != nil {
			return nil, false, fmt.Errorf("decode config: %w", err)
		}
	}
	if base == nil {
		base = make(map[string]any)
	}

	var overlay map[string]any
	if len(partial) > 0 {
		if err := json.Unmarshal(partial, &overlay); err != nil {
			return nil, false, fmt.Errorf("decode config change: %w", err)
		}
	}

	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	if reflect.DeepEqual(base, merged) {
		return current, false, nil
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, false, fmt.Errorf("encode config: %w", err)
	}

	return raw, true, nil
}
