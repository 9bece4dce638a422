package server

import (
	"testing"
	"time"

	"github.com/jcouture/go-gameroom/internal/types"
	"github.com/stretchr/testify/assert"
)

func newBareRoom() *Room {
	return &Room{
		joinCode: "test-room",
		clients:  make(map[*Client]struct{}),
		userMap:  make(map[int]map[*Client]struct{}),
		hovers:   make(map[int]*hoverEntry),
	}
}

func Test_setHover(t *testing.T) {
	t.Run("first hover is accepted", func(t *testing.T) {
		room := newBareRoom()
		assert.True(t, room.setHover(1, "cell-4"), "expected first hover to be accepted")
		assert.Equal(t, "cell-4", room.hovers[1].target)
	})

	t.Run("same target is a no-op", func(t *testing.T) {
		room := newBareRoom()
		room.setHover(1, "cell-4")
		assert.False(t, room.setHover(1, "cell-4"), "expected repeated target to be dropped")
	})

	t.Run("rapid changes are throttled", func(t *testing.T) {
		room := newBareRoom()
		room.setHover(1, "cell-4")
		assert.False(t, room.setHover(1, "cell-5"), "expected change within the throttle window to be dropped")
		assert.Equal(t, "cell-4", room.hovers[1].target, "expected previous write to win")
	})

	t.Run("last write wins after the window", func(t *testing.T) {
		room := newBareRoom()
		room.hovers[1] = &hoverEntry{target: "cell-4", updatedAt: time.Now().Add(-2 * hoverThrottle)}
		assert.True(t, room.setHover(1, "cell-5"), "expected change after the throttle window to apply")
		assert.Equal(t, "cell-5", room.hovers[1].target)
	})

	t.Run("empty target clears", func(t *testing.T) {
		room := newBareRoom()
		room.setHover(1, "cell-4")
		assert.True(t, room.setHover(1, ""), "expected clear to report a change")
		assert.NotContains(t, room.hovers, 1)
		assert.False(t, room.setHover(1, ""), "expected clearing nothing to be a no-op")
	})

	t.Run("users are throttled independently", func(t *testing.T) {
		room := newBareRoom()
		room.setHover(1, "cell-4")
		assert.True(t, room.setHover(2, "cell-4"), "expected another user's hover to be unaffected")
	})
}

func Test_clearAllHovers(t *testing.T) {
	room := newBareRoom()

	c := &Client{user: types.User{Id: 3, Username: "watcher"}, send: make(chan *ServerMessage, 256), rooms: make(map[string]*Room)}
	room.addClient(c)

	room.setHover(1, "cell-4")
	room.setHover(2, "cell-7")

	room.clearAllHovers()
	assert.Len(t, room.hovers, 0, "expected every hover to be dropped")

	// one clearing event per previously hovering user
	var cleared int
	for len(c.send) > 0 {
		msg := <-c.send
		assert.Equal(t, EventPresenceHover, msg.Type)
		assert.Empty(t, msg.Presence.Target, "expected an empty target on a clearing event")
		cleared++
	}
	assert.Equal(t, 2, cleared, "expected two clearing events")
}

func Test_clearUserHover(t *testing.T) {
	room := newBareRoom()

	c := &Client{user: types.User{Id: 3, Username: "watcher"}, send: make(chan *ServerMessage, 256), rooms: make(map[string]*Room)}
	room.addClient(c)

	room.clearUserHover(1)
	assert.Len(t, c.send, 0, "expected no broadcast when no hover existed")

	room.setHover(1, "cell-4")
	room.clearUserHover(1)
	assert.NotContains(t, room.hovers, 1)

	if assert.Len(t, c.send, 1, "expected a single clearing event") {
		msg := <-c.send
		assert.Equal(t, EventPresenceHover, msg.Type)
		assert.Equal(t, 1, msg.Presence.UserId)
	}
}
