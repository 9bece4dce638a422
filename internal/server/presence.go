package server

import "time"

// hoverThrottle is the minimum interval between accepted hover updates per
// user. Updates arriving faster are dropped; the last accepted write wins.
const hoverThrottle = 150 * time.Millisecond

type hoverEntry struct {
	target    string
	updatedAt time.Time
}

// setHover records a hover target for a user. It returns false when the
// update was throttled or is a no-op. An empty target clears the hover.
// Called only from the room goroutine.
func (r *Room) setHover(userId int, target string) bool {
	cur, ok := r.hovers[userId]

	if target == "" {
		if !ok {
			return false
		}
		delete(r.hovers, userId)
		return true
	}

	now := time.Now()
	if ok {
		if cur.target == target {
			return false
		}
		if now.Sub(cur.updatedAt) < hoverThrottle {
			return false
		}
	}

	r.hovers[userId] = &hoverEntry{target: target, updatedAt: now}
	return true
}

// clearAllHovers drops every hover entry and notifies the room. Used when the
// game state advances, since hover targets refer to the previous state.
func (r *Room) clearAllHovers() {
	for userId := range r.hovers {
		delete(r.hovers, userId)
		r.broadcast(&ServerMessage{
			Type: EventPresenceHover,
			Presence: &PresenceEvent{
				JoinCode: r.joinCode,
				UserId:   userId,
			},
		})
	}
}

// clearUserHover drops one user's hover, broadcasting only if one existed.
func (r *Room) clearUserHover(userId int) {
	if _, ok := r.hovers[userId]; !ok {
		return
	}

	delete(r.hovers, userId)
	r.broadcast(&ServerMessage{
		Type: EventPresenceHover,
		Presence: &PresenceEvent{
			JoinCode: r.joinCode,
			UserId:   userId,
		},
	})
}
