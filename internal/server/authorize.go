package server

import (
	"encoding/json"
	"slices"

	"github.com/jcouture/go-gameroom/internal/games"
	"github.com/jcouture/go-gameroom/internal/types"
)

// AuthorizeMove is the single choke point for move authorization. It is pure:
// no side effects, no state reads beyond its arguments. The claimed player id
// is always explicit in the request and is checked against the actor's owned
// players, the session roster, and the game module's turn rule, in that
// order. Every rejection carries a user-displayable reason.
func AuthorizeMove(ownedPlayers map[string]struct{}, activePlayers []string, module games.Module, state json.RawMessage, claimedPlayerId string) *types.Error {
	if claimedPlayerId == "" {
		return types.Invalid("player id is required")
	}

	if _, ok := ownedPlayers[claimedPlayerId]; !ok {
		return types.Forbidden("not your player")
	}

	if !slices.Contains(activePlayers, claimedPlayerId) {
		return types.Forbidden("player not in session")
	}

	if !module.IsPlayersTurn(state, claimedPlayerId) {
		return types.Forbidden("not your turn")
	}

	return nil
}

// playerSet converts a player list into the ownership set AuthorizeMove
// expects.
func playerSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
