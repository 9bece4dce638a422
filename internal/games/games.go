// Package games defines the adapter contract between the room engine and
// pluggable game modules, plus the enumerated module registry. The engine
// treats game state as an opaque blob; only the module that produced a state
// may interpret or advance it.
package games

import (
	"encoding/json"
	"fmt"
)

// Module is implemented by every playable game. ApplyMove must be pure and
// deterministic: same state, player and move always yield the same result.
type Module interface {
	// Name returns the registry key for the module.
	Name() string
	// InitialState builds the opening state for the given seated players.
	InitialState(config json.RawMessage, activePlayers []string) (json.RawMessage, error)
	// ApplyMove validates and applies a single move, returning the next state.
	ApplyMove(state json.RawMessage, playerId string, move json.RawMessage) (json.RawMessage, error)
	// IsPlayersTurn reports whether the player may move in the given state.
	IsPlayersTurn(state json.RawMessage, playerId string) bool
	// IsTerminal reports whether the state admits no further moves.
	IsTerminal(state json.RawMessage) bool
}

var registry = map[string]Module{}

func register(m Module) {
	if _, ok := registry[m.Name()]; ok {
		panic("games: duplicate module " + m.Name())
	}
	registry[m.Name()] = m
}

func init() {
	register(&TicTacToe{})
	register(&TapTally{})
}

// Lookup is the single point of game-name validation.
func Lookup(name string) (Module, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown game %q", name)
	}

	return m, nil
}

// Names lists the registered module names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
