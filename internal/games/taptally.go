package games

import (
	"encoding/json"
	"fmt"
)

const defaultTapTarget = 20

// TapTally is a free-for-all counter race: every seated player may move at
// any time, first to the target wins. It exercises the engine's non
// turn-based path.
type TapTally struct{}

type tallyConfig struct {
	Target int `json:"target"`
}

type tallyState struct {
	Counts map[string]int `json:"counts"`
	Target int            `json:"target"`
	Winner string         `json:"winner,omitempty"`
}

func (g *TapTally) Name() string { return "taptally" }

func (g *TapTally) InitialState(config json.RawMessage, activePlayers []string) (json.RawMessage, error) {
	if len(activePlayers) == 0 {
		return nil, fmt.Errorf("taptally requires at least 1 player")
	}

	cfg := tallyConfig{Target: defaultTapTarget}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	if cfg.Target <= 0 {
		cfg.Target = defaultTapTarget
	}

	counts := make(map[string]int, len(activePlayers))
	for _, p := range activePlayers {
		counts[p] = 0
	}

	return json.Marshal(tallyState{Counts: counts, Target: cfg.Target})
}

func (g *TapTally) ApplyMove(state json.RawMessage, playerId string, _ json.RawMessage) (json.RawMessage, error) {
	var s tallyState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	if s.Winner != "" {
		return nil, fmt.Errorf("game is over")
	}
	if _, ok := s.Counts[playerId]; !ok {
		return nil, fmt.Errorf("player %s is not in this game", playerId)
	}

	s.Counts[playerId]++
	if s.Counts[playerId] >= s.Target {
		s.Winner = playerId
	}

	return json.Marshal(s)
}

func (g *TapTally) IsPlayersTurn(state json.RawMessage, playerId string) bool {
	var s tallyState
	if err := json.Unmarshal(state, &s); err != nil {
		return false
	}

	_, seated := s.Counts[playerId]
	return seated && s.Winner == ""
}

func (g *TapTally) IsTerminal(state json.RawMessage) bool {
	var s tallyState
	if err := json.Unmarshal(state, &s); err != nil {
		return false
	}

	return s.Winner != ""
}
