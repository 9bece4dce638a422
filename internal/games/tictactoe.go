package games

import (
	"encoding/json"
	"fmt"
)

// TicTacToe is a strictly turn-based module used to exercise the engine's
// turn checks.
type TicTacToe struct{}

type tttState struct {
	Board   [9]string `json:"board"`
	Players []string  `json:"players"`
	Turn    int       `json:"turn"`
	Winner  string    `json:"winner,omitempty"`
	Done    bool      `json:"done"`
}

type tttMove struct {
	Cell int `json:"cell"`
}

func (g *TicTacToe) Name() string { return "tictactoe" }

func (g *TicTacToe) InitialState(_ json.RawMessage, activePlayers []string) (json.RawMessage, error) {
	if len(activePlayers) != 2 {
		return nil, fmt.Errorf("tictactoe requires exactly 2 players, got %d", len(activePlayers))
	}

	return json.Marshal(tttState{Players: activePlayers})
}

func (g *TicTacToe) ApplyMove(state json.RawMessage, playerId string, move json.RawMessage) (json.RawMessage, error) {
	var s tttState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	if s.Done {
		return nil, fmt.Errorf("game is over")
	}

	var mv tttMove
	if err := json.Unmarshal(move, &mv); err != nil {
		return nil, fmt.Errorf("decode move: %w", err)
	}

	if mv.Cell < 0 || mv.Cell > 8 {
		return nil, fmt.Errorf("cell %d out of range", mv.Cell)
	}
	if s.Board[mv.Cell] != "" {
		return nil, fmt.Errorf("cell %d is taken", mv.Cell)
	}

	s.Board[mv.Cell] = playerId
	if winner := tttWinner(s.Board); winner != "" {
		s.Winner = winner
		s.Done = true
	} else if tttFull(s.Board) {
		s.Done = true
	} else {
		s.Turn = (s.Turn + 1) % len(s.Players)
	}

	return json.Marshal(s)
}

func (g *TicTacToe) IsPlayersTurn(state json.RawMessage, playerId string) bool {
	var s tttState
	if err := json.Unmarshal(state, &s); err != nil {
		return false
	}

	return !s.Done && s.Turn < len(s.Players) && s.Players[s.Turn] == playerId
}

func (g *TicTacToe) IsTerminal(state json.RawMessage) bool {
	var s tttState
	if err := json.Unmarshal(state, &s); err != nil {
		return false
	}

	return s.Done
}

var tttLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func tttWinner(board [9]string) string {
	for _, line := range tttLines {
		if board[line[0]] != "" && board[line[0]] == board[line[1]] && board[line[1]] == board[line[2]] {
			return board[line[0]]
		}
	}
	return ""
}

func tttFull(board [9]string) bool {
	for _, cell := range board {
		if cell == "" {
			return false
		}
	}
	return true
}
