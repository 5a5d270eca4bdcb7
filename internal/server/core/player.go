package core

import (
	"breakthrough/internal/server/board"

	"github.com/google/uuid"
)

type PlayerType int

const (
	PlayerHuman PlayerType = iota + 1
	PlayerAgent
)

func (t PlayerType) String() string {
	switch t {
	case PlayerHuman:
		return "human"
	case PlayerAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Player is the complete game entity with all state
type Player struct {
	ID      string     `json:"id"`
	Side    board.Side `json:"side"`
	Type    PlayerType `json:"type"`
	Timeout int        `json:"timeout,omitempty"` // Agent reply budget in ms
}

// PlayerConfig for API requests and configuration
type PlayerConfig struct {
	Type    PlayerType `json:"type" validate:"required,oneof=1 2"`
	Timeout int        `json:"timeout,omitempty" validate:"omitempty,min=100,max=30000"`
}

// PlayersResponse for API responses
type PlayersResponse struct {
	White *Player `json:"white"`
	Black *Player `json:"black"`
}

// NewPlayer creates a Player from PlayerConfig
func NewPlayer(config PlayerConfig, side board.Side) *Player {
	player := &Player{
		ID:   uuid.New().String(),
		Side: side,
		Type: config.Type,
	}

	if config.Type == PlayerAgent {
		player.Timeout = config.Timeout
	}

	return player
}
