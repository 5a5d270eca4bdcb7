package core

// Request types

type CreateGameRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
	Board []string     `json:"board,omitempty" validate:"omitempty,len=6,dive,len=6"`
	Turn  string       `json:"turn,omitempty" validate:"omitempty,oneof=w b"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white" validate:"required"`
	Black PlayerConfig `json:"black" validate:"required"`
}

type MoveRequest struct {
	Move string `json:"move" validate:"required,min=4,max=5"` // "cccc" for agent move, "a4b3" or "a4-b3" otherwise
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"`
}

// Response types

type GameResponse struct {
	GameID     string          `json:"gameId"`
	Board      []string        `json:"board"`
	Turn       string          `json:"turn"`  // "w" or "b"
	State      string          `json:"state"` // "ongoing", "white wins", etc
	Version    int             `json:"version"`
	Moves      []string        `json:"moves"`
	Players    PlayersResponse `json:"players"`
	LastMove   *MoveInfo       `json:"lastMove,omitempty"`
	AgentError string          `json:"agentError,omitempty"`
}

type MoveInfo struct {
	Move       string `json:"move"`
	PlayerSide string `json:"playerSide"` // "w" or "b"
}

type BoardResponse struct {
	Rows  []string `json:"rows"`
	Board string   `json:"board"` // ASCII representation
}

type DestinationsResponse struct {
	From         string   `json:"from"`
	Destinations []string `json:"destinations"`
	Indices      []int    `json:"indices"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
