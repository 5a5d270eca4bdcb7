package api

import (
	"strconv"
	"time"
)

// Player types on the wire
const (
	PlayerHuman = 1
	PlayerAgent = 2
)

// AgentMove is the move string that asks the server to query the agent
const AgentMove = "cccc"

type PlayerConfig struct {
	Type    int `json:"type"`
	Timeout int `json:"timeout,omitempty"`
}

type CreateGameRequest struct {
	White PlayerConfig `json:"white"`
	Black PlayerConfig `json:"black"`
	Board []string     `json:"board,omitempty"`
	Turn  string       `json:"turn,omitempty"`
}

type ConfigurePlayersRequest struct {
	White PlayerConfig `json:"white"`
	Black PlayerConfig `json:"black"`
}

type MoveRequest struct {
	Move string `json:"move"`
}

type UndoRequest struct {
	Count int `json:"count"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PlayerInfo struct {
	ID      string `json:"id"`
	Side    string `json:"side"`
	Type    int    `json:"type"`
	Timeout int    `json:"timeout,omitempty"`
}

type MoveInfo struct {
	Move       string `json:"move"`
	PlayerSide string `json:"playerSide"`
}

type GameResponse struct {
	GameID  string   `json:"gameId"`
	Board   []string `json:"board"`
	Turn    string   `json:"turn"`
	State   string   `json:"state"`
	Version int      `json:"version"`
	Moves   []string `json:"moves"`
	Players struct {
		White PlayerInfo `json:"white"`
		Black PlayerInfo `json:"black"`
	} `json:"players"`
	LastMove   *MoveInfo `json:"lastMove,omitempty"`
	AgentError string    `json:"agentError,omitempty"`
}

// PlayerToMove returns the player whose turn it is
func (g *GameResponse) PlayerToMove() PlayerInfo {
	if g.Turn == "b" {
		return g.Players.Black
	}
	return g.Players.White
}

type BoardResponse struct {
	Rows  []string `json:"rows"`
	Board string   `json:"board"`
}

type DestinationsResponse struct {
	From         string   `json:"from"`
	Destinations []string `json:"destinations"`
	Indices      []int    `json:"indices"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Storage string `json:"storage,omitempty"`
	Games   int    `json:"games"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type UserResponse struct {
	UserID      string     `json:"userId"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	AccountType string     `json:"accountType"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// StatusError is returned for any response with status >= 400
type StatusError struct {
	StatusCode int
	Response   ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Response.Code != "" {
		return "request failed with status " + strconv.Itoa(e.StatusCode) + " (" + e.Response.Code + ")"
	}
	return "request failed with status " + strconv.Itoa(e.StatusCode)
}
