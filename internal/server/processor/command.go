package processor

import (
	"breakthrough/internal/server/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdConfigurePlayers
	CmdGetGame
	CmdDeleteGame
	CmdMakeMove
	CmdUndoMove
	CmdGetBoard
	CmdGetMoves
	CmdResetGame
	CmdInvertBoard
	CmdSwitchTurn
)

var commandNames = map[CommandType]string{
	CmdCreateGame:       "create-game",
	CmdConfigurePlayers: "configure-players",
	CmdGetGame:          "get-game",
	CmdDeleteGame:       "delete-game",
	CmdMakeMove:         "make-move",
	CmdUndoMove:         "undo-move",
	CmdGetBoard:         "get-board",
	CmdGetMoves:         "get-moves",
	CmdResetGame:        "reset-game",
	CmdInvertBoard:      "invert-board",
	CmdSwitchTurn:       "switch-turn",
}

func (t CommandType) String() string {
	if name, ok := commandNames[t]; ok {
		return name
	}
	return "unknown"
}

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	UserID string
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // Agent move queued
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{Type: CmdCreateGame, Args: req}
}

func NewConfigurePlayersCommand(gameID string, req core.ConfigurePlayersRequest) Command {
	return Command{Type: CmdConfigurePlayers, GameID: gameID, Args: req}
}

func NewGetGameCommand(gameID string) Command {
	return Command{Type: CmdGetGame, GameID: gameID}
}

func NewMakeMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{Type: CmdMakeMove, GameID: gameID, Args: req}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{Type: CmdUndoMove, GameID: gameID, Args: req}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{Type: CmdDeleteGame, GameID: gameID}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{Type: CmdGetBoard, GameID: gameID}
}

// NewGetMovesCommand asks for the legal destinations of the piece on from
func NewGetMovesCommand(gameID, from string) Command {
	return Command{Type: CmdGetMoves, GameID: gameID, Args: from}
}

func NewResetGameCommand(gameID string) Command {
	return Command{Type: CmdResetGame, GameID: gameID}
}

func NewInvertBoardCommand(gameID string) Command {
	return Command{Type: CmdInvertBoard, GameID: gameID}
}

func NewSwitchTurnCommand(gameID string) Command {
	return Command{Type: CmdSwitchTurn, GameID: gameID}
}
