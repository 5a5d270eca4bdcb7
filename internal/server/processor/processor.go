package processor

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/core"
	"breakthrough/internal/server/game"
	"breakthrough/internal/server/service"
)

// AgentMoveSentinel in a move request asks the agent at turn to move
const AgentMoveSentinel = "cccc"

// Processor handles command execution and coordinates the service and the agent queue
type Processor struct {
	svc   *service.Service
	queue *AgentQueue
}

// New creates a processor whose agent moves come from s
func New(svc *service.Service, s Suggester, workers int) *Processor {
	return &Processor{
		svc:   svc,
		queue: NewAgentQueue(s, workers),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdConfigurePlayers:
		return p.handleConfigurePlayers(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdGetMoves:
		return p.handleGetMoves(cmd)
	case CmdResetGame:
		return p.mutateAndRespond(cmd, p.svc.ResetGame)
	case CmdInvertBoard:
		return p.mutateAndRespond(cmd, p.svc.InvertBoard)
	case CmdSwitchTurn:
		return p.mutateAndRespond(cmd, p.svc.SwitchTurn)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

// handleCreateGame creates a game from the standard or a custom layout
func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	initial := board.Initial()
	if len(args.Board) > 0 {
		b, err := board.ParseRows(args.Board)
		if err != nil {
			return p.errorResponse(err.Error(), core.ErrInvalidBoard)
		}
		initial = b
	}

	turn := board.White
	if args.Turn != "" {
		side, ok := board.ParseSide(args.Turn)
		if !ok {
			return p.errorResponse(fmt.Sprintf("invalid turn %q", args.Turn), core.ErrInvalidRequest)
		}
		turn = side
	}

	whitePlayer := core.NewPlayer(args.White, board.White)
	blackPlayer := core.NewPlayer(args.Black, board.Black)

	// Authenticated humans play under their account ID
	if args.White.Type == core.PlayerHuman && cmd.UserID != "" {
		whitePlayer.ID = cmd.UserID
	}
	if args.Black.Type == core.PlayerHuman && cmd.UserID != "" {
		blackPlayer.ID = cmd.UserID
	}

	gameID := p.svc.GenerateGameID()
	if err := p.svc.CreateGame(gameID, whitePlayer, blackPlayer, initial, turn); err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	return p.gameResponse(gameID)
}

// handleConfigurePlayers swaps player configuration mid-game
func (p *Processor) handleConfigurePlayers(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ConfigurePlayersRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	whitePlayer := core.NewPlayer(args.White, board.White)
	blackPlayer := core.NewPlayer(args.Black, board.Black)

	if err := p.svc.UpdatePlayers(cmd.GameID, whitePlayer, blackPlayer); err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	return p.gameResponse(cmd.GameID)
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	return p.gameResponse(cmd.GameID)
}

// handleMakeMove plays a human move or queues an agent move
func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	move := strings.ToLower(strings.TrimSpace(args.Move))
	if move == AgentMoveSentinel {
		return p.handleAgentMove(cmd.GameID)
	}

	m, err := board.ParseMove(move)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidMove)
	}

	result, err := p.svc.ApplyMove(cmd.GameID, m, core.PlayerHuman)
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	resp := p.gameResponse(cmd.GameID)
	if data, ok := resp.Data.(core.GameResponse); ok {
		data.LastMove = &core.MoveInfo{
			Move:       result.Move,
			PlayerSide: result.PlayerSide.String(),
		}
		resp.Data = data
	}
	return resp
}

// handleAgentMove marks the game pending and queues the agent query
func (p *Processor) handleAgentMove(gameID string) ProcessorResponse {
	turn, err := p.svc.BeginAgentMove(gameID)
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	err = p.queue.SubmitAsync(gameID, turn.Board, turn.Side, ClampTimeout(turn.Player.Timeout), func(result AgentResult) {
		p.completeAgentMove(gameID, turn.Version, result)
	})
	if err != nil {
		p.svc.FailAgentMove(gameID, err.Error())
		return p.errorResponse(err.Error(), core.ErrAgentUnavailable)
	}

	resp := p.gameResponse(gameID)
	resp.Pending = true
	if data, ok := resp.Data.(core.GameResponse); ok {
		data.LastMove = &core.MoveInfo{PlayerSide: turn.Side.String()}
		resp.Data = data
	}
	return resp
}

// completeAgentMove applies an agent reply to the query issued at version.
// Failures and illegal suggestions leave the position untouched with the
// reason recorded.
func (p *Processor) completeAgentMove(gameID string, version int, result AgentResult) {
	if result.Error != nil {
		if err := p.svc.FailAgentMove(gameID, result.Error.Error()); err != nil && !errors.Is(err, service.ErrGameNotFound) {
			log.Printf("Game %s: failed to clear pending agent move: %v", gameID, err)
		}
		return
	}

	_, err := p.svc.ApplyAgentMove(gameID, result.Move, version)
	switch {
	case err == nil:
		return
	case errors.Is(err, service.ErrGameNotFound):
		// Game was deleted while the agent was thinking
		return
	case errors.Is(err, service.ErrStaleAgentMove):
		// The game moved on, any pending state belongs to a newer query
		log.Printf("Game %s: discarding agent move %s: %v", gameID, result.Move, err)
		return
	case errors.Is(err, service.ErrIllegalMove):
		log.Printf("Game %s: agent suggested illegal move %s", gameID, result.Move)
		p.svc.FailAgentMove(gameID, fmt.Sprintf("agent suggested illegal move %s", result.Move))
	default:
		log.Printf("Game %s: discarding agent move %s: %v", gameID, result.Move, err)
		p.svc.FailAgentMove(gameID, err.Error())
	}
}

func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args := core.UndoRequest{Count: 1}
	if req, ok := cmd.Args.(core.UndoRequest); ok {
		args = req
	}

	if err := p.svc.UndoMoves(cmd.GameID, args.Count); err != nil {
		return p.serviceError(err, core.ErrInvalidRequest)
	}

	return p.gameResponse(cmd.GameID)
}

// handleDeleteGame removes a game, a pending agent reply is then discarded
func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	return ProcessorResponse{Success: true}
}

// handleGetBoard returns the rows and an ASCII rendering
func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	var resp core.BoardResponse
	err := p.svc.ViewGame(cmd.GameID, func(g *game.Game) error {
		b := g.CurrentBoard()
		resp = core.BoardResponse{Rows: b.Rows(), Board: b.ToASCII()}
		return nil
	})
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	return ProcessorResponse{Success: true, Data: resp}
}

// handleGetMoves lists the legal destinations of one square
func (p *Processor) handleGetMoves(cmd Command) ProcessorResponse {
	square, _ := cmd.Args.(string)
	from, err := board.ParsePosition(square)
	if err != nil {
		return p.errorResponse(err.Error(), core.ErrInvalidRequest)
	}

	resp := core.DestinationsResponse{
		From:         from.String(),
		Destinations: []string{},
		Indices:      []int{},
	}
	err = p.svc.ViewGame(cmd.GameID, func(g *game.Game) error {
		for _, to := range g.CurrentBoard().LegalDestinations(from) {
			resp.Destinations = append(resp.Destinations, to.String())
			resp.Indices = append(resp.Indices, to.Index())
		}
		return nil
	})
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}

	return ProcessorResponse{Success: true, Data: resp}
}

// mutateAndRespond runs a parameterless game transition
func (p *Processor) mutateAndRespond(cmd Command, fn func(gameID string) error) ProcessorResponse {
	if err := fn(cmd.GameID); err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}
	return p.gameResponse(cmd.GameID)
}

func (p *Processor) gameResponse(gameID string) ProcessorResponse {
	var resp core.GameResponse
	err := p.svc.ViewGame(gameID, func(g *game.Game) error {
		resp = buildGameResponse(gameID, g)
		return nil
	})
	if err != nil {
		return p.serviceError(err, core.ErrInternalError)
	}
	return ProcessorResponse{Success: true, Data: resp}
}

// buildGameResponse constructs the standard game response
func buildGameResponse(gameID string, g *game.Game) core.GameResponse {
	resp := core.GameResponse{
		GameID:  gameID,
		Board:   g.CurrentBoard().Rows(),
		Turn:    g.NextTurn().String(),
		State:   g.State().String(),
		Version: g.Version(),
		Moves:   g.Moves(),
		Players: core.PlayersResponse{
			White: g.GetPlayer(board.White),
			Black: g.GetPlayer(board.Black),
		},
		AgentError: g.LastError(),
	}

	if result := g.LastResult(); result != nil {
		resp.LastMove = &core.MoveInfo{
			Move:       result.Move,
			PlayerSide: result.PlayerSide.String(),
		}
	}

	return resp
}

// serviceError maps service errors to API codes, fallback covers the rest
func (p *Processor) serviceError(err error, fallback string) ProcessorResponse {
	code := fallback
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		code = core.ErrGameNotFound
	case errors.Is(err, service.ErrGameOver):
		code = core.ErrGameOver
	case errors.Is(err, service.ErrGamePending):
		code = core.ErrGamePending
	case errors.Is(err, service.ErrNotHumanTurn):
		code = core.ErrNotHumanTurn
	case errors.Is(err, service.ErrNotAgentTurn):
		code = core.ErrNotAgentTurn
	case errors.Is(err, service.ErrIllegalMove):
		code = core.ErrInvalidMove
	case errors.Is(err, service.ErrGameLimit):
		code = core.ErrResourceLimit
	}
	return p.errorResponse(err.Error(), code)
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close stops the agent workers
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}
