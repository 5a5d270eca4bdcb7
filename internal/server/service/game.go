package service

import (
	"fmt"
	"log"
	"time"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/core"
	"breakthrough/internal/server/game"
	"breakthrough/internal/server/storage"

	"github.com/google/uuid"
)

// AgentTurn is what an agent worker needs to compute one move
type AgentTurn struct {
	Board   board.Board
	Side    board.Side
	Player  core.Player
	Version int
}

// stateOf derives the game state from a position
func stateOf(b board.Board) core.State {
	if winner, ok := b.Winner(); ok {
		return core.WinState(winner)
	}
	return core.StateOngoing
}

// CreateGame registers a new game with pre-constructed players
func (s *Service) CreateGame(id string, whitePlayer, blackPlayer *core.Player, initial board.Board, startingTurn board.Side) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[id]; exists {
		return fmt.Errorf("%w: %s", ErrGameExists, id)
	}
	if len(s.games) >= MaxGames {
		return ErrGameLimit
	}

	g := game.New(initial, whitePlayer, blackPlayer, startingTurn)
	g.SetState(stateOf(initial))
	s.games[id] = g

	if s.store != nil {
		err := s.store.RecordNewGame(storage.GameRecord{
			GameID:        id,
			InitialBoard:  initial.Encode(),
			StartingTurn:  startingTurn.String(),
			WhitePlayerID: whitePlayer.ID,
			WhiteType:     int(whitePlayer.Type),
			WhiteTimeout:  whitePlayer.Timeout,
			BlackPlayerID: blackPlayer.ID,
			BlackType:     int(blackPlayer.Type),
			BlackTimeout:  blackPlayer.Timeout,
			StartTimeUTC:  time.Now().UTC(),
		})
		archiveFailed(id, err)
	}

	return nil
}

// archiveFailed logs a dropped archive write. Live play continues.
func archiveFailed(gameID string, err error) {
	if err != nil {
		log.Printf("Game %s: %v", gameID, err)
	}
}

// archiveTransition records the transition that produced the current
// version. side is the side that acted.
func (s *Service) archiveTransition(gameID string, g *game.Game, move string, side board.Side) {
	if s.store == nil {
		return
	}
	archiveFailed(gameID, s.store.RecordMove(storage.MoveRecord{
		GameID:      gameID,
		MoveNumber:  g.Version(),
		Move:        move,
		BoardAfter:  g.CurrentBoard().Encode(),
		PlayerSide:  side.String(),
		MoveTimeUTC: time.Now().UTC(),
	}))
}

// GenerateGameID creates a new unique game ID
func (s *Service) GenerateGameID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for {
		id := uuid.New().String()
		if _, exists := s.games[id]; !exists {
			return id
		}
	}
}

// ViewGame runs fn on the game under the read lock. fn must not retain g.
func (s *Service) ViewGame(gameID string, fn func(g *game.Game) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return fn(g)
}

// mutate runs fn under the write lock and wakes waiters if anything changed
func (s *Service) mutate(gameID string, fn func(g *game.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	before, state, lastError := g.Version(), g.State(), g.LastError()
	if err := fn(g); err != nil {
		return err
	}
	if g.Version() != before || g.State() != state || g.LastError() != lastError {
		s.waiter.NotifyGame(gameID)
	}
	return nil
}

// UpdatePlayers replaces both players of a game
func (s *Service) UpdatePlayers(gameID string, whitePlayer, blackPlayer *core.Player) error {
	return s.mutate(gameID, func(g *game.Game) error {
		if g.State() == core.StatePending {
			return ErrGamePending
		}
		g.UpdatePlayers(whitePlayer, blackPlayer)
		return nil
	})
}

// ApplyMove plays m for the side to move. Human moves require a human at
// turn and no pending agent query, agent moves require the pending state.
func (s *Service) ApplyMove(gameID string, m board.Move, mover core.PlayerType) (*game.MoveResult, error) {
	return s.applyMove(gameID, m, mover, -1)
}

// ApplyAgentMove plays the reply to the agent query issued at version
func (s *Service) ApplyAgentMove(gameID string, m board.Move, version int) (*game.MoveResult, error) {
	return s.applyMove(gameID, m, core.PlayerAgent, version)
}

// applyMove checks the game is still at version unless version is negative
func (s *Service) applyMove(gameID string, m board.Move, mover core.PlayerType, version int) (*game.MoveResult, error) {
	var result *game.MoveResult

	err := s.mutate(gameID, func(g *game.Game) error {
		if g.State().IsOver() {
			return ErrGameOver
		}
		if version >= 0 && g.Version() != version {
			return fmt.Errorf("%w: query at version %d, game at %d", ErrStaleAgentMove, version, g.Version())
		}

		player := g.NextPlayer()
		switch mover {
		case core.PlayerHuman:
			if g.State() == core.StatePending {
				return ErrGamePending
			}
			if player.Type != core.PlayerHuman {
				return ErrNotHumanTurn
			}
		case core.PlayerAgent:
			if g.State() != core.StatePending || player.Type != core.PlayerAgent {
				return ErrNotAgentTurn
			}
		}

		side := g.NextTurn()
		b := g.CurrentBoard()
		if !b.IsLegal(m) {
			return fmt.Errorf("%w: %s", ErrIllegalMove, m)
		}
		if owner, _ := b.At(m.From).Side(); owner != side {
			return fmt.Errorf("%w: %s does not hold a %s pawn", ErrIllegalMove, m.From, side.Name())
		}

		next := b.Apply(m)
		g.AddSnapshot(next, m.String(), side.Opponent())
		g.SetState(stateOf(next))

		result = &game.MoveResult{
			Move:       m.String(),
			PlayerSide: side,
			GameState:  g.State(),
		}
		g.SetLastResult(result)

		s.archiveTransition(gameID, g, m.String(), side)
		return nil
	})

	return result, err
}

// BeginAgentMove marks the game pending and returns the query context
func (s *Service) BeginAgentMove(gameID string) (AgentTurn, error) {
	var turn AgentTurn

	err := s.mutate(gameID, func(g *game.Game) error {
		switch {
		case g.State().IsOver():
			return ErrGameOver
		case g.State() == core.StatePending:
			return ErrGamePending
		case g.NextPlayer().Type != core.PlayerAgent:
			return ErrNotAgentTurn
		}

		g.SetState(core.StatePending)
		g.SetLastError("")
		turn = AgentTurn{
			Board:   g.CurrentBoard(),
			Side:    g.NextTurn(),
			Player:  *g.NextPlayer(),
			Version: g.Version(),
		}
		return nil
	})

	return turn, err
}

// FailAgentMove returns a pending game to ongoing without a move
func (s *Service) FailAgentMove(gameID string, reason string) error {
	return s.mutate(gameID, func(g *game.Game) error {
		if g.State() != core.StatePending {
			return nil
		}
		g.SetState(core.StateOngoing)
		g.SetLastError(reason)
		return nil
	})
}

// UndoMoves drops the last count transitions
func (s *Service) UndoMoves(gameID string, count int) error {
	return s.mutate(gameID, func(g *game.Game) error {
		if g.State() == core.StatePending {
			return ErrGamePending
		}
		if err := g.UndoMoves(count); err != nil {
			return err
		}
		g.SetState(stateOf(g.CurrentBoard()))

		if s.store != nil {
			archiveFailed(gameID, s.store.DeleteUndoneMoves(gameID, g.Version()))
		}
		return nil
	})
}

// ResetGame restores the starting layout with White to move
func (s *Service) ResetGame(gameID string) error {
	return s.mutate(gameID, func(g *game.Game) error {
		if g.State() == core.StatePending {
			return ErrGamePending
		}
		g.Reset()

		if s.store != nil {
			archiveFailed(gameID, s.store.RecordReset(gameID, g.CurrentBoard().Encode(), g.NextTurn().String()))
		}
		return nil
	})
}

// InvertBoard mirrors the position and swaps pawn colours, turn unchanged.
// A finished game only accepts reset or undo.
func (s *Service) InvertBoard(gameID string) error {
	return s.mutate(gameID, func(g *game.Game) error {
		if err := checkEditable(g); err != nil {
			return err
		}
		side := g.NextTurn()
		g.AddSnapshot(g.CurrentBoard().Invert(), "", side)
		s.archiveTransition(gameID, g, storage.MoveInvert, side)
		return nil
	})
}

// SwitchTurn hands the move to the other side without moving a pawn
func (s *Service) SwitchTurn(gameID string) error {
	return s.mutate(gameID, func(g *game.Game) error {
		if err := checkEditable(g); err != nil {
			return err
		}
		side := g.NextTurn()
		g.AddSnapshot(g.CurrentBoard(), "", side.Opponent())
		s.archiveTransition(gameID, g, storage.MoveSwitchTurn, side)
		return nil
	})
}

func checkEditable(g *game.Game) error {
	switch {
	case g.State() == core.StatePending:
		return ErrGamePending
	case g.State().IsOver():
		return ErrGameOver
	}
	return nil
}

// DeleteGame removes a game from memory and releases its waiters
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}

	s.waiter.RemoveGame(gameID)
	delete(s.games, gameID)
	return nil
}

// GameCount returns the number of live games
func (s *Service) GameCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}
