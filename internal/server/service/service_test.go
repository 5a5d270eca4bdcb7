package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/core"
	"breakthrough/internal/server/game"
	"breakthrough/internal/server/storage"

	"github.com/google/go-cmp/cmp"
)

var (
	human = core.PlayerConfig{Type: core.PlayerHuman}
	agent = core.PlayerConfig{Type: core.PlayerAgent, Timeout: 1000}
)

func newGame(t *testing.T, s *Service, white, black core.PlayerConfig) string {
	t.Helper()
	id := s.GenerateGameID()
	err := s.CreateGame(id, core.NewPlayer(white, board.White), core.NewPlayer(black, board.Black), board.Initial(), board.White)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return id
}

func mustMove(t *testing.T, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func snapshot(t *testing.T, s *Service, id string) (moves []string, turn board.Side, state core.State, version int) {
	t.Helper()
	err := s.ViewGame(id, func(g *game.Game) error {
		moves, turn, state, version = g.Moves(), g.NextTurn(), g.State(), g.Version()
		return nil
	})
	if err != nil {
		t.Fatalf("ViewGame: %v", err)
	}
	return
}

func TestApplyMoveHumanVsHuman(t *testing.T) {
	s := New(nil, []byte("secret"))
	id := newGame(t, s, human, human)

	res, err := s.ApplyMove(id, mustMove(t, "a4a3"), core.PlayerHuman)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if res.PlayerSide != board.White || res.GameState != core.StateOngoing {
		t.Errorf("result = %+v", res)
	}

	if _, err := s.ApplyMove(id, mustMove(t, "a3a2"), core.PlayerHuman); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("moving a white pawn on black's turn: err = %v; want ErrIllegalMove", err)
	}
	if _, err := s.ApplyMove(id, mustMove(t, "b1b3"), core.PlayerHuman); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("two-square move: err = %v; want ErrIllegalMove", err)
	}

	if _, err := s.ApplyMove(id, mustMove(t, "b1b2"), core.PlayerHuman); err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}

	moves, turn, _, version := snapshot(t, s, id)
	if diff := cmp.Diff([]string{"a4a3", "b1b2"}, moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
	if turn != board.White || version != 2 {
		t.Errorf("turn = %v, version = %d; want w, 2", turn, version)
	}
}

func TestApplyMoveEndsGame(t *testing.T) {
	s := New(nil, nil)
	b, err := board.ParseRows([]string{
		"______",
		"W_____",
		"______",
		"______",
		"_____B",
		"______",
	})
	if err != nil {
		t.Fatal(err)
	}
	id := s.GenerateGameID()
	if err := s.CreateGame(id, core.NewPlayer(human, board.White), core.NewPlayer(human, board.Black), b, board.White); err != nil {
		t.Fatal(err)
	}

	res, err := s.ApplyMove(id, mustMove(t, "a1a0"), core.PlayerHuman)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if res.GameState != core.StateWhiteWins {
		t.Errorf("state = %v; want white wins", res.GameState)
	}

	if _, err := s.ApplyMove(id, mustMove(t, "f4f5"), core.PlayerHuman); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after game over: err = %v; want ErrGameOver", err)
	}
	if err := s.InvertBoard(id); !errors.Is(err, ErrGameOver) {
		t.Errorf("invert after game over: err = %v; want ErrGameOver", err)
	}
	if err := s.SwitchTurn(id); !errors.Is(err, ErrGameOver) {
		t.Errorf("switch turn after game over: err = %v; want ErrGameOver", err)
	}

	_, _, state, version := snapshot(t, s, id)
	if state != core.StateWhiteWins || version != 1 {
		t.Errorf("finished game changed: state %v, version %d", state, version)
	}

	if err := s.UndoMoves(id, 1); err != nil {
		t.Fatalf("undo of the winning move: %v", err)
	}
	if _, _, state, _ := snapshot(t, s, id); state != core.StateOngoing {
		t.Errorf("state after undo = %v; want ongoing", state)
	}
}

func TestAgentMoveLifecycle(t *testing.T) {
	s := New(nil, nil)
	id := newGame(t, s, human, agent)

	if _, err := s.BeginAgentMove(id); !errors.Is(err, ErrNotAgentTurn) {
		t.Fatalf("BeginAgentMove on human turn: err = %v; want ErrNotAgentTurn", err)
	}
	if _, err := s.ApplyMove(id, mustMove(t, "c4c3"), core.PlayerHuman); err != nil {
		t.Fatal(err)
	}

	turn, err := s.BeginAgentMove(id)
	if err != nil {
		t.Fatalf("BeginAgentMove: %v", err)
	}
	if turn.Side != board.Black || turn.Player.Timeout != 1000 || turn.Version != 1 {
		t.Errorf("turn = %+v", turn)
	}

	if _, err := s.BeginAgentMove(id); !errors.Is(err, ErrGamePending) {
		t.Errorf("second BeginAgentMove: err = %v; want ErrGamePending", err)
	}
	if err := s.UndoMoves(id, 1); !errors.Is(err, ErrGamePending) {
		t.Errorf("undo while pending: err = %v; want ErrGamePending", err)
	}

	// A rejected reply leaves the position alone
	if err := s.FailAgentMove(id, "agent timed out"); err != nil {
		t.Fatal(err)
	}
	err = s.ViewGame(id, func(g *game.Game) error {
		if g.State() != core.StateOngoing || g.LastError() != "agent timed out" || g.Version() != 1 {
			t.Errorf("after failure: state %v, error %q, version %d", g.State(), g.LastError(), g.Version())
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	turn, err = s.BeginAgentMove(id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ApplyAgentMove(id, mustMove(t, "b1b2"), turn.Version+1); !errors.Is(err, ErrStaleAgentMove) {
		t.Errorf("reply for another version: err = %v; want ErrStaleAgentMove", err)
	}
	if _, err := s.ApplyAgentMove(id, mustMove(t, "b1b2"), turn.Version); err != nil {
		t.Fatalf("ApplyAgentMove: %v", err)
	}

	_, turnSide, state, _ := snapshot(t, s, id)
	if turnSide != board.White || state != core.StateOngoing {
		t.Errorf("after agent move: turn %v, state %v", turnSide, state)
	}

	if _, err := s.ApplyMove(id, mustMove(t, "b4b3"), core.PlayerAgent); !errors.Is(err, ErrNotAgentTurn) {
		t.Errorf("unsolicited agent move: err = %v; want ErrNotAgentTurn", err)
	}
}

func TestInvertSwitchUndoReset(t *testing.T) {
	s := New(nil, nil)
	id := newGame(t, s, human, human)

	if _, err := s.ApplyMove(id, mustMove(t, "a4a3"), core.PlayerHuman); err != nil {
		t.Fatal(err)
	}
	if err := s.InvertBoard(id); err != nil {
		t.Fatal(err)
	}
	if err := s.SwitchTurn(id); err != nil {
		t.Fatal(err)
	}

	moves, turn, _, version := snapshot(t, s, id)
	if len(moves) != 1 || turn != board.White || version != 3 {
		t.Errorf("moves %v, turn %v, version %d; want 1 move, w, 3", moves, turn, version)
	}

	var inverted board.Board
	s.ViewGame(id, func(g *game.Game) error {
		inverted = g.CurrentBoard()
		return nil
	})
	if got := inverted.At(board.Position{Row: 2, Col: 0}); got != board.BlackPawn {
		t.Errorf("inverted a2 = %v; want black pawn", got)
	}

	if err := s.UndoMoves(id, 2); err != nil {
		t.Fatal(err)
	}
	_, turn, _, version = snapshot(t, s, id)
	if turn != board.Black || version != 1 {
		t.Errorf("after undo: turn %v, version %d; want b, 1", turn, version)
	}

	if err := s.UndoMoves(id, 5); err == nil {
		t.Error("undo past the start succeeded")
	}

	if err := s.ResetGame(id); err != nil {
		t.Fatal(err)
	}
	moves, turn, state, version := snapshot(t, s, id)
	if len(moves) != 0 || turn != board.White || state != core.StateOngoing || version != 0 {
		t.Errorf("after reset: moves %v, turn %v, state %v, version %d", moves, turn, state, version)
	}
}

func TestWaitWakesOnChange(t *testing.T) {
	s := New(nil, nil)
	id := newGame(t, s, human, human)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := s.RegisterWait(ctx, id)
	if _, err := s.ApplyMove(id, mustMove(t, "a4a3"), core.PlayerHuman); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-ctx.Done():
		t.Fatal("waiter not notified")
	}

	// Rejected transitions leave waiters alone
	ch = s.RegisterWait(ctx, id)
	if _, err := s.ApplyMove(id, mustMove(t, "a3a2"), core.PlayerHuman); err == nil {
		t.Fatal("white moved twice")
	}
	select {
	case <-ch:
		t.Fatal("waiter woke without a change")
	case <-time.After(50 * time.Millisecond):
	}

	if err := s.DeleteGame(id); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	case <-ctx.Done():
		t.Fatal("waiter not released on delete")
	}

	if err := s.ViewGame(id, func(*game.Game) error { return nil }); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("deleted game: err = %v; want ErrGameNotFound", err)
	}
	if err := s.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestArchiveFollowsTransitions(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "archive.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatal(err)
	}
	s := New(store, nil)
	defer s.Shutdown(time.Second)

	flush := func() {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := store.Flush(ctx); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}

	b, err := board.ParseRows([]string{"BBBBBB", "______", "______", "______", "______", "WWWWWW"})
	if err != nil {
		t.Fatal(err)
	}
	id := s.GenerateGameID()
	if err := s.CreateGame(id, core.NewPlayer(human, board.White), core.NewPlayer(human, board.Black), b, board.White); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ApplyMove(id, mustMove(t, "a5a4"), core.PlayerHuman); err != nil {
		t.Fatal(err)
	}
	if err := s.InvertBoard(id); err != nil {
		t.Fatal(err)
	}
	if err := s.SwitchTurn(id); err != nil {
		t.Fatal(err)
	}
	if err := s.SwitchTurn(id); err != nil {
		t.Fatal(err)
	}
	if err := s.UndoMoves(id, 1); err != nil {
		t.Fatal(err)
	}
	flush()

	rows, err := store.QueryMoves(id)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Move + "/" + r.PlayerSide
	}
	want := []string{"a5a4/w", storage.MoveInvert + "/b", storage.MoveSwitchTurn + "/b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("archived transitions mismatch (-want +got):\n%s", diff)
	}

	var live string
	s.ViewGame(id, func(g *game.Game) error {
		live = g.CurrentBoard().Encode()
		return nil
	})
	if last := rows[len(rows)-1]; last.BoardAfter != live || last.MoveNumber != 3 {
		t.Errorf("last archived row %d %q; want 3 %q", last.MoveNumber, last.BoardAfter, live)
	}

	if err := s.ResetGame(id); err != nil {
		t.Fatal(err)
	}
	flush()

	if rows, _ := store.QueryMoves(id); len(rows) != 0 {
		t.Errorf("archived rows after reset = %d; want 0", len(rows))
	}
	games, _ := store.QueryGames(id, "")
	if len(games) != 1 || games[0].InitialBoard != board.Initial().Encode() || games[0].StartingTurn != "w" {
		t.Errorf("archived game after reset = %+v", games)
	}
}

func TestUserAccounts(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "users.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatal(err)
	}
	s := New(store, []byte("0123456789abcdef0123456789abcdef"))
	defer s.Shutdown(time.Second)

	if s.GetStorageHealth() != "ok" {
		t.Errorf("storage health = %q; want ok", s.GetStorageHealth())
	}

	u, err := s.CreateUser("dana", "", "correct horse")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.AccountType != "permanent" {
		t.Errorf("account type = %q; want permanent", u.AccountType)
	}

	if _, err := s.AuthenticateUser("dana", "wrong"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("wrong password: err = %v; want ErrInvalidCredential", err)
	}
	if _, err := s.AuthenticateUser("nobody", "x"); !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("unknown user: err = %v; want ErrInvalidCredential", err)
	}

	u, err = s.AuthenticateUser("DANA", "correct horse")
	if err != nil {
		t.Fatalf("AuthenticateUser: %v", err)
	}

	token, err := s.GenerateUserToken(u)
	if err != nil {
		t.Fatalf("GenerateUserToken: %v", err)
	}

	userID, claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != u.UserID || claims["username"] != "dana" {
		t.Errorf("token subject %q claims %v", userID, claims)
	}

	if err := s.Logout(claims); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := s.ValidateToken(token); err == nil {
		t.Error("token still valid after logout")
	}
}

func TestUserAccountsWithoutStorage(t *testing.T) {
	s := New(nil, []byte("secret"))
	if _, err := s.CreateUser("x", "", "y"); !errors.Is(err, ErrStorageDisabled) {
		t.Errorf("err = %v; want ErrStorageDisabled", err)
	}
	if s.GetStorageHealth() != "disabled" {
		t.Errorf("storage health = %q; want disabled", s.GetStorageHealth())
	}
}
