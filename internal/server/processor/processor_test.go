package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/core"
	"breakthrough/internal/server/service"

	"github.com/google/go-cmp/cmp"
)

// fakeAgent answers with a fixed move, an error, or blocks until cancelled
type fakeAgent struct {
	move  board.Move
	err   error
	block bool
}

func (f *fakeAgent) Suggest(ctx context.Context, b board.Board, side board.Side) (board.Move, error) {
	if f.block {
		<-ctx.Done()
		return board.Move{}, ctx.Err()
	}
	return f.move, f.err
}

func newProcessor(t *testing.T, a Suggester) *Processor {
	t.Helper()
	p := New(service.New(nil, nil), a, 1)
	t.Cleanup(func() { p.Close() })
	return p
}

func mustSucceed(t *testing.T, resp ProcessorResponse) core.GameResponse {
	t.Helper()
	if !resp.Success {
		t.Fatalf("command failed: %+v", resp.Error)
	}
	data, ok := resp.Data.(core.GameResponse)
	if !ok {
		t.Fatalf("unexpected data %T", resp.Data)
	}
	return data
}

func wantCode(t *testing.T, resp ProcessorResponse, code string) {
	t.Helper()
	if resp.Success {
		t.Fatalf("command succeeded; want %s", code)
	}
	if resp.Error.Code != code {
		t.Errorf("code = %s (%s); want %s", resp.Error.Code, resp.Error.Error, code)
	}
}

func createGame(t *testing.T, p *Processor, white, black core.PlayerType) string {
	t.Helper()
	data := mustSucceed(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{
		White: core.PlayerConfig{Type: white},
		Black: core.PlayerConfig{Type: black, Timeout: 500},
	})))
	return data.GameID
}

// waitForState polls until the game leaves the pending state
func waitForState(t *testing.T, p *Processor, gameID string) core.GameResponse {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		data := mustSucceed(t, p.Execute(NewGetGameCommand(gameID)))
		if data.State != core.StatePending.String() {
			return data
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("game still pending")
	return core.GameResponse{}
}

func TestCreateGame(t *testing.T) {
	p := newProcessor(t, &fakeAgent{})

	data := mustSucceed(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{
		White: core.PlayerConfig{Type: core.PlayerHuman},
		Black: core.PlayerConfig{Type: core.PlayerHuman},
	})))
	if diff := cmp.Diff(board.Initial().Rows(), data.Board); diff != "" {
		t.Errorf("initial board mismatch (-want +got):\n%s", diff)
	}
	if data.Turn != "w" || data.State != "ongoing" || data.Version != 0 {
		t.Errorf("turn %q, state %q, version %d", data.Turn, data.State, data.Version)
	}

	t.Run("custom board already won", func(t *testing.T) {
		data := mustSucceed(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{
			White: core.PlayerConfig{Type: core.PlayerHuman},
			Black: core.PlayerConfig{Type: core.PlayerHuman},
			Board: []string{"W_____", "______", "______", "______", "B_____", "______"},
			Turn:  "b",
		})))
		if data.State != "white wins" || data.Turn != "b" {
			t.Errorf("state %q, turn %q; want white wins, b", data.State, data.Turn)
		}
	})

	t.Run("malformed board", func(t *testing.T) {
		wantCode(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{
			White: core.PlayerConfig{Type: core.PlayerHuman},
			Black: core.PlayerConfig{Type: core.PlayerHuman},
			Board: []string{"XXXXXX", "______", "______", "______", "______", "______"},
		})), core.ErrInvalidBoard)
	})

	t.Run("authenticated human", func(t *testing.T) {
		cmd := NewCreateGameCommand(core.CreateGameRequest{
			White: core.PlayerConfig{Type: core.PlayerHuman},
			Black: core.PlayerConfig{Type: core.PlayerAgent},
		})
		cmd.UserID = "user-1"
		data := mustSucceed(t, p.Execute(cmd))
		if data.Players.White.ID != "user-1" || data.Players.Black.ID == "user-1" {
			t.Errorf("players = %+v / %+v", data.Players.White, data.Players.Black)
		}
	})
}

func TestHumanMoves(t *testing.T) {
	p := newProcessor(t, &fakeAgent{})
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman)

	data := mustSucceed(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "A4-b3"})))
	if data.LastMove == nil || data.LastMove.Move != "a4b3" || data.LastMove.PlayerSide != "w" {
		t.Errorf("last move = %+v", data.LastMove)
	}
	if data.Turn != "b" || data.Version != 1 {
		t.Errorf("turn %q, version %d", data.Turn, data.Version)
	}

	wantCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "b3b2"})), core.ErrInvalidMove)
	wantCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "z9z8"})), core.ErrInvalidMove)
	wantCode(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: AgentMoveSentinel})), core.ErrNotAgentTurn)
	wantCode(t, p.Execute(NewMakeMoveCommand("missing", core.MoveRequest{Move: "a1a2"})), core.ErrGameNotFound)

	data = mustSucceed(t, p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1})))
	if data.Version != 0 || len(data.Moves) != 0 || data.LastMove != nil {
		t.Errorf("after undo: %+v", data)
	}
	wantCode(t, p.Execute(NewUndoMoveCommand(id, core.UndoRequest{Count: 1})), core.ErrInvalidRequest)
}

func TestGetMovesAndBoard(t *testing.T) {
	p := newProcessor(t, &fakeAgent{})
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman)

	resp := p.Execute(NewGetMovesCommand(id, "b4"))
	if !resp.Success {
		t.Fatalf("GetMoves failed: %+v", resp.Error)
	}
	want := core.DestinationsResponse{
		From:         "b4",
		Destinations: []string{"a3", "b3", "c3"},
		Indices:      []int{18, 19, 20},
	}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}

	resp = p.Execute(NewGetMovesCommand(id, "c2"))
	if got := resp.Data.(core.DestinationsResponse); len(got.Destinations) != 0 {
		t.Errorf("empty square has destinations %v", got.Destinations)
	}

	wantCode(t, p.Execute(NewGetMovesCommand(id, "g9")), core.ErrInvalidRequest)

	resp = p.Execute(NewGetBoardCommand(id))
	if !resp.Success {
		t.Fatalf("GetBoard failed: %+v", resp.Error)
	}
	if got := resp.Data.(core.BoardResponse); got.Board != board.Initial().ToASCII() {
		t.Errorf("ascii board = %q", got.Board)
	}
}

func TestResetInvertSwitch(t *testing.T) {
	p := newProcessor(t, &fakeAgent{})
	id := createGame(t, p, core.PlayerHuman, core.PlayerHuman)

	mustSucceed(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "a4a3"})))

	data := mustSucceed(t, p.Execute(NewInvertBoardCommand(id)))
	if data.Board[2] != "B_____" || data.Turn != "b" || len(data.Moves) != 1 {
		t.Errorf("after invert: rows %v, turn %q, moves %v", data.Board, data.Turn, data.Moves)
	}

	data = mustSucceed(t, p.Execute(NewSwitchTurnCommand(id)))
	if data.Turn != "w" || data.Version != 3 {
		t.Errorf("after switch: turn %q, version %d", data.Turn, data.Version)
	}

	data = mustSucceed(t, p.Execute(NewResetGameCommand(id)))
	if data.Version != 0 || data.Turn != "w" {
		t.Errorf("after reset: %+v", data)
	}
	if diff := cmp.Diff(board.Initial().Rows(), data.Board); diff != "" {
		t.Errorf("reset board mismatch (-want +got):\n%s", diff)
	}

	t.Run("finished game", func(t *testing.T) {
		data := mustSucceed(t, p.Execute(NewCreateGameCommand(core.CreateGameRequest{
			White: core.PlayerConfig{Type: core.PlayerHuman},
			Black: core.PlayerConfig{Type: core.PlayerHuman},
			Board: []string{"B_____", "_W____", "______", "______", "______", "_____W"},
		})))
		won := mustSucceed(t, p.Execute(NewMakeMoveCommand(data.GameID, core.MoveRequest{Move: "b1a0"})))
		if won.State != "white wins" {
			t.Fatalf("state after capture = %q; want white wins", won.State)
		}

		wantCode(t, p.Execute(NewInvertBoardCommand(data.GameID)), core.ErrGameOver)
		wantCode(t, p.Execute(NewSwitchTurnCommand(data.GameID)), core.ErrGameOver)

		after := mustSucceed(t, p.Execute(NewGetGameCommand(data.GameID)))
		if after.State != "white wins" || after.Version != 1 {
			t.Errorf("finished game changed: state %q, version %d", after.State, after.Version)
		}

		reset := mustSucceed(t, p.Execute(NewResetGameCommand(data.GameID)))
		if reset.State != "ongoing" {
			t.Errorf("state after reset = %q; want ongoing", reset.State)
		}
	})
}

func TestAgentMove(t *testing.T) {
	reply := board.Move{From: board.Position{Row: 1, Col: 1}, To: board.Position{Row: 2, Col: 1}}
	p := newProcessor(t, &fakeAgent{move: reply})
	id := createGame(t, p, core.PlayerHuman, core.PlayerAgent)

	mustSucceed(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "a4a3"})))

	resp := p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: AgentMoveSentinel}))
	if !resp.Success || !resp.Pending {
		t.Fatalf("agent move not queued: %+v", resp)
	}

	data := waitForState(t, p, id)
	if diff := cmp.Diff([]string{"a4a3", "b1b2"}, data.Moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}
	if data.Turn != "w" || data.AgentError != "" {
		t.Errorf("turn %q, agent error %q", data.Turn, data.AgentError)
	}
}

func TestAgentFailuresKeepPosition(t *testing.T) {
	tests := []struct {
		name  string
		agent *fakeAgent
	}{
		{"error", &fakeAgent{err: errors.New("connection refused")}},
		{"illegal", &fakeAgent{move: board.Move{From: board.Position{Row: 1, Col: 1}, To: board.Position{Row: 3, Col: 1}}}},
		{"timeout", &fakeAgent{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProcessor(t, tt.agent)
			id := createGame(t, p, core.PlayerHuman, core.PlayerAgent)
			mustSucceed(t, p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: "a4a3"})))

			resp := p.Execute(NewMakeMoveCommand(id, core.MoveRequest{Move: AgentMoveSentinel}))
			if !resp.Success {
				t.Fatalf("agent move rejected: %+v", resp.Error)
			}

			data := waitForState(t, p, id)
			if data.State != "ongoing" || data.Turn != "b" || data.Version != 1 {
				t.Errorf("state %q, turn %q, version %d", data.State, data.Turn, data.Version)
			}
			if data.AgentError == "" {
				t.Error("agent error not reported")
			}
		})
	}
}

func TestClampTimeout(t *testing.T) {
	tests := []struct {
		ms   int
		want time.Duration
	}{
		{0, 5 * time.Second},
		{50, MinAgentTimeout},
		{1500, 1500 * time.Millisecond},
		{60000, MaxAgentTimeout},
	}
	for _, tt := range tests {
		if got := ClampTimeout(tt.ms); got != tt.want {
			t.Errorf("ClampTimeout(%d) = %v; want %v", tt.ms, got, tt.want)
		}
	}
}
