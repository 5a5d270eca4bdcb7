package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/core"
	"breakthrough/internal/server/processor"
	"breakthrough/internal/server/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/go-cmp/cmp"
)

// firstLegalMove is an in-process agent that plays the first legal move
type firstLegalMove struct{}

func (firstLegalMove) Suggest(ctx context.Context, b board.Board, side board.Side) (board.Move, error) {
	for i := 0; i < board.Size*board.Size; i++ {
		from := board.FromIndex(i)
		if b.At(from) != side.Pawn() {
			continue
		}
		if dests := b.LegalDestinations(from); len(dests) > 0 {
			return board.Move{From: from, To: dests[0]}, nil
		}
	}
	return board.Move{}, context.Canceled
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := service.New(nil, []byte("test-secret"))
	proc := processor.New(svc, firstLegalMove{}, 1)
	t.Cleanup(func() {
		proc.Close()
		svc.Shutdown(time.Second)
	})
	return NewFiberApp(proc, svc, true)
}

func do(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func createHumanGame(t *testing.T, app *fiber.App) core.GameResponse {
	t.Helper()
	var game core.GameResponse
	status := do(t, app, "POST", "/api/v1/games", `{"white":{"type":1},"black":{"type":1}}`, &game)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	return game
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	var body map[string]any
	if status := do(t, app, "GET", "/health", "", &body); status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "healthy" || body["storage"] != "disabled" {
		t.Errorf("body = %v", body)
	}
}

func TestGameLifecycle(t *testing.T) {
	app := newTestApp(t)
	game := createHumanGame(t, app)
	base := "/api/v1/games/" + game.GameID

	if game.Turn != "w" || game.State != "ongoing" {
		t.Errorf("new game turn %q state %q", game.Turn, game.State)
	}

	var moved core.GameResponse
	if status := do(t, app, "POST", base+"/moves", `{"move":"a4-b3"}`, &moved); status != fiber.StatusOK {
		t.Fatalf("move status = %d", status)
	}
	if diff := cmp.Diff([]string{"a4b3"}, moved.Moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}

	var errResp core.ErrorResponse
	if status := do(t, app, "POST", base+"/moves", `{"move":"b1b3"}`, &errResp); status != fiber.StatusBadRequest || errResp.Code != core.ErrInvalidMove {
		t.Errorf("illegal move: status %d code %q", status, errResp.Code)
	}

	var dests core.DestinationsResponse
	if status := do(t, app, "GET", base+"/moves?from=b1", "", &dests); status != fiber.StatusOK {
		t.Fatalf("destinations status = %d", status)
	}
	if diff := cmp.Diff([]string{"a2", "b2", "c2"}, dests.Destinations); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}

	var b core.BoardResponse
	if status := do(t, app, "GET", base+"/board", "", &b); status != fiber.StatusOK {
		t.Fatalf("board status = %d", status)
	}
	if b.Rows[3] != "_W____" {
		t.Errorf("row 3 = %q; want _W____", b.Rows[3])
	}

	var g core.GameResponse
	do(t, app, "POST", base+"/invert", "", &g)
	do(t, app, "POST", base+"/turn", "", &g)
	if g.Version != 3 || g.Turn != "w" || g.Board[2] != "_B____" {
		t.Errorf("after invert+turn: version %d turn %q rows %v", g.Version, g.Turn, g.Board)
	}

	if status := do(t, app, "POST", base+"/undo", `{"count":3}`, &g); status != fiber.StatusOK || g.Version != 0 {
		t.Errorf("undo: status %d version %d", status, g.Version)
	}

	do(t, app, "POST", base+"/reset", "", &g)
	if g.Version != 0 || len(g.Moves) != 0 {
		t.Errorf("after reset: %+v", g)
	}

	if status := do(t, app, "DELETE", base, "", nil); status != fiber.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}
	if status := do(t, app, "GET", base, "", &errResp); status != fiber.StatusNotFound || errResp.Code != core.ErrGameNotFound {
		t.Errorf("get deleted: status %d code %q", status, errResp.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	app := newTestApp(t)
	game := createHumanGame(t, app)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"bad game id", "GET", "/api/v1/games/not-a-uuid", "", fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"player type", "POST", "/api/v1/games", `{"white":{"type":3},"black":{"type":1}}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"short board", "POST", "/api/v1/games", `{"white":{"type":1},"black":{"type":1},"board":["BBBBBB"]}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"bad cell", "POST", "/api/v1/games", `{"white":{"type":1},"black":{"type":1},"board":["BBBBBB","BBBBBB","__x___","______","WWWWWW","WWWWWW"]}`, fiber.StatusBadRequest, core.ErrInvalidBoard},
		{"move too short", "POST", "/api/v1/games/" + game.GameID + "/moves", `{"move":"a4"}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"undo zero", "POST", "/api/v1/games/" + game.GameID + "/undo", `{"count":0}`, fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"missing from", "GET", "/api/v1/games/" + game.GameID + "/moves", "", fiber.StatusBadRequest, core.ErrInvalidRequest},
		{"agent not at turn", "POST", "/api/v1/games/" + game.GameID + "/moves", `{"move":"cccc"}`, fiber.StatusConflict, core.ErrNotAgentTurn},
		{"unknown game", "POST", "/api/v1/games/00000000-0000-0000-0000-000000000000/moves", `{"move":"a4a3"}`, fiber.StatusNotFound, core.ErrGameNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp core.ErrorResponse
			status := do(t, app, tt.method, tt.path, tt.body, &errResp)
			if status != tt.status || errResp.Code != tt.code {
				t.Errorf("status %d code %q (%s); want %d %q", status, errResp.Code, errResp.Details, tt.status, tt.code)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/games", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Errorf("status = %d; want 415", resp.StatusCode)
	}
}

func TestAgentMoveAndLongPoll(t *testing.T) {
	app := newTestApp(t)

	var game core.GameResponse
	status := do(t, app, "POST", "/api/v1/games", `{"white":{"type":2,"timeout":1000},"black":{"type":1}}`, &game)
	if status != fiber.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	base := "/api/v1/games/" + game.GameID

	type result struct {
		status int
		game   core.GameResponse
	}
	polled := make(chan result, 1)
	go func() {
		req := httptest.NewRequest("GET", base+"?wait=true&version=0", nil)
		resp, err := app.Test(req, 5000)
		if err != nil {
			polled <- result{}
			return
		}
		defer resp.Body.Close()
		var g core.GameResponse
		json.NewDecoder(resp.Body).Decode(&g)
		polled <- result{resp.StatusCode, g}
	}()

	// Give the poller time to register
	time.Sleep(100 * time.Millisecond)

	var pending core.GameResponse
	if status := do(t, app, "POST", base+"/moves", `{"move":"cccc"}`, &pending); status != fiber.StatusAccepted {
		t.Fatalf("agent move status = %d; want 202", status)
	}

	select {
	case r := <-polled:
		if r.status != fiber.StatusOK {
			t.Fatalf("poll status = %d", r.status)
		}
		if r.game.Version < 1 && r.game.State != "pending" {
			t.Errorf("poll returned stale game: %+v", r.game)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("long poll did not return")
	}

	deadline := time.Now().Add(3 * time.Second)
	var g core.GameResponse
	for time.Now().Before(deadline) {
		do(t, app, "GET", base, "", &g)
		if g.Version == 1 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if diff := cmp.Diff([]string{"a4a3"}, g.Moves); diff != "" {
		t.Errorf("agent moves mismatch (-want +got):\n%s", diff)
	}
	if g.Turn != "b" || g.State != "ongoing" {
		t.Errorf("turn %q state %q", g.Turn, g.State)
	}
}

func TestAccountsWithoutStorage(t *testing.T) {
	app := newTestApp(t)

	var errResp core.ErrorResponse
	status := do(t, app, "POST", "/api/v1/auth/register", `{"username":"eve","password":"secret123"}`, &errResp)
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("register status = %d; want 503", status)
	}

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me with bad token status = %d; want 401", resp.StatusCode)
	}
}
