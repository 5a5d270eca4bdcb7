package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/storage"

	"github.com/lixenwraith/auth"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return Run(args)
}

func TestUserCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin.db")

	if err := run(t, "init", "-path", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := run(t, "user", "add", "-path", path, "-username", "Admin", "-password", "hunter22"); err != nil {
		t.Fatalf("user add: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"no subcommand", nil},
		{"unknown subcommand", []string{"vacuum"}},
		{"missing path", []string{"init"}},
		{"short password", []string{"user", "add", "-path", path, "-username", "x", "-password", "short"}},
		{"two password sources", []string{"user", "add", "-path", path, "-username", "x", "-password", "longenough", "-hash", "$argon2id$"}},
		{"bad hash", []string{"user", "set-hash", "-path", path, "-username", "admin", "-hash", "plaintext"}},
		{"duplicate user", []string{"user", "add", "-path", path, "-username", "admin", "-password", "hunter22"}},
		{"unknown user", []string{"user", "delete", "-path", path, "-username", "ghost"}},
		{"moves without game", []string{"moves", "-path", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(t, tt.args...); err == nil {
				t.Errorf("Run(%v) succeeded; want error", tt.args)
			}
		})
	}

	if err := run(t, "user", "set-password", "-path", path, "-username", "ADMIN", "-password", "correct42"); err != nil {
		t.Fatalf("set-password: %v", err)
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		t.Fatal(err)
	}
	user, err := store.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	store.Close()

	if user.AccountType != "permanent" {
		t.Errorf("account type = %q; want permanent", user.AccountType)
	}
	if err := auth.VerifyPassword("correct42", user.PasswordHash); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := run(t, "user", "list", "-path", path); err != nil {
		t.Errorf("list: %v", err)
	}
	if err := run(t, "user", "delete", "-path", path, "-id", user.UserID); err != nil {
		t.Errorf("delete: %v", err)
	}
}

func TestArchiveCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	if err := run(t, "init", "-path", path); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewStore(path, false)
	if err != nil {
		t.Fatal(err)
	}
	gameID := "6f1c2a4e-8d3b-4f7a-9c21-0e5d7b3a9f10"
	store.RecordNewGame(storage.GameRecord{
		GameID:        gameID,
		InitialBoard:  board.Initial().Encode(),
		StartingTurn:  "w",
		WhitePlayerID: "11111111-1111-1111-1111-111111111111",
		WhiteType:     1,
		BlackPlayerID: "22222222-2222-2222-2222-222222222222",
		BlackType:     2,
		BlackTimeout:  1000,
		StartTimeUTC:  time.Now().UTC(),
	})
	m, _ := board.ParseMove("a4a3")
	store.RecordMove(storage.MoveRecord{
		GameID:      gameID,
		MoveNumber:  1,
		Move:        m.String(),
		BoardAfter:  board.Initial().Apply(m).Encode(),
		PlayerSide:  "w",
		MoveTimeUTC: time.Now().UTC(),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	store.Close()

	if err := run(t, "query", "-path", path, "-gameId", "*"); err != nil {
		t.Errorf("query: %v", err)
	}
	if err := run(t, "moves", "-path", path, "-gameId", gameID, "-board"); err != nil {
		t.Errorf("moves: %v", err)
	}
	if err := run(t, "delete", "-path", path); err != nil {
		t.Errorf("delete: %v", err)
	}
}
