package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"breakthrough/internal/client/api"
	"breakthrough/internal/client/display"
	"breakthrough/internal/client/session"
)

// agentPolls bounds how many long-polls a bot move may take
const agentPolls = 3

func (r *Registry) registerGameCommands() {
	game := func(name, short, desc, usage string, h func(*session.Session, []string) error) {
		r.Register(&Command{
			Name:        name,
			ShortName:   short,
			Description: desc,
			Usage:       usage,
			Group:       groupGame,
			Handler:     h,
		})
	}

	game("new", "n", "Create a new game", "new [white h|a[:ms]] [black h|a[:ms]] [turn=w|b] [board=row0,row1,...]", newGameHandler)
	game("join", "j", "Join/set current game ID", "join <gameId>", joinGameHandler)
	game("move", "m", "Make a move", "move <from><to> (e.g. a4b3)", moveHandler)
	game("bot", "b", "Ask the agent to move", "bot", botMoveHandler)
	game("undo", "u", "Undo moves", "undo [count]", undoHandler)
	game("reset", "0", "Reset to the starting position", "reset", resetHandler)
	game("invert", "v", "Invert the board", "invert", invertHandler)
	game("turn", "t", "Hand the move to the other side", "turn", switchTurnHandler)
	game("show", "h", "Show board and game state", "show", showBoardHandler)
	game("moves", "w", "List legal destinations of a pawn", "moves <square>", movesHandler)
	game("state", "s", "Show raw game JSON", "state", gameStateHandler)
	game("delete", "d", "Delete a game", "delete [gameId]", deleteGameHandler)
	game("poll", "p", "Long-poll for game updates", "poll", pollHandler)
}

// parsePlayer reads "h", "a" or "a:<timeout ms>"
func parsePlayer(arg string) (api.PlayerConfig, error) {
	kind, timeout, hasTimeout := strings.Cut(strings.ToLower(arg), ":")
	switch kind {
	case "h", "human":
		if hasTimeout {
			return api.PlayerConfig{}, fmt.Errorf("human player %q takes no timeout", arg)
		}
		return api.PlayerConfig{Type: api.PlayerHuman}, nil
	case "a", "agent":
		cfg := api.PlayerConfig{Type: api.PlayerAgent}
		if hasTimeout {
			ms, err := strconv.Atoi(timeout)
			if err != nil || ms <= 0 {
				return api.PlayerConfig{}, fmt.Errorf("invalid agent timeout: %q", timeout)
			}
			cfg.Timeout = ms
		}
		return cfg, nil
	default:
		return api.PlayerConfig{}, fmt.Errorf("invalid player %q, want h or a[:ms]", arg)
	}
}

// parseNewGame builds a create request from positional players and
// key=value options
func parseNewGame(args []string) (*api.CreateGameRequest, error) {
	req := &api.CreateGameRequest{
		White: api.PlayerConfig{Type: api.PlayerHuman},
		Black: api.PlayerConfig{Type: api.PlayerHuman},
	}

	positional := 0
	for _, arg := range args {
		if key, value, ok := strings.Cut(arg, "="); ok {
			switch key {
			case "turn":
				if value != "w" && value != "b" {
					return nil, fmt.Errorf("turn must be w or b")
				}
				req.Turn = value
			case "board":
				req.Board = strings.Split(value, ",")
			default:
				return nil, fmt.Errorf("unknown option: %s", key)
			}
			continue
		}

		player, err := parsePlayer(arg)
		if err != nil {
			return nil, err
		}
		switch positional {
		case 0:
			req.White = player
		case 1:
			req.Black = player
		default:
			return nil, fmt.Errorf("too many players")
		}
		positional++
	}

	return req, nil
}

func currentGame(s *session.Session) (string, error) {
	if s.CurrentGame == "" {
		return "", fmt.Errorf("no current game, use 'new' or 'join <gameId>'")
	}
	return s.CurrentGame, nil
}

func newGameHandler(s *session.Session, args []string) error {
	req, err := parseNewGame(args)
	if err != nil {
		return err
	}

	resp, err := s.Client.CreateGame(req)
	if err != nil {
		return err
	}

	s.Join(resp.GameID, resp)

	fmt.Printf("%sGame created: %s%s\n", display.Green, resp.GameID, display.Reset)
	if s.PlayerSide != "" {
		fmt.Printf("You play %s\n", display.ColorForTurn(s.PlayerSide))
	}

	return continueWithAgent(s, resp)
}

func joinGameHandler(s *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	resp, err := s.Client.GetGame(args[0])
	if err != nil {
		return err
	}

	s.Join(args[0], resp)

	fmt.Printf("%sJoined game: %s%s\n", display.Green, args[0], display.Reset)
	fmt.Printf("Turn: %s | State: %s | Version: %d\n", display.ColorForTurn(resp.Turn), resp.State, resp.Version)
	return nil
}

func moveHandler(s *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: move <from><to>")
	}
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.Client.MakeMove(gameID, args[0])
	if err != nil {
		return err
	}

	s.Track(resp)
	fmt.Printf("%sMove accepted%s\n", display.Green, display.Reset)

	return continueWithAgent(s, resp)
}

// continueWithAgent triggers the agent when it holds the move
func continueWithAgent(s *session.Session, g *api.GameResponse) error {
	if g.State != "ongoing" || g.PlayerToMove().Type != api.PlayerAgent {
		return nil
	}
	fmt.Printf("\n%sAgent's turn, triggering move...%s\n", display.Magenta, display.Reset)
	return agentMove(s, g.GameID)
}

func botMoveHandler(s *session.Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}
	return agentMove(s, gameID)
}

// agentMove queues an agent move and long-polls until it settles
func agentMove(s *session.Session, gameID string) error {
	resp, err := s.Client.MakeMove(gameID, api.AgentMove)
	if err != nil {
		return err
	}
	s.Track(resp)

	if resp.State == "pending" {
		fmt.Printf("%sAgent is thinking...%s\n", display.Magenta, display.Reset)

		// The reply may land between the queue call and the first poll
		if resp, err = s.Client.GetGame(gameID); err != nil {
			return err
		}
		for i := 0; resp.State == "pending"; i++ {
			if i == agentPolls {
				return fmt.Errorf("timeout waiting for agent move")
			}
			if resp, err = s.Client.GetGameWithPoll(gameID, resp.Version); err != nil {
				return err
			}
		}
		s.Track(resp)
	}

	switch {
	case resp.AgentError != "":
		return fmt.Errorf("agent move failed: %s", resp.AgentError)
	case resp.LastMove != nil:
		fmt.Printf("%sAgent played: %s%s\n", display.Magenta, resp.LastMove.Move, display.Reset)
	}
	if resp.State != "ongoing" {
		fmt.Printf("%sGame over: %s%s\n", display.Green, resp.State, display.Reset)
	}
	return nil
}

func undoHandler(s *session.Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	count := 1
	if len(args) > 0 {
		if count, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}

	resp, err := s.Client.UndoMoves(gameID, count)
	if err != nil {
		return err
	}

	s.Track(resp)
	fmt.Printf("%sUndid %d step(s), version now %d%s\n", display.Green, count, resp.Version, display.Reset)
	return nil
}

// simpleGameAction runs a body-less game command and reports the new turn
func simpleGameAction(call func(*api.Client, string) (*api.GameResponse, error), done string) func(*session.Session, []string) error {
	return func(s *session.Session, args []string) error {
		gameID, err := currentGame(s)
		if err != nil {
			return err
		}

		resp, err := call(s.Client, gameID)
		if err != nil {
			return err
		}

		s.Track(resp)
		fmt.Printf("%s%s%s | Turn: %s | State: %s\n", display.Green, done, display.Reset, display.ColorForTurn(resp.Turn), resp.State)
		return nil
	}
}

var (
	resetHandler      = simpleGameAction((*api.Client).ResetGame, "Game reset")
	invertHandler     = simpleGameAction((*api.Client).InvertBoard, "Board inverted")
	switchTurnHandler = simpleGameAction((*api.Client).SwitchTurn, "Turn switched")
)

func showBoardHandler(s *session.Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	game, err := s.Client.GetGame(gameID)
	if err != nil {
		return err
	}
	board, err := s.Client.GetBoard(gameID)
	if err != nil {
		return err
	}

	s.Track(game)

	fmt.Println()
	display.RenderBoard(os.Stdout, board.Board)

	fmt.Printf("\nTurn: %s | State: %s | Version: %d\n",
		display.ColorForTurn(game.Turn), game.State, game.Version)

	if len(game.Moves) > 0 {
		fmt.Printf("History: %s\n", strings.Join(game.Moves, " "))
	}
	if game.LastMove != nil {
		fmt.Printf("Last move: %s by %s\n", game.LastMove.Move, display.ColorForTurn(game.LastMove.PlayerSide))
	}
	if game.AgentError != "" {
		fmt.Printf("%sAgent error: %s%s\n", display.Red, game.AgentError, display.Reset)
	}
	return nil
}

func movesHandler(s *session.Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: moves <square>")
	}
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.Client.GetMoves(gameID, args[0])
	if err != nil {
		return err
	}

	if len(resp.Destinations) == 0 {
		fmt.Printf("%sNo legal moves from %s%s\n", display.Yellow, resp.From, display.Reset)
		return nil
	}
	fmt.Printf("%s%s ->%s %s\n", display.Cyan, resp.From, display.Reset, strings.Join(resp.Destinations, " "))
	return nil
}

func gameStateHandler(s *session.Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	resp, err := s.Client.GetGame(gameID)
	if err != nil {
		return err
	}

	s.Track(resp)
	fmt.Printf("%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(os.Stdout, resp)
	return nil
}

func deleteGameHandler(s *session.Session, args []string) error {
	gameID := s.CurrentGame
	if len(args) > 0 {
		gameID = args[0]
	}
	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	if err := s.Client.DeleteGame(gameID); err != nil {
		return err
	}

	if gameID == s.CurrentGame {
		s.LeaveGame()
	}

	fmt.Printf("%sGame deleted: %s%s\n", display.Green, gameID, display.Reset)
	return nil
}

func pollHandler(s *session.Session, args []string) error {
	gameID, err := currentGame(s)
	if err != nil {
		return err
	}

	known := s.LastVersion
	fmt.Printf("%sLong-polling for updates (version: %d)...%s\n", display.Cyan, known, display.Reset)
	fmt.Printf("%sThis may take up to 25 seconds%s\n", display.Cyan, display.Reset)

	resp, err := s.Client.GetGameWithPoll(gameID, known)
	if err != nil {
		return err
	}

	prevState := ""
	if s.GameState != nil {
		prevState = s.GameState.State
	}
	s.Track(resp)

	switch {
	case resp.Version != known:
		fmt.Printf("%sGame updated to version %d%s\n", display.Green, resp.Version, display.Reset)
		if resp.LastMove != nil {
			fmt.Printf("Last move: %s\n", resp.LastMove.Move)
		}
	case resp.State != prevState:
		fmt.Printf("%sState changed: %s%s\n", display.Green, resp.State, display.Reset)
	default:
		fmt.Printf("%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	}
	return nil
}
