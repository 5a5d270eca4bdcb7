// Package main implements an interactive debugging client for the
// Breakthrough server API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"breakthrough/internal/client/api"
	"breakthrough/internal/client/commands"
	"breakthrough/internal/client/display"
	"breakthrough/internal/client/session"

	"github.com/chzyer/readline"
)

func main() {
	apiURL := flag.String("url", "http://localhost:8080", "API base URL")
	flag.Parse()

	s := session.New(*apiURL)
	registry := commands.NewRegistry(s)

	var items []readline.PrefixCompleterInterface
	for _, name := range registry.Names() {
		items = append(items, readline.PcItem(name))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("breakthrough"),
		HistoryFile:     ".breakthrough_history",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", display.Red, err.Error(), display.Reset)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("%sBreakthrough Debug Client%s\n", display.Cyan, display.Reset)
	fmt.Printf("%sAPI: %s%s\n", display.Cyan, s.APIBaseURL, display.Reset)
	fmt.Printf("Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(buildPrompt(s))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		s.Verbose = strings.HasSuffix(line, " -v")
		line = strings.TrimSuffix(line, " -v")

		if err := registry.Execute(line); errors.Is(err, commands.ErrExit) {
			break
		}
	}
}

func buildPrompt(s *session.Session) string {
	var parts []string

	if s.Username != "" {
		parts = append(parts, display.Colorize(display.Magenta, s.Username))
	}
	if s.CurrentGame != "" {
		id := s.CurrentGame
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, display.Colorize(display.White, id))
	}
	if s.GameState != nil && s.PlayerSide != "" {
		parts = append(parts, display.ColorForTurn(s.PlayerSide))
	}

	prompt := "breakthrough"
	if len(parts) > 0 {
		prompt += display.Yellow + " [" + display.Reset + strings.Join(parts, display.Yellow+" - "+display.Reset) + display.Yellow + "]"
	}

	if g := s.GameState; g != nil {
		switch g.State {
		case "ongoing", "pending":
			kind := "h"
			if g.PlayerToMove().Type == api.PlayerAgent {
				kind = "a"
			}
			prompt += fmt.Sprintf(" - Turn:%s(%s)", display.ColorForTurn(g.Turn), kind)
			if g.State == "pending" {
				prompt += display.Colorize(display.Magenta, "*")
			}
		default:
			prompt += " - " + display.Colorize(display.Green, g.State)
		}
	}

	return display.Prompt(prompt)
}
