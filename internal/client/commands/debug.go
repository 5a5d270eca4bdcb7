package commands

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"breakthrough/internal/client/display"
	"breakthrough/internal/client/session"
)

// clearScreen moves the cursor home and erases the terminal
const clearScreen = "\033[H\033[2J"

var rawMethods = map[string]bool{"GET": true, "POST": true, "PUT": true, "DELETE": true}

func (r *Registry) registerDebugCommands() {
	for _, cmd := range []*Command{
		{Name: "health", ShortName: ".", Usage: "health", Description: "Ping the server and show storage status", Handler: healthHandler},
		{Name: "url", ShortName: "/", Usage: "url [host:port | http(s)://host:port]", Description: "Show or change the server address", Handler: urlHandler},
		{Name: "raw", ShortName: ":", Usage: "raw <GET|POST|PUT|DELETE> </path> [json-body]", Description: "Send a request to an arbitrary API path", Handler: rawRequestHandler},
		{Name: "clear", ShortName: "-", Usage: "clear", Description: "Clear the terminal", Handler: clearHandler},
	} {
		cmd.Group = groupUtil
		r.Register(cmd)
	}
}

func healthHandler(s *session.Session, args []string) error {
	start := time.Now()
	resp, err := s.Client.Health()
	if err != nil {
		return err
	}
	rtt := time.Since(start).Round(time.Millisecond)

	storageColor := display.Yellow
	switch resp.Storage {
	case "ok":
		storageColor = display.Green
	case "degraded":
		storageColor = display.Red
	}

	fmt.Printf("%s %s, %d live game(s), storage %s, round trip %s\n",
		display.Colorize(display.Cyan, s.APIBaseURL),
		resp.Status,
		resp.Games,
		display.Colorize(storageColor, resp.Storage),
		rtt)
	fmt.Printf("  server clock %s\n", time.Unix(resp.Time, 0).UTC().Format(time.RFC3339))
	return nil
}

// normalizeBaseURL accepts a bare host:port and strips trailing slashes
func normalizeBaseURL(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("address %q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func urlHandler(s *session.Session, args []string) error {
	if len(args) == 0 {
		fmt.Println(s.APIBaseURL)
		return nil
	}

	base, err := normalizeBaseURL(args[0])
	if err != nil {
		return err
	}
	if s.CurrentGame != "" {
		fmt.Printf("%sLeaving game %s, it belongs to the previous server%s\n", display.Yellow, s.CurrentGame, display.Reset)
		s.LeaveGame()
	}
	s.SetBaseURL(base)
	fmt.Printf("Server address is now %s\n", display.Colorize(display.Cyan, base))
	return nil
}

func rawRequestHandler(s *session.Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> </path> [json-body]")
	}

	method := strings.ToUpper(args[0])
	if !rawMethods[method] {
		return fmt.Errorf("unsupported method %s", method)
	}
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return s.Client.RawRequest(method, path, strings.Join(args[2:], " "))
}

func clearHandler(s *session.Session, args []string) error {
	_, err := fmt.Fprint(os.Stdout, clearScreen)
	return err
}
