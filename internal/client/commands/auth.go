package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"breakthrough/internal/client/display"
	"breakthrough/internal/client/session"

	"golang.org/x/term"
)

func (r *Registry) registerAuthCommands() {
	r.Register(&Command{
		Name:        "register",
		ShortName:   "r",
		Description: "Register a new user",
		Usage:       "register [username] [email]",
		Group:       groupAuth,
		Handler:     registerHandler,
	})

	r.Register(&Command{
		Name:        "login",
		ShortName:   "l",
		Description: "Login with credentials",
		Usage:       "login [username]",
		Group:       groupAuth,
		Handler:     loginHandler,
	})

	r.Register(&Command{
		Name:        "logout",
		ShortName:   "o",
		Description: "Revoke the session and clear authentication",
		Usage:       "logout",
		Group:       groupAuth,
		Handler:     logoutHandler,
	})

	r.Register(&Command{
		Name:        "whoami",
		ShortName:   "i",
		Description: "Show current user",
		Usage:       "whoami",
		Group:       groupAuth,
		Handler:     whoamiHandler,
	})
}

// promptLine returns args[i] when present, otherwise reads a line from stdin
func promptLine(args []string, i int, prompt string) string {
	if i < len(args) {
		return args[i]
	}
	fmt.Print(display.Yellow + prompt + display.Reset)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return strings.TrimSpace(scanner.Text())
}

func readPassword(prompt string) (string, error) {
	fmt.Print(display.Yellow + prompt + display.Reset)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func registerHandler(s *session.Session, args []string) error {
	username := promptLine(args, 0, "Username: ")
	if username == "" {
		return fmt.Errorf("username required")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	email := ""
	if len(args) > 1 {
		email = args[1]
	} else if len(args) == 0 {
		email = promptLine(nil, 0, "Email (optional): ")
	}

	resp, err := s.Client.Register(username, password, email)
	if err != nil {
		return err
	}

	s.SignIn(resp)

	fmt.Printf("%sRegistered successfully%s\n", display.Green, display.Reset)
	fmt.Printf("User ID: %s\n", resp.UserID)
	fmt.Printf("Username: %s\n", resp.Username)
	return nil
}

func loginHandler(s *session.Session, args []string) error {
	username := promptLine(args, 0, "Username: ")
	if username == "" {
		return fmt.Errorf("username required")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	resp, err := s.Client.Login(username, password)
	if err != nil {
		return err
	}

	s.SignIn(resp)

	fmt.Printf("%sLogged in successfully%s\n", display.Green, display.Reset)
	fmt.Printf("User ID: %s\n", resp.UserID)
	fmt.Printf("Username: %s\n", resp.Username)
	fmt.Printf("Token expires: %s\n", resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func logoutHandler(s *session.Session, args []string) error {
	if s.AuthToken == "" {
		fmt.Printf("%sNot authenticated%s\n", display.Yellow, display.Reset)
		return nil
	}

	// Local credentials are dropped even if the server call fails
	err := s.Client.Logout()
	s.SignOut()
	if err != nil {
		return err
	}

	fmt.Printf("%sLogged out%s\n", display.Green, display.Reset)
	return nil
}

func whoamiHandler(s *session.Session, args []string) error {
	if s.AuthToken == "" {
		fmt.Printf("%sNot authenticated%s\n", display.Yellow, display.Reset)
		return nil
	}

	user, err := s.Client.GetCurrentUser()
	if err != nil {
		return err
	}

	fmt.Printf("%sCurrent User:%s\n", display.Cyan, display.Reset)
	fmt.Printf("  User ID:  %s\n", user.UserID)
	fmt.Printf("  Username: %s\n", user.Username)
	if user.Email != "" {
		fmt.Printf("  Email:    %s\n", user.Email)
	}
	fmt.Printf("  Account:  %s\n", user.AccountType)
	fmt.Printf("  Created:  %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	if user.ExpiresAt != nil {
		fmt.Printf("  Expires:  %s\n", user.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
