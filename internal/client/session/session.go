// Package session holds the interactive client's per-run state.
package session

import "breakthrough/internal/client/api"

// Session tracks the server, the signed-in user and the current game
type Session struct {
	APIBaseURL string
	Client     *api.Client
	Verbose    bool

	UserID    string
	Username  string
	AuthToken string

	CurrentGame string
	GameState   *api.GameResponse
	LastVersion int
	PlayerSide  string // "w", "b" or "" when the user owns neither side
}

func New(baseURL string) *Session {
	return &Session{
		APIBaseURL: baseURL,
		Client:     api.New(baseURL),
	}
}

// SetBaseURL points the session and its client at another server
func (s *Session) SetBaseURL(url string) {
	s.APIBaseURL = url
	s.Client.SetBaseURL(url)
}

// Track records the latest known state of the current game
func (s *Session) Track(g *api.GameResponse) {
	s.GameState = g
	s.LastVersion = g.Version

	s.PlayerSide = ""
	if s.UserID == "" {
		return
	}
	switch s.UserID {
	case g.Players.White.ID:
		s.PlayerSide = "w"
	case g.Players.Black.ID:
		s.PlayerSide = "b"
	}
}

// Join makes gameID current
func (s *Session) Join(gameID string, g *api.GameResponse) {
	s.CurrentGame = gameID
	s.Track(g)
}

// LeaveGame forgets the current game
func (s *Session) LeaveGame() {
	s.CurrentGame = ""
	s.GameState = nil
	s.LastVersion = 0
	s.PlayerSide = ""
}

// SignIn stores credentials and forwards the token to the client
func (s *Session) SignIn(resp *api.AuthResponse) {
	s.AuthToken = resp.Token
	s.UserID = resp.UserID
	s.Username = resp.Username
	s.Client.SetToken(resp.Token)
}

// SignOut drops credentials
func (s *Session) SignOut() {
	s.AuthToken = ""
	s.UserID = ""
	s.Username = ""
	s.PlayerSide = ""
	s.Client.SetToken("")
}
