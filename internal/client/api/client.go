package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"breakthrough/internal/client/display"
)

// Client talks to the game server and echoes every exchange to Out
type Client struct {
	BaseURL    string
	AuthToken  string
	HTTPClient *http.Client
	Verbose    bool
	Out        io.Writer
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			// Long-poll holds up to 25s server side
			Timeout: 30 * time.Second,
		},
		Out: os.Stdout,
	}
}

func (c *Client) SetVerbose(v bool) {
	c.Verbose = v
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

func (c *Client) SetToken(token string) {
	c.AuthToken = token
}

func (c *Client) doRequest(method, path string, body any, result any) error {
	var bodyReader io.Reader
	var bodyJSON []byte
	if body != nil {
		var err error
		if bodyJSON, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	fmt.Fprintf(c.Out, "\n%s[API] %s %s%s\n", display.Blue, method, path, display.Reset)
	if len(bodyJSON) > 0 {
		if c.Verbose {
			fmt.Fprintf(c.Out, "%sRequest Body:%s\n", display.Cyan, display.Reset)
			c.printJSON(bodyJSON)
		} else {
			fmt.Fprintf(c.Out, "%s%s%s\n", display.Blue, bodyJSON, display.Reset)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		fmt.Fprintf(c.Out, "%s[ERROR] %s%s\n", display.Red, err.Error(), display.Reset)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	statusColor := display.Green
	if resp.StatusCode >= 400 {
		statusColor = display.Red
	}
	fmt.Fprintf(c.Out, "%s[%d %s]%s\n", statusColor, resp.StatusCode, http.StatusText(resp.StatusCode), display.Reset)

	if c.Verbose && len(respBody) > 0 {
		fmt.Fprintf(c.Out, "%sResponse Body:%s\n", display.Cyan, display.Reset)
		c.printJSON(respBody)
	}

	if resp.StatusCode >= 400 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, &statusErr.Response); err == nil {
			if !c.Verbose {
				fmt.Fprintf(c.Out, "%sError: %s%s\n", display.Red, statusErr.Response.Error, display.Reset)
				if statusErr.Response.Code != "" {
					fmt.Fprintf(c.Out, "%sCode: %s%s\n", display.Red, statusErr.Response.Code, display.Reset)
				}
				if statusErr.Response.Details != "" {
					fmt.Fprintf(c.Out, "%sDetails: %s%s\n", display.Red, statusErr.Response.Details, display.Reset)
				}
			}
		} else if !c.Verbose {
			fmt.Fprintf(c.Out, "%s%s%s\n", display.Red, respBody, display.Reset)
		}
		return statusErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			fmt.Fprintf(c.Out, "%sRaw response: %s%s\n", display.Green, respBody, display.Reset)
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) printJSON(data []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Fprintln(c.Out, string(data))
		return
	}
	fmt.Fprintln(c.Out, pretty.String())
}

// IsCode reports whether err is a server error carrying code
func IsCode(err error, code string) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Response.Code == code
}

// API Methods

func gamePath(gameID string, suffix ...string) string {
	return "/api/v1/games/" + url.PathEscape(gameID) + strings.Join(suffix, "")
}

func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	err := c.doRequest("GET", "/health", nil, &resp)
	return &resp, err
}

func (c *Client) CreateGame(req *CreateGameRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", "/api/v1/games", req, &resp)
	return &resp, err
}

func (c *Client) ConfigurePlayers(gameID string, req *ConfigurePlayersRequest) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("PUT", gamePath(gameID, "/players"), req, &resp)
	return &resp, err
}

func (c *Client) GetGame(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("GET", gamePath(gameID), nil, &resp)
	return &resp, err
}

// GetGameWithPoll blocks server side until the game changes from version
func (c *Client) GetGameWithPoll(gameID string, version int) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("GET", gamePath(gameID, fmt.Sprintf("?wait=true&version=%d", version)), nil, &resp)
	return &resp, err
}

func (c *Client) DeleteGame(gameID string) error {
	return c.doRequest("DELETE", gamePath(gameID), nil, nil)
}

func (c *Client) MakeMove(gameID string, move string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/moves"), &MoveRequest{Move: move}, &resp)
	return &resp, err
}

func (c *Client) GetMoves(gameID, from string) (*DestinationsResponse, error) {
	var resp DestinationsResponse
	err := c.doRequest("GET", gamePath(gameID, "/moves?from="+url.QueryEscape(from)), nil, &resp)
	return &resp, err
}

func (c *Client) UndoMoves(gameID string, count int) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/undo"), &UndoRequest{Count: count}, &resp)
	return &resp, err
}

func (c *Client) ResetGame(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/reset"), nil, &resp)
	return &resp, err
}

func (c *Client) InvertBoard(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/invert"), nil, &resp)
	return &resp, err
}

func (c *Client) SwitchTurn(gameID string) (*GameResponse, error) {
	var resp GameResponse
	err := c.doRequest("POST", gamePath(gameID, "/turn"), nil, &resp)
	return &resp, err
}

func (c *Client) GetBoard(gameID string) (*BoardResponse, error) {
	var resp BoardResponse
	err := c.doRequest("GET", gamePath(gameID, "/board"), nil, &resp)
	return &resp, err
}

func (c *Client) Register(username, password, email string) (*AuthResponse, error) {
	req := &RegisterRequest{
		Username: username,
		Password: password,
		Email:    email,
	}
	var resp AuthResponse
	err := c.doRequest("POST", "/api/v1/auth/register", req, &resp)
	return &resp, err
}

func (c *Client) Login(username, password string) (*AuthResponse, error) {
	req := &LoginRequest{
		Username: username,
		Password: password,
	}
	var resp AuthResponse
	err := c.doRequest("POST", "/api/v1/auth/login", req, &resp)
	return &resp, err
}

func (c *Client) Logout() error {
	return c.doRequest("POST", "/api/v1/auth/logout", nil, nil)
}

func (c *Client) GetCurrentUser() (*UserResponse, error) {
	var resp UserResponse
	err := c.doRequest("GET", "/api/v1/auth/me", nil, &resp)
	return &resp, err
}

// RawRequest performs a raw HTTP request for debugging purposes
func (c *Client) RawRequest(method, path string, body string) error {
	var bodyData any
	if body != "" {
		if err := json.Unmarshal([]byte(body), &bodyData); err != nil {
			// Not JSON, send as a string
			bodyData = body
		}
	}

	return c.doRequest(method, path, bodyData, nil)
}
