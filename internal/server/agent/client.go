package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"breakthrough/internal/server/board"
)

const (
	DefaultTimeout = 5 * time.Second
	maxReplyBytes  = 4096
)

// Client queries a single agent endpoint
type Client struct {
	URL        string
	HTTPClient *http.Client
}

func New(url string) *Client {
	return &Client{
		URL: strings.TrimRight(url, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Suggest asks the agent for a move for side and returns it in true-frame
// coordinates. The move is not checked for legality here.
func (c *Client) Suggest(ctx context.Context, b board.Board, side board.Side) (board.Move, error) {
	req, inverted := Query(b, side)

	body, err := json.Marshal(req)
	if err != nil {
		return board.Move{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return board.Move{}, fmt.Errorf("failed to build agent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return board.Move{}, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return board.Move{}, fmt.Errorf("failed to read agent reply: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return board.Move{}, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	reply, err := DecodeReply(data)
	if err != nil {
		return board.Move{}, err
	}
	return reply.Move(inverted)
}
