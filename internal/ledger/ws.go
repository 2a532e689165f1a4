package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gorilla/websocket"
)

type WSClient struct {
	Endpoint string
	Conn     *websocket.Conn

	done chan struct{}
}

func NewWSClient(endpoint string) *WSClient {
	return &WSClient{Endpoint: endpoint}
}

// Connect dials the endpoint. Cancelling ctx closes the connection, which
// unblocks any Read in flight.
func (c *WSClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.Endpoint, nil)
	if err != nil {
		return err
	}
	c.Conn = conn
	c.done = make(chan struct{})
	go func(done chan struct{}) {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}(c.done)
	return nil
}

func (c *WSClient) Close() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func (c *WSClient) Subscribe() error {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "subscribe",
		"params": map[string]any{
			"topic": "blocks",
		},
	}
	return c.Conn.WriteJSON(payload)
}

func (c *WSClient) Read() ([]byte, error) {
	_, msg, err := c.Conn.ReadMessage()
	return msg, err
}

// ParseWSBlock decodes a pushed block notification. The second return is
// false for non-block frames (subscription acks, keepalives).
func ParseWSBlock(msg []byte) (*Block, bool, error) {
	var env struct {
		Result struct {
			Data json.RawMessage `json:"data"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, false, err
	}
	if env.Error != nil {
		return nil, false, errors.New(env.Error.Message)
	}
	if len(env.Result.Data) == 0 {
		return nil, false, nil
	}

	var data struct {
		Type  string `json:"type"`
		Value struct {
			Block Block `json:"block"`
		} `json:"value"`
	}
	if err := json.Unmarshal(env.Result.Data, &data); err != nil {
		return nil, false, err
	}
	if !strings.Contains(data.Type, "Block") {
		return nil, false, nil
	}

	block := data.Value.Block
	return &block, true, nil
}

func DefaultWSEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://") {
		if strings.HasSuffix(endpoint, "/websocket") {
			return endpoint
		}
		return strings.TrimRight(endpoint, "/") + "/websocket"
	}
	if strings.HasPrefix(endpoint, "https://") {
		return "wss://" + strings.TrimPrefix(strings.TrimRight(endpoint, "/"), "https://") + "/websocket"
	}
	if strings.HasPrefix(endpoint, "http://") {
		return "ws://" + strings.TrimPrefix(strings.TrimRight(endpoint, "/"), "http://") + "/websocket"
	}
	return ""
}
