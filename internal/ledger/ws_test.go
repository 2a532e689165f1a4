package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWSBlock(t *testing.T) {
	msg := []byte(`{"result":{"data":{"type":"NewBlock","value":{"block":{"index":12,"memo":900,"transfer":{"from":"pic1a","to":"pic1b","amount":50}}}}}}`)
	block, ok, err := ParseWSBlock(msg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(12), block.Index)
	assert.Equal(t, uint64(900), block.Memo)
	require.NotNil(t, block.Transfer)
	assert.Equal(t, uint64(50), block.Transfer.Amount)
}

func TestParseWSBlockAckFrame(t *testing.T) {
	_, ok, err := ParseWSBlock([]byte(`{"result":{}}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseWSBlockNonBlockFrame(t *testing.T) {
	_, ok, err := ParseWSBlock([]byte(`{"result":{"data":{"type":"Heartbeat","value":{}}}}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseWSBlockErrorFrame(t *testing.T) {
	_, _, err := ParseWSBlock([]byte(`{"error":{"code":5,"message":"subscription closed"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscription closed")
}

// A silent peer must not pin a cancelled reader until the TCP connection
// dies on its own.
func TestWSReadUnblocksOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewWSClient("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, c.Connect(ctx))
	defer c.Close()
	require.NoError(t, c.Subscribe())

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Read()
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read still blocked after cancel")
	}
}

func TestDefaultWSEndpoint(t *testing.T) {
	assert.Equal(t, "ws://host:9090/websocket", DefaultWSEndpoint("http://host:9090"))
	assert.Equal(t, "wss://host/websocket", DefaultWSEndpoint("https://host/"))
	assert.Equal(t, "ws://host/websocket", DefaultWSEndpoint("ws://host/websocket"))
	assert.Equal(t, "", DefaultWSEndpoint("host"))
}
