package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomelib/tome/internal/http/websocket"
	"github.com/tomelib/tome/pkg/logger"
)

func init() {
	logger.SetMinLoggingLevel(logger.ERROR.Level())
}

// startHub runs the hub and exposes it over a test HTTP server, returning a
// dialled client connection. Cleanup tears down the connection, server and
// hub together.
func startHub(t *testing.T, hub *websocket.SocketHub) *gorilla.Conn {
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.UpgradeToSocket(w, r)
	}))

	// The hub starts asynchronously and refuses upgrades until it is
	// running, so retry the dial until it sticks.
	socketURL := "ws" + strings.TrimPrefix(server.URL, "http")
	var conn *gorilla.Conn
	require.Eventually(t, func() bool {
		c, _, err := gorilla.DefaultDialer.Dial(socketURL, nil)
		if err != nil {
			return false
		}

		conn = c
		return true
	}, 2*time.Second, 20*time.Millisecond, "client could not connect to hub")

	t.Cleanup(func() {
		conn.Close()
		server.Close()
		cancel()
	})

	return conn
}

func readMessage(t *testing.T, conn *gorilla.Conn) map[string]interface{} {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message map[string]interface{}
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func Test_UpgradeToSocket_WelcomeCarriesConnectionCallbackPayload(t *testing.T) {
	hub := websocket.New()
	hub.WithConnectionCallback(func() map[string]interface{} {
		return map[string]interface{}{
			"materializations": []map[string]interface{}{
				{"status": "FETCHING", "progress": 42.5},
			},
		}
	})

	conn := startHub(t, hub)

	welcome := readMessage(t, conn)
	assert.Equal(t, "CONNECTION_ESTABLISHED", welcome["title"])

	arguments, ok := welcome["arguments"].(map[string]interface{})
	require.True(t, ok, "welcome message must carry an arguments object")
	assert.NotEmpty(t, arguments["client"], "welcome must identify the new client")
	assert.Contains(t, arguments, "materializations", "welcome must carry the connection callback payload")
}

func Test_Hub_DiscardsClientMessagesAndKeepsBroadcasting(t *testing.T) {
	hub := websocket.New()
	conn := startHub(t, hub)

	welcome := readMessage(t, conn)
	require.Equal(t, "CONNECTION_ESTABLISHED", welcome["title"])

	// The hub accepts no commands; anything a client writes must vanish
	// without a reply and without disturbing the broadcast path.
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"title":     "MATERIALIZE",
		"arguments": map[string]interface{}{"audiobook_id": "not-a-command"},
	}))

	hub.Send(&websocket.SocketMessage{
		Title: "MATERIALIZATION_PROGRESS",
		Body:  map[string]interface{}{"progress": 50.0},
		Type:  websocket.Update,
	})

	update := readMessage(t, conn)
	assert.Equal(t, "MATERIALIZATION_PROGRESS", update["title"])

	// No reply to the discarded message should ever arrive.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(250*time.Millisecond)))
	var unexpected map[string]interface{}
	assert.Error(t, conn.ReadJSON(&unexpected), "client messages must not produce replies")
}
