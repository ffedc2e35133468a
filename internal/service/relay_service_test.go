package service

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradlink-api/internal/dto"
)

// startRelayServer serves the relay on a loopback port; the user id comes from ?uid= in place of a JWT.
func startRelayServer(t *testing.T, relay MessageRelay) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userID, _ := strconv.ParseUint(conn.Query("uid"), 10, 64)
		relay.ServeConnection(conn, RelayConnectionOptions{UserID: uint(userID), Context: context.Background()})
	}))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = app.Listener(listener)
	}()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + listener.Addr().String() + "/ws"
}

func dialRelay(t *testing.T, url string, userID uint) *gorillaws.Conn {
	t.Helper()
	conn, _, err := gorillaws.DefaultDialer.Dial(url+"?uid="+strconv.FormatUint(uint64(userID), 10), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gorillaws.Conn) RelayFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame RelayFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func waitForConnections(t *testing.T, relay MessageRelay, userID uint, want int) {
	t.Helper()
	hub := relay.(*messageRelay).hub
	require.Eventually(t, func() bool { return hub.connections(userID) == want }, 3*time.Second, 10*time.Millisecond)
}

func TestMessageRelayDeliversToRecipientAndSender(t *testing.T) {
	relay := NewMessageRelay(nil, nil, "", testLogger())
	url := startRelayServer(t, relay)

	recipient := dialRelay(t, url, 2)
	sender := dialRelay(t, url, 1)
	bystander := dialRelay(t, url, 3)
	waitForConnections(t, relay, 2, 1)
	waitForConnections(t, relay, 1, 1)
	waitForConnections(t, relay, 3, 1)

	message := dto.MessageResponse{ID: 10, SenderID: 1, RecipientID: 2, Content: "hello"}
	relay.Deliver(context.Background(), message)

	frame := readFrame(t, recipient)
	require.Equal(t, RelayEventMessageCreated, frame.Event)
	require.Equal(t, "hello", frame.Message.Content)

	echo := readFrame(t, sender)
	require.Equal(t, uint(10), echo.Message.ID)

	require.NoError(t, bystander.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bystander.ReadMessage()
	require.Error(t, err, "unrelated users receive nothing")
}

func TestMessageRelayIgnoresInboundFramesAndUnregisters(t *testing.T) {
	relay := NewMessageRelay(nil, nil, "", testLogger())
	url := startRelayServer(t, relay)

	conn := dialRelay(t, url, 5)
	waitForConnections(t, relay, 5, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"content": "client frames are dropped"}))
	relay.Deliver(context.Background(), dto.MessageResponse{ID: 1, SenderID: 9, RecipientID: 5, Content: "still open"})
	require.Equal(t, "still open", readFrame(t, conn).Message.Content)

	require.NoError(t, conn.Close())
	waitForConnections(t, relay, 5, 0)
}

func TestMessageRelayFansOutAcrossNodesThroughRedis(t *testing.T) {
	server, client := setupRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	nodeA := NewMessageRelay(client, nil, "gradlink-test", testLogger())
	nodeB := NewMessageRelay(client, nil, "gradlink-test", testLogger())
	nodeA.Start(ctx)
	nodeB.Start(ctx)

	channel := "gradlink-test:messages"
	require.Eventually(t, func() bool {
		return server.PubSubNumSub(channel)[channel] == 2
	}, 3*time.Second, 10*time.Millisecond)

	url := startRelayServer(t, nodeA)
	recipient := dialRelay(t, url, 42)
	waitForConnections(t, nodeA, 42, 1)

	nodeB.Deliver(ctx, dto.MessageResponse{ID: 7, SenderID: 1, RecipientID: 42, Content: "from another node"})

	frame := readFrame(t, recipient)
	require.Equal(t, "from another node", frame.Message.Content)
}
