package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltmachine/holdem/internal/room"
)

type testClient struct {
	t        *testing.T
	ws       *websocket.Conn
	playerID string
}

func startTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.New(io.Discard)
	rooms := room.NewManager(room.Config{SmallBlind: 5, BigBlind: 10, StartChips: 1000}, 11, quartz.NewReal(), logger)

	s := NewServer("", rooms, logger)
	go s.run()
	t.Cleanup(s.Stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server, name string) *testClient {
	t.Helper()
	return dialAs(t, ts, name, "")
}

// dialAs connects presenting an existing player ID, as a reconnecting
// client does.
func dialAs(t *testing.T, ts *httptest.Server, name, playerID string) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	c := &testClient{t: t, ws: ws}
	c.send(MessageTypeHello, HelloData{Name: name, PlayerID: playerID})

	var hello HelloOKData
	c.waitFor(MessageTypeHelloOK, &hello)
	require.NotEmpty(t, hello.PlayerID)
	if playerID != "" {
		require.Equal(t, playerID, hello.PlayerID)
	}
	c.playerID = hello.PlayerID
	return c
}

func (c *testClient) send(t MessageType, payload any) {
	c.t.Helper()
	msg, err := NewMessage(t, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteJSON(msg))
}

// waitFor reads messages until one of the wanted type arrives, decoding
// its payload into out when non-nil.
func (c *testClient) waitFor(want MessageType, out any) *Message {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg Message
		require.NoError(c.t, c.ws.ReadJSON(&msg))
		if msg.Type != want {
			continue
		}
		if out != nil {
			require.NoError(c.t, json.Unmarshal(msg.Data, out))
		}
		return &msg
	}
	c.t.Fatalf("timed out waiting for %s", want)
	return nil
}

// waitForState reads room:state messages until the predicate matches.
func (c *testClient) waitForState(pred func(room.Snapshot) bool) room.Snapshot {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var snap room.Snapshot
		c.waitFor(MessageTypeRoomState, &snap)
		if pred(snap) {
			return snap
		}
	}
	c.t.Fatal("timed out waiting for room state")
	return room.Snapshot{}
}

func TestHelloRequiresName(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	msg, err := NewMessage(MessageTypeHello, HelloData{})
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(msg))

	var reply Message
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, MessageTypeError, reply.Type)
}

func TestHelloRejectsMalformedPlayerID(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = ws.Close() }()

	msg, err := NewMessage(MessageTypeHello, HelloData{Name: "Eve", PlayerID: "not-a-player-id"})
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(msg))

	var reply Message
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, ws.ReadJSON(&reply))
	assert.Equal(t, MessageTypeError, reply.Type)
}

func TestReconnectReclaimsSeat(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	host := dial(t, ts, "Host")
	guest := dial(t, ts, "Guest")

	host.send(MessageTypeRoomCreate, RoomCreateData{})
	var created RoomCreatedData
	host.waitFor(MessageTypeRoomCreated, &created)
	guest.send(MessageTypeRoomJoin, RoomJoinData{RoomID: created.RoomID})
	host.waitForState(func(s room.Snapshot) bool { return len(s.Players) == 2 })

	// Drop the guest's socket and wait for the server to notice.
	guestID := guest.playerID
	require.NoError(t, guest.ws.Close())
	var gone PlayerEventData
	host.waitFor(MessageTypePlayerGone, &gone)
	require.Equal(t, guestID, gone.PlayerID)

	// Reconnecting with the issued identity reclaims the seat instead of
	// adding a third player.
	rejoined := dialAs(t, ts, "Guest", guestID)
	rejoined.send(MessageTypeRoomJoin, RoomJoinData{RoomID: created.RoomID})

	snap := rejoined.waitForState(func(s room.Snapshot) bool {
		for _, p := range s.Players {
			if p.Status == "offline" {
				return false
			}
		}
		return len(s.Players) == 2
	})
	ids := make([]string, 0, 2)
	for _, p := range snap.Players {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, guestID)
	assert.Contains(t, ids, host.playerID)
}

func TestCreateJoinAndListRooms(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	host := dial(t, ts, "Host")
	guest := dial(t, ts, "Guest")

	host.send(MessageTypeRoomCreate, RoomCreateData{})
	var created RoomCreatedData
	host.waitFor(MessageTypeRoomCreated, &created)
	require.Regexp(t, `^\d{6}$`, created.RoomID)

	guest.send(MessageTypeRoomList, nil)
	var listing RoomListingData
	guest.waitFor(MessageTypeRoomListing, &listing)
	require.Len(t, listing.Rooms, 1)
	assert.Equal(t, created.RoomID, listing.Rooms[0].ID)

	guest.send(MessageTypeRoomJoin, RoomJoinData{RoomID: created.RoomID})
	snap := guest.waitForState(func(s room.Snapshot) bool { return len(s.Players) == 2 })
	assert.Equal(t, host.playerID, snap.HostID)

	guest.send(MessageTypeRoomJoin, RoomJoinData{RoomID: "000000"})
	var errData ErrorData
	guest.waitFor(MessageTypeError, &errData)
	assert.Equal(t, "room_not_found", errData.Code)
}

func TestFullHandOverWebSocket(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	host := dial(t, ts, "Host")
	guest := dial(t, ts, "Guest")

	host.send(MessageTypeRoomCreate, RoomCreateData{})
	var created RoomCreatedData
	host.waitFor(MessageTypeRoomCreated, &created)
	guest.send(MessageTypeRoomJoin, RoomJoinData{RoomID: created.RoomID})

	host.send(MessageTypeReady, nil)
	guest.send(MessageTypeReady, nil)
	host.send(MessageTypeRoomStart, nil)

	snap := host.waitForState(func(s room.Snapshot) bool { return s.Status == room.StatusPlaying })
	require.Equal(t, "preflop", snap.Stage)
	require.NotEmpty(t, snap.Turn)

	// Whoever holds the turn folds; heads-up that ends the hand.
	actor := host
	if snap.Turn == guest.playerID {
		actor = guest
	}
	actor.send(MessageTypeGameAction, GameActionData{Action: "fold"})

	end := actor.waitForState(func(s room.Snapshot) bool { return s.Status == room.StatusEnded })
	chips := 0
	for _, p := range end.Players {
		chips += p.Chips
	}
	assert.Equal(t, 2000, chips)

	// Acting after resolution is a rule error, not a protocol error.
	actor.send(MessageTypeGameAction, GameActionData{Action: "check"})
	var gameErr ErrorData
	actor.waitFor(MessageTypeGameError, &gameErr)
	assert.Equal(t, "hand_not_started", gameErr.Code)
}

func TestChatRelaysToRoomMembers(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	host := dial(t, ts, "Host")
	guest := dial(t, ts, "Guest")

	host.send(MessageTypeRoomCreate, RoomCreateData{})
	var created RoomCreatedData
	host.waitFor(MessageTypeRoomCreated, &created)
	guest.send(MessageTypeRoomJoin, RoomJoinData{RoomID: created.RoomID})
	guest.waitForState(func(s room.Snapshot) bool { return len(s.Players) == 2 })

	host.send(MessageTypeChat, ChatData{Message: "glhf"})

	var relay ChatRelayData
	guest.waitFor(MessageTypeChatRelay, &relay)
	assert.Equal(t, host.playerID, relay.PlayerID)
	assert.Equal(t, "glhf", relay.Message)
}

func TestSnapshotsRedactOpponentHoleCards(t *testing.T) {
	t.Parallel()

	_, ts := startTestServer(t)
	host := dial(t, ts, "Host")
	guest := dial(t, ts, "Guest")

	host.send(MessageTypeRoomCreate, RoomCreateData{})
	var created RoomCreatedData
	host.waitFor(MessageTypeRoomCreated, &created)
	guest.send(MessageTypeRoomJoin, RoomJoinData{RoomID: created.RoomID})

	host.send(MessageTypeReady, nil)
	guest.send(MessageTypeReady, nil)
	host.send(MessageTypeRoomStart, nil)

	snap := host.waitForState(func(s room.Snapshot) bool { return s.Status == room.StatusPlaying })
	for _, p := range snap.Players {
		if p.ID == host.playerID {
			assert.Len(t, p.Hole, 2)
		} else {
			assert.Empty(t, p.Hole)
		}
	}
}
