package main

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wolfden/internal/engine"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	zlog := zap.NewNop().Sugar()
	hub := newHub(zlog)
	go hub.run()
	t.Cleanup(hub.stop)

	srv := newServer(AppConfig{}, engine.New(), hub, nil, nil, zlog)
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// drain discards server pushes so broadcasts never back up on the socket.
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// readEvent reads server pushes until one matches keep, or the deadline.
func readEvent(t *testing.T, conn *websocket.Conn, keep func(ServerEvent) bool) ServerEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ev ServerEvent
		require.NoError(t, conn.ReadJSON(&ev))
		if keep(ev) {
			return ev
		}
	}
}

// One connection claims seats while another keeps triggering per-viewer
// broadcasts. The claim and the broadcast render touch the same seat
// binding from different goroutines; run under the race detector.
func TestConcurrentSeatClaimAndBroadcast(t *testing.T) {
	srv, ts := newTestServer(t)
	claimer := dialWS(t, ts)
	trigger := dialWS(t, ts)
	go drain(claimer)
	go drain(trigger)

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			claimer.WriteJSON(WSMessage{Action: "join", Name: fmt.Sprintf("claimer-%d", i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			trigger.WriteJSON(WSMessage{Action: "add_bot", Name: fmt.Sprintf("bot-%d", i)})
		}
	}()
	wg.Wait()

	// Every request mutates the lobby roster; wait until all have landed.
	deadline := time.Now().Add(5 * time.Second)
	for len(srv.eng.Snapshot().Players) < 2*rounds && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Len(t, srv.eng.Snapshot().Players, 2*rounds)
}

func TestJoinBindsBroadcastsToSeat(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dialWS(t, ts)

	require.NoError(t, conn.WriteJSON(WSMessage{Action: "join", Name: "Ada"}))
	joined := readEvent(t, conn, func(ev ServerEvent) bool { return ev.Type == "joined" })
	require.NotNil(t, joined.Player)

	// The broadcast that follows the join must already render for the
	// claimed seat, not the spectator view.
	state := readEvent(t, conn, func(ev ServerEvent) bool {
		return ev.Type == "state" && ev.State.ViewerID != ""
	})
	assert.Equal(t, joined.Player.ID, state.State.ViewerID)
}

func TestHubStopWaitsForRun(t *testing.T) {
	// stop immediately after launch must still wait for run to register.
	for i := 0; i < 100; i++ {
		h := newHub(zap.NewNop().Sugar())
		go h.run()
		h.stop()
	}
}
