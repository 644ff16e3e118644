package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/models"
	"github.com/mhollis/quizdeck/internal/websocket"
)

func dialTestHub(t *testing.T) (*websocket.Hub, *gorilla.Conn) {
	t.Helper()
	hub := websocket.New(logger.New())
	hub.Start()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return hub, conn
}

func readMessage(t *testing.T, conn *gorilla.Conn) models.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return msg
}

func TestHub_NewClientGetsStateNudge(t *testing.T) {
	_, conn := dialTestHub(t)

	msg := readMessage(t, conn)
	if msg.Type != models.MsgState {
		t.Errorf("expected initial state nudge, got %q", msg.Type)
	}
	if msg.TS == 0 {
		t.Errorf("expected a timestamp")
	}
}

func TestHub_BroadcastTickReachesClients(t *testing.T) {
	hub, conn := dialTestHub(t)
	readMessage(t, conn) // initial nudge

	hub.BroadcastTick("sess_1", 4250, false)

	msg := readMessage(t, conn)
	if msg.Type != models.MsgTick {
		t.Fatalf("expected tick, got %q", msg.Type)
	}
	raw, _ := json.Marshal(msg.Payload)
	var tick models.TickPayload
	if err := json.Unmarshal(raw, &tick); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if tick.SessionID != "sess_1" || tick.RemainingMS != 4250 || tick.Paused {
		t.Errorf("unexpected payload: %+v", tick)
	}
}

func TestHub_BroadcastStateReachesClients(t *testing.T) {
	hub, conn := dialTestHub(t)
	readMessage(t, conn) // initial nudge

	hub.BroadcastState()

	msg := readMessage(t, conn)
	if msg.Type != models.MsgState {
		t.Errorf("expected state, got %q", msg.Type)
	}
}
