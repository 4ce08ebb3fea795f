package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/patchwire/pkg/component"
	"github.com/vango-dev/patchwire/pkg/protocol"
	"github.com/vango-dev/patchwire/pkg/render"
)

func dialWS(t *testing.T, e *testEnv) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(e.server.Handler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	return ws, func() {
		ws.Close()
		ts.Close()
	}
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg Message) Reply {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply Reply
	if err := ws.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Seq != msg.Seq {
		t.Errorf("reply seq = %d, want %d", reply.Seq, msg.Seq)
	}
	return reply
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebSocketMountUpdateAndScope(t *testing.T) {
	e := newTestEnv(t)
	ws, closeAll := dialWS(t, e)
	defer closeAll()

	reply := roundTrip(t, ws, Message{Seq: 1, Op: OpMount, Name: "counter"})
	var init render.Initial
	if err := json.Unmarshal(reply.Body, &init); err != nil {
		t.Fatal(err)
	}
	if init.ID == "" || init.Version != 1 {
		t.Fatalf("initial = %+v", init)
	}

	reply = roundTrip(t, ws, Message{Seq: 2, Op: OpUpdate, Update: &UpdateRequest{
		ID:        init.ID,
		Name:      "counter",
		State:     init.State,
		Signature: init.Signature,
		Updates:   map[string]any{"count": 41},
		Calls:     []component.Call{{Method: "increment"}},
	}})
	env, em, err := protocol.NewDecoder(protocol.ModeFull).DecodeResponse(reply.Body)
	if err != nil || em != nil {
		t.Fatalf("update reply: %v %v", err, em)
	}
	if env.Version != 2 || len(env.Patches) != 1 || env.Patches[0].Text != "Count: 42" {
		t.Errorf("envelope = %+v", env)
	}

	reply = roundTrip(t, ws, Message{Seq: 3, Op: "explode"})
	if em := decodeError(t, reply.Body); em.Code != protocol.ErrInvalidRequest {
		t.Errorf("unknown op code = %v", em.Code)
	}

	if e.store.Len() != 1 {
		t.Fatalf("store len = %d before close", e.store.Len())
	}
	ws.Close()
	waitFor(t, "scope discard", func() bool { return e.store.Len() == 0 })
	waitFor(t, "connection untracked", func() bool { return e.server.ConnectionCount() == 0 })
}

func TestWebSocketCloseKeepsInstancesMountedElsewhere(t *testing.T) {
	e := newTestEnv(t)
	init := e.mount(t)

	ws, closeAll := dialWS(t, e)
	defer closeAll()

	reply := roundTrip(t, ws, Message{Seq: 1, Op: OpUpdate, Update: &UpdateRequest{
		ID:        init.ID,
		Name:      "counter",
		State:     init.State,
		Signature: init.Signature,
		Calls:     []component.Call{{Method: "increment"}},
	}})
	env, em, err := protocol.NewDecoder(protocol.ModeFull).DecodeResponse(reply.Body)
	if err != nil || em != nil {
		t.Fatalf("update reply: %v %v", err, em)
	}
	if env.Version != 2 {
		t.Errorf("version = %d, want 2", env.Version)
	}

	ws.Close()
	waitFor(t, "connection untracked", func() bool { return e.server.ConnectionCount() == 0 })
	if e.store.Len() != 1 {
		t.Errorf("store len = %d, want the HTTP-mounted snapshot kept", e.store.Len())
	}
}

func TestWebSocketDiscard(t *testing.T) {
	e := newTestEnv(t)
	ws, closeAll := dialWS(t, e)
	defer closeAll()

	reply := roundTrip(t, ws, Message{Seq: 1, Op: OpMount, Name: "counter"})
	var init render.Initial
	if err := json.Unmarshal(reply.Body, &init); err != nil {
		t.Fatal(err)
	}
	reply = roundTrip(t, ws, Message{Seq: 2, Op: OpDiscard, ID: init.ID})
	if string(reply.Body) != `{"s":true}` {
		t.Errorf("discard reply = %s", reply.Body)
	}
	if e.store.Len() != 0 {
		t.Errorf("snapshot kept after discard")
	}
}

func TestWebSocketSignatureFailureClosesConnection(t *testing.T) {
	e := newTestEnv(t)
	ws, closeAll := dialWS(t, e)
	defer closeAll()

	reply := roundTrip(t, ws, Message{Seq: 1, Op: OpMount, Name: "counter"})
	var init render.Initial
	if err := json.Unmarshal(reply.Body, &init); err != nil {
		t.Fatal(err)
	}

	reply = roundTrip(t, ws, Message{Seq: 2, Op: OpUpdate, Update: &UpdateRequest{
		ID:        init.ID,
		Name:      "counter",
		State:     map[string]any{"count": 1000, "step": 1},
		Signature: init.Signature,
	}})
	em := decodeError(t, reply.Body)
	if em.Code != protocol.ErrInvalidSignature || !em.Fatal {
		t.Errorf("error = %+v", em)
	}

	_, _, err := ws.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Errorf("read after fatal error = %v, want policy violation close", err)
	}
	waitFor(t, "scope discard", func() bool { return e.store.Len() == 0 })
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	e := newTestEnv(t)
	ts := httptest.NewServer(e.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial succeeded from a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}
