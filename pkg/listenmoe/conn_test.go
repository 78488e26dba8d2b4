package listenmoe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// gatewayStub runs a websocket server whose handler receives the
// upgraded server-side connection.
func gatewayStub(t *testing.T, handler func(*websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		handler(ws)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestReadEnvelope(t *testing.T) {
	url := gatewayStub(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.BinaryMessage, []byte{0xde, 0xad}) // must be skipped
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"op":0,"d":{"heartbeat":45000}}`))
		// Hold the connection open until the client is done.
		_, _, _ = ws.ReadMessage()
	})

	conn, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	env, err := conn.ReadEnvelope()
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if env.Op != OpHello {
		t.Errorf("Op = %d, want %d", env.Op, OpHello)
	}

	hello, err := DecodeHello(env.D)
	if err != nil {
		t.Fatalf("DecodeHello: %v", err)
	}
	if hello.Heartbeat != 45000 {
		t.Errorf("Heartbeat = %d, want 45000", hello.Heartbeat)
	}
}

func TestReadEnvelopeDecodeError(t *testing.T) {
	url := gatewayStub(t, func(ws *websocket.Conn) {
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"op":10}`))
		_, _, _ = ws.ReadMessage()
	})

	conn, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	_, err = conn.ReadEnvelope()
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}

	// The connection survives a decode error.
	env, err := conn.ReadEnvelope()
	if err != nil {
		t.Fatalf("ReadEnvelope after decode error: %v", err)
	}
	if env.Op != OpHeartbeatAck {
		t.Errorf("Op = %d, want %d", env.Op, OpHeartbeatAck)
	}
}

func TestReadEnvelopeCleanClose(t *testing.T) {
	url := gatewayStub(t, func(ws *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_, _, _ = ws.ReadMessage()
	})

	conn, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.ReadEnvelope(); !errors.Is(err, ErrConnClosed) {
		t.Errorf("expected ErrConnClosed, got %v", err)
	}
}

func TestWriteHeartbeat(t *testing.T) {
	received := make(chan string, 1)
	url := gatewayStub(t, func(ws *websocket.Conn) {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
	})

	conn, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteHeartbeat(); err != nil {
		t.Fatalf("WriteHeartbeat: %v", err)
	}

	select {
	case got := <-received:
		if got != `{"op":9}` {
			t.Errorf("heartbeat frame = %q, want %q", got, `{"op":9}`)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for heartbeat frame")
	}
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if _, err := Dial(ctx, "ws://127.0.0.1:1"); err == nil {
		t.Error("expected dial error for unreachable endpoint")
	}
}
