package http

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

func dialWS(ctx context.Context, t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, strings.Replace(url, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func sendEnvelope(ctx context.Context, t *testing.T, conn *websocket.Conn, msg *proto.Message) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageBinary, proto.Encode(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(ctx context.Context, t *testing.T, conn *websocket.Conn) *proto.Message {
	t.Helper()
	typ, frame, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("expected binary frame, got %v", typ)
	}
	msg, err := proto.Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestWebSocketJoinAndChat(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(ctx, t, ts.URL)
	connB := dialWS(ctx, t, ts.URL)

	sendEnvelope(ctx, t, connA, &proto.Message{Type: proto.TypeJoin, User: "alice", Channel: "general"})
	if reply := readEnvelope(ctx, t, connA); reply.Type != proto.TypeJoin || reply.Response != proto.RespSuccess {
		t.Fatalf("alice join: %s %s", reply.Type, reply.Response)
	}
	sendEnvelope(ctx, t, connB, &proto.Message{Type: proto.TypeJoin, User: "bob", Channel: "general"})
	if reply := readEnvelope(ctx, t, connB); reply.Response != proto.RespSuccess {
		t.Fatalf("bob join: %s", reply.Response)
	}

	sendEnvelope(ctx, t, connA, &proto.Message{Type: proto.TypeChat, User: "alice", Channel: "general", Text: "hi there"})
	if reply := readEnvelope(ctx, t, connA); reply.Type != proto.TypeChat || reply.Response != proto.RespSuccess {
		t.Fatalf("alice chat: %s %s", reply.Type, reply.Response)
	}

	relayed := readEnvelope(ctx, t, connB)
	if relayed.Type != proto.TypeChat || relayed.User != "alice" || relayed.Channel != "general" || relayed.Text != "hi there" {
		t.Fatalf("unexpected relayed message: %+v", relayed)
	}
}

func TestWebSocketShortFrameKeepsConnection(t *testing.T) {
	ts, hub := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, ts.URL)

	if err := conn.Write(ctx, websocket.MessageBinary, []byte{byte(proto.TypeJoin), 1, 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply := readEnvelope(ctx, t, conn)
	if reply.Type != proto.TypeError || reply.Response != proto.RespRecvMsgFailed {
		t.Fatalf("expected ERROR/RecvMsgFailed, got %s %s", reply.Type, reply.Response)
	}

	sendEnvelope(ctx, t, conn, &proto.Message{Type: proto.TypeJoin, User: "alice", Channel: "general"})
	if reply := readEnvelope(ctx, t, conn); reply.Response != proto.RespSuccess {
		t.Fatalf("join after short frame: %s", reply.Response)
	}
	if st := hub.Stats(); st.Members != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestWebSocketListChannelsStream(t *testing.T) {
	ts, _ := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(ctx, t, ts.URL)
	for _, ch := range []string{"beta", "alpha"} {
		sendEnvelope(ctx, t, conn, &proto.Message{Type: proto.TypeJoin, User: "alice", Channel: ch})
		readEnvelope(ctx, t, conn)
	}

	sendEnvelope(ctx, t, conn, &proto.Message{Type: proto.TypeListChannels, User: "alice"})
	var names []string
	for {
		msg := readEnvelope(ctx, t, conn)
		if msg.Response.Has(proto.RespListDone) {
			if int(msg.ListKey) != len(names) {
				t.Fatalf("terminator count %d, received %d", msg.ListKey, len(names))
			}
			break
		}
		if !msg.Response.Has(proto.RespListInProgress) {
			t.Fatalf("unexpected list message %s", msg.Response)
		}
		names = append(names, msg.Channel)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("unexpected channels %v", names)
	}
}
