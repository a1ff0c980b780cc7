// Command ws_smoke joins a channel over the WebSocket transport, sends one
// chat line and prints every envelope received until the timeout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "user name sent with each request")
	channel := flag.String("channel", "general", "channel name")
	text := flag.String("text", "hello from smoke test", "chat text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(m *proto.Message) {
		if err := conn.Write(ctx, websocket.MessageBinary, proto.Encode(m)); err != nil {
			log.Fatalf("send %s: %v", m.Type, err)
		}
	}

	mustSend(&proto.Message{Type: proto.TypeJoin, User: *user, Channel: *channel})
	mustSend(&proto.Message{Type: proto.TypeChat, User: *user, Channel: *channel, Text: *text})
	mustSend(&proto.Message{Type: proto.TypeListUsers, User: *user, Channel: *channel})

	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return
			}
			log.Fatalf("read: %v", err)
		}
		msg, err := proto.Decode(frame)
		if err != nil {
			fmt.Printf("Malformed frame (%d bytes): %v\n", len(frame), err)
			continue
		}

		fmt.Printf("Received: type=%s response=%s list_key=%d", msg.Type, msg.Response, msg.ListKey)
		if msg.User != "" {
			fmt.Printf(" user=%s", msg.User)
		}
		if msg.Channel != "" {
			fmt.Printf(" channel=%s", msg.Channel)
		}
		if msg.Text != "" {
			fmt.Printf(" text=%q", msg.Text)
		}
		fmt.Println()

		if msg.Type == proto.TypeListUsers && msg.Response.Has(proto.RespListDone) {
			return
		}
	}
}
