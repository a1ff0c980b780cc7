package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

var errQueueFull = errors.New("queue full")

// fakeConn records everything the hub sends to it.
type fakeConn struct {
	id string

	mu        sync.Mutex
	delivered []*proto.Message
	replies   []*proto.Message
	refuse    bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Deliver(msg *proto.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refuse {
		return errQueueFull
	}
	c.delivered = append(c.delivered, msg)
	return nil
}

func (c *fakeConn) Reply(_ context.Context, msg *proto.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, msg)
	return nil
}

func (c *fakeConn) deliveries() []*proto.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*proto.Message(nil), c.delivered...)
}

func (c *fakeConn) sentReplies() []*proto.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*proto.Message(nil), c.replies...)
}

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	logger := zerolog.Nop()
	return NewHub(opts, &logger)
}

// mustRespond dispatches msg and requires a single reply carrying want.
func mustRespond(t *testing.T, h *Hub, conn Conn, msg *proto.Message, want proto.Response) *proto.Message {
	t.Helper()

	replies := h.Dispatch(context.Background(), conn, msg)
	if len(replies) != 1 {
		t.Fatalf("%s: expected 1 reply, got %d", msg.Type, len(replies))
	}
	if replies[0].Response != want {
		t.Fatalf("%s: response = %s, want %s", msg.Type, replies[0].Response, want)
	}
	return replies[0]
}

func join(user, channel string) *proto.Message {
	return &proto.Message{Type: proto.TypeJoin, User: user, Channel: channel}
}

func leave(user, channel string) *proto.Message {
	return &proto.Message{Type: proto.TypeLeave, User: user, Channel: channel}
}

func chat(user, channel, text string) *proto.Message {
	return &proto.Message{Type: proto.TypeChat, User: user, Channel: channel, Text: text}
}
