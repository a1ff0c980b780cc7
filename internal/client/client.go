// Package client is a pdxirc protocol client over one TCP connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

// EventKind classifies what the server sent.
type EventKind int

const (
	// EventReply answers one of our requests.
	EventReply EventKind = iota
	// EventChat is a chat message relayed from another member.
	EventChat
	// EventList is a completed channel or user listing.
	EventList
)

// Event is delivered on Client.Events.
type Event struct {
	Kind    EventKind
	Message *proto.Message
	List    *ListResult
}

// Client owns one server connection.
type Client struct {
	conn   net.Conn
	log    *zerolog.Logger
	mu     sync.Mutex
	user   string
	wmu    sync.Mutex
	lists  ListStream
	events chan Event
}

// Dial connects to addr and returns a client that speaks as user.
func Dial(ctx context.Context, addr, user string, logger *zerolog.Logger) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn, user, logger), nil
}

// New wraps an established connection.
func New(conn net.Conn, user string, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		conn:   conn,
		user:   user,
		log:    logger,
		events: make(chan Event, 64),
	}
}

// Events is closed when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// User returns the name requests are sent as.
func (c *Client) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Login asks the server to bind name to the connection and sends later
// requests as name.
func (c *Client) Login(name, password string) error {
	if err := c.send(&proto.Message{Type: proto.TypeLogin, User: name, Password: password}); err != nil {
		return err
	}
	c.mu.Lock()
	c.user = name
	c.mu.Unlock()
	return nil
}

// Join asks to join channel, creating it if needed.
func (c *Client) Join(channel string) error {
	return c.send(&proto.Message{Type: proto.TypeJoin, User: c.User(), Channel: channel})
}

// Leave asks to leave channel.
func (c *Client) Leave(channel string) error {
	return c.send(&proto.Message{Type: proto.TypeLeave, User: c.User(), Channel: channel})
}

// Chat sends text to every other member of channel.
func (c *Client) Chat(channel, text string) error {
	return c.send(&proto.Message{Type: proto.TypeChat, User: c.User(), Channel: channel, Text: text})
}

// ListChannels requests the channel list. It fails with ErrListInFlight while
// a previous listing has not finished.
func (c *Client) ListChannels() error {
	return c.requestList(ListChannels, &proto.Message{Type: proto.TypeListChannels, User: c.User()})
}

// ListUsers requests the members of channel, subject to the same guard as ListChannels.
func (c *Client) ListUsers(channel string) error {
	return c.requestList(ListUsers, &proto.Message{Type: proto.TypeListUsers, User: c.User(), Channel: channel})
}

func (c *Client) requestList(kind ListKind, msg *proto.Message) error {
	if err := c.lists.Begin(kind, msg.Channel); err != nil {
		return err
	}
	if err := c.send(msg); err != nil {
		c.lists.Cancel()
		return err
	}
	return nil
}

func (c *Client) send(msg *proto.Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := proto.Write(c.conn, msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

// Run reads envelopes until the connection ends or ctx is cancelled.
// A clean close by the server returns nil.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	for {
		msg, err := proto.Read(c.conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		ev, ok := c.classify(msg)
		if !ok {
			continue
		}
		select {
		case c.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) classify(msg *proto.Message) (Event, bool) {
	switch {
	case isRelayedChat(msg):
		return Event{Kind: EventChat, Message: msg}, true
	case msg.Type.IsList():
		res, err := c.lists.Accept(msg)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping list message")
			return Event{}, false
		}
		if res == nil {
			return Event{}, false
		}
		return Event{Kind: EventList, Message: msg, List: res}, true
	default:
		return Event{Kind: EventReply, Message: msg}, true
	}
}

// isRelayedChat tells a relayed chat from the answer to our own CHAT. The
// relay is the sender's envelope as sent, so its response bits are whatever the
// sender put there. Answers never carry text.
func isRelayedChat(msg *proto.Message) bool {
	return msg.Type == proto.TypeChat && (msg.Text != "" || msg.Response == proto.RespInvalid)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
