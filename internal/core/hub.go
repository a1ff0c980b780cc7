package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/proto"
	"github.com/vovakirdan/pdxirc/internal/store"
)

// Options tunes a Hub.
type Options struct {
	// MaxChannels caps the registry size; zero means unlimited.
	MaxChannels int
	// MaxMembers caps members per channel; zero means unlimited.
	MaxMembers int
	// Catalog, when set, persists channel names across restarts.
	Catalog store.ChannelStore
}

// Hub owns the channel registry and the per-connection sessions. Every
// handler runs to completion while holding mu, so no two handlers ever
// observe or mutate the registry concurrently.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	sessions map[string]*Session
	catalog  store.ChannelStore
	log      *zerolog.Logger
}

// NewHub creates a new chat hub instance.
func NewHub(opts Options, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		registry: NewRegistry(opts.MaxChannels, opts.MaxMembers),
		sessions: make(map[string]*Session),
		catalog:  opts.Catalog,
		log:      logger,
	}
}

// Restore loads persisted channel names into the registry.
func (h *Hub) Restore(ctx context.Context) error {
	if h.catalog == nil {
		return nil
	}
	names, err := h.catalog.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("restore channels: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, name := range names {
		if _, _, err := h.registry.GetOrCreate(name); err != nil {
			return fmt.Errorf("restore channel %q: %w", name, err)
		}
	}
	h.log.Info().Int("channels", len(names)).Msg("channels restored")
	return nil
}

// Attach registers a session for conn. Attaching twice is harmless.
func (h *Hub) Attach(conn Conn) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessionFor(conn)
}

// Detach forgets the session of a closed connection and removes every
// membership it held. Channels stay in the registry even when emptied.
func (h *Hub) Detach(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := conn.ID()
	sess, ok := h.sessions[id]
	if !ok {
		return
	}
	delete(h.sessions, id)
	left := h.registry.removeConn(id)

	h.log.Info().
		Str("conn_id", id).
		Str("user", sess.User).
		Strs("channels", left).
		Dur("connected_for", time.Since(sess.ConnectedAt)).
		Msg("session closed")
}

func (h *Hub) sessionFor(conn Conn) *Session {
	id := conn.ID()
	if sess, ok := h.sessions[id]; ok {
		return sess
	}
	sess := &Session{Conn: conn, ConnectedAt: time.Now()}
	h.sessions[id] = sess
	h.log.Debug().Str("conn_id", id).Msg("session opened")
	return sess
}

// Process performs one read, dispatch and respond cycle for a readable
// connection. It returns io.EOF when the peer closed cleanly between envelopes.
func (h *Hub) Process(ctx context.Context, conn Conn, r io.Reader) error {
	msg, err := proto.Read(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("read envelope: %w", err)
	}
	return h.respond(ctx, conn, msg)
}

// ProcessFrame is Process for transports that deliver whole frames. A short
// frame is answered with RecvMsgFailed and the connection stays usable.
func (h *Hub) ProcessFrame(ctx context.Context, conn Conn, frame []byte) error {
	msg, err := proto.Decode(frame)
	if err != nil {
		h.log.Warn().Err(err).Str("conn_id", conn.ID()).Msg("malformed envelope")
		return conn.Reply(ctx, &proto.Message{Type: proto.TypeError, Response: proto.RespRecvMsgFailed})
	}
	return h.respond(ctx, conn, msg)
}

func (h *Hub) respond(ctx context.Context, conn Conn, msg *proto.Message) error {
	for _, reply := range h.Dispatch(ctx, conn, msg) {
		if err := conn.Reply(ctx, reply); err != nil {
			return fmt.Errorf("reply %s: %w", reply.Type, err)
		}
	}
	return nil
}

// Dispatch runs msg through its handler and returns the replies for the
// requester, in order. Only CHAT writes to other connections.
func (h *Hub) Dispatch(ctx context.Context, conn Conn, msg *proto.Message) []*proto.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess := h.sessionFor(conn)

	var replies []*proto.Message
	switch msg.Type {
	case proto.TypeLogin:
		replies = single(h.handleLogin(sess, msg))
	case proto.TypeJoin:
		replies = single(h.handleJoin(ctx, sess, msg))
	case proto.TypeLeave:
		replies = single(h.handleLeave(sess, msg))
	case proto.TypeChat:
		replies = single(h.handleChat(sess, msg))
	case proto.TypeListChannels:
		replies = h.handleListChannels(sess, msg)
	case proto.TypeListUsers:
		replies = h.handleListUsers(sess, msg)
	default:
		h.log.Warn().
			Str("conn_id", conn.ID()).
			Uint8("type", uint8(msg.Type)).
			Msg("unsupported message type")
		replies = single(&proto.Message{Type: proto.TypeError, Response: proto.RespRecvMsgFailed})
	}

	if len(replies) > 0 {
		last := replies[len(replies)-1]
		h.log.Debug().
			Str("conn_id", conn.ID()).
			Str("type", msg.Type.String()).
			Str("user", msg.User).
			Str("channel", msg.Channel).
			Str("response", last.Response.String()).
			Int("replies", len(replies)).
			Msg("handled")
	}
	return replies
}

func single(m *proto.Message) []*proto.Message {
	return []*proto.Message{m}
}

// ChannelInfo is a read-only view of one channel.
type ChannelInfo struct {
	Name    string
	Members []string
}

// Channels returns a snapshot of every channel and its member names.
func (h *Hub) Channels() []ChannelInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := h.registry.Names()
	out := make([]ChannelInfo, 0, len(names))
	for _, name := range names {
		out = append(out, ChannelInfo{Name: name, Members: h.registry.Find(name).MemberNames()})
	}
	return out
}

// ChannelMembers returns the member names of one channel.
func (h *Hub) ChannelMembers(name string) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := h.registry.Find(name)
	if ch == nil {
		return nil, ErrChannelNotFound
	}
	return ch.MemberNames(), nil
}

// ChannelDetail is one channel with its catalog record, when there is one.
type ChannelDetail struct {
	Name      string
	Members   []string
	CreatedAt time.Time // zero without a catalog entry
}

// ChannelDetail returns the members of one channel and, when a catalog is
// configured, the time the channel was first created.
func (h *Hub) ChannelDetail(ctx context.Context, name string) (ChannelDetail, error) {
	members, err := h.ChannelMembers(name)
	if err != nil {
		return ChannelDetail{}, err
	}
	detail := ChannelDetail{Name: name, Members: members}
	if h.catalog == nil {
		return detail, nil
	}

	rec, err := h.catalog.GetChannel(ctx, name)
	switch {
	case err == nil:
		detail.CreatedAt = rec.CreatedAt
	case errors.Is(err, store.ErrNotFound):
	default:
		return ChannelDetail{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return detail, nil
}

// Stats summarizes the registry.
type Stats struct {
	Channels int
	Sessions int
	Members  int
}

// Stats returns current counts.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := Stats{Channels: h.registry.Len(), Sessions: len(h.sessions)}
	for _, ch := range h.registry.channels {
		st.Members += ch.Len()
	}
	return st
}
