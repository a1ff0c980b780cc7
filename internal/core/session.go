package core

import (
	"context"
	"time"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

// Conn is the transport's handle for one client connection. The core never
// opens or closes connections, it only associates state with them.
type Conn interface {
	// ID identifies the connection for the lifetime of the process.
	ID() string
	// Deliver queues msg for the connection without blocking. It is used for
	// fan-out, where one slow receiver must not stall the others.
	Deliver(msg *proto.Message) error
	// Reply queues msg for the requester, waiting for queue space until ctx is done.
	Reply(ctx context.Context, msg *proto.Message) error
}

// Session is the per-connection state kept by the Hub.
type Session struct {
	Conn        Conn
	User        string // bound by LOGIN, empty until then
	ConnectedAt time.Time
}

// authorize checks the user named in a request against the session binding.
func (s *Session) authorize(name string) error {
	if !validUserName(name) {
		return coreError(ErrCodeInvalidUser, ErrInvalidUser, "user name must be 1 to 15 bytes")
	}
	if s.User != "" && s.User != name {
		return coreError(ErrCodeInvalidUser, ErrInvalidUser, "user name does not match login")
	}
	return nil
}

func validUserName(name string) bool {
	return name != "" && len(name) < proto.UserNameMaxLen
}

func checkChannelName(name string) error {
	if name == "" || len(name) >= proto.ChannelNameMaxLen {
		return coreError(ErrCodeInvalidChannel, ErrInvalidChannel, "channel name must be 1 to 31 bytes")
	}
	return nil
}
