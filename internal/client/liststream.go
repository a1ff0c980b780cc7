package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

// ListKind identifies which list request is streaming.
type ListKind int

const (
	ListNone ListKind = iota
	ListChannels
	ListUsers
)

func (k ListKind) String() string {
	switch k {
	case ListChannels:
		return "channels"
	case ListUsers:
		return "users"
	default:
		return "none"
	}
}

func listKindOf(t proto.Type) ListKind {
	switch t {
	case proto.TypeListChannels:
		return ListChannels
	case proto.TypeListUsers:
		return ListUsers
	default:
		return ListNone
	}
}

var (
	// ErrListInFlight rejects a list request while another is still streaming.
	// The protocol carries no request id, so two streams could not be told apart.
	ErrListInFlight = errors.New("a list request is already in flight")
	// ErrUnexpectedListItem reports a list message that matches no outstanding request.
	ErrUnexpectedListItem = errors.New("unexpected list message")
)

// ListResult is one completed list stream.
type ListResult struct {
	Kind     ListKind
	Channel  string // LIST_USERS only
	Items    []string
	Response proto.Response // flags of the terminating message
	// Complete is false when the terminator's count disagrees with the items received.
	Complete bool
}

// ListStream guards the single outstanding list request and accumulates its
// items. It is Idle while kind is ListNone and Streaming otherwise.
type ListStream struct {
	mu      sync.Mutex
	kind    ListKind
	channel string
	items   []string
}

// Begin moves Idle to Streaming(kind).
func (s *ListStream) Begin(kind ListKind, channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kind != ListNone {
		return fmt.Errorf("%w: %s", ErrListInFlight, s.kind)
	}
	s.kind = kind
	s.channel = channel
	s.items = nil
	return nil
}

// Cancel abandons the current stream, e.g. when the request could not be sent.
func (s *ListStream) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Streaming reports the kind currently streaming, or ListNone.
func (s *ListStream) Streaming() ListKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind
}

// Accept consumes one list message. It returns a result when msg terminates
// the stream and nil while items are still arriving.
func (s *ListStream) Accept(msg *proto.Message) (*ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := listKindOf(msg.Type)
	if kind == ListNone || s.kind != kind {
		return nil, fmt.Errorf("%w: %s while streaming %s", ErrUnexpectedListItem, msg.Type, s.kind)
	}

	if msg.Response.Has(proto.RespListInProgress) {
		item := msg.Channel
		if kind == ListUsers {
			item = msg.User
		}
		s.items = append(s.items, item)
		return nil, nil
	}

	if !msg.Response.Has(proto.RespListDone) {
		return nil, fmt.Errorf("%w: response %s", ErrUnexpectedListItem, msg.Response)
	}

	res := &ListResult{
		Kind:     s.kind,
		Channel:  s.channel,
		Items:    s.items,
		Response: msg.Response,
		Complete: msg.ListKey == uint8(len(s.items)),
	}
	s.reset()
	return res, nil
}

func (s *ListStream) reset() {
	s.kind = ListNone
	s.channel = ""
	s.items = nil
}
