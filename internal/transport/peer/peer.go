// Package peer implements the outbound side of one client connection: a
// bounded queue of encoded envelopes drained by a single writer goroutine.
package peer

import (
	"context"
	"errors"
	"sync"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

var (
	// ErrQueueFull is returned by Deliver when the receiver is not keeping up.
	ErrQueueFull = errors.New("outbound queue full")
	// ErrClosed is returned once the peer has been closed.
	ErrClosed = errors.New("peer closed")
)

// WriteFunc writes one encoded envelope to the underlying connection.
type WriteFunc func(ctx context.Context, frame []byte) error

// Peer satisfies core.Conn for any transport that can write whole envelopes.
type Peer struct {
	id         string
	queue      chan []byte
	done       chan struct{}
	finish     chan struct{}
	once       sync.Once
	finishOnce sync.Once
}

// New creates a peer whose queue holds up to size envelopes.
func New(id string, size int) *Peer {
	if size <= 0 {
		size = 1
	}
	return &Peer{
		id:     id,
		queue:  make(chan []byte, size),
		done:   make(chan struct{}),
		finish: make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (p *Peer) ID() string {
	return p.id
}

// Deliver queues msg without blocking.
func (p *Peer) Deliver(msg *proto.Message) error {
	if p.stopped() {
		return ErrClosed
	}

	select {
	case p.queue <- proto.Encode(msg):
		return nil
	default:
		return ErrQueueFull
	}
}

// Reply queues msg, waiting for room until ctx is done or the peer closes.
func (p *Peer) Reply(ctx context.Context, msg *proto.Message) error {
	frame := proto.Encode(msg)
	if p.stopped() {
		return ErrClosed
	}

	select {
	case p.queue <- frame:
		return nil
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue through write until ctx is done, the peer is closed or
// a write fails. A failed write closes the peer. After Finish, Run writes what
// is still queued and returns nil.
func (p *Peer) Run(ctx context.Context, write WriteFunc) error {
	for {
		select {
		case frame := <-p.queue:
			if err := write(ctx, frame); err != nil {
				p.Close()
				return err
			}
		case <-p.finish:
			return p.flush(ctx, write)
		case <-p.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Peer) flush(ctx context.Context, write WriteFunc) error {
	defer p.Close()
	for {
		select {
		case frame := <-p.queue:
			if err := write(ctx, frame); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// Finish refuses further envelopes and lets Run write out the ones already
// queued before it returns.
func (p *Peer) Finish() {
	p.finishOnce.Do(func() { close(p.finish) })
}

// Close stops the peer. Queued envelopes that were not written are dropped.
func (p *Peer) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *Peer) stopped() bool {
	select {
	case <-p.done:
		return true
	case <-p.finish:
		return true
	default:
		return false
	}
}
