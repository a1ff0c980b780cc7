// Package tcp serves the binary envelope protocol over plain TCP, one
// goroutine per connection reading one envelope at a time.
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/config"
	"github.com/vovakirdan/pdxirc/internal/core"
	"github.com/vovakirdan/pdxirc/internal/proto"
	"github.com/vovakirdan/pdxirc/internal/transport/peer"
	"github.com/vovakirdan/pdxirc/internal/utils"
)

// Server accepts TCP clients and drives the hub for each of them.
type Server struct {
	addr         string
	queueSize    int
	writeTimeout time.Duration
	hub          *core.Hub
	log          *zerolog.Logger

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewServer builds a TCP server bound to cfg.Addr once Listen is called.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *Server {
	return &Server{
		addr:         cfg.Addr,
		queueSize:    cfg.OutboundQueue,
		writeTimeout: cfg.WriteTimeout,
		hub:          hub,
		log:          logger,
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close releases a listener that was bound but never served. Serve closes
// its listener itself when ctx is cancelled.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}

// Serve accepts connections until ctx is cancelled, then closes the listener
// and waits for every connection handler to return.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp server: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp listener started")
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, nc)
		}()
	}
}

// ListenAndServe binds and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) handle(ctx context.Context, nc net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := peer.New(utils.NewID(), s.queueSize)
	logger := s.log.With().Str("conn_id", p.ID()).Str("remote", nc.RemoteAddr().String()).Logger()

	s.hub.Attach(p)
	defer s.hub.Detach(p)
	logger.Info().Msg("client connected")

	// Unblock the reader when the writer fails or the server stops.
	stop := context.AfterFunc(ctx, func() { _ = nc.Close() })
	defer stop()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		if err := p.Run(ctx, s.writeFrame(nc)); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Msg("write failed, dropping connection")
		}
	}()

	var err error
	for err == nil {
		err = s.hub.Process(ctx, p, nc)
	}
	// The client stopped sending but may still be reading. Whatever is queued
	// for it is written out before teardown.
	drain := ctx.Err() == nil
	switch {
	case ctx.Err() != nil:
		logger.Debug().Err(err).Msg("connection stopped")
	case errors.Is(err, io.EOF):
		logger.Info().Msg("client disconnected")
	case errors.Is(err, proto.ErrTruncated):
		logger.Warn().Err(err).Msg("stream ended mid-envelope")
		failed := &proto.Message{Type: proto.TypeError, Response: proto.RespRecvMsgFailed}
		if replyErr := p.Reply(ctx, failed); replyErr != nil {
			logger.Debug().Err(replyErr).Msg("cannot answer truncated envelope")
		}
	default:
		logger.Warn().Err(err).Msg("closing connection")
		drain = false
	}

	if drain {
		p.Finish()
	} else {
		p.Close()
		cancel()
	}
	<-writerDone
	_ = nc.Close()
}

func (s *Server) writeFrame(nc net.Conn) peer.WriteFunc {
	return func(_ context.Context, frame []byte) error {
		if s.writeTimeout > 0 {
			if err := nc.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
				return err
			}
		}
		_, err := nc.Write(frame)
		return err
	}
}
