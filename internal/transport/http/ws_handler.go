package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/config"
	"github.com/vovakirdan/pdxirc/internal/core"
	"github.com/vovakirdan/pdxirc/internal/proto"
	"github.com/vovakirdan/pdxirc/internal/transport/peer"
	"github.com/vovakirdan/pdxirc/internal/utils"
)

// WSHandler upgrades HTTP connections and carries one envelope per binary frame.
type WSHandler struct {
	hub          *core.Hub
	queueSize    int
	writeTimeout time.Duration
	log          *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:          hub,
		queueSize:    cfg.OutboundQueue,
		writeTimeout: cfg.WriteTimeout,
		log:          logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(proto.Size)

	p := peer.New(utils.NewID(), h.queueSize)
	logger := h.log.With().Str("conn_id", p.ID()).Str("remote", r.RemoteAddr).Logger()

	h.hub.Attach(p)
	defer h.hub.Detach(p)
	logger.Info().Msg("ws client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, p, &logger)
	}()
	go func() {
		errCh <- p.Run(ctx, h.writeFrame(conn))
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	p.Close()
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	logger.Info().Msg("ws client disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, p *peer.Peer, logger *zerolog.Logger) error {
	for {
		typ, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if typ != websocket.MessageBinary {
			logger.Warn().Str("frame_type", typ.String()).Msg("non-binary frame")
			if err := p.Reply(ctx, &proto.Message{Type: proto.TypeError, Response: proto.RespRecvMsgFailed}); err != nil {
				return err
			}
			continue
		}

		if err := h.hub.ProcessFrame(ctx, p, frame); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeFrame(conn *websocket.Conn) peer.WriteFunc {
	return func(ctx context.Context, frame []byte) error {
		if h.writeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.writeTimeout)
			defer cancel()
		}
		return conn.Write(ctx, websocket.MessageBinary, frame)
	}
}
