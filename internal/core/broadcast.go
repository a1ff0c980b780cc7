package core

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

// Broadcast delivers msg to every member of ch except from and returns how
// many deliveries were queued. Each recipient is tried independently; a failed
// delivery is logged and neither aborts the fan-out nor removes the member.
func Broadcast(ch *Channel, from User, msg *proto.Message, logger *zerolog.Logger) int {
	delivered, failed := 0, 0
	for _, member := range ch.Members() {
		if member.Same(from) {
			continue
		}
		if err := member.Conn.Deliver(msg); err != nil {
			failed++
			logger.Warn().
				Err(err).
				Str("channel", ch.Name).
				Str("user", member.Name).
				Str("conn_id", member.Conn.ID()).
				Msg("broadcast delivery failed")
			continue
		}
		delivered++
	}

	logger.Debug().
		Str("channel", ch.Name).
		Str("user", from.Name).
		Int("delivered", delivered).
		Int("failed", failed).
		Msg("broadcast")
	return delivered
}
