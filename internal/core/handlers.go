package core

import (
	"context"
	"fmt"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

func (h *Hub) handleLogin(sess *Session, msg *proto.Message) *proto.Message {
	if !validUserName(msg.User) {
		return msg.Reply(proto.RespInvalidLogin)
	}
	// A rename would strand memberships keyed by another name: they could
	// neither be left under the old name nor found under the new one.
	for _, held := range h.registry.heldNames(sess.Conn.ID()) {
		if held != msg.User {
			h.log.Info().
				Str("conn_id", sess.Conn.ID()).
				Str("held", held).
				Str("requested", msg.User).
				Msg("login refused while memberships are held under another name")
			return msg.Reply(proto.RespInvalidLogin)
		}
	}
	if sess.User != "" && sess.User != msg.User {
		h.log.Info().
			Str("conn_id", sess.Conn.ID()).
			Str("from", sess.User).
			Str("to", msg.User).
			Msg("login renamed session")
	}
	sess.User = msg.User
	return msg.Reply(proto.RespSuccess)
}

func (h *Hub) handleJoin(ctx context.Context, sess *Session, msg *proto.Message) *proto.Message {
	if err := sess.authorize(msg.User); err != nil {
		return msg.Reply(proto.RespInvalidLogin)
	}
	if err := checkChannelName(msg.Channel); err != nil {
		h.log.Debug().Str("code", Code(err)).Str("channel", msg.Channel).Msg(err.Error())
		return msg.Reply(proto.RespInvalidChannelName)
	}

	ch, created, err := h.registry.GetOrCreate(msg.Channel)
	if err != nil {
		h.log.Warn().Err(err).Str("channel", msg.Channel).Msg("cannot create channel")
		return msg.Reply(joinResponse(err, true))
	}
	if created && h.catalog != nil {
		if err := h.catalog.CreateChannel(ctx, ch.Name); err != nil {
			h.registry.drop(ch.Name)
			h.log.Error().Err(err).Str("channel", ch.Name).Msg("persist channel")
			return msg.Reply(joinResponse(fmt.Errorf("%w: %v", ErrStore, err), true))
		}
	}
	if created {
		h.log.Info().Str("channel", ch.Name).Msg("channel created")
	}

	if err := h.registry.AddMember(ch, User{Name: msg.User, Conn: sess.Conn}); err != nil {
		return msg.Reply(joinResponse(err, false))
	}
	return msg.Reply(proto.RespSuccess)
}

func (h *Hub) handleLeave(sess *Session, msg *proto.Message) *proto.Message {
	if err := sess.authorize(msg.User); err != nil {
		return msg.Reply(proto.RespInvalidLogin)
	}
	ch := h.registry.Find(msg.Channel)
	if ch == nil {
		return msg.Reply(proto.RespInvalidChannelName)
	}
	if _, err := h.registry.RemoveMember(ch, User{Name: msg.User, Conn: sess.Conn}); err != nil {
		return msg.Reply(proto.RespNotInChannel)
	}
	return msg.Reply(proto.RespSuccess)
}

func (h *Hub) handleChat(sess *Session, msg *proto.Message) *proto.Message {
	if err := sess.authorize(msg.User); err != nil {
		return msg.Reply(proto.RespInvalidLogin)
	}
	ch := h.registry.Find(msg.Channel)
	if ch == nil {
		return msg.Reply(proto.RespInvalidChannelName)
	}
	from := User{Name: msg.User, Conn: sess.Conn}
	if !h.registry.Contains(ch, from) {
		return msg.Reply(proto.RespNotInChannel)
	}

	Broadcast(ch, from, msg, h.log)
	return msg.Reply(proto.RespSuccess)
}

func (h *Hub) handleListChannels(sess *Session, msg *proto.Message) []*proto.Message {
	if err := sess.authorize(msg.User); err != nil {
		return single(listDone(msg, 0, proto.RespInvalidLogin))
	}
	names := h.registry.Names()
	if len(names) == 0 {
		return single(listDone(msg, 0, proto.RespServerHasNoChannels))
	}
	return streamList(msg, names,
		func(item *proto.Message, name string) { item.Channel = name },
		proto.RespStillChannelsRemaining,
		proto.RespDoneSendingChannels|proto.RespSuccess,
	)
}

func (h *Hub) handleListUsers(sess *Session, msg *proto.Message) []*proto.Message {
	if err := sess.authorize(msg.User); err != nil {
		return single(listDone(msg, 0, proto.RespInvalidLogin))
	}
	ch := h.registry.Find(msg.Channel)
	if ch == nil {
		return single(listDone(msg, 0, proto.RespCannotFindChannel|proto.RespCannotGetUsers))
	}
	return streamList(msg, ch.MemberNames(),
		func(item *proto.Message, name string) { item.User = name },
		0,
		proto.RespSuccess,
	)
}
