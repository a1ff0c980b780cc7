package core

import "github.com/vovakirdan/pdxirc/internal/proto"

// streamList renders items as one ListInProgress message each, followed by a
// single ListDone terminator. ListKey carries the item ordinal on items and
// the item count on the terminator, both modulo 256.
func streamList(
	req *proto.Message,
	items []string,
	fill func(item *proto.Message, value string),
	itemFlags proto.Response,
	doneFlags proto.Response,
) []*proto.Message {
	out := make([]*proto.Message, 0, len(items)+1)
	for i, value := range items {
		item := req.Reply(proto.RespListInProgress | itemFlags)
		item.ListKey = uint8(i)
		fill(item, value)
		out = append(out, item)
	}
	return append(out, listDone(req, len(items), doneFlags))
}

func listDone(req *proto.Message, count int, flags proto.Response) *proto.Message {
	done := req.Reply(proto.RespListDone | flags)
	done.ListKey = uint8(count)
	return done
}
