package core

import (
	"context"
	"strconv"
	"testing"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

type discardConn struct{ id string }

func (c discardConn) ID() string                                { return c.id }
func (discardConn) Deliver(*proto.Message) error                { return nil }
func (discardConn) Reply(context.Context, *proto.Message) error { return nil }

func benchmarkChannelBroadcast(b *testing.B, recipients int) {
	hub := NewHub(Options{}, nil)
	ctx := context.Background()

	sender := discardConn{id: "sender"}
	hub.Dispatch(ctx, sender, join("sender", "bench"))
	for i := range recipients {
		c := discardConn{id: "c" + strconv.Itoa(i)}
		hub.Dispatch(ctx, c, join("u"+strconv.Itoa(i), "bench"))
	}

	msg := chat("sender", "bench", "payload")

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		hub.Dispatch(ctx, sender, msg)
	}
}

func BenchmarkChannelBroadcast_10(b *testing.B)  { benchmarkChannelBroadcast(b, 10) }
func BenchmarkChannelBroadcast_100(b *testing.B) { benchmarkChannelBroadcast(b, 100) }
func BenchmarkChannelBroadcast_500(b *testing.B) { benchmarkChannelBroadcast(b, 500) }
