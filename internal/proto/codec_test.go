package proto

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{"login", Message{Type: TypeLogin, User: "alice", Password: "hunter2"}},
		{"join", Message{Type: TypeJoin, User: "alice", Channel: "LinuxFTW!"}},
		{"leave", Message{Type: TypeLeave, Response: RespSuccess, User: "bob", Channel: "general"}},
		{"chat", Message{Type: TypeChat, User: "bob", Channel: "general", Text: "Hello Server!"}},
		{"list item", Message{Type: TypeListChannels, Response: RespListInProgress | RespStillChannelsRemaining, ListKey: 7, Channel: "a"}},
		{"list users done", Message{Type: TypeListUsers, Response: RespListDone | RespSuccess, ListKey: 3, User: "carol", Channel: "c"}},
		{"error", Message{Type: TypeError, Response: RespRecvMsgFailed}},
		{"max lengths", Message{
			Type:    TypeChat,
			User:    strings.Repeat("u", UserNameMaxLen-1),
			Channel: strings.Repeat("c", ChannelNameMaxLen-1),
			Text:    strings.Repeat("t", ChatTextMaxLen-1),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Encode(&tt.msg)
			if len(buf) != Size {
				t.Fatalf("encoded length %d, want %d", len(buf), Size)
			}
			got, err := Decode(buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if *got != tt.msg {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *got, tt.msg)
			}
		})
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	buf := Encode(&Message{Type: TypeJoin, User: "a", Channel: "b"})

	_, err := Decode(buf[:Size-1])
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if _, err := Decode(nil); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated for empty buffer, got %v", err)
	}
}

func TestDecodeStopsAtNULOrFieldEnd(t *testing.T) {
	buf := make([]byte, Size)
	buf[offType] = byte(TypeJoin)
	copy(buf[offUser:], "ab\x00zz")
	// Channel fills its slot with no terminator.
	copy(buf[offChannel:], strings.Repeat("x", ChannelNameMaxLen))
	buf[offText] = 'y'

	m, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.User != "ab" {
		t.Fatalf("user = %q, want %q", m.User, "ab")
	}
	if m.Channel != strings.Repeat("x", ChannelNameMaxLen) {
		t.Fatalf("channel = %q", m.Channel)
	}
	if m.Text != "" {
		t.Fatalf("text must be ignored for JOIN, got %q", m.Text)
	}
}

func TestEncodeLayout(t *testing.T) {
	buf := Encode(&Message{
		Type:     TypeChat,
		Response: RespSuccess | RespListDone,
		ListKey:  9,
		User:     "u",
		Channel:  "c",
		Text:     "t",
	})

	if buf[0] != byte(TypeChat) {
		t.Fatalf("type byte = %d", buf[0])
	}
	if got := []byte{buf[1], buf[2], buf[3], buf[4]}; !bytes.Equal(got, []byte{0x01, 0x40, 0x00, 0x00}) {
		t.Fatalf("response bytes = %x", got)
	}
	if buf[5] != 9 {
		t.Fatalf("list key = %d", buf[5])
	}
	if buf[6] != 'u' || buf[6+UserNameMaxLen] != 'c' || buf[6+UserNameMaxLen+ChannelNameMaxLen] != 't' {
		t.Fatalf("payload offsets wrong")
	}
}

func TestEncodeTruncatesOverlongFields(t *testing.T) {
	m := &Message{Type: TypeJoin, User: strings.Repeat("n", 40), Channel: "c"}
	got, err := Decode(Encode(m))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.User != strings.Repeat("n", UserNameMaxLen) {
		t.Fatalf("user = %q", got.User)
	}
}

func TestReadWrite(t *testing.T) {
	var stream bytes.Buffer
	first := &Message{Type: TypeJoin, User: "alice", Channel: "general"}
	second := &Message{Type: TypeChat, User: "alice", Channel: "general", Text: "hi"}

	if err := Write(&stream, first); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(&stream, second); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, want := range []*Message{first, second} {
		got, err := Read(&stream)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if *got != *want {
			t.Fatalf("got %+v, want %+v", *got, *want)
		}
	}

	if _, err := Read(&stream); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}

	stream.Write(make([]byte, Size/2))
	if _, err := Read(&stream); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated on partial envelope, got %v", err)
	}
}

func TestResponseString(t *testing.T) {
	if got := (RespListDone | RespSuccess).String(); got != "SUCCESS|LIST_DONE" {
		t.Fatalf("got %q", got)
	}
	if got := RespInvalid.String(); got != "INVALID" {
		t.Fatalf("got %q", got)
	}
	if got := Response(1 << 30).String(); got != "UNKNOWN" {
		t.Fatalf("got %q", got)
	}
	if !(RespListDone | RespSuccess).Has(RespListDone) {
		t.Fatal("Has(ListDone) = false")
	}
	if RespSuccess.Has(RespInvalid) {
		t.Fatal("Has(0) must be false")
	}
}

func TestTypeString(t *testing.T) {
	if TypeListUsers.String() != "LIST_USERS" {
		t.Fatalf("got %q", TypeListUsers.String())
	}
	if Type(42).String() != "UNKNOWN" || Type(42).Known() {
		t.Fatal("type 42 must be unknown")
	}
	if TypeInvalid.Known() {
		t.Fatal("TypeInvalid must not be Known")
	}
}
