package proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when fewer than Size bytes are available.
var ErrTruncated = errors.New("proto: truncated envelope")

// Integers are little-endian on the wire.
var byteOrder = binary.LittleEndian

// Payload offsets, relative to the start of the envelope.
const (
	offType     = 0
	offResponse = 1
	offListKey  = 5
	offUser     = headerSize
	offPassword = offUser + UserNameMaxLen
	offChannel  = offUser + UserNameMaxLen
	offText     = offChannel + ChannelNameMaxLen
)

// Encode renders m into a new Size-byte buffer. String fields longer than
// their slot are cut at the slot length; shorter ones are NUL-padded.
func Encode(m *Message) []byte {
	buf := make([]byte, Size)
	EncodeTo(buf, m)
	return buf
}

// EncodeTo renders m into buf, which must hold at least Size bytes.
func EncodeTo(buf []byte, m *Message) {
	buf = buf[:Size]
	clear(buf)

	buf[offType] = byte(m.Type)
	byteOrder.PutUint32(buf[offResponse:], uint32(m.Response))
	buf[offListKey] = m.ListKey

	switch m.Type {
	case TypeLogin:
		putString(buf[offUser:offUser+UserNameMaxLen], m.User)
		putString(buf[offPassword:offPassword+PasswordMaxLen], m.Password)
	case TypeJoin, TypeLeave, TypeListChannels, TypeListUsers:
		putString(buf[offUser:offUser+UserNameMaxLen], m.User)
		putString(buf[offChannel:offChannel+ChannelNameMaxLen], m.Channel)
	case TypeChat:
		putString(buf[offUser:offUser+UserNameMaxLen], m.User)
		putString(buf[offChannel:offChannel+ChannelNameMaxLen], m.Channel)
		putString(buf[offText:offText+ChatTextMaxLen], m.Text)
	}
}

// Decode parses one envelope from the first Size bytes of buf.
// Field contents are not validated.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < Size {
		return nil, fmt.Errorf("%w: have %d of %d bytes", ErrTruncated, len(buf), Size)
	}

	m := &Message{
		Type:     Type(buf[offType]),
		Response: Response(byteOrder.Uint32(buf[offResponse:])),
		ListKey:  buf[offListKey],
	}

	switch m.Type {
	case TypeLogin:
		m.User = getString(buf[offUser : offUser+UserNameMaxLen])
		m.Password = getString(buf[offPassword : offPassword+PasswordMaxLen])
	case TypeJoin, TypeLeave, TypeListChannels, TypeListUsers:
		m.User = getString(buf[offUser : offUser+UserNameMaxLen])
		m.Channel = getString(buf[offChannel : offChannel+ChannelNameMaxLen])
	case TypeChat:
		m.User = getString(buf[offUser : offUser+UserNameMaxLen])
		m.Channel = getString(buf[offChannel : offChannel+ChannelNameMaxLen])
		m.Text = getString(buf[offText : offText+ChatTextMaxLen])
	}

	return m, nil
}

// Read blocks until one whole envelope has been read from r.
// A stream that ends mid-envelope yields an error wrapping ErrTruncated.
func Read(r io.Reader) (*Message, error) {
	buf := make([]byte, Size)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: have %d of %d bytes", ErrTruncated, n, Size)
		}
		return nil, err
	}
	return Decode(buf)
}

// Write sends m to w as one envelope.
func Write(w io.Writer, m *Message) error {
	_, err := w.Write(Encode(m))
	return err
}

func putString(dst []byte, s string) {
	copy(dst, s)
}

func getString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}
