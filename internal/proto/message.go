// Package proto defines the fixed-size binary envelope exchanged between
// pdxirc clients and the server.
package proto

// Field limits in bytes, terminator included.
const (
	UserNameMaxLen    = 16
	PasswordMaxLen    = 16
	ChannelNameMaxLen = 32
	ChatTextMaxLen    = 256
)

// Envelope layout. Every message occupies exactly Size bytes on the wire.
const (
	headerSize  = 1 + 4 + 1
	payloadSize = UserNameMaxLen + ChannelNameMaxLen + ChatTextMaxLen

	// Size is the length of one encoded envelope.
	Size = headerSize + payloadSize
)

// Type identifies the payload carried by an envelope. The values above
// TypeListUsers, up to 255, are reserved.
type Type uint8

const (
	TypeInvalid      Type = 0
	TypeError        Type = 1
	TypeLogin        Type = 2
	TypeJoin         Type = 3
	TypeLeave        Type = 4
	TypeChat         Type = 5
	TypeListChannels Type = 6
	TypeListUsers    Type = 7
)

// Response is a bitmask of result flags. Bits are independent and may combine.
type Response uint32

const (
	RespInvalid                Response = 0
	RespSuccess                Response = 1 << 0
	RespInvalidLogin           Response = 1 << 1
	RespInvalidChannelName     Response = 1 << 2
	RespNotInChannel           Response = 1 << 3
	RespAlreadyInChannel       Response = 1 << 4
	RespServerHasNoChannels    Response = 1 << 5
	RespCannotGetUsers         Response = 1 << 6
	RespRecvMsgFailed          Response = 1 << 7
	RespMemoryAlloc            Response = 1 << 8
	RespCannotAddChannel       Response = 1 << 9
	RespCannotAddUserToChannel Response = 1 << 10
	RespStillChannelsRemaining Response = 1 << 11
	RespDoneSendingChannels    Response = 1 << 12
	RespListInProgress         Response = 1 << 13
	RespListDone               Response = 1 << 14
	RespCannotFindChannel      Response = 1 << 15
	RespCannotListChannels     Response = 1 << 16
)

// Has reports whether every bit of flag is set in r.
func (r Response) Has(flag Response) bool {
	return flag != 0 && r&flag == flag
}

// Message is the decoded form of one envelope. Which string fields are
// meaningful depends on Type:
//
//	LOGIN                          User, Password
//	JOIN, LEAVE, LIST_*            User, Channel
//	CHAT                           User, Channel, Text
type Message struct {
	Type     Type
	Response Response
	ListKey  uint8

	User     string
	Password string
	Channel  string
	Text     string
}

// Reply builds a response to m carrying the same type, user and channel.
func (m *Message) Reply(resp Response) *Message {
	return &Message{
		Type:     m.Type,
		Response: resp,
		User:     m.User,
		Channel:  m.Channel,
	}
}

// IsList reports whether t starts a list-streaming exchange.
func (t Type) IsList() bool {
	return t == TypeListChannels || t == TypeListUsers
}
