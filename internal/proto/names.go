package proto

import "strings"

var typeNames = map[Type]string{
	TypeInvalid:      "INVALID",
	TypeError:        "ERROR",
	TypeLogin:        "LOGIN",
	TypeJoin:         "JOIN",
	TypeLeave:        "LEAVE",
	TypeChat:         "CHAT",
	TypeListChannels: "LIST_CHANNELS",
	TypeListUsers:    "LIST_USERS",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Known reports whether t is one of the defined message types.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok && t != TypeInvalid
}

var responseNames = []struct {
	flag Response
	name string
}{
	{RespSuccess, "SUCCESS"},
	{RespInvalidLogin, "INVALID_LOGIN"},
	{RespInvalidChannelName, "INVALID_CHANNEL_NAME"},
	{RespNotInChannel, "NOT_IN_CHANNEL"},
	{RespAlreadyInChannel, "ALREADY_IN_CHANNEL"},
	{RespServerHasNoChannels, "SERVER_HAS_NO_CHANNELS"},
	{RespCannotGetUsers, "CANNOT_GET_USERS"},
	{RespRecvMsgFailed, "RECV_MSG_FAILED"},
	{RespMemoryAlloc, "MEMORY_ALLOC"},
	{RespCannotAddChannel, "CANNOT_ADD_CHANNEL"},
	{RespCannotAddUserToChannel, "CANNOT_ADD_USER_TO_CHANNEL"},
	{RespStillChannelsRemaining, "STILL_CHANNELS_REMAINING"},
	{RespDoneSendingChannels, "DONE_SENDING_CHANNELS"},
	{RespListInProgress, "LIST_IN_PROGRESS"},
	{RespListDone, "LIST_DONE"},
	{RespCannotFindChannel, "CANNOT_FIND_CHANNEL"},
	{RespCannotListChannels, "CANNOT_LIST_CHANNELS"},
}

// String lists the set flags joined by "|", e.g. "LIST_DONE|SUCCESS".
func (r Response) String() string {
	if r == RespInvalid {
		return "INVALID"
	}

	var parts []string
	rest := r
	for _, rn := range responseNames {
		if r&rn.flag != 0 {
			parts = append(parts, rn.name)
			rest &^= rn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, "UNKNOWN")
	}
	return strings.Join(parts, "|")
}
