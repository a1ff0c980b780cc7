package core

import (
	"errors"

	"github.com/vovakirdan/pdxirc/internal/proto"
)

// Error codes for domain errors, used in logs and the operator API.
const (
	ErrCodeChannelNotFound   = "channel_not_found"
	ErrCodeAlreadyMember     = "already_member"
	ErrCodeNotMember         = "not_member"
	ErrCodeResourceExhausted = "resource_exhausted"
	ErrCodeInvalidUser       = "invalid_user"
	ErrCodeInvalidChannel    = "invalid_channel"
	ErrCodeStore             = "store_error"
)

var (
	ErrChannelNotFound   = errors.New("channel not found")
	ErrAlreadyMember     = errors.New("already a member")
	ErrNotMember         = errors.New("not a member")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrInvalidUser       = errors.New("invalid user name")
	ErrInvalidChannel    = errors.New("invalid channel name")
	ErrStore             = errors.New("channel store failure")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	err     error
}

func (e *CoreError) Error() string {
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.err
}

func coreError(code string, err error, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg, err: err}
}

// Code returns the domain error code for err, or "" when err is not a domain error.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrChannelNotFound):
		return ErrCodeChannelNotFound
	case errors.Is(err, ErrAlreadyMember):
		return ErrCodeAlreadyMember
	case errors.Is(err, ErrNotMember):
		return ErrCodeNotMember
	case errors.Is(err, ErrResourceExhausted):
		return ErrCodeResourceExhausted
	case errors.Is(err, ErrInvalidUser):
		return ErrCodeInvalidUser
	case errors.Is(err, ErrInvalidChannel):
		return ErrCodeInvalidChannel
	case errors.Is(err, ErrStore):
		return ErrCodeStore
	}
	return ""
}

// joinResponse maps a failure during JOIN to its response bits.
func joinResponse(err error, creatingChannel bool) proto.Response {
	switch {
	case errors.Is(err, ErrAlreadyMember):
		return proto.RespAlreadyInChannel
	case errors.Is(err, ErrResourceExhausted) && creatingChannel:
		return proto.RespMemoryAlloc | proto.RespCannotAddChannel
	case errors.Is(err, ErrResourceExhausted):
		return proto.RespMemoryAlloc | proto.RespCannotAddUserToChannel
	case errors.Is(err, ErrStore):
		return proto.RespCannotAddChannel
	default:
		return proto.RespCannotAddUserToChannel
	}
}
