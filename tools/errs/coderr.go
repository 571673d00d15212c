package errs

import (
	"errors"
	"fmt"
)

// Error codes for the client session core. The taxonomy follows how each
// failure is surfaced: transient fetches degrade silently, transport drops
// trigger reconnection, rejected commands reach the user, contract
// violations are logged and dropped.
const (
	NetworkError         = 10001 // transient REST failure
	TransportError       = 10002 // websocket drop / dial failure
	CommandRejectedError = 10003 // server refused a mutating command
	NotConnectedError    = 10004 // send attempted on a non-open transport
	UnauthorizedError    = 10005 // identity check failed
)

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e *CodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%d] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Msg, e.Detail)
}

// WithDetail returns a copy carrying extra context; the receiver is shared
// sentinel state and must not be mutated.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

func (e *CodeError) WrapMsg(msg string, kv ...any) error {
	detail := msg
	for i := 0; i+1 < len(kv); i += 2 {
		detail += fmt.Sprintf(", %v=%v", kv[i], kv[i+1])
	}
	return e.WithDetail(detail)
}

// Is matches by code so errors.Is works across WithDetail copies.
func (e *CodeError) Is(target error) bool {
	var ce *CodeError
	if !errors.As(target, &ce) {
		return false
	}
	return ce.Code == e.Code
}

var (
	ErrNetwork         = NewCodeError(NetworkError, "network request failed")
	ErrTransport       = NewCodeError(TransportError, "transport failure")
	ErrCommandRejected = NewCodeError(CommandRejectedError, "command rejected by server")
	ErrNotConnected    = NewCodeError(NotConnectedError, "transport is not open")
	ErrUnauthorized    = NewCodeError(UnauthorizedError, "identity check failed")
)
