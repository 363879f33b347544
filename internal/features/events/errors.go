package events

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonUserError     Reason = "USER_ERROR"
	ReasonInternalError Reason = "INTERNAL_ERROR"
	ReasonNotSupported  Reason = "NOT_SUPPORTED"
)

// CommandError is the typed failure a handler returns. Anything else a handler
// returns is treated as an internal error.
type CommandError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

func InvalidArgs(format string, args ...any) *CommandError {
	return &CommandError{Reason: ReasonUserError, Message: fmt.Sprintf(format, args...)}
}

func NotSupported(format string, args ...any) *CommandError {
	return &CommandError{Reason: ReasonNotSupported, Message: fmt.Sprintf(format, args...)}
}

func Internal(cause error, format string, args ...any) *CommandError {
	return &CommandError{Reason: ReasonInternalError, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// AsCommandError classifies err, wrapping unknown errors as internal ones.
func AsCommandError(err error) *CommandError {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}
	return &CommandError{Reason: ReasonInternalError, Message: err.Error(), Cause: err}
}

type CommandFailedPayload struct {
	Reason      Reason `json:"reason"`
	Message     string `json:"message"`
	CommandType string `json:"commandType"`
}

func Failed(commandType string, err *CommandError) Event {
	return New(CommandFailed, CommandFailedPayload{
		Reason:      err.Reason,
		Message:     err.Message,
		CommandType: commandType,
	})
}
