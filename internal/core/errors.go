package core

import "errors"

// Error codes of the command surface. Precondition codes are produced
// locally before any platform call; *_FAILED codes carry the platform
// message verbatim and are never retried automatically.
const (
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeNotInitialized      = "NOT_INITIALIZED"
	CodeNoActiveCall        = "NO_ACTIVE_CALL"
	CodeInitializationError = "INITIALIZATION_ERROR"
	CodeCallStartFailed     = "CALL_START_FAILED"
	CodeCallJoinFailed      = "CALL_JOIN_FAILED"
	CodeHangupFailed        = "HANGUP_FAILED"
	CodeMuteFailed          = "MUTE_FAILED"
	CodeUnmuteFailed        = "UNMUTE_FAILED"
	CodeVideoUnavailable    = "VIDEO_UNAVAILABLE"
	CodeVideoStartFailed    = "VIDEO_START_FAILED"
	CodeVideoStopFailed     = "VIDEO_STOP_FAILED"
	CodeSwitchCameraFailed  = "SWITCH_CAMERA_FAILED"
	CodeCreateThreadFailed  = "CREATE_THREAD_FAILED"
	CodeJoinThreadFailed    = "JOIN_THREAD_FAILED"
	CodeSendMessageFailed   = "SEND_MESSAGE_FAILED"
	CodeGetMessagesFailed   = "GET_MESSAGES_FAILED"
	CodeTypingFailed        = "TYPING_NOTIFICATION_FAILED"
	CodeNotImplemented      = "NOT_IMPLEMENTED"
	CodeUnknownCommand      = "UNKNOWN_COMMAND"
)

// Error is the structured (code, message) pair every command failure
// resolves to.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches a code to a platform error, keeping its text verbatim.
func WrapError(code string, err error) *Error {
	return &Error{Code: code, Message: err.Error()}
}

// CodeOf extracts the code from err, or empty if err is not a coded error.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
