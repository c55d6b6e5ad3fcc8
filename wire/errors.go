package wire

import (
	"errors"
	"fmt"
)

// Frame-level errors. These never produce a wire reply; the framer drops
// the frame and (for a stream framer) falls back to resync.
var (
	ErrTooShort      = errors.New("wire: message shorter than 14 bytes")
	ErrTooLong       = errors.New("wire: message longer than 1024 bytes")
	ErrBadTerminator = errors.New("wire: terminator mismatch")
	ErrBadLength     = errors.New("wire: header length field does not match frame size")
	ErrUnknownClass  = errors.New("wire: command code class not recognised")
)

// Reason is the numeric detail carried by LinkCommandUnsupported and
// CallCommandUnsupported replies.
type Reason uint8

const (
	ReasonCommandCodeUnsupported Reason = 1
	ReasonInvalidFieldValue      Reason = 2
	ReasonTaskNotRunning         Reason = 3
)

func (r Reason) String() string {
	switch r {
	case ReasonCommandCodeUnsupported:
		return "COMMAND_CODE_UNSUPPORTED"
	case ReasonInvalidFieldValue:
		return "INVALID_FIELD_VALUE"
	case ReasonTaskNotRunning:
		return "TASK_NOT_RUNNING"
	default:
		return fmt.Sprintf("reason(%d)", uint8(r))
	}
}

// DecodeError is raised for a recognised command class whose payload fails
// message-specific validation, or whose command code is of a known class
// but not registered. It knows how to synthesise the matching wire reply.
type DecodeError struct {
	Code   CommandCode // offending (or attempted) command code
	Reason Reason
	Detail uint16 // optional numeric detail, meaning depends on Reason

	// Dest/Orig are the task ids from the offending frame, preserved so
	// a reply can be addressed back with them swapped. Reply ignores them
	// for link-class errors and addresses the reply with TaskIDUnused.
	Dest, Orig uint32

	class Class
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: %s: %s (%#04x, detail=%d)", e.Code, e.Reason, uint16(e.Code), e.Detail)
}

// Reply synthesises the LinkCommandUnsupported or CallCommandUnsupported
// message that should be sent back to the peer for this error, with the
// task ids swapped (destination becomes origination and vice versa). ok is
// false when the error's class is unknown, per §7: an unknown command class
// is dropped silently, with no reply.
func (e *DecodeError) Reply() (msg Message, ok bool) {
	switch e.class {
	case LinkClass:
		return Message{
			Dest: TaskIDUnused,
			Orig: TaskIDUnused,
			Body: &LinkCommandUnsupportedMsg{
				NestedCode: e.Code,
				Reason:     e.Reason,
				Detail:     e.Detail,
			},
		}, true
	case CallClass:
		return Message{
			Dest: e.Orig,
			Orig: e.Dest,
			Body: &CallCommandUnsupportedMsg{
				NestedCode: e.Code,
				Reason:     e.Reason,
				Detail:     e.Detail,
			},
		}, true
	default:
		return Message{}, false
	}
}
