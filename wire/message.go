package wire

import "encoding/binary"

// TaskIDUnused is the sentinel destination/origination task id carried by
// link-class messages, which do not address a specific call.
const TaskIDUnused uint32 = 0xffffffff

// ManagementTaskID is the reserved task id for out-of-band call-class
// traffic that is not tied to a specific call (see
// link.Link.RegisterManagementHandler).
const ManagementTaskID uint32 = 0xffffffff

const (
	terminator0 byte = 0x55
	terminator1 byte = 0xaa

	// headerLen is the command-code + length-field prefix, not covered
	// by the length field itself.
	headerLen = 4
	// taskPairLen is the destination+origination task id pair.
	taskPairLen = 8

	// MinFrameLen is the smallest legal total frame size.
	MinFrameLen = 14
	// MaxFrameLen is the largest legal total frame size.
	MaxFrameLen = 1024
)

// Body is a decoded, typed message payload. Every message type in the
// catalogue implements this by way of registering an encoder/decoder pair
// in the command code registry (see code.go).
type Body interface {
	// Code returns the command code this body is encoded/decoded under.
	Code() CommandCode
	// Marshal appends the wire encoding of the payload (the bytes
	// between the task pair and the terminator) to buf.
	Marshal(buf []byte) ([]byte, error)
}

// Message is a fully decoded OCP frame: header, task pair, and typed body.
type Message struct {
	Dest uint32
	Orig uint32
	Body Body
}

// Code returns the command code of the message's body.
func (m Message) Code() CommandCode { return m.Body.Code() }

// Encode renders m as a complete wire frame, including header, task pair
// and terminator, with the length field back-patched.
func Encode(m Message) ([]byte, error) {
	buf := make([]byte, headerLen, 64)
	binary.BigEndian.PutUint16(buf[0:2], uint16(m.Body.Code()))
	// buf[2:4] length placeholder, patched below

	buf = binary.BigEndian.AppendUint32(buf, m.Dest)
	buf = binary.BigEndian.AppendUint32(buf, m.Orig)

	buf, err := m.Body.Marshal(buf)
	if err != nil {
		return nil, err
	}
	buf = append(buf, terminator0, terminator1)

	total := len(buf)
	if total > MaxFrameLen {
		return nil, ErrTooLong
	}
	length := total - headerLen
	binary.BigEndian.PutUint16(buf[2:4], uint16(length))
	return buf, nil
}

// Decode parses a single complete wire frame. b must contain exactly one
// frame, starting at the command code and ending after the terminator
// (this is what the framer in package frame hands the codec).
//
// A *DecodeError is returned for a recognised class whose payload or
// command code fails validation; such an error knows how to synthesise
// the wire-level reply via its Reply method. Any other error (ErrTooShort,
// ErrTooLong, ErrBadLength, ErrBadTerminator) is a frame-level failure with
// no reply — the caller should drop the frame and, for a stream framer,
// fall back to resync.
func Decode(b []byte) (Message, error) {
	if len(b) < MinFrameLen {
		return Message{}, ErrTooShort
	}
	if len(b) > MaxFrameLen {
		return Message{}, ErrTooLong
	}

	length := int(binary.BigEndian.Uint16(b[2:4]))
	if length != len(b)-headerLen {
		return Message{}, ErrBadLength
	}
	if b[len(b)-2] != terminator0 || b[len(b)-1] != terminator1 {
		return Message{}, ErrBadTerminator
	}

	code := CommandCode(binary.BigEndian.Uint16(b[0:2]))
	dest := binary.BigEndian.Uint32(b[4:8])
	orig := binary.BigEndian.Uint32(b[8:12])
	payload := b[12 : len(b)-2]

	class := code.Class()
	if class == UnknownClass {
		return Message{}, ErrUnknownClass
	}

	entry, ok := registry[code]
	if !ok {
		return Message{}, &DecodeError{
			Code: code, Reason: ReasonCommandCodeUnsupported,
			Dest: dest, Orig: orig, class: class,
		}
	}

	body, err := entry.decode(payload)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Dest, de.Orig, de.class = dest, orig, class
			return Message{}, de
		}
		return Message{}, &DecodeError{
			Code: code, Reason: ReasonInvalidFieldValue,
			Dest: dest, Orig: orig, class: class,
		}
	}

	return Message{Dest: dest, Orig: orig, Body: body}, nil
}
