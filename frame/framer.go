// Package frame implements the OCP byte-stream framer: a resynchronising
// state machine that turns a raw TCP byte stream into whole wire frames,
// tolerating mid-stream attach and corrupt frames without disconnecting.
package frame

import "encoding/binary"

// MaxFrameLen bounds the framer's accumulation buffer; it mirrors
// wire.MaxFrameLen without importing the wire package, keeping the
// framer a pure byte-oriented component.
const MaxFrameLen = 1024

// minFrameLen mirrors wire.MinFrameLen.
const minFrameLen = 14

// DefaultTimeout is the default inbound-byte idle threshold after which
// the owning link engine should force a reset. The framer itself does
// no I/O or timing; callers apply this as a read deadline.
const DefaultTimeout = 30

const (
	terminator0 byte = 0x55
	terminator1 byte = 0xaa
	headerLen        = 4
)

type state uint8

const (
	stateNoSync state = iota
	stateSecondEOMByte
	stateGetHeader
	stateGetBody
)

// Framer consumes bytes one at a time (via Feed) and yields whole frames.
// It is not safe for concurrent use; a link's RX task owns exactly one.
type Framer struct {
	state state
	buf   []byte
}

// New returns a Framer ready to receive the first byte of a fresh
// connection. The initial state is always NO_SYNC, defending against
// mid-stream attach.
func New() *Framer {
	return &Framer{state: stateNoSync}
}

// Reset returns the framer to its post-connect state, discarding any
// partially accumulated frame. Called on RESET per the link engine's
// outer state machine.
func (f *Framer) Reset() {
	f.state = stateNoSync
	f.buf = f.buf[:0]
}

// Feed processes one inbound byte. It returns a complete frame (the
// bytes from command code through terminator, inclusive) when one has
// just been recognised, and reports whether entering this byte caused a
// resync (useful for bad-frame counters upstream).
func (f *Framer) Feed(b byte) (frame []byte, resynced bool) {
	switch f.state {
	case stateNoSync:
		return f.feedNoSync(b)
	case stateSecondEOMByte:
		return f.feedSecondEOMByte(b)
	case stateGetHeader, stateGetBody:
		return f.feedStreaming(b)
	default:
		f.toNoSync()
		return nil, true
	}
}

func (f *Framer) toNoSync() {
	f.state = stateNoSync
	f.buf = f.buf[:0]
}

func (f *Framer) append(b byte) {
	if len(f.buf) >= MaxFrameLen {
		// Bound the accumulation buffer unconditionally (§8 invariant):
		// drop everything accumulated so far rather than grow further.
		f.buf = f.buf[:0]
	}
	f.buf = append(f.buf, b)
}

func (f *Framer) feedNoSync(b byte) (frame []byte, resynced bool) {
	f.append(b)
	if b == terminator0 {
		f.state = stateSecondEOMByte
	}
	return nil, false
}

func (f *Framer) feedSecondEOMByte(b byte) (frame []byte, resynced bool) {
	f.append(b)
	if b != terminator1 {
		// Not a real terminator; the byte just appended might itself
		// begin a new candidate (e.g. "...0x55 0x55 0xAA").
		if b == terminator0 {
			f.state = stateSecondEOMByte
		} else {
			f.state = stateNoSync
		}
		return nil, false
	}

	idx, ok := matchLength(f.buf)
	if !ok {
		// No self-consistent framing found anywhere in the accumulated
		// buffer; keep scanning from NO_SYNC.
		f.toNoSync()
		return nil, true
	}

	out := make([]byte, len(f.buf)-idx+2)
	copy(out, f.buf[idx-2:])
	f.buf = f.buf[:0]
	f.state = stateGetHeader
	return out, true
}

// matchLength searches every offset in buf (which ends with the
// terminator bytes just observed) for a 2-byte length field whose value
// equals the trailing byte count, such that the implied framing is
// self-consistent. It returns the index of the length field's first
// byte on the first such match.
func matchLength(buf []byte) (idx int, ok bool) {
	n := len(buf)
	for i := 2; i+2 <= n; i++ {
		trailing := n - (i + 2)
		if trailing < minFrameLen-headerLen {
			continue
		}
		declared := int(binary.BigEndian.Uint16(buf[i : i+2]))
		if declared == trailing {
			return i, true
		}
	}
	return 0, false
}

func (f *Framer) feedStreaming(b byte) (frame []byte, resynced bool) {
	f.append(b)

	switch {
	case len(f.buf) < headerLen:
		return nil, false

	case len(f.buf) == headerLen:
		length := int(binary.BigEndian.Uint16(f.buf[2:4]))
		total := headerLen + length
		if length < minFrameLen-headerLen || total > MaxFrameLen {
			f.toNoSync()
			return nil, true
		}
		f.state = stateGetBody
		return nil, false

	default:
		length := int(binary.BigEndian.Uint16(f.buf[2:4]))
		total := headerLen + length
		if len(f.buf) < total {
			return nil, false
		}
		if f.buf[total-2] != terminator0 || f.buf[total-1] != terminator1 {
			f.toNoSync()
			return nil, true
		}
		out := make([]byte, total)
		copy(out, f.buf[:total])
		f.buf = f.buf[:0]
		f.state = stateGetHeader
		return out, false
	}
}
