package wire

import (
	"errors"
	"testing"
)

func roundTrip(t *testing.T, m Message) Message {
	t.Helper()
	frame, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(frame) < MinFrameLen || len(frame) > MaxFrameLen {
		t.Fatalf("frame length %d out of [%d,%d]", len(frame), MinFrameLen, MaxFrameLen)
	}
	got, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripHeartbeat(t *testing.T) {
	in := Message{Dest: TaskIDUnused, Orig: TaskIDUnused, Body: HeartbeatMsg{}}
	got := roundTrip(t, in)
	if got.Dest != in.Dest || got.Orig != in.Orig {
		t.Fatalf("task ids mismatch: got %+v want %+v", got, in)
	}
	if _, ok := got.Body.(HeartbeatMsg); !ok {
		t.Fatalf("got body type %T", got.Body)
	}
}

func TestRoundTripStatusResponse(t *testing.T) {
	in := Message{
		Dest: TaskIDUnused, Orig: TaskIDUnused,
		Body: StatusResponseMsg{ActiveCalls: 42, UnitName: "scp-a"},
	}
	got := roundTrip(t, in)
	body, ok := got.Body.(StatusResponseMsg)
	if !ok {
		t.Fatalf("got body type %T", got.Body)
	}
	if body.ActiveCalls != 42 || body.UnitName != "scp-a" {
		t.Fatalf("got %+v", body)
	}
}

func TestRoundTripInitialDPShortForm(t *testing.T) {
	in := Message{
		Dest: 7, Orig: 9,
		Body: InitialDPMsg{initialDPCore{
			CallingParty: PhoneNumber{Digits: "447700900123"},
			CalledParty:  PhoneNumber{Digits: "1000"},
		}},
	}
	got := roundTrip(t, in)
	body, ok := got.Body.(InitialDPMsg)
	if !ok {
		t.Fatalf("got body type %T", got.Body)
	}
	if body.Redirecting != nil {
		t.Fatalf("expected no redirecting block, got %+v", body.Redirecting)
	}
	if body.CallingParty.Digits != "447700900123" || body.CalledParty.Digits != "1000" {
		t.Fatalf("got %+v", body)
	}
}

func TestRoundTripInitialDPWithRedirecting(t *testing.T) {
	in := Message{
		Dest: 7, Orig: 9,
		Body: InitialDPMsg{initialDPCore{
			CallingParty: PhoneNumber{Digits: "447700900123"},
			CalledParty:  PhoneNumber{Digits: "1000"},
			Redirecting: &RedirectingNumber{
				PresentationScreening: 1,
				TypeOfNumberPlan:      2,
				Number:                PhoneNumber{Digits: "1001"},
			},
		}},
	}
	got := roundTrip(t, in)
	body := got.Body.(InitialDPMsg)
	if body.Redirecting == nil {
		t.Fatalf("expected redirecting block")
	}
	if body.Redirecting.Number.Digits != "1001" {
		t.Fatalf("got %+v", body.Redirecting)
	}
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode(make([]byte, MinFrameLen-1))
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("got %v, want ErrTooShort", err)
	}
}

func TestDecodeBadTerminator(t *testing.T) {
	frame, err := Encode(Message{Dest: TaskIDUnused, Orig: TaskIDUnused, Body: HeartbeatMsg{}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	frame[len(frame)-1] ^= 0xff
	_, err = Decode(frame)
	if !errors.Is(err, ErrBadTerminator) {
		t.Fatalf("got %v, want ErrBadTerminator", err)
	}
}

func TestDecodeUnknownCallCommand(t *testing.T) {
	frame, err := Encode(Message{Dest: 1, Orig: 2, Body: AbortMsg{Reason: AbortProtocolError}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// overwrite the command code with an unregistered call-class code
	frame[0], frame[1] = 0x10, 0xff

	_, err = Decode(frame)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %v (%T), want *DecodeError", err, err)
	}
	if de.Reason != ReasonCommandCodeUnsupported {
		t.Fatalf("got reason %v", de.Reason)
	}
	reply, ok := de.Reply()
	if !ok {
		t.Fatalf("expected a reply for call-class error")
	}
	body, ok := reply.Body.(*CallCommandUnsupportedMsg)
	if !ok {
		t.Fatalf("reply body type %T", reply.Body)
	}
	if body.NestedCode != CommandCode(0x10ff) {
		t.Fatalf("got nested code %#04x", uint16(body.NestedCode))
	}
	// task ids must be swapped relative to the offending frame
	if reply.Dest != 2 || reply.Orig != 1 {
		t.Fatalf("got dest=%d orig=%d, want dest=2 orig=1", reply.Dest, reply.Orig)
	}
}

func TestDecodeTruncatedAbortIsFrameLevelError(t *testing.T) {
	// An Abort whose Reason byte is cut out without patching the header
	// is a frame-level failure (ErrBadLength), not a *DecodeError, so it
	// carries no reply at all.
	frame, err := Encode(Message{Dest: 1, Orig: 2, Body: AbortMsg{Reason: AbortTaskNotRunning}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// length field says one byte of payload; truncate the Reason byte to
	// corrupt the frame total length instead of spoofing the header.
	frame = append(frame[:len(frame)-3], frame[len(frame)-2:]...)
	_, err = Decode(frame)
	if !errors.Is(err, ErrBadLength) {
		t.Fatalf("got %v, want ErrBadLength", err)
	}
}

func TestLinkCommandUnsupportedReplyUsesSentinelTaskIDs(t *testing.T) {
	de := &DecodeError{Code: Heartbeat, Reason: ReasonInvalidFieldValue, class: LinkClass}
	reply, ok := de.Reply()
	if !ok {
		t.Fatalf("expected reply")
	}
	if reply.Dest != TaskIDUnused || reply.Orig != TaskIDUnused {
		t.Fatalf("got dest=%#x orig=%#x", reply.Dest, reply.Orig)
	}
}
