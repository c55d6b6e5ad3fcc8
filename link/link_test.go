package link

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/telsis/ocpclient/config"
	"github.com/telsis/ocpclient/frame"
	"github.com/telsis/ocpclient/wire"
)

func testLinkConfig() config.LinkConfig {
	lc := config.LinkConfig{}
	lc.FixedHeartbeat = time.Hour
	lc.InactiveHeartbeat = time.Hour
	lc.Timeout = 2 * time.Second
	lc.RemoteAddress = "198.51.100.7"
	lc.RemotePort = 10012
	return lc
}

func readFrame(t *testing.T, r *bufio.Reader) wire.Message {
	t.Helper()
	fr := frame.New()
	for {
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		raw, _ := fr.Feed(b)
		if raw == nil {
			continue
		}
		msg, err := wire.Decode(raw)
		if err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return msg
	}
}

func writeFrame(t *testing.T, w net.Conn, msg wire.Message) {
	t.Helper()
	b, err := wire.Encode(msg)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	if _, err := w.Write(b); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func newPipedLink(t *testing.T) (*Link, net.Conn, *bufio.Reader, chan bool) {
	t.Helper()
	cfg := testLinkConfig()
	l := New(0, cfg, "unit-a", nil, nil)
	clientConn, serverConn := net.Pipe()
	done := make(chan bool, 1)
	go func() { done <- l.runConnected(serverConn, cfg) }()
	t.Cleanup(func() {
		l.Shutdown()
		clientConn.Close()
	})
	// runConnected clears the task-id registry on entry; wait for it to
	// reach CONNECTING so a handler the test registers is not wiped.
	waitConnecting(t, l)
	return l, clientConn, bufio.NewReader(clientConn), done
}

func waitConnecting(t *testing.T, l *Link) {
	t.Helper()
	deadline := time.After(time.Second)
	for l.Snapshot().Role != RoleConnecting {
		select {
		case <-deadline:
			t.Fatalf("link never reached CONNECTING")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStatusRequestGetsStatusResponse(t *testing.T) {
	_, clientConn, r, _ := newPipedLink(t)

	writeFrame(t, clientConn, wire.Message{
		Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused,
		Body: wire.StatusRequestMsg{UnitID: 42, ClusterID: wire.MasterSlaveClusterID, Flags: wire.FlagMaster | wire.FlagUnitEnabled},
	})

	msg := readFrame(t, r)
	resp, ok := msg.Body.(wire.StatusResponseMsg)
	if !ok {
		t.Fatalf("got %T, want StatusResponseMsg", msg.Body)
	}
	if resp.UnitName != "unit-a" {
		t.Errorf("unit name = %q, want unit-a", resp.UnitName)
	}
	if resp.ActiveCalls != 0 {
		t.Errorf("active calls = %d, want 0", resp.ActiveCalls)
	}
}

func TestStatusRequestUpdatesRole(t *testing.T) {
	l, clientConn, _, _ := newPipedLink(t)

	writeFrame(t, clientConn, wire.Message{
		Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused,
		Body: wire.StatusRequestMsg{UnitID: 7, ClusterID: wire.MasterSlaveClusterID, Flags: wire.FlagMaster | wire.FlagUnitEnabled},
	})

	deadline := time.After(time.Second)
	for {
		snap := l.Snapshot()
		if snap.Role == RoleMaster && snap.UnitEnabled {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("role never became MASTER/enabled, got %+v", snap)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestUnknownDestinationGetsAbortTaskNotRunning(t *testing.T) {
	_, clientConn, r, _ := newPipedLink(t)

	writeFrame(t, clientConn, wire.Message{
		Dest: 0xdeadbeef, Orig: 0x1,
		Body: wire.CallCleardownMsg{Cause: 1},
	})

	msg := readFrame(t, r)
	abort, ok := msg.Body.(wire.AbortMsg)
	if !ok {
		t.Fatalf("got %T, want AbortMsg", msg.Body)
	}
	if abort.Reason != wire.AbortTaskNotRunning {
		t.Errorf("reason = %#x, want AbortTaskNotRunning", abort.Reason)
	}
	if msg.Dest != 0x1 || msg.Orig != 0xdeadbeef {
		t.Errorf("task ids not swapped: dest=%#x orig=%#x", msg.Dest, msg.Orig)
	}
}

func TestAbortNeverLoopsOnAbort(t *testing.T) {
	_, clientConn, r, _ := newPipedLink(t)

	writeFrame(t, clientConn, wire.Message{
		Dest: 0xdeadbeef, Orig: 0x1,
		Body: wire.AbortMsg{Reason: wire.AbortTaskNotRunning},
	})

	// Provoke a second, distinguishable reply so we can bound the wait:
	// if the first Abort triggered a reply Abort, it would arrive before
	// this one.
	writeFrame(t, clientConn, wire.Message{
		Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused,
		Body: wire.StatusRequestMsg{UnitID: 1, ClusterID: 0, Flags: 0},
	})

	msg := readFrame(t, r)
	if _, ok := msg.Body.(wire.StatusResponseMsg); !ok {
		t.Fatalf("got %T first, want StatusResponseMsg (an Abort reply would mean looping)", msg.Body)
	}
}

func TestRegisteredHandlerReceivesMessage(t *testing.T) {
	l, clientConn, r, _ := newPipedLink(t)

	received := make(chan wire.Message, 1)
	l.RegisterHandler(0x99, HandlerFunc(func(msg wire.Message, origin *Link) {
		received <- msg
		origin.Enqueue(wire.Message{
			Dest: msg.Orig, Orig: msg.Dest,
			Body: wire.AnswerResultMsg{Result: 0},
		})
	}))

	writeFrame(t, clientConn, wire.Message{
		Dest: 0x99, Orig: 0x42,
		Body: wire.AnswerCallMsg{Zip: 0},
	})

	select {
	case msg := <-received:
		if msg.Dest != 0x99 {
			t.Errorf("handler saw dest %#x, want 0x99", msg.Dest)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}

	reply := readFrame(t, r)
	if _, ok := reply.Body.(wire.AnswerResultMsg); !ok {
		t.Fatalf("got %T, want AnswerResultMsg", reply.Body)
	}
	if reply.Dest != 0x42 {
		t.Errorf("reply dest = %#x, want 0x42", reply.Dest)
	}
}

func TestReconnectClearsTaskRegistry(t *testing.T) {
	cfg := testLinkConfig()
	l := New(0, cfg, "unit-a", nil, nil)

	clientConn1, serverConn1 := net.Pipe()
	done1 := make(chan bool, 1)
	go func() { done1 <- l.runConnected(serverConn1, cfg) }()
	waitConnecting(t, l)

	// registered against the first connection
	received := make(chan wire.Message, 1)
	l.RegisterHandler(0x99, HandlerFunc(func(msg wire.Message, origin *Link) {
		received <- msg
	}))

	clientConn1.Close() // force the first connection to fail
	<-done1

	clientConn2, serverConn2 := net.Pipe()
	done2 := make(chan bool, 1)
	go func() { done2 <- l.runConnected(serverConn2, cfg) }()
	t.Cleanup(func() {
		l.Shutdown()
		clientConn2.Close()
		<-done2
	})

	r := bufio.NewReader(clientConn2)
	writeFrame(t, clientConn2, wire.Message{
		Dest: 0x99, Orig: 0x42,
		Body: wire.AnswerCallMsg{Zip: 0},
	})

	msg := readFrame(t, r)
	abort, ok := msg.Body.(wire.AbortMsg)
	if !ok {
		t.Fatalf("got %T, want AbortMsg (a stale handler from the prior connection must not be resurrected)", msg.Body)
	}
	if abort.Reason != wire.AbortTaskNotRunning {
		t.Errorf("reason = %#x, want AbortTaskNotRunning", abort.Reason)
	}

	select {
	case <-received:
		t.Fatal("stale handler from prior connection was invoked after reconnect")
	default:
	}
}

func TestShutdownUnblocksLongReadDeadline(t *testing.T) {
	lc := testLinkConfig()
	lc.Timeout = time.Hour
	l := New(0, lc, "unit-a", nil, nil)
	_, serverConn := net.Pipe()
	done := make(chan bool, 1)
	go func() { done <- l.runConnected(serverConn, lc) }()

	start := time.Now()
	l.Shutdown()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("shutdown took %v, want well under the 1h read deadline", elapsed)
	}
	<-done
}

func TestHeartbeatFiresOnFixedInterval(t *testing.T) {
	lc := testLinkConfig()
	lc.FixedHeartbeat = 30 * time.Millisecond
	l := New(0, lc, "unit-a", nil, nil)
	clientConn, serverConn := net.Pipe()
	done := make(chan bool, 1)
	go func() { done <- l.runConnected(serverConn, lc) }()
	t.Cleanup(func() {
		l.Shutdown()
		clientConn.Close()
	})

	r := bufio.NewReader(clientConn)
	msg := readFrame(t, r)
	if _, ok := msg.Body.(wire.HeartbeatMsg); !ok {
		t.Fatalf("got %T, want HeartbeatMsg", msg.Body)
	}
}
