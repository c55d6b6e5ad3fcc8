package system

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/telsis/ocpclient/config"
	"github.com/telsis/ocpclient/link"
	"github.com/telsis/ocpclient/wire"
)

func info(role link.Role, clusterID byte) linkInfo {
	return linkInfo{snap: link.State{Role: role, ClusterID: clusterID}}
}

func TestComputeAggregateStateTruthTable(t *testing.T) {
	cases := []struct {
		name    string
		running bool
		infos   []linkInfo
		want    AggregateState
	}{
		{"not running", false, []linkInfo{info(link.RoleMaster, 0)}, Stopped},
		{"no links", true, nil, NoLinks},
		{"all disconnected", true, []linkInfo{info(link.RoleDisconnected, 0), info(link.RoleConnecting, 0)}, Connecting},
		{"single loadshare", true, []linkInfo{info(link.RoleLoadshare, 1)}, Loadsharing},
		{"loadshare consistent cluster", true, []linkInfo{info(link.RoleLoadshare, 1), info(link.RoleLoadshare, 1)}, Loadsharing},
		{"loadshare inconsistent cluster", true, []linkInfo{info(link.RoleLoadshare, 1), info(link.RoleLoadshare, 2)}, Inconsistent},
		{"master slave", true, []linkInfo{info(link.RoleMaster, 0xff), info(link.RoleSlave, 0xff)}, MasterSlave},
		{"missing master", true, []linkInfo{info(link.RoleSlave, 0xff), info(link.RoleSlave, 0xff)}, MissingMaster},
		{"two masters", true, []linkInfo{info(link.RoleMaster, 0xff), info(link.RoleMaster, 0xff)}, Inconsistent},
		{"mixed loadshare and master", true, []linkInfo{info(link.RoleMaster, 0xff), info(link.RoleLoadshare, 1)}, Inconsistent},
		{"one up one connecting", true, []linkInfo{info(link.RoleMaster, 0xff), info(link.RoleConnecting, 0)}, MasterSlave},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := computeAggregateState(c.running, c.infos)
			if got != c.want {
				t.Errorf("computeAggregateState() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestGetLinkMasterSlaveNeverFallsThroughToSlave(t *testing.T) {
	s := New(nil, nil, nil)
	masterLink := link.New(0, config.LinkConfig{}, "unit-a", nil, nil)
	slaveLink := link.New(1, config.LinkConfig{}, "unit-a", nil, nil)

	s.stateMu.Lock()
	s.state = MasterSlave
	s.preferred = nil // master link never became active; no fallback to slave
	s.stateMu.Unlock()
	s.linksMu.Lock()
	s.links[0] = masterLink
	s.links[1] = slaveLink
	s.linksMu.Unlock()

	if got := s.GetLink(nil); got != nil {
		t.Fatalf("GetLink() = %v, want nil (must not fall through to a slave)", got)
	}
}

func TestGetLinkExcludesTriedLinks(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	cfg := config.LinkConfig{
		RemoteAddress:     "127.0.0.1",
		RemotePort:        uint16(port),
		Timeout:           time.Hour,
		FixedHeartbeat:    time.Hour,
		InactiveHeartbeat: time.Hour,
	}
	l := link.New(0, cfg, "unit-a", nil, nil)
	l.Start()
	defer l.Shutdown()

	var serverConn net.Conn
	select {
	case serverConn = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("link never dialed the listener")
	}
	defer serverConn.Close()

	enableLink(t, serverConn, l, wire.MasterSlaveClusterID, wire.FlagMaster|wire.FlagUnitEnabled)

	s := New(nil, nil, nil)
	s.stateMu.Lock()
	s.state = MasterSlave
	s.preferred = l
	s.stateMu.Unlock()
	s.linksMu.Lock()
	s.links[0] = l
	s.linksMu.Unlock()

	if got := s.GetLink(nil); got != l {
		t.Fatalf("GetLink(nil) = %v, want the active master link", got)
	}
	if got := s.GetLink([]*link.Link{l}); got != nil {
		t.Fatalf("GetLink([l]) = %v, want nil once the only candidate has been tried", got)
	}
}

func enableLink(t *testing.T, conn net.Conn, l *link.Link, clusterID, flags byte) {
	t.Helper()
	b, err := wire.Encode(wire.Message{
		Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused,
		Body: wire.StatusRequestMsg{UnitID: 1, ClusterID: clusterID, Flags: flags},
	})
	if err != nil {
		t.Fatalf("encode status request: %v", err)
	}
	if _, err := conn.Write(b); err != nil {
		t.Fatalf("write status request: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		if l.Snapshot().UnitEnabled {
			return
		}
		select {
		case <-deadline:
			t.Fatal("link never became enabled")
		case <-time.After(time.Millisecond):
		}
	}
}
