// Package link implements the per-link connection engine (C3), its
// link-class message state machine (C4), and the task-id registry (C6).
package link

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/telsis/ocpclient/collab"
	"github.com/telsis/ocpclient/config"
	"github.com/telsis/ocpclient/frame"
	"github.com/telsis/ocpclient/internal/logging"
	"github.com/telsis/ocpclient/wire"
)

// queueDepth bounds the transmit queue, per §4.3.
const queueDepth = 100

// dialBackoff is the pause between a failed connect and the next
// UNCONNECTED attempt.
const dialBackoff = 2 * time.Second

// Link owns one TCP connection to an SCP, its framer, its task-id
// registry, and the cached peer state the protocol's link-class
// messages maintain.
type Link struct {
	index int

	cfgMu    sync.RWMutex
	cfg      config.LinkConfig // guarded by cfgMu; see UpdateConfig
	unitName string

	stats    collab.Stats
	watchdog collab.Watchdog
	log      *slog.Logger

	reg *registry

	txQueue chan wire.Message

	mu    sync.RWMutex
	state State

	listenersMu sync.Mutex
	listeners   []func(State)

	connMu sync.Mutex
	conn   net.Conn // the live connection, if any; closed by Shutdown to unblock a deadline-bound Read

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a Link for the given configuration. Start must be
// called to begin connecting. Alarms are the system manager's
// responsibility (they reflect aggregate, not per-link, state); a Link
// only needs the Stats and Watchdog collaborators.
func New(index int, cfg config.LinkConfig, unitName string, stats collab.Stats, wd collab.Watchdog) *Link {
	if stats == nil {
		stats = collab.NullStats{}
	}
	if wd == nil {
		wd = collab.NullWatchdog{}
	}
	l := &Link{
		index:    index,
		cfg:      cfg,
		unitName: unitName,
		stats:    stats,
		watchdog: wd,
		log:      logging.ForLink(index, fmt.Sprintf("%s:%d", cfg.RemoteAddress, cfg.RemotePort)),
		reg:      newRegistry(),
		txQueue:  make(chan wire.Message, queueDepth),
		quit:     make(chan struct{}),
	}
	l.state = State{Role: RoleDisconnected}
	l.stats.RegisterStat(l.statName("connectAttempts"), true)
	l.stats.RegisterStat(l.statName("badFrames"), true)
	return l
}

func (l *Link) statName(suffix string) string {
	return fmt.Sprintf("link%d.%s", l.index, suffix)
}

// Index returns the link's configured position (0 or 1).
func (l *Link) Index() int { return l.index }

// currentCfg returns a snapshot of the link's configuration. A new
// connection picks up any pending UpdateConfig at dial time; the
// running connection's heartbeat/timeout values are fixed for its
// lifetime, so a non-endpoint config update (reload's PlanUpdate) takes
// effect at the next reconnect rather than disturbing live timers.
func (l *Link) currentCfg() config.LinkConfig {
	l.cfgMu.RLock()
	defer l.cfgMu.RUnlock()
	return l.cfg
}

// UpdateConfig replaces the link's configuration for its next
// connection attempt. The caller is responsible for only using this
// for a non-endpoint change (config.PlanUpdate); an endpoint change
// requires recreating the Link.
func (l *Link) UpdateConfig(cfg config.LinkConfig) {
	l.cfgMu.Lock()
	l.cfg = cfg
	l.cfgMu.Unlock()
}

// Snapshot returns a copy of the link's current cached state.
func (l *Link) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// AddListener registers a callback invoked with the new State after any
// change. Callbacks are invoked under copy-on-notify: the listener list
// is snapshotted before iterating, so a listener may safely call back
// into the link (e.g. Enqueue) without deadlock.
func (l *Link) AddListener(fn func(State)) {
	l.listenersMu.Lock()
	defer l.listenersMu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Link) notify() {
	snap := l.Snapshot()
	l.listenersMu.Lock()
	cbs := make([]func(State), len(l.listeners))
	copy(cbs, l.listeners)
	l.listenersMu.Unlock()
	for _, cb := range cbs {
		cb(snap)
	}
}

func (l *Link) mutate(fn func(*State)) {
	l.mu.Lock()
	fn(&l.state)
	l.state.LastStateChange = time.Now()
	l.mu.Unlock()
	l.notify()
}

// touchActivity stamps the last-inbound-traffic timestamp without
// treating every message as a state transition: it skips the listener
// notification mutate otherwise performs, so a busy link's hot path
// never runs every registered listener per frame.
func (l *Link) touchActivity() {
	l.mu.Lock()
	l.state.LastActivity = time.Now()
	l.mu.Unlock()
}

// RegisterHandler installs h for taskID, overwriting any previous
// registration.
func (l *Link) RegisterHandler(taskID uint32, h Handler) { l.reg.register(taskID, h) }

// DeregisterHandler removes any handler registered for taskID.
func (l *Link) DeregisterHandler(taskID uint32) { l.reg.deregister(taskID) }

// RegisterManagementHandler installs h in the dedicated management slot
// (task id 0xFFFFFFFF), bypassing the task-id map.
func (l *Link) RegisterManagementHandler(h Handler) { l.reg.registerManagement(h) }

// Enqueue places msg on the transmit queue, blocking while the queue is
// full (back-pressure to the caller) or returning early if the link is
// shutting down.
func (l *Link) Enqueue(msg wire.Message) error {
	select {
	case l.txQueue <- msg:
		return nil
	case <-l.quit:
		return errLinkShutdown
	}
}

// Start begins the RX outer state machine in its own goroutine. Safe to
// call once per Link.
func (l *Link) Start() {
	l.wg.Add(1)
	go l.runRX()
}

// Shutdown cooperatively stops both tasks and waits for them to exit. It
// closes any live connection directly, so a read blocked on a long
// configured timeout does not delay shutdown.
func (l *Link) Shutdown() {
	l.quitOnce.Do(func() { close(l.quit) })
	l.connMu.Lock()
	if l.conn != nil {
		l.conn.Close()
	}
	l.connMu.Unlock()
	l.wg.Wait()
}

func (l *Link) setConn(c net.Conn) {
	l.connMu.Lock()
	l.conn = c
	l.connMu.Unlock()
}

// runRX drives the outer RESET → UNCONNECTED → CONNECTING → CONNECTED →
// framing-loop state machine (§4.3).
func (l *Link) runRX() {
	defer l.wg.Done()

	for {
		select {
		case <-l.quit:
			l.reset()
			return
		default:
		}

		l.reset()

		select {
		case <-l.quit:
			return
		default:
		}

		l.stats.ConnectAttempt(l.index)
		conn, cfg, err := l.dial()
		if err != nil {
			l.mutate(func(s *State) { s.ConnectAttempts++ })
			l.stats.IncrementStat(l.statName("connectAttempts"))
			l.log.Warn("dial_failed", "error", err)
			select {
			case <-time.After(dialBackoff):
			case <-l.quit:
				return
			}
			continue
		}

		if !l.runConnected(conn, cfg) {
			return
		}
	}
}

func (l *Link) dial() (net.Conn, config.LinkConfig, error) {
	cfg := l.currentCfg()
	var dialer net.Dialer
	if cfg.LocalAddress != "" || cfg.LocalPort != 0 {
		dialer.LocalAddr = &net.TCPAddr{
			IP:   net.ParseIP(cfg.LocalAddress),
			Port: int(cfg.LocalPort),
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	go func() {
		select {
		case <-l.quit:
			cancel()
		case <-ctx.Done():
		}
	}()
	l.mutate(func(s *State) { s.Role = RoleConnecting })
	remote := fmt.Sprintf("%s:%d", cfg.RemoteAddress, cfg.RemotePort)
	conn, err := dialer.DialContext(ctx, "tcp", remote)
	return conn, cfg, err
}

// runConnected drives the CONNECTED state: spawns TX, runs the framing
// loop until the connection fails, then returns to let runRX loop back
// to RESET. The boolean result is false when the loop sees the quit
// signal before a read; a read unblocked by Shutdown closing the
// connection returns true, and runRX then sees the quit signal itself.
// cfg is the configuration snapshot taken at dial time, fixed for the
// lifetime of this connection.
func (l *Link) runConnected(conn net.Conn, cfg config.LinkConfig) bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.setConn(conn)
	defer func() {
		conn.Close()
		l.setConn(nil)
	}()

	// A fresh connection starts with a clean task-id registry: a handler
	// registered against the prior TCP session must not be resurrected
	// and wrongly matched against a same-numbered task id here.
	l.reg.clear()

	l.mutate(func(s *State) {
		s.Role = RoleConnecting
		s.UnitEnabled = false
		s.ConnectAttempts = 0
		s.ActiveCalls = 0
	})

	l.wg.Add(1)
	go func() {
		l.runTX(ctx, conn, cfg)
		// TX has stopped (write failure, cancel or shutdown): make RX
		// leave its blocking read and return to RESET.
		cancel()
		conn.Close()
	}()

	fr := frame.New()
	buf := make([]byte, 1)

	for {
		select {
		case <-l.quit:
			cancel()
			return false
		case <-ctx.Done():
			return true
		default:
		}

		conn.SetReadDeadline(time.Now().Add(cfg.Timeout))
		n, err := conn.Read(buf)
		l.watchdog.Pat()
		if err != nil {
			l.log.Warn("rx_error", "error", err)
			cancel()
			return true
		}
		if n == 0 {
			continue
		}

		msg, decodeErr, resynced := feedDecode(fr, buf[0])
		if resynced {
			l.mutate(func(s *State) { s.BadFrameCount++ })
			l.stats.IncrementStat(l.statName("badFrames"))
		}
		if decodeErr != nil {
			l.handleDecodeError(decodeErr)
			continue
		}
		if msg == nil {
			continue
		}

		l.stats.FrameDecoded(l.index)
		l.touchActivity()
		l.dispatch(*msg)
	}
}

// feedDecode feeds one byte to fr and, once a whole frame has been
// recognised, decodes it.
func feedDecode(fr *frame.Framer, b byte) (msg *wire.Message, decodeErr error, resynced bool) {
	raw, r := fr.Feed(b)
	if raw == nil {
		return nil, nil, r
	}
	m, err := wire.Decode(raw)
	if err != nil {
		return nil, err, r
	}
	return &m, nil, r
}

func (l *Link) handleDecodeError(err error) {
	de, ok := err.(*wire.DecodeError)
	if !ok {
		// Frame-level failure (bad length/terminator/short/long):
		// already reflected in the framer's resync; no reply.
		l.stats.DecodeError(l.index, "frame")
		return
	}
	l.stats.DecodeError(l.index, de.Reason.String())
	if reply, ok := de.Reply(); ok {
		if enqErr := l.Enqueue(reply); enqErr != nil {
			l.log.Warn("reply_enqueue_failed", "error", enqErr)
		}
	}
}

// reset returns the link to its post-connect defaults and notifies
// listeners that it is DISCONNECTED / not-enabled, per the data model's
// invariant (i): DISCONNECTED ⇒ not-enabled.
func (l *Link) reset() {
	l.mutate(func(s *State) {
		s.Role = RoleDisconnected
		s.UnitEnabled = false
		s.Gap = Gap{}
	})
}

var errLinkShutdown = fmt.Errorf("link: shutting down")

// heartbeatMsg builds a Heartbeat addressed with the link-class
// sentinel task ids.
func heartbeatMsg() wire.Message {
	return wire.Message{Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused, Body: wire.HeartbeatMsg{}}
}

// runTX drives the TX task: it writes queued and heartbeat messages to
// conn until ctx is cancelled (by RX, on any fatal error), a write fails,
// or the link is told to shut down. When it returns, runConnected cancels
// ctx and closes conn so RX returns to RESET.
func (l *Link) runTX(ctx context.Context, conn net.Conn, cfg config.LinkConfig) {
	defer l.wg.Done()

	fixed := time.NewTicker(cfg.FixedHeartbeat)
	defer fixed.Stop()
	idle := time.NewTimer(cfg.InactiveHeartbeat)
	defer idle.Stop()

	write := func(msg wire.Message) bool {
		b, err := wire.Encode(msg)
		if err != nil {
			l.log.Error("encode_failed", "error", err)
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(cfg.Timeout))
		if _, err := conn.Write(b); err != nil {
			l.log.Warn("tx_error", "error", err)
			return false
		}
		l.stats.FrameEncoded(l.index)
		idle.Reset(cfg.InactiveHeartbeat)
		return true
	}

	for {
		l.watchdog.Pat()

		// Heartbeats preempt queued traffic: check them first with a
		// non-blocking select before falling through to the general wait.
		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		case <-fixed.C:
			if !write(heartbeatMsg()) {
				return
			}
			continue
		case <-idle.C:
			if !write(heartbeatMsg()) {
				return
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-l.quit:
			return
		case <-fixed.C:
			if !write(heartbeatMsg()) {
				return
			}
		case <-idle.C:
			if !write(heartbeatMsg()) {
				return
			}
		case msg := <-l.txQueue:
			if !write(msg) {
				return
			}
		case <-time.After(time.Second):
			// 1s blocking poll, per §4.3, so the heartbeat timers are
			// re-checked even with an empty queue.
		}
	}
}

// dispatch routes a decoded message per §4.4: link-class messages are
// consumed internally, call-class messages go to the task-id registry.
func (l *Link) dispatch(msg wire.Message) {
	if msg.Code().Class() == wire.LinkClass {
		l.handleLinkMessage(msg)
		return
	}
	l.handleCallMessage(msg)
}

func (l *Link) handleCallMessage(msg wire.Message) {
	h := l.reg.lookup(msg.Dest)
	if h != nil {
		l.invokeHandler(h, msg)
		return
	}

	if _, isAbort := msg.Body.(wire.AbortMsg); isAbort {
		// never loop on an incoming Abort
		return
	}

	abort := wire.Message{
		Dest: msg.Orig,
		Orig: msg.Dest,
		Body: wire.AbortMsg{Reason: wire.AbortTaskNotRunning},
	}
	if err := l.Enqueue(abort); err != nil {
		l.log.Warn("abort_enqueue_failed", "error", err)
	}
}

func (l *Link) invokeHandler(h Handler, msg wire.Message) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("handler_panic", "recovered", r)
		}
	}()
	h.HandleMessage(msg, l)
}

func (l *Link) handleLinkMessage(msg wire.Message) {
	switch body := msg.Body.(type) {
	case wire.HeartbeatMsg:
		// no-op beyond the activity-timestamp update already applied.

	case wire.StatusRequestMsg:
		l.handleStatusRequest(body)

	case wire.LinkCommandUnsupportedMsg:
		l.log.Info("link_command_unsupported", "nested", body.NestedCode, "reason", body.Reason)

	case wire.CallGapMsg:
		l.handleCallGap(body)

	case wire.PreferredUnitMsg:
		l.mutate(func(s *State) {
			s.Preferred = body.Preferred
			s.Secondary = body.Secondary
		})

	default:
		reply := wire.Message{
			Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused,
			Body: wire.LinkCommandUnsupportedMsg{
				NestedCode: msg.Code(),
				Reason:     wire.ReasonCommandCodeUnsupported,
			},
		}
		if err := l.Enqueue(reply); err != nil {
			l.log.Warn("unsupported_reply_failed", "error", err)
		}
	}
}

func (l *Link) handleStatusRequest(req wire.StatusRequestMsg) {
	var newRole Role
	if req.ClusterID == wire.MasterSlaveClusterID {
		if req.Flags&wire.FlagMaster != 0 {
			newRole = RoleMaster
		} else {
			newRole = RoleSlave
		}
	} else {
		newRole = RoleLoadshare
	}

	enabled := req.Flags&wire.FlagUnitEnabled != 0
	l.mutate(func(s *State) {
		s.Role = newRole
		s.UnitEnabled = enabled
		s.RemoteUnitID = req.UnitID
		s.ClusterID = req.ClusterID
	})

	resp := wire.Message{
		Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused,
		Body: wire.StatusResponseMsg{
			ActiveCalls: uint32(l.reg.size()),
			UnitName:    l.unitName,
		},
	}
	if err := l.Enqueue(resp); err != nil {
		l.log.Warn("status_response_failed", "error", err)
	}
}

func (l *Link) handleCallGap(body wire.CallGapMsg) {
	now := time.Now()
	switch {
	case body.DurationSeconds == wire.GapDisable:
		l.mutate(func(s *State) { s.Gap = Gap{} })
	case body.DurationSeconds == wire.GapIndefinite:
		l.mutate(func(s *State) { s.Gap = Gap{Active: true, Start: now, Indefinite: true} })
	case body.DurationSeconds == wire.GapNetworkSpecific:
		// silently ignored, per §4.4 and §9 open question.
	case body.DurationSeconds > 0:
		end := now.Add(time.Duration(body.DurationSeconds) * time.Second)
		l.mutate(func(s *State) { s.Gap = Gap{Active: true, Start: now, End: end} })
	default:
		l.log.Warn("call_gap_unexpected_duration", "seconds", body.DurationSeconds)
	}
}

// ExpireGap clears an active, non-indefinite gapping window whose end
// has passed. Called by the system manager's supervisor tick (§4.5).
func (l *Link) ExpireGap(now time.Time) {
	l.mu.Lock()
	g := l.state.Gap
	expired := g.Active && !g.Indefinite && now.After(g.End)
	if expired {
		l.state.Gap = Gap{}
	}
	l.mu.Unlock()
	if expired {
		l.notify()
	}
}

// UpdateSuspect recomputes the suspect flag from the configured
// threshold. Called by the system manager's supervisor tick (§4.5).
func (l *Link) UpdateSuspect(now time.Time, threshold time.Duration) {
	l.mu.Lock()
	wasSuspect := l.state.Suspect
	suspect := l.state.Role != RoleDisconnected && now.Sub(l.state.LastActivity) > threshold
	l.state.Suspect = suspect
	l.mu.Unlock()
	if suspect != wasSuspect {
		l.notify()
	}
}

// RefreshActiveCalls copies the task-id registry size into the cached
// state, so Snapshot readers see it without touching the registry lock.
func (l *Link) RefreshActiveCalls() {
	n := l.reg.size()
	l.mu.Lock()
	changed := l.state.ActiveCalls != n
	l.state.ActiveCalls = n
	l.mu.Unlock()
	if changed {
		l.notify()
	}
}

// RemoteAddrEquals reports whether this link's configured remote
// address matches addr's dotted-quad form — used by the system
// manager's preferred-link selection (§4.5.1).
func (l *Link) RemoteAddrEquals(addr [4]byte) bool {
	remoteAddress := l.currentCfg().RemoteAddress
	ip := net.ParseIP(remoteAddress)
	if ip == nil {
		resolved, err := net.ResolveIPAddr("ip4", remoteAddress)
		if err != nil {
			return false
		}
		ip = resolved.IP
	}
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	var want [4]byte
	copy(want[:], v4)
	return want == addr
}
