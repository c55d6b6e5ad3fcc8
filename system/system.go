// Package system implements the aggregate system manager (C5): it owns
// up to config.MaxLinks links, runs the 1s supervisor tick that derives
// aggregate state from link roles, elects a master on timeout, and
// selects a link for a new call.
package system

import (
	"log/slog"
	"sync"
	"time"

	"github.com/telsis/ocpclient/collab"
	"github.com/telsis/ocpclient/config"
	"github.com/telsis/ocpclient/internal/logging"
	"github.com/telsis/ocpclient/link"
	"github.com/telsis/ocpclient/wire"
)

const tickInterval = time.Second
const alarmName = "cannot-take-calls"

// System holds the configured links and runs the supervisor. The link
// list itself is copy-on-write: ReloadProperties builds a new array and
// swaps it in under linksMu, so the supervisor tick and GetLink never
// block on a reload in progress.
type System struct {
	stats    collab.Stats
	alarm    collab.Alarm
	watchdog collab.Watchdog
	log      *slog.Logger

	cfgMu sync.RWMutex
	cfg   config.Config

	linksMu sync.RWMutex
	links   [config.MaxLinks]*link.Link

	stateMu           sync.RWMutex
	state             AggregateState
	missingMasterSet  time.Time
	alarmRaised       bool
	preferred         *link.Link

	managementMu      sync.Mutex
	managementHandler link.Handler

	running  bool
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// New constructs a System with no links configured. Call ReloadProperties
// to add links, then Start to begin the supervisor.
func New(stats collab.Stats, alarm collab.Alarm, wd collab.Watchdog) *System {
	if stats == nil {
		stats = collab.NullStats{}
	}
	if alarm == nil {
		alarm = collab.NullAlarm{}
	}
	if wd == nil {
		wd = collab.NullWatchdog{}
	}
	s := &System{
		stats:    stats,
		alarm:    alarm,
		watchdog: wd,
		log:      logging.L().With("component", "system"),
		cfg:      config.Default(),
		state:    Stopped,
		quit:     make(chan struct{}),
	}
	for _, st := range States {
		s.stats.RegisterStat("system.state."+st.String(), false)
	}
	return s
}

// Start begins the supervisor tick. Calling Start twice is a no-op.
func (s *System) Start() {
	s.stateMu.Lock()
	if s.running {
		s.stateMu.Unlock()
		return
	}
	s.running = true
	s.stateMu.Unlock()

	s.watchdog.Start()
	s.wg.Add(1)
	go s.supervise()
}

// Shutdown stops the supervisor and every configured link, then waits
// for all of it to join.
func (s *System) Shutdown() {
	s.quitOnce.Do(func() { close(s.quit) })
	s.wg.Wait()
	s.watchdog.Stop()

	s.linksMu.RLock()
	links := s.links
	s.linksMu.RUnlock()
	for _, l := range links {
		if l != nil {
			l.Shutdown()
		}
	}
}

func (s *System) supervise() {
	defer s.wg.Done()
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-s.quit:
			s.stateMu.Lock()
			s.running = false
			s.stateMu.Unlock()
			s.setState(Stopped, time.Now())
			return
		case now := <-t.C:
			s.watchdog.Pat()
			s.tick(now)
		}
	}
}

// configuredLinks returns the current copy-on-write link array.
func (s *System) configuredLinks() [config.MaxLinks]*link.Link {
	s.linksMu.RLock()
	defer s.linksMu.RUnlock()
	return s.links
}

// Links returns the current link array, index-aligned with
// config.Config.Links; an unconfigured index is nil. Intended for
// read-only inspection (status displays, metrics exporters).
func (s *System) Links() [config.MaxLinks]*link.Link {
	return s.configuredLinks()
}

func (s *System) suspectTimeout() time.Duration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.SuspectTimeout
}

func (s *System) masterSlaveSwapTimeout() time.Duration {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.MasterSlaveSwapTimeout
}

// tick performs one supervisor pass: per-link bookkeeping, aggregate
// state recomputation, preferred-link selection, alarm raise/clear, and
// master election on timeout (§4.5).
func (s *System) tick(now time.Time) {
	links := s.configuredLinks()
	suspectTimeout := s.suspectTimeout()

	var infos []linkInfo
	for _, l := range links {
		if l == nil {
			continue
		}
		l.ExpireGap(now)
		l.UpdateSuspect(now, suspectTimeout)
		l.RefreshActiveCalls()
		infos = append(infos, linkInfo{l: l, snap: l.Snapshot()})
	}

	newState := computeAggregateState(s.isRunning(), infos)
	s.setState(newState, now)
	s.applyAlarm(newState, infos)
	s.recomputePreferred(newState, infos)

	if newState == MissingMaster {
		s.stateMu.RLock()
		since := now.Sub(s.missingMasterSet)
		s.stateMu.RUnlock()
		if since > s.masterSlaveSwapTimeout() {
			s.electMaster(infos)
			s.stateMu.Lock()
			s.missingMasterSet = now
			s.stateMu.Unlock()
		}
	}
}

func (s *System) isRunning() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.running
}

// linkInfo pairs a configured link with the state snapshot taken for it
// during one supervisor tick, so the rest of the tick works from a
// consistent view instead of re-reading the link.
type linkInfo struct {
	l    *link.Link
	snap link.State
}

// computeAggregateState derives the system's single-valued aggregate
// state from the current link role vector, per the truth table in §4.5.
func computeAggregateState(running bool, infos []linkInfo) AggregateState {
	if !running {
		return Stopped
	}
	if len(infos) == 0 {
		return NoLinks
	}

	var responded []linkInfo
	for _, info := range infos {
		if info.snap.Role != link.RoleDisconnected && info.snap.Role != link.RoleConnecting {
			responded = append(responded, info)
		}
	}
	if len(responded) == 0 {
		return Connecting
	}

	var masters, slaves, loadshares int
	clusterConsistent := true
	var firstCluster byte
	for i, info := range responded {
		switch info.snap.Role {
		case link.RoleMaster:
			masters++
		case link.RoleSlave:
			slaves++
		case link.RoleLoadshare:
			loadshares++
			if i == 0 {
				firstCluster = info.snap.ClusterID
			} else if info.snap.ClusterID != firstCluster {
				clusterConsistent = false
			}
		}
	}

	switch {
	case loadshares == len(responded):
		if clusterConsistent {
			return Loadsharing
		}
		return Inconsistent
	case masters == 1 && slaves == len(responded)-1 && loadshares == 0:
		return MasterSlave
	case masters == 0 && loadshares == 0 && slaves == len(responded):
		return MissingMaster
	default:
		return Inconsistent
	}
}

func (s *System) setState(newState AggregateState, now time.Time) {
	s.stateMu.Lock()
	prev := s.state
	s.state = newState
	if prev != MissingMaster && newState == MissingMaster {
		s.missingMasterSet = now
	}
	s.stateMu.Unlock()
	if prev != newState {
		s.log.Info("aggregate_state_changed", "from", prev, "to", newState)
	}
}

// Snapshot returns the current aggregate state.
func (s *System) Snapshot() AggregateState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// anyActive reports whether at least one of infos is currently active
// (enabled and not gapping).
func anyActive(infos []linkInfo) bool {
	for _, info := range infos {
		if info.snap.Active() {
			return true
		}
	}
	return false
}

// applyAlarm raises or clears the cannot-take-calls alarm per §4.5 step
// 3. The raised/cleared flag is sticky so the external alarm interface
// only sees edges, not a call on every tick.
func (s *System) applyAlarm(state AggregateState, infos []linkInfo) {
	should := state.alarmsUnconditionally()
	if (state == MasterSlave || state == Loadsharing) && !anyActive(infos) {
		should = true
	}

	s.stateMu.Lock()
	raised := s.alarmRaised
	s.stateMu.Unlock()

	switch {
	case should && !raised:
		s.alarm.RaiseAlarm(alarmName, "system", map[string]string{"state": state.String()})
		s.stateMu.Lock()
		s.alarmRaised = true
		s.stateMu.Unlock()
	case state.clearsAlarm() && raised:
		s.alarm.ClearAlarm(alarmName, "system")
		s.stateMu.Lock()
		s.alarmRaised = false
		s.stateMu.Unlock()
	}
}

// recomputePreferred implements §4.5.1's preferred-link selection.
func (s *System) recomputePreferred(state AggregateState, infos []linkInfo) {
	var preferred *link.Link

	switch state {
	case MasterSlave:
		for _, info := range infos {
			if info.snap.Role == link.RoleMaster {
				preferred = info.l
				break
			}
		}
	case Loadsharing:
		if len(infos) == 1 {
			preferred = infos[0].l
		} else if len(infos) > 1 {
			first := infos[0].snap
			consistent := true
			for _, info := range infos[1:] {
				if info.snap.Preferred != first.Preferred || info.snap.Secondary != first.Secondary {
					consistent = false
					break
				}
			}
			if consistent {
				for _, info := range infos {
					if info.l.RemoteAddrEquals(first.Preferred) {
						preferred = info.l
						break
					}
				}
			}
		}
	}

	s.stateMu.Lock()
	s.preferred = preferred
	s.stateMu.Unlock()
}

// electMaster promotes the slave with the highest reported remote unit
// id to master, per §4.5 step 5.
func (s *System) electMaster(infos []linkInfo) {
	var best *linkInfo
	for i := range infos {
		info := &infos[i]
		if info.snap.Role != link.RoleSlave {
			continue
		}
		if best == nil || info.snap.RemoteUnitID > best.snap.RemoteUnitID {
			best = info
		}
	}
	if best == nil {
		return
	}
	msg := wire.Message{Dest: wire.TaskIDUnused, Orig: wire.TaskIDUnused, Body: wire.BecomeMasterMsg{}}
	if err := best.l.Enqueue(msg); err != nil {
		s.log.Warn("become_master_enqueue_failed", "error", err)
	}
}

func containsLink(set []*link.Link, l *link.Link) bool {
	for _, c := range set {
		if c == l {
			return true
		}
	}
	return false
}

// GetLink selects a link for a new call, per §4.5.2. triedLinks lets a
// caller retry after a transient downstream error without re-picking the
// same link; GetLink never returns a link in triedLinks or an inactive
// link.
func (s *System) GetLink(triedLinks []*link.Link) *link.Link {
	state := s.Snapshot()

	s.stateMu.RLock()
	preferred := s.preferred
	s.stateMu.RUnlock()

	switch state {
	case MasterSlave:
		if preferred != nil && preferred.Snapshot().Active() && !containsLink(triedLinks, preferred) {
			return preferred
		}
		return nil

	case Loadsharing:
		if preferred != nil && preferred.Snapshot().Active() && !containsLink(triedLinks, preferred) {
			return preferred
		}
		return s.getLoadshareLink(triedLinks)

	default:
		return nil
	}
}

// getLoadshareLink picks among candidate loadsharing links, excluding
// triedLinks: non-suspect links beat suspect ones, and within each group
// the link with more active calls is preferred. That second rule is a
// deliberate sticky tiebreak (continue filling the busier link up to
// capacity) rather than even distribution; it is preserved as specified.
func (s *System) getLoadshareLink(triedLinks []*link.Link) *link.Link {
	links := s.configuredLinks()

	var best *link.Link
	var bestSnap link.State
	for _, l := range links {
		if l == nil || containsLink(triedLinks, l) {
			continue
		}
		snap := l.Snapshot()
		if !snap.Active() {
			continue
		}
		if best == nil || betterCandidate(snap, bestSnap) {
			best = l
			bestSnap = snap
		}
	}
	return best
}

// betterCandidate reports whether a should be preferred over the
// current best b: not suspect beats suspect; within the same suspect
// class, more active calls wins.
func betterCandidate(a, b link.State) bool {
	if a.Suspect != b.Suspect {
		return !a.Suspect
	}
	return a.ActiveCalls > b.ActiveCalls
}

// RegisterManagementHandler installs h as the management-task handler on
// every currently configured link and on every link added afterwards by
// ReloadProperties (§4.6's broadcast registration).
func (s *System) RegisterManagementHandler(h link.Handler) {
	s.managementMu.Lock()
	s.managementHandler = h
	s.managementMu.Unlock()

	for _, l := range s.configuredLinks() {
		if l != nil {
			l.RegisterManagementHandler(h)
		}
	}
}

// ReloadProperties applies newCfg, computing a config.Diff against the
// currently active configuration and adding, recreating, updating, or
// removing links accordingly.
func (s *System) ReloadProperties(newCfg config.Config) error {
	s.cfgMu.Lock()
	oldCfg := s.cfg
	s.cfgMu.Unlock()

	plan := config.Diff(oldCfg, newCfg)

	newLinks := s.configuredLinks()
	for i := 0; i < config.MaxLinks; i++ {
		switch plan.Links[i] {
		case config.PlanKeep:
			// nothing to do
		case config.PlanUpdate:
			if newLinks[i] != nil {
				newLinks[i].UpdateConfig(newCfg.Links[i])
			}
		case config.PlanRecreate:
			if newLinks[i] != nil {
				newLinks[i].Shutdown()
			}
			newLinks[i] = s.newLink(i, newCfg)
			newLinks[i].Start()
		case config.PlanAdd:
			newLinks[i] = s.newLink(i, newCfg)
			newLinks[i].Start()
		case config.PlanRemove:
			if newLinks[i] != nil {
				newLinks[i].Shutdown()
			}
			newLinks[i] = nil
		}
	}
	s.linksMu.Lock()
	s.links = newLinks
	s.linksMu.Unlock()

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	return nil
}

func (s *System) newLink(index int, cfg config.Config) *link.Link {
	l := link.New(index, cfg.Links[index], cfg.UnitName, s.stats, s.watchdog)
	s.managementMu.Lock()
	h := s.managementHandler
	s.managementMu.Unlock()
	if h != nil {
		l.RegisterManagementHandler(h)
	}
	return l
}
