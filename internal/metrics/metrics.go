// Package metrics is the Prometheus-backed concrete implementation of the
// collab.Stats and collab.Alarm collaborator interfaces. ConnectAttempt,
// FrameEncoded, FrameDecoded and DecodeError are part of collab.Stats
// itself and are called from link.go's dial/decode/write paths; SetRole,
// SetActiveCalls, SetSuspect and SetSystemState are outside that
// interface and are called from cmd/ocpcat status instead, which has
// link/system snapshots to push through them.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telsis/ocpclient/internal/logging"
)

// Metrics owns one Prometheus registry for an OCP client process. The
// core engine never imports prometheus directly; it only sees this type
// through the collab.Stats / collab.Alarm interfaces it satisfies.
type Metrics struct {
	registry *prometheus.Registry

	connectAttempts *prometheus.CounterVec
	framesEncoded   *prometheus.CounterVec
	framesDecoded   *prometheus.CounterVec
	decodeErrors    *prometheus.CounterVec
	role            *prometheus.GaugeVec
	activeCalls     *prometheus.GaugeVec
	suspect         *prometheus.GaugeVec
	systemState     *prometheus.GaugeVec
	alarmActive     *prometheus.GaugeVec

	mu       sync.Mutex
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
}

// New builds a Metrics instance registered against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		connectAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocp_link_connect_attempts_total",
			Help: "Total connect attempts per link.",
		}, []string{"link"}),
		framesEncoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocp_link_frames_encoded_total",
			Help: "Total wire frames encoded per link.",
		}, []string{"link"}),
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocp_link_frames_decoded_total",
			Help: "Total wire frames decoded per link.",
		}, []string{"link"}),
		decodeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ocp_link_decode_errors_total",
			Help: "Total decode errors per link, by reason.",
		}, []string{"link", "reason"}),
		role: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ocp_link_role",
			Help: "1 for the link's current role, 0 otherwise.",
		}, []string{"link", "role"}),
		activeCalls: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ocp_link_active_calls",
			Help: "Current task-id registry size (in-progress calls) per link.",
		}, []string{"link"}),
		suspect: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ocp_link_suspect",
			Help: "1 if the link is currently flagged suspect.",
		}, []string{"link"}),
		systemState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ocp_system_state",
			Help: "1 for the system's current aggregate state, 0 otherwise.",
		}, []string{"state"}),
		alarmActive: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ocp_alarm_active",
			Help: "1 while an alarm is raised for (name, source).",
		}, []string{"name", "source"}),
		counters: make(map[string]prometheus.Counter),
		gauges:   make(map[string]prometheus.Gauge),
	}
}

// Handler returns the http.Handler serving this registry's /metrics page.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func linkLabel(index int) string { return strconv.Itoa(index) }

// ConnectAttempt records one connect attempt for the given link index.
func (m *Metrics) ConnectAttempt(link int) { m.connectAttempts.WithLabelValues(linkLabel(link)).Inc() }

// FrameEncoded records one successfully encoded outbound frame.
func (m *Metrics) FrameEncoded(link int) { m.framesEncoded.WithLabelValues(linkLabel(link)).Inc() }

// FrameDecoded records one successfully decoded inbound frame.
func (m *Metrics) FrameDecoded(link int) { m.framesDecoded.WithLabelValues(linkLabel(link)).Inc() }

// DecodeError records a decode failure for the given link and reason.
func (m *Metrics) DecodeError(link int, reason string) {
	m.decodeErrors.WithLabelValues(linkLabel(link), reason).Inc()
}

// SetRole records the link's current role, clearing every other role
// value for that link so a Prometheus query stays a simple equality.
func (m *Metrics) SetRole(link int, roles []string, current string) {
	label := linkLabel(link)
	for _, r := range roles {
		v := 0.0
		if r == current {
			v = 1
		}
		m.role.WithLabelValues(label, r).Set(v)
	}
}

// SetActiveCalls records the task-id registry size for a link.
func (m *Metrics) SetActiveCalls(link, n int) {
	m.activeCalls.WithLabelValues(linkLabel(link)).Set(float64(n))
}

// SetSuspect records whether a link is currently suspect.
func (m *Metrics) SetSuspect(link int, suspect bool) {
	v := 0.0
	if suspect {
		v = 1
	}
	m.suspect.WithLabelValues(linkLabel(link)).Set(v)
}

// SetSystemState records the system's current aggregate state, clearing
// every other state value.
func (m *Metrics) SetSystemState(states []string, current string) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		m.systemState.WithLabelValues(s).Set(v)
	}
}

// RegisterStat implements collab.Stats. extended stats are modelled as
// monotonic counters, plain stats as gauges. Characters of name that are
// not valid in a Prometheus metric name are replaced by '_' in the
// exported series name; name itself stays the lookup key.
func (m *Metrics) RegisterStat(name string, extended bool) {
	promName := []byte(name)
	for i, c := range promName {
		if !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			promName[i] = '_'
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if extended {
		if _, ok := m.counters[name]; !ok {
			m.counters[name] = promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
				Name: "ocp_stat_" + string(promName) + "_total",
				Help: "OCP collaborator stat " + name + ".",
			})
		}
		return
	}
	if _, ok := m.gauges[name]; !ok {
		m.gauges[name] = promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
			Name: "ocp_stat_" + string(promName),
			Help: "OCP collaborator stat " + name + ".",
		})
	}
}

// UnregisterStat implements collab.Stats. Prometheus has no clean
// unregister-by-name for a vec member created ad hoc, so this simply
// drops the local bookkeeping entry; the underlying series is left at
// its last value, consistent with the collaborator interface being
// "best-effort" per the core's external-collaborator contract.
func (m *Metrics) UnregisterStat(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, name)
	delete(m.gauges, name)
}

// IncrementStat implements collab.Stats.
func (m *Metrics) IncrementStat(name string) {
	m.mu.Lock()
	c, okC := m.counters[name]
	g, okG := m.gauges[name]
	m.mu.Unlock()
	switch {
	case okC:
		c.Inc()
	case okG:
		g.Inc()
	default:
		logging.L().Warn("stat_not_registered", "name", name)
	}
}

// DecrementStat implements collab.Stats. Counters cannot decrement; a
// decrement of a stat registered as extended (a counter) is logged and
// dropped.
func (m *Metrics) DecrementStat(name string) {
	m.mu.Lock()
	g, okG := m.gauges[name]
	_, okC := m.counters[name]
	m.mu.Unlock()
	switch {
	case okG:
		g.Dec()
	case okC:
		logging.L().Warn("stat_decrement_on_counter", "name", name)
	default:
		logging.L().Warn("stat_not_registered", "name", name)
	}
}

// RaiseAlarm implements collab.Alarm.
func (m *Metrics) RaiseAlarm(name, source string, params map[string]string) {
	m.alarmActive.WithLabelValues(name, source).Set(1)
	logging.L().Error("alarm_raised", "name", name, "source", source, "params", params)
}

// ClearAlarm implements collab.Alarm.
func (m *Metrics) ClearAlarm(name, source string) {
	m.alarmActive.WithLabelValues(name, source).Set(0)
	logging.L().Info("alarm_cleared", "name", name, "source", source)
}
