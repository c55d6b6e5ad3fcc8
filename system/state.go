package system

// AggregateState is the system's single-valued summary of its links'
// roles, per the truth table in §4.5.
type AggregateState uint8

const (
	Stopped AggregateState = iota
	NoLinks
	Connecting
	MissingMaster
	MasterSlave
	Loadsharing
	Inconsistent
)

func (s AggregateState) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case NoLinks:
		return "NO_LINKS"
	case Connecting:
		return "CONNECTING"
	case MissingMaster:
		return "MISSING_MASTER"
	case MasterSlave:
		return "MASTER_SLAVE"
	case Loadsharing:
		return "LOADSHARING"
	case Inconsistent:
		return "INCONSISTENT"
	default:
		return "UNKNOWN"
	}
}

// States lists every AggregateState value, in the order metrics gauges
// report them.
var States = []AggregateState{Stopped, NoLinks, Connecting, MissingMaster, MasterSlave, Loadsharing, Inconsistent}

// alarmsUnconditionally reports whether s warrants the "cannot-take-calls"
// alarm on its own (§4.5 step 3); MASTER_SLAVE/LOADSHARING additionally
// raise it when no link is currently active, which the caller checks
// separately since that depends on link state, not just s.
func (s AggregateState) alarmsUnconditionally() bool {
	switch s {
	case Connecting, Inconsistent, MissingMaster:
		return true
	default:
		return false
	}
}

func (s AggregateState) clearsAlarm() bool {
	return s == Stopped || s == NoLinks
}
