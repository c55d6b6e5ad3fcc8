package config

// LinkPlan is the reload action to take for one link index.
type LinkPlan uint8

const (
	// PlanKeep means nothing changes for the link index: it is
	// unconfigured in both old and new, or configured in both with
	// identical settings.
	PlanKeep LinkPlan = iota
	// PlanUpdate means the link's non-endpoint settings changed; the
	// running link is updated in place.
	PlanUpdate
	// PlanRecreate means the remote or local endpoint changed; the
	// running link must be fully dropped and recreated.
	PlanRecreate
	// PlanAdd means this index was not configured before and now is.
	PlanAdd
	// PlanRemove means this index was configured before and no longer is.
	PlanRemove
)

func (p LinkPlan) String() string {
	switch p {
	case PlanKeep:
		return "keep"
	case PlanUpdate:
		return "update"
	case PlanRecreate:
		return "recreate"
	case PlanAdd:
		return "add"
	case PlanRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ReloadPlan is the pure output of Diff: one LinkPlan per link index.
type ReloadPlan struct {
	Links [MaxLinks]LinkPlan
}

// endpointChanged reports whether a's and b's remote/local endpoint
// differ — the "significant" change that forces a link recreate.
func endpointChanged(a, b LinkConfig) bool {
	return a.RemoteAddress != b.RemoteAddress ||
		a.RemotePort != b.RemotePort ||
		a.LocalAddress != b.LocalAddress ||
		a.LocalPort != b.LocalPort
}

func linkConfigEqual(a, b LinkConfig) bool {
	return a == b
}

// Diff computes the reload plan between an old and new Config. It is a
// pure function of its two arguments: the system manager applies the
// resulting plan without Diff itself touching any running state.
func Diff(old, new Config) ReloadPlan {
	var plan ReloadPlan
	for i := 0; i < MaxLinks; i++ {
		wasConfigured := i < old.NumLinks
		isConfigured := i < new.NumLinks

		switch {
		case !wasConfigured && !isConfigured:
			plan.Links[i] = PlanKeep
		case !wasConfigured && isConfigured:
			plan.Links[i] = PlanAdd
		case wasConfigured && !isConfigured:
			plan.Links[i] = PlanRemove
		case endpointChanged(old.Links[i], new.Links[i]):
			plan.Links[i] = PlanRecreate
		case linkConfigEqual(old.Links[i], new.Links[i]):
			plan.Links[i] = PlanKeep
		default:
			plan.Links[i] = PlanUpdate
		}
	}
	return plan
}
