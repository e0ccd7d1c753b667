// Package domain provides core business rules for the leads bounded context.
package domain

// Lead lifecycle statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

// allowedTransitions is the status state machine. A missing entry means the
// transition is rejected. Converted and lost are terminal.
var allowedTransitions = map[string]map[string]bool{
	StatusNew:       {StatusContacted: true, StatusQualified: true, StatusLost: true},
	StatusContacted: {StatusQualified: true, StatusLost: true},
	StatusQualified: {StatusConverted: true, StatusLost: true},
	StatusConverted: {},
	StatusLost:      {},
}

// IsKnownStatus reports whether status is one of the lifecycle statuses.
func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// IsTerminalStatus reports whether no further status transitions are
// permitted from status.
func IsTerminalStatus(status string) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

// CanTransition reports whether a lead may move from one status to the next.
// A self-transition is always permitted as a no-op.
func CanTransition(from, to string) bool {
	if !IsKnownStatus(from) || !IsKnownStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	return allowedTransitions[from][to]
}
