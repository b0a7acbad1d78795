package model

var validNext = map[string]map[string]bool{
	StatusPending: {
		StatusCancelled:  true,
		StatusComplete:   true,
		StatusIncomplete: true,
	},
	StatusCancelled:  {},
	StatusComplete:   {},
	StatusIncomplete: {},
}

// CanTransition reports whether a reservation may move from one status to another.
func CanTransition(from, to string) bool {
	next, ok := validNext[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status string) bool {
	return len(validNext[status]) == 0
}
