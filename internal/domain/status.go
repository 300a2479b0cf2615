package domain

import "strings"

type Status string

const (
	StatusPlaced   Status = "PLACED"
	StatusReady    Status = "READY"
	StatusComplete Status = "COMPLETE"
	// StatusInvalid is returned for unknown order IDs and is never persisted.
	StatusInvalid Status = "INVALID"
)

// FailureToken is what the order API reports in place of an order ID when
// the order was rejected for lack of stock.
const FailureToken = "FAILED"

var statusRank = map[Status]int{
	StatusPlaced:   1,
	StatusReady:    2,
	StatusComplete: 3,
}

// ParseStatus maps a wire value onto a Status. Anything unrecognised is INVALID.
func ParseStatus(s string) Status {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := statusRank[st]; ok {
		return st
	}
	return StatusInvalid
}

func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusComplete
}

// CanTransitionTo reports whether s may move forward to next.
func (s Status) CanTransitionTo(next Status) bool {
	validTransitions := map[Status][]Status{
		StatusPlaced:   {StatusReady, StatusComplete},
		StatusReady:    {StatusComplete},
		StatusComplete: {},
	}

	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
