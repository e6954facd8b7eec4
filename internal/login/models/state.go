package models

// State enumerates the orchestration state machine. Short-circuit rules live
// in one transition function so they stay auditable without HTTP plumbing.
type State int

const (
	StateStart State = iota
	StateEmployeeCheck
	StateCustomerCheck
	StateProvision
	StateSessionIssue
	StateIncentiveAward
	StateDone
	StateNotRegistered
	StateProvisionFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateEmployeeCheck:
		return "employee_check"
	case StateCustomerCheck:
		return "customer_check"
	case StateProvision:
		return "provision"
	case StateSessionIssue:
		return "session_issue"
	case StateIncentiveAward:
		return "incentive_award"
	case StateDone:
		return "done"
	case StateNotRegistered:
		return "not_registered"
	case StateProvisionFailed:
		return "provision_failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further step runs after this state.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateNotRegistered, StateProvisionFailed:
		return true
	}
	return false
}

// StepEvent is the outcome of executing one state's action.
type StepEvent int

const (
	// EventHit: the step produced its value (directory match, customer
	// created, credential issued, incentive handled).
	EventHit StepEvent = iota
	// EventMiss: an authoritative negative (no directory match).
	EventMiss
	// EventFailed: the step failed fatally for the whole request.
	EventFailed
)

// Transition is the single source of truth for the state machine. hasShop is
// the only input besides the event: it decides whether an unmatched token is
// provisioned or rejected. Provisioned principals take the incentive path
// after session issuance; resolved ones finish immediately.
func Transition(s State, ev StepEvent, hasShop, provisioned bool) State {
	switch s {
	case StateStart:
		return StateEmployeeCheck
	case StateEmployeeCheck:
		if ev == EventHit {
			// Employee priority: skip the customer domain entirely.
			return StateSessionIssue
		}
		return StateCustomerCheck
	case StateCustomerCheck:
		if ev == EventHit {
			return StateSessionIssue
		}
		if !hasShop {
			return StateNotRegistered
		}
		return StateProvision
	case StateProvision:
		if ev == EventFailed {
			return StateProvisionFailed
		}
		return StateSessionIssue
	case StateSessionIssue:
		// Issuance never fails the request; only provisioned customers
		// continue to the incentive step.
		if provisioned {
			return StateIncentiveAward
		}
		return StateDone
	case StateIncentiveAward:
		return StateDone
	default:
		return s
	}
}
