package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionShortCircuits(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		event       StepEvent
		hasShop     bool
		provisioned bool
		want        State
	}{
		{"start always checks employees", StateStart, EventHit, false, false, StateEmployeeCheck},
		{"employee hit skips customer domain", StateEmployeeCheck, EventHit, true, false, StateSessionIssue},
		{"employee miss falls to customers", StateEmployeeCheck, EventMiss, false, false, StateCustomerCheck},
		{"customer hit issues session", StateCustomerCheck, EventHit, true, false, StateSessionIssue},
		{"customer miss without referral rejects", StateCustomerCheck, EventMiss, false, false, StateNotRegistered},
		{"customer miss with referral provisions", StateCustomerCheck, EventMiss, true, false, StateProvision},
		{"provision failure is terminal", StateProvision, EventFailed, true, false, StateProvisionFailed},
		{"provision success issues session", StateProvision, EventHit, true, true, StateSessionIssue},
		{"session issue for resolved principal finishes", StateSessionIssue, EventHit, true, false, StateDone},
		{"session issue for provisioned customer awards", StateSessionIssue, EventHit, true, true, StateIncentiveAward},
		{"incentive always finishes", StateIncentiveAward, EventFailed, true, true, StateDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(tt.state, tt.event, tt.hasShop, tt.provisioned)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatesDoNotAdvance(t *testing.T) {
	for _, s := range []State{StateDone, StateNotRegistered, StateProvisionFailed} {
		assert.True(t, s.Terminal(), s.String())
		assert.Equal(t, s, Transition(s, EventHit, true, true))
	}
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "employee_check", StateEmployeeCheck.String())
	assert.Equal(t, "provision_failed", StateProvisionFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestShopContextPresent(t *testing.T) {
	assert.False(t, (ShopContext{}).Present())
	assert.False(t, (ShopContext{BranchID: "B1"}).Present())
	assert.True(t, (ShopContext{ShopID: "S1"}).Present())
}
