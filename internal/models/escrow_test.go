package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     EscrowStatus
		to       EscrowStatus
		expected bool
	}{
		// Happy path
		{EscrowStatusCreated, EscrowStatusFunded, true},
		{EscrowStatusFunded, EscrowStatusPickupConfirmed, true},
		{EscrowStatusPickupConfirmed, EscrowStatusInTransit, true},
		{EscrowStatusInTransit, EscrowStatusDeliveryConfirmed, true},
		{EscrowStatusDeliveryConfirmed, EscrowStatusReleased, true},

		// Delivery scan landing before the departure flip
		{EscrowStatusPickupConfirmed, EscrowStatusDeliveryConfirmed, true},

		// Dispute branch
		{EscrowStatusFunded, EscrowStatusDisputed, true},
		{EscrowStatusPickupConfirmed, EscrowStatusDisputed, true},
		{EscrowStatusInTransit, EscrowStatusDisputed, true},
		{EscrowStatusDeliveryConfirmed, EscrowStatusDisputed, true},
		{EscrowStatusDisputed, EscrowStatusReleased, true},
		{EscrowStatusDisputed, EscrowStatusRefunded, true},

		// Cancellation only before funding
		{EscrowStatusCreated, EscrowStatusCancelled, true},
		{EscrowStatusFunded, EscrowStatusCancelled, false},
		{EscrowStatusInTransit, EscrowStatusCancelled, false},
		{EscrowStatusDeliveryConfirmed, EscrowStatusCancelled, false},

		// Invalid transitions
		{EscrowStatusCreated, EscrowStatusDisputed, false},
		{EscrowStatusCreated, EscrowStatusReleased, false},
		{EscrowStatusFunded, EscrowStatusDeliveryConfirmed, false},
		{EscrowStatusFunded, EscrowStatusReleased, false},
		{EscrowStatusInTransit, EscrowStatusReleased, false},
		{EscrowStatusReleased, EscrowStatusRefunded, false},
		{EscrowStatusRefunded, EscrowStatusReleased, false},
		{EscrowStatusCancelled, EscrowStatusFunded, false},
		{EscrowStatusDisputed, EscrowStatusInTransit, false},
		{"nonexistent", EscrowStatusFunded, false},
		{EscrowStatusCreated, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []EscrowStatus{
		EscrowStatusCreated, EscrowStatusFunded, EscrowStatusPickupConfirmed,
		EscrowStatusInTransit, EscrowStatusDeliveryConfirmed, EscrowStatusReleased,
		EscrowStatusDisputed, EscrowStatusRefunded, EscrowStatusCancelled,
	}

	for _, status := range allStatuses {
		if _, ok := ValidEscrowTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidEscrowTransitions map", status)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []EscrowStatus{EscrowStatusReleased, EscrowStatusRefunded, EscrowStatusCancelled}
	for _, status := range terminal {
		if !IsTerminal(status) {
			t.Errorf("status %q should be terminal", status)
		}
		if transitions := ValidEscrowTransitions[status]; len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}

	for status, transitions := range ValidEscrowTransitions {
		if len(transitions) > 0 && IsTerminal(status) {
			t.Errorf("status %q reported terminal but has transitions", status)
		}
	}
}

func TestIsParticipant(t *testing.T) {
	wh := "acc-warehouse"
	e := &Escrow{Shipper: "acc-shipper", Driver: "acc-driver", Warehouse: &wh}

	for _, acc := range []string{"acc-shipper", "acc-driver", "acc-warehouse"} {
		if !e.IsParticipant(acc) {
			t.Errorf("expected %q to be a participant", acc)
		}
	}
	if e.IsParticipant("acc-stranger") {
		t.Error("stranger should not be a participant")
	}
	if e.IsParticipant("") {
		t.Error("empty account should not be a participant")
	}

	noWh := &Escrow{Shipper: "s", Driver: "d"}
	if noWh.IsParticipant("acc-warehouse") {
		t.Error("escrow without warehouse should not match warehouse account")
	}
}
