package scheduling

import "testing"

func TestCanTransitionIsAllowAll(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if !CanTransition(from, to) {
				t.Errorf("transition %s -> %s should be allowed", from, to)
			}
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("archived", StatusPending) {
		t.Error("unknown source status must not transition")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range allStatuses {
		if !ValidStatus(s) {
			t.Errorf("%q should be valid", s)
		}
	}
	if ValidStatus("archived") {
		t.Error("archived is not a status")
	}
}

func TestParseClock(t *testing.T) {
	if _, err := ParseClock("09:30"); err != nil {
		t.Errorf("09:30 should parse: %v", err)
	}
	for _, bad := range []string{"9:30am", "25:00", "09:60", ""} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
}
