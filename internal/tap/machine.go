package tap

import "time"

// DefaultWindow is the debounce threshold between genuine state changes.
const DefaultWindow = 60 * time.Second

// Outcome is the decision for one tap against the person's last accepted
// event. A suppressed outcome records nothing and notifies nobody.
type Outcome struct {
	State      State
	Suppressed bool
}

// Decide applies the toggle rule: no prior accepted event yields IN;
// elapsed time strictly greater than the window toggles the prior state;
// anything inside the window (boundary included) is suppressed. Elapsed
// time is taken as an absolute value to tolerate clock skew between the
// stored timestamp and now.
func Decide(last *Event, now time.Time, window time.Duration) Outcome {
	if window <= 0 {
		window = DefaultWindow
	}
	if last == nil {
		return Outcome{State: StateIn}
	}
	elapsed := now.Sub(last.OccurredAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	if elapsed <= window {
		return Outcome{State: last.State, Suppressed: true}
	}
	return Outcome{State: last.State.Toggle()}
}
