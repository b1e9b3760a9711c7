package domain

import "time"

// ConflictTolerance is the window under which two writes of the same record
// are treated as the same edit. Clock skew and near-simultaneous writes from
// one user across tabs or devices stay inside it; anything beyond it is a
// real divergence.
const ConflictTolerance = 1000 * time.Millisecond

// HasConflict reports whether a candidate write's timestamp diverges from the
// remote record's timestamp by more than the tolerance window.
func HasConflict(local, remote time.Time) bool {
	d := remote.Sub(local)
	if d < 0 {
		d = -d
	}
	return d > ConflictTolerance
}
