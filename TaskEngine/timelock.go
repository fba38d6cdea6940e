package TaskEngine

import "time"

type LockReason string

const (
	LockReasonNone           LockReason = ""
	LockReasonNotYetUnlocked LockReason = "not_yet_unlocked"
	LockReasonWindowClosed   LockReason = "window_closed"
)

type LockDecision struct {
	Completable bool       `json:"completable"`
	Reason      LockReason `json:"reason,omitempty"`
	OpensAt     *time.Time `json:"opens_at,omitempty"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
}

// Err returns the sentinel error matching a rejected decision, nil otherwise
func (d LockDecision) Err() error {
	switch d.Reason {
	case LockReasonNotYetUnlocked:
		return ErrNotYetUnlocked
	case LockReasonWindowClosed:
		return ErrWindowClosed
	default:
		return nil
	}
}

// EvaluateLock decides whether occ may be completed at now.
// Scheduled occurrences open UnlockWindow before their start and close at the deadline, both inclusive.
func EvaluateLock(occ Occurrence, now time.Time) LockDecision {
	if occ.LockMode != LockScheduled || occ.Start == nil {
		return LockDecision{Completable: true}
	}

	window := occ.UnlockWindow
	if window <= 0 {
		window = DefaultUnlockWindowMinutes * time.Minute
	}
	opens := occ.Start.Add(-window)
	closes := occ.Deadline
	decision := LockDecision{OpensAt: &opens, ClosesAt: &closes}

	switch {
	case now.Before(opens):
		decision.Reason = LockReasonNotYetUnlocked
	case now.After(closes):
		decision.Reason = LockReasonWindowClosed
	default:
		decision.Completable = true
	}
	return decision
}
