package usecase

import (
	"context"
	"fmt"
	"time"

	"account-service/internal/domain"
)

// LockoutPolicy decides, from the activity log alone, whether local
// login for an email is temporarily blocked. It runs before any
// password comparison so the response cannot leak whether the account
// exists. Read-only; recording the attempt is the caller's job.
type LockoutPolicy struct {
	activity  ActivityStore
	window    time.Duration
	threshold int
}

func NewLockoutPolicy(activity ActivityStore, window time.Duration, threshold int) *LockoutPolicy {
	return &LockoutPolicy{activity: activity, window: window, threshold: threshold}
}

type LockoutStatus struct {
	Locked            bool
	RetryAfterSeconds int64
	RecentFailures    []*domain.UserActivityLog
}

// Check scans login attempts for the email inside the sliding window,
// newest first, truncating at the most recent success: anything older
// than a success no longer counts. Reaching the threshold locks the
// email until the oldest counted failure leaves the window.
func (p *LockoutPolicy) Check(ctx context.Context, email string) (*LockoutStatus, error) {
	now := time.Now()
	since := now.Add(-p.window)

	logs, err := p.activity.ListSince(ctx, email, since)
	if err != nil {
		return nil, fmt.Errorf("failed to read login activity: %w", err)
	}

	var failures []*domain.UserActivityLog
	for _, rec := range logs {
		if rec.IsSuccess() {
			break
		}
		if rec.IsUnauthorized() {
			failures = append(failures, rec)
		}
	}

	if len(failures) >= p.threshold {
		oldest := failures[len(failures)-1]
		remaining := oldest.CreatedAt.Add(p.window).Sub(now)
		seconds := int64(remaining.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return &LockoutStatus{Locked: true, RetryAfterSeconds: seconds}, nil
	}

	return &LockoutStatus{RecentFailures: failures}, nil
}
