package redemption

import (
	"errors"
	"fmt"
	"time"
)

// Terminal denial reasons. All of these are expected outcomes for the
// scanning operator, not process faults.
var (
	ErrUnknownToken       = errors.New("unknown token")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrUnknownVoucherType = errors.New("unknown voucher type")
	ErrMembershipInactive = errors.New("membership inactive")

	// ErrQuotaExceeded is the bare storage-layer outcome; the engine wraps
	// it in a QuotaExceededError carrying the last redemption's details.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrStoreUnavailable marks a transient storage failure. It is the only
	// redemption error safe to retry blindly: the check-then-insert is one
	// transaction, so a retry can never overshoot the quota.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MembershipExpiredError carries the stored expiry date so the operator
// can tell the member when their membership lapsed.
type MembershipExpiredError struct {
	ValidUntil string
}

func (e *MembershipExpiredError) Error() string {
	return fmt.Sprintf("membership expired on %s", e.ValidUntil)
}

// QuotaExceededError reports who consumed the last unit and when, for
// on-the-spot dispute resolution at the scan point.
type QuotaExceededError struct {
	MaxUses        int
	LastOperator   string
	LastRedeemedAt time.Time
}

func (e *QuotaExceededError) Error() string {
	if e.LastOperator == "" {
		return "already redeemed"
	}
	return fmt.Sprintf("already redeemed by %s at %s", e.LastOperator, e.LastRedeemedAt.Format(time.RFC3339))
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }
