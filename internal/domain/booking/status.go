package booking

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending          Status = "pending"
	StatusConfirmed        Status = "confirmed"
	StatusInProgress       Status = "in_progress"
	StatusCompleted        Status = "completed"
	StatusCancelledByHost  Status = "cancelled_by_host"
	StatusCancelledByGuest Status = "cancelled_by_guest"
	StatusNoShow           Status = "no_show"
)

// CategoryCancelled groups both cancellation variants for display. It is
// never stored.
const CategoryCancelled = "cancelled"

var statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelledByHost,
	StatusCancelledByGuest,
	StatusNoShow,
}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

func (s Status) Valid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelledByHost, StatusCancelledByGuest, StatusNoShow:
		return true
	}
	return false
}

// Active statuses hold the listing's nights.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusInProgress
}

func (s Status) IsCancellation() bool {
	return s == StatusCancelledByHost || s == StatusCancelledByGuest
}

// Category is the display label: "cancelled" for either cancellation, the
// status itself otherwise.
func (s Status) Category() string {
	if s.IsCancellation() {
		return CategoryCancelled
	}
	return string(s)
}

type Actor string

const (
	ActorHost   Actor = "host"
	ActorGuest  Actor = "guest"
	ActorSystem Actor = "system"
)

func (a Actor) Valid() bool {
	return a == ActorHost || a == ActorGuest || a == ActorSystem
}

type Reason string

const (
	ReasonChangeOfPlans   Reason = "change_of_plans"
	ReasonEmergency       Reason = "emergency"
	ReasonPropertyIssue   Reason = "property_issue"
	ReasonHostCancelled   Reason = "host_cancelled"
	ReasonPaymentFailed   Reason = "payment_failed"
	ReasonPolicyViolation Reason = "policy_violation"
	ReasonOther           Reason = "other"
)

func (r Reason) Valid() bool {
	switch r {
	case ReasonChangeOfPlans, ReasonEmergency, ReasonPropertyIssue, ReasonHostCancelled,
		ReasonPaymentFailed, ReasonPolicyViolation, ReasonOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded, PaymentFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
	MethodCash PaymentMethod = "cash"
)

// Valid accepts the supported methods and the empty value (not chosen yet).
func (m PaymentMethod) Valid() bool {
	switch m {
	case "", MethodCard, MethodUPI, MethodCash:
		return true
	}
	return false
}
