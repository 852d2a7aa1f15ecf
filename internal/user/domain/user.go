package domain

import (
	"errors"
	"fmt"
	"time"
)

// User is a phone-identified account.
type User struct {
	ID          string
	Phone       string // normalized, unique
	CountryCode string
	State       VerificationState
	Blocked     bool // set by an operator; checked on every auth attempt
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VerificationState is the login state of a user. The zero value is not a valid state.
type VerificationState int

const (
	StatePending VerificationState = iota + 1
	StatePhoneVerified
)

// ErrUnknownState is returned when parsing a state string that is not a known state.
var ErrUnknownState = errors.New("user: unknown verification state")

// String returns the persisted form of s.
func (s VerificationState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StatePhoneVerified:
		return "PHONE_VERIFIED"
	default:
		return fmt.Sprintf("VerificationState(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared states.
func (s VerificationState) Valid() bool {
	switch s {
	case StatePending, StatePhoneVerified:
		return true
	default:
		return false
	}
}

// ParseVerificationState parses the persisted form of a state.
func ParseVerificationState(s string) (VerificationState, error) {
	switch s {
	case "PENDING":
		return StatePending, nil
	case "PHONE_VERIFIED":
		return StatePhoneVerified, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownState, s)
	}
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("id is required")
	}
	if u.Phone == "" {
		return errors.New("phone is required")
	}
	if u.State == 0 {
		u.State = StatePending
	}
	if !u.State.Valid() {
		return fmt.Errorf("invalid state %s", u.State)
	}
	return nil
}
