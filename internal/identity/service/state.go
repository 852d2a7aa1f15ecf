package service

import "phone-otp-auth/internal/user/domain"

// Transition applies a successful login to state. It returns the next state and whether it changed.
// Unknown states are returned unchanged.
func Transition(state domain.VerificationState) (domain.VerificationState, bool) {
	switch state {
	case domain.StatePending:
		return domain.StatePhoneVerified, true
	case domain.StatePhoneVerified:
		return domain.StatePhoneVerified, false
	default:
		return state, false
	}
}
