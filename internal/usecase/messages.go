package usecase

import "github.com/lewebsimple/autologin/internal/domain"

// MessageFunc resolves the user-visible text for a failed login link.
type MessageFunc func(kind domain.FailureKind) string

func DefaultMessage(kind domain.FailureKind) string {
	switch kind {
	case domain.InvalidLink:
		return "Invalid link."
	case domain.InvalidUser:
		return "Invalid user."
	case domain.InvalidAuth:
		return "AutoLogin authentication failed."
	default:
		return "AutoLogin failed."
	}
}

// Messages returns a MessageFunc that prefers non-empty overrides and falls
// back to DefaultMessage.
func Messages(overrides map[domain.FailureKind]string) MessageFunc {
	return func(kind domain.FailureKind) string {
		if msg := overrides[kind]; msg != "" {
			return msg
		}
		return DefaultMessage(kind)
	}
}
