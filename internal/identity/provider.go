package identity

import "context"

// Identity is the provider-side view of an account.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
}

// AuthEvent reports a change of session state. A nil Identity means the
// session named by SessionID is gone; an empty SessionID means every session
// of UID is gone.
type AuthEvent struct {
	UID       string
	SessionID string
	Identity  *Identity
}

// Provider is the identity provider the gateway delegates credential checks to.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (Identity, error)
	Authenticate(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context, uid, sessionID string) error
	ChangePassword(ctx context.Context, uid, currentPassword, newPassword string) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	// DeleteAccount removes the account. Deleting a missing account is not an
	// error.
	DeleteAccount(ctx context.Context, uid string) error
	// Subscribe registers fn for every auth event and returns a function that
	// removes it.
	Subscribe(fn func(AuthEvent)) func()
}
