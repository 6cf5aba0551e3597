package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
)

// ErrEmailTaken is returned by a CredentialStore when the email already has an
// account.
var ErrEmailTaken = errors.New("email already registered")

const minPasswordLength = 6

// Credential is a stored account secret.
type Credential struct {
	UID          string
	Email        string
	DisplayName  string
	PasswordHash []byte
}

// CredentialStore persists account credentials.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred Credential) error
	// CredentialByEmail returns nil, nil when no account uses email.
	CredentialByEmail(ctx context.Context, email string) (*Credential, error)
	CredentialByUID(ctx context.Context, uid string) (*Credential, error)
	UpdatePasswordHash(ctx context.Context, uid string, hash []byte) error
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	DeleteCredential(ctx context.Context, uid string) error
}

// LocalProvider implements Provider with bcrypt hashes over a CredentialStore.
type LocalProvider struct {
	store CredentialStore
	cost  int

	mu     sync.RWMutex
	nextID int
	subs   map[int]func(AuthEvent)
}

// NewLocalProvider constructs a LocalProvider. A zero cost selects
// bcrypt.DefaultCost.
func NewLocalProvider(store CredentialStore, cost int) *LocalProvider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &LocalProvider{store: store, cost: cost, subs: make(map[int]func(AuthEvent))}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return apperr.New(apperr.KindIdentity, fmt.Sprintf("password should be at least %d characters", minPasswordLength))
	}
	return nil
}

// CreateAccount registers a new account.
func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return Identity{}, apperr.New(apperr.KindIdentity, "invalid email address")
	}
	if err := checkPasswordPolicy(password); err != nil {
		return Identity{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	cred := Credential{UID: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := p.store.CreateCredential(ctx, cred); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return Identity{}, apperr.Wrap(apperr.KindIdentity, "email already in use", err)
		}
		return Identity{}, fmt.Errorf("create credential: %w", err)
	}
	return Identity{UID: cred.UID, Email: cred.Email}, nil
}

// Authenticate checks email and password. Unknown email and wrong password
// produce the same error.
func (p *LocalProvider) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	cred, err := p.store.CredentialByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return Identity{}, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil || bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)) != nil {
		return Identity{}, apperr.New(apperr.KindAuthentication, "invalid email or password")
	}
	return Identity{UID: cred.UID, Email: cred.Email, DisplayName: cred.DisplayName}, nil
}

// SignOut announces the end of a session. An empty sessionID ends every
// session of uid.
func (p *LocalProvider) SignOut(_ context.Context, uid, sessionID string) error {
	p.emit(AuthEvent{UID: uid, SessionID: sessionID})
	return nil
}

// ChangePassword re-authenticates with currentPassword before storing the new
// hash.
func (p *LocalProvider) ChangePassword(ctx context.Context, uid, currentPassword, newPassword string) error {
	cred, err := p.store.CredentialByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}
	if cred == nil || bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(currentPassword)) != nil {
		return apperr.New(apperr.KindReauthentication, "current password is incorrect")
	}
	if err := checkPasswordPolicy(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), p.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := p.store.UpdatePasswordHash(ctx, uid, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// UpdateDisplayName stores the display name on the identity record.
func (p *LocalProvider) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if err := p.store.UpdateDisplayName(ctx, uid, displayName); err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// DeleteAccount drops the credential of uid.
func (p *LocalProvider) DeleteAccount(ctx context.Context, uid string) error {
	if err := p.store.DeleteCredential(ctx, uid); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// Subscribe implements Provider.
func (p *LocalProvider) Subscribe(fn func(AuthEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// emit delivers evt to every subscriber before returning.
func (p *LocalProvider) emit(evt AuthEvent) {
	p.mu.RLock()
	subs := make([]func(AuthEvent), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.RUnlock()

	for _, fn := range subs {
		fn(evt)
	}
}

