// Package identity signs users in and out and owns their profiles.
package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
	"github.com/vannoorsab/visionEndeavorius/libs/go/auth"
)

// BlobStore holds uploaded profile images.
type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader, contentType string) error
	DownloadURL(ctx context.Context, path string) (string, error)
}

// SignInResult is returned by a successful sign-in.
type SignInResult struct {
	Session   *Session
	Token     string
	ExpiresAt time.Time
}

// Gateway coordinates the identity provider, the profile store and sessions.
type Gateway struct {
	provider Provider
	profiles ProfileStore
	sessions *Sessions
	blobs    BlobStore
	tokens   auth.Config
	logger   *logging.Logger
	now      func() time.Time
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithBlobStore enables avatar uploads.
func WithBlobStore(store BlobStore) GatewayOption {
	return func(g *Gateway) {
		g.blobs = store
	}
}

// WithLogger sets the gateway logger.
func WithLogger(logger *logging.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway constructs a Gateway. The token TTL should match the TTL the
// sessions manager was built with.
func NewGateway(provider Provider, profiles ProfileStore, sessions *Sessions, tokens auth.Config, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider: provider,
		profiles: profiles,
		sessions: sessions,
		tokens:   tokens,
		logger:   logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SignUp creates an account and its profile. The display name defaults to
// the local part of the email.
func (g *Gateway) SignUp(ctx context.Context, email, password string) (*Profile, error) {
	id, err := g.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}

	profile := Profile{
		UID:                 id.UID,
		Email:               id.Email,
		DisplayName:         defaultDisplayName(id.Email),
		Interests:           []string{},
		JoinedActivities:    []string{},
		CompletedActivities: []string{},
	}
	if err := g.provider.UpdateDisplayName(ctx, id.UID, profile.DisplayName); err != nil {
		g.rollbackAccount(ctx, id.UID)
		return nil, apperr.Wrap(apperr.KindWrite, "failed to create profile", err)
	}
	if err := g.profiles.CreateProfile(ctx, profile); err != nil {
		g.rollbackAccount(ctx, id.UID)
		return nil, apperr.Wrap(apperr.KindWrite, "failed to create profile", err)
	}

	g.logger.Info("account created", "uid", profile.UID)
	return &profile, nil
}

// rollbackAccount removes a credential whose profile could not be written so
// the email can sign up again.
func (g *Gateway) rollbackAccount(ctx context.Context, uid string) {
	if err := g.provider.DeleteAccount(context.WithoutCancel(ctx), uid); err != nil {
		g.logger.Error("failed to roll back account", "uid", uid, "error", err)
	}
}

// SignIn authenticates and opens a session bound to a signed token.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	s := g.sessions.begin()

	id, err := g.provider.Authenticate(ctx, email, password)
	if err != nil {
		s.reset()
		return nil, err
	}
	if err := g.sessions.establish(ctx, s, id.UID); err != nil {
		return nil, err
	}

	token, expiresAt, err := auth.Issue(g.tokens, id.UID, s.ID, id.Email, g.now())
	if err != nil {
		_ = g.provider.SignOut(ctx, id.UID, s.ID)
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &SignInResult{Session: s, Token: token, ExpiresAt: expiresAt}, nil
}

// SignOut ends sessionID. The cached profile is cleared before SignOut
// returns.
func (g *Gateway) SignOut(ctx context.Context, uid, sessionID string) error {
	if err := g.provider.SignOut(ctx, uid, sessionID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ChangePassword re-authenticates with current before accepting next.
func (g *Gateway) ChangePassword(ctx context.Context, uid, current, next string) error {
	return g.provider.ChangePassword(ctx, uid, current, next)
}

// Resume returns the authenticated session sessionID.
func (g *Gateway) Resume(ctx context.Context, sessionID string) (*Session, error) {
	return g.sessions.Resume(ctx, sessionID)
}

// Profile reads uid's profile.
func (g *Gateway) Profile(ctx context.Context, uid string) (*Profile, error) {
	profile, err := g.profiles.GetProfile(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.Wrap(apperr.KindNotFound, "profile not found", ErrProfileNotFound)
	}
	return profile, nil
}

// UpdateProfile merges update into the stored profile. A changed display name
// is copied to the identity record and cached sessions see the merge.
func (g *Gateway) UpdateProfile(ctx context.Context, uid string, update ProfileUpdate) (*Profile, error) {
	update, err := update.normalize()
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return g.Profile(ctx, uid)
	}

	profile, err := g.profiles.UpdateProfile(ctx, uid, update)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "profile not found", err)
		}
		return nil, apperr.Wrap(apperr.KindWrite, "failed to update profile", err)
	}
	if update.DisplayName != nil {
		if err := g.provider.UpdateDisplayName(ctx, uid, *update.DisplayName); err != nil {
			return nil, apperr.Wrap(apperr.KindWrite, "failed to update profile", err)
		}
	}

	g.sessions.mergeProfile(uid, update)
	return profile, nil
}

// UploadAvatar stores a square PNG of the uploaded image and points the
// profile photo at it.
func (g *Gateway) UploadAvatar(ctx context.Context, uid string, r io.Reader) (*Profile, error) {
	if g.blobs == nil {
		return nil, apperr.New(apperr.KindWrite, "avatar uploads are not configured")
	}

	encoded, err := processAvatar(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "unsupported image", err)
	}

	path := AvatarPath(uid)
	if err := g.blobs.Upload(ctx, path, bytes.NewReader(encoded), "image/png"); err != nil {
		return nil, apperr.Wrap(apperr.KindWrite, "failed to upload image", err)
	}
	url, err := g.blobs.DownloadURL(ctx, path)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindWrite, "failed to upload image", err)
	}

	return g.UpdateProfile(ctx, uid, ProfileUpdate{PhotoURL: &url})
}
