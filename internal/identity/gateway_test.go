package identity_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/blob"
	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/persistence/memory"
	"github.com/vannoorsab/visionEndeavorius/libs/go/auth"
)

var testTokens = auth.Config{Secret: "test-secret", Issuer: "test", TTL: time.Hour}

type harness struct {
	store    *memory.Store
	sessions *memory.SessionStore
	provider *identity.LocalProvider
	blobs    *blob.Memory
	gateway  *identity.Gateway
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    memory.NewStore(),
		sessions: memory.NewSessionStore(),
		blobs:    blob.NewMemory("http://blobs.local"),
	}
	h.provider = identity.NewLocalProvider(h.store, bcrypt.MinCost)
	manager := identity.NewSessions(h.provider, h.sessions, h.store, testTokens.TTL, nil)
	t.Cleanup(manager.Close)
	h.gateway = identity.NewGateway(h.provider, h.store, manager, testTokens, identity.WithBlobStore(h.blobs))
	return h
}

func readyProfile(t *testing.T, s *identity.Session) identity.Profile {
	t.Helper()
	ready, ok := s.Profile().(identity.Ready)
	require.True(t, ok, "expected ready profile, got %T", s.Profile())
	return ready.Profile
}

func TestSignUpCreatesProfileWithDefaultName(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	profile, err := h.gateway.SignUp(ctx, "Alice@Example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", profile.Email)
	require.Equal(t, "alice", profile.DisplayName)
	require.Empty(t, profile.Interests)
	require.Empty(t, profile.JoinedActivities)

	stored, err := h.store.GetProfile(ctx, profile.UID)
	require.NoError(t, err)
	require.Equal(t, "alice", stored.DisplayName)

	cred, err := h.store.CredentialByUID(ctx, profile.UID)
	require.NoError(t, err)
	require.Equal(t, "alice", cred.DisplayName)
}

func TestSignUpRejectsDuplicateAndWeakPassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	first, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = h.gateway.SignUp(ctx, "alice@example.com", "another1")
	require.True(t, apperr.Is(err, apperr.KindIdentity))
	require.ErrorIs(t, err, identity.ErrEmailTaken)

	cred, err := h.store.CredentialByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, first.UID, cred.UID)

	_, err = h.gateway.SignUp(ctx, "bob@example.com", "123")
	require.True(t, apperr.Is(err, apperr.KindIdentity))
}

func TestSignInDoesNotRevealWhichCredentialFailed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := h.gateway.SignIn(ctx, "alice@example.com", "nope-nope")
	_, unknownEmail := h.gateway.SignIn(ctx, "nobody@example.com", "secret1")

	require.True(t, apperr.Is(wrongPassword, apperr.KindAuthentication))
	require.True(t, apperr.Is(unknownEmail, apperr.KindAuthentication))
	require.Equal(t, apperr.Message(wrongPassword), apperr.Message(unknownEmail))
}

func TestSignInEstablishesSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	result, err := h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, identity.StateAuthenticated, result.Session.State())
	require.Equal(t, profile.UID, result.Session.UID())
	require.Equal(t, "alice", readyProfile(t, result.Session).DisplayName)

	claims, err := auth.Parse(result.Token, testTokens)
	require.NoError(t, err)
	require.Equal(t, profile.UID, claims.Subject)
	require.Equal(t, result.Session.ID, claims.SessionID)

	resumed, err := h.gateway.Resume(ctx, result.Session.ID)
	require.NoError(t, err)
	require.Same(t, result.Session, resumed)
}

func TestSignOutClearsCachedProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	result, err := h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, h.gateway.SignOut(ctx, result.Session.UID(), result.Session.ID))

	require.Equal(t, identity.StateAnonymous, result.Session.State())
	require.IsType(t, identity.Unauthenticated{}, result.Session.Profile())

	_, err = h.gateway.Resume(ctx, result.Session.ID)
	require.True(t, apperr.Is(err, apperr.KindAuthentication))
}

func TestProviderSessionLossEndsEverySession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	first, err := h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	second, err := h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, h.provider.SignOut(ctx, profile.UID, ""))

	for _, s := range []*identity.Session{first.Session, second.Session} {
		require.Equal(t, identity.StateAnonymous, s.State())
		_, err := h.gateway.Resume(ctx, s.ID)
		require.Error(t, err)
	}
}

func TestResumeAfterRestart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	result, err := h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	restarted := identity.NewSessions(h.provider, h.sessions, h.store, testTokens.TTL, nil)
	t.Cleanup(restarted.Close)

	s, err := restarted.Resume(ctx, result.Session.ID)
	require.NoError(t, err)
	require.Equal(t, identity.StateAuthenticated, s.State())
	require.Equal(t, "alice", readyProfile(t, s).DisplayName)
}

func TestChangePasswordRequiresCurrentPassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	err = h.gateway.ChangePassword(ctx, profile.UID, "wrong-one", "brandnew1")
	require.True(t, apperr.Is(err, apperr.KindReauthentication))
	_, err = h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	err = h.gateway.ChangePassword(ctx, profile.UID, "secret1", "123")
	require.True(t, apperr.Is(err, apperr.KindIdentity))

	require.NoError(t, h.gateway.ChangePassword(ctx, profile.UID, "secret1", "brandnew1"))
	_, err = h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.True(t, apperr.Is(err, apperr.KindAuthentication))
	_, err = h.gateway.SignIn(ctx, "alice@example.com", "brandnew1")
	require.NoError(t, err)
}

func TestUpdateProfileMergesAndPropagates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	result, err := h.gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	uid := result.Session.UID()

	name := "  Alice Doe "
	dob := "1990-05-17"
	interests := []string{"health", "Environment", "health"}
	updated, err := h.gateway.UpdateProfile(ctx, uid, identity.ProfileUpdate{
		DisplayName: &name,
		DateOfBirth: &dob,
		Interests:   &interests,
	})
	require.NoError(t, err)
	require.Equal(t, "Alice Doe", updated.DisplayName)
	require.Equal(t, "1990-05-17", updated.DateOfBirth)
	require.Equal(t, []string{"environment", "health"}, updated.Interests)
	require.Equal(t, "alice@example.com", updated.Email)

	cached := readyProfile(t, result.Session)
	require.Equal(t, "Alice Doe", cached.DisplayName)
	require.Equal(t, []string{"environment", "health"}, cached.Interests)

	cred, err := h.store.CredentialByUID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "Alice Doe", cred.DisplayName)

	onlyDOB := "1991-01-01"
	updated, err = h.gateway.UpdateProfile(ctx, uid, identity.ProfileUpdate{DateOfBirth: &onlyDOB})
	require.NoError(t, err)
	require.Equal(t, "Alice Doe", updated.DisplayName)
	require.Equal(t, []string{"environment", "health"}, updated.Interests)
}

func TestUpdateProfileValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	blank := "   "
	_, err = h.gateway.UpdateProfile(ctx, profile.UID, identity.ProfileUpdate{DisplayName: &blank})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	badDate := "17/05/1990"
	_, err = h.gateway.UpdateProfile(ctx, profile.UID, identity.ProfileUpdate{DateOfBirth: &badDate})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	unknown := []string{"space"}
	_, err = h.gateway.UpdateProfile(ctx, profile.UID, identity.ProfileUpdate{Interests: &unknown})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	name := "Ghost"
	_, err = h.gateway.UpdateProfile(ctx, "missing", identity.ProfileUpdate{DisplayName: &name})
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	src := image.NewRGBA(image.Rect(0, 0, 120, 60))
	for x := 0; x < 120; x++ {
		for y := 0; y < 60; y++ {
			src.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	updated, err := h.gateway.UploadAvatar(ctx, profile.UID, &buf)
	require.NoError(t, err)
	require.Equal(t, "http://blobs.local/profileImages/"+profile.UID+"?v=1", updated.PhotoURL)

	data, contentType, ok := h.blobs.Object(identity.AvatarPath(profile.UID))
	require.True(t, ok)
	require.Equal(t, "image/png", contentType)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 512, img.Bounds().Dx())
	require.Equal(t, 512, img.Bounds().Dy())

	_, err = h.gateway.UploadAvatar(ctx, profile.UID, bytes.NewReader([]byte("not an image")))
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUploadAvatarRejectsOversizedDimensions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	profile, err := h.gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	// Compresses to a few hundred bytes but would decode to a huge bitmap.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4097, 1))))

	_, err = h.gateway.UploadAvatar(ctx, profile.UID, &buf)
	require.True(t, apperr.Is(err, apperr.KindValidation))
	_, _, ok := h.blobs.Object(identity.AvatarPath(profile.UID))
	require.False(t, ok)
}

type flakyProfiles struct {
	*memory.Store
	failCreate int
}

func (f *flakyProfiles) CreateProfile(ctx context.Context, p identity.Profile) error {
	if f.failCreate > 0 {
		f.failCreate--
		return errors.New("store unavailable")
	}
	return f.Store.CreateProfile(ctx, p)
}

func TestSignUpRollsBackCredentialWhenProfileWriteFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	profiles := &flakyProfiles{Store: store, failCreate: 1}
	provider := identity.NewLocalProvider(store, bcrypt.MinCost)
	manager := identity.NewSessions(provider, memory.NewSessionStore(), profiles, testTokens.TTL, nil)
	t.Cleanup(manager.Close)
	gateway := identity.NewGateway(provider, profiles, manager, testTokens)

	_, err := gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.True(t, apperr.Is(err, apperr.KindWrite))

	cred, err := store.CredentialByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Nil(t, cred)

	profile, err := gateway.SignUp(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "alice", profile.DisplayName)

	result, err := gateway.SignIn(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, profile.UID, readyProfile(t, result.Session).UID)
}
