package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vannoorsab/visionEndeavorius/internal/identity"
)

const uniqueViolation = "23505"

const profileColumns = `uid, email, display_name, photo_url, date_of_birth, interests, joined_activities, completed_activities`

// CreateProfile inserts a profile document.
func (s *Store) CreateProfile(ctx context.Context, p identity.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+profileColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.UID, p.Email, p.DisplayName, p.PhotoURL, p.DateOfBirth,
		nonNil(p.Interests), nonNil(p.JoinedActivities), nonNil(p.CompletedActivities),
	)
	return err
}

// GetProfile returns the profile for uid, or nil when absent.
func (s *Store) GetProfile(ctx context.Context, uid string) (*identity.Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE uid = $1`, uid)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile writes only the fields set in update.
func (s *Store) UpdateProfile(ctx context.Context, uid string, update identity.ProfileUpdate) (*identity.Profile, error) {
	sets := make([]string, 0, 5)
	args := []interface{}{uid}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.DisplayName != nil {
		add("display_name", *update.DisplayName)
	}
	if update.PhotoURL != nil {
		add("photo_url", *update.PhotoURL)
	}
	if update.DateOfBirth != nil {
		add("date_of_birth", *update.DateOfBirth)
	}
	if update.Interests != nil {
		add("interests", nonNil(*update.Interests))
	}
	sets = append(sets, "updated_at = NOW()")

	row := s.pool.QueryRow(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE uid = $1 RETURNING `+profileColumns,
		args...,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateCredential inserts an identity row.
func (s *Store) CreateCredential(ctx context.Context, cred identity.Credential) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO identities (uid, email, display_name, password_hash) VALUES ($1,$2,$3,$4)`,
		cred.UID, cred.Email, cred.DisplayName, cred.PasswordHash,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return identity.ErrEmailTaken
	}
	return err
}

// CredentialByEmail looks an identity up by email, case-insensitively.
func (s *Store) CredentialByEmail(ctx context.Context, email string) (*identity.Credential, error) {
	return s.credential(ctx, `lower(email) = lower($1)`, email)
}

// CredentialByUID looks an identity up by uid.
func (s *Store) CredentialByUID(ctx context.Context, uid string) (*identity.Credential, error) {
	return s.credential(ctx, `uid = $1`, uid)
}

func (s *Store) credential(ctx context.Context, where string, arg string) (*identity.Credential, error) {
	var cred identity.Credential
	err := s.pool.QueryRow(ctx,
		`SELECT uid, email, display_name, password_hash FROM identities WHERE `+where, arg,
	).Scan(&cred.UID, &cred.Email, &cred.DisplayName, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, uid string, hash []byte) error {
	return s.updateIdentity(ctx, `password_hash = $2`, uid, hash)
}

// UpdateDisplayName replaces the identity display name.
func (s *Store) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	return s.updateIdentity(ctx, `display_name = $2`, uid, displayName)
}

// DeleteCredential removes the identity row of uid.
func (s *Store) DeleteCredential(ctx context.Context, uid string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM identities WHERE uid = $1`, uid)
	return err
}

func (s *Store) updateIdentity(ctx context.Context, set string, uid string, value interface{}) error {
	tag, err := s.pool.Exec(ctx, `UPDATE identities SET `+set+`, updated_at = NOW() WHERE uid = $1`, uid, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrProfileNotFound
	}
	return nil
}

func scanProfile(row pgx.Row) (identity.Profile, error) {
	var p identity.Profile
	err := row.Scan(&p.UID, &p.Email, &p.DisplayName, &p.PhotoURL, &p.DateOfBirth, &p.Interests, &p.JoinedActivities, &p.CompletedActivities)
	return p, err
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
