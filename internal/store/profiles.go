package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devphaseX/assoc-api/internal/db"
	"github.com/lib/pq"
)

// Profile is a member of the student association.
type Profile struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Program     string    `json:"program"`
	YearOfStudy int       `json:"year_of_study"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	AvatarKey   string    `json:"-"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ProfileStore interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, profileID string) (*Profile, error)
	List(ctx context.Context, filter PaginateQueryFilter) ([]*Profile, Metadata, error)
	Update(ctx context.Context, profile *Profile) error
	// Delete removes the profile and returns the object key of its avatar, if any.
	Delete(ctx context.Context, profileID string) (string, error)
	// SetAvatar stores the new avatar reference and returns the key it replaced.
	SetAvatar(ctx context.Context, profileID, avatarURL, avatarKey string) (string, error)
}

type ProfileModel struct {
	db *sql.DB
}

func NewProfileModel(db *sql.DB) ProfileStore {
	return &ProfileModel{db}
}

const profileColumns = `id, first_name, last_name, email, program, year_of_study, bio,
	avatar_url, avatar_key, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, extra ...any) (*Profile, error) {
	var (
		profile   Profile
		avatarURL sql.NullString
		avatarKey sql.NullString
	)

	dest := append(extra,
		&profile.ID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Email,
		&profile.Program,
		&profile.YearOfStudy,
		&profile.Bio,
		&avatarURL,
		&avatarKey,
		&profile.Version,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	profile.AvatarURL = avatarURL.String
	profile.AvatarKey = avatarKey.String

	return &profile, nil
}

func mapProfileWriteError(err error) error {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.Constraint == "profiles_email_key" {
		return ErrDuplicateEmail
	}
	return err
}

func (m *ProfileModel) Create(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO profiles (id, first_name, last_name, email, program, year_of_study, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING version, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	id := db.GenerateULID()
	args := []any{id, profile.FirstName, profile.LastName, profile.Email, profile.Program, profile.YearOfStudy, profile.Bio}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&profile.Version, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if err := mapProfileWriteError(err); errors.Is(err, ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	profile.ID = id
	return nil
}

func (m *ProfileModel) GetByID(ctx context.Context, profileID string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	profile, err := scanProfile(m.db.QueryRowContext(ctx, query, profileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	return profile, nil
}

func (m *ProfileModel) List(ctx context.Context, filter PaginateQueryFilter) ([]*Profile, Metadata, error) {
	query := fmt.Sprintf(`
		SELECT count(*) OVER(), %s
		FROM profiles
		WHERE ($1 = '' OR first_name ILIKE '%%' || $1 || '%%'
			OR last_name ILIKE '%%' || $1 || '%%'
			OR email ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3
	`, profileColumns, filter.SortColumn(), filter.SortDirection())

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := m.db.QueryContext(ctx, query, filter.Search, filter.Limit(), filter.Offset())
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var (
		profiles     = []*Profile{}
		totalRecords int
	)

	for rows.Next() {
		profile, err := scanProfile(rows, &totalRecords)
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, Metadata{}, fmt.Errorf("error after iterating over profile rows: %w", err)
	}

	return profiles, calculateMetadata(totalRecords, filter.Page, filter.PageSize), nil
}

// Update writes the editable fields when profile.Version still matches the
// stored row, otherwise ErrEditConflict.
func (m *ProfileModel) Update(ctx context.Context, profile *Profile) error {
	query := `
		UPDATE profiles
		SET first_name = $1, last_name = $2, email = $3, program = $4, year_of_study = $5,
			bio = $6, version = version + 1, updated_at = now()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	args := []any{
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.Program,
		profile.YearOfStudy,
		profile.Bio,
		profile.ID,
		profile.Version,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&profile.Version, &profile.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		case errors.Is(mapProfileWriteError(err), ErrDuplicateEmail):
			return ErrDuplicateEmail
		default:
			return fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return nil
}

func (m *ProfileModel) Delete(ctx context.Context, profileID string) (string, error) {
	query := `DELETE FROM profiles WHERE id = $1 RETURNING avatar_key`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var avatarKey sql.NullString
	if err := m.db.QueryRowContext(ctx, query, profileID).Scan(&avatarKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("failed to delete profile: %w", err)
	}

	return avatarKey.String, nil
}

func (m *ProfileModel) SetAvatar(ctx context.Context, profileID, avatarURL, avatarKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var previousKey sql.NullString

	err := withTrx(m.db, ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT avatar_key FROM profiles WHERE id = $1 FOR UPDATE`,
			profileID,
		).Scan(&previousKey)

		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRecordNotFound
			}
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE profiles
			SET avatar_url = $1, avatar_key = $2, version = version + 1, updated_at = now()
			WHERE id = $3
		`, avatarURL, avatarKey, profileID)

		return err
	})

	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to set profile avatar: %w", err)
	}

	return previousKey.String, nil
}
