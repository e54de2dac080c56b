package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
)

const accountColumns = `
	id, email, nickname, password_hash,
	email_verified, email_check_token, email_check_token_generated_at, joined_at,
	bio, url, occupation, location, profile_image,
	study_created_by_web, study_created_by_email,
	study_updated_by_web, study_updated_by_email,
	enrollment_result_by_web, enrollment_result_by_email,
	created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	err := row.Scan(
		&a.ID, &a.Email, &a.Nickname, &a.PasswordHash,
		&a.EmailVerified, &a.EmailCheckToken, &a.EmailCheckTokenGeneratedAt, &a.JoinedAt,
		&a.Bio, &a.URL, &a.Occupation, &a.Location, &a.ProfileImage,
		&a.StudyCreatedByWeb, &a.StudyCreatedByEmail,
		&a.StudyUpdatedByWeb, &a.StudyUpdatedByEmail,
		&a.EnrollmentResultByWeb, &a.EnrollmentResultByEmail,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// conflictField maps a unique-violation error to the colliding account field.
func conflictField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	case strings.Contains(pgErr.ConstraintName, "nickname"):
		return "nickname", true
	}
	return "", false
}

func (r *AccountRepository) Save(ctx context.Context, a *entity.Account) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (
			email, nickname, password_hash,
			email_verified, email_check_token, email_check_token_generated_at,
			bio, url, occupation, location, profile_image,
			study_created_by_web, study_created_by_email,
			study_updated_by_web, study_updated_by_email,
			enrollment_result_by_web, enrollment_result_by_email
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at
	`,
		a.Email, a.Nickname, a.PasswordHash,
		a.EmailVerified, a.EmailCheckToken, a.EmailCheckTokenGeneratedAt,
		a.Bio, a.URL, a.Occupation, a.Location, a.ProfileImage,
		a.StudyCreatedByWeb, a.StudyCreatedByEmail,
		a.StudyUpdatedByWeb, a.StudyUpdatedByEmail,
		a.EnrollmentResultByWeb, a.EnrollmentResultByEmail,
	)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if field, ok := conflictField(err); ok {
			return &repository.ConflictError{Field: field}
		}
		return err
	}
	return nil
}

func (r *AccountRepository) Update(ctx context.Context, a *entity.Account) error {
	a.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE accounts SET
			email = $1, nickname = $2, password_hash = $3,
			email_verified = $4, email_check_token = $5, email_check_token_generated_at = $6, joined_at = $7,
			bio = $8, url = $9, occupation = $10, location = $11, profile_image = $12,
			study_created_by_web = $13, study_created_by_email = $14,
			study_updated_by_web = $15, study_updated_by_email = $16,
			enrollment_result_by_web = $17, enrollment_result_by_email = $18,
			updated_at = $19
		WHERE id = $20
	`,
		a.Email, a.Nickname, a.PasswordHash,
		a.EmailVerified, a.EmailCheckToken, a.EmailCheckTokenGeneratedAt, a.JoinedAt,
		a.Bio, a.URL, a.Occupation, a.Location, a.ProfileImage,
		a.StudyCreatedByWeb, a.StudyCreatedByEmail,
		a.StudyUpdatedByWeb, a.StudyUpdatedByEmail,
		a.EnrollmentResultByWeb, a.EnrollmentResultByEmail,
		a.UpdatedAt, a.ID,
	)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return &repository.ConflictError{Field: field}
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
}

func (r *AccountRepository) FindByNickname(ctx context.Context, nickname string) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE nickname = $1`, nickname))
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE nickname = $1)`, nickname).Scan(&exists)
	return exists, err
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n)
	return n, err
}

func (r *AccountRepository) AddTag(ctx context.Context, accountID, tagID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_tags (account_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, accountID, tagID)
	return err
}

func (r *AccountRepository) RemoveTag(ctx context.Context, accountID, tagID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM account_tags WHERE account_id = $1 AND tag_id = $2`, accountID, tagID)
	return err
}

func (r *AccountRepository) ListTags(ctx context.Context, accountID string) ([]entity.Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.title
		FROM tags t
		JOIN account_tags at ON at.tag_id = t.id
		WHERE at.account_id = $1
		ORDER BY t.title
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []entity.Tag
	for rows.Next() {
		var t entity.Tag
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *AccountRepository) AddZone(ctx context.Context, accountID, zoneID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_zones (account_id, zone_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, accountID, zoneID)
	return err
}

func (r *AccountRepository) RemoveZone(ctx context.Context, accountID, zoneID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM account_zones WHERE account_id = $1 AND zone_id = $2`, accountID, zoneID)
	return err
}

func (r *AccountRepository) ListZones(ctx context.Context, accountID string) ([]entity.Zone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT z.id, z.city, z.local_name, z.province
		FROM zones z
		JOIN account_zones az ON az.zone_id = z.id
		WHERE az.account_id = $1
		ORDER BY z.city
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []entity.Zone
	for rows.Next() {
		var z entity.Zone
		if err := rows.Scan(&z.ID, &z.City, &z.LocalName, &z.Province); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
