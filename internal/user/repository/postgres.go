package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"phone-otp-auth/internal/user/domain"
)

const uniqueViolation = "23505"

const userColumns = `id, phone, country_code, state, is_blocked, created_at, updated_at`

// pool is the subset of pgxpool.Pool the repository needs; pgxmock satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	pool pool
	nowF func() time.Time
}

// NewPostgresRepository returns a user repository backed by the given pool.
func NewPostgresRepository(p pool) *PostgresRepository {
	return &PostgresRepository{pool: p, nowF: func() time.Time { return time.Now().UTC() }}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.With("operation", "get user by id").With("user_id", id).Wrap(err)
	}
	return u, nil
}

// GetByPhone returns the user with the given normalized phone, or nil if not found.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.With("operation", "get user by phone").Wrap(err)
	}
	return u, nil
}

// Create inserts u. A concurrent insert of the same phone yields ErrPhoneTaken.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return oops.With("operation", "create user").Wrap(err)
	}
	now := r.nowF()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Phone, u.CountryCode, u.State.String(), u.Blocked, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrPhoneTaken
		}
		return oops.With("operation", "create user").With("user_id", u.ID).Wrap(err)
	}
	return nil
}

// SetState updates the verification state of the user.
func (r *PostgresRepository) SetState(ctx context.Context, userID string, state domain.VerificationState) error {
	if !state.Valid() {
		return oops.With("operation", "set user state").Errorf("invalid state %s", state)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET state = $2, updated_at = $3 WHERE id = $1`,
		userID, state.String(), r.nowF())
	if err != nil {
		return oops.With("operation", "set user state").With("user_id", userID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBlocked sets or clears the blocked flag for the user with the given phone.
func (r *PostgresRepository) SetBlocked(ctx context.Context, phone string, blocked bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_blocked = $2, updated_at = $3 WHERE phone = $1`,
		phone, blocked, r.nowF())
	if err != nil {
		return oops.With("operation", "set user blocked").With("blocked", blocked).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u     domain.User
		state string
	)
	if err := row.Scan(&u.ID, &u.Phone, &u.CountryCode, &state, &u.Blocked, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	s, err := domain.ParseVerificationState(state)
	if err != nil {
		return nil, err
	}
	u.State = s
	return &u, nil
}
