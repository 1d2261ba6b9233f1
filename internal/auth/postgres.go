package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. Raw token lookups hit the
// unique index on refresh_tokens.token; rotation and revocation are guarded
// updates so concurrent consumers of the same token serialize on the row.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, created_at, last_login_at, updated_at`

func (s *PGStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, username, email, first_name, last_name, password_hash, is_active, created_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Active, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *PGStore) UserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *PGStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1`, username)
	return scanUser(row)
}

func (s *PGStore) UserByRefreshToken(ctx context.Context, token string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.is_active, u.created_at, u.last_login_at, u.updated_at
		 from users u join refresh_tokens rt on rt.user_id = u.id
		 where rt.token=$1`, token)
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokensByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.RefreshTokens = tokens
	return user, nil
}

func (s *PGStore) SaveLogin(ctx context.Context, tok *RefreshToken, loginAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertToken(ctx, tx, tok); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`update users set last_login_at=$1 where id=$2`, loginAt, tok.UserID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) RotateRefreshToken(ctx context.Context, old string, successor *RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The revoked_at guard is what serializes racing refreshes: only one
	// transaction gets to flip the row, the rest see zero rows updated.
	res, err := tx.ExecContext(ctx,
		`update refresh_tokens set revoked_at=$1, revoked_by_ip=$2, replaced_by=$3
		 where token=$4 and revoked_at is null`,
		successor.CreatedAt, successor.CreatedByIP, successor.Token, old,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	if err := insertToken(ctx, tx, successor); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) RevokeRefreshToken(ctx context.Context, value string, revokedAt time.Time, revokedByIP string) error {
	res, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked_at=$1, revoked_by_ip=$2
		 where token=$3 and revoked_at is null`,
		revokedAt, revokedByIP, value,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) tokensByUser(ctx context.Context, userID string) ([]RefreshToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, user_id, token, created_at, expires_at, created_by_ip, revoked_at, revoked_by_ip, replaced_by
		 from refresh_tokens where user_id=$1 order by created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []RefreshToken
	for rows.Next() {
		var (
			t           RefreshToken
			revokedAt   sql.NullTime
			revokedByIP sql.NullString
			replacedBy  sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.CreatedByIP,
			&revokedAt, &revokedByIP, &replacedBy); err != nil {
			return nil, err
		}
		if revokedAt.Valid {
			at := revokedAt.Time
			t.RevokedAt = &at
		}
		t.RevokedByIP = revokedByIP.String
		t.ReplacedBy = replacedBy.String
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u           User
		lastLoginAt sql.NullTime
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Active, &u.CreatedAt, &lastLoginAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastLoginAt.Valid {
		at := lastLoginAt.Time
		u.LastLoginAt = &at
	}
	if updatedAt.Valid {
		at := updatedAt.Time
		u.UpdatedAt = &at
	}
	return &u, nil
}

func insertToken(ctx context.Context, tx *sql.Tx, tok *RefreshToken) error {
	_, err := tx.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token, created_at, expires_at, created_by_ip)
		 values($1,$2,$3,$4,$5,$6)`,
		tok.ID, tok.UserID, tok.Token, tok.CreatedAt, tok.ExpiresAt, tok.CreatedByIP,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
