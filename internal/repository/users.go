// Package repository provides the PostgreSQL persistence of the development
// backend: users, session tokens and password reset codes.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vidyasetu/vidyasetu/internal/models"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("not found")

const userColumns = `id, role, name, email, contact_number, whatsapp_number, address,
       profile_photo, qualifications, subject, coaching_name, coaching_id`

// PostgresUserRepository implements user, session and reset code storage.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a repository over db.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, extra ...any) (models.User, error) {
	var u models.User
	var role string
	dest := append([]any{
		&u.ID, &role, &u.Name, &u.Email, &u.ContactNumber, &u.WhatsappNumber, &u.Address,
		&u.ProfilePhoto, &u.Qualifications, &u.Subject, &u.CoachingName, &u.CoachingID,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	u.Role = models.Role(role)
	return u, nil
}

// FindByIdentifier looks a user up by id or, case-insensitively, by e-mail.
// An id match wins over an e-mail match.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.Account, error) {
	var hash string
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`, password_hash
		  FROM users
		 WHERE id = $1 OR (email <> '' AND lower(email) = lower($1))
		 ORDER BY (id = $1) DESC
		 LIMIT 1
	`, identifier)
	u, err := scanUser(row, &hash)
	if err != nil {
		return models.Account{}, fmt.Errorf("FindByIdentifier: %w", err)
	}
	return models.Account{User: u, PasswordHash: hash}, nil
}

// FindByID returns the user with id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, fmt.Errorf("FindByID: %w", err)
	}
	return u, nil
}

// CreateUser inserts acct unless its id is taken.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, acct models.Account) error {
	u := acct.User
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, name, contact_number,
		                   whatsapp_number, address, profile_photo, qualifications,
		                   subject, coaching_name, coaching_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT DO NOTHING
	`, u.ID, u.Email, acct.PasswordHash, string(u.Role), u.Name, u.ContactNumber,
		u.WhatsappNumber, u.Address, u.ProfilePhoto, u.Qualifications,
		u.Subject, u.CoachingName, u.CoachingID)
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// UpdateProfile overwrites every profile column of u.ID. Id, role, e-mail
// and password are left alone.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, u models.User) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users
		   SET name = $2, contact_number = $3, whatsapp_number = $4, address = $5,
		       profile_photo = $6, qualifications = $7, subject = $8,
		       coaching_name = $9, coaching_id = $10
		 WHERE id = $1
	`, u.ID, u.Name, u.ContactNumber, u.WhatsappNumber, u.Address,
		u.ProfilePhoto, u.Qualifications, u.Subject, u.CoachingName, u.CoachingID)
	return affectedOne("UpdateProfile", res, err)
}

// UpdatePassword replaces the password hash of the user with email.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, email, hash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE email <> '' AND lower(email) = lower($1)
	`, email, hash)
	return affectedOne("UpdatePassword", res, err)
}

// CreateSession records token as belonging to userID.
func (r *PostgresUserRepository) CreateSession(ctx context.Context, token, userID string) error {
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id) VALUES ($1, $2)`, token, userID); err != nil {
		return fmt.Errorf("CreateSession: %w", err)
	}
	return nil
}

// UserIDForToken resolves a bearer token.
func (r *PostgresUserRepository) UserIDForToken(ctx context.Context, token string) (string, error) {
	var id string
	err := r.DB.QueryRowContext(ctx, `SELECT user_id FROM sessions WHERE token = $1`, token).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("UserIDForToken: %w", err)
	}
	return id, nil
}

// SaveResetCode stores the latest code for email, replacing any earlier one.
func (r *PostgresUserRepository) SaveResetCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO password_resets (email, code, expires_at)
		VALUES (lower($1), $2, $3)
		ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at
	`, email, code, expiresAt)
	if err != nil {
		return fmt.Errorf("SaveResetCode: %w", err)
	}
	return nil
}

// ConsumeResetCode deletes the code if it matches and has not expired at
// now. It reports whether a code was consumed.
func (r *PostgresUserRepository) ConsumeResetCode(ctx context.Context, email, code string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM password_resets WHERE email = lower($1) AND code = $2 AND expires_at > $3
	`, email, code, now)
	if err != nil {
		return false, fmt.Errorf("ConsumeResetCode: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ConsumeResetCode: %w", err)
	}
	return n == 1, nil
}

func affectedOne(op string, res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
