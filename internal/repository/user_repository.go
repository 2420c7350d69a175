package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/contact-book/internal/model"
	"github.com/iliyamo/contact-book/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userCols = "id,email,username,password_hash,role,confirmed,refresh_token_hash,avatar,created_at,updated_at"

// Create inserts a new unconfirmed user and returns its ID. The password
// is hashed here; the avatar defaults to the email's Gravatar image.
func (r *UserRepo) Create(ctx context.Context, email, username, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, role, avatar) VALUES (?,?,?,?,?)",
		email, username, hash, role, utils.GravatarURL(email))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email. Absence surfaces as
// sql.ErrNoRows; callers decide how to report it.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var (
		u    model.User
		hash sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.Confirmed,
		&hash, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if hash.Valid {
		u.RefreshTokenHash = &hash.String
	}
	return u, nil
}

// UpdateRefreshToken records the digest of the latest issued refresh token,
// making it the only valid one for this user. Passing nil clears the
// stored digest and forces a full re-login.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, email string, tokenHash *string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token_hash=? WHERE email=?",
		tokenHash, strings.ToLower(strings.TrimSpace(email)))
	return err
}

// ConfirmEmail flips the confirmed flag. Confirming an already confirmed
// account is a no-op.
func (r *UserRepo) ConfirmEmail(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET confirmed=1 WHERE email=?",
		strings.ToLower(strings.TrimSpace(email)))
	return err
}

// UpdateAvatar stores a new avatar URL and returns the updated user.
func (r *UserRepo) UpdateAvatar(ctx context.Context, email, url string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar=? WHERE email=?", url, email); err != nil {
		return model.User{}, err
	}
	return r.GetByEmail(ctx, email)
}
