package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quiz-desk/internal/quiz"
)

func (s *Store) CreateUser(ctx context.Context, in quiz.NewUser) (quiz.User, error) {
	hash, err := quiz.HashPassword(in.Password)
	if err != nil {
		return quiz.User{}, err
	}
	role := in.Role
	if role == "" {
		role = quiz.RoleUser
	}
	user := quiz.User{
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (username, password_hash, role, active, created_at_unix) VALUES (?, ?, ?, 1, ?)`,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return quiz.User{}, quiz.ErrUsernameTaken
		}
		return quiz.User{}, fmt.Errorf("insert user: %w", err)
	}
	if user.ID, err = res.LastInsertId(); err != nil {
		return quiz.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (quiz.User, error) {
	var (
		user          quiz.User
		role          string
		createdAtUnix int64
		lastLoginUnix sql.NullInt64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, username, password_hash, role, active, created_at_unix, last_login_unix
		 FROM users WHERE username = ?`,
		strings.TrimSpace(username),
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.Active, &createdAtUnix, &lastLoginUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.User{}, quiz.ErrUserNotFound
		}
		return quiz.User{}, fmt.Errorf("get user: %w", err)
	}

	user.Role = quiz.Role(role)
	user.CreatedAt = unixOrZero(createdAtUnix)
	if lastLoginUnix.Valid {
		lastLogin := unixOrZero(lastLoginUnix.Int64)
		user.LastLogin = &lastLogin
	}
	return user, nil
}

// Authenticate runs exactly one bcrypt comparison whichever way it fails, so
// response time does not reveal whether the username exists.
func (s *Store) Authenticate(ctx context.Context, username, password string) (quiz.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, quiz.ErrUserNotFound):
		quiz.CheckPassword("", password)
		return quiz.User{}, quiz.ErrInvalidCredentials
	case err != nil:
		return quiz.User{}, err
	}

	if !quiz.CheckPassword(user.PasswordHash, password) || !user.Active {
		return quiz.User{}, quiz.ErrInvalidCredentials
	}

	now := s.now().UTC()
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_unix = ? WHERE id = ?`, now.UnixNano(), user.ID); err != nil {
		return quiz.User{}, fmt.Errorf("record login: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID int64, password string) error {
	hash, err := quiz.HashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, quiz.ErrUserNotFound)
}

// SetUserActive enables or disables login for an account.
func (s *Store) SetUserActive(ctx context.Context, userID int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE id = ?`, active, userID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res, quiz.ErrUserNotFound)
}
