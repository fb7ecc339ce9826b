package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// AuthService handles end-user login and self-registration.
type AuthService struct {
	users  UserRepository
	logger *slog.Logger
}

func NewAuthService(users UserRepository, opts ...ServiceOption) *AuthService {
	o := buildOptions(opts)
	return &AuthService{users: users, logger: o.logger}
}

// Login never distinguishes a malformed username from a wrong password.
func (s *AuthService) Login(ctx context.Context, username, password string) (User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	user, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logger.Info("login failed", "username", username)
		}
		return User{}, err
	}
	s.logger.Info("login succeeded", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (User, error) {
	if err := ValidateCredentials(username, password); err != nil {
		return User{}, err
	}
	user, err := s.users.CreateUser(ctx, NewUser{Username: username, Password: password, Role: RoleUser})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// ChangePassword requires the current password.
func (s *AuthService) ChangePassword(ctx context.Context, username, current, next string) error {
	user, err := s.Login(ctx, username, current)
	if err != nil {
		return err
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, next); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}
