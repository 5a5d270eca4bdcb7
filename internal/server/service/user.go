package service

import (
	"errors"
	"fmt"
	"time"

	"breakthrough/internal/server/storage"

	"github.com/google/uuid"
	"github.com/lixenwraith/auth"
)

// User is the public view of an account
type User struct {
	UserID      string
	Username    string
	Email       string
	AccountType string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
}

func userFromRecord(r *storage.UserRecord) *User {
	return &User{
		UserID:      r.UserID,
		Username:    r.Username,
		Email:       r.Email,
		AccountType: r.AccountType,
		CreatedAt:   r.CreatedAt,
		ExpiresAt:   r.ExpiresAt,
	}
}

// CreateUser registers an account. The first PermanentSlots accounts are
// permanent, later ones expire after TempUserTTL.
func (s *Service) CreateUser(username, email, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	total, permanent, err := s.store.UserCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if total >= MaxUsers {
		return nil, ErrUserLimit
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	record := storage.UserRecord{
		UserID:       uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		AccountType:  "permanent",
		CreatedAt:    now,
	}
	if permanent >= PermanentSlots {
		expires := now.Add(TempUserTTL)
		record.AccountType = "temp"
		record.ExpiresAt = &expires
	}

	if err := s.store.CreateUser(record); err != nil {
		return nil, err
	}

	return userFromRecord(&record), nil
}

// AuthenticateUser verifies credentials by username
func (s *Service) AuthenticateUser(username, password string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	record, err := s.store.GetUserByUsername(username)
	if err != nil {
		// Hash anyway so unknown users cost the same as wrong passwords
		auth.HashPassword(password)
		return nil, ErrInvalidCredential
	}

	if err := auth.VerifyPassword(password, record.PasswordHash); err != nil {
		return nil, ErrInvalidCredential
	}

	if err := s.store.UpdateUserLastLogin(record.UserID, time.Now().UTC()); err != nil {
		return nil, err
	}

	return userFromRecord(record), nil
}

func (s *Service) GetUserByID(userID string) (*User, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}

	record, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return userFromRecord(record), nil
}

// GenerateUserToken opens a session and returns a JWT carrying its ID
func (s *Service) GenerateUserToken(user *User) (string, error) {
	if s.store == nil {
		return "", ErrStorageDisabled
	}

	now := time.Now().UTC()
	session := storage.SessionRecord{
		SessionID: uuid.New().String(),
		UserID:    user.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionTTL),
	}
	if err := s.store.CreateSession(session); err != nil {
		return "", err
	}

	claims := map[string]any{
		"username": user.Username,
		"sid":      session.SessionID,
	}
	return auth.GenerateHS256Token(s.jwtSecret, user.UserID, claims, SessionTTL)
}

// ValidateToken verifies the signature and that the session is still open
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	userID, claims, err := auth.ValidateHS256Token(s.jwtSecret, token)
	if err != nil {
		return "", nil, err
	}

	if s.store != nil {
		sid, _ := claims["sid"].(string)
		ok, err := s.store.IsSessionValid(sid)
		if err != nil {
			return "", nil, fmt.Errorf("session lookup failed: %w", err)
		}
		if !ok {
			return "", nil, errors.New("session expired or revoked")
		}
	}

	return userID, claims, nil
}

// Logout closes the session named in the token claims
func (s *Service) Logout(claims map[string]any) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return errors.New("token carries no session")
	}
	return s.store.DeleteSession(sid)
}
