package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrUserExists is returned when a username or email is already taken
var ErrUserExists = errors.New("username or email already exists")

const userColumns = `user_id, username, email, password_hash, account_type, created_at, expires_at, last_login_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserRecord, error) {
	var u UserRecord
	var email sql.NullString
	err := row.Scan(
		&u.UserID, &u.Username, &email,
		&u.PasswordHash, &u.AccountType, &u.CreatedAt,
		&u.ExpiresAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	return &u, nil
}

// UserCounts returns the number of accounts by type
func (s *Store) UserCounts() (total, permanent int, err error) {
	query := `SELECT COUNT(*), COALESCE(SUM(CASE WHEN account_type = 'permanent' THEN 1 ELSE 0 END), 0) FROM users`
	err = s.db.QueryRow(query).Scan(&total, &permanent)
	return
}

// CreateUser inserts an account, checking uniqueness inside the transaction
func (s *Store) CreateUser(record UserRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`
	args := []any{record.Username}
	if record.Email != "" {
		query += ` OR email = ? COLLATE NOCASE`
		args = append(args, record.Email)
	}

	var count int
	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return fmt.Errorf("uniqueness check failed: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}

	var email any
	if record.Email != "" {
		email = record.Email
	}

	_, err = tx.Exec(`INSERT INTO users (
		user_id, username, email, password_hash, account_type, created_at, expires_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID, record.Username, email,
		record.PasswordHash, record.AccountType, record.CreatedAt, record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}

	return tx.Commit()
}

// GetUserByUsername matches case-insensitively
func (s *Store) GetUserByUsername(username string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username))
}

func (s *Store) GetUserByID(userID string) (*UserRecord, error) {
	return scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID))
}

// GetAllUsers lists accounts, newest first
func (s *Store) GetAllUsers() ([]UserRecord, error) {
	rows, err := s.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(userID, passwordHash string) error {
	return s.execAffectingOne(`UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userID)
}

func (s *Store) UpdateUserLastLogin(userID string, at time.Time) error {
	if _, err := s.db.Exec(`UPDATE users SET last_login_at = ? WHERE user_id = ?`, at, userID); err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", userID, err)
	}
	return nil
}

// DeleteUser removes an account and, by cascade, its session
func (s *Store) DeleteUser(userID string) error {
	return s.execAffectingOne(`DELETE FROM users WHERE user_id = ?`, userID)
}

// DeleteExpiredTempUsers removes temporary accounts past their expiry
func (s *Store) DeleteExpiredTempUsers() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM users WHERE account_type = 'temp' AND expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) execAffectingOne(query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
