package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

const teacherSessionTTL = 12 * time.Hour

// CreateTeacherSession issues a new teacher session token. The token is what
// the passphrase gate hands out; it carries no user identity because the gate
// is a single shared passphrase, not an account system.
func (s *SQLite) CreateTeacherSession() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO teacher_sessions (id, created_at, expires_at) VALUES (?, ?, ?)`,
		token, now, now.Add(teacherSessionTTL),
	)
	if err != nil {
		return "", fmt.Errorf("create teacher session: %w", err)
	}
	return token, nil
}

// ValidTeacherSession reports whether the token names a live session.
// Expired sessions are removed as a side effect.
func (s *SQLite) ValidTeacherSession(token string) (bool, error) {
	var expiresAt time.Time
	err := s.db.QueryRow(
		`SELECT expires_at FROM teacher_sessions WHERE id = ?`, token,
	).Scan(&expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if time.Now().After(expiresAt) {
		_ = s.DeleteTeacherSession(token)
		return false, nil
	}
	return true, nil
}

// DeleteTeacherSession removes a session token.
func (s *SQLite) DeleteTeacherSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM teacher_sessions WHERE id = ?`, token)
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
