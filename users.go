package main

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/alexedwards/argon2id"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrUserExists = errors.New("email or username already exists")

func (store *Store) CreateUser(username, email, password string) (*User, error) {
	var existing int64
	err := store.db.QueryRow(
		"SELECT id FROM users WHERE email = ? OR username = ?", email, username,
	).Scan(&existing)
	if err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return nil, err
	}
	res, err := store.db.Exec(
		"INSERT INTO users (username, email, password) VALUES (?, ?, ?)",
		username, email, hash,
	)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Username: username, Email: email, CreatedAt: time.Now()}, nil
}

// Authenticate verifies email/password and returns the matching user, or nil.
// A small TTL cache short-circuits the argon2id comparison for recently
// verified credentials.
func (store *Store) Authenticate(email, password string) *User {
	var (
		user User
		hash string
	)
	err := store.db.QueryRow(
		"SELECT id, username, email, password FROM users WHERE email = ?", email,
	).Scan(&user.ID, &user.Username, &user.Email, &hash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			store.log.Println(err.Error())
		}
		return nil
	}

	cached, ok := store.pwCache.Get(email)
	if ok && 1 == subtle.ConstantTimeCompare([]byte(cached.(string)), []byte(password)) {
		return &user
	}

	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		store.log.Println("Error comparing password hashes", err.Error())
		return nil
	}
	if !match {
		return nil
	}
	store.pwCache.Set(email, password)
	return &user
}

func (store *Store) GetUser(id int64) (*User, error) {
	var user User
	err := store.db.QueryRow(
		"SELECT id, username, email, created_at FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (store *Store) UpdateEmail(userID int64, email string) error {
	var other int64
	err := store.db.QueryRow(
		"SELECT id FROM users WHERE email = ? AND id != ?", email, userID,
	).Scan(&other)
	if err == nil {
		return ErrUserExists
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = store.db.Exec("UPDATE users SET email = ? WHERE id = ?", email, userID)
	return err
}

func (store *Store) ChangePassword(userID int64, current, next string) error {
	var (
		email string
		hash  string
	)
	err := store.db.QueryRow(
		"SELECT email, password FROM users WHERE id = ?", userID,
	).Scan(&email, &hash)
	if err != nil {
		return err
	}
	match, err := argon2id.ComparePasswordAndHash(current, hash)
	if err != nil {
		return err
	}
	if !match {
		return errors.New("current password is incorrect")
	}
	newHash, err := argon2id.CreateHash(next, argon2id.DefaultParams)
	if err != nil {
		return err
	}
	if _, err := store.db.Exec("UPDATE users SET password = ? WHERE id = ?", newHash, userID); err != nil {
		return err
	}
	store.pwCache.Set(email, next)
	return nil
}

// CreateSession issues a random token mapped to the user id in the session cache.
func (store *Store) CreateSession(userID int64) string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		store.log.Panicln("Error generating session token", err.Error())
	}
	token := hex.EncodeToString(buf)
	store.sessions.Set(token, userID)
	return token
}

// SessionUser resolves a session token to its user, or nil for unknown/expired
// tokens.
func (store *Store) SessionUser(token string) *User {
	v, ok := store.sessions.Get(token)
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok || id == 0 {
		return nil
	}
	user, err := store.GetUser(id)
	if err != nil {
		return nil
	}
	return user
}

// DeleteSession signs a token out by overwriting it; the zero user id never
// resolves to a user.
func (store *Store) DeleteSession(token string) {
	store.sessions.Set(token, int64(0))
}
