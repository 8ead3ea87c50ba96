package model

import "time"

// User is a live account. The JSON tags are the cache wire format;
// nothing serializes users toward the browser.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Created      time.Time `json:"created"`
}

// DeletedUser is the tombstone kept when an account is removed.
type DeletedUser struct {
	ID      int64     `json:"id"`
	UserID  int64     `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Created time.Time `json:"created"`
}
