package models

import "time"

// User is a registered account. Passwords are stored as entered.
type User struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Password string  `json:"password"`
	Avatar   *string `json:"avatar"`
}

// Session records one authenticated device for a user.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	DeviceLabel string    `json:"deviceLabel"`
	CreatedAt   time.Time `json:"createdAt"`
	LastActive  time.Time `json:"lastActive"`
}

// LoginAttempts tracks failures for one throttle subject.
type LoginAttempts struct {
	Count       int        `json:"count"`
	LockedUntil *time.Time `json:"lockedUntil"`
}

// PasswordSubject is the throttle subject used by password changes.
func PasswordSubject(userID string) string {
	return userID + "_pass"
}
