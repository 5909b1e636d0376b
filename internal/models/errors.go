package models

import (
	"errors"
	"fmt"
)

// Expected, user-facing failures. None of them leave the state modified.
var (
	ErrDuplicateName    = errors.New("name already taken")
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrAccountLocked    = errors.New("account locked")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidTarget    = errors.New("invalid target")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrGroupNotFound    = errors.New("group not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrSessionNotFound  = errors.New("session not found")
)

// AccountLockedError carries the remaining lockout in whole minutes.
type AccountLockedError struct {
	Minutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked for %d minute(s)", e.Minutes)
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}
