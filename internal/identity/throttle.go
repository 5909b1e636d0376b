package identity

import (
	"math"
	"time"

	"kit-messenger/internal/models"
)

// throttle applies the failed-attempt lockout policy to one subject in the
// state's LoginAttempts table.
type throttle struct {
	threshold int
	window    time.Duration
}

// active reports a running lock on subject. It records nothing.
func (t throttle) active(st *models.AppState, subject string, now time.Time) error {
	attempts, ok := st.LoginAttempts[subject]
	if !ok || attempts.LockedUntil == nil || !now.Before(*attempts.LockedUntil) {
		return nil
	}
	return &models.AccountLockedError{Minutes: ceilMinutes(attempts.LockedUntil.Sub(now))}
}

// fail records one failed attempt and returns the error the caller reports.
// A counter whose lock already expired starts over.
func (t throttle) fail(st *models.AppState, subject string, now time.Time) error {
	attempts := st.LoginAttempts[subject]
	if attempts.LockedUntil != nil && !now.Before(*attempts.LockedUntil) {
		attempts = models.LoginAttempts{}
	}
	attempts.Count++

	if attempts.Count >= t.threshold {
		until := now.Add(t.window)
		attempts.LockedUntil = &until
		st.LoginAttempts[subject] = attempts
		return &models.AccountLockedError{Minutes: ceilMinutes(t.window)}
	}

	st.LoginAttempts[subject] = attempts
	return models.ErrWrongPassword
}

func (t throttle) reset(st *models.AppState, subject string) {
	st.LoginAttempts[subject] = models.LoginAttempts{}
}

func ceilMinutes(d time.Duration) int {
	m := int(math.Ceil(d.Minutes()))
	if m < 1 {
		return 1
	}
	return m
}
