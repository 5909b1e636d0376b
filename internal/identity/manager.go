package identity

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kit-messenger/internal/models"
	"kit-messenger/internal/observability"
	"kit-messenger/internal/state"
	"kit-messenger/internal/store"
	"kit-messenger/internal/telemetry"
)

// StateLoader reads the durable state independently of the in-memory copy.
// A corrupt payload is reported with an error wrapping store.ErrCorrupt.
type StateLoader interface {
	Read(ctx context.Context) (models.AppState, error)
}

type Options struct {
	LockoutThreshold int
	LockoutWindow    time.Duration
	WatchInterval    time.Duration
	DeviceLabel      string
	Now              func() time.Time
}

// Manager owns authentication, sessions and the revocation watchdog for the
// local user of this process.
type Manager struct {
	container *state.Container
	loader    StateLoader
	audit     telemetry.Auditor
	throttle  throttle
	interval  time.Duration
	device    string
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	watch *watchdog
	wg    sync.WaitGroup
}

func NewManager(container *state.Container, loader StateLoader, audit telemetry.Auditor, opts Options) *Manager {
	if audit == nil {
		audit = telemetry.Nop{}
	}
	if opts.LockoutThreshold <= 0 {
		opts.LockoutThreshold = 5
	}
	if opts.LockoutWindow <= 0 {
		opts.LockoutWindow = 5 * time.Minute
	}
	if opts.WatchInterval <= 0 {
		opts.WatchInterval = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		container: container,
		loader:    loader,
		audit:     audit,
		throttle:  throttle{threshold: opts.LockoutThreshold, window: opts.LockoutWindow},
		interval:  opts.WatchInterval,
		device:    opts.DeviceLabel,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *Manager) Register(ctx context.Context, name, password string, avatar *string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(password) == "" {
		return models.User{}, models.ErrInvalidInput
	}

	now := m.now()
	var user models.User
	var session models.Session
	err := m.container.Update(ctx, func(st *models.AppState) error {
		if findUserByName(st, name) != nil {
			return models.ErrDuplicateName
		}
		user = models.User{ID: store.NewID(), Name: name, Password: password, Avatar: avatar}
		session = m.newSession(user.ID, now)
		st.Users = append(st.Users, user)
		st.Sessions = append(st.Sessions, session)
		st.SetCurrent(user.ID, session.ID)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	log.Info().Str("user_id", user.ID).Str("session_id", session.ID).Msg("user registered")
	m.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionRegister, UserID: user.ID})
	m.startWatchdog(user.ID, session.ID)
	return user, nil
}

func (m *Manager) Login(ctx context.Context, name, password string) (models.Session, error) {
	name = strings.TrimSpace(name)
	now := m.now()

	var userID string
	var session models.Session
	var failure error
	err := m.container.Update(ctx, func(st *models.AppState) error {
		user := findUserByName(st, name)
		if user == nil {
			return models.ErrUserNotFound
		}
		userID = user.ID
		if err := m.throttle.active(st, user.ID, now); err != nil {
			return err
		}
		if user.Password != password {
			failure = m.throttle.fail(st, user.ID, now)
			return nil
		}
		m.throttle.reset(st, user.ID)
		session = m.newSession(user.ID, now)
		st.Sessions = append(st.Sessions, session)
		st.SetCurrent(user.ID, session.ID)
		return nil
	})

	switch {
	case errors.Is(err, models.ErrUserNotFound):
		observability.IncAuthAttempt("login", "unknown_user")
		return models.Session{}, err
	case errors.Is(err, models.ErrAccountLocked):
		observability.IncAuthAttempt("login", "locked")
		return models.Session{}, err
	case err != nil:
		return models.Session{}, err
	}

	if failure != nil {
		m.recordFailure(ctx, "login", userID, failure)
		return models.Session{}, failure
	}

	observability.IncAuthAttempt("login", "success")
	log.Info().Str("user_id", userID).Str("session_id", session.ID).Msg("login")
	m.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionLogin, UserID: userID})
	m.startWatchdog(userID, session.ID)
	return session, nil
}

// Logout ends the current session only. It is a no-op when nobody is signed in.
func (m *Manager) Logout(ctx context.Context) error {
	var userID string
	err := m.container.Update(ctx, func(st *models.AppState) error {
		uid, sid, ok := st.Current()
		if !ok {
			return errNoop
		}
		userID = uid
		st.RemoveSession(sid)
		st.ClearCurrent()
		return nil
	})
	if errors.Is(err, errNoop) {
		return nil
	}
	if err != nil {
		return err
	}

	m.stopWatchdog()
	log.Info().Str("user_id", userID).Msg("logout")
	m.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionLogout, UserID: userID})
	return nil
}

// ChangePassword checks old against the current user's password under its own
// throttle subject, independent of the login throttle.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	now := m.now()

	var userID string
	var failure error
	err := m.container.Update(ctx, func(st *models.AppState) error {
		uid, _, ok := st.Current()
		user := st.UserByID(uid)
		if !ok || user == nil {
			return models.ErrNotAuthenticated
		}
		userID = uid
		subject := models.PasswordSubject(uid)
		if err := m.throttle.active(st, subject, now); err != nil {
			return err
		}
		if user.Password != oldPassword {
			failure = m.throttle.fail(st, subject, now)
			return nil
		}
		if strings.TrimSpace(newPassword) == "" {
			return models.ErrInvalidInput
		}
		user.Password = newPassword
		m.throttle.reset(st, subject)
		return nil
	})
	if errors.Is(err, models.ErrAccountLocked) {
		observability.IncAuthAttempt("password", "locked")
	}
	if err != nil {
		return err
	}

	if failure != nil {
		m.recordFailure(ctx, "password", userID, failure)
		return failure
	}

	observability.IncAuthAttempt("password", "success")
	m.audit.Emit(ctx, telemetry.Record{Action: telemetry.ActionPasswordChanged, UserID: userID})
	return nil
}

// ListSessions returns the user's sessions, oldest first.
func (m *Manager) ListSessions(userID string) []models.Session {
	var out []models.Session
	m.container.View(func(st *models.AppState) {
		for _, s := range st.Sessions {
			if s.UserID == userID {
				out = append(out, s)
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if out == nil {
		out = []models.Session{}
	}
	return out
}

// RevokeSession removes one of the current user's sessions. Revoking the
// current session signs this process out.
func (m *Manager) RevokeSession(ctx context.Context, sessionID string) error {
	var userID string
	var self bool
	err := m.container.Update(ctx, func(st *models.AppState) error {
		uid, sid, ok := st.Current()
		if !ok {
			return models.ErrNotAuthenticated
		}
		target := st.SessionByID(sessionID)
		if target == nil {
			return models.ErrSessionNotFound
		}
		if target.UserID != uid {
			return models.ErrForbidden
		}
		userID = uid
		st.RemoveSession(sessionID)
		if sessionID == sid {
			self = true
			st.ClearCurrent()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if self {
		m.stopWatchdog()
	}
	observability.IncSessionRevocation("local")
	log.Info().Str("user_id", userID).Str("session_id", sessionID).Bool("current", self).Msg("session revoked")
	m.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelWarn, Action: telemetry.ActionSessionRevoked, Text: sessionID, UserID: userID})
	return nil
}

func (m *Manager) CurrentUser() (models.User, bool) {
	var user models.User
	var found bool
	m.container.View(func(st *models.AppState) {
		uid, _, ok := st.Current()
		if !ok {
			return
		}
		if u := st.UserByID(uid); u != nil {
			user, found = *u, true
		}
	})
	return user, found
}

func (m *Manager) CurrentSession() (models.Session, bool) {
	var session models.Session
	var found bool
	m.container.View(func(st *models.AppState) {
		_, sid, ok := st.Current()
		if !ok {
			return
		}
		if s := st.SessionByID(sid); s != nil {
			session, found = *s, true
		}
	})
	return session, found
}

// Resume restores a session recorded by an earlier run. A dangling pointer is
// cleared. It reports whether a session was resumed.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	var userID, sessionID string
	var valid, dangling bool
	m.container.View(func(st *models.AppState) {
		uid, sid, ok := st.Current()
		if !ok {
			dangling = st.CurrentUserID != nil || st.CurrentSessionID != nil
			return
		}
		s := st.SessionByID(sid)
		if s != nil && s.UserID == uid && st.UserByID(uid) != nil {
			userID, sessionID, valid = uid, sid, true
			return
		}
		dangling = true
	})

	if valid {
		log.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("session resumed")
		m.startWatchdog(userID, sessionID)
		return true, nil
	}
	if dangling {
		err := m.container.Update(ctx, func(st *models.AppState) error {
			st.ClearCurrent()
			return nil
		})
		return false, err
	}
	return false, nil
}

// Close stops the watchdog and waits for it to exit.
func (m *Manager) Close() {
	m.stopWatchdog()
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) newSession(userID string, now time.Time) models.Session {
	return models.Session{
		ID:          store.NewID(),
		UserID:      userID,
		DeviceLabel: m.device,
		CreatedAt:   now,
		LastActive:  now,
	}
}

func (m *Manager) recordFailure(ctx context.Context, action, userID string, failure error) {
	if errors.Is(failure, models.ErrAccountLocked) {
		observability.IncAuthAttempt(action, "locked")
		observability.IncLockout(action)
		log.Warn().Str("user_id", userID).Str("action", action).Msg("lockout started")
		m.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelWarn, Action: telemetry.ActionLockout, Text: action, UserID: userID})
		return
	}
	observability.IncAuthAttempt(action, "wrong_password")
	m.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelWarn, Action: failedAction(action), UserID: userID})
}

func failedAction(action string) string {
	if action == "password" {
		return telemetry.ActionPasswordFailed
	}
	return telemetry.ActionLoginFailed
}

var errNoop = errors.New("identity: nothing to do")

func findUserByName(st *models.AppState, name string) *models.User {
	for i := range st.Users {
		if strings.EqualFold(st.Users[i].Name, name) {
			return &st.Users[i]
		}
	}
	return nil
}
