package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"kit-messenger/internal/models"
	"kit-messenger/internal/observability"
	"kit-messenger/internal/state"
	"kit-messenger/internal/store"
	"kit-messenger/internal/telemetry"
)

var tracer = otel.Tracer("kit-messenger/identity")

var errStale = errors.New("identity: session changed")

// watchdog polls the durable store for one session until it is halted or the
// session disappears.
type watchdog struct {
	userID    string
	sessionID string
	stop      chan struct{}
	once      sync.Once
}

func (w *watchdog) halt() {
	w.once.Do(func() { close(w.stop) })
}

func (m *Manager) startWatchdog(userID, sessionID string) {
	w := &watchdog{userID: userID, sessionID: sessionID, stop: make(chan struct{})}

	m.mu.Lock()
	if m.watch != nil {
		m.watch.halt()
	}
	m.watch = w
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runWatchdog(w)
}

func (m *Manager) stopWatchdog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watch != nil {
		m.watch.halt()
		m.watch = nil
	}
}

func (m *Manager) runWatchdog(w *watchdog) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if m.checkSession(m.ctx, w) {
				m.mu.Lock()
				if m.watch == w {
					m.watch = nil
				}
				m.mu.Unlock()
				return
			}
		}
	}
}

// checkSession reports whether the watchdog is done, either because the
// session was revoked elsewhere or because this process moved on from it.
func (m *Manager) checkSession(ctx context.Context, w *watchdog) bool {
	ctx, span := tracer.Start(ctx, "identity.watchdog.tick")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", w.sessionID))
	observability.IncWatchdogTick()

	durable, err := m.loader.Read(ctx)
	if err != nil && !errors.Is(err, store.ErrCorrupt) {
		// transient; the next tick retries
		span.RecordError(err)
		log.Debug().Err(err).Str("session_id", w.sessionID).Msg("watchdog skipped tick")
		return false
	}
	if s := durable.SessionByID(w.sessionID); s != nil && s.UserID == w.userID {
		return false
	}

	err = m.container.Update(ctx, func(st *models.AppState) error {
		uid, sid, ok := st.Current()
		if !ok || uid != w.userID || sid != w.sessionID {
			return errStale
		}
		st.RemoveSession(w.sessionID)
		st.ClearCurrent()
		return nil
	})
	if errors.Is(err, errStale) {
		return true
	}
	if err != nil {
		log.Warn().Err(err).Str("session_id", w.sessionID).Msg("watchdog could not clear revoked session")
		return false
	}

	span.SetAttributes(attribute.Bool("revoked", true))
	observability.IncSessionRevocation("remote")
	log.Warn().Str("user_id", w.userID).Str("session_id", w.sessionID).Msg("session revoked remotely")
	m.audit.Emit(ctx, telemetry.Record{Level: telemetry.LevelWarn, Action: telemetry.ActionRemoteRevoked, Text: w.sessionID, UserID: w.userID})

	ev := state.Event{Type: state.EventSessionRevoked, UserID: w.userID, SessionID: w.sessionID}
	m.container.Publish(ev)
	_ = observability.PublishEvent(ctx, observability.RoutingSessionRevoked, ev.Type, ev)
	return true
}
