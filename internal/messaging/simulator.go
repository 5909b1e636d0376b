package messaging

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"kit-messenger/internal/models"
	"kit-messenger/internal/observability"
	"kit-messenger/internal/state"
)

// VoicePlaceholder is the text of a simulated voice recording.
const VoicePlaceholder = "🎤 0:03"

// Simulator runs the timed fake actions of the client (voice recording and
// calls). Effects are dropped when the focused conversation changes before
// they fire, and focus is cleared once nobody is signed in.
type Simulator struct {
	service      *Service
	container    *state.Container
	voiceDelay   time.Duration
	callDuration time.Duration
	unsubscribe  func()

	mu         sync.Mutex
	focus      models.Target
	generation uint64
	pending    map[uint64]*time.Timer
	nextID     uint64
}

func NewSimulator(service *Service, container *state.Container, voiceDelay, callDuration time.Duration) *Simulator {
	s := &Simulator{
		service:      service,
		container:    container,
		voiceDelay:   voiceDelay,
		callDuration: callDuration,
		pending:      make(map[uint64]*time.Timer),
	}
	s.unsubscribe = container.Subscribe(s.handleEvent)
	return s
}

// SetFocus switches the active conversation and cancels pending effects.
// A nil target means no conversation is open.
func (s *Simulator) SetFocus(target models.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focus = target
	s.generation++
	s.stopPendingLocked()
}

func (s *Simulator) Focus() models.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// handleEvent clears focus on sign out and on forced revocation.
func (s *Simulator) handleEvent(ev state.Event) {
	switch ev.Type {
	case state.EventSessionRevoked:
	case state.EventStateReplaced:
		var signedIn bool
		s.container.View(func(st *models.AppState) { _, _, signedIn = st.Current() })
		if signedIn {
			return
		}
	default:
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focus == nil && len(s.pending) == 0 {
		return
	}
	s.focus = nil
	s.generation++
	s.stopPendingLocked()
}

// RecordVoice sends the placeholder voice message to the focused conversation
// after the recording delay. Nothing is sent if the focus changed or senderID
// is no longer the signed in user by then.
func (s *Simulator) RecordVoice(senderID string) (func(), error) {
	s.mu.Lock()
	target := s.focus
	s.mu.Unlock()
	if target == nil {
		return nil, models.ErrInvalidTarget
	}

	return s.schedule(s.voiceDelay, func(gen uint64) {
		// runs under the container lock
		allow := func(st *models.AppState) bool {
			uid, _, ok := st.Current()
			return ok && uid == senderID && s.isCurrent(gen)
		}
		_, err := s.service.send(context.Background(), senderID, target, VoicePlaceholder, models.KindVoice, allow)
		switch {
		case errors.Is(err, errDropped):
			log.Debug().Str("target_id", target.ID()).Msg("voice message dropped after focus change")
		case err != nil:
			log.Warn().Err(err).Str("target_id", target.ID()).Msg("voice message dropped")
		}
	}), nil
}

// StartCall publishes call.ended for target once the call duration elapses.
func (s *Simulator) StartCall(target models.Target) (func(), error) {
	if target == nil {
		return nil, models.ErrInvalidTarget
	}

	return s.schedule(s.callDuration, func(gen uint64) {
		ev := state.Event{Type: state.EventCallEnded, TargetID: target.ID()}
		s.mu.Lock()
		if s.generation != gen {
			s.mu.Unlock()
			return
		}
		s.container.Publish(ev)
		s.mu.Unlock()
		_ = observability.PublishEvent(context.Background(), observability.RoutingCallEnded, ev.Type, ev)
	}), nil
}

// Close cancels every pending effect and stops following sign outs.
func (s *Simulator) Close() {
	s.unsubscribe()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.stopPendingLocked()
}

func (s *Simulator) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

// schedule runs effect after delay unless it was cancelled or focus moved on.
// effect receives the generation it was scheduled under and must re-check it
// where the effect takes hold.
func (s *Simulator) schedule(delay time.Duration, effect func(gen uint64)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	gen := s.generation
	s.pending[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.pending[id]
		delete(s.pending, id)
		current := s.generation
		s.mu.Unlock()

		if !live || current != gen {
			return
		}
		effect(gen)
	})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t, ok := s.pending[id]; ok {
			t.Stop()
			delete(s.pending, id)
		}
	}
}

func (s *Simulator) stopPendingLocked() {
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}
