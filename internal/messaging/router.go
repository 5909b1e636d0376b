package messaging

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"kit-messenger/internal/conversation"
	"kit-messenger/internal/models"
	"kit-messenger/internal/observability"
	"kit-messenger/internal/state"
	"kit-messenger/internal/store"
)

const voiceSummaryPrefix = "🎤 "

// Service routes messages to direct peers and groups.
type Service struct {
	container  *state.Container
	voiceLabel string
	now        func() time.Time
}

func NewService(container *state.Container, voiceLabel string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{container: container, voiceLabel: voiceLabel, now: now}
}

// ResolveTarget maps a conversation to the id messages are stored under.
func ResolveTarget(c models.Conversation) models.Target {
	if c == nil {
		return nil
	}
	return c.Target()
}

var errDropped = errors.New("messaging: send no longer wanted")

// Send stores a message from senderID. Blank text or a nil target is ignored
// and yields (nil, nil).
func (s *Service) Send(ctx context.Context, senderID string, target models.Target, text string, kind models.MessageKind) (*models.Message, error) {
	return s.send(ctx, senderID, target, text, kind, nil)
}

// send is Send with an extra condition evaluated inside the state update;
// when allow reports false nothing is stored and errDropped is returned.
func (s *Service) send(ctx context.Context, senderID string, target models.Target, text string, kind models.MessageKind, allow func(*models.AppState) bool) (*models.Message, error) {
	if target == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if kind == "" {
		kind = models.KindText
	}
	if !kind.Valid() {
		return nil, models.ErrInvalidInput
	}

	msg := models.Message{
		ID:         store.NewID(),
		FromUserID: senderID,
		ToTarget:   target.ID(),
		TargetKind: target.Kind(),
		Text:       text,
		Kind:       kind,
		Timestamp:  s.now(),
	}
	summary := text
	if kind == models.KindVoice {
		summary = voiceSummaryPrefix + s.voiceLabel
	}

	err := s.container.Update(ctx, func(st *models.AppState) error {
		if allow != nil && !allow(st) {
			return errDropped
		}
		if st.UserByID(senderID) == nil {
			return models.ErrNotAuthenticated
		}

		switch t := target.(type) {
		case models.DirectTarget:
			if t.UserID == senderID || st.UserByID(t.UserID) == nil {
				return models.ErrInvalidTarget
			}
			own, err := conversation.EnsureDirectChat(st, senderID, t.UserID)
			if err != nil {
				return err
			}
			own.Summarize(summary, msg.Timestamp)
			peer, err := conversation.EnsureDirectChat(st, t.UserID, senderID)
			if err != nil {
				return err
			}
			peer.Summarize(summary, msg.Timestamp)
		case models.GroupTarget:
			g := st.GroupByID(t.GroupID)
			if g == nil {
				return models.ErrGroupNotFound
			}
			if !g.HasMember(senderID) {
				return models.ErrForbidden
			}
			g.Summarize(summary, msg.Timestamp)
		default:
			return models.ErrInvalidTarget
		}

		st.Messages = append(st.Messages, msg)
		if uid, sid, ok := st.Current(); ok && uid == senderID {
			if sess := st.SessionByID(sid); sess != nil {
				sess.LastActive = msg.Timestamp
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.IncMessageSent(string(kind), string(target.Kind()))
	_ = observability.PublishEvent(ctx, observability.RoutingMessageSent, "message.sent", msg)
	return &msg, nil
}

// History returns the conversation with target in timestamp order. Group
// history is keyed by group id alone.
func (s *Service) History(selfID string, target models.Target) []models.Message {
	out := []models.Message{}
	if target == nil {
		return out
	}

	s.container.View(func(st *models.AppState) {
		for _, m := range st.Messages {
			if matches(m, selfID, target) {
				out = append(out, m)
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

func matches(m models.Message, selfID string, target models.Target) bool {
	switch t := target.(type) {
	case models.DirectTarget:
		if m.TargetKind == models.TargetGroup {
			return false
		}
		return (m.FromUserID == selfID && m.ToTarget == t.UserID) ||
			(m.FromUserID == t.UserID && m.ToTarget == selfID)
	case models.GroupTarget:
		return m.TargetKind == models.TargetGroup && m.ToTarget == t.GroupID
	}
	return false
}

// DeleteMessage removes a message for good. Chat summaries keep whatever they
// showed before.
func (s *Service) DeleteMessage(ctx context.Context, actorID, messageID string) error {
	err := s.container.Update(ctx, func(st *models.AppState) error {
		idx := slices.IndexFunc(st.Messages, func(m models.Message) bool { return m.ID == messageID })
		if idx < 0 {
			return models.ErrMessageNotFound
		}
		if !canDelete(st, st.Messages[idx], actorID) {
			return models.ErrForbidden
		}
		st.Messages = slices.Delete(st.Messages, idx, idx+1)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("message_id", messageID).Str("actor_id", actorID).Msg("message deleted")
	return nil
}

func canDelete(st *models.AppState, m models.Message, actorID string) bool {
	if actorID == "" {
		return false
	}
	if m.FromUserID == actorID {
		return true
	}
	if m.TargetKind != models.TargetGroup {
		return false
	}
	g := st.GroupByID(m.ToTarget)
	return g != nil && g.IsPrivileged(actorID)
}
