package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"kit-messenger/internal/models"
)

// Store loads and saves the whole application state through one Slot.
type Store struct {
	slot        Slot
	defaultLang string
}

// New constructs a Store.
func New(slot Slot, defaultLang string) *Store {
	return &Store{slot: slot, defaultLang: defaultLang}
}

// Default returns the state used when nothing readable was saved.
func (s *Store) Default() models.AppState {
	return models.DefaultState(s.defaultLang)
}

// ErrCorrupt marks a payload that was read but could not be decoded.
var ErrCorrupt = errors.New("store: corrupt state payload")

// Read returns the saved state. An empty slot yields the default state and no
// error. A corrupt payload yields the default state and an error wrapping
// ErrCorrupt; any other error means the slot could not be read at all.
func (s *Store) Read(ctx context.Context) (models.AppState, error) {
	data, err := s.slot.Read(ctx)
	if errors.Is(err, ErrEmptySlot) {
		return s.Default(), nil
	}
	if err != nil {
		return s.Default(), fmt.Errorf("read state: %w", err)
	}

	state, err := decode(data, s.Default())
	if err != nil {
		return s.Default(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return state, nil
}

// Load returns the saved state. It never fails: a missing or unreadable
// payload yields the default state.
func (s *Store) Load(ctx context.Context) models.AppState {
	state, err := s.Read(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("state slot unreadable, using defaults")
	}
	return state
}

// Save overwrites the slot with the full serialization of state.
func (s *Store) Save(ctx context.Context, state models.AppState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.slot.Write(ctx, payload); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// NewID returns a time-ordered random identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// decode fills defaults with data. Fields of the wrong type are skipped and
// the remaining fields kept; only syntactically broken payloads are rejected.
func decode(data []byte, defaults models.AppState) (models.AppState, error) {
	state := defaults
	if err := json.Unmarshal(data, &state); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return defaults, err
		}
		log.Warn().Str("field", typeErr.Field).Msg("state field has unexpected type, skipped")
	}
	normalize(&state, defaults.Lang)
	return state, nil
}

func normalize(state *models.AppState, lang string) {
	if state.Users == nil {
		state.Users = []models.User{}
	}
	if state.Chats == nil {
		state.Chats = []models.DirectChat{}
	}
	if state.GroupChats == nil {
		state.GroupChats = []models.GroupChat{}
	}
	if state.Messages == nil {
		state.Messages = []models.Message{}
	}
	if state.Sessions == nil {
		state.Sessions = []models.Session{}
	}
	if state.LoginAttempts == nil {
		state.LoginAttempts = map[string]models.LoginAttempts{}
	}
	if state.Lang == "" {
		state.Lang = lang
	}

	groups := make(map[string]struct{}, len(state.GroupChats))
	for i := range state.GroupChats {
		g := &state.GroupChats[i]
		groups[g.ID] = struct{}{}
		if g.AdminIDs == nil {
			g.AdminIDs = []string{}
		}
		if g.MemberIDs == nil {
			g.MemberIDs = []string{}
		}
	}
	for i := range state.Messages {
		m := &state.Messages[i]
		if m.Kind == "" {
			m.Kind = models.KindText
		}
		if m.TargetKind == "" {
			m.TargetKind = models.TargetDirect
			if _, ok := groups[m.ToTarget]; ok {
				m.TargetKind = models.TargetGroup
			}
		}
	}
}
