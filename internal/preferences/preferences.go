package preferences

import (
	"context"
	"slices"

	"kit-messenger/internal/models"
	"kit-messenger/internal/state"
)

// Languages lists the supported interface languages.
var Languages = []string{"ru", "en", "es"}

type Preferences struct {
	Lang     string `json:"lang"`
	DarkMode bool   `json:"dark_mode"`
}

type Service struct {
	container *state.Container
}

func NewService(container *state.Container) *Service {
	return &Service{container: container}
}

func (s *Service) Get() Preferences {
	var p Preferences
	s.container.View(func(st *models.AppState) {
		p = Preferences{Lang: st.Lang, DarkMode: st.DarkMode}
	})
	return p
}

func (s *Service) SetLanguage(ctx context.Context, lang string) error {
	if !slices.Contains(Languages, lang) {
		return models.ErrInvalidInput
	}
	return s.container.Update(ctx, func(st *models.AppState) error {
		st.Lang = lang
		return nil
	})
}

func (s *Service) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.container.Update(ctx, func(st *models.AppState) error {
		st.DarkMode = enabled
		return nil
	})
}
