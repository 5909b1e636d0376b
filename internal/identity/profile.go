package identity

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"kit-messenger/internal/models"
)

// UpdateProfile renames the current user and/or replaces the avatar. A nil
// argument leaves that field alone; an empty avatar clears it. Direct chats
// that show this user as peer pick up the change.
func (m *Manager) UpdateProfile(ctx context.Context, name, avatar *string) (models.User, error) {
	var newName string
	if name != nil {
		newName = strings.TrimSpace(*name)
		if newName == "" {
			return models.User{}, models.ErrInvalidInput
		}
	}

	var updated models.User
	err := m.container.Update(ctx, func(st *models.AppState) error {
		uid, _, ok := st.Current()
		user := st.UserByID(uid)
		if !ok || user == nil {
			return models.ErrNotAuthenticated
		}
		if name != nil {
			for _, other := range st.Users {
				if other.ID != uid && strings.EqualFold(other.Name, newName) {
					return models.ErrDuplicateName
				}
			}
			user.Name = newName
		}
		if avatar != nil {
			if *avatar == "" {
				user.Avatar = nil
			} else {
				v := *avatar
				user.Avatar = &v
			}
		}

		for i := range st.Chats {
			if st.Chats[i].PeerUserID != uid {
				continue
			}
			st.Chats[i].PeerName = user.Name
			st.Chats[i].PeerAvatar = copyString(user.Avatar)
		}
		updated = *user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	log.Info().Str("user_id", updated.ID).Msg("profile updated")
	return updated, nil
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
