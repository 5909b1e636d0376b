package conversation

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"kit-messenger/internal/models"
	"kit-messenger/internal/state"
	"kit-messenger/internal/store"
)

// Service manages the direct-chat directory and groups.
type Service struct {
	container *state.Container
	now       func() time.Time
}

func NewService(container *state.Container, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{container: container, now: now}
}

// FindOrCreateDirectChat returns the owner's chat with peer, creating it on
// first contact.
func (s *Service) FindOrCreateDirectChat(ctx context.Context, selfID, peerID string) (models.DirectChat, error) {
	if selfID == "" || selfID == peerID {
		return models.DirectChat{}, models.ErrInvalidTarget
	}

	var chat models.DirectChat
	var found bool
	s.container.View(func(st *models.AppState) {
		if c := st.DirectChat(selfID, peerID); c != nil {
			chat, found = *c, true
		}
	})
	if found {
		return chat, nil
	}

	err := s.container.Update(ctx, func(st *models.AppState) error {
		c, err := EnsureDirectChat(st, selfID, peerID)
		if err != nil {
			return err
		}
		chat = *c
		return nil
	})
	if err != nil {
		return models.DirectChat{}, err
	}
	return chat, nil
}

// EnsureDirectChat finds or appends the owner's chat with peer inside an
// update. The returned pointer is only valid until st is modified again.
func EnsureDirectChat(st *models.AppState, ownerID, peerID string) (*models.DirectChat, error) {
	if c := st.DirectChat(ownerID, peerID); c != nil {
		return c, nil
	}
	peer := st.UserByID(peerID)
	if ownerID == peerID || peer == nil || st.UserByID(ownerID) == nil {
		return nil, models.ErrInvalidTarget
	}
	st.Chats = append(st.Chats, models.DirectChat{
		OwnerID:    ownerID,
		PeerUserID: peer.ID,
		PeerName:   peer.Name,
		PeerAvatar: peer.Avatar,
	})
	return &st.Chats[len(st.Chats)-1], nil
}

// CreateGroup makes creatorID the only admin of a new group whose members are
// the creator plus memberIDs.
func (s *Service) CreateGroup(ctx context.Context, creatorID, name string, avatar *string, memberIDs []string) (models.GroupChat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.GroupChat{}, models.ErrInvalidInput
	}

	var group models.GroupChat
	err := s.container.Update(ctx, func(st *models.AppState) error {
		if st.UserByID(creatorID) == nil {
			return models.ErrInvalidTarget
		}
		members := []string{creatorID}
		for _, id := range memberIDs {
			if st.UserByID(id) == nil {
				return models.ErrInvalidTarget
			}
			if !slices.Contains(members, id) {
				members = append(members, id)
			}
		}
		group = models.GroupChat{
			ID:        store.NewID(),
			Name:      name,
			Avatar:    avatar,
			CreatorID: creatorID,
			AdminIDs:  []string{creatorID},
			MemberIDs: members,
			CreatedAt: s.now(),
		}
		st.GroupChats = append(st.GroupChats, group)
		return nil
	})
	if err != nil {
		return models.GroupChat{}, err
	}

	log.Info().Str("group_id", group.ID).Str("creator_id", creatorID).Int("members", len(group.MemberIDs)).Msg("group created")
	return group, nil
}

// SetAdmin grants or revokes admin rights. The creator's status is fixed.
func (s *Service) SetAdmin(ctx context.Context, actorID, groupID, targetID string, isAdmin bool) error {
	return s.manage(ctx, actorID, groupID, func(g *models.GroupChat) error {
		if targetID == g.CreatorID || !g.HasMember(targetID) {
			return models.ErrInvalidTarget
		}
		g.AdminIDs = slices.DeleteFunc(g.AdminIDs, func(id string) bool { return id == targetID })
		if isAdmin {
			g.AdminIDs = append(g.AdminIDs, targetID)
		}
		return nil
	})
}

// RemoveMember drops targetID from the group and from its admins.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, targetID string) error {
	return s.manage(ctx, actorID, groupID, func(g *models.GroupChat) error {
		if targetID == g.CreatorID || !g.HasMember(targetID) {
			return models.ErrInvalidTarget
		}
		g.MemberIDs = slices.DeleteFunc(g.MemberIDs, func(id string) bool { return id == targetID })
		g.AdminIDs = slices.DeleteFunc(g.AdminIDs, func(id string) bool { return id == targetID })
		return nil
	})
}

// AddMembers adds plain members. Either every id is added or none is.
func (s *Service) AddMembers(ctx context.Context, actorID, groupID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return models.ErrInvalidInput
	}
	return s.manage(ctx, actorID, groupID, func(g *models.GroupChat) error {
		for i, id := range userIDs {
			if g.HasMember(id) || slices.Contains(userIDs[:i], id) {
				return models.ErrInvalidTarget
			}
		}
		g.MemberIDs = append(g.MemberIDs, userIDs...)
		return nil
	})
}

func (s *Service) manage(ctx context.Context, actorID, groupID string, fn func(*models.GroupChat) error) error {
	return s.container.Update(ctx, func(st *models.AppState) error {
		g := st.GroupByID(groupID)
		if g == nil {
			return models.ErrGroupNotFound
		}
		if !g.IsPrivileged(actorID) {
			return models.ErrForbidden
		}
		if err := fn(g); err != nil {
			return err
		}
		for _, id := range g.MemberIDs {
			if st.UserByID(id) == nil {
				return models.ErrInvalidTarget
			}
		}
		return nil
	})
}

// Group returns a copy of the group with id.
func (s *Service) Group(groupID string) (models.GroupChat, bool) {
	var group models.GroupChat
	var found bool
	s.container.View(func(st *models.AppState) {
		if g := st.GroupByID(groupID); g != nil {
			group, found = cloneGroup(*g), true
		}
	})
	return group, found
}

// FindUserByExactName matches the trimmed query case-insensitively, never
// returning the searcher.
func (s *Service) FindUserByExactName(query, excludingUserID string) (models.User, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.User{}, false
	}

	var user models.User
	var found bool
	s.container.View(func(st *models.AppState) {
		for _, u := range st.Users {
			if u.ID != excludingUserID && strings.EqualFold(u.Name, query) {
				user, found = u, true
				return
			}
		}
	})
	return user, found
}

// ListDirectChats returns the owner's chats, most recently active first.
func (s *Service) ListDirectChats(ownerID string) []models.DirectChat {
	out := []models.DirectChat{}
	s.container.View(func(st *models.AppState) {
		for _, c := range st.Chats {
			if c.OwnerID == ownerID {
				out = append(out, c)
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.DirectChat) int {
		return compareActivity(b.LastTime, time.Time{}, a.LastTime, time.Time{})
	})
	return out
}

// ListGroups returns the groups userID belongs to, most recently active first.
func (s *Service) ListGroups(userID string) []models.GroupChat {
	out := []models.GroupChat{}
	s.container.View(func(st *models.AppState) {
		for _, g := range st.GroupChats {
			if g.HasMember(userID) {
				out = append(out, cloneGroup(g))
			}
		}
	})
	slices.SortStableFunc(out, func(a, b models.GroupChat) int {
		return compareActivity(b.LastTime, b.CreatedAt, a.LastTime, a.CreatedAt)
	})
	return out
}

func compareActivity(a *time.Time, aFallback time.Time, b *time.Time, bFallback time.Time) int {
	at, bt := aFallback, bFallback
	if a != nil {
		at = *a
	}
	if b != nil {
		bt = *b
	}
	return at.Compare(bt)
}

func cloneGroup(g models.GroupChat) models.GroupChat {
	g.AdminIDs = slices.Clone(g.AdminIDs)
	g.MemberIDs = slices.Clone(g.MemberIDs)
	return g
}
