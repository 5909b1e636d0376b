package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kit-messenger/internal/models"
)

func TestUpdateProfilePropagatesToChats(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	bob, err := h.manager.Register(ctx, "bob", "pw", nil)
	require.NoError(t, err)
	alice, err := h.manager.Register(ctx, "alice", "pw", nil)
	require.NoError(t, err)

	require.NoError(t, h.container.Update(ctx, func(st *models.AppState) error {
		st.Chats = append(st.Chats,
			models.DirectChat{OwnerID: bob.ID, PeerUserID: alice.ID, PeerName: "alice"},
			models.DirectChat{OwnerID: alice.ID, PeerUserID: bob.ID, PeerName: "bob"},
		)
		return nil
	}))

	name := " Alicia "
	avatar := "data:image/png;base64,AAAA"
	updated, err := h.manager.UpdateProfile(ctx, &name, &avatar)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", updated.Name)
	require.NotNil(t, updated.Avatar)

	snap := h.container.Snapshot()
	chat := snap.DirectChat(bob.ID, alice.ID)
	require.NotNil(t, chat)
	assert.Equal(t, "Alicia", chat.PeerName)
	require.NotNil(t, chat.PeerAvatar)
	assert.Equal(t, avatar, *chat.PeerAvatar)
	assert.Equal(t, "bob", snap.DirectChat(alice.ID, bob.ID).PeerName)

	empty := ""
	updated, err = h.manager.UpdateProfile(ctx, nil, &empty)
	require.NoError(t, err)
	assert.Nil(t, updated.Avatar)
	assert.Equal(t, "Alicia", updated.Name)
}

func TestUpdateProfileValidation(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	name := "carol"
	_, err := h.manager.UpdateProfile(ctx, &name, nil)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)

	_, err = h.manager.Register(ctx, "bob", "pw", nil)
	require.NoError(t, err)
	_, err = h.manager.Register(ctx, "alice", "pw", nil)
	require.NoError(t, err)

	taken := "BOB"
	_, err = h.manager.UpdateProfile(ctx, &taken, nil)
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	blank := "  "
	_, err = h.manager.UpdateProfile(ctx, &blank, nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	same := "ALICE"
	updated, err := h.manager.UpdateProfile(ctx, &same, nil)
	require.NoError(t, err)
	assert.Equal(t, "ALICE", updated.Name)
}
