package preferences

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kit-messenger/internal/models"
	"kit-messenger/internal/state"
	"kit-messenger/internal/store"
)

func TestPreferencesPersist(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewFileSlot(filepath.Join(t.TempDir(), "state.json")), "ru")
	svc := NewService(state.New(st, st.Load(ctx)))

	assert.Equal(t, Preferences{Lang: "ru"}, svc.Get())

	require.NoError(t, svc.SetLanguage(ctx, "es"))
	require.NoError(t, svc.SetDarkMode(ctx, true))
	assert.ErrorIs(t, svc.SetLanguage(ctx, "de"), models.ErrInvalidInput)

	assert.Equal(t, Preferences{Lang: "es", DarkMode: true}, svc.Get())

	durable := st.Load(ctx)
	assert.Equal(t, "es", durable.Lang)
	assert.True(t, durable.DarkMode)
}
