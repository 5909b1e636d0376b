package messaging

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kit-messenger/internal/models"
	"kit-messenger/internal/state"
)

func TestRecordVoiceSendsToFocusedConversation(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")
	alice := f.register(t, "alice", "pw")

	sim := NewSimulator(f.messages, f.container, 10*time.Millisecond, time.Hour)
	t.Cleanup(sim.Close)
	target := models.DirectTarget{UserID: bob.ID}
	sim.SetFocus(target)

	_, err := sim.RecordVoice(alice.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.messages.History(alice.ID, target)) == 1
	}, time.Second, 5*time.Millisecond)

	msg := f.messages.History(alice.ID, target)[0]
	assert.Equal(t, VoicePlaceholder, msg.Text)
	assert.Equal(t, models.KindVoice, msg.Kind)
}

func TestRecordVoiceDroppedWhenFocusChanges(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")
	carol := f.register(t, "carol", "pw")
	alice := f.register(t, "alice", "pw")

	sim := NewSimulator(f.messages, f.container, 20*time.Millisecond, time.Hour)
	t.Cleanup(sim.Close)
	sim.SetFocus(models.DirectTarget{UserID: bob.ID})

	_, err := sim.RecordVoice(alice.ID)
	require.NoError(t, err)
	sim.SetFocus(models.DirectTarget{UserID: carol.ID})

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, f.messages.History(alice.ID, models.DirectTarget{UserID: bob.ID}))
	assert.Empty(t, f.messages.History(alice.ID, models.DirectTarget{UserID: carol.ID}))
}

func TestRecordVoiceCancel(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")
	alice := f.register(t, "alice", "pw")

	sim := NewSimulator(f.messages, f.container, 20*time.Millisecond, time.Hour)
	t.Cleanup(sim.Close)

	_, err := sim.RecordVoice(alice.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTarget, "nothing focused")

	sim.SetFocus(models.DirectTarget{UserID: bob.ID})
	cancel, err := sim.RecordVoice(alice.ID)
	require.NoError(t, err)
	cancel()
	cancel()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, f.messages.History(alice.ID, models.DirectTarget{UserID: bob.ID}))
}

func TestStartCallPublishesEnd(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")

	var ended atomic.Value
	f.container.Subscribe(func(ev state.Event) {
		if ev.Type == state.EventCallEnded {
			ended.Store(ev.TargetID)
		}
	})

	sim := NewSimulator(f.messages, f.container, time.Hour, 10*time.Millisecond)
	t.Cleanup(sim.Close)
	target := models.DirectTarget{UserID: bob.ID}
	sim.SetFocus(target)

	_, err := sim.StartCall(target)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return ended.Load() == bob.ID }, time.Second, 5*time.Millisecond)
	_, err = sim.StartCall(nil)
	assert.ErrorIs(t, err, models.ErrInvalidTarget)
}

func TestStartCallSuppressedAfterFocusChange(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")

	var ended atomic.Int32
	f.container.Subscribe(func(ev state.Event) {
		if ev.Type == state.EventCallEnded {
			ended.Add(1)
		}
	})

	sim := NewSimulator(f.messages, f.container, time.Hour, 20*time.Millisecond)
	t.Cleanup(sim.Close)
	sim.SetFocus(models.DirectTarget{UserID: bob.ID})
	_, err := sim.StartCall(models.DirectTarget{UserID: bob.ID})
	require.NoError(t, err)
	sim.SetFocus(nil)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), ended.Load())
	assert.Nil(t, sim.Focus())
}

func TestRecordVoiceDroppedAfterLogout(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")
	alice := f.register(t, "alice", "pw")

	sim := NewSimulator(f.messages, f.container, 30*time.Millisecond, time.Hour)
	t.Cleanup(sim.Close)
	target := models.DirectTarget{UserID: bob.ID}
	sim.SetFocus(target)

	_, err := sim.RecordVoice(alice.ID)
	require.NoError(t, err)
	require.NoError(t, f.identity.Logout(context.Background()))

	assert.Nil(t, sim.Focus())
	time.Sleep(90 * time.Millisecond)
	assert.Empty(t, f.messages.History(alice.ID, target))
}

func TestRevocationClearsFocus(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")

	sim := NewSimulator(f.messages, f.container, time.Hour, time.Hour)
	t.Cleanup(sim.Close)
	sim.SetFocus(models.DirectTarget{UserID: bob.ID})

	f.container.Publish(state.Event{Type: state.EventSessionRevoked, UserID: bob.ID})

	assert.Nil(t, sim.Focus())
}

func TestRecordVoiceRequiresSenderStillSignedIn(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")
	alice := f.register(t, "alice", "pw")

	sim := NewSimulator(f.messages, f.container, 30*time.Millisecond, time.Hour)
	t.Cleanup(sim.Close)
	target := models.DirectTarget{UserID: bob.ID}
	sim.SetFocus(target)

	_, err := sim.RecordVoice(alice.ID)
	require.NoError(t, err)
	// bob signs in on this device without alice signing out first
	_, err = f.identity.Login(context.Background(), "bob", "pw")
	require.NoError(t, err)

	time.Sleep(90 * time.Millisecond)
	assert.Empty(t, f.messages.History(alice.ID, target))
}

func TestGuardedSendStoresNothingWhenRefused(t *testing.T) {
	f := newFixture(t)
	bob := f.register(t, "bob", "pw")
	alice := f.register(t, "alice", "pw")
	target := models.DirectTarget{UserID: bob.ID}
	before := f.container.Revision()

	msg, err := f.messages.send(context.Background(), alice.ID, target, VoicePlaceholder, models.KindVoice,
		func(*models.AppState) bool { return false })

	require.ErrorIs(t, err, errDropped)
	assert.Nil(t, msg)
	assert.Equal(t, before, f.container.Revision())
	assert.Empty(t, f.messages.History(alice.ID, target))
}
