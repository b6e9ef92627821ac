package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(newFakeAdvice(), Options{ConfirmationDelay: time.Minute}, 0)
	ctx := context.Background()

	session, err := reg.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, 1, reg.Len())

	ctrl, err := reg.Get(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, ctrl)

	got, err := reg.Session(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, reg.Close(ctx, session.ID))
	assert.Equal(t, 0, reg.Len())

	select {
	case <-ctrl.Done():
	default:
		t.Fatal("controller not closed with its session")
	}

	_, err = reg.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, reg.Close(ctx, session.ID), ErrSessionNotFound)
}

func TestRegistryMaxSessions(t *testing.T) {
	reg := NewRegistry(newFakeAdvice(), Options{}, 2)
	t.Cleanup(reg.CloseAll)
	ctx := context.Background()

	_, err := reg.Create(ctx)
	require.NoError(t, err)
	_, err = reg.Create(ctx)
	require.NoError(t, err)

	_, err = reg.Create(ctx)
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry(newFakeAdvice(), Options{}, 0)
	ctx := context.Background()

	a, err := reg.Create(ctx)
	require.NoError(t, err)
	b, err := reg.Create(ctx)
	require.NoError(t, err)

	ca, _ := reg.Get(ctx, a.ID)
	cb, _ := reg.Get(ctx, b.ID)

	reg.CloseAll()
	assert.Equal(t, 0, reg.Len())
	for _, c := range []*Controller{ca, cb} {
		select {
		case <-c.Done():
		default:
			t.Fatal("controller left running")
		}
	}
}

func TestRegistrySweepClosesIdleSessions(t *testing.T) {
	now := time.Unix(1000, 0)
	reg := NewRegistry(newFakeAdvice(), Options{}, 1, WithIdleTimeout(time.Minute))
	reg.now = func() time.Time { return now }
	t.Cleanup(reg.CloseAll)
	ctx := context.Background()

	idle, err := reg.Create(ctx)
	require.NoError(t, err)
	ctrl, err := reg.Get(ctx, idle.ID)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Zero(t, reg.Sweep())

	now = now.Add(time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 0, reg.Len())
	select {
	case <-ctrl.Done():
	default:
		t.Fatal("expired session left its controller running")
	}

	// the freed slot is available again
	_, err = reg.Create(ctx)
	require.NoError(t, err)
}

func TestRegistryAttachedSessionNeverExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	reg := NewRegistry(newFakeAdvice(), Options{}, 0, WithIdleTimeout(time.Minute))
	reg.now = func() time.Time { return now }
	t.Cleanup(reg.CloseAll)
	ctx := context.Background()

	session, err := reg.Create(ctx)
	require.NoError(t, err)

	_, release, err := reg.Attach(ctx, session.ID)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	release()
	release()
	assert.Zero(t, reg.Sweep())

	now = now.Add(time.Minute)
	assert.Equal(t, 1, reg.Sweep())

	_, _, err = reg.Attach(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistryWithoutIdleTimeoutKeepsSessions(t *testing.T) {
	reg := NewRegistry(newFakeAdvice(), Options{}, 0)
	t.Cleanup(reg.CloseAll)

	_, err := reg.Create(context.Background())
	require.NoError(t, err)

	reg.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}
