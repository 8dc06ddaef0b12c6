package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/rednote/pkg/models"
)

func TestLoginEventStorage_AppendAssignsSequentialIDs(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := &models.LoginEvent{SessionID: "sess_1", Phase: "opened"}
	second := &models.LoginEvent{SessionID: "sess_1", Phase: "completed", Status: models.LoginSuccess}
	require.NoError(t, m.LoginEventStorage().Append(ctx, first))
	require.NoError(t, m.LoginEventStorage().Append(ctx, second))

	assert.Greater(t, second.ID, first.ID)
}

func TestLoginEventStorage_AppendRequiresSessionID(t *testing.T) {
	m := newTestManager(t)

	err := m.LoginEventStorage().Append(context.Background(), &models.LoginEvent{Phase: "opened"})
	require.Error(t, err)
}

func TestLoginEventStorage_AppendSetsCreatedAt(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	event := &models.LoginEvent{SessionID: "sess_1", Phase: "opened"}
	require.NoError(t, m.LoginEventStorage().Append(ctx, event))

	events, err := m.LoginEventStorage().Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.WithinDuration(t, time.Now(), events[0].CreatedAt, 5*time.Second)
}

func TestLoginEventStorage_RecentNewestFirst(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	phases := []string{"opened", "timeout", "completed"}
	for i, phase := range phases {
		event := &models.LoginEvent{
			SessionID: "sess_1",
			Phase:     phase,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, m.LoginEventStorage().Append(ctx, event))
	}

	events, err := m.LoginEventStorage().Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "completed", events[0].Phase)
	assert.Equal(t, "timeout", events[1].Phase)
}

func TestLoginEventStorage_RecentZeroLimit(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.LoginEventStorage().Append(ctx, &models.LoginEvent{SessionID: "sess_1", Phase: "opened"}))

	events, err := m.LoginEventStorage().Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLoginEventStorage_DeleteOlderThan(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	now := time.Now()
	old1 := &models.LoginEvent{SessionID: "sess_1", Phase: "opened", CreatedAt: now.Add(-10 * 24 * time.Hour)}
	old2 := &models.LoginEvent{SessionID: "sess_1", Phase: "timeout", CreatedAt: now.Add(-9 * 24 * time.Hour)}
	recent := &models.LoginEvent{SessionID: "sess_2", Phase: "opened", CreatedAt: now.Add(-time.Hour)}
	for _, e := range []*models.LoginEvent{old1, old2, recent} {
		require.NoError(t, m.LoginEventStorage().Append(ctx, e))
	}

	deleted, err := m.LoginEventStorage().DeleteOlderThan(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	events, err := m.LoginEventStorage().Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "sess_2", events[0].SessionID)
}
