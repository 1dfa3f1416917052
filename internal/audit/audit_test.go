package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndListSince(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	base := time.Date(2030, 3, 14, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{UserID: "u1", GameKey: "gameA", DateKey: "2030-03-14", SlotLabel: "14:00:00", Action: ActionHeld, CreatedAt: base},
		{UserID: "u1", GameKey: "gameA", DateKey: "2030-03-14", SlotLabel: "14:00:00", Action: ActionConfirmed, CreatedAt: base.Add(time.Minute)},
		{UserID: "u2", GameKey: "gameB", DateKey: "2030-03-14", SlotLabel: "15:30:00", Action: ActionCommitted, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, ev := range events {
		require.NoError(t, l.Record(ctx, ev))
	}

	got, err := l.ListSince(ctx, base.Add(30*time.Second))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ActionConfirmed, got[0].Action)
	assert.Equal(t, ActionCommitted, got[1].Action)
	assert.Equal(t, "u2", got[1].UserID)
	assert.NotZero(t, got[0].ID)
}

func TestRecordFillsCreatedAt(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Event{
		UserID: "u1", GameKey: "gameA", DateKey: "2030-03-14",
		SlotLabel: "14:00:00", Action: ActionCancelled,
	}))

	got, err := l.ListSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestListSinceEmpty(t *testing.T) {
	l := openTestLog(t)

	got, err := l.ListSince(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}
