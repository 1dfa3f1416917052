package booking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"playslot/internal/audit"
	"playslot/internal/hold"
	"playslot/internal/slots"
	"playslot/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvents struct {
	events []audit.Event
}

func (r *recordedEvents) Record(_ context.Context, ev audit.Event) error {
	r.events = append(r.events, ev)
	return nil
}

func newService(t *testing.T, policy Policy) (*Service, *store.Store) {
	t.Helper()
	logger := zerolog.Nop()
	st, err := store.Open(filepath.Join(t.TempDir(), "bookings.json"), &logger)
	require.NoError(t, err)
	svc := NewService(st, hold.NewMemoryStore(), slots.FirstFitPicker{}, policy, &logger)
	return svc, st
}

func testNow(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2030, 3, 14, 14, 5, 0, 0, time.Local)
}

func TestHourOptionsRespectsDailyCap(t *testing.T) {
	svc, st := newService(t, PolicyDirect)
	now := testNow(t)

	opts, err := svc.HourOptions("u1", "gameA", now)
	require.NoError(t, err)
	assert.Len(t, opts, 24)

	require.NoError(t, st.Append("u1", "2030-03-14", "gameA", "15:00:00"))
	require.NoError(t, st.Append("u1", "2030-03-14", "gameA", "15:10:00"))

	_, err = svc.HourOptions("u1", "gameA", now)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// The cap is scoped per game.
	_, err = svc.HourOptions("u1", "gameB", now)
	assert.NoError(t, err)
}

func TestAllocateDirectCommitsImmediately(t *testing.T) {
	svc, st := newService(t, PolicyDirect)
	now := testNow(t)

	alloc, err := svc.Allocate(context.Background(), "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)
	assert.False(t, alloc.Held)
	assert.Equal(t, "15:00:00", alloc.SlotLabel)
	assert.Equal(t, "2030-03-14", alloc.DateKey)
	assert.Equal(t, alloc.Start.Add(slots.SlotLength), alloc.End)

	assert.Equal(t, []string{"15:00:00"}, st.Booked("u1", "2030-03-14", "gameA"))
}

func TestAllocateSkipsPastSlotsInCurrentHour(t *testing.T) {
	svc, _ := newService(t, PolicyDirect)
	now := testNow(t) // 14:05, so 14:00 has already started

	alloc, err := svc.Allocate(context.Background(), "u1", "gameA", "14_2030-03-14", now)
	require.NoError(t, err)
	assert.Equal(t, "14:10:00", alloc.SlotLabel)
}

func TestAllocateNoAvailability(t *testing.T) {
	svc, _ := newService(t, PolicyDirect)
	// 14:55 leaves no unstarted slot in the 14:00 hour.
	now := time.Date(2030, 3, 14, 14, 55, 0, 0, time.Local)

	_, err := svc.Allocate(context.Background(), "u1", "gameA", "14_2030-03-14", now)
	assert.ErrorIs(t, err, ErrNoAvailability)
}

func TestAllocateDirectEnforcesCap(t *testing.T) {
	svc, st := newService(t, PolicyDirect)
	now := testNow(t)
	ctx := context.Background()

	_, err := svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)
	_, err = svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)

	_, err = svc.Allocate(ctx, "u1", "gameA", "16_2030-03-14", now)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, st.Count("u1", "2030-03-14", "gameA"))
}

func TestAllocateRejectsMalformedHourValue(t *testing.T) {
	svc, _ := newService(t, PolicyDirect)
	now := testNow(t)

	for _, value := range []string{"", "15", "99_2030-03-14", "aa_2030-03-14", "15_2026-3-14"} {
		_, err := svc.Allocate(context.Background(), "u1", "gameA", value, now)
		assert.Error(t, err, "value %q", value)
	}
}

func TestHoldFlowConfirm(t *testing.T) {
	svc, st := newService(t, PolicyHold)
	now := testNow(t)
	ctx := context.Background()

	alloc, err := svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)
	assert.True(t, alloc.Held)
	assert.Equal(t, 0, st.Count("u1", "2030-03-14", "gameA"), "held slot must not be committed yet")

	confirmed, err := svc.Confirm(ctx, "u1", "gameA", alloc.SlotLabel, alloc.DateKey, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, alloc.SlotLabel, confirmed.SlotLabel)
	assert.Equal(t, []string{"15:00:00"}, st.Booked("u1", "2030-03-14", "gameA"))

	// The hold is consumed by the confirmation.
	_, err = svc.Confirm(ctx, "u1", "gameA", alloc.SlotLabel, alloc.DateKey, now.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestConfirmExpiredHold(t *testing.T) {
	svc, st := newService(t, PolicyHold)
	now := testNow(t)
	ctx := context.Background()

	alloc, err := svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, "u1", "gameA", alloc.SlotLabel, alloc.DateKey, now.Add(hold.TTL+time.Second))
	assert.ErrorIs(t, err, ErrHoldExpired)
	assert.Equal(t, 0, st.Count("u1", "2030-03-14", "gameA"))
}

func TestConfirmMismatchedSlot(t *testing.T) {
	svc, _ := newService(t, PolicyHold)
	now := testNow(t)
	ctx := context.Background()

	alloc, err := svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, "u1", "gameA", "23:50:00", alloc.DateKey, now)
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestCancelDiscardsHold(t *testing.T) {
	svc, _ := newService(t, PolicyHold)
	now := testNow(t)
	ctx := context.Background()

	alloc, err := svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, "u1", "gameA"))

	_, err = svc.Confirm(ctx, "u1", "gameA", alloc.SlotLabel, alloc.DateKey, now)
	assert.ErrorIs(t, err, ErrHoldExpired)

	// Cancelling with nothing held is a no-op.
	assert.NoError(t, svc.Cancel(ctx, "u1", "gameA"))
}

func TestHoldPolicyRechecksCapBeforeHolding(t *testing.T) {
	svc, st := newService(t, PolicyHold)
	now := testNow(t)

	require.NoError(t, st.Append("u1", "2030-03-15", "gameA", "09:00:00"))
	require.NoError(t, st.Append("u1", "2030-03-15", "gameA", "09:10:00"))

	// Today is open, but the selected hour resolves to a full date.
	_, err := svc.Allocate(context.Background(), "u1", "gameA", "09_2030-03-15", now)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestSummarizeClassifiesSessions(t *testing.T) {
	svc, st := newService(t, PolicyDirect)
	now := testNow(t) // 14:05

	require.NoError(t, st.Append("u1", "2030-03-14", "gameA", "10:00:00"))
	require.NoError(t, st.Append("u1", "2030-03-14", "gameA", "14:00:00"))
	require.NoError(t, st.Append("u1", "2030-03-15", "gameA", "09:00:00"))

	sum := svc.Summarize("u1", "gameA", now)
	require.Len(t, sum.Sessions, 3)
	assert.Equal(t, StatusExpired, sum.Sessions[0].Status)
	assert.Equal(t, "10:00:00", sum.Sessions[0].SlotLabel)
	assert.Equal(t, StatusOpen, sum.Sessions[1].Status)
	assert.Equal(t, StatusUpcoming, sum.Sessions[2].Status)
	assert.Equal(t, "2030-03-15", sum.Sessions[2].DateKey)
	assert.Equal(t, 0, sum.RemainingToday)
}

func TestSummarizeEmpty(t *testing.T) {
	svc, _ := newService(t, PolicyDirect)

	sum := svc.Summarize("u1", "gameA", testNow(t))
	assert.Empty(t, sum.Sessions)
	assert.Equal(t, store.MaxPerDay, sum.RemainingToday)
}

func TestUpcomingSessions(t *testing.T) {
	svc, st := newService(t, PolicyDirect)
	now := testNow(t) // 14:05

	require.NoError(t, st.Append("u1", "2030-03-14", "gameA", "14:08:00"))
	require.NoError(t, st.Append("u2", "2030-03-14", "gameB", "14:06:00"))
	require.NoError(t, st.Append("u1", "2030-03-14", "gameB", "15:00:00")) // outside window
	require.NoError(t, st.Append("u2", "2030-03-14", "gameA", "14:00:00")) // already started

	due := svc.UpcomingSessions(now, 5*time.Minute)
	require.Len(t, due, 2)
	assert.Equal(t, "u2", due[0].UserID)
	assert.Equal(t, "14:06:00", due[0].SlotLabel)
	assert.Equal(t, "u1", due[1].UserID)
	assert.Equal(t, "14:08:00", due[1].SlotLabel)
}

func TestAuditEventsRecorded(t *testing.T) {
	svc, _ := newService(t, PolicyHold)
	rec := &recordedEvents{}
	svc.WithAudit(rec)
	now := testNow(t)
	ctx := context.Background()

	alloc, err := svc.Allocate(ctx, "u1", "gameA", "15_2030-03-14", now)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, "u1", "gameA", alloc.SlotLabel, alloc.DateKey, now)
	require.NoError(t, err)

	require.Len(t, rec.events, 2)
	assert.Equal(t, audit.ActionHeld, rec.events[0].Action)
	assert.Equal(t, audit.ActionConfirmed, rec.events[1].Action)
	assert.Equal(t, "u1", rec.events[1].UserID)
}
