package export

import (
	"bytes"
	"testing"
	"time"

	"playslot/internal/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteAuditWorkbook(t *testing.T) {
	events := []audit.Event{
		{
			UserID:    "u1",
			GameKey:   "gameA",
			DateKey:   "2030-03-14",
			SlotLabel: "14:30:00",
			Action:    audit.ActionConfirmed,
			CreatedAt: time.Date(2030, 3, 14, 14, 2, 0, 0, time.UTC),
		},
		{
			UserID:    "u2",
			GameKey:   "gameB",
			DateKey:   "2030-03-14",
			SlotLabel: "15:00:00",
			Action:    audit.ActionCancelled,
			CreatedAt: time.Date(2030, 3, 14, 14, 10, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAuditWorkbook(events, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Booking Audit")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Time", "User", "Game", "Date", "Slot", "Action"}, rows[0])
	assert.Equal(t, "u1", rows[1][1])
	assert.Equal(t, "14:30:00", rows[1][4])
	assert.Equal(t, "confirmed", rows[1][5])
	assert.Equal(t, "cancelled", rows[2][5])
}

func TestWriteAuditWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAuditWorkbook(nil, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Booking Audit")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSheetNameTruncated(t *testing.T) {
	w := NewExcelWriter("a-very-long-sheet-name-that-exceeds-the-limit")
	defer w.Close()
	assert.Len(t, w.sheet, 31)
}
