package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// SlotLength is the fixed duration of a bookable gameplay slot.
	SlotLength = 10 * time.Minute

	// MaxHourOptions caps the hour menu at the platform's selection-size limit.
	MaxHourOptions = 25

	hourWindow = 24
)

// HourOption is a selectable hour block offered to the user.
type HourOption struct {
	// Label is human readable, e.g. "Tuesday 3 Sep 14:00–15:00".
	Label string
	// Value encodes the block as "<HH>_<dateKey>" for the callback payload.
	Value string
	// Start is the local start of the block.
	Start time.Time
}

// HourOptions enumerates the hour blocks for the next 24 hours starting at
// the current hour. Hours are derived by constructing timestamps with an
// hour offset so rollover across midnight and month/year boundaries comes
// out of the time package, never from arithmetic on the hour field.
func HourOptions(now time.Time) []HourOption {
	options := make([]HourOption, 0, hourWindow)
	for i := 0; i < hourWindow; i++ {
		start := time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+i, 0, 0, 0, now.Location())
		end := start.Add(time.Hour)
		label := fmt.Sprintf("%s %d %s %02d:00–%02d:00",
			start.Weekday().String(),
			start.Day(),
			start.Month().String()[:3],
			start.Hour(),
			end.Hour(),
		)
		options = append(options, HourOption{
			Label: label,
			Value: fmt.Sprintf("%02d_%s", start.Hour(), DateKey(start)),
			Start: start,
		})
		if len(options) >= MaxHourOptions {
			break
		}
	}
	return options
}

// ParseHourValue decodes an HourOption value back into its hour and date key.
func ParseHourValue(value string) (hour int, dateKey string, err error) {
	parts := strings.SplitN(value, "_", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid hour value: %s", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, "", fmt.Errorf("invalid hour in value %s", value)
	}
	if _, _, _, err := ParseDateKey(parts[1]); err != nil {
		return 0, "", err
	}
	return hour, parts[1], nil
}
