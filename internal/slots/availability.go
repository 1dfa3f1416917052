package slots

import "time"

// Candidate is a free slot inside an hour block. DateKey is resolved from the
// candidate's own timestamp, not the hour's nominal date, so the two halves
// of a midnight-crossing block carry different keys.
type Candidate struct {
	Start   time.Time
	DateKey string
}

// Label returns the "HH:MM:SS" form stored in the booking store. Seconds are
// always zero; slots start on whole minutes.
func (c Candidate) Label() string {
	return c.Start.Format("15:04:05")
}

// End returns the exclusive end of the slot interval.
func (c Candidate) End() time.Time {
	return c.Start.Add(SlotLength)
}

// BookingChecker reports whether a slot label is already booked for a
// user/date/game bucket.
type BookingChecker interface {
	IsBooked(userID, dateKey, gameKey, slotLabel string) bool
}

// Available enumerates the free slots of an hour block for a user and game.
//
// A candidate is excluded when it lies in the past on the current date (a
// future-dated hour is never excluded by the past rule), or when its label
// already appears in the store bucket for the candidate's own resolved date.
// The result is empty, never nil-vs-empty significant, when the hour is full.
func Available(checker BookingChecker, userID, gameKey string, hourStart, now time.Time) []Candidate {
	today := DateKey(now)
	candidates := make([]Candidate, 0, int(time.Hour/SlotLength))
	for offset := time.Duration(0); offset < time.Hour; offset += SlotLength {
		start := hourStart.Add(offset)
		if DateKey(start) == today && start.Before(now) {
			continue
		}
		cand := Candidate{Start: start, DateKey: DateKey(start)}
		if checker.IsBooked(userID, cand.DateKey, gameKey, cand.Label()) {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates
}
