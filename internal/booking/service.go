// Package booking implements the slot-allocation flow: cap checks, hour
// enumeration, availability search, slot assignment and the two commit
// policies (direct and hold-then-confirm).
package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"playslot/internal/audit"
	"playslot/internal/hold"
	"playslot/internal/metrics"
	"playslot/internal/slots"
	"playslot/internal/store"

	"github.com/rs/zerolog"
)

// Policy selects how a picked slot is committed.
type Policy string

const (
	// PolicyDirect appends the picked slot to the store immediately.
	PolicyDirect Policy = "direct"
	// PolicyHold places the picked slot into a 5-minute provisional hold
	// and commits only on explicit confirmation.
	PolicyHold Policy = "hold"
)

var (
	// ErrCapacityExceeded means the daily cap is already met for the
	// relevant date and game.
	ErrCapacityExceeded = errors.New("daily booking cap reached")
	// ErrNoAvailability means the chosen hour has no free slot.
	ErrNoAvailability = errors.New("no free slots in the chosen hour")
	// ErrHoldExpired means no live hold matches a confirmation.
	ErrHoldExpired = errors.New("hold expired or missing")
)

// AuditRecorder receives booking-flow events. Recording is best effort.
type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

// Mirror receives the full store contents after each commit.
type Mirror interface {
	Sync(ctx context.Context, data store.Data) error
}

// Allocation is a chosen slot, committed or held.
type Allocation struct {
	SlotLabel string // "HH:MM:SS"
	DateKey   string // "YYYY-MM-DD"
	Start     time.Time
	End       time.Time // exclusive, Start + slot length
	Held      bool
}

// Service runs the booking flow against a store and a hold store.
type Service struct {
	store  *store.Store
	holds  hold.Store
	picker slots.Picker
	policy Policy
	audit  AuditRecorder // optional
	mirror Mirror        // optional
	logger *zerolog.Logger
}

func NewService(st *store.Store, holds hold.Store, picker slots.Picker, policy Policy, logger *zerolog.Logger) *Service {
	if picker == nil {
		picker = slots.NewRandomPicker()
	}
	if policy != PolicyDirect && policy != PolicyHold {
		policy = PolicyHold
	}
	return &Service{
		store:  st,
		holds:  holds,
		picker: picker,
		policy: policy,
		logger: logger,
	}
}

// WithAudit attaches an audit recorder.
func (s *Service) WithAudit(a AuditRecorder) *Service {
	s.audit = a
	return s
}

// WithMirror attaches a store mirror.
func (s *Service) WithMirror(m Mirror) *Service {
	s.mirror = m
	return s
}

// Policy returns the active commit policy.
func (s *Service) Policy() Policy {
	return s.policy
}

// HourOptions returns the selectable hour blocks, or ErrCapacityExceeded
// when today's bucket for the game is already full.
func (s *Service) HourOptions(userID, gameKey string, now time.Time) ([]slots.HourOption, error) {
	if s.store.Count(userID, slots.DateKey(now), gameKey) >= store.MaxPerDay {
		metrics.IncCapacityRejected()
		return nil, ErrCapacityExceeded
	}
	return slots.HourOptions(now), nil
}

// Allocate resolves an hour selection to a concrete slot: availability
// search, random assignment, then commit or hold depending on policy.
func (s *Service) Allocate(ctx context.Context, userID, gameKey, hourValue string, now time.Time) (*Allocation, error) {
	hour, dateKey, err := slots.ParseHourValue(hourValue)
	if err != nil {
		return nil, fmt.Errorf("parse hour selection: %w", err)
	}
	hourStart, err := slots.HourStart(dateKey, hour)
	if err != nil {
		return nil, fmt.Errorf("resolve hour start: %w", err)
	}

	candidates := slots.Available(s.store, userID, gameKey, hourStart, now)
	if len(candidates) == 0 {
		metrics.IncNoAvailability()
		return nil, ErrNoAvailability
	}

	pick := s.picker.Pick(candidates)
	alloc := &Allocation{
		SlotLabel: pick.Label(),
		DateKey:   pick.DateKey,
		Start:     pick.Start,
		End:       pick.End(),
	}

	if s.policy == PolicyDirect {
		if err := s.commit(ctx, userID, gameKey, alloc, PolicyDirect); err != nil {
			return nil, err
		}
		return alloc, nil
	}

	// The chosen hour may resolve to a different date than the one checked
	// before hour selection, so the cap is re-checked for the pick's own key.
	if s.store.Count(userID, alloc.DateKey, gameKey) >= store.MaxPerDay {
		metrics.IncCapacityRejected()
		return nil, ErrCapacityExceeded
	}

	h := hold.Hold{
		UserID:    userID,
		GameKey:   gameKey,
		SlotLabel: alloc.SlotLabel,
		DateKey:   alloc.DateKey,
		ExpiresAt: now.Add(hold.TTL),
	}
	if err := s.holds.Put(ctx, h); err != nil {
		return nil, fmt.Errorf("place hold: %w", err)
	}
	metrics.IncHoldOutcome("created")
	s.record(ctx, userID, gameKey, alloc, audit.ActionHeld)
	alloc.Held = true
	return alloc, nil
}

// Confirm commits a previously held slot. The hold must still be live and
// must match the confirmed slot exactly.
func (s *Service) Confirm(ctx context.Context, userID, gameKey, slotLabel, dateKey string, now time.Time) (*Allocation, error) {
	h, err := s.holds.Get(ctx, userID, gameKey)
	if err != nil {
		return nil, fmt.Errorf("load hold: %w", err)
	}
	if h == nil || h.SlotLabel != slotLabel || h.DateKey != dateKey || !h.ExpiresAt.After(now) {
		metrics.IncHoldOutcome("expired")
		return nil, ErrHoldExpired
	}

	start, err := slots.SlotTime(h.DateKey, h.SlotLabel)
	if err != nil {
		return nil, fmt.Errorf("decode held slot: %w", err)
	}
	alloc := &Allocation{
		SlotLabel: h.SlotLabel,
		DateKey:   h.DateKey,
		Start:     start,
		End:       start.Add(slots.SlotLength),
	}
	if err := s.commit(ctx, userID, gameKey, alloc, PolicyHold); err != nil {
		return nil, err
	}
	if err := s.holds.Delete(ctx, userID, gameKey); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Str("game", gameKey).Msg("failed to clear confirmed hold")
	}
	metrics.IncHoldOutcome("confirmed")
	return alloc, nil
}

// Cancel discards a pending hold, if any.
func (s *Service) Cancel(ctx context.Context, userID, gameKey string) error {
	h, err := s.holds.Get(ctx, userID, gameKey)
	if err != nil {
		return fmt.Errorf("load hold: %w", err)
	}
	if err := s.holds.Delete(ctx, userID, gameKey); err != nil {
		return fmt.Errorf("discard hold: %w", err)
	}
	if h != nil {
		metrics.IncHoldOutcome("cancelled")
		s.record(ctx, userID, gameKey, &Allocation{SlotLabel: h.SlotLabel, DateKey: h.DateKey}, audit.ActionCancelled)
	}
	return nil
}

func (s *Service) commit(ctx context.Context, userID, gameKey string, alloc *Allocation, policy Policy) error {
	err := s.store.Append(userID, alloc.DateKey, gameKey, alloc.SlotLabel)
	if errors.Is(err, store.ErrDailyCapExceeded) {
		metrics.IncCapacityRejected()
		return ErrCapacityExceeded
	}
	if err != nil {
		return err
	}
	metrics.IncBookingCommitted(string(policy))

	action := audit.ActionCommitted
	if policy == PolicyHold {
		action = audit.ActionConfirmed
	}
	s.record(ctx, userID, gameKey, alloc, action)

	if s.mirror != nil {
		if err := s.mirror.Sync(ctx, s.store.Snapshot()); err != nil {
			s.logger.Warn().Err(err).Msg("store mirror sync failed")
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, userID, gameKey string, alloc *Allocation, action string) {
	if s.audit == nil {
		return
	}
	ev := audit.Event{
		UserID:    userID,
		GameKey:   gameKey,
		DateKey:   alloc.DateKey,
		SlotLabel: alloc.SlotLabel,
		Action:    action,
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("audit record failed")
	}
}

// SessionStatus classifies a booked session against the current time.
type SessionStatus string

const (
	StatusExpired  SessionStatus = "expired"
	StatusOpen     SessionStatus = "open"
	StatusUpcoming SessionStatus = "upcoming"
)

// Session is one booked interval with its classification.
type Session struct {
	SlotLabel string
	DateKey   string
	Start     time.Time
	End       time.Time
	Status    SessionStatus
}

// Summary describes a user's sessions for a game over today and tomorrow.
type Summary struct {
	Sessions       []Session
	RemainingToday int
}

// Summarize classifies every session booked for today and tomorrow and
// reports how many bookings remain available today. Read-only.
func (s *Service) Summarize(userID, gameKey string, now time.Time) *Summary {
	today := slots.DateKey(now)
	tomorrow := slots.DateKey(now.AddDate(0, 0, 1))

	var sessions []Session
	for _, dateKey := range []string{today, tomorrow} {
		for _, label := range s.store.Booked(userID, dateKey, gameKey) {
			start, err := slots.SlotTime(dateKey, label)
			if err != nil {
				s.logger.Warn().Str("slot", label).Str("date", dateKey).Msg("skipping malformed stored slot")
				continue
			}
			end := start.Add(slots.SlotLength)
			status := StatusUpcoming
			switch {
			case !now.Before(end):
				status = StatusExpired
			case !now.Before(start):
				status = StatusOpen
			}
			sessions = append(sessions, Session{
				SlotLabel: label,
				DateKey:   dateKey,
				Start:     start,
				End:       end,
				Status:    status,
			})
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Start.Before(sessions[j].Start) })

	remaining := store.MaxPerDay - s.store.Count(userID, today, gameKey)
	if remaining < 0 {
		remaining = 0
	}
	return &Summary{Sessions: sessions, RemainingToday: remaining}
}

// UpcomingSession is a booked session about to start, for any user.
type UpcomingSession struct {
	UserID    string
	GameKey   string
	SlotLabel string
	DateKey   string
	Start     time.Time
}

// UpcomingSessions returns every session across all users starting within
// the window (now, now+within], ordered by start time.
func (s *Service) UpcomingSessions(now time.Time, within time.Duration) []UpcomingSession {
	var out []UpcomingSession
	for userID, byDate := range s.store.Snapshot() {
		for dateKey, byGame := range byDate {
			for gameKey, labels := range byGame {
				for _, label := range labels {
					start, err := slots.SlotTime(dateKey, label)
					if err != nil {
						continue
					}
					if start.After(now) && !start.After(now.Add(within)) {
						out = append(out, UpcomingSession{
							UserID:    userID,
							GameKey:   gameKey,
							SlotLabel: label,
							DateKey:   dateKey,
							Start:     start,
						})
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// TodayBookings returns the user's per-game buckets for the current date.
func (s *Service) TodayBookings(userID string, now time.Time) map[string][]string {
	return s.store.UserDay(userID, slots.DateKey(now))
}
