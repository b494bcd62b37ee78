package model

import (
	"errors"
	"fmt"
	"time"
)

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

var (
	ErrInvalidRecurrenceType = errors.New("model: invalid recurrence type")
	ErrInvalidInterval       = errors.New("model: invalid recurrence interval")
	ErrInvalidDayOfMonth     = errors.New("model: invalid recurrence day of month")
)

// DefaultMaxOccurrences bounds instance generation when a pattern does not
// carry its own cap.
const DefaultMaxOccurrences = 100

type RecurrencePattern struct {
	Type     RecurrenceType
	Interval int
	// DaysOfWeek is accepted and persisted for weekly patterns but not
	// consulted when advancing: weekly recurrence steps whole weeks from
	// the current due date.
	DaysOfWeek     []time.Weekday
	DayOfMonth     int
	EndDate        *time.Time
	MaxOccurrences int
}

func (p RecurrencePattern) Validate() error {
	switch p.Type {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRecurrenceType, p.Type)
	}
	if p.Interval <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, p.Interval)
	}
	if p.DayOfMonth != 0 && (p.DayOfMonth < 1 || p.DayOfMonth > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, p.DayOfMonth)
	}
	if p.MaxOccurrences < 0 {
		return errors.New("model: max occurrences must not be negative")
	}
	seen := make(map[time.Weekday]bool, len(p.DaysOfWeek))
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("model: invalid weekday %d in recurrence", d)
		}
		if seen[d] {
			return errors.New("model: duplicate weekday in recurrence")
		}
		seen[d] = true
	}
	return nil
}

// NextOccurrence computes the due date following current, or nil when the
// pattern cannot advance: missing due date, malformed pattern, or a result
// past EndDate. It never returns an error; callers treat nil as the normal
// terminal state.
func (p RecurrencePattern) NextOccurrence(current *time.Time) *time.Time {
	if current == nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return nil
	}

	var next time.Time
	switch p.Type {
	case RecurrenceDaily:
		next = current.AddDate(0, 0, p.Interval)
	case RecurrenceWeekly:
		next = current.AddDate(0, 0, p.Interval*7)
	case RecurrenceMonthly:
		next = addMonthsClamped(*current, p.Interval, p.DayOfMonth)
	case RecurrenceYearly:
		next = addMonthsClamped(*current, p.Interval*12, 0)
	default:
		return nil
	}

	if p.EndDate != nil && next.After(*p.EndDate) {
		return nil
	}
	return &next
}

func (p RecurrencePattern) Cap() int {
	if p.MaxOccurrences > 0 {
		return p.MaxOccurrences
	}
	return DefaultMaxOccurrences
}

// addMonthsClamped advances whole months without the day-overflow rollover of
// AddDate: Jan 31 plus one month lands on the last day of February, not on
// March 3. A non-zero dayOfMonth forces that day, clamped to the target
// month's length.
func addMonthsClamped(t time.Time, months int, dayOfMonth int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := time.Month(total%12 + 1)
	if total < 0 {
		year = y + (total-11)/12
		month = time.Month((total%12+12)%12 + 1)
	}

	day := d
	if dayOfMonth > 0 {
		day = dayOfMonth
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
