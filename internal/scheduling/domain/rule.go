package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RuleKind identifies the recurrence cadence of a family.
type RuleKind string

const (
	KindWeekly         RuleKind = "weekly"
	KindBiweekly       RuleKind = "biweekly"
	KindEvery3Weeks    RuleKind = "every3weeks"
	KindMonthly        RuleKind = "monthly"
	KindCustomMonths   RuleKind = "customMonths"
	KindMonthlyPattern RuleKind = "monthlyPattern"
)

// IsValid checks if the rule kind is a known cadence.
func (k RuleKind) IsValid() bool {
	switch k {
	case KindWeekly, KindBiweekly, KindEvery3Weeks, KindMonthly, KindCustomMonths, KindMonthlyPattern:
		return true
	default:
		return false
	}
}

// LastWeekOfMonth selects the last occurrence of a weekday instead of a
// counted week for monthlyPattern rules.
const LastWeekOfMonth = -1

// Rule is the recurrence rule value type. Exactly one shape is meaningful per
// kind; fields that don't apply to the kind are ignored, not validated away.
type Rule struct {
	Kind RuleKind
	// Interval means weeks for KindWeekly and months for KindCustomMonths.
	Interval int
	// Weekday and WeekOfMonth anchor KindMonthlyPattern ("2nd Tuesday").
	Weekday     time.Weekday
	WeekOfMonth int
	// DayOfMonth is the alternate KindMonthlyPattern anchor.
	DayOfMonth int
}

// DefaultRule is the fallback applied to unknown or unparseable rule data.
func DefaultRule() Rule {
	return Rule{Kind: KindWeekly, Interval: 1}
}

// NormalizeDate truncates a timestamp to UTC midnight. Appointment dates are
// calendar-day values, never wall-clock instants.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NextDate computes the occurrence following ref. It is a pure function of
// the immediately preceding date; monthly cadences clamp to short months
// without the clamp becoming sticky (Jan 31 -> Feb 28 -> Mar 31). Garbage
// rules degrade to the weekly cadence rather than erroring.
func (r Rule) NextDate(ref time.Time) time.Time {
	ref = NormalizeDate(ref)

	switch r.Kind {
	case KindWeekly:
		weeks := r.Interval
		if weeks < 1 {
			weeks = 1
		}
		return ref.AddDate(0, 0, 7*weeks)
	case KindBiweekly:
		return ref.AddDate(0, 0, 14)
	case KindEvery3Weeks:
		return ref.AddDate(0, 0, 21)
	case KindMonthly:
		return addMonthsClamped(ref, 1)
	case KindCustomMonths:
		months := r.Interval
		if months < 1 {
			months = 1
		}
		return addMonthsClamped(ref, months)
	case KindMonthlyPattern:
		if r.DayOfMonth > 0 {
			return nextMonthOnDay(ref, r.DayOfMonth)
		}
		return nextMonthOnWeekday(ref, r.Weekday, r.WeekOfMonth)
	default:
		return ref.AddDate(0, 0, 7)
	}
}

// addMonthsClamped adds n calendar months preserving the day-of-month where
// possible, clamping to the last day of a shorter target month. The clamp is
// not sticky: a reference sitting on the last day of its month means "end of
// month", so a clamped Feb 28 advances to Mar 31, not Mar 28.
func addMonthsClamped(ref time.Time, n int) time.Time {
	y, m, d := ref.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysInMonth(first.Year(), first.Month())
	if d >= daysInMonth(y, m) || d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// nextMonthOnDay targets the same day number in the following month.
func nextMonthOnDay(ref time.Time, day int) time.Time {
	y, m, _ := ref.Date()
	first := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// nextMonthOnWeekday finds the week-th occurrence of weekday in the month
// after ref. week == LastWeekOfMonth selects the final occurrence.
func nextMonthOnWeekday(ref time.Time, weekday time.Weekday, week int) time.Time {
	y, m, _ := ref.Date()
	first := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)

	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	firstHit := first.AddDate(0, 0, offset)

	if week == LastWeekOfMonth {
		last := firstHit
		for {
			next := last.AddDate(0, 0, 7)
			if next.Month() != first.Month() {
				return last
			}
			last = next
		}
	}

	if week < 1 {
		week = 1
	}
	return firstHit.AddDate(0, 0, (week-1)*7)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EncodeRule serializes a rule to the pipe-delimited storage record.
func EncodeRule(r Rule) string {
	return fmt.Sprintf("%s|%d|%d|%d|%d", r.Kind, r.Interval, int(r.Weekday), r.WeekOfMonth, r.DayOfMonth)
}

// DecodeRule parses a stored rule record. Malformed input decodes to the
// weekly default so that bad rows degrade instead of failing the caller.
func DecodeRule(raw string) Rule {
	parts := strings.Split(raw, "|")
	if len(parts) != 5 {
		return DefaultRule()
	}

	kind := RuleKind(parts[0])
	if !kind.IsValid() {
		return DefaultRule()
	}

	nums := make([]int, 4)
	for i, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return DefaultRule()
		}
		nums[i] = n
	}

	return Rule{
		Kind:        kind,
		Interval:    nums[0],
		Weekday:     time.Weekday(nums[1]),
		WeekOfMonth: nums[2],
		DayOfMonth:  nums[3],
	}
}
