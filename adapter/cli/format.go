package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rotahq/rota/internal/scheduling/domain"
)

// DateLayout is the wire format for visit dates on the command line.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD argument.
func ParseDate(s string) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return date, nil
}

// ParseStaffIDs parses repeated --staff flag values into UUIDs.
func ParseStaffIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid staff ID %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatVisit renders one appointment as a table-ish line.
func FormatVisit(a *domain.Appointment) string {
	staff := "-"
	if len(a.StaffIDs()) > 0 {
		parts := make([]string, len(a.StaffIDs()))
		for i, id := range a.StaffIDs() {
			parts[i] = id.String()[:8]
		}
		staff = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%s  %s %s [%s]  %-20s staff:%s",
		a.ID(), a.Date().Format(DateLayout), a.Clock(), a.Slot(), a.Status(), staff)
}

// DescribeRule renders a cadence rule for humans.
func DescribeRule(r domain.Rule) string {
	switch r.Kind {
	case domain.KindWeekly:
		if r.Interval > 1 {
			return fmt.Sprintf("every %d weeks", r.Interval)
		}
		return "weekly"
	case domain.KindBiweekly:
		return "every 2 weeks"
	case domain.KindEvery3Weeks:
		return "every 3 weeks"
	case domain.KindMonthly:
		return "monthly"
	case domain.KindCustomMonths:
		return fmt.Sprintf("every %d months", r.Interval)
	case domain.KindMonthlyPattern:
		if r.DayOfMonth > 0 {
			return fmt.Sprintf("monthly on day %d", r.DayOfMonth)
		}
		week := fmt.Sprintf("%d.", r.WeekOfMonth)
		if r.WeekOfMonth == domain.LastWeekOfMonth {
			week = "last"
		}
		return fmt.Sprintf("monthly on the %s %s", week, r.Weekday)
	default:
		return string(r.Kind)
	}
}
