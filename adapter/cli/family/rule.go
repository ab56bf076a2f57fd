package family

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotahq/rota/internal/scheduling/domain"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var ordinals = map[string]int{
	"1st":  1,
	"2nd":  2,
	"3rd":  3,
	"4th":  4,
	"last": domain.LastWeekOfMonth,
}

// parseRule turns the --rule flag into a cadence rule. Accepted forms:
//
//	weekly | biweekly | every3weeks | monthly
//	months:<n>             e.g. months:2 for every second month
//	day:<n>                e.g. day:15 for the 15th of each month
//	<ordinal>:<weekday>    e.g. 2nd:tuesday, last:friday
func parseRule(spec string) (domain.Rule, error) {
	switch spec {
	case "weekly":
		return domain.Rule{Kind: domain.KindWeekly, Interval: 1}, nil
	case "biweekly":
		return domain.Rule{Kind: domain.KindBiweekly}, nil
	case "every3weeks":
		return domain.Rule{Kind: domain.KindEvery3Weeks}, nil
	case "monthly":
		return domain.Rule{Kind: domain.KindMonthly}, nil
	}

	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return domain.Rule{}, fmt.Errorf("invalid rule %q", spec)
	}

	switch parts[0] {
	case "months":
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			return domain.Rule{}, fmt.Errorf("invalid rule %q: month count must be a positive number", spec)
		}
		return domain.Rule{Kind: domain.KindCustomMonths, Interval: n}, nil

	case "day":
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > 31 {
			return domain.Rule{}, fmt.Errorf("invalid rule %q: day must be 1-31", spec)
		}
		return domain.Rule{Kind: domain.KindMonthlyPattern, DayOfMonth: n}, nil

	default:
		week, ok := ordinals[parts[0]]
		if !ok {
			return domain.Rule{}, fmt.Errorf("invalid rule %q", spec)
		}
		weekday, ok := weekdays[strings.ToLower(parts[1])]
		if !ok {
			return domain.Rule{}, fmt.Errorf("invalid rule %q: unknown weekday %q", spec, parts[1])
		}
		return domain.Rule{Kind: domain.KindMonthlyPattern, Weekday: weekday, WeekOfMonth: week}, nil
	}
}
