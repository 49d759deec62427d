package purpose

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Retention is a calendar period ("how long may this data live") applied
// from the moment consent is granted or renewed. Calendar arithmetic, not a
// flat duration: "1y" over a leap year is 366 days.
type Retention struct {
	Years  int
	Months int
	Days   int
}

func (r Retention) IsZero() bool {
	return r.Years == 0 && r.Months == 0 && r.Days == 0
}

// From returns the expiry for a grant issued at t.
func (r Retention) From(t time.Time) time.Time {
	return t.AddDate(r.Years, r.Months, r.Days)
}

// Less orders retentions by their effect from a common reference point.
func (r Retention) Less(other Retention, ref time.Time) bool {
	return r.From(ref).Before(other.From(ref))
}

func (r Retention) String() string {
	var b strings.Builder
	if r.Years != 0 {
		fmt.Fprintf(&b, "%dy", r.Years)
	}
	if r.Months != 0 {
		fmt.Fprintf(&b, "%dm", r.Months)
	}
	if r.Days != 0 {
		fmt.Fprintf(&b, "%dd", r.Days)
	}
	if b.Len() == 0 {
		return "0d"
	}
	return b.String()
}

// ParseRetention reads compact period strings such as "2y", "6m", "30d" or
// combinations like "1y6m".
func ParseRetention(s string) (Retention, error) {
	var r Retention
	rest := strings.TrimSpace(s)
	if rest == "" {
		return r, fmt.Errorf("empty retention")
	}
	for rest != "" {
		i := 0
		for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
			i++
		}
		if i == 0 || i == len(rest) {
			return Retention{}, fmt.Errorf("invalid retention %q", s)
		}
		n, err := strconv.Atoi(rest[:i])
		if err != nil {
			return Retention{}, fmt.Errorf("invalid retention %q: %w", s, err)
		}
		switch rest[i] {
		case 'y':
			r.Years += n
		case 'm':
			r.Months += n
		case 'd':
			r.Days += n
		default:
			return Retention{}, fmt.Errorf("invalid retention unit %q in %q", rest[i], s)
		}
		rest = rest[i+1:]
	}
	return r, nil
}

// UnmarshalYAML lets purpose files write retentions as "10y".
func (r *Retention) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseRetention(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
