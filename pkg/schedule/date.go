package schedule

import "time"

// fieldNames mirrors original_source's _dt_fields ordering, used only for
// String's diagnostic output.
var fieldNames = [7]string{"weekday", "year", "month", "day", "hour", "minute", "second"}

// ScheduleDate is a parsed date_expr: one Matcher per datetime component
// (weekday, year, month, day, hour, minute, second).
type ScheduleDate struct {
	fields [7]Matcher
}

// NewScheduleDate parses a date_expr specification.
func NewScheduleDate(spec string) (ScheduleDate, error) {
	fields, err := parseScheduleDate(spec)
	if err != nil {
		return ScheduleDate{}, err
	}
	return ScheduleDate{fields: fields}, nil
}

// Matches reports whether every one of the seven fields matches the
// corresponding component of t.
func (d ScheduleDate) Matches(t time.Time) bool {
	values := [7]int{
		int(isoWeekday(t)),
		t.Year(),
		int(t.Month()),
		t.Day(),
		t.Hour(),
		t.Minute(),
		t.Second(),
	}
	for i, m := range d.fields {
		if m == nil {
			continue
		}
		if !m.Matches(values[i]) {
			return false
		}
	}
	return true
}

// isoWeekday returns 1..7 for Monday..Sunday, matching Python's
// datetime.isoweekday().
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (d ScheduleDate) String() string {
	s := ""
	for i, m := range d.fields {
		if i > 0 {
			s += " "
		}
		s += fieldNames[i] + "=" + m.String()
	}
	return s
}
