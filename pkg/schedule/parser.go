package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// weekdayNumber maps the three-letter weekday abbreviations accepted by the
// grammar onto ISO weekday numbers (Mon=1 .. Sun=7).
var weekdayNumber = map[string]int{
	"Mon": 1, "Tue": 2, "Wed": 3, "Thu": 4, "Fri": 5, "Sat": 6, "Sun": 7,
}

// ParseError reports a malformed ScheduleDate specification.
type ParseError struct {
	Spec   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid schedule date %q: %s", e.Spec, e.Reason)
}

// parseScheduleDate parses a ScheduleDate specification per the grammar in
// original_source/src/archive/bt/schedule.py:
//
//	date_expr := [ weekday_set WS ] date [ WS time ]
//	weekday_set := wd ("," wd)*
//	wd := NAME | NAME ".." NAME
//	date := [[ dtc "-" ] dtc "-" ] dtc
//	time := dtc ":" dtc [ ":" dtc ]
//	dtc := dtcs ("," dtcs)*
//	dtcs := "*" | INT | INT ".." INT
func parseScheduleDate(spec string) ([7]Matcher, error) {
	var fields [7]Matcher
	fail := func(reason string) ([7]Matcher, error) {
		return fields, &ParseError{Spec: spec, Reason: reason}
	}

	tokens := strings.Fields(spec)
	if len(tokens) == 0 {
		return fail("empty specification")
	}

	idx := 0
	weekday := Matcher(anyMatcher{})
	if isWeekdayToken(tokens[idx]) {
		m, err := parseWeekdaySet(tokens[idx])
		if err != nil {
			return fail(err.Error())
		}
		weekday = m
		idx++
	}
	if idx >= len(tokens) {
		return fail("missing date component")
	}
	dateFields, err := parseDate(tokens[idx])
	if err != nil {
		return fail(err.Error())
	}
	idx++

	timeFields := [3]Matcher{anyMatcher{}, anyMatcher{}, anyMatcher{}}
	if idx < len(tokens) {
		timeFields, err = parseTime(tokens[idx])
		if err != nil {
			return fail(err.Error())
		}
		idx++
	}
	if idx != len(tokens) {
		return fail("unexpected trailing tokens")
	}

	fields[0] = weekday
	fields[1], fields[2], fields[3] = dateFields[0], dateFields[1], dateFields[2]
	fields[4], fields[5], fields[6] = timeFields[0], timeFields[1], timeFields[2]
	return fields, nil
}

// isWeekdayToken reports whether token begins a weekday_set rather than a
// date: weekday names start with a letter, dates and times always start
// with a digit or '*'.
func isWeekdayToken(token string) bool {
	if token == "" {
		return false
	}
	c := token[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func parseWeekdaySet(token string) (Matcher, error) {
	var matchers []Matcher
	for _, part := range strings.Split(token, ",") {
		if strings.Contains(part, "..") {
			bounds := strings.SplitN(part, "..", 2)
			a, err := weekdayValue(bounds[0])
			if err != nil {
				return nil, err
			}
			b, err := weekdayValue(bounds[1])
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, intervalMatcher{min: a, max: b})
		} else {
			v, err := weekdayValue(part)
			if err != nil {
				return nil, err
			}
			matchers = append(matchers, valueMatcher{value: v})
		}
	}
	return newListMatcher(matchers), nil
}

func weekdayValue(name string) (int, error) {
	v, ok := weekdayNumber[name]
	if !ok {
		return 0, fmt.Errorf("unrecognized weekday %q", name)
	}
	return v, nil
}

// parseDate parses the "date" production and returns its three components
// in (year, month, day) order, prepending wildcards so the rightmost given
// component is always day.
func parseDate(token string) ([3]Matcher, error) {
	parts := strings.Split(token, "-")
	if len(parts) > 3 {
		return [3]Matcher{}, fmt.Errorf("date has too many components: %q", token)
	}
	matchers := make([]Matcher, 0, len(parts))
	for _, p := range parts {
		m, err := parseDtc(p)
		if err != nil {
			return [3]Matcher{}, err
		}
		matchers = append(matchers, m)
	}
	for len(matchers) < 3 {
		matchers = append([]Matcher{anyMatcher{}}, matchers...)
	}
	return [3]Matcher{matchers[0], matchers[1], matchers[2]}, nil
}

// parseTime parses the "time" production and returns its three components
// in (hour, minute, second) order, appending wildcards so the leftmost
// given component is always hour.
func parseTime(token string) ([3]Matcher, error) {
	parts := strings.Split(token, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return [3]Matcher{}, fmt.Errorf("time must have 2 or 3 components: %q", token)
	}
	matchers := make([]Matcher, 0, len(parts))
	for _, p := range parts {
		m, err := parseDtc(p)
		if err != nil {
			return [3]Matcher{}, err
		}
		matchers = append(matchers, m)
	}
	for len(matchers) < 3 {
		matchers = append(matchers, anyMatcher{})
	}
	return [3]Matcher{matchers[0], matchers[1], matchers[2]}, nil
}

// parseDtc parses a "dtc" production: a comma-separated list of dtcs
// elements, collapsed to a single Matcher if there is only one.
func parseDtc(token string) (Matcher, error) {
	if token == "" {
		return nil, fmt.Errorf("empty date/time component")
	}
	var matchers []Matcher
	for _, p := range strings.Split(token, ",") {
		m, err := parseDtcs(p)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return newListMatcher(matchers), nil
}

// parseDtcs parses a single "dtcs" element: a wildcard, a value, or an
// inclusive interval.
func parseDtcs(token string) (Matcher, error) {
	if token == "*" {
		return anyMatcher{}, nil
	}
	if strings.Contains(token, "..") {
		bounds := strings.SplitN(token, "..", 2)
		a, err := strconv.Atoi(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("invalid interval bound %q", bounds[0])
		}
		b, err := strconv.Atoi(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("invalid interval bound %q", bounds[1])
		}
		return intervalMatcher{min: a, max: b}, nil
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", token)
	}
	return valueMatcher{value: v}, nil
}
