package schedule

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, spec string) ScheduleDate {
	t.Helper()
	d, err := NewScheduleDate(spec)
	if err != nil {
		t.Fatalf("NewScheduleDate(%q): %v", spec, err)
	}
	return d
}

func TestScheduleDateWildcardDay(t *testing.T) {
	d := mustParse(t, "*-*-1 0:0:0")
	matches := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if !d.Matches(matches) {
		t.Errorf("expected match on the first of the month")
	}
	noMatch := time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)
	if d.Matches(noMatch) {
		t.Errorf("did not expect match on the second")
	}
}

func TestScheduleDateMissingComponentsDefaultToWildcard(t *testing.T) {
	d := mustParse(t, "5")
	for day := 1; day <= 28; day++ {
		v := time.Date(2026, 3, day, 13, 45, 59, 0, time.UTC)
		if (day == 5) != d.Matches(v) {
			t.Errorf("day %d: Matches = %v, want %v", day, d.Matches(v), day == 5)
		}
	}
}

func TestScheduleDateWeekdaySet(t *testing.T) {
	d := mustParse(t, "Mon,Wed *-*-*")
	mon := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC) // a Monday
	tue := time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)
	if !d.Matches(mon) {
		t.Errorf("expected Monday to match")
	}
	if d.Matches(tue) {
		t.Errorf("did not expect Tuesday to match")
	}
}

func TestScheduleDateWeekdayInterval(t *testing.T) {
	d := mustParse(t, "Mon..Fri *-*-*")
	sat := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC) // a Saturday
	wed := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	if d.Matches(sat) {
		t.Errorf("did not expect Saturday to match a weekday interval")
	}
	if !d.Matches(wed) {
		t.Errorf("expected Wednesday to match a weekday interval")
	}
}

func TestScheduleDateIntervalAndList(t *testing.T) {
	d := mustParse(t, "*-*-1..5,15")
	for day := 1; day <= 20; day++ {
		want := day <= 5 || day == 15
		v := time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
		if d.Matches(v) != want {
			t.Errorf("day %d: Matches = %v, want %v", day, d.Matches(v), want)
		}
	}
}

func TestScheduleDateRejectsMalformed(t *testing.T) {
	if _, err := NewScheduleDate(""); err == nil {
		t.Errorf("expected error for empty spec")
	}
	if _, err := NewScheduleDate("1-2-3-4"); err == nil {
		t.Errorf("expected error for too many date components")
	}
	if _, err := NewScheduleDate("1-2-3 not-a-time"); err == nil {
		t.Errorf("expected error for malformed time")
	}
}
