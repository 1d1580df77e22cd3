package generic_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestDateOf_TruncatesInOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	d := generic.DateOf(time.Date(2024, time.March, 1, 1, 30, 0, 0, loc))

	if !d.Equal(generic.NewDate(2024, time.March, 1)) {
		t.Errorf("expected 2024-03-01, got %s", d)
	}
	if !generic.DateOf(time.Time{}).IsZero() {
		t.Error("expected zero time to give zero date")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2024-02-29", "2024-02-29", false},
		{"2024-03-01T17:00:00Z", "2024-03-01", false},
		{"2024-03-01T23:30:00-05:00", "2024-03-01", false},
		{"03/01/2024", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := generic.ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got.String() != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D generic.Date `json:"d"`
		Z generic.Date `json:"z"`
	}{D: generic.NewDate(2024, time.January, 30)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2024-01-30","z":""}` {
		t.Errorf("unexpected JSON %s", b)
	}

	var d generic.Date
	if err := json.Unmarshal([]byte(`"2024-02-01"`), &d); err != nil {
		t.Fatal(err)
	}
	if !d.Equal(generic.NewDate(2024, time.February, 1)) {
		t.Errorf("expected 2024-02-01, got %s", d)
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		from, to generic.Date
		want     int
	}{
		{generic.NewDate(2024, time.January, 31), generic.NewDate(2024, time.February, 1), 1},
		{generic.NewDate(2024, time.January, 1), generic.NewDate(2024, time.June, 30), 5},
		{generic.NewDate(2023, time.July, 1), generic.NewDate(2024, time.March, 10), 8},
		{generic.NewDate(2024, time.March, 1), generic.NewDate(2024, time.March, 31), 0},
	}
	for _, tt := range tests {
		if got := generic.MonthsBetween(tt.from, tt.to); got != tt.want {
			t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEndOfMonth_LeapYear(t *testing.T) {
	if got := generic.EndOfMonth(2024, time.February); got.Day() != 29 {
		t.Errorf("expected Feb 29 2024, got %s", got)
	}
	if got := generic.EndOfMonth(2023, time.February); got.Day() != 28 {
		t.Errorf("expected Feb 28 2023, got %s", got)
	}
	if got := generic.EndOfMonth(2024, time.December); !got.Equal(generic.NewDate(2024, time.December, 31)) {
		t.Errorf("expected Dec 31 2024, got %s", got)
	}
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestNewPeriod_EndBeforeStart(t *testing.T) {
	_, err := generic.NewPeriod(generic.NewDate(2024, time.March, 2), generic.NewDate(2024, time.March, 1))
	if !errors.Is(err, generic.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPeriod_LenAndDays(t *testing.T) {
	p := generic.Period{Start: generic.NewDate(2024, time.February, 27), End: generic.NewDate(2024, time.March, 2)}

	if p.Len() != 5 {
		t.Errorf("expected 5 days, got %d", p.Len())
	}
	days := p.Days()
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	if !days[2].Equal(generic.NewDate(2024, time.February, 29)) {
		t.Errorf("expected Feb 29 in the middle, got %s", days[2])
	}

	single := generic.Period{Start: p.Start, End: p.Start}
	if single.Len() != 1 {
		t.Errorf("expected single-day period to have 1 day, got %d", single.Len())
	}
}

func TestPeriod_Overlaps(t *testing.T) {
	p := generic.Period{Start: generic.NewDate(2024, time.March, 4), End: generic.NewDate(2024, time.March, 8)}

	touching := generic.Period{Start: generic.NewDate(2024, time.March, 8), End: generic.NewDate(2024, time.March, 9)}
	after := generic.Period{Start: generic.NewDate(2024, time.March, 9), End: generic.NewDate(2024, time.March, 10)}

	if !p.Overlaps(touching) || !touching.Overlaps(p) {
		t.Error("expected periods sharing an end day to overlap")
	}
	if p.Overlaps(after) {
		t.Error("expected adjacent periods not to overlap")
	}
}

func TestPeriod_SplitByMonth(t *testing.T) {
	p := generic.Period{Start: generic.NewDate(2024, time.January, 30), End: generic.NewDate(2024, time.March, 2)}

	segments := p.SplitByMonth()
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}

	want := []struct{ start, end generic.Date }{
		{generic.NewDate(2024, time.January, 30), generic.NewDate(2024, time.January, 31)},
		{generic.NewDate(2024, time.February, 1), generic.NewDate(2024, time.February, 29)},
		{generic.NewDate(2024, time.March, 1), generic.NewDate(2024, time.March, 2)},
	}
	total := 0
	for i, seg := range segments {
		if !seg.Start.Equal(want[i].start) || !seg.End.Equal(want[i].end) {
			t.Errorf("segment %d: expected [%s, %s], got %s", i, want[i].start, want[i].end, seg)
		}
		total += seg.Len()
	}
	if total != p.Len() {
		t.Errorf("segments cover %d days, period has %d", total, p.Len())
	}
}

func TestPeriod_SplitByMonth_SingleMonth(t *testing.T) {
	p := generic.Period{Start: generic.NewDate(2024, time.March, 4), End: generic.NewDate(2024, time.March, 8)}

	segments := p.SplitByMonth()
	if len(segments) != 1 || segments[0] != p {
		t.Errorf("expected the period itself, got %v", segments)
	}
}

// =============================================================================
// PERIOD CONFIG TESTS
// =============================================================================

func TestPeriodConfig_CalendarYear(t *testing.T) {
	config := generic.PeriodConfig{Type: generic.PeriodCalendarYear}

	period := config.PeriodFor(generic.NewDate(2025, time.July, 15))

	if !period.Start.Equal(generic.NewDate(2025, time.January, 1)) {
		t.Errorf("expected Jan 1, got %s", period.Start)
	}
	if !period.End.Equal(generic.NewDate(2025, time.December, 31)) {
		t.Errorf("expected Dec 31, got %s", period.End)
	}
}

func TestPeriodConfig_Anniversary(t *testing.T) {
	config := generic.PeriodConfig{
		Type:       generic.PeriodAnniversary,
		AnchorDate: generic.NewDate(2023, time.June, 15),
	}

	// Aug 1, 2025 is in the cycle Jun 1 2025 - May 31 2026
	period := config.PeriodFor(generic.NewDate(2025, time.August, 1))

	if !period.Start.Equal(generic.NewDate(2025, time.June, 1)) {
		t.Errorf("expected Jun 1 2025, got %s", period.Start)
	}
	if !period.End.Equal(generic.NewDate(2026, time.May, 31)) {
		t.Errorf("expected May 31 2026, got %s", period.End)
	}

	// May 31, 2025 is still in the previous cycle
	period2 := config.PeriodFor(generic.NewDate(2025, time.May, 31))

	if !period2.Start.Equal(generic.NewDate(2024, time.June, 1)) {
		t.Errorf("expected Jun 1 2024, got %s", period2.Start)
	}
}

func TestParsePeriodType(t *testing.T) {
	if pt, ok := generic.ParsePeriodType("calendar_year"); !ok || pt != generic.PeriodCalendarYear {
		t.Errorf("expected calendar_year, got %q %v", pt, ok)
	}
	if _, ok := generic.ParsePeriodType("fiscal_year"); ok {
		t.Error("expected fiscal_year to be rejected")
	}
}
