package daterange

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSpan struct {
	item       *int
	start, end time.Time
}

func (s testSpan) OccupiedItem() (int, bool) {
	if s.item == nil {
		return 0, false
	}
	return *s.item, true
}

func (s testSpan) Period() (time.Time, time.Time) { return s.start, s.end }

func item(i int) *int { return &i }

func TestWithin(t *testing.T) {
	r := NewRange(MustParseDay("2024-06-01"), MustParseDay("2024-06-03"))

	tests := []struct {
		day  string
		want bool
	}{
		{"2024-05-31", false},
		{"2024-06-01", true},
		{"2024-06-02", true},
		{"2024-06-03", true},
		{"2024-06-04", false},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			assert.Equal(t, tt.want, Within(MustParseDay(tt.day), r))
		})
	}
}

func TestOverlaps(t *testing.T) {
	r := NewRange(MustParseDay("2024-06-10"), MustParseDay("2024-06-12"))

	tests := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"before", "2024-06-01", "2024-06-09", false},
		{"touches start", "2024-06-01", "2024-06-10", true},
		{"contains", "2024-06-01", "2024-06-30", true},
		{"inside", "2024-06-11", "2024-06-11", true},
		{"touches end", "2024-06-12", "2024-06-20", true},
		{"after", "2024-06-13", "2024-06-20", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := NewRange(MustParseDay(tt.start), MustParseDay(tt.end))
			assert.Equal(t, tt.want, Overlaps(other, r))
			assert.Equal(t, tt.want, Overlaps(r, other))
		})
	}

	assert.True(t, Overlaps(Point(MustParseDay("2024-06-12")), r))
	assert.False(t, Overlaps(Point(MustParseDay("2024-06-13")), r))
}

func TestRangeOf_DropsTimeOfDay(t *testing.T) {
	start := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC)
	end := time.Date(2024, 6, 3, 23, 59, 59, 0, time.UTC)

	r := RangeOf(start, end, time.UTC)

	assert.Equal(t, "2024-06-01..2024-06-03", r.String())
	assert.Len(t, r.Days(), 3)
}

func TestRangeOf_Location(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)

	r := RangeOf(start, start, loc)

	assert.Equal(t, MustParseDay("2024-06-02"), r.Start)
}

func TestBuildDayOccupancy(t *testing.T) {
	spans := []testSpan{
		{item: item(2), start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), end: time.Date(2024, 6, 3, 23, 59, 0, 0, time.UTC)},
		{item: item(1), start: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), end: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)},
		{item: item(2), start: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), end: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)},
		{item: nil, start: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), end: time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)},
	}

	occupancy := BuildDayOccupancy(spans, time.UTC)

	assert.Equal(t, []int{2}, occupancy.Items(MustParseDay("2024-06-01")))
	assert.Equal(t, []int{2}, occupancy.Items(MustParseDay("2024-06-02")))
	assert.Equal(t, []int{1, 2}, occupancy.Items(MustParseDay("2024-06-03")))
	assert.Equal(t, []int{1}, occupancy.Items(MustParseDay("2024-06-04")))
	assert.False(t, occupancy.Has(MustParseDay("2024-05-31")))
	assert.False(t, occupancy.Has(MustParseDay("2024-06-05")))
	assert.False(t, occupancy.Has(MustParseDay("2024-06-11")), "biblio-level spans are not recorded")
	assert.Len(t, occupancy, 4)

	assert.Equal(t, occupancy, BuildDayOccupancy(spans, time.UTC))
}

func TestDay_Arithmetic(t *testing.T) {
	d := MustParseDay("2024-02-28")

	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2024-02-26", d.AddDays(-2).String())
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))
	assert.Equal(t, 0, d.Compare(NewDay(2024, time.February, 28)))
	assert.Equal(t, NewDay(2024, time.March, 1), NewDay(2024, time.February, 30))
}

func TestDay_EndOf(t *testing.T) {
	d := MustParseDay("2024-06-01")

	assert.Equal(t, time.Date(2024, 6, 1, 23, 59, 59, 999_000_000, time.UTC), d.EndOf(time.UTC))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), d.StartOf(nil))
}

func TestDay_JSON(t *testing.T) {
	payload := map[Day][]int{MustParseDay("2024-06-01"): {1}}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2024-06-01":[1]}`, string(data))

	var decoded struct {
		Day Day `json:"day"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2024-06-05"}`), &decoded))
	assert.Equal(t, MustParseDay("2024-06-05"), decoded.Day)

	assert.Error(t, json.Unmarshal([]byte(`{"day":"06/05/2024"}`), &decoded))
}
