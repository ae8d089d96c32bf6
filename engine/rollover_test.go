package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// White-box tests for the carry fold itself. End-to-end scenario coverage
// lives in report_test.go.

func weekOf15h(start Date) Period {
	return Period{
		Start:   start,
		Clients: []ClientHours{{Name: "acme", Minutes: 900}}, // 15h
	}
}

func figuresFor(t *testing.T, periods []Period, entries []TimeEntry, asOf Date) bucketFigures {
	t.Helper()
	resolved, err := ResolvePeriods(periods, Defaults{})
	require.NoError(t, err)
	exp, err := Expand(resolved, asOf)
	require.NoError(t, err)
	figs := computeFigures(exp, NewAggregate(entries), asOf)
	for _, f := range figs {
		if f.Bucket == (Bucket{Client: "acme"}) {
			return f
		}
	}
	t.Fatal("bucket not found")
	return bucketFigures{}
}

func TestRollover_SurplusDiscountsLaterDays(t *testing.T) {
	// GIVEN: Mon-Fri 3h/day, Monday actual 5h (2h surplus)
	// WHEN: Walking to Wednesday
	// THEN: Tuesday's displayed target was 1h; working 0 drops the carry
	// to 1h; Wednesday expects 2h

	mon := NewDate(2025, time.June, 2)
	wed := mon.AddDays(2)

	f := figuresFor(t, []Period{weekOf15h(mon)},
		[]TimeEntry{{Client: "acme", Date: mon, Minutes: 300}}, wed)

	assert.Equal(t, Minutes(120), f.DayExpect, "wednesday expects 3h - 1h carry")
	assert.Equal(t, Minutes(180+60+120), f.PeriodExpect)
	assert.Equal(t, Minutes(300), f.PeriodActual)
	assert.Equal(t, Minutes(-60), f.PeriodRemain)
}

func TestRollover_DeficitNeverInflatesDisplayedDays(t *testing.T) {
	// GIVEN: Nothing worked at all
	// THEN: Every day still displays its plain 3h baseline; the deficit
	// lives in the remain column and the carry, not in later targets

	mon := NewDate(2025, time.June, 2)
	wed := mon.AddDays(2)

	f := figuresFor(t, []Period{weekOf15h(mon)}, nil, wed)

	assert.Equal(t, Minutes(180), f.DayExpect)
	assert.Equal(t, Minutes(540), f.PeriodExpect, "3 x 3h owed so far")
	assert.Equal(t, Minutes(-540), f.PeriodRemain)
	assert.Equal(t, Minutes(-540), f.Carry)
}

func TestRollover_DeficitOffsetsLaterSurplusBeforeDiscounting(t *testing.T) {
	// GIVEN: Monday skipped (3h deficit), Tuesday worked 6h
	// THEN: Tuesday's full 3h target stands; the extra 3h only cancels
	// Monday's deficit, so Wednesday expects its plain baseline

	mon := NewDate(2025, time.June, 2)
	wed := mon.AddDays(2)

	f := figuresFor(t, []Period{weekOf15h(mon)},
		[]TimeEntry{{Client: "acme", Date: mon.AddDays(1), Minutes: 360}}, wed)

	assert.Equal(t, Minutes(180), f.DayExpect)
	assert.Equal(t, Minutes(540), f.PeriodExpect)
}

func TestRollover_SurplusCrossesPeriodBoundaryAndClampsAtZero(t *testing.T) {
	// GIVEN: A 7h surplus built in week one
	// WHEN: Reporting on week two's Monday
	// THEN: The day clamps at zero (never negative) and the unabsorbed
	// remainder keeps carrying instead of vanishing

	week1 := NewDate(2025, time.June, 2)
	week2 := week1.AddDays(7)

	f := figuresFor(t, []Period{weekOf15h(week1), weekOf15h(week2)},
		[]TimeEntry{{Client: "acme", Date: week1, Minutes: 600}}, week2)

	assert.Equal(t, Minutes(0), f.DayExpect, "baseline 3h fully covered by carry")
	assert.Equal(t, Minutes(420), f.Carry, "10h worked - 3h displayed on day one")
	assert.Equal(t, Minutes(0), f.PeriodExpect)
}

func TestRollover_CarryEqualsActualMinusDisplayed(t *testing.T) {
	// Clamping only redistributes display; the carry always accounts for
	// every worked minute against every displayed minute. With a single
	// period walked to its last day, the fold's carry must equal the
	// independently aggregated period remain.

	mon := NewDate(2025, time.June, 2)
	entries := []TimeEntry{
		{Client: "acme", Date: mon, Minutes: 451},
		{Client: "acme", Date: mon.AddDays(1), Minutes: 17},
		{Client: "acme", Date: mon.AddDays(3), Minutes: 299},
	}

	f := figuresFor(t, []Period{weekOf15h(mon)}, entries, mon.AddDays(6))
	assert.Equal(t, f.PeriodRemain, f.Carry)
}

func TestRollover_AvgRemainingUndefinedWithNoWorkDaysLeft(t *testing.T) {
	// GIVEN: Friday, target already met today, no work days after
	// THEN: AVG.R is the undefined sentinel, not a division error

	mon := NewDate(2025, time.June, 2)
	fri := mon.AddDays(4)
	entries := []TimeEntry{
		{Client: "acme", Date: mon, Minutes: 180},
		{Client: "acme", Date: mon.AddDays(1), Minutes: 180},
		{Client: "acme", Date: mon.AddDays(2), Minutes: 180},
		{Client: "acme", Date: mon.AddDays(3), Minutes: 180},
		{Client: "acme", Date: fri, Minutes: 180},
	}

	f := figuresFor(t, []Period{weekOf15h(mon)}, entries, fri)
	assert.Nil(t, f.AvgRemaining)
}

func TestRollover_AvgRemainingCountsTodayWhileUnmet(t *testing.T) {
	mon := NewDate(2025, time.June, 2)
	wed := mon.AddDays(2)

	f := figuresFor(t, []Period{weekOf15h(mon)}, nil, wed)

	// 9h behind over Wed, Thu, Fri.
	require.NotNil(t, f.AvgRemaining)
	assert.Equal(t, Minutes(180), *f.AvgRemaining)
}
