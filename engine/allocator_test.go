package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ontrack/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// 2025-06-01 is a Sunday; 2025-06-02 a Monday.
func sunday() engine.Date { return engine.NewDate(2025, time.June, 1) }
func monday() engine.Date { return engine.NewDate(2025, time.June, 2) }

func hrs(h float64) engine.Minutes { return engine.Minutes(h * 60) }

func resolveOne(t *testing.T, p engine.Period) engine.ResolvedPeriod {
	t.Helper()
	resolved, err := engine.ResolvePeriods([]engine.Period{p}, engine.Defaults{})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	return resolved[0]
}

func sum(alloc []engine.Minutes) engine.Minutes {
	var total engine.Minutes
	for _, m := range alloc {
		total += m
	}
	return total
}

// =============================================================================
// RANGE FORM
// =============================================================================

func TestAllocate_RangeForm_EvenSplitOverWorkDays(t *testing.T) {
	// GIVEN: 7-day period starting Monday, default Mon-Fri work days
	// WHEN: Allocating 15h
	// THEN: 3h per work day, zero on the weekend, exact total

	p := resolveOne(t, engine.Period{
		Start:   monday(),
		Clients: []engine.ClientHours{{Name: "acme", Minutes: hrs(15)}},
	})

	alloc, err := p.Allocate(hrs(15))
	require.NoError(t, err)

	want := []engine.Minutes{180, 180, 180, 180, 180, 0, 0}
	assert.Equal(t, want, alloc)
	assert.Equal(t, hrs(15), sum(alloc))
}

func TestAllocate_RemainderGoesToEarliestDaysFirst(t *testing.T) {
	// GIVEN: 100 minutes over a 3-day range
	// THEN: 34, 33, 33 - floor divide, remainder to the earliest days

	p := resolveOne(t, engine.Period{
		Start:    monday(),
		Length:   3,
		WorkDays: engine.RangeSpec(engine.OffsetRef(0), engine.OffsetRef(2)),
		Clients:  []engine.ClientHours{{Name: "acme", Minutes: 100}},
	})

	alloc, err := p.Allocate(100)
	require.NoError(t, err)
	assert.Equal(t, []engine.Minutes{34, 33, 33}, alloc)
}

func TestAllocate_SumsExactlyForManyTotals(t *testing.T) {
	// Allocation must never drift: the per-day figures sum exactly to the
	// target for any total, in minimal units.

	p := resolveOne(t, engine.Period{
		Start:    monday(),
		Length:   10,
		WorkDays: engine.RangeSpec(engine.OffsetRef(0), engine.OffsetRef(6)),
		Clients:  []engine.ClientHours{{Name: "acme", Minutes: 0}},
	})

	for total := engine.Minutes(0); total < 500; total += 7 {
		alloc, err := p.Allocate(total)
		require.NoError(t, err)
		assert.Equal(t, total, sum(alloc), "total %d", total)
	}
}

func TestResolve_InvertedRangeRejected(t *testing.T) {
	// GIVEN: A period starting Wednesday with Mon-Fri work days
	// THEN: Monday resolves after Friday (from > to); wrapping is not
	// permitted, so this is a configuration error

	wednesday := engine.NewDate(2025, time.June, 4)
	_, err := engine.ResolvePeriods([]engine.Period{{
		Start: wednesday,
		WorkDays: engine.RangeSpec(
			engine.WeekdayRef(time.Monday),
			engine.WeekdayRef(time.Friday),
		),
		Clients: []engine.ClientHours{{Name: "acme", Minutes: hrs(15)}},
	}}, engine.Defaults{})

	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrWorkDayRange)
	assert.True(t, engine.IsConfigError(err))
}

// =============================================================================
// EXPLICIT FORM
// =============================================================================

func TestAllocate_ExplicitForm_RemainderSplitEvenly(t *testing.T) {
	// GIVEN: 7-day period starting Sunday with explicit {sun: 0, sat: 2.5}
	// WHEN: Allocating 15h
	// THEN: Sunday 0, Saturday 2.5h, remaining 12.5h split over Mon-Fri

	p := resolveOne(t, engine.Period{
		Start: sunday(),
		WorkDays: &engine.WorkDaySpec{Explicit: []engine.ExplicitHours{
			{Day: engine.WeekdayRef(time.Sunday), Minutes: 0},
			{Day: engine.WeekdayRef(time.Saturday), Minutes: hrs(2.5)},
		}},
		Clients: []engine.ClientHours{{Name: "acme", Minutes: hrs(15)}},
	})

	alloc, err := p.Allocate(hrs(15))
	require.NoError(t, err)
	assert.Equal(t, []engine.Minutes{0, 150, 150, 150, 150, 150, 150}, alloc)
}

func TestAllocate_ExplicitPinsWinOverTotal(t *testing.T) {
	// Caller-specified literals take precedence: when the pinned days
	// exceed the total, remaining days get zero and the sum may exceed it.

	p := resolveOne(t, engine.Period{
		Start:  monday(),
		Length: 3,
		WorkDays: &engine.WorkDaySpec{Explicit: []engine.ExplicitHours{
			{Day: engine.OffsetRef(0), Minutes: hrs(5)},
			{Day: engine.OffsetRef(1), Minutes: hrs(5)},
		}},
		Clients: []engine.ClientHours{{Name: "acme", Minutes: hrs(4)}},
	})

	alloc, err := p.Allocate(hrs(4))
	require.NoError(t, err)
	assert.Equal(t, []engine.Minutes{300, 300, 0}, alloc)
}

func TestAllocate_NoDayLeftForRemainderFails(t *testing.T) {
	// Every day pinned but hours left over: nothing can absorb the
	// remainder, which is a reported failure rather than a silent drop.

	p := resolveOne(t, engine.Period{
		Start:  monday(),
		Length: 2,
		WorkDays: &engine.WorkDaySpec{Explicit: []engine.ExplicitHours{
			{Day: engine.OffsetRef(0), Minutes: hrs(1)},
			{Day: engine.OffsetRef(1), Minutes: hrs(1)},
		}},
		Clients: []engine.ClientHours{{Name: "acme", Minutes: hrs(10)}},
	})

	_, err := p.Allocate(hrs(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrNoWorkDays)
}
