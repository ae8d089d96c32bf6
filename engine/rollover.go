/*
rollover.go - Carry-forward of surplus and deficit across days and periods

PURPOSE:
  The central algorithm. For each bucket the engine walks the baseline day
  sequence chronologically, threading a signed carry value C as explicit
  fold state (positive = hours worked ahead, negative = deficit):

    u         = baseline - max(C, 0)
    displayed = max(u, 0)
    C         = C + actual - displayed

  A surplus discounts later days' displayed expectation, capped at each
  day's own baseline; whatever the day cannot absorb keeps rolling. A
  deficit is tracked in the carry and in the remain columns but never
  inflates a later day's displayed figure; it must first be worked off
  against later surplus. Period boundaries do not reset the carry.

  Clamping only affects display: summing (actual - displayed) over the
  walked days always equals the final carry exactly.

SEE ALSO:
  - expander.go: produces the baseline sequence this fold consumes
  - report.go: turns bucket figures into report rows
*/
package engine

// bucketFigures is the rollover output for one bucket.
type bucketFigures struct {
	Bucket Bucket

	PeriodExpect Minutes
	PeriodActual Minutes
	PeriodRemain Minutes

	DayExpect Minutes
	DayActual Minutes
	DayRemain Minutes

	// AvgRemaining is nil when no work days remain in the current period
	// (or no period contains the as-of date).
	AvgRemaining *Minutes

	// Carry after the walk, for accounting checks.
	Carry Minutes
}

// computeFigures runs the rollover fold for every bucket up to and
// including asOf.
func computeFigures(exp *Expansion, agg *Aggregate, asOf Date) []bucketFigures {
	current := exp.currentPeriod(asOf)

	out := make([]bucketFigures, 0, len(exp.Buckets))
	for _, b := range exp.Buckets {
		out = append(out, rolloverBucket(exp, agg, b, asOf, current))
	}
	return out
}

func rolloverBucket(exp *Expansion, agg *Aggregate, b Bucket, asOf Date, current int) bucketFigures {
	fig := bucketFigures{Bucket: b}
	baseline := exp.Baseline[b]

	var carry Minutes
	var todayBaseline Minutes
	for i, day := range exp.Days {
		if day.Date.Equal(asOf) {
			todayBaseline = baseline[i]
			break
		}
		target := baseline[i] - maxMinutes(carry, 0)
		displayed := maxMinutes(target, 0)
		actual := agg.Day(b, day.Date)
		carry += actual - displayed

		if day.Period == current {
			fig.PeriodExpect += displayed
		}
	}

	fig.DayExpect = maxMinutes(todayBaseline-maxMinutes(carry, 0), 0)
	fig.DayActual = agg.Day(b, asOf)
	fig.DayRemain = fig.DayActual - fig.DayExpect
	fig.Carry = carry + fig.DayActual - fig.DayExpect

	if current >= 0 {
		p := &exp.Periods[current]
		fig.PeriodExpect += fig.DayExpect
		fig.PeriodActual = agg.Range(b, p.Start, asOf)
		fig.PeriodRemain = fig.PeriodActual - fig.PeriodExpect
		fig.AvgRemaining = avgRemaining(p, asOf, fig.PeriodRemain, fig.DayActual < fig.DayExpect)
	}
	return fig
}

// avgRemaining computes AVG.R: the average minutes per remaining work day
// needed to close the current period's gap. The as-of day itself counts as
// remaining while its own expectation is unmet. A zero denominator yields
// nil, never a division error.
func avgRemaining(p *ResolvedPeriod, asOf Date, periodRemain Minutes, todayUnmet bool) *Minutes {
	from := p.offsetOf(asOf)
	if !todayUnmet {
		from++
	}
	n := p.remainingWorkDays(from)
	if n == 0 {
		return nil
	}
	avg := -periodRemain / Minutes(n)
	return &avg
}
