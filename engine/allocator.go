package engine

// =============================================================================
// WORK DAY ALLOCATOR - Spread a period total across its days
// =============================================================================

// Allocate distributes a total across the period's days and returns one
// figure per day.
//
// Range form: the total is split evenly over the work days; other days get
// zero. Explicit form: pinned days get exactly their figure (even when the
// pins together exceed the total - caller-specified literals win), and the
// unlisted days split max(total - pinned, 0) evenly.
//
// "Evenly" means floor division in minutes with the remainder handed to the
// earliest days first, so the result always sums exactly to its target.
func (p *ResolvedPeriod) Allocate(total Minutes) ([]Minutes, error) {
	alloc := make([]Minutes, p.Length)

	pool := total
	var shareDays []int
	for o, d := range p.days {
		switch {
		case d.explicit:
			alloc[o] = d.minutes
			pool -= d.minutes
		case d.work:
			shareDays = append(shareDays, o)
		}
	}
	if pool < 0 {
		pool = 0
	}

	if len(shareDays) == 0 {
		if pool > 0 {
			return nil, &ConfigError{
				PeriodStart: p.Start,
				Detail:      "no work days left to distribute hours over",
				Err:         ErrNoWorkDays,
			}
		}
		return alloc, nil
	}

	n := Minutes(len(shareDays))
	share := pool / n
	remainder := pool % n
	for i, o := range shareDays {
		alloc[o] = share
		if Minutes(i) < remainder {
			alloc[o]++
		}
	}
	return alloc, nil
}
