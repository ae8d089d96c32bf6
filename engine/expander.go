package engine

// =============================================================================
// PERIOD EXPANDER - Baseline per-day figures before any rollover
// =============================================================================

// ExpandedDay is one calendar day owned by a period.
type ExpandedDay struct {
	Date   Date
	Period int // index into Expansion.Periods
}

// Expansion holds the baseline day sequence for every tracked bucket: the
// allocator's raw per-day figures, before any carry-forward. Days run from
// the first period's start through the as-of date; days in gaps between
// periods do not appear.
type Expansion struct {
	Periods  []ResolvedPeriod
	Days     []ExpandedDay
	Buckets  []Bucket
	Baseline map[Bucket][]Minutes // aligned with Days
}

// Expand applies the allocator independently per period per client (and
// project) and assembles the chronological baseline sequence up to asOf.
// A bucket missing from a period simply has zero baseline there.
func Expand(periods []ResolvedPeriod, asOf Date) (*Expansion, error) {
	exp := &Expansion{
		Periods:  periods,
		Buckets:  bucketUniverse(periods),
		Baseline: make(map[Bucket][]Minutes),
	}

	for pi := range periods {
		p := &periods[pi]
		if p.Start.After(asOf) {
			break
		}

		// Full-period allocation per bucket; days past asOf still count
		// toward the period's baseline but are never walked.
		alloc := make(map[Bucket][]Minutes, len(exp.Buckets))
		for _, c := range p.Clients {
			clientAlloc, err := p.Allocate(c.Minutes)
			if err != nil {
				return nil, err
			}
			alloc[Bucket{Client: c.Name}] = clientAlloc
			for _, pr := range c.Projects {
				projectAlloc, err := p.Allocate(pr.Minutes)
				if err != nil {
					return nil, err
				}
				alloc[Bucket{Client: c.Name, Project: pr.Name}] = projectAlloc
			}
		}

		for o := 0; o < p.Length; o++ {
			date := p.Start.AddDays(o)
			if date.After(asOf) {
				break
			}
			exp.Days = append(exp.Days, ExpandedDay{Date: date, Period: pi})
			for _, b := range exp.Buckets {
				var m Minutes
				if a, ok := alloc[b]; ok {
					m = a[o]
				}
				exp.Baseline[b] = append(exp.Baseline[b], m)
			}
		}
	}
	return exp, nil
}

// currentPeriod returns the index of the period containing asOf, or -1.
func (e *Expansion) currentPeriod(asOf Date) int {
	for i := range e.Periods {
		if e.Periods[i].Contains(asOf) {
			return i
		}
	}
	return -1
}

// bucketUniverse lists every bucket appearing in any period, in first
// declaration order, client buckets before their projects.
func bucketUniverse(periods []ResolvedPeriod) []Bucket {
	seen := make(map[Bucket]bool)
	var buckets []Bucket
	add := func(b Bucket) {
		if !seen[b] {
			seen[b] = true
			buckets = append(buckets, b)
		}
	}
	for i := range periods {
		for _, c := range periods[i].Clients {
			add(Bucket{Client: c.Name})
			for _, pr := range c.Projects {
				add(Bucket{Client: c.Name, Project: pr.Name})
			}
		}
	}
	return buckets
}
