package engine

// =============================================================================
// ACTUAL AGGREGATOR - Recorded minutes per bucket per date range
// =============================================================================

// Aggregate indexes time entries for range queries. An entry recorded
// against a project counts toward both the project bucket and its client
// bucket; no entry is silently dropped from the index, though buckets
// outside the configured schedule only surface if asked for.
type Aggregate struct {
	byBucket map[Bucket]map[int64]Minutes
	clients  map[string]bool
}

// NewAggregate builds the index from the full entry list.
func NewAggregate(entries []TimeEntry) *Aggregate {
	a := &Aggregate{
		byBucket: make(map[Bucket]map[int64]Minutes),
		clients:  make(map[string]bool),
	}
	for _, e := range entries {
		a.clients[e.Client] = true
		a.add(Bucket{Client: e.Client}, e.Date, e.Minutes)
		if e.Project != "" {
			a.add(Bucket{Client: e.Client, Project: e.Project}, e.Date, e.Minutes)
		}
	}
	return a
}

func (a *Aggregate) add(b Bucket, d Date, m Minutes) {
	days := a.byBucket[b]
	if days == nil {
		days = make(map[int64]Minutes)
		a.byBucket[b] = days
	}
	days[d.epochDay()] += m
}

// Day returns the recorded minutes for a bucket on a single date.
func (a *Aggregate) Day(b Bucket, d Date) Minutes {
	return a.byBucket[b][d.epochDay()]
}

// Range returns the recorded minutes for a bucket over the closed date
// range [from, to].
func (a *Aggregate) Range(b Bucket, from, to Date) Minutes {
	days := a.byBucket[b]
	if len(days) == 0 || to.Before(from) {
		return 0
	}
	lo, hi := from.epochDay(), to.epochDay()
	var total Minutes
	for day, m := range days {
		if day >= lo && day <= hi {
			total += m
		}
	}
	return total
}

// HasClient reports whether any entry was recorded for the client.
func (a *Aggregate) HasClient(name string) bool { return a.clients[name] }
