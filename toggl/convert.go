package toggl

import (
	"fmt"
	"sort"
	"time"

	"github.com/warp/ontrack/engine"
)

// =============================================================================
// CONVERSION - Intervals to per-day engine records
// =============================================================================

// Convert turns fetched intervals into per-day engine records. Intervals
// spanning midnight are split at each local day boundary, so every record
// belongs to exactly one calendar day. Seconds for the same client, project
// and day accumulate before rounding to whole minutes.
//
// Entries without a client are dropped with a warning. Entries whose client
// is not in known are kept (the engine ignores untracked clients) but
// warned about, so strict mode can refuse them.
func Convert(entries []Entry, loc *time.Location, known map[string]bool) ([]engine.TimeEntry, []string) {
	type key struct {
		client  string
		project string
		date    engine.Date
	}
	seconds := make(map[key]int64)
	var warnings []string

	for _, e := range entries {
		if e.Client == "" {
			warnings = append(warnings, fmt.Sprintf(
				"time entry missing client/project: %q starting %s",
				e.Description, e.Start.Format(time.RFC3339)))
			continue
		}
		if !known[e.Client] {
			warnings = append(warnings, fmt.Sprintf(
				"no scheduled client matches %q: %q starting %s",
				e.Client, e.Description, e.Start.Format(time.RFC3339)))
		}

		start := e.Start.In(loc)
		stop := e.Stop.In(loc)
		for start.Before(stop) {
			segEnd := nextMidnight(start)
			if stop.Before(segEnd) {
				segEnd = stop
			}
			k := key{client: e.Client, project: e.Project, date: engine.DateOf(start)}
			seconds[k] += int64(segEnd.Sub(start) / time.Second)
			start = segEnd
		}
	}

	keys := make([]key, 0, len(seconds))
	for k := range seconds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		if a.client != b.client {
			return a.client < b.client
		}
		return a.project < b.project
	})

	records := make([]engine.TimeEntry, 0, len(keys))
	for _, k := range keys {
		records = append(records, engine.TimeEntry{
			Client:  k.client,
			Project: k.project,
			Date:    k.date,
			Minutes: engine.Minutes((seconds[k] + 30) / 60),
		})
	}
	return records, warnings
}

// nextMidnight returns the first midnight strictly after t, in t's location.
func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
