/*
report.go - The engine's single entry point and row assembly

PURPOSE:
  ComputeReport wires the pipeline: resolve -> expand -> aggregate ->
  rollover -> rows. The report is a pure data structure; formatting,
  coloring and column widths are the render package's concern.

ROW ORDER:
  One row per tracked client with its project rows nested beneath it, in
  declaration order from the schedule, plus a TOTAL row summed over the
  client-level rows only (projects subdivide their client, so summing them
  too would double count).

SEE ALSO:
  - rollover.go: per-bucket figures
  - render: console tables
  - api: JSON representation
*/
package engine

// ReportRow is one line of the report. Project is empty on client rows.
type ReportRow struct {
	Client  string
	Project string

	PeriodExpect Minutes
	PeriodActual Minutes
	PeriodRemain Minutes

	DayExpect Minutes
	DayActual Minutes
	DayRemain Minutes

	// AvgRemaining is nil when undefined (no remaining work days).
	AvgRemaining *Minutes
}

// Report is the full result of one computation.
type Report struct {
	AsOf   Date
	Rows   []ReportRow
	Totals ReportRow
}

// ComputeReport computes the expected/actual/remaining report for the
// current period and day as of the given date. It is deterministic for
// identical inputs and holds no state between invocations.
func ComputeReport(periods []Period, defaults Defaults, entries []TimeEntry, asOf Date) (*Report, error) {
	resolved, err := ResolvePeriods(periods, defaults)
	if err != nil {
		return nil, err
	}
	exp, err := Expand(resolved, asOf)
	if err != nil {
		return nil, err
	}
	agg := NewAggregate(entries)

	figures := computeFigures(exp, agg, asOf)
	byBucket := make(map[Bucket]bucketFigures, len(figures))
	for _, f := range figures {
		byBucket[f.Bucket] = f
	}

	report := &Report{AsOf: asOf, Totals: ReportRow{Client: "TOTAL"}}
	for _, client := range clientOrder(resolved) {
		cf := byBucket[Bucket{Client: client.name}]
		report.Rows = append(report.Rows, rowFromFigures(cf))
		for _, project := range client.projects {
			pf := byBucket[Bucket{Client: client.name, Project: project}]
			report.Rows = append(report.Rows, rowFromFigures(pf))
		}

		report.Totals.PeriodExpect += cf.PeriodExpect
		report.Totals.PeriodActual += cf.PeriodActual
		report.Totals.PeriodRemain += cf.PeriodRemain
		report.Totals.DayExpect += cf.DayExpect
		report.Totals.DayActual += cf.DayActual
		report.Totals.DayRemain += cf.DayRemain
	}

	if current := exp.currentPeriod(asOf); current >= 0 {
		report.Totals.AvgRemaining = avgRemaining(
			&exp.Periods[current], asOf,
			report.Totals.PeriodRemain,
			report.Totals.DayActual < report.Totals.DayExpect,
		)
	}
	return report, nil
}

func rowFromFigures(f bucketFigures) ReportRow {
	return ReportRow{
		Client:       f.Bucket.Client,
		Project:      f.Bucket.Project,
		PeriodExpect: f.PeriodExpect,
		PeriodActual: f.PeriodActual,
		PeriodRemain: f.PeriodRemain,
		DayExpect:    f.DayExpect,
		DayActual:    f.DayActual,
		DayRemain:    f.DayRemain,
		AvgRemaining: f.AvgRemaining,
	}
}

// orderedClient collects a client's first-appearance position and its
// projects across all periods.
type orderedClient struct {
	name     string
	projects []string
}

func clientOrder(periods []ResolvedPeriod) []orderedClient {
	var order []orderedClient
	index := make(map[string]int)
	seenProject := make(map[Bucket]bool)
	for i := range periods {
		for _, c := range periods[i].Clients {
			pos, ok := index[c.Name]
			if !ok {
				pos = len(order)
				index[c.Name] = pos
				order = append(order, orderedClient{name: c.Name})
			}
			for _, pr := range c.Projects {
				b := Bucket{Client: c.Name, Project: pr.Name}
				if !seenProject[b] {
					seenProject[b] = true
					order[pos].projects = append(order[pos].projects, pr.Name)
				}
			}
		}
	}
	return order
}

// =============================================================================
// PER-PERIOD BREAKDOWN - Historical expect/actual per period
// =============================================================================

// PeriodRow is one bucket's totals for one period: the configured expected
// figure against everything recorded inside the period's date range.
type PeriodRow struct {
	PeriodStart Date
	Client      string
	Project     string
	Expect      Minutes
	Actual      Minutes
	Remain      Minutes
}

// PeriodBreakdown lists every period's configured versus recorded hours,
// one row per bucket, in schedule order.
func PeriodBreakdown(periods []Period, defaults Defaults, entries []TimeEntry) ([]PeriodRow, error) {
	resolved, err := ResolvePeriods(periods, defaults)
	if err != nil {
		return nil, err
	}
	agg := NewAggregate(entries)

	var rows []PeriodRow
	for i := range resolved {
		p := &resolved[i]
		for _, c := range p.Clients {
			actual := agg.Range(Bucket{Client: c.Name}, p.Start, p.End())
			rows = append(rows, PeriodRow{
				PeriodStart: p.Start,
				Client:      c.Name,
				Expect:      c.Minutes,
				Actual:      actual,
				Remain:      actual - c.Minutes,
			})
			for _, pr := range c.Projects {
				b := Bucket{Client: c.Name, Project: pr.Name}
				actual := agg.Range(b, p.Start, p.End())
				rows = append(rows, PeriodRow{
					PeriodStart: p.Start,
					Client:      c.Name,
					Project:     pr.Name,
					Expect:      pr.Minutes,
					Actual:      actual,
					Remain:      actual - pr.Minutes,
				})
			}
		}
	}
	return rows, nil
}

// KnownClients returns the set of client names configured in any period,
// for strict-mode warnings about unmatched entries.
func KnownClients(periods []Period) map[string]bool {
	known := make(map[string]bool)
	for _, p := range periods {
		for _, c := range p.Clients {
			known[c.Name] = true
		}
	}
	return known
}
