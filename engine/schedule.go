/*
schedule.go - Declarative schedule model and its resolution

PURPOSE:
  Defines the input side of the engine: Periods, WorkDaySpecs, Defaults and
  per-client expected hours. ResolvePeriods applies defaults, normalizes
  symbolic weekdays to plain offsets, and validates every precondition the
  rest of the engine relies on. Downstream code only ever sees resolved
  offsets; the symbolic weekday form does not exist past this file.

VALIDATION (all fatal, before any computation):
  - periods in non-decreasing start order, non-overlapping
  - work-day range endpoints inside the period, from <= to after resolution
  - a client's project hours never exceed the client total

SEE ALSO:
  - allocator.go: consumes the resolved day specs
  - config package: parses YAML into these types
*/
package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// WORK DAYS - Symbolic or literal day references
// =============================================================================

// WorkDay references a day within a period: either a weekday name or a
// literal offset from the period start. A weekday resolves to its first
// occurrence at or after the period start.
type WorkDay struct {
	Weekday time.Weekday
	Offset  int
	Literal bool // true when Offset is the reference
}

func WeekdayRef(w time.Weekday) WorkDay { return WorkDay{Weekday: w} }
func OffsetRef(o int) WorkDay           { return WorkDay{Offset: o, Literal: true} }

// resolve normalizes the reference to an offset from start. This is the
// single normalization step: allocation logic never sees the symbolic form.
func (w WorkDay) resolve(start Date) int {
	if w.Literal {
		return w.Offset
	}
	return (int(w.Weekday) - int(start.Weekday()) + 7) % 7
}

// ExplicitHours pins a literal hour figure to one day.
type ExplicitHours struct {
	Day     WorkDay
	Minutes Minutes
}

// WorkDaySpec describes which days of a period carry hours. Exactly one
// form is used: a from/to range (both endpoints inclusive), or an explicit
// per-day mapping where unlisted days share whatever remains. The two forms
// are never merged across scope levels; a period's own spec fully replaces
// the default.
type WorkDaySpec struct {
	From, To *WorkDay
	Explicit []ExplicitHours
}

// RangeSpec builds the range form.
func RangeSpec(from, to WorkDay) *WorkDaySpec {
	return &WorkDaySpec{From: &from, To: &to}
}

// DefaultWorkDays is the Monday-Friday range used when neither the period
// nor the defaults specify work days.
func DefaultWorkDays() *WorkDaySpec {
	return RangeSpec(WeekdayRef(time.Monday), WeekdayRef(time.Friday))
}

// =============================================================================
// EXPECTED HOURS - Per-client figures with optional per-project split
// =============================================================================

// ProjectHours is one project's expected minutes. Project order follows the
// schedule's declaration order.
type ProjectHours struct {
	Name    string
	Minutes Minutes
}

// ClientHours is a client's expected minutes for one period. The client
// total already includes its projects' figures; projects subdivide it.
type ClientHours struct {
	Name     string
	Minutes  Minutes
	Projects []ProjectHours
}

// =============================================================================
// PERIOD AND DEFAULTS
// =============================================================================

const DefaultPeriodLength = 7

// Period is a contiguous run of calendar days with its own expected-hours
// schedule. Zero Length and nil WorkDays mean "use the defaults".
type Period struct {
	Start    Date
	Length   int
	WorkDays *WorkDaySpec
	Clients  []ClientHours
}

// Defaults fill in a period's missing fields. They are applied exactly once,
// in ResolvePeriods, before the engine runs.
type Defaults struct {
	PeriodLength int
	WorkDays     *WorkDaySpec
}

// =============================================================================
// RESOLUTION - Defaults applied, weekdays normalized, preconditions checked
// =============================================================================

// daySpec is one resolved day of a period.
type daySpec struct {
	work     bool    // carries weight for distribution and AVG.R counting
	explicit bool    // pinned by the explicit form
	minutes  Minutes // pinned figure (explicit days only)
}

// ResolvedPeriod is a Period after defaults and normalization. All work-day
// information lives in the per-offset day specs.
type ResolvedPeriod struct {
	Start   Date
	Length  int
	Clients []ClientHours
	days    []daySpec
}

func (p *ResolvedPeriod) End() Date { return p.Start.AddDays(p.Length - 1) }

func (p *ResolvedPeriod) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End())
}

// offsetOf returns the day offset of d within the period.
func (p *ResolvedPeriod) offsetOf(d Date) int { return DaysBetween(p.Start, d) }

// remainingWorkDays counts work days from the given offset (inclusive)
// through the period end.
func (p *ResolvedPeriod) remainingWorkDays(fromOffset int) int {
	n := 0
	for o := fromOffset; o < p.Length; o++ {
		if o >= 0 && p.days[o].work {
			n++
		}
	}
	return n
}

// ResolvePeriods applies defaults to every period, normalizes work-day specs
// to offsets, and validates the schedule. The returned periods are the only
// form the rest of the engine consumes.
func ResolvePeriods(periods []Period, defaults Defaults) ([]ResolvedPeriod, error) {
	defaultLength := defaults.PeriodLength
	if defaultLength <= 0 {
		defaultLength = DefaultPeriodLength
	}
	defaultSpec := defaults.WorkDays
	if defaultSpec == nil {
		defaultSpec = DefaultWorkDays()
	}

	resolved := make([]ResolvedPeriod, 0, len(periods))
	for i, in := range periods {
		length := in.Length
		if length <= 0 {
			length = defaultLength
		}
		spec := in.WorkDays
		if spec == nil {
			spec = defaultSpec
		}

		rp := ResolvedPeriod{
			Start:   in.Start,
			Length:  length,
			Clients: in.Clients,
		}

		// Periods must be ordered and disjoint. This is a precondition,
		// not something repaired here.
		if i > 0 {
			prev := &resolved[i-1]
			if in.Start.BeforeOrEqual(prev.End()) {
				return nil, &ConfigError{
					PeriodStart: in.Start,
					Detail:      fmt.Sprintf("starts before period %s ends (%s)", prev.Start, prev.End()),
					Err:         ErrPeriodOrder,
				}
			}
		}

		days, err := resolveSpec(spec, in.Start, length)
		if err != nil {
			return nil, err
		}
		rp.days = days

		for _, c := range in.Clients {
			var projectTotal Minutes
			for _, pr := range c.Projects {
				projectTotal += pr.Minutes
			}
			if projectTotal > c.Minutes {
				return nil, &ConfigError{
					PeriodStart: in.Start,
					Client:      c.Name,
					Detail: fmt.Sprintf("projects expect %s but client expects only %s",
						projectTotal.Clock(), c.Minutes.Clock()),
					Err: ErrProjectHours,
				}
			}
		}

		resolved = append(resolved, rp)
	}
	return resolved, nil
}

func resolveSpec(spec *WorkDaySpec, start Date, length int) ([]daySpec, error) {
	days := make([]daySpec, length)

	if len(spec.Explicit) > 0 {
		// Explicit form: listed days are pinned; unlisted days share the
		// remainder and count as work days.
		for i := range days {
			days[i].work = true
		}
		for _, ex := range spec.Explicit {
			o := ex.Day.resolve(start)
			if o < 0 || o >= length {
				return nil, &ConfigError{
					PeriodStart: start,
					Detail:      fmt.Sprintf("explicit work day offset %d outside period of %d days", o, length),
					Err:         ErrWorkDayRange,
				}
			}
			// The same day may be referenced twice (weekday and offset);
			// figures accumulate.
			days[o].minutes += ex.Minutes
			days[o].explicit = true
			days[o].work = days[o].minutes > 0
		}
		return days, nil
	}

	from, to := 0, length-1
	if spec.From != nil {
		from = spec.From.resolve(start)
	}
	if spec.To != nil {
		to = spec.To.resolve(start)
	}
	if from > to {
		return nil, &ConfigError{
			PeriodStart: start,
			Detail:      fmt.Sprintf("work days resolve to from=%d > to=%d (wrapping is not permitted)", from, to),
			Err:         ErrWorkDayRange,
		}
	}
	if from < 0 || to >= length {
		return nil, &ConfigError{
			PeriodStart: start,
			Detail:      fmt.Sprintf("work-day range [%d, %d] outside period of %d days", from, to, length),
			Err:         ErrWorkDayRange,
		}
	}
	for o := from; o <= to; o++ {
		days[o].work = true
	}
	return days, nil
}
