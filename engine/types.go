/*
Package engine computes expected-versus-actual work hour reports.

PURPOSE:
  Given a declarative schedule of expected hours per client/project over a
  sequence of calendar periods, and a list of externally recorded work
  durations, the engine computes expected, actual, and remaining hours for
  the current period and the current day, with surplus/deficit carried
  forward across day and period boundaries.

KEY CONCEPTS IN THIS FILE (types.go):
  - Minutes: the engine's fixed minimal unit; all arithmetic is exact
  - Bucket: a client, or a client/project pair (two levels, never deeper)
  - TimeEntry: an externally recorded duration for one bucket on one day

DESIGN PRINCIPLES:
  1. Exactness: integer minutes everywhere; decimal only at the edges
  2. Purity: one report is one full recomputation, no state between runs
  3. Determinism: identical inputs always produce identical reports

USAGE:
  report, err := engine.ComputeReport(periods, defaults, entries, asOf)

SEE ALSO:
  - schedule.go: Period, WorkDaySpec, Defaults and their validation
  - allocator.go: spreading a period total across its days
  - rollover.go: the carry-forward fold
  - report.go: ComputeReport and row assembly
*/
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MINUTES - Fixed minimal unit for all hour arithmetic
// =============================================================================

// Minutes is a signed duration in whole minutes. Hour figures are converted
// to minutes once on the way in and back to decimal hours only for display,
// so rollover chains never accumulate floating-point drift.
type Minutes int64

var sixty = decimal.NewFromInt(60)

// MinutesFromHours converts a decimal hour figure to minutes, rounding to
// the nearest whole minute.
func MinutesFromHours(hours decimal.Decimal) Minutes {
	return Minutes(hours.Mul(sixty).Round(0).IntPart())
}

// Hours returns the value as decimal hours.
func (m Minutes) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).DivRound(sixty, 4)
}

// Clock formats the value as h:mm, with a leading minus for negative values.
func (m Minutes) Clock() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d:%02d", sign, v/60, v%60)
}

func (m Minutes) IsNegative() bool { return m < 0 }
func (m Minutes) IsPositive() bool { return m > 0 }
func (m Minutes) IsZero() bool     { return m == 0 }

func maxMinutes(a, b Minutes) Minutes {
	if a > b {
		return a
	}
	return b
}

// =============================================================================
// BUCKET - Client or client/project identity
// =============================================================================

// Bucket identifies a tracked entity: a client, or one of its projects.
// An empty Project means the client-level bucket. The hierarchy is exactly
// two levels deep, so no general tree type is needed.
type Bucket struct {
	Client  string
	Project string
}

func (b Bucket) IsClient() bool { return b.Project == "" }

func (b Bucket) String() string {
	if b.Project == "" {
		return b.Client
	}
	return b.Client + "/" + b.Project
}

// =============================================================================
// TIME ENTRY - External, read-only input
// =============================================================================

// TimeEntry is one recorded duration: a client, an optional project, a local
// calendar date, and whole minutes worked. Several entries may exist for the
// same bucket and date; they are summed.
type TimeEntry struct {
	Client  string
	Project string
	Date    Date
	Minutes Minutes
}
