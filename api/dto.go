/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  engine's internal types. Every duration appears twice: as decimal hours
  for programmatic consumers and as an h:mm clock string for display.

SEE ALSO:
  - handlers.go: Builds these from engine reports
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/ontrack/engine"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DurationDTO is one duration figure in both representations.
type DurationDTO struct {
	Hours decimal.Decimal `json:"hours"`
	Clock string          `json:"clock"`
}

// FiguresDTO groups the expect/actual/remain trio for one scope.
type FiguresDTO struct {
	Expect DurationDTO `json:"expect"`
	Actual DurationDTO `json:"actual"`
	Remain DurationDTO `json:"remain"`
}

// ReportRowDTO is one report row. AvgRemaining is null when no work days
// remain in the current period.
type ReportRowDTO struct {
	Client       string       `json:"client"`
	Project      string       `json:"project,omitempty"`
	Period       FiguresDTO   `json:"period"`
	Today        FiguresDTO   `json:"today"`
	AvgRemaining *DurationDTO `json:"avg_remaining"`
}

// ReportDTO is the full report response.
type ReportDTO struct {
	AsOf   string         `json:"as_of"`
	Rows   []ReportRowDTO `json:"rows"`
	Totals ReportRowDTO   `json:"totals"`
}

// PeriodRowDTO is one row of the per-period breakdown.
type PeriodRowDTO struct {
	PeriodStart string      `json:"period_start"`
	Client      string      `json:"client"`
	Project     string      `json:"project,omitempty"`
	Expect      DurationDTO `json:"expect"`
	Actual      DurationDTO `json:"actual"`
	Remain      DurationDTO `json:"remain"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func durationDTO(m engine.Minutes) DurationDTO {
	return DurationDTO{Hours: m.Hours(), Clock: m.Clock()}
}

func rowDTO(row engine.ReportRow) ReportRowDTO {
	dto := ReportRowDTO{
		Client:  row.Client,
		Project: row.Project,
		Period: FiguresDTO{
			Expect: durationDTO(row.PeriodExpect),
			Actual: durationDTO(row.PeriodActual),
			Remain: durationDTO(row.PeriodRemain),
		},
		Today: FiguresDTO{
			Expect: durationDTO(row.DayExpect),
			Actual: durationDTO(row.DayActual),
			Remain: durationDTO(row.DayRemain),
		},
	}
	if row.AvgRemaining != nil {
		avg := durationDTO(*row.AvgRemaining)
		dto.AvgRemaining = &avg
	}
	return dto
}

func reportDTO(report *engine.Report) ReportDTO {
	dto := ReportDTO{
		AsOf:   report.AsOf.String(),
		Rows:   make([]ReportRowDTO, 0, len(report.Rows)),
		Totals: rowDTO(report.Totals),
	}
	for _, row := range report.Rows {
		dto.Rows = append(dto.Rows, rowDTO(row))
	}
	return dto
}

func periodRowDTOs(rows []engine.PeriodRow) []PeriodRowDTO {
	dtos := make([]PeriodRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, PeriodRowDTO{
			PeriodStart: row.PeriodStart.String(),
			Client:      row.Client,
			Project:     row.Project,
			Expect:      durationDTO(row.Expect),
			Actual:      durationDTO(row.Actual),
			Remain:      durationDTO(row.Remain),
		})
	}
	return dtos
}
