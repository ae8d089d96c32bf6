/*
Package render formats reports for the console.

PURPOSE:
  Turns the engine's pure report structures into aligned text tables: the
  totals table with CURRENT PERIOD and TODAY column groups, and the
  per-period breakdown table. Durations print as h:mm; remain columns go
  red when behind and green when ahead; the TOTAL row is bold; an
  undefined AVG.R prints as "(n/a)".

USAGE:
  r := render.New(true) // color on
  fmt.Print(r.ReportTable(report))
  fmt.Print(r.PeriodsTable(rows))

SEE ALSO:
  - engine/report.go: the structures rendered here
  - cmd/ontrack: decides color and which tables to print
*/
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/warp/ontrack/engine"
)

const undefinedAvg = "(n/a)"

var (
	boldStyle   = lipgloss.NewStyle().Bold(true)
	aheadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	behindStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Renderer renders report tables. With color off the output is plain text,
// for piping and for tests.
type Renderer struct {
	color bool
}

func New(color bool) *Renderer {
	return &Renderer{color: color}
}

// =============================================================================
// CELL GRID - Minimal right/left aligned column layout
// =============================================================================

type cell struct {
	text   string
	right  bool
	bold   bool
	remain bool // color by sign
	sign   engine.Minutes
}

func text(s string) cell      { return cell{text: s} }
func header(s string) cell    { return cell{text: s, bold: true} }
func headerNum(s string) cell { return cell{text: s, bold: true, right: true} }
func num(s string) cell       { return cell{text: s, right: true} }

func (r *Renderer) styled(c cell, padded string) string {
	if !r.color {
		return padded
	}
	switch {
	case c.remain && c.sign < 0:
		padded = behindStyle.Render(padded)
	case c.remain && c.sign > 0:
		padded = aheadStyle.Render(padded)
	}
	if c.bold {
		padded = boldStyle.Render(padded)
	}
	return padded
}

// renderGrid pads every column to its widest cell and joins with single
// spaces, styling each cell after padding so ANSI codes don't skew widths.
func (r *Renderer) renderGrid(grid [][]cell) ([]int, string) {
	widths := make([]int, 0)
	for _, row := range grid {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(c.text) > widths[i] {
				widths[i] = len(c.text)
			}
		}
	}

	var b strings.Builder
	for _, row := range grid {
		for i, c := range row {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(r.styled(c, pad(c.text, widths[i], c.right)))
		}
		b.WriteByte('\n')
	}
	return widths, b.String()
}

func pad(s string, width int, right bool) string {
	if len(s) >= width {
		return s
	}
	fill := strings.Repeat(" ", width-len(s))
	if right {
		return fill + s
	}
	return s + fill
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

// =============================================================================
// TOTALS TABLE
// =============================================================================

// ReportTable renders the main report: one row per client with nested
// project rows, the TOTAL row last.
func (r *Renderer) ReportTable(report *engine.Report) string {
	grid := [][]cell{{
		header("CLIENT"), header("PROJECT"), text(" "),
		headerNum("expect"), headerNum("actual"), headerNum("remain"), text(" "),
		headerNum("expect"), headerNum("actual"), headerNum("remain"), text(" "),
		headerNum("AVG.R"),
	}}
	for _, row := range report.Rows {
		grid = append(grid, reportRowCells(row, false))
	}
	total := reportRowCells(report.Totals, true)
	total[0] = cell{text: "TOTAL:", bold: true}
	grid = append(grid, total)

	widths, body := r.renderGrid(grid)

	// Group banner above the column headers, centered over each trio.
	periodSpan := widths[3] + widths[4] + widths[5] + 2
	todaySpan := widths[7] + widths[8] + widths[9] + 2
	banner := strings.Join([]string{
		pad("", widths[0], false),
		pad("", widths[1], false),
		pad("", widths[2], false),
		r.styled(header(""), center("CURRENT PERIOD", periodSpan)),
		pad("", widths[6], false),
		r.styled(header(""), center("TODAY", todaySpan)),
	}, " ")
	return strings.TrimRight(banner, " ") + "\n" + body
}

func reportRowCells(row engine.ReportRow, bold bool) []cell {
	avg := undefinedAvg
	if row.AvgRemaining != nil {
		avg = row.AvgRemaining.Clock()
	}
	cells := []cell{
		text(row.Client), text(row.Project), text(" "),
		num(row.PeriodExpect.Clock()),
		num(row.PeriodActual.Clock()),
		remainCell(row.PeriodRemain), text(" "),
		num(row.DayExpect.Clock()),
		num(row.DayActual.Clock()),
		remainCell(row.DayRemain), text(" "),
		num(avg),
	}
	if bold {
		for i := range cells {
			cells[i].bold = true
		}
	}
	return cells
}

func remainCell(m engine.Minutes) cell {
	return cell{text: m.Clock(), right: true, remain: true, sign: m}
}

// =============================================================================
// PER-PERIOD TABLE
// =============================================================================

// PeriodsTable renders the per-period breakdown: configured expectation
// against everything recorded inside each period.
func (r *Renderer) PeriodsTable(rows []engine.PeriodRow) string {
	grid := [][]cell{{
		header("PERIOD"), text(" "), header("CLIENT"), header("PROJECT"), text(" "),
		headerNum("EXPECT"), headerNum("ACTUAL"), headerNum("DIFFERENCE"),
	}}
	for _, row := range rows {
		grid = append(grid, []cell{
			text(row.PeriodStart.String()), text(" "),
			text(row.Client), text(row.Project), text(" "),
			num(row.Expect.Clock()),
			num(row.Actual.Clock()),
			remainCell(row.Remain),
		})
	}
	_, body := r.renderGrid(grid)
	return body
}
