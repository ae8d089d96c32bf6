package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ontrack/api"
	"github.com/warp/ontrack/config"
	"github.com/warp/ontrack/engine"
)

type stubSource struct {
	entries []engine.TimeEntry
	err     error
}

func (s *stubSource) Entries(ctx context.Context) ([]engine.TimeEntry, error) {
	return s.entries, s.err
}

// weekSchedule is one Monday-started week, acme expected 15h.
func weekSchedule() *config.Schedule {
	return &config.Schedule{
		Periods: []engine.Period{{
			Start:   engine.NewDate(2025, time.June, 2),
			Clients: []engine.ClientHours{{Name: "acme", Minutes: engine.MinutesFromHours(decimal.NewFromInt(15))}},
		}},
	}
}

func newTestRouter(t *testing.T, source api.EntrySource) http.Handler {
	t.Helper()
	h := api.NewHandler(weekSchedule(), source, nil)
	return api.NewRouter(h)
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetReport(t *testing.T) {
	// GIVEN: 15h/week for acme, 5h recorded on Monday
	// WHEN: GET /api/report as of Wednesday
	// THEN: Monday's surplus discounts Wednesday's target

	source := &stubSource{entries: []engine.TimeEntry{
		{Client: "acme", Date: engine.NewDate(2025, time.June, 2), Minutes: 300},
	}}
	rec := get(t, newTestRouter(t, source), "/api/report?as_of=2025-06-04")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report api.ReportDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, "2025-06-04", report.AsOf)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, "acme", row.Client)
	assert.Empty(t, row.Project)
	assert.Equal(t, "6:00", row.Period.Expect.Clock)
	assert.Equal(t, "5:00", row.Period.Actual.Clock)
	assert.Equal(t, "-1:00", row.Period.Remain.Clock)
	assert.Equal(t, "2:00", row.Today.Expect.Clock)
	assert.Equal(t, "0:00", row.Today.Actual.Clock)
	require.NotNil(t, row.AvgRemaining)
	assert.Equal(t, "0:20", row.AvgRemaining.Clock)
	assert.True(t, row.Period.Expect.Hours.Equal(decimal.NewFromInt(6)))

	assert.Equal(t, "6:00", report.Totals.Period.Expect.Clock)
}

func TestGetReport_DefaultsToToday(t *testing.T) {
	rec := get(t, newTestRouter(t, &stubSource{}), "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var report api.ReportDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, engine.DateOf(time.Now()).String(), report.AsOf)
}

func TestGetReport_NullAvgOutsideAnyPeriod(t *testing.T) {
	// GIVEN: The only period ended weeks ago
	// WHEN: Requesting a report past its end
	// THEN: avg_remaining serializes as JSON null

	rec := get(t, newTestRouter(t, &stubSource{}), "/api/report?as_of=2025-07-20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"avg_remaining":null`)

	var report api.ReportDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Nil(t, report.Totals.AvgRemaining)
}

func TestGetReport_BadDateRejected(t *testing.T) {
	rec := get(t, newTestRouter(t, &stubSource{}), "/api/report?as_of=junk")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "as_of")
}

func TestGetReport_SourceFailure(t *testing.T) {
	source := &stubSource{err: errors.New("cache unavailable")}
	rec := get(t, newTestRouter(t, source), "/api/report?as_of=2025-06-04")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to load time entries", resp.Error)
	assert.Contains(t, resp.Details, "cache unavailable")
}

func TestGetPeriods(t *testing.T) {
	source := &stubSource{entries: []engine.TimeEntry{
		{Client: "acme", Date: engine.NewDate(2025, time.June, 2), Minutes: 720},
	}}
	rec := get(t, newTestRouter(t, source), "/api/periods")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []api.PeriodRowDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-06-02", rows[0].PeriodStart)
	assert.Equal(t, "acme", rows[0].Client)
	assert.Equal(t, "15:00", rows[0].Expect.Clock)
	assert.Equal(t, "12:00", rows[0].Actual.Clock)
	assert.Equal(t, "-3:00", rows[0].Remain.Clock)
}

func TestHealthz(t *testing.T) {
	rec := get(t, newTestRouter(t, &stubSource{}), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
