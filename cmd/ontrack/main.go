/*
main.go - Application entry point

PURPOSE:
  The ontrack CLI. Reads the schedule file, pulls time entries from the
  Toggl API (or the local cache), and prints how far ahead or behind each
  client and project is.

COMMANDS:
  ontrack            Print the report (default)
  ontrack periods    Print the per-period breakdown
  ontrack sync       Refresh the local cache from Toggl
  ontrack serve      Run the HTTP API against the local cache

COMMAND-LINE FLAGS:
  -i, --input-file   Schedule file (default: $TOGGL_ONTRACK_FILE or
                     toggl-ontrack.yaml)
      --api-token    Toggl API token (default: $TOGGL_API_TOKEN)
      --db           SQLite cache path (default: ontrack.db)
  -v, --verbose      Debug logging

REPORT FLAGS:
  -s, --strict        Exit non-zero when any time entry warning occurred
  -p, --show-periods  Append the per-period breakdown
      --as-of         Report date (default: today)
      --offline       Read entries from the cache, skip the API
      --no-color      Plain output

GRACEFUL SHUTDOWN (serve):
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the cache
  4. Exit

EXAMPLES:
  # Today's report, live from Toggl
  ontrack --api-token=... -i schedule.yaml

  # Offline report as of a past Friday, with the breakdown
  ontrack --offline --as-of=2025-06-06 -p

  # Keep a cache warm and serve it
  ontrack sync && ontrack serve -port 8080

SEE ALSO:
  - config/config.go: Schedule file format
  - api/server.go: HTTP routes
  - store/sqlite/sqlite.go: Cache implementation
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/ontrack/api"
	"github.com/warp/ontrack/config"
	"github.com/warp/ontrack/engine"
	"github.com/warp/ontrack/render"
	"github.com/warp/ontrack/store/sqlite"
	"github.com/warp/ontrack/toggl"
)

const envToken = "TOGGL_API_TOKEN"

var rootCmd = &cobra.Command{
	Use:   "ontrack",
	Short: "Track expected against recorded work hours per client",
	Long: "ontrack compares the hours you planned per client and project against " +
		"the time entries recorded in Toggl, carrying surplus and deficit forward " +
		"day by day.",
	RunE:          runReport,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Print configured vs recorded hours for every period",
	RunE:  runPeriods,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local cache from the Toggl API",
	RunE:  runSync,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the report over HTTP from the local cache",
	RunE:  runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("input-file", "i", config.DefaultPath(), "schedule file")
	pf.String("api-token", os.Getenv(envToken), "Toggl API token")
	pf.String("db", "ontrack.db", "SQLite cache path")
	pf.BoolP("verbose", "v", false, "debug logging")

	rootCmd.Flags().BoolP("strict", "s", false, "fail when any time entry warning occurred")
	rootCmd.Flags().BoolP("show-periods", "p", false, "append the per-period breakdown")
	rootCmd.Flags().String("as-of", "", "report date (YYYY-MM-DD, default today)")
	rootCmd.Flags().Bool("offline", false, "read entries from the cache, skip the API")
	rootCmd.Flags().Bool("no-color", false, "plain output")

	periodsCmd.Flags().Bool("offline", false, "read entries from the cache, skip the API")
	periodsCmd.Flags().Bool("no-color", false, "plain output")

	serveCmd.Flags().Int("port", 8080, "HTTP server port")

	rootCmd.AddCommand(periodsCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED WIRING
// =============================================================================

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadSchedule(cmd *cobra.Command) (*config.Schedule, error) {
	path, _ := cmd.Flags().GetString("input-file")
	return config.Load(path)
}

func openCache(cmd *cobra.Command) (*sqlite.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	return sqlite.New(path)
}

// earliestStart is the sync window's lower bound: nothing before the first
// period can affect any figure.
func earliestStart(schedule *config.Schedule) engine.Date {
	start := schedule.Periods[0].Start
	for _, p := range schedule.Periods[1:] {
		if p.Start.Before(start) {
			start = p.Start
		}
	}
	return start
}

// fetchEntries pulls raw entries from Toggl and resolves them to daily
// per-client minutes, caching the result for offline runs.
func fetchEntries(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, schedule *config.Schedule) ([]engine.TimeEntry, []string, error) {
	token, _ := cmd.Flags().GetString("api-token")
	if token == "" {
		return nil, nil, fmt.Errorf("no API token: pass --api-token or set %s", envToken)
	}

	now := time.Now()
	from := earliestStart(schedule)
	raw, err := toggl.NewClient(token, logger).FetchEntries(ctx, from, now)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching time entries: %w", err)
	}

	entries, warnings := toggl.Convert(raw, now.Location(), engine.KnownClients(schedule.Periods))

	store, err := openCache(cmd)
	if err != nil {
		logger.Warn("cache unavailable, skipping", "error", err)
		return entries, warnings, nil
	}
	defer store.Close()
	if err := store.ReplaceEntries(ctx, entries, now, from); err != nil {
		logger.Warn("cache update failed", "error", err)
	}
	return entries, warnings, nil
}

func cachedEntries(ctx context.Context, cmd *cobra.Command, logger *slog.Logger) ([]engine.TimeEntry, error) {
	store, err := openCache(cmd)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	syncedAt, _, ok, err := store.LastSync(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("cache is empty, run 'ontrack sync' first")
	}
	logger.Debug("using cached entries", "synced_at", syncedAt)
	return store.Entries(ctx)
}

func loadEntries(ctx context.Context, cmd *cobra.Command, logger *slog.Logger, schedule *config.Schedule) ([]engine.TimeEntry, []string, error) {
	if offline, _ := cmd.Flags().GetBool("offline"); offline {
		entries, err := cachedEntries(ctx, cmd, logger)
		return entries, nil, err
	}
	return fetchEntries(ctx, cmd, logger, schedule)
}

func newRenderer(cmd *cobra.Command) *render.Renderer {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return render.New(!noColor && os.Getenv("NO_COLOR") == "")
}

// =============================================================================
// COMMANDS
// =============================================================================

func runReport(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	ctx := cmd.Context()

	schedule, err := loadSchedule(cmd)
	if err != nil {
		return err
	}

	asOf := engine.DateOf(time.Now())
	if raw, _ := cmd.Flags().GetString("as-of"); raw != "" {
		if asOf, err = engine.ParseDate(raw); err != nil {
			return fmt.Errorf("invalid --as-of date: %w", err)
		}
	}

	entries, warnings, err := loadEntries(ctx, cmd, logger, schedule)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	report, err := engine.ComputeReport(schedule.Periods, schedule.Defaults, entries, asOf)
	if err != nil {
		return err
	}

	r := newRenderer(cmd)
	fmt.Print(r.ReportTable(report))

	if show, _ := cmd.Flags().GetBool("show-periods"); show {
		rows, err := engine.PeriodBreakdown(schedule.Periods, schedule.Defaults, entries)
		if err != nil {
			return err
		}
		fmt.Print("\n" + r.PeriodsTable(rows))
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && len(warnings) > 0 {
		return fmt.Errorf("strict mode: %d time entry warning(s)", len(warnings))
	}
	return nil
}

func runPeriods(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	schedule, err := loadSchedule(cmd)
	if err != nil {
		return err
	}

	entries, warnings, err := loadEntries(cmd.Context(), cmd, logger, schedule)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	rows, err := engine.PeriodBreakdown(schedule.Periods, schedule.Defaults, entries)
	if err != nil {
		return err
	}
	fmt.Print(newRenderer(cmd).PeriodsTable(rows))
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	schedule, err := loadSchedule(cmd)
	if err != nil {
		return err
	}

	entries, warnings, err := fetchEntries(cmd.Context(), cmd, logger, schedule)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	fmt.Printf("Synced %d daily entries since %s\n", len(entries), earliestStart(schedule))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	port, _ := cmd.Flags().GetInt("port")

	schedule, err := loadSchedule(cmd)
	if err != nil {
		return err
	}

	store, err := openCache(cmd)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(schedule, store, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
