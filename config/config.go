/*
Package config parses YAML schedule files into engine types.

PURPOSE:
  Converts the on-disk schedule definition into engine.Period and
  engine.Defaults values. The schedule lives in YAML so tracking targets
  can change without code changes.

YAML SCHEMA:
  defaults:
    period-length: 7
    work-days: {from: monday, to: friday}
  periods:
    - start: 2025-06-02
      length: 14
      work-days:
        sunday: 0
        saturday: 2.5
      clients:
        acme:
          expected-hours: 15
          projects:
            backend:
              expected-hours: 5

KEY RULES:
  - work-days is either a from/to range (weekday names or day offsets,
    both endpoints inclusive) or a per-day hours mapping; the two forms
    never mix inside one value
  - expected-hours parses through decimal arithmetic; the binary float
    value of "2.5" never enters the pipeline
  - clients and projects keep their declaration order; the report prints
    rows in the order this file declares them
  - unknown keys are fatal, matching the strictness of the engine's own
    schedule validation

USAGE:
  schedule, err := config.Load(config.DefaultPath())
  report, err := engine.ComputeReport(schedule.Periods, schedule.Defaults, entries, asOf)

SEE ALSO:
  - engine/schedule.go: the resolved form and its validation
  - cmd/ontrack: flag and environment handling around DefaultPath
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/ontrack/engine"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// FILE LOCATION
// =============================================================================

// DefaultFileName is the schedule file looked up in the working directory
// when neither the flag nor the environment names one.
const DefaultFileName = "toggl-ontrack.yaml"

// EnvFile overrides the schedule file location.
const EnvFile = "TOGGL_ONTRACK_FILE"

// DefaultPath resolves the schedule path from the environment, falling back
// to DefaultFileName.
func DefaultPath() string {
	if path := os.Getenv(EnvFile); path != "" {
		return path
	}
	return DefaultFileName
}

// =============================================================================
// PUBLIC API
// =============================================================================

// Schedule is a parsed schedule file in engine terms.
type Schedule struct {
	Defaults engine.Defaults
	Periods  []engine.Period
}

// Load reads and parses the schedule file at path.
func Load(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", path, err)
	}
	schedule, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", path, err)
	}
	return schedule, nil
}

// Parse parses schedule YAML.
func Parse(data []byte) (*Schedule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty schedule")
		}
		return nil, err
	}
	if len(f.Periods) == 0 {
		return nil, errors.New("schedule declares no periods")
	}

	schedule := &Schedule{
		Defaults: engine.Defaults{
			PeriodLength: f.Defaults.PeriodLength,
			WorkDays:     f.Defaults.WorkDays.spec(),
		},
	}
	for _, p := range f.Periods {
		if len(p.Clients) == 0 {
			return nil, fmt.Errorf("period %s: no clients", p.Start.Date)
		}
		period := engine.Period{
			Start:    p.Start.Date,
			Length:   p.Length,
			WorkDays: p.WorkDays.spec(),
		}
		for _, c := range p.Clients {
			client := engine.ClientHours{Name: c.name, Minutes: c.expected}
			for _, pr := range c.projects {
				client.Projects = append(client.Projects, engine.ProjectHours{
					Name:    pr.name,
					Minutes: pr.expected,
				})
			}
			period.Clients = append(period.Clients, client)
		}
		schedule.Periods = append(schedule.Periods, period)
	}
	return schedule, nil
}

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

type file struct {
	Defaults fileDefaults `yaml:"defaults"`
	Periods  []filePeriod `yaml:"periods"`
}

type fileDefaults struct {
	PeriodLength int       `yaml:"period-length"`
	WorkDays     *workDays `yaml:"work-days"`
}

type filePeriod struct {
	Start    fileDate  `yaml:"start"`
	Length   int       `yaml:"length"`
	WorkDays *workDays `yaml:"work-days"`
	Clients  clientMap `yaml:"clients"`
}

// fileDate parses "2006-01-02" scalars into engine dates.
type fileDate struct {
	engine.Date
}

func (d *fileDate) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := engine.ParseDate(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid date %q (want YYYY-MM-DD)", node.Line, node.Value)
	}
	d.Date = parsed
	return nil
}

// =============================================================================
// WORK DAYS - Range form or per-day hours form
// =============================================================================

type workDays struct {
	inner engine.WorkDaySpec
}

// spec returns the engine form, nil when the field was absent.
func (w *workDays) spec() *engine.WorkDaySpec {
	if w == nil {
		return nil
	}
	return &w.inner
}

func (w *workDays) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: work-days: expected a mapping", node.Line)
	}
	if len(node.Content) == 0 {
		return fmt.Errorf("line %d: work-days: empty mapping", node.Line)
	}

	// The from/to range form claims the value outright; mixing range keys
	// with per-day entries is an error, not a merge.
	if hasKey(node, "from") || hasKey(node, "to") {
		return w.unmarshalRange(node)
	}
	return w.unmarshalExplicit(node)
}

func (w *workDays) unmarshalRange(node *yaml.Node) error {
	var from, to *engine.WorkDay
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		day, err := parseWorkDay(val)
		if err != nil {
			return err
		}
		switch key.Value {
		case "from":
			from = &day
		case "to":
			to = &day
		default:
			return fmt.Errorf("line %d: work-days: unexpected key %q in from/to range", key.Line, key.Value)
		}
	}
	if from == nil || to == nil {
		return fmt.Errorf("line %d: work-days: range needs both from and to", node.Line)
	}
	w.inner = engine.WorkDaySpec{From: from, To: to}
	return nil
}

func (w *workDays) unmarshalExplicit(node *yaml.Node) error {
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		day, err := parseWorkDay(key)
		if err != nil {
			return err
		}
		minutes, err := parseHours(val)
		if err != nil {
			return err
		}
		w.inner.Explicit = append(w.inner.Explicit, engine.ExplicitHours{
			Day:     day,
			Minutes: minutes,
		})
	}
	return nil
}

// parseWorkDay reads a day reference scalar: a weekday name or a numeric
// offset from the period start.
func parseWorkDay(node *yaml.Node) (engine.WorkDay, error) {
	if node.Kind != yaml.ScalarNode {
		return engine.WorkDay{}, fmt.Errorf("line %d: work-days: expected a weekday or day offset", node.Line)
	}
	if offset, err := strconv.Atoi(node.Value); err == nil {
		return engine.OffsetRef(offset), nil
	}
	if weekday, ok := weekdayNames[strings.ToLower(node.Value)]; ok {
		return engine.WeekdayRef(weekday), nil
	}
	return engine.WorkDay{}, fmt.Errorf("line %d: work-days: unknown day %q", node.Line, node.Value)
}

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

func hasKey(mapping *yaml.Node, key string) bool {
	for i := 0; i < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return true
		}
	}
	return false
}

// =============================================================================
// CLIENTS AND PROJECTS - Ordered name-keyed mappings
// =============================================================================

type clientEntry struct {
	name     string
	expected engine.Minutes
	projects []projectEntry
}

type projectEntry struct {
	name     string
	expected engine.Minutes
}

// clientMap decodes the clients mapping by walking the raw node pairs, so
// declaration order survives into the report.
type clientMap []clientEntry

func (c *clientMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: clients: expected a mapping of client names", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		entry, err := parseClient(key.Value, val)
		if err != nil {
			return err
		}
		*c = append(*c, entry)
	}
	return nil
}

func parseClient(name string, node *yaml.Node) (clientEntry, error) {
	entry := clientEntry{name: name}
	if node.Kind != yaml.MappingNode {
		return entry, fmt.Errorf("line %d: client %s: expected a mapping", node.Line, name)
	}

	var haveHours bool
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "expected-hours":
			minutes, err := parseHours(val)
			if err != nil {
				return entry, fmt.Errorf("client %s: %w", name, err)
			}
			entry.expected = minutes
			haveHours = true
		case "projects":
			projects, err := parseProjects(name, val)
			if err != nil {
				return entry, err
			}
			entry.projects = projects
		default:
			return entry, fmt.Errorf("line %d: client %s: unknown key %q", key.Line, name, key.Value)
		}
	}
	if !haveHours {
		return entry, fmt.Errorf("line %d: client %s: missing expected-hours", node.Line, name)
	}
	return entry, nil
}

func parseProjects(client string, node *yaml.Node) ([]projectEntry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: client %s: projects: expected a mapping of project names", node.Line, client)
	}
	var projects []projectEntry
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.MappingNode || len(val.Content) != 2 || val.Content[0].Value != "expected-hours" {
			return nil, fmt.Errorf("line %d: project %s/%s: expected exactly one key, expected-hours", val.Line, client, key.Value)
		}
		minutes, err := parseHours(val.Content[1])
		if err != nil {
			return nil, fmt.Errorf("project %s/%s: %w", client, key.Value, err)
		}
		projects = append(projects, projectEntry{name: key.Value, expected: minutes})
	}
	return projects, nil
}

// parseHours reads an hour figure from the scalar's literal text through
// decimal, never through float64.
func parseHours(node *yaml.Node) (engine.Minutes, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected an hour figure", node.Line)
	}
	hours, err := decimal.NewFromString(node.Value)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid hours %q", node.Line, node.Value)
	}
	if hours.IsNegative() {
		return 0, fmt.Errorf("line %d: negative hours %q", node.Line, node.Value)
	}
	return engine.MinutesFromHours(hours), nil
}
