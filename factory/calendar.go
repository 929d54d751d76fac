/*
Package factory converts JSON and YAML definitions into calendars and
allocation requests.

PURPOSE:
  Calendars and allocation plans are written by people: in a config file,
  an HTTP body or a plan file for the CLI. The factory turns those
  definitions into the value objects the engine works with, and back.

JSON/YAML SCHEMA:
  {
    "id": "std",
    "name": "Standard week",
    "weekly": {"monday": "8", "tuesday": "8", "wednesday": "8",
               "thursday": "8", "friday": "7:30"},
    "exceptions": [
      {"date": "2025-12-25", "name": "Christmas", "capacity": "0", "recurring": true},
      {"date": "2025-03-12", "name": "Half day", "capacity": "4"}
    ]
  }

  Durations use workday.Parse syntax ("8", "7:30", "7.5"). Weekdays not
  listed have no capacity.

KEY FEATURES:
  - Validates every field, reporting the offending one
  - Generates exception IDs when missing
  - Same struct tags for JSON and YAML

USAGE:
  f := factory.New()
  cal, err := f.ParseCalendar(jsonString)

SEE ALSO:
  - calendar/calendar.go: Calendar type definition
  - factory/plan.go: allocation requests and plans
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/workday"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// CalendarJSON is the JSON/YAML representation of a calendar.
type CalendarJSON struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Weekly     map[string]string `json:"weekly" yaml:"weekly"` // weekday -> duration
	Exceptions []ExceptionJSON   `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
}

// ExceptionJSON represents a capacity override on one date.
type ExceptionJSON struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Date      string `json:"date" yaml:"date"` // 2006-01-02
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Capacity  string `json:"capacity" yaml:"capacity"`
	Recurring bool   `json:"recurring,omitempty" yaml:"recurring,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

// Factory converts definitions to engine types.
type Factory struct{}

// New creates a new factory.
func New() *Factory {
	return &Factory{}
}

// ParseCalendar parses a JSON string into a Calendar.
func (f *Factory) ParseCalendar(jsonStr string) (*calendar.Calendar, error) {
	var cj CalendarJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}
	return f.CalendarFromJSON(cj)
}

// CalendarFromJSON converts CalendarJSON to a Calendar.
func (f *Factory) CalendarFromJSON(cj CalendarJSON) (*calendar.Calendar, error) {
	if cj.ID == "" {
		return nil, workday.NewArgumentError("CalendarFromJSON", "calendar id is required")
	}

	var weekly [7]workday.EffortDuration
	for name, value := range cj.Weekly {
		day, err := calendar.ParseWeekday(name)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		capacity, err := workday.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("calendar %s, %s: %w", cj.ID, name, err)
		}
		weekly[day] = capacity
	}

	cal := calendar.New(cj.ID, cj.Name, weekly)
	for _, ej := range cj.Exceptions {
		e, err := f.ExceptionFromJSON(ej)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		if err := cal.AddException(e); err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
	}
	return cal, nil
}

// ExceptionFromJSON converts one exception. A missing capacity means a
// non-working day.
func (f *Factory) ExceptionFromJSON(ej ExceptionJSON) (calendar.Exception, error) {
	date, err := workday.ParseDate(ej.Date)
	if err != nil {
		return calendar.Exception{}, err
	}
	capacity := workday.Zero()
	if strings.TrimSpace(ej.Capacity) != "" {
		if capacity, err = workday.Parse(ej.Capacity); err != nil {
			return calendar.Exception{}, fmt.Errorf("exception on %s: %w", ej.Date, err)
		}
	}
	id := ej.ID
	if id == "" {
		id = uuid.New().String()
	}
	return calendar.Exception{
		ID:        id,
		Date:      date,
		Name:      ej.Name,
		Capacity:  capacity,
		Recurring: ej.Recurring,
	}, nil
}

// CalendarToJSON converts a Calendar to CalendarJSON. Weekdays without
// capacity are left out.
func (f *Factory) CalendarToJSON(c *calendar.Calendar) CalendarJSON {
	cj := CalendarJSON{
		ID:     c.ID,
		Name:   c.Name,
		Weekly: make(map[string]string),
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if !c.Weekly[d].IsZero() {
			cj.Weekly[strings.ToLower(d.String())] = c.Weekly[d].String()
		}
	}
	for _, e := range c.Exceptions() {
		cj.Exceptions = append(cj.Exceptions, ExceptionJSON{
			ID:        e.ID,
			Date:      e.Date.String(),
			Name:      e.Name,
			Capacity:  e.Capacity.String(),
			Recurring: e.Recurring,
		})
	}
	return cj
}
