package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/workday"
)

func march(day int) workday.Date { return workday.NewDate(2025, time.March, day) }

const standardCalendarJSON = `{
	"id": "std",
	"name": "Standard week",
	"weekly": {"monday": "8", "tuesday": "8", "wednesday": "8", "thursday": "8", "fri": "7:30"},
	"exceptions": [
		{"id": "xmas", "date": "2024-12-25", "name": "Christmas", "capacity": "0", "recurring": true},
		{"date": "2025-03-12", "name": "Half day", "capacity": "4"}
	]
}`

// =============================================================================
// CALENDARS
// =============================================================================

func TestParseCalendar(t *testing.T) {
	f := factory.New()

	cal, err := f.ParseCalendar(standardCalendarJSON)

	require.NoError(t, err)
	assert.Equal(t, "std", cal.ID)
	assert.Equal(t, "Standard week", cal.Name)
	assert.Equal(t, workday.Hours(8), cal.CapacityOn(march(10)))
	assert.Equal(t, workday.HoursMinutesSeconds(7, 30, 0), cal.CapacityOn(march(14)))
	assert.Equal(t, workday.Zero(), cal.CapacityOn(march(15)))
	assert.Equal(t, workday.Hours(4), cal.CapacityOn(march(12)))
	assert.Equal(t, workday.Zero(), cal.CapacityOn(workday.NewDate(2025, time.December, 25)))

	exceptions := cal.Exceptions()
	require.Len(t, exceptions, 2)
	assert.Equal(t, "xmas", exceptions[0].ID)
	assert.NotEmpty(t, exceptions[1].ID, "generated")
}

func TestParseCalendar_Invalid(t *testing.T) {
	f := factory.New()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"id": `},
		{"missing id", `{"name": "x"}`},
		{"unknown weekday", `{"id": "c", "weekly": {"funday": "8"}}`},
		{"bad duration", `{"id": "c", "weekly": {"monday": "eight"}}`},
		{"bad exception date", `{"id": "c", "exceptions": [{"date": "25/12/2025"}]}`},
		{"bad exception capacity", `{"id": "c", "exceptions": [{"date": "2025-12-25", "capacity": "-1"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseCalendar(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestCalendarToJSON_RoundTrip(t *testing.T) {
	f := factory.New()
	cal, err := f.ParseCalendar(standardCalendarJSON)
	require.NoError(t, err)

	cj := f.CalendarToJSON(cal)
	assert.Equal(t, "8:00", cj.Weekly["monday"])
	assert.Equal(t, "7:30", cj.Weekly["friday"])
	assert.NotContains(t, cj.Weekly, "saturday")

	again, err := f.CalendarFromJSON(cj)
	require.NoError(t, err)
	assert.Equal(t, cal.Weekly, again.Weekly)
	assert.Equal(t, cal.Exceptions(), again.Exceptions())
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequestFromJSON(t *testing.T) {
	f := factory.New()

	req, err := f.RequestFromJSON(factory.AllocationJSON{
		TaskID:          "t1",
		ResourceID:      "alice",
		Start:           "2025-03-10+2:00",
		End:             "2025-03-14",
		Effort:          "20",
		ResourcesPerDay: "0.5",
		NotBefore:       "2025-03-11",
	})

	require.NoError(t, err)
	assert.Equal(t, "t1", req.TaskID)
	assert.Equal(t, workday.Create(march(10), workday.Hours(2)), req.Start)
	require.NotNil(t, req.End)
	assert.Equal(t, workday.StartOfDay(march(14)), *req.End)
	assert.Equal(t, workday.Hours(20), req.Effort)
	assert.Equal(t, "0.50", req.ResourcesPerDay.String())
	require.Len(t, req.StartConstraints, 1)
	assert.Equal(t, workday.StartOfDay(march(11)), workday.ApplyConstraints(req.Start, req.StartConstraints...))
}

func TestRequestFromJSON_Defaults(t *testing.T) {
	req, err := factory.New().RequestFromJSON(factory.AllocationJSON{Start: "2025-03-10"})

	require.NoError(t, err)
	assert.Nil(t, req.End)
	assert.True(t, req.Effort.IsZero())
	assert.Equal(t, "1.00", req.ResourcesPerDay.String())
	assert.True(t, req.IsOpenEnded())
}

func TestRequestFromJSON_Invalid(t *testing.T) {
	f := factory.New()
	for name, aj := range map[string]factory.AllocationJSON{
		"no start":     {},
		"bad start":    {Start: "monday"},
		"bad end":      {Start: "2025-03-10", End: "friday"},
		"bad effort":   {Start: "2025-03-10", Effort: "lots"},
		"negative rpd": {Start: "2025-03-10", ResourcesPerDay: "-1"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.RequestFromJSON(aj)
			assert.ErrorIs(t, err, workday.ErrInvalidArgument)
		})
	}
}

func TestRequestToJSON(t *testing.T) {
	f := factory.New()
	req, err := f.RequestFromJSON(factory.AllocationJSON{Start: "2025-03-10+4:00", Effort: "7:30", ResourcesPerDay: "2"})
	require.NoError(t, err)

	aj := f.RequestToJSON(req, "std")

	assert.Equal(t, "2025-03-10+4:00", aj.Start)
	assert.Equal(t, "7:30", aj.Effort)
	assert.Equal(t, "2.00", aj.ResourcesPerDay)
	assert.Equal(t, "std", aj.CalendarID)
	assert.Empty(t, aj.End)
}

// =============================================================================
// PLANS
// =============================================================================

const planYAML = `
calendars:
  - id: std
    name: Standard
    weekly: {monday: "8", tuesday: "8", wednesday: "8", thursday: "8", friday: "8"}
  - id: part
    name: Part time
    weekly: {monday: "4", tuesday: "4", wednesday: "4", thursday: "4", friday: "4"}
allocations:
  - resource_id: alice
    calendar_id: std
    start: "2025-03-10"
    effort: "20"
  - task_id: pair
    calendar_id: std
    start: "2025-03-10"
    end: "2025-03-11"
    resources_per_day: "2"
    shares:
      - {resource_id: alice, ratio: "1"}
      - {resource_id: bob, calendar_id: part, ratio: "1"}
`

func TestParsePlanYAML(t *testing.T) {
	plan, err := factory.New().ParsePlanYAML([]byte(planYAML))
	require.NoError(t, err)

	assert.Len(t, plan.Calendars, 2)
	require.Len(t, plan.Items, 2)
	assert.Empty(t, plan.Items[0].Shares)
	assert.Len(t, plan.Items[1].Shares, 2)

	results, err := plan.Run(allocation.NewAllocator())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, workday.Hours(20), results[0].Assigned)
	byResource := results[1].ByResource()
	assert.Equal(t, workday.Hours(8), byResource["alice"])
	assert.Equal(t, workday.Hours(4), byResource["bob"])
}

func TestParsePlanYAML_UnknownCalendar(t *testing.T) {
	_, err := factory.New().ParsePlanYAML([]byte(`
allocations:
  - resource_id: alice
    calendar_id: nope
    start: "2025-03-10"
`))
	assert.ErrorIs(t, err, allocation.ErrCalendarNotFound)
}

func TestParsePlanYAML_DuplicateCalendar(t *testing.T) {
	_, err := factory.New().ParsePlanYAML([]byte(`
calendars:
  - {id: a, weekly: {monday: "8"}}
  - {id: a, weekly: {monday: "4"}}
`))
	assert.ErrorIs(t, err, workday.ErrInvalidArgument)
}
