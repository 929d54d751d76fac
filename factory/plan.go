package factory

import (
	"fmt"

	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/calendar"
	"github.com/warp/capacity-engine/resources"
	"github.com/warp/capacity-engine/workday"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// ALLOCATION REQUESTS
// =============================================================================

// AllocationJSON is the JSON/YAML representation of an allocation request.
//
//	{"resource_id": "alice", "calendar_id": "std", "start": "2025-03-10",
//	 "effort": "20", "resources_per_day": "1"}
//
// start/end/not_before use workday.ParseIntraDayDate syntax, so
// "2025-03-10+4:00" starts four hours into the day.
type AllocationJSON struct {
	TaskID          string      `json:"task_id,omitempty" yaml:"task_id,omitempty"`
	ResourceID      string      `json:"resource_id" yaml:"resource_id"`
	CalendarID      string      `json:"calendar_id" yaml:"calendar_id"`
	Start           string      `json:"start" yaml:"start"`
	End             string      `json:"end,omitempty" yaml:"end,omitempty"`
	Effort          string      `json:"effort,omitempty" yaml:"effort,omitempty"`
	ResourcesPerDay string      `json:"resources_per_day,omitempty" yaml:"resources_per_day,omitempty"` // default "1"
	NotBefore       string      `json:"not_before,omitempty" yaml:"not_before,omitempty"`
	Shares          []ShareJSON `json:"shares,omitempty" yaml:"shares,omitempty"`
}

// ShareJSON splits an allocation between resources. CalendarID defaults
// to the allocation's.
type ShareJSON struct {
	ResourceID string `json:"resource_id" yaml:"resource_id"`
	CalendarID string `json:"calendar_id,omitempty" yaml:"calendar_id,omitempty"`
	Ratio      string `json:"ratio" yaml:"ratio"`
}

// RequestFromJSON converts AllocationJSON to a Request. Shares are resolved
// separately since they need calendars.
func (f *Factory) RequestFromJSON(aj AllocationJSON) (allocation.Request, error) {
	var req allocation.Request
	if aj.Start == "" {
		return req, workday.NewArgumentError("RequestFromJSON", "start is required")
	}

	start, err := workday.ParseIntraDayDate(aj.Start)
	if err != nil {
		return req, fmt.Errorf("start: %w", err)
	}
	req = allocation.Request{
		TaskID:     aj.TaskID,
		ResourceID: aj.ResourceID,
		Start:      start,
	}

	if aj.End != "" {
		end, err := workday.ParseIntraDayDate(aj.End)
		if err != nil {
			return req, fmt.Errorf("end: %w", err)
		}
		req.End = &end
	}
	if aj.Effort != "" {
		if req.Effort, err = workday.Parse(aj.Effort); err != nil {
			return req, fmt.Errorf("effort: %w", err)
		}
	}

	rpd := aj.ResourcesPerDay
	if rpd == "" {
		rpd = "1"
	}
	if req.ResourcesPerDay, err = resources.Parse(rpd); err != nil {
		return req, fmt.Errorf("resources_per_day: %w", err)
	}

	if aj.NotBefore != "" {
		notBefore, err := workday.ParseIntraDayDate(aj.NotBefore)
		if err != nil {
			return req, fmt.Errorf("not_before: %w", err)
		}
		req.StartConstraints = append(req.StartConstraints, workday.NotBefore(notBefore))
	}
	return req, nil
}

// RequestToJSON converts a Request back to its JSON form. Start
// constraints are not carried.
func (f *Factory) RequestToJSON(req allocation.Request, calendarID string) AllocationJSON {
	aj := AllocationJSON{
		TaskID:          req.TaskID,
		ResourceID:      req.ResourceID,
		CalendarID:      calendarID,
		Start:           req.Start.String(),
		ResourcesPerDay: req.ResourcesPerDay.String(),
	}
	if req.End != nil {
		aj.End = req.End.String()
	}
	if !req.Effort.IsZero() {
		aj.Effort = req.Effort.String()
	}
	return aj
}

// =============================================================================
// PLANS
// =============================================================================

// PlanJSON is a set of calendars and the allocations to compute on them,
// the input of the allocate command.
type PlanJSON struct {
	Calendars   []CalendarJSON   `json:"calendars" yaml:"calendars"`
	Allocations []AllocationJSON `json:"allocations" yaml:"allocations"`
}

// Plan is a parsed PlanJSON.
type Plan struct {
	Calendars map[string]*calendar.Calendar
	Items     []PlanItem
}

// PlanItem is one allocation of a plan. Shares is set when the work is
// split between resources.
type PlanItem struct {
	CalendarID string
	Request    allocation.Request
	Shares     []allocation.Share
}

// Run computes every item of the plan, in order.
func (p *Plan) Run(a *allocation.Allocator) ([]*allocation.Result, error) {
	results := make([]*allocation.Result, 0, len(p.Items))
	for i, item := range p.Items {
		var res *allocation.Result
		var err error
		if len(item.Shares) > 0 {
			res, err = a.AllocateShares(item.Request, item.Shares)
		} else {
			res, err = a.Allocate(p.Calendars[item.CalendarID], item.Request)
		}
		if err != nil {
			return nil, fmt.Errorf("allocation %d (%s): %w", i+1, item.Request.ResourceID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// ParsePlanYAML parses a YAML plan. JSON is valid YAML, so JSON plans are
// accepted too.
func (f *Factory) ParsePlanYAML(data []byte) (*Plan, error) {
	var pj PlanJSON
	if err := yaml.Unmarshal(data, &pj); err != nil {
		return nil, fmt.Errorf("failed to parse plan: %w", err)
	}
	return f.PlanFromJSON(pj)
}

// PlanFromJSON resolves every calendar reference of the plan.
func (f *Factory) PlanFromJSON(pj PlanJSON) (*Plan, error) {
	plan := &Plan{Calendars: make(map[string]*calendar.Calendar)}
	for _, cj := range pj.Calendars {
		cal, err := f.CalendarFromJSON(cj)
		if err != nil {
			return nil, err
		}
		if _, dup := plan.Calendars[cal.ID]; dup {
			return nil, workday.NewArgumentError("PlanFromJSON", "duplicate calendar %q", cal.ID)
		}
		plan.Calendars[cal.ID] = cal
	}

	for i, aj := range pj.Allocations {
		req, err := f.RequestFromJSON(aj)
		if err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i+1, err)
		}
		item := PlanItem{CalendarID: aj.CalendarID, Request: req}
		if len(aj.Shares) == 0 {
			if _, ok := plan.Calendars[aj.CalendarID]; !ok {
				return nil, fmt.Errorf("allocation %d: %w", i+1, &allocation.NotFoundError{Kind: "calendar", ID: aj.CalendarID})
			}
		}
		shares, err := f.SharesFromJSON(aj, plan.calendar)
		if err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i+1, err)
		}
		item.Shares = shares
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

func (p *Plan) calendar(id string) (*calendar.Calendar, error) {
	cal, ok := p.Calendars[id]
	if !ok {
		return nil, &allocation.NotFoundError{Kind: "calendar", ID: id}
	}
	return cal, nil
}

// SharesFromJSON resolves the shares of aj through lookup. It returns nil
// when aj has no shares.
func (f *Factory) SharesFromJSON(aj AllocationJSON, lookup func(id string) (*calendar.Calendar, error)) ([]allocation.Share, error) {
	var shares []allocation.Share
	for _, sj := range aj.Shares {
		calendarID := sj.CalendarID
		if calendarID == "" {
			calendarID = aj.CalendarID
		}
		cal, err := lookup(calendarID)
		if err != nil {
			return nil, err
		}
		ratio, err := resources.Parse(sj.Ratio)
		if err != nil {
			return nil, fmt.Errorf("share %s: %w", sj.ResourceID, err)
		}
		shares = append(shares, allocation.Share{ResourceID: sj.ResourceID, Ratio: ratio, Calendar: cal})
	}
	return shares, nil
}
