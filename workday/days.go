package workday

import "iter"

// =============================================================================
// DAY SEQUENCE - PartialDays between two IntraDayDates
// =============================================================================

// DaySequence is the finite run of PartialDays covering [start, end), one
// per calendar day. It holds no cursor, so it can be walked any number of
// times.
type DaySequence struct {
	start IntraDayDate
	end   IntraDayDate
}

// DaysUntil fails if end is before d. An empty sequence is returned when
// d equals end.
func (d IntraDayDate) DaysUntil(end IntraDayDate) (DaySequence, error) {
	if d.IsZero() || end.IsZero() {
		return DaySequence{}, NewArgumentError("DaysUntil", "start and end are required")
	}
	if end.Before(d) {
		return DaySequence{}, NewArgumentError("DaysUntil", "end %s is before start %s", end, d)
	}
	return DaySequence{start: d, end: end}, nil
}

func (s DaySequence) Start() IntraDayDate { return s.start }
func (s DaySequence) End() IntraDayDate { return s.end }

// Iterator returns a fresh single-pass cursor.
func (s DaySequence) Iterator() *DayIterator {
	return &DayIterator{current: s.start, end: s.end}
}

// All adapts the sequence to range-over-func.
func (s DaySequence) All() iter.Seq[PartialDay] {
	return func(yield func(PartialDay) bool) {
		it := s.Iterator()
		for it.HasNext() {
			day, _ := it.Next()
			if !yield(day) {
				return
			}
		}
	}
}

// List materializes the sequence.
func (s DaySequence) List() []PartialDay {
	var days []PartialDay
	for day := range s.All() {
		days = append(days, day)
	}
	return days
}

// DayIterator walks a DaySequence once. It must not be shared between
// goroutines.
type DayIterator struct {
	current IntraDayDate
	end     IntraDayDate
}

func (it *DayIterator) HasNext() bool {
	return it.current.Before(it.end)
}

// Next returns the slice from the cursor to the next day boundary (or the
// end, whichever is first) and moves the cursor there.
func (it *DayIterator) Next() (PartialDay, error) {
	if !it.HasNext() {
		return PartialDay{}, ErrNoMoreElements
	}
	boundary := MinIntraDay(it.current.NextDayAtStart(), it.end)
	day := PartialDay{start: it.current, end: boundary}
	it.current = boundary
	return day, nil
}
