package calendar

import "time"

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and the CLI's --as-of flag.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.At }

// Week is the current day decomposed into a week reference.
//
// Year is the calendar year of the week's Monday, the same bucket used for
// period uniqueness, so (Year, WeekNumber) can be fed back into lookups.
type Week struct {
	Date       time.Time `json:"date"`
	Year       int       `json:"year"`
	WeekNumber int       `json:"week_number"`
	WeekStart  time.Time `json:"week_start"`
	WeekEnd    time.Time `json:"week_end"`
}

// Engine answers "what week is it" against an injectable clock.
type Engine struct {
	clock Clock
}

// NewEngine creates an engine. A nil clock reads the wall clock.
func NewEngine(clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{clock: clock}
}

// Today returns the clock's current date in UTC.
func (e *Engine) Today() time.Time {
	return DateOf(e.clock.Now().UTC())
}

// Now decomposes the clock's current day.
func (e *Engine) Now() Week {
	today := e.Today()
	monday := MondayOf(today)
	return Week{
		Date:       today,
		Year:       monday.Year(),
		WeekNumber: IsoWeekNumber(today),
		WeekStart:  monday,
		WeekEnd:    monday.AddDate(0, 0, daysPerWeek-1),
	}
}
