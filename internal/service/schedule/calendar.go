package schedule

import "time"

// WeekdayCalendar treats Monday through Friday as trading days, minus a
// configured holiday list. Dates are evaluated in the exchange's location.
type WeekdayCalendar struct {
	loc      *time.Location
	holidays map[string]struct{}
}

// NewWeekdayCalendar creates a calendar for loc. holidays are "2006-01-02"
// dates in that location.
func NewWeekdayCalendar(loc *time.Location, holidays []string) *WeekdayCalendar {
	h := make(map[string]struct{}, len(holidays))
	for _, d := range holidays {
		h[d] = struct{}{}
	}
	return &WeekdayCalendar{loc: loc, holidays: h}
}

// IsTradingDay reports whether date falls on a trading day.
func (c *WeekdayCalendar) IsTradingDay(date time.Time) bool {
	d := date.In(c.loc)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[d.Format("2006-01-02")]
	return !holiday
}
