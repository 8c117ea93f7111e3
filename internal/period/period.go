// Package period models the calendar month used to scope listings,
// dashboards and copy-to-month.
package period

import (
	"fmt"
	"strings"
	"time"

	apperrors "finanzas/internal/errors"
)

const (
	minYear = 1970
	maxYear = 9999
)

// Period is a calendar month. Month is 1-based (time.January == 1).
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// New validates year and month and returns the period.
func New(year int, month time.Month) (Period, error) {
	if month < time.January || month > time.December || year < minYear || year > maxYear {
		return Period{}, apperrors.ErrInvalidPeriod
	}
	return Period{Year: year, Month: month}, nil
}

// Current returns the month containing now, as seen from loc.
func Current(now time.Time, loc *time.Location) Period {
	local := now.In(orUTC(loc))
	return Period{Year: local.Year(), Month: local.Month()}
}

// Of returns the period a timestamp falls in when read in loc.
func Of(t time.Time, loc *time.Location) Period {
	return Current(t, loc)
}

// Bounds returns the first and last instants of the month in loc, both
// inclusive. The end is one microsecond before the next month starts.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, orUTC(loc))
	end := start.AddDate(0, 1, 0).Add(-time.Microsecond)
	return start, end
}

// DaysIn returns the number of days in the month.
func (p Period) DaysIn() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Label returns the capitalised full month name in the given locale.
// Unknown locales fall back to English.
func (p Period) Label(locale string) string {
	names, ok := monthNames[strings.ToLower(locale)]
	if !ok {
		names = monthNames["en"]
	}
	return names[p.Month-1]
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero value.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// PlaceDay moves src into the target month. The day of month is kept when
// the target month has it and clamped to the last day otherwise. The time
// of day is normalised to 12:00 in loc.
func PlaceDay(src time.Time, target Period, loc *time.Location) time.Time {
	loc = orUTC(loc)
	day := src.In(loc).Day()
	if last := target.DaysIn(); day > last {
		day = last
	}
	return time.Date(target.Year, target.Month, day, 12, 0, 0, 0, loc)
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

var monthNames = map[string][12]string{
	"es": {"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"},
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
}
