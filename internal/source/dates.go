package source

import (
	"fmt"
	"time"
)

// DateLayout is the request date format for historical queries.
const DateLayout = "2006-01-02"

// ParseRange validates the YYYY-MM-DD request bounds. It rejects
// unparsable dates and start > end so adapters fail cheaply before any
// upstream call.
func ParseRange(startDate, endDate string) (start, end time.Time, err error) {
	start, err = time.Parse(DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad start date %q", ErrDateRange, startDate)
	}
	end, err = time.Parse(DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: bad end date %q", ErrDateRange, endDate)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s after end %s", ErrDateRange, startDate, endDate)
	}
	return start, end, nil
}
