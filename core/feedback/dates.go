package feedback

import (
	"fmt"
	"time"
)

// FormatDay formats t as the day of the month with its English ordinal suffix followed by the
// month name, e.g. "3rd March".
func FormatDay(t time.Time) string {
	d := t.Day()
	return fmt.Sprintf("%d%s %s", d, ordinal(d), t.Month())
}

func ordinal(d int) string {
	if d%100 >= 11 && d%100 <= 13 {
		return "th"
	}
	switch d % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
