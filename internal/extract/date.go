package extract

import (
	"strings"
	"time"
)

// AutoFormat is the sentinel hint meaning "try every known layout".
const AutoFormat = "auto"

// dateLayouts is the ordered list of layouts tried when parsing loosely
// formatted dates. Order matters: unambiguous ISO forms come first, then
// long month names, then the inherently ambiguous numeric forms where
// month-first wins over day-first by list position alone.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"Monday, January 2, 2006 3:04 PM",
	"January 2, 2006 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
}

// ParseDate parses a loosely formatted date string. The hint layout is
// tried first unless it is AutoFormat; the known layouts are then tried in
// priority order. A miss is not an error - it is the valid "unknown date"
// outcome, reported as ok=false.
func ParseDate(text, hint string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if hint != "" && hint != AutoFormat {
		if t, err := time.Parse(hint, text); err == nil {
			return t, true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
