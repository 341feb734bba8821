package remind

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// Command is a successfully parsed /remindme request.
type Command struct {
	Text   string
	FireAt time.Time
}

// The grammar is closed: exactly two shapes, tried in order, first match wins.
//
//	/remindme "message" in N minutes
//	/remindme "message" at HH:MM
var (
	reInMinutes = regexp.MustCompile(`(?i)/remindme\s+"(.*?)"\s+in\s+(\d+)\s+minutes?`)
	reAtClock   = regexp.MustCompile(`(?i)/remindme\s+"(.*?)"\s+at\s+(\d{1,2}):(\d{2})`)
)

// maxMinutes bounds the "in N minutes" shape: anything larger overflows the
// Duration arithmetic and would wrap the fire time into the past.
const maxMinutes = int(math.MaxInt64 / int64(time.Minute))

// Parse attempts to read a reminder command out of raw text.
//
// ok=false is a normal outcome (the text is not a reminder command), not an
// error; callers answer it with usage help.
func Parse(text string, now time.Time) (Command, bool) {
	if m := reInMinutes.FindStringSubmatch(text); m != nil {
		msg := m[1]
		if msg == "" {
			return Command{}, false
		}
		minutes, err := strconv.Atoi(m[2])
		if err != nil || minutes > maxMinutes {
			// Unparseable or absurdly large: same treatment as an
			// out-of-range clock value.
			return Command{}, false
		}
		return Command{Text: msg, FireAt: now.Add(time.Duration(minutes) * time.Minute)}, true
	}

	if m := reAtClock.FindStringSubmatch(text); m != nil {
		msg := m[1]
		if msg == "" {
			return Command{}, false
		}
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		if hour > 23 || minute > 59 {
			return Command{}, false
		}
		fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		// Already past for today: roll to tomorrow. A reminder for exactly the
		// current minute fires today.
		if fireAt.Before(now) {
			fireAt = fireAt.AddDate(0, 0, 1)
		}
		return Command{Text: msg, FireAt: fireAt}, true
	}

	return Command{}, false
}
