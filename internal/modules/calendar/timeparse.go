package calendar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDuration applies when the command names no duration.
const DefaultDuration = 60

var (
	clockPattern      = regexp.MustCompile(`\bat (\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	minutesPattern    = regexp.MustCompile(`\b(\d+)\s*(?:minutes?|mins?)\b`)
	hoursPattern      = regexp.MustCompile(`\b(\d+)\s*hours?\b`)
	relativePattern   = regexp.MustCompile(`\bin (\d+|an|a|one) (minutes?|mins?|hours?)\b`)
	quotedPattern     = regexp.MustCompile(`["“]([^"”]+)["”]`)
	reminderTimeWords = regexp.MustCompile(`\b(?:in (?:\d+|an|a|one) (?:minutes?|mins?|hours?)|at \d{1,2}(?::\d{2})?\s*(?:am|pm)?)\b`)
)

var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

var reminderStopWords = map[string]bool{
	"remind": true, "me": true, "to": true, "about": true, "that": true, "tomorrow": true,
	"tonight": true, "set": true, "a": true, "reminder": true, "please": true,
}

// EventDetails is the parsed form of a scheduling command.
type EventDetails struct {
	Title    string
	Start    time.Time
	Duration int // minutes
}

// ParseEvent reads the start time, duration and title from a scheduling command.
// Commands without a time phrase start one hour from now.
func ParseEvent(command string, now time.Time) EventDetails {
	lower := strings.ToLower(command)
	details := EventDetails{
		Title:    "Meeting",
		Start:    now.Add(time.Hour).Truncate(time.Minute),
		Duration: DefaultDuration,
	}

	if day, ok := dayFromPhrase(lower, now); ok {
		hour := 10
		switch {
		case strings.Contains(lower, "morning"):
			hour = 9
		case strings.Contains(lower, "afternoon"):
			hour = 14
		case strings.Contains(lower, "evening"):
			hour = 18
		}
		details.Start = atClock(day, hour, 0)
	}
	if hour, minute, ok := clockTime(lower); ok {
		base := details.Start
		if _, hasDay := dayFromPhrase(lower, now); !hasDay {
			base = now
		}
		details.Start = atClock(base, hour, minute)
		if details.Start.Before(now) {
			details.Start = details.Start.AddDate(0, 0, 1)
		}
	}

	details.Duration = parseDuration(lower)
	details.Title = parseTitle(command, lower)
	return details
}

// ParseReminder reads the reminder time and message. Commands without a time
// phrase fire one hour from now.
func ParseReminder(command string, now time.Time) (string, time.Time) {
	lower := strings.ToLower(command)
	at := now.Add(time.Hour)

	switch {
	case strings.Contains(lower, "tomorrow"):
		at = atClock(now.AddDate(0, 0, 1), 9, 0)
	case strings.Contains(lower, "tonight"):
		at = atClock(now, 20, 0)
	}
	if m := relativePattern.FindStringSubmatch(lower); m != nil {
		n := 1
		if v, err := strconv.Atoi(m[1]); err == nil {
			n = v
		}
		unit := time.Minute
		if strings.HasPrefix(m[2], "hour") {
			unit = time.Hour
		}
		at = now.Add(time.Duration(n) * unit)
	}
	if hour, minute, ok := clockTime(lower); ok {
		base := now
		if strings.Contains(lower, "tomorrow") {
			base = now.AddDate(0, 0, 1)
		}
		at = atClock(base, hour, minute)
		if at.Before(now) {
			at = at.AddDate(0, 0, 1)
		}
	}

	stripped := reminderTimeWords.ReplaceAllString(lower, " ")
	var kept []string
	for _, word := range strings.Fields(stripped) {
		word = strings.Trim(word, "?!.,")
		if word == "" || reminderStopWords[word] {
			continue
		}
		kept = append(kept, word)
	}

	message := "Reminder"
	if len(kept) > 0 {
		message = strings.Join(kept, " ")
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return message, at.Truncate(time.Minute)
}

// dayFromPhrase resolves today/tomorrow/next week/weekday names to a date.
func dayFromPhrase(lower string, now time.Time) (time.Time, bool) {
	switch {
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1), true
	case strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7), true
	case strings.Contains(lower, "today"):
		return now, true
	}
	for _, wd := range weekdays {
		if strings.Contains(lower, wd.name) {
			return nextWeekday(now, wd.day), true
		}
	}
	return time.Time{}, false
}

// nextWeekday returns the next occurrence of day strictly after now's date.
func nextWeekday(now time.Time, day time.Weekday) time.Time {
	ahead := int(day) - int(now.Weekday())
	if ahead <= 0 {
		ahead += 7
	}
	return now.AddDate(0, 0, ahead)
}

func clockTime(lower string) (int, int, bool) {
	m := clockPattern.FindStringSubmatch(lower)
	if m == nil {
		return 0, 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func atClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func parseDuration(lower string) int {
	switch {
	case strings.Contains(lower, "half hour"), strings.Contains(lower, "half an hour"):
		return 30
	}
	if m := hoursPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n * 60
		}
	}
	if m := minutesPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return DefaultDuration
}

func parseTitle(command, lower string) string {
	if m := quotedPattern.FindStringSubmatch(command); m != nil {
		return strings.TrimSpace(m[1])
	}
	switch {
	case strings.Contains(lower, "meeting"):
		switch {
		case strings.Contains(lower, "team"):
			return "Team Meeting"
		case strings.Contains(lower, "client"):
			return "Client Meeting"
		case strings.Contains(lower, "project"):
			return "Project Meeting"
		}
		return "Meeting"
	case strings.Contains(lower, "call"):
		return "Phone Call"
	case strings.Contains(lower, "appointment"):
		return "Appointment"
	case strings.Contains(lower, "lunch"):
		return "Lunch"
	}
	return "Meeting"
}
