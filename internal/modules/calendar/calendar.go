// Package calendar keeps a local event calendar and reminder list in JSON files.
package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"specter/internal/logger"
	"specter/internal/storage"
	"specter/internal/testutils"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

// Store file names inside the data directory.
const (
	EventsFile    = "local_calendar.json"
	RemindersFile = "reminders.json"
)

// Event is one scheduled calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start_time"`
	Duration    int       `json:"duration"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Reminder is one pending or completed reminder.
type Reminder struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	RemindAt  time.Time `json:"remind_time"`
	CreatedAt time.Time `json:"created_at"`
	Completed bool      `json:"completed"`
}

// Options configures a Module.
type Options struct {
	Events    *storage.JSONFile
	Reminders *storage.JSONFile
	Stamper   testutils.Stamper
	Now       func() time.Time // defaults to Stamper.Now
}

// Module is the calendar capability.
type Module struct {
	mu        sync.Mutex
	opts      Options
	events    []Event
	reminders []Reminder
	log       *log.Logger
}

// New loads both stores. Unreadable stores are an error so data is never overwritten.
func New(opts Options) (*Module, error) {
	if opts.Events == nil || opts.Reminders == nil {
		return nil, fmt.Errorf("calendar stores are required")
	}
	if opts.Now == nil {
		opts.Now = opts.Stamper.Now
	}

	m := &Module{opts: opts, log: logger.NewStyledLogger("Calendar")}
	if err := opts.Events.Load(&m.events); err != nil {
		return nil, err
	}
	if err := opts.Reminders.Load(&m.reminders); err != nil {
		return nil, err
	}
	m.log.Debug("Calendar loaded", "events", len(m.events), "reminders", len(m.reminders))
	return m, nil
}

// Slot returns the calendar slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotCalendar
}

// Handle dispatches a free-form calendar command.
func (m *Module) Handle(_ context.Context, command string) (string, error) {
	lower := strings.ToLower(command)

	switch {
	case containsAny(lower, "cancel", "delete", "remove"):
		return m.CancelLast()
	case strings.Contains(lower, "reminders"):
		return m.ListReminders(), nil
	case containsAny(lower, "remind", "reminder"):
		return m.SetReminder(command)
	case containsAny(lower, "schedule", "book", "set up", "add"):
		return m.Schedule(command)
	case containsAny(lower, "events", "agenda", "calendar", "what", "show", "list", "meetings", "appointments"):
		return m.ListEvents(RangeFromCommand(lower)), nil
	case containsAny(lower, "meeting", "appointment", "call"):
		return m.Schedule(command)
	}
	return "I can help you schedule events, set reminders, or check your calendar. What would you like to do?", nil
}

// Invoke serves the classifier's calendar functions.
func (m *Module) Invoke(_ context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	command := params["command"]
	switch fn {
	case spectertypes.FuncScheduleEvent:
		return m.Schedule(command)
	case spectertypes.FuncSetReminder:
		return m.SetReminder(command)
	case spectertypes.FuncListEvents:
		r := Range(strings.ToLower(params["range"]))
		if r != RangeToday && r != RangeTomorrow && r != RangeWeek {
			r = RangeFromCommand(strings.ToLower(command))
		}
		return m.ListEvents(r), nil
	case spectertypes.FuncListReminders:
		return m.ListReminders(), nil
	case spectertypes.FuncCancelEvent:
		return m.CancelLast()
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// Schedule adds an event parsed from command.
func (m *Module) Schedule(command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	details := ParseEvent(command, m.opts.Now())
	event := Event{
		ID:          m.opts.Stamper.NewID(),
		Title:       details.Title,
		Start:       details.Start,
		Duration:    details.Duration,
		Description: "Created from: " + strings.TrimSpace(command),
		CreatedAt:   m.opts.Stamper.Now(),
	}

	events := append(append([]Event(nil), m.events...), event)
	if err := m.opts.Events.Save(events); err != nil {
		return "", fmt.Errorf("failed to save event: %w", err)
	}
	m.events = events

	m.log.Info("Event scheduled", "title", event.Title, "start", event.Start)
	return fmt.Sprintf("✅ '%s' scheduled for %s (%d min)",
		event.Title, event.Start.Format("2006-01-02 at 15:04"), event.Duration), nil
}

// SetReminder adds a reminder parsed from command.
func (m *Module) SetReminder(command string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	message, at := ParseReminder(command, m.opts.Now())
	reminder := Reminder{
		ID:        m.opts.Stamper.NewID(),
		Message:   message,
		RemindAt:  at,
		CreatedAt: m.opts.Stamper.Now(),
	}

	reminders := append(append([]Reminder(nil), m.reminders...), reminder)
	if err := m.opts.Reminders.Save(reminders); err != nil {
		return "", fmt.Errorf("failed to save reminder: %w", err)
	}
	m.reminders = reminders

	return fmt.Sprintf("⏰ Reminder set: '%s' for %s", message, at.Format("2006-01-02 at 15:04")), nil
}

// Range selects which events ListEvents shows.
type Range string

const (
	RangeToday    Range = "today"
	RangeTomorrow Range = "tomorrow"
	RangeWeek     Range = "week"
)

// RangeFromCommand picks a listing range; today is the default.
func RangeFromCommand(lower string) Range {
	switch {
	case strings.Contains(lower, "tomorrow"):
		return RangeTomorrow
	case strings.Contains(lower, "week"):
		return RangeWeek
	}
	return RangeToday
}

// ListEvents shows the events in r, ordered by start time.
func (m *Module) ListEvents(r Range) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	from := atClock(now, 0, 0)
	days := 1
	switch r {
	case RangeTomorrow:
		from = from.AddDate(0, 0, 1)
	case RangeWeek:
		days = 7
	}
	to := from.AddDate(0, 0, days)

	var selected []Event
	for _, e := range m.events {
		start := e.Start.In(now.Location())
		if !start.Before(from) && start.Before(to) {
			selected = append(selected, e)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Start.Before(selected[j].Start)
	})

	if len(selected) == 0 {
		switch r {
		case RangeWeek:
			return "📅 No events scheduled for the next 7 days."
		case RangeTomorrow:
			return fmt.Sprintf("📅 No events scheduled for tomorrow (%s).", from.Format("Monday, January 02"))
		default:
			return fmt.Sprintf("📅 No events scheduled for today (%s).", from.Format("Monday, January 02"))
		}
	}

	var b strings.Builder
	if r == RangeWeek {
		fmt.Fprintf(&b, "📅 Events for the next 7 days (%d):", len(selected))
		lastDay := ""
		for _, e := range selected {
			start := e.Start.In(now.Location())
			if day := start.Format("Monday, January 02"); day != lastDay {
				fmt.Fprintf(&b, "\n\n%s", day)
				lastDay = day
			}
			fmt.Fprintf(&b, "\n• %s - %s (%d min)", start.Format("15:04"), e.Title, e.Duration)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "📅 Events for %s:", from.Format("Monday, January 02, 2006"))
	for _, e := range selected {
		fmt.Fprintf(&b, "\n• %s - %s (%d min)", e.Start.In(now.Location()).Format("15:04"), e.Title, e.Duration)
	}
	return b.String()
}

// ListReminders shows pending reminders, soonest first.
func (m *Module) ListReminders() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []Reminder
	for _, r := range m.reminders {
		if !r.Completed {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		return "⏰ No active reminders."
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].RemindAt.Before(active[j].RemindAt)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ Active Reminders (%d):", len(active))
	for _, r := range active {
		fmt.Fprintf(&b, "\n• %s - %s", r.RemindAt.Format("01-02 15:04"), r.Message)
	}
	return b.String()
}

// CancelLast removes the most recently created event.
func (m *Module) CancelLast() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) == 0 {
		return "📅 No events to cancel.", nil
	}

	last := 0
	for i, e := range m.events {
		if !e.CreatedAt.Before(m.events[last].CreatedAt) {
			last = i
		}
	}
	cancelled := m.events[last]

	events := make([]Event, 0, len(m.events)-1)
	events = append(events, m.events[:last]...)
	events = append(events, m.events[last+1:]...)
	if err := m.opts.Events.Save(events); err != nil {
		return "", fmt.Errorf("failed to save calendar: %w", err)
	}
	m.events = events

	return fmt.Sprintf("🗑️ Cancelled '%s' on %s", cancelled.Title, cancelled.Start.Format("2006-01-02 at 15:04")), nil
}

// DueReminders marks every pending reminder at or before now as completed and returns them.
func (m *Module) DueReminders() ([]Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	var due []Reminder
	reminders := append([]Reminder(nil), m.reminders...)
	for i := range reminders {
		if !reminders[i].Completed && !reminders[i].RemindAt.After(now) {
			reminders[i].Completed = true
			due = append(due, reminders[i])
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	if err := m.opts.Reminders.Save(reminders); err != nil {
		return nil, fmt.Errorf("failed to save reminders: %w", err)
	}
	m.reminders = reminders
	return due, nil
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
