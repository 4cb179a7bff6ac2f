// Package spectertypes defines the closed catalogue of capability functions.
// The intent classifier names these functions; the router resolves them to slots.
package spectertypes

import "strings"

// Function is one known capability operation.
type Function int

// Known functions. FuncUnknown is the explicit "unrecognized" arm.
const (
	FuncUnknown Function = iota

	FuncPlayMusic
	FuncPauseMusic
	FuncResumeMusic
	FuncStopMusic
	FuncSetVolume

	FuncFindFiles
	FuncOrganizeFiles
	FuncFindDuplicates
	FuncCleanEmptyFolders

	FuncSendEmail
	FuncSendDraft
	FuncGetDraft
	FuncDiscardDraft
	FuncCheckEmail
	FuncUnreadEmail

	FuncGetNews

	FuncGetWeather
	FuncGetForecast

	FuncScheduleEvent
	FuncSetReminder
	FuncListEvents
	FuncListReminders
	FuncCancelEvent

	FuncLaunchApp
	FuncOpenWebsite
	FuncListApps
	FuncCloseApp

	FuncSystemStatus
	FuncSystemPerformance
	FuncTopProcesses
	FuncSystemAlerts
	FuncStorageStatus
	FuncNetworkStatus
	FuncBatteryStatus
	FuncTemperatureStatus
	FuncAnalyzeSystem

	FuncSpeak
	FuncStopSpeaking

	FuncChangeMode
	FuncClearHistory
)

// FunctionSpec describes a catalogue entry.
type FunctionSpec struct {
	Function    Function
	Name        string // wire name used by the classifier, e.g. "send_email"
	Slot        Slot   // owning capability slot
	Primary     bool   // routed through Handle when no parameters were extracted
	Description string // trigger semantics shown to the classifier
}

var functionSpecs = []FunctionSpec{
	{FuncPlayMusic, "play_music", SlotMusic, true, "play a song, artist or genre"},
	{FuncPauseMusic, "pause_music", SlotMusic, false, "pause the current track"},
	{FuncResumeMusic, "resume_music", SlotMusic, false, "resume a paused track"},
	{FuncStopMusic, "stop_music", SlotMusic, false, "stop playback"},
	{FuncSetVolume, "set_volume", SlotMusic, false, "change the playback volume"},

	{FuncFindFiles, "find_files", SlotFiles, true, "search for files or folders by name or type"},
	{FuncOrganizeFiles, "organize_files", SlotFiles, false, "sort the downloads folder into category folders"},
	{FuncFindDuplicates, "find_duplicates", SlotFiles, false, "list duplicate files"},
	{FuncCleanEmptyFolders, "clean_empty_folders", SlotFiles, false, "delete empty folders"},

	{FuncSendEmail, "send_email", SlotEmail, true, "compose or send an email to someone"},
	{FuncSendDraft, "send_draft", SlotEmail, false, "send the saved email draft"},
	{FuncGetDraft, "get_draft", SlotEmail, false, "show the saved email draft"},
	{FuncDiscardDraft, "discard_draft", SlotEmail, false, "delete the saved email draft"},
	{FuncCheckEmail, "check_email", SlotEmail, false, "read recent inbox messages"},
	{FuncUnreadEmail, "unread_email", SlotEmail, false, "count unread emails"},

	{FuncGetNews, "get_news", SlotNews, true, "headlines, category news or news about a topic"},

	{FuncGetWeather, "get_weather", SlotWeather, true, "current weather, temperature or rain questions"},
	{FuncGetForecast, "get_forecast", SlotWeather, false, "weather for the coming days"},

	{FuncScheduleEvent, "schedule_event", SlotCalendar, true, "schedule a meeting, call or appointment"},
	{FuncSetReminder, "set_reminder", SlotCalendar, false, "remind the user about something"},
	{FuncListEvents, "list_events", SlotCalendar, false, "show today's, tomorrow's or this week's events"},
	{FuncListReminders, "list_reminders", SlotCalendar, false, "show pending reminders"},
	{FuncCancelEvent, "cancel_event", SlotCalendar, false, "cancel the most recent event"},

	{FuncLaunchApp, "launch_app", SlotLauncher, true, "open or start an application"},
	{FuncOpenWebsite, "open_website", SlotLauncher, false, "open a website or web search"},
	{FuncListApps, "list_apps", SlotLauncher, false, "list running applications"},
	{FuncCloseApp, "close_app", SlotLauncher, false, "close a running application"},

	{FuncSystemStatus, "system_status", SlotSystem, true, "general computer information"},
	{FuncSystemPerformance, "system_performance", SlotSystem, false, "cpu, memory and disk load"},
	{FuncTopProcesses, "top_processes", SlotSystem, false, "processes using the most resources"},
	{FuncSystemAlerts, "system_alerts", SlotSystem, false, "health warnings about the computer"},
	{FuncStorageStatus, "storage_status", SlotSystem, false, "disk usage per partition"},
	{FuncNetworkStatus, "network_status", SlotSystem, false, "network traffic and interfaces"},
	{FuncBatteryStatus, "battery_status", SlotSystem, false, "battery level and charging state"},
	{FuncTemperatureStatus, "temperature_status", SlotSystem, false, "hardware temperatures"},
	{FuncAnalyzeSystem, "analyze_system", SlotSystem, false, "AI analysis of system health"},

	{FuncSpeak, "speak", SlotSpeech, true, "read a text out loud"},
	{FuncStopSpeaking, "stop_speaking", SlotSpeech, false, "stop talking"},

	{FuncChangeMode, "change_mode", SlotConversation, false, "switch persona to friend, therapist or workmate"},
	{FuncClearHistory, "clear_history", SlotConversation, false, "forget the conversation so far"},
}

var functionsByName = func() map[string]FunctionSpec {
	m := make(map[string]FunctionSpec, len(functionSpecs))
	for _, spec := range functionSpecs {
		m[spec.Name] = spec
	}
	return m
}()

// Functions returns the catalogue in declaration order.
func Functions() []FunctionSpec {
	out := make([]FunctionSpec, len(functionSpecs))
	copy(out, functionSpecs)
	return out
}

// LookupFunction resolves a classifier name. Matching ignores case and surrounding space.
func LookupFunction(name string) (FunctionSpec, bool) {
	spec, ok := functionsByName[strings.ToLower(strings.TrimSpace(name))]
	return spec, ok
}

// Spec returns the catalogue entry for f.
func (f Function) Spec() (FunctionSpec, bool) {
	for _, spec := range functionSpecs {
		if spec.Function == f {
			return spec, true
		}
	}
	return FunctionSpec{}, false
}

// String returns the wire name, or "unknown".
func (f Function) String() string {
	if spec, ok := f.Spec(); ok {
		return spec.Name
	}
	return "unknown"
}
