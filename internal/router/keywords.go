package router

import (
	"strings"

	"specter/pkg/spectertypes"
)

// Rule maps keywords to a slot. Rules are evaluated in order and the first match wins.
type Rule struct {
	Slot     spectertypes.Slot
	Keywords []string
}

var keywordRules = []Rule{
	{spectertypes.SlotMusic, []string{"play", "music", "song", "volume", "pause"}},
	{spectertypes.SlotEmail, []string{"email", "send mail", "send email", "mail"}},
	{spectertypes.SlotFiles, []string{"find", "file", "folder", "organize"}},
	{spectertypes.SlotNews, []string{"news", "headlines"}},
	{spectertypes.SlotWeather, []string{"weather", "forecast"}},
	{spectertypes.SlotCalendar, []string{"calendar", "schedule", "meeting"}},
	{spectertypes.SlotLauncher, []string{"open", "launch", "start"}},
	{spectertypes.SlotSystem, []string{"system", "performance"}},
}

// KeywordRules returns the rules in priority order.
func KeywordRules() []Rule {
	out := make([]Rule, len(keywordRules))
	copy(out, keywordRules)
	return out
}

// MatchKeywords returns the slot of the first rule with a keyword contained in the
// lower-cased command. ok is false when the command belongs to the conversation fallback.
func MatchKeywords(command string) (spectertypes.Slot, bool) {
	lower := strings.ToLower(command)
	for _, rule := range keywordRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Slot, true
			}
		}
	}
	return "", false
}
