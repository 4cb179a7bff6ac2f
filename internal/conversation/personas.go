package conversation

import (
	"fmt"
	"strings"
	"time"

	"specter/internal/data/embedded"
	"specter/pkg/spectertypes"

	"gopkg.in/yaml.v3"
)

// Personas holds the system prompt template for each mode.
type Personas struct {
	Templates map[spectertypes.Mode]string `yaml:"personas"`
	Suffix    string                       `yaml:"suffix"`
}

// LoadPersonas parses the embedded persona templates.
func LoadPersonas() (*Personas, error) {
	var p Personas
	if err := yaml.Unmarshal(embedded.PersonasData, &p); err != nil {
		return nil, fmt.Errorf("failed to parse personas: %w", err)
	}
	for _, mode := range spectertypes.Modes() {
		if p.Templates[mode] == "" {
			return nil, fmt.Errorf("persona template missing for mode %s", mode)
		}
	}
	return &p, nil
}

// SystemPrompt renders the prompt for mode, user name and current time.
func (p *Personas) SystemPrompt(mode spectertypes.Mode, userName string, now time.Time) string {
	template, ok := p.Templates[mode]
	if !ok {
		template = p.Templates[spectertypes.ModeFriend]
	}
	base := strings.ReplaceAll(template, "{name}", userName)
	prompt := fmt.Sprintf("%s\n\nCurrent time: %s", base, now.Format("2006-01-02 15:04"))
	if p.Suffix != "" {
		prompt += "\n" + p.Suffix
	}
	return prompt
}
