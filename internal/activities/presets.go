package activities

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"fairweather/internal/types"
)

//go:embed presets.yaml
var presetsYAML []byte

// presetDoc is the YAML shape of one predefined activity.
type presetDoc struct {
	ID              string `yaml:"id"`
	Label           string `yaml:"label"`
	Icon            string `yaml:"icon"`
	DurationMinutes int    `yaml:"durationMinutes"`
	Rules           struct {
		Mode          string   `yaml:"mode"`
		TempMin       *float64 `yaml:"tempMin"`
		TempMax       *float64 `yaml:"tempMax"`
		RainMax       *float64 `yaml:"rainMax"`
		WindMax       *float64 `yaml:"windMax"`
		CheckWetFloor bool     `yaml:"checkWetFloor"`
	} `yaml:"rules"`
}

// ParsePresets decodes and validates a preset table.
func ParsePresets(data []byte) ([]types.Activity, error) {
	var docs []presetDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	seen := make(map[string]bool, len(docs))
	out := make([]types.Activity, 0, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			return nil, fmt.Errorf("preset %q: missing id", d.Label)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("preset %q: duplicate id", d.ID)
		}
		seen[d.ID] = true

		mode, ok := types.ParseMode(d.Rules.Mode)
		if !ok {
			return nil, fmt.Errorf("preset %q: unknown mode %q", d.ID, d.Rules.Mode)
		}
		a := types.Activity{
			ID:              d.ID,
			Label:           d.Label,
			Icon:            NormalizeIcon(d.Icon),
			DurationMinutes: d.DurationMinutes,
			Predefined:      true,
			Rules: types.RuleSpec{
				Mode:          mode,
				TempMin:       d.Rules.TempMin,
				TempMax:       d.Rules.TempMax,
				RainMax:       d.Rules.RainMax,
				WindMax:       d.Rules.WindMax,
				CheckWetFloor: d.Rules.CheckWetFloor,
			},
		}
		if err := a.Rules.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", d.ID, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// DefaultPresets returns the embedded preset table. The table ships with the
// binary, so a parse failure is a build defect.
func DefaultPresets() []types.Activity {
	presets, err := ParsePresets(presetsYAML)
	if err != nil {
		panic(err)
	}
	return presets
}

// Icons accepted for custom activities. Unknown names fall back to "star".
var knownIcons = map[string]bool{
	"run": true, "walk": true, "bike": true, "moto": true, "car": true, "gym": true,
	"swim": true, "tennis": true, "soccer": true, "basket": true, "yoga": true, "hike": true,
	"bus": true, "train": true, "fly": true, "boat": true,
	"work": true, "study": true, "home": true, "shop": true, "laundry": true, "dog": true, "baby": true,
	"coffee": true, "eat": true, "drink": true, "wine": true, "cinema": true, "music": true,
	"game": true, "read": true, "photo": true, "art": true,
	"garden": true, "beach": true, "camp": true, "party": true, "gift": true, "love": true,
	"star": true, "health": true, "fix": true, "pc": true,
}

const fallbackIcon = "star"

// NormalizeIcon maps unknown icon names to the fallback icon.
func NormalizeIcon(name string) string {
	if knownIcons[name] {
		return name
	}
	return fallbackIcon
}
