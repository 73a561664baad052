package types

import "time"

// Activity is a named rule spec the user wants assessed. Predefined
// activities ship with the binary; custom ones are stored per owner.
type Activity struct {
	ID              string    `json:"id"`
	Label           string    `json:"label"`
	Icon            string    `json:"icon"`
	DurationMinutes int       `json:"durationMinutes"`
	Rules           RuleSpec  `json:"rules"`
	Predefined      bool      `json:"predefined"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// Favorite is a saved location whose forecast is kept warm by the prefetcher.
type Favorite struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  Location  `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}
