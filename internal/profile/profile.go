// Package profile loads the static user profile consulted by every handler.
// The profile is read once at startup and never mutated afterwards; a
// malformed document is a fatal startup error.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Address locates the user's home, including the transit stop used for
// public-transport routing.
type Address struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	TransitID string `json:"vvs_id"`
}

// Possessions flags the transport modes the user owns.
type Possessions struct {
	Bike bool `json:"bike"`
	Car  bool `json:"car"`
}

// Stock names one of the user's watched securities.
type Stock struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Favorites collects the user's standing preferences.
type Favorites struct {
	Stocks       []Stock   `json:"stocks"`
	League       string    `json:"league"`
	Team         string    `json:"team"`
	NewsCountry  string    `json:"news_country"`
	NewsKeywords []string  `json:"news_keywords"`
	WakeupTime   time.Time `json:"wakeup_time"`
}

// Profile is the immutable user record.
type Profile struct {
	Name        string      `json:"name"`
	Age         int         `json:"age"`
	Address     Address     `json:"address"`
	Possessions Possessions `json:"possessions"`
	Favorites   Favorites   `json:"favorites"`
}

// Load reads and validates the profile document at path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("profile document missing: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a profile document.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("profile document malformed: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("profile document malformed: %w", err)
	}
	return &p, nil
}

func (p *Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age must be non-negative, got %d", p.Age)
	}
	if p.Address.City == "" {
		return fmt.Errorf("address.city is required")
	}
	for i, stock := range p.Favorites.Stocks {
		if stock.Symbol == "" {
			return fmt.Errorf("favorites.stocks[%d]: symbol is required", i)
		}
	}
	return nil
}
