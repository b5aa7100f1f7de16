package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// SettingsID is the fixed primary key of the singleton settings row.
const SettingsID = 1

// SiteSettings holds the storefront contact, map and banner configuration.
type SiteSettings struct {
	ID          int       `json:"-" db:"id"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	Address     string    `json:"address" db:"address"`
	MapURL      string    `json:"map_url" db:"map_url"`
	FacebookURL string    `json:"facebook_url" db:"facebook_url"`
	YoutubeURL  string    `json:"youtube_url" db:"youtube_url"`
	Banners     Banners   `json:"banners" db:"banners"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Banner is one slide of the storefront hero carousel.
type Banner struct {
	Name  string `json:"name"`
	Image string `json:"banner_image"`
}

// Banners is stored as a JSONB array.
type Banners []Banner

// Value implements driver.Valuer.
func (b Banners) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]Banner(b))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (b *Banners) Scan(src interface{}) error {
	return scanJSON(src, (*[]Banner)(b))
}

// Images returns the banner image URLs in order.
func (b Banners) Images() []string {
	out := make([]string, 0, len(b))
	for _, banner := range b {
		out = append(out, banner.Image)
	}
	return out
}

// DefaultSettings is served until an admin saves the settings form once.
func DefaultSettings() *SiteSettings {
	return &SiteSettings{
		ID:          SettingsID,
		Phone:       "012 999 996",
		Email:       "chhaylyhh@online.com.kh",
		Address:     "Phnom Penh, Cambodia",
		MapURL:      "https://www.google.com/maps/embed?pb=!1m18!1m12!1m3!1d3908.770519363063!2d104.8906643!3d11.5682859",
		FacebookURL: "#",
		YoutubeURL:  "#",
		Banners:     Banners{},
	}
}
