package entity

// BrandStyle holds the styling payload passed through to the image compositor
type BrandStyle struct {
	Color1  string `json:"color1"`
	Color2  string `json:"color2"`
	Font    string `json:"font"`
	LogoURL string `json:"logo_url,omitempty"`
}

// DefaultBrandStyle is applied when a profile has no branding configured
var DefaultBrandStyle = BrandStyle{
	Color1: "#0077b6",
	Color2: "#00b4d8",
	Font:   "Inter",
}

// Profile represents a tenant's settings as the scheduler sees them.
// The queue core reads profiles, it never writes them.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	AutoPublish   bool   `json:"auto_publish"`
	ScheduledTime string `json:"scheduled_time"` // "HH:MM", 24-hour local wall clock
	Timezone      string `json:"timezone"`       // IANA zone, e.g. "Europe/Madrid"
	Language      string `json:"language"`       // output language for generated copy

	Brand BrandStyle `json:"brand"`

	// BrandImageURL is the closing carousel image: either a hosted URL or an
	// inline data URI that must be uploaded before publishing.
	BrandImageURL string `json:"brand_image_url,omitempty"`

	PageID          string `json:"page_id,omitempty"`
	PageAccessToken string `json:"-"`
}

// HasPageCredentials reports whether the profile can publish at all
func (p *Profile) HasPageCredentials() bool {
	return p.PageID != "" && p.PageAccessToken != ""
}

// BrandOrDefault returns the profile's brand style with defaults filled in
func (p *Profile) BrandOrDefault() BrandStyle {
	brand := p.Brand
	if brand.Color1 == "" {
		brand.Color1 = DefaultBrandStyle.Color1
	}
	if brand.Color2 == "" {
		brand.Color2 = DefaultBrandStyle.Color2
	}
	if brand.Font == "" {
		brand.Font = DefaultBrandStyle.Font
	}
	return brand
}
