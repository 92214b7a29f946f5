package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/villapost/internal/domain/account/entity"
)

const profileColumns = `
	id, email, auto_publish, scheduled_time, timezone, language,
	brand_color1, brand_color2, brand_font, brand_logo_url, brand_image_url,
	page_id, page_access_token
`

// ProfilePostgres implements read-only profile access for PostgreSQL.
// The queue core only ever reads profiles; account management lives elsewhere.
type ProfilePostgres struct {
	pool *pgxpool.Pool
}

// NewProfilePostgres creates a new PostgreSQL profile repository
func NewProfilePostgres(pool *pgxpool.Pool) *ProfilePostgres {
	return &ProfilePostgres{pool: pool}
}

// GetByID retrieves one profile
func (r *ProfilePostgres) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)

	profile, err := scanProfile(row)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return profile, nil
}

// ListAutoPublish retrieves all profiles eligible for the scheduled sweep:
// auto-publish enabled and a Facebook page configured.
func (r *ProfilePostgres) ListAutoPublish(ctx context.Context) ([]entity.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE auto_publish = TRUE
		  AND page_id IS NOT NULL AND page_id <> ''
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying auto-publish profiles: %w", err)
	}
	defer rows.Close()

	var profiles []entity.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, *profile)
	}

	return profiles, rows.Err()
}

func scanProfile(row pgx.Row) (*entity.Profile, error) {
	var p entity.Profile
	var scheduledTime, timezone, language *string
	var color1, color2, font, logoURL, brandImageURL *string
	var pageID, pageAccessToken *string

	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.AutoPublish,
		&scheduledTime,
		&timezone,
		&language,
		&color1,
		&color2,
		&font,
		&logoURL,
		&brandImageURL,
		&pageID,
		&pageAccessToken,
	)
	if err != nil {
		return nil, err
	}

	p.ScheduledTime = deref(scheduledTime, "14:00")
	p.Timezone = deref(timezone, "Europe/Madrid")
	p.Language = deref(language, "en")
	p.Brand = entity.BrandStyle{
		Color1:  deref(color1, ""),
		Color2:  deref(color2, ""),
		Font:    deref(font, ""),
		LogoURL: deref(logoURL, ""),
	}
	p.BrandImageURL = deref(brandImageURL, "")
	p.PageID = deref(pageID, "")
	p.PageAccessToken = deref(pageAccessToken, "")

	return &p, nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
