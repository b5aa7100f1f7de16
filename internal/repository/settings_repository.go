package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"h2o-shop/internal/domain"
)

var ErrSettingsNotFound = errors.New("site settings not saved yet")

// SettingsRepository reads and writes the singleton settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	Upsert(ctx context.Context, settings *domain.SiteSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.SiteSettings, error) {
	query := `
		SELECT id, phone, email, address, map_url, facebook_url, youtube_url, banners, updated_at
		FROM site_settings
		WHERE id = $1
	`

	s := &domain.SiteSettings{}
	err := r.db.QueryRowContext(ctx, query, domain.SettingsID).Scan(
		&s.ID,
		&s.Phone,
		&s.Email,
		&s.Address,
		&s.MapURL,
		&s.FacebookURL,
		&s.YoutubeURL,
		&s.Banners,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return s, nil
}

// Upsert writes every field of the row, creating it on first save.
func (r *settingsRepository) Upsert(ctx context.Context, s *domain.SiteSettings) error {
	query := `
		INSERT INTO site_settings (id, phone, email, address, map_url, facebook_url, youtube_url, banners, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			map_url = EXCLUDED.map_url,
			facebook_url = EXCLUDED.facebook_url,
			youtube_url = EXCLUDED.youtube_url,
			banners = EXCLUDED.banners,
			updated_at = EXCLUDED.updated_at
	`

	s.ID = domain.SettingsID
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Phone,
		s.Email,
		s.Address,
		s.MapURL,
		s.FacebookURL,
		s.YoutubeURL,
		s.Banners,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}
