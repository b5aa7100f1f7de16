package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"h2o-shop/internal/cache"
	"h2o-shop/internal/domain"
	"h2o-shop/internal/embed"
	"h2o-shop/internal/media"
	"h2o-shop/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const settingsCacheKey = "site_settings"

// SettingsInput is the submitted settings form. Banners lists the existing
// banners to keep, nil keeping all of them; every upload becomes a new banner
// named by the matching entry of BannerNames.
type SettingsInput struct {
	Phone       string
	Email       string
	Address     string
	MapURL      string
	FacebookURL string
	YoutubeURL  string
	Banners     []domain.Banner
	BannerNames []string
}

// SettingsService reads and saves the storefront settings
type SettingsService interface {
	Get(ctx context.Context) (*domain.SiteSettings, error)
	Update(ctx context.Context, input SettingsInput, uploads []*multipart.FileHeader) (*domain.SiteSettings, error)
}

type settingsService struct {
	repo    repository.SettingsRepository
	cache   cache.Cache
	images  ImageStore
	logger  *zap.Logger
	sfGroup singleflight.Group
}

// NewSettingsService creates a new instance of SettingsService
func NewSettingsService(
	repo repository.SettingsRepository,
	c cache.Cache,
	images ImageStore,
	logger *zap.Logger,
) SettingsService {
	return &settingsService{
		repo:   repo,
		cache:  c,
		images: images,
		logger: logger,
	}
}

// Get serves settings from the cache, loading them at most once per miss.
// Defaults are returned until settings are saved.
func (s *settingsService) Get(ctx context.Context) (*domain.SiteSettings, error) {
	var cached domain.SiteSettings
	found, err := s.cache.Get(ctx, settingsCacheKey, &cached)
	if err != nil {
		s.logger.Warn("Settings cache read failed", zap.Error(err))
	}
	if found {
		return &cached, nil
	}

	val, err, _ := s.sfGroup.Do(settingsCacheKey, func() (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	settings := val.(*domain.SiteSettings)

	if err := s.cache.Set(ctx, settingsCacheKey, settings); err != nil {
		s.logger.Warn("Settings cache write failed", zap.Error(err))
	}

	out := *settings
	return &out, nil
}

func (s *settingsService) load(ctx context.Context) (*domain.SiteSettings, error) {
	settings, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Update saves the form. The map URL is reduced to its iframe src, new banner
// images are appended after the kept ones, and banner files no longer
// referenced are deleted from the banners scope after the save.
func (s *settingsService) Update(ctx context.Context, input SettingsInput, uploads []*multipart.FileHeader) (*domain.SiteSettings, error) {
	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.images.SaveAll(media.ScopeBanners, uploads)
	if err != nil {
		return nil, err
	}

	kept := ownedBanners(current.Banners, input.Banners)
	banners := make(domain.Banners, 0, len(kept)+len(uploaded))
	banners = append(banners, kept...)
	for i, url := range uploaded {
		name := ""
		if i < len(input.BannerNames) {
			name = strings.TrimSpace(input.BannerNames[i])
		}
		banners = append(banners, domain.Banner{Name: name, Image: url})
	}

	plan := media.Reconcile(current.Banners.Images(), kept.Images(), uploaded)

	settings := &domain.SiteSettings{
		ID:          domain.SettingsID,
		Phone:       strings.TrimSpace(input.Phone),
		Email:       strings.TrimSpace(input.Email),
		Address:     strings.TrimSpace(input.Address),
		MapURL:      embed.MapSrc(strings.TrimSpace(input.MapURL)),
		FacebookURL: strings.TrimSpace(input.FacebookURL),
		YoutubeURL:  strings.TrimSpace(input.YoutubeURL),
		Banners:     banners,
		UpdatedAt:   time.Now(),
	}

	if err := s.repo.Upsert(ctx, settings); err != nil {
		s.images.Remove(media.ScopeBanners, uploaded)
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	if err := s.cache.Delete(ctx, settingsCacheKey); err != nil {
		s.logger.Warn("Settings cache invalidation failed", zap.Error(err))
	}

	s.images.Remove(media.ScopeBanners, plan.Orphaned)
	return settings, nil
}

// ownedBanners returns the entries of kept whose image is already one of the
// current banners. A nil kept list keeps every current banner.
func ownedBanners(current domain.Banners, kept []domain.Banner) domain.Banners {
	if kept == nil {
		return append(domain.Banners{}, current...)
	}

	images := make(map[string]struct{}, len(current))
	for _, b := range current {
		images[b.Image] = struct{}{}
	}

	out := make(domain.Banners, 0, len(kept))
	for _, b := range kept {
		if _, ok := images[b.Image]; ok {
			out = append(out, b)
		}
	}
	return out
}
