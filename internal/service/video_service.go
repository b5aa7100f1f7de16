package service

import (
	"context"
	"strings"
	"time"

	"h2o-shop/internal/domain"
	"h2o-shop/internal/embed"
	"h2o-shop/internal/repository"

	"github.com/google/uuid"
)

// VideoInput carries the editable fields of a video. A nil Date means "now"
// on create and "unchanged" on update.
type VideoInput struct {
	Title       string
	Description string
	VideoURL    string
	Thumbnail   string
	Date        *time.Time
}

// VideoService manages tutorial videos
type VideoService interface {
	List(ctx context.Context) ([]*domain.Video, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	Create(ctx context.Context, input VideoInput) (*domain.Video, error)
	Update(ctx context.Context, id uuid.UUID, input VideoInput) (*domain.Video, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type videoService struct {
	repo repository.VideoRepository
}

// NewVideoService creates a new instance of VideoService
func NewVideoService(repo repository.VideoRepository) VideoService {
	return &videoService{repo: repo}
}

func (s *videoService) List(ctx context.Context) ([]*domain.Video, error) {
	return s.repo.List(ctx)
}

func (s *videoService) Get(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	return s.repo.FindByID(ctx, id)
}

func validateVideo(input VideoInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(input.VideoURL) == "" {
		return ErrVideoURLRequired
	}
	return nil
}

// Create stores the video with its URL in embeddable form.
func (s *videoService) Create(ctx context.Context, input VideoInput) (*domain.Video, error) {
	if err := validateVideo(input); err != nil {
		return nil, err
	}

	now := time.Now()
	video := &domain.Video{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		VideoURL:    embed.YouTube(input.VideoURL),
		Thumbnail:   input.Thumbnail,
		Date:        now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Date != nil {
		video.Date = *input.Date
	}

	if err := s.repo.Create(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) Update(ctx context.Context, id uuid.UUID, input VideoInput) (*domain.Video, error) {
	if err := validateVideo(input); err != nil {
		return nil, err
	}

	video, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	video.Title = strings.TrimSpace(input.Title)
	video.Description = input.Description
	video.VideoURL = embed.YouTube(input.VideoURL)
	video.Thumbnail = input.Thumbnail
	if input.Date != nil {
		video.Date = *input.Date
	}
	video.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
