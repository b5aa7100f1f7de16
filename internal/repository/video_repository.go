package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"h2o-shop/internal/domain"

	"github.com/google/uuid"
)

var ErrVideoNotFound = errors.New("video not found")

// VideoRepository defines the interface for video data access
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) error
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Video, error)
	List(ctx context.Context) ([]*domain.Video, error)
}

type videoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new instance of VideoRepository
func NewVideoRepository(db *sql.DB) VideoRepository {
	return &videoRepository{db: db}
}

const videoColumns = `id, title, description, video_url, thumbnail, date, created_at, updated_at`

func (r *videoRepository) Create(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO videos (id, title, description, video_url, thumbnail, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.VideoURL,
		video.Thumbnail,
		video.Date,
		video.CreatedAt,
		video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

func (r *videoRepository) Update(ctx context.Context, video *domain.Video) error {
	query := `
		UPDATE videos
		SET title = $2, description = $3, video_url = $4, thumbnail = $5, date = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		video.ID,
		video.Title,
		video.Description,
		video.VideoURL,
		video.Thumbnail,
		video.Date,
		video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

func (r *videoRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Video, error) {
	video := &domain.Video{}
	err := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id).Scan(
		&video.ID,
		&video.Title,
		&video.Description,
		&video.VideoURL,
		&video.Thumbnail,
		&video.Date,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to find video by ID: %w", err)
	}

	return video, nil
}

// List returns videos newest first.
func (r *videoRepository) List(ctx context.Context) ([]*domain.Video, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := []*domain.Video{}
	for rows.Next() {
		video := &domain.Video{}
		err := rows.Scan(
			&video.ID,
			&video.Title,
			&video.Description,
			&video.VideoURL,
			&video.Thumbnail,
			&video.Date,
			&video.CreatedAt,
			&video.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}
