package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ReportArchiveRepository tracks generated reports kept in blob storage
type ReportArchiveRepository struct {
	db *gorm.DB
}

// NewReportArchiveRepository creates a new report archive repository instance
func NewReportArchiveRepository(db *gorm.DB) *ReportArchiveRepository {
	return &ReportArchiveRepository{db: db}
}

func (r *ReportArchiveRepository) Create(ctx context.Context, archive *domain.ReportArchive) error {
	return r.db.WithContext(ctx).Create(archive).Error
}

func (r *ReportArchiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReportArchive, error) {
	var archive domain.ReportArchive
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

// List returns archives newest first, optionally for a single kind
func (r *ReportArchiveRepository) List(ctx context.Context, kind string, limit int) ([]domain.ReportArchive, error) {
	var archives []domain.ReportArchive
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	query := r.db.WithContext(ctx)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&archives).Error
	return archives, err
}

// ListBeyondRetention returns the archives of a kind older than the newest keep rows
func (r *ReportArchiveRepository) ListBeyondRetention(ctx context.Context, kind string, keep int) ([]domain.ReportArchive, error) {
	var archives []domain.ReportArchive
	if keep < 0 {
		keep = 0
	}
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Offset(keep).
		Limit(1000).
		Find(&archives).Error
	return archives, err
}

func (r *ReportArchiveRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.ReportArchive{}, "id = ?", id).Error
}
