package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/repack-io/backbreaker-api/internal/models"
)

// StatusRepository resolves card processing status codes.
type StatusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new repository instance.
func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// FindByCode returns the status with the given code.
func (r *StatusRepository) FindByCode(ctx context.Context, code string) (*models.CardProcessingStatus, error) {
	var status models.CardProcessingStatus
	if err := r.db.WithContext(ctx).First(&status, "code = ?", code).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &status, nil
}
